package rategate

import (
	"math"
	"time"
)

// MaxTimeUnit is the longest time unit a gate accepts. Expiry ticks are 32-bit
// millisecond counters compared by signed difference, so the distance between
// "now" and any pending expiry must fit in an int32.
const MaxTimeUnit = time.Duration(math.MaxInt32) * time.Millisecond

// tick is a wrapping millisecond counter.
type tick uint32

// sub returns t-u as a signed distance. The result is correct across
// wraparound as long as the real distance fits in an int32.
func (t tick) sub(u tick) int32 {
	return int32(t - u)
}

// before reports whether t is strictly earlier than u.
func (t tick) before(u tick) bool {
	return t.sub(u) < 0
}

// add advances t by ms milliseconds, wrapping.
func (t tick) add(ms int32) tick {
	return t + tick(uint32(ms))
}

// ticker converts clock readings into ticks relative to a fixed epoch.
type ticker struct {
	epoch  time.Time
	offset tick
}

func (tk ticker) at(now time.Time) tick {
	elapsed := now.Sub(tk.epoch)
	if elapsed < 0 {
		elapsed = 0
	}
	return tk.offset + tick(uint32(elapsed/time.Millisecond))
}

// roundUpMillis rounds d up to a whole number of milliseconds. It reports
// false if the result does not fit in an int32.
func roundUpMillis(d time.Duration) (int32, bool) {
	ms := d / time.Millisecond
	if d%time.Millisecond != 0 {
		ms++
	}
	if ms > math.MaxInt32 {
		return 0, false
	}
	return int32(ms), true
}
