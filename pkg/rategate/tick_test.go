package rategate

import (
	"math"
	"testing"
	"time"
)

func TestTick_SubAcrossWraparound(t *testing.T) {
	tests := []struct {
		name string
		a, b tick
		want int32
	}{
		{"plain", 1500, 1000, 500},
		{"plain negative", 1000, 1500, -500},
		{"a wrapped past zero", 100, math.MaxUint32 - 99, 200},
		{"b wrapped past zero", math.MaxUint32 - 99, 100, -200},
		{"equal", 42, 42, 0},
		{"max distance", math.MaxInt32, 0, math.MaxInt32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.sub(tt.b); got != tt.want {
				t.Errorf("%d.sub(%d) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestTick_BeforeAndAdd(t *testing.T) {
	near := tick(math.MaxUint32 - 10)
	due := near.add(1000)

	if due != 989 {
		t.Errorf("add wrapped to %d, want 989", due)
	}
	if !near.before(due) {
		t.Error("raw counter comparison would say due < near; before must not")
	}
	if due.before(near) {
		t.Error("due.before(near) = true across wraparound")
	}
	if due.before(due) {
		t.Error("a tick is not before itself")
	}
}

func TestTicker_At(t *testing.T) {
	epoch := time.Unix(1000, 0)
	tk := ticker{epoch: epoch, offset: 7}

	if got := tk.at(epoch); got != 7 {
		t.Errorf("at(epoch) = %d, want 7", got)
	}
	if got := tk.at(epoch.Add(1999 * time.Microsecond)); got != 8 {
		t.Errorf("at(+1.999ms) = %d, want 8 (truncated)", got)
	}
	if got := tk.at(epoch.Add(-time.Second)); got != 7 {
		t.Errorf("at(before epoch) = %d, want 7", got)
	}
}

func TestRoundUpMillis(t *testing.T) {
	tests := []struct {
		in     time.Duration
		want   int32
		wantOK bool
	}{
		{time.Nanosecond, 1, true},
		{time.Millisecond, 1, true},
		{time.Millisecond + 1, 2, true},
		{MaxTimeUnit, math.MaxInt32, true},
		{MaxTimeUnit + 1, 0, false},
	}

	for _, tt := range tests {
		got, ok := roundUpMillis(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("roundUpMillis(%v) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
