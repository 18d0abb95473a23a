package rategate

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

// waitFor polls cond in real time, giving reclaimer callbacks fired by the
// fake clock a chance to run.
func waitFor(cond func() bool, within time.Duration) bool {
	deadline := time.Now().Add(within)
	for {
		if cond() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}

// stepUntil advances the fake clock one millisecond at a time until cond
// holds, failing after maxSteps.
func stepUntil(t *testing.T, fc clockwork.FakeClock, maxSteps int, cond func() bool) {
	t.Helper()
	for i := 0; i <= maxSteps; i++ {
		if waitFor(cond, 20*time.Millisecond) {
			return
		}
		fc.Advance(time.Millisecond)
	}
	t.Fatalf("condition not met after %d fake milliseconds", maxSteps)
}

func inFlightIs(g *Gate, n int) func() bool {
	return func() bool { return g.InFlight() == n }
}

func TestReclaimer_ReleasesOneTimeUnitAfterAdmission(t *testing.T) {
	fc := clockwork.NewFakeClock()
	start := fc.Now()
	obs := newRecordingObserver()
	g := mustNew(t, 2, time.Second, WithClock(fc), WithObserver(obs))

	for i := 0; i < 2; i++ {
		if ok, err := g.TryProceed(); !ok || err != nil {
			t.Fatalf("TryProceed %d = (%v, %v)", i, ok, err)
		}
	}
	if ok, _ := g.TryProceed(); ok {
		t.Fatal("third TryProceed admitted with no capacity")
	}

	fc.Advance(999 * time.Millisecond)
	if waitFor(inFlightIs(g, 0), 20*time.Millisecond) {
		t.Fatal("capacity released before one time unit elapsed")
	}
	if ok, _ := g.TryProceed(); ok {
		t.Fatal("admitted before one time unit elapsed")
	}

	stepUntil(t, fc, 10, inFlightIs(g, 0))
	if elapsed := fc.Since(start); elapsed < time.Second {
		t.Errorf("released after %v of fake time, want at least 1s", elapsed)
	}

	for i := 0; i < 2; i++ {
		if ok, err := g.TryProceed(); !ok || err != nil {
			t.Fatalf("TryProceed after reclaim %d = (%v, %v)", i, ok, err)
		}
	}

	obs.mu.Lock()
	released := obs.released
	obs.mu.Unlock()
	if released != 2 {
		t.Errorf("observer saw %d released, want 2", released)
	}
}

func TestReclaimer_ReschedulesForNextExpiry(t *testing.T) {
	fc := clockwork.NewFakeClock()
	start := fc.Now()
	g := mustNew(t, 2, time.Second, WithClock(fc))

	if ok, _ := g.TryProceed(); !ok {
		t.Fatal("first admission failed")
	}
	fc.Advance(400 * time.Millisecond)
	if ok, _ := g.TryProceed(); !ok {
		t.Fatal("second admission failed")
	}

	fc.Advance(599 * time.Millisecond)
	if waitFor(inFlightIs(g, 1), 20*time.Millisecond) {
		t.Fatal("first expiry released early")
	}
	stepUntil(t, fc, 10, inFlightIs(g, 1))
	if elapsed := fc.Since(start); elapsed < time.Second {
		t.Errorf("first expiry released at %v, want >= 1s", elapsed)
	}

	remaining := 1400*time.Millisecond - fc.Since(start) - time.Millisecond
	if remaining > 0 {
		fc.Advance(remaining)
	}
	if waitFor(inFlightIs(g, 0), 20*time.Millisecond) {
		t.Fatal("second expiry released early")
	}
	stepUntil(t, fc, 10, inFlightIs(g, 0))
	if elapsed := fc.Since(start); elapsed < 1400*time.Millisecond {
		t.Errorf("second expiry released at %v, want >= 1.4s", elapsed)
	}
}

func TestReclaimer_AdmissionAfterIdlePass(t *testing.T) {
	fc := clockwork.NewFakeClock()
	start := fc.Now()
	g := mustNew(t, 1, time.Second, WithClock(fc))

	// The first wake finds nothing and re-arms for a full time unit.
	fc.Advance(1500 * time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	if ok, _ := g.TryProceed(); !ok {
		t.Fatal("admission failed on an idle gate")
	}

	fc.Advance(999 * time.Millisecond)
	if waitFor(inFlightIs(g, 0), 20*time.Millisecond) {
		t.Fatal("released before one time unit after admission")
	}
	stepUntil(t, fc, 10, inFlightIs(g, 0))
	if elapsed := fc.Since(start); elapsed < 2500*time.Millisecond {
		t.Errorf("released at %v, want >= 2.5s", elapsed)
	}
}

func TestReclaimer_TickWraparound(t *testing.T) {
	fc := clockwork.NewFakeClock()
	start := fc.Now()
	g := mustNew(t, 1, time.Second, WithClock(fc), withTickOffset(tick(math.MaxUint32-500)))

	if ok, _ := g.TryProceed(); !ok {
		t.Fatal("admission failed")
	}

	// The counter wraps past zero here while the expiry is still pending.
	fc.Advance(600 * time.Millisecond)
	if waitFor(inFlightIs(g, 0), 20*time.Millisecond) {
		t.Fatal("expiry released early across tick wraparound")
	}

	fc.Advance(399 * time.Millisecond)
	if waitFor(inFlightIs(g, 0), 20*time.Millisecond) {
		t.Fatal("expiry released early across tick wraparound")
	}
	stepUntil(t, fc, 10, inFlightIs(g, 0))
	if elapsed := fc.Since(start); elapsed < time.Second {
		t.Errorf("released at %v, want >= 1s", elapsed)
	}
}

func TestReclaimer_FailureDisposesGate(t *testing.T) {
	fc := clockwork.NewFakeClock()
	g := mustNew(t, 1, time.Second, WithClock(fc))

	// An expiry with no matching acquisition makes the release over-run
	// the semaphore.
	g.mu.Lock()
	g.expiries.push(g.ticks.at(fc.Now()))
	g.mu.Unlock()

	fc.Advance(time.Second)
	stepUntil(t, fc, 10, g.Closed)

	if g.Err() == nil {
		t.Fatal("Err() = nil after reclaimer failure")
	}
	_, err := g.WaitToProceed(Infinite)
	if !errors.Is(err, ErrDisposed) {
		t.Fatalf("WaitToProceed() error = %v, want ErrDisposed", err)
	}
	if !strings.Contains(err.Error(), "reclaimer") {
		t.Errorf("error %q should carry the reclaimer failure", err)
	}
	if err := g.Close(); err != nil {
		t.Errorf("Close() after failure error = %v", err)
	}
}

func TestWaitToProceed_TimeoutMeasuredOnGateClock(t *testing.T) {
	fc := clockwork.NewFakeClock()
	g := mustNew(t, 1, time.Minute, WithClock(fc))
	if ok, _ := g.TryProceed(); !ok {
		t.Fatal("admission failed")
	}

	type result struct {
		ok  bool
		err error
	}
	done := make(chan result, 1)
	go func() {
		ok, err := g.WaitToProceed(500 * time.Millisecond)
		done <- result{ok, err}
	}()

	// Reclaimer timer plus the waiter's timeout timer.
	fc.BlockUntil(2)

	fc.Advance(499 * time.Millisecond)
	select {
	case r := <-done:
		t.Fatalf("wait returned early: %+v", r)
	case <-time.After(20 * time.Millisecond):
	}

	fc.Advance(time.Millisecond)
	select {
	case r := <-done:
		if r.ok || r.err != nil {
			t.Errorf("timed out wait = (%v, %v), want (false, nil)", r.ok, r.err)
		}
	case <-time.After(time.Second):
		t.Fatal("wait did not time out on the gate clock")
	}
}
