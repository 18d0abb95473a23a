// Package rategate provides a blocking sliding-window rate gate.
//
// # Overview
//
// A Gate allows at most N occurrences within any rolling time unit T. Callers
// on any goroutine call WaitToProceed before performing the throttled action
// (an API call, an outbound request, a unit of work); surplus callers block
// until an earlier admission is one full time unit old, or until their
// timeout elapses.
//
//	gate, err := rategate.New(5, time.Second) // 5 per rolling second
//	if err != nil {
//	    return err
//	}
//	defer gate.Close()
//
//	ok, err := gate.WaitToProceed(100 * time.Millisecond)
//	switch {
//	case err != nil:
//	    // ErrInvalidArgument or ErrDisposed
//	case !ok:
//	    // timed out, not admitted
//	default:
//	    // admitted
//	}
//
// # Components
//
//   - Capacity: a counting semaphore with N slots, acquired by callers.
//   - Expiry schedule: a FIFO of release ticks, one per admission.
//   - Reclaimer: a single timer that returns expired slots and re-arms itself.
//
// Only the reclaimer releases capacity. Callers never return a slot
// themselves.
//
// # Timing
//
// Expiries are 32-bit millisecond ticks compared by signed difference, which
// stays correct when the counter wraps. The time unit is therefore limited to
// MaxTimeUnit (math.MaxInt32 milliseconds, about 24.8 days). Timeouts, ticks
// and the reclaimer all use the gate's clockwork.Clock, so tests can drive a
// gate with a fake clock.
//
// # Teardown
//
// Close stops the reclaimer and wakes blocked waiters. Every later call fails
// with ErrDisposed. Close is idempotent and safe to call concurrently with
// waiting callers.
package rategate
