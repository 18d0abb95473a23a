package rategate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/semaphore"
)

// Infinite is the timeout that waits until the caller is admitted or the gate
// is closed.
const Infinite time.Duration = -1

// Gate admits at most a fixed number of occurrences within any rolling time
// unit. Callers acquire an occurrence with WaitToProceed before performing the
// throttled action; the occurrence is returned to the gate by a background
// reclaimer exactly one time unit after it was granted.
//
// # Algorithm
//
//  1. A counting semaphore holds one slot per allowed occurrence.
//  2. An admitted caller appends "now + time unit" to the expiry schedule.
//  3. The reclaimer wakes at the earliest expiry, releases one slot per
//     expired entry and re-arms itself for the next entry, or for one full
//     time unit if nothing is pending.
//
// Because every slot stays held for a full time unit after it was granted, no
// window of that length can contain more than the configured number of
// admissions.
//
// # Thread Safety
//
// Gate is safe for concurrent use by any number of goroutines. The schedule,
// the reclaimer timer and the disposed flag share one mutex, so Close never
// races a running reclaimer pass.
type Gate struct {
	id          string
	label       string
	name        string
	occurrences int
	timeUnit    time.Duration
	timeUnitMS  int32

	clock    clockwork.Clock
	ticks    ticker
	logger   *slog.Logger
	observer Observer

	sem *semaphore.Weighted

	// lifetime is cancelled on teardown to wake blocked waiters.
	lifetime context.Context
	cancel   context.CancelFunc

	closed atomic.Bool

	mu        sync.Mutex
	expiries  *schedule
	reclaimer clockwork.Timer
	disposed  bool
	failure   error
}

// ValidateConfig reports whether New would accept occurrences and timeUnit.
// The returned error wraps ErrInvalidConfiguration.
func ValidateConfig(occurrences int, timeUnit time.Duration) error {
	_, err := validate(occurrences, timeUnit)
	return err
}

func validate(occurrences int, timeUnit time.Duration) (int32, error) {
	if occurrences <= 0 {
		return 0, fmt.Errorf("%w: occurrences must be positive, got %d", ErrInvalidConfiguration, occurrences)
	}
	if timeUnit <= 0 {
		return 0, fmt.Errorf("%w: time unit must be positive, got %s", ErrInvalidConfiguration, timeUnit)
	}
	ms, ok := roundUpMillis(timeUnit)
	if !ok {
		return 0, fmt.Errorf("%w: time unit %s exceeds maximum %s", ErrInvalidConfiguration, timeUnit, MaxTimeUnit)
	}
	return ms, nil
}

// New creates a gate that admits occurrences callers per timeUnit and starts
// its reclaimer.
//
// timeUnit is rounded up to whole milliseconds and must not exceed
// MaxTimeUnit. Invalid arguments return an error wrapping
// ErrInvalidConfiguration.
//
// Example:
//
//	gate, err := rategate.New(5, time.Second)
//	if err != nil {
//	    return err
//	}
//	defer gate.Close()
//
//	if err := gate.Wait(); err != nil {
//	    return err
//	}
//	// at most 5 calls per second reach this point
func New(occurrences int, timeUnit time.Duration, opts ...Option) (*Gate, error) {
	ms, err := validate(occurrences, timeUnit)
	if err != nil {
		return nil, err
	}

	o := options{
		clock:    clockwork.NewRealClock(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	id := uuid.NewString()
	label := o.name
	if label == "" {
		label = id
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default().With("component", "rategate")
	}

	g := &Gate{
		id:          id,
		label:       label,
		name:        o.name,
		occurrences: occurrences,
		timeUnit:    time.Duration(ms) * time.Millisecond,
		timeUnitMS:  ms,
		clock:       o.clock,
		ticks:       ticker{epoch: o.clock.Now(), offset: o.tickOffset},
		logger:      logger.With("gate", label),
		observer:    o.observer,
		sem:         semaphore.NewWeighted(int64(occurrences)),
		expiries:    newSchedule(),
	}
	g.lifetime, g.cancel = context.WithCancel(context.Background())

	// The first wake cannot run before the timer handle is stored.
	g.mu.Lock()
	g.reclaimer = g.clock.AfterFunc(g.timeUnit, g.reclaim)
	g.mu.Unlock()

	g.logger.Debug("gate created",
		"id", id,
		"occurrences", occurrences,
		"time_unit_ms", ms,
	)

	return g, nil
}

// WaitToProceed blocks until the caller is admitted or timeout elapses.
//
// A zero timeout probes without blocking; Infinite waits until admitted.
// Any other negative timeout returns ErrInvalidArgument. Running out of time
// is not an error: it returns false with a nil error.
func (g *Gate) WaitToProceed(timeout time.Duration) (bool, error) {
	return g.WaitToProceedContext(context.Background(), timeout)
}

// WaitToProceedContext is WaitToProceed with an external cancellation signal.
// A cancelled wait returns false with a nil error, exactly like a timeout,
// and leaves the gate untouched.
func (g *Gate) WaitToProceedContext(ctx context.Context, timeout time.Duration) (bool, error) {
	if timeout < 0 && timeout != Infinite {
		return false, fmt.Errorf("%w: timeout must be non-negative or Infinite, got %s", ErrInvalidArgument, timeout)
	}
	if err := g.alive(); err != nil {
		return false, err
	}

	start := g.clock.Now()
	var acquired bool
	switch {
	case ctx.Err() != nil:
		// Already cancelled: never admit, whatever the timeout.
	case timeout == 0:
		acquired = g.sem.TryAcquire(1)
	default:
		acquired = g.acquire(ctx, timeout)
	}
	waited := g.clock.Since(start)

	if !acquired {
		if g.closed.Load() {
			g.observer.ObserveWait(g.label, OutcomeDisposed, waited)
			return false, g.alive()
		}
		outcome := OutcomeTimeout
		if ctx.Err() != nil {
			outcome = OutcomeCancelled
		}
		g.observer.ObserveWait(g.label, outcome, waited)
		return false, nil
	}

	if err := g.record(); err != nil {
		g.observer.ObserveWait(g.label, OutcomeDisposed, waited)
		return false, err
	}

	g.observer.ObserveWait(g.label, OutcomeAdmitted, waited)
	return true, nil
}

// TryProceed admits the caller only if an occurrence is free right now.
func (g *Gate) TryProceed() (bool, error) {
	return g.WaitToProceed(0)
}

// Wait blocks until the caller is admitted. It only fails if the gate is
// closed before or while waiting.
func (g *Gate) Wait() error {
	_, err := g.WaitToProceed(Infinite)
	return err
}

// acquire takes one slot, giving up when ctx is done, the timeout fires on the
// gate's clock, or the gate is closed.
func (g *Gate) acquire(ctx context.Context, timeout time.Duration) bool {
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := context.AfterFunc(g.lifetime, cancel)
	defer stop()

	if timeout != Infinite {
		timer := g.clock.AfterFunc(timeout, cancel)
		defer timer.Stop()
	}

	return g.sem.Acquire(waitCtx, 1) == nil
}

// record appends the expiry for a slot that was just acquired.
func (g *Gate) record() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.disposed {
		// The slot is abandoned together with the gate.
		return g.disposedErrLocked()
	}

	now := g.ticks.at(g.clock.Now())
	g.expiries.push(now.add(g.timeUnitMS))
	g.observer.ObserveAdmit(g.label, g.expiries.len())
	return nil
}

// reclaim is the timer callback. It releases every slot whose expiry has
// passed and re-arms the timer for the next pending expiry.
func (g *Gate) reclaim() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.disposed {
		return
	}

	// A wedged reclaimer would starve every future caller, so any panic
	// here tears the gate down instead.
	defer func() {
		if r := recover(); r != nil {
			g.failLocked(fmt.Errorf("reclaimer: %v", r))
		}
	}()

	now := g.ticks.at(g.clock.Now())

	// Expiries are due once strictly behind the current millisecond, which
	// keeps every slot held for at least one full time unit.
	released := 0
	for {
		due, ok := g.expiries.peek()
		if !ok || !due.before(now) {
			break
		}
		g.sem.Release(1)
		g.expiries.pop()
		released++
	}

	next := g.timeUnit
	if due, ok := g.expiries.peek(); ok {
		next = time.Duration(int64(due.sub(now))+1) * time.Millisecond
	}
	g.reclaimer.Reset(next)

	if released > 0 {
		inFlight := g.expiries.len()
		g.logger.Debug("reclaimed occurrences",
			"released", released,
			"in_flight", inFlight,
			"next_wake", next,
		)
		g.observer.ObserveReclaim(g.label, released, inFlight)
	}
}

// Close stops the reclaimer, wakes blocked waiters and makes the gate
// permanently unusable. It waits for a running reclaimer pass to finish.
// Close is idempotent and always returns nil.
func (g *Gate) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.disposed {
		return nil
	}
	g.disposeLocked()
	g.logger.Debug("gate closed")

	return nil
}

func (g *Gate) failLocked(cause error) {
	g.failure = cause
	g.logger.Error("reclaimer failed, disposing gate", "error", cause)
	g.disposeLocked()
}

func (g *Gate) disposeLocked() {
	g.disposed = true
	g.closed.Store(true)
	g.reclaimer.Stop()
	g.cancel()
	g.expiries.clear()
	g.observer.ObserveClose(g.label)
}

func (g *Gate) alive() error {
	if !g.closed.Load() {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.disposedErrLocked()
}

func (g *Gate) disposedErrLocked() error {
	if g.failure != nil {
		return fmt.Errorf("%w: %w", ErrDisposed, g.failure)
	}
	return ErrDisposed
}

// Occurrences returns the number of admissions allowed per time unit.
func (g *Gate) Occurrences() int {
	return g.occurrences
}

// TimeUnit returns the window length, rounded up to whole milliseconds.
func (g *Gate) TimeUnit() time.Duration {
	return g.timeUnit
}

// TimeUnitMilliseconds returns the window length in milliseconds.
func (g *Gate) TimeUnitMilliseconds() int32 {
	return g.timeUnitMS
}

// InFlight returns the number of admissions whose expiry is still pending.
func (g *Gate) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.expiries.len()
}

// Available returns how many callers could be admitted right now, based on
// recorded expiries. It is a snapshot for monitoring only.
func (g *Gate) Available() int {
	available := g.occurrences - g.InFlight()
	if available < 0 {
		return 0
	}
	return available
}

// ID returns the gate's unique identifier.
func (g *Gate) ID() string {
	return g.id
}

// Name returns the name given with WithName, or "" if none was set.
func (g *Gate) Name() string {
	return g.name
}

// Closed reports whether the gate has been torn down.
func (g *Gate) Closed() bool {
	return g.closed.Load()
}

// Err returns the reclaimer failure that disposed the gate, or nil.
func (g *Gate) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.failure
}
