package rategate

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// Outcome classifies how a wait ended.
type Outcome string

const (
	// OutcomeAdmitted means the caller was granted an occurrence.
	OutcomeAdmitted Outcome = "admitted"
	// OutcomeTimeout means the timeout elapsed first (including zero-timeout probes).
	OutcomeTimeout Outcome = "timeout"
	// OutcomeCancelled means the caller's context was cancelled first.
	OutcomeCancelled Outcome = "cancelled"
	// OutcomeDisposed means the gate was closed while the caller waited.
	OutcomeDisposed Outcome = "disposed"
)

// Observer receives gate events. Implementations must be safe for concurrent
// use and must not call back into the gate.
type Observer interface {
	// ObserveWait is called once per completed wait with how long it blocked.
	ObserveWait(gate string, outcome Outcome, waited time.Duration)

	// ObserveAdmit is called after an admission is recorded, with the
	// in-flight count at that moment. It runs under the gate's lock, as do
	// ObserveReclaim and ObserveClose, so the counts they report are ordered.
	ObserveAdmit(gate string, inFlight int)

	// ObserveReclaim is called after each reclaimer pass that released capacity.
	ObserveReclaim(gate string, released int, inFlight int)

	// ObserveClose is called once when the gate is torn down.
	ObserveClose(gate string)
}

type nopObserver struct{}

func (nopObserver) ObserveWait(string, Outcome, time.Duration) {}
func (nopObserver) ObserveAdmit(string, int)                   {}
func (nopObserver) ObserveReclaim(string, int, int)            {}
func (nopObserver) ObserveClose(string)                        {}

// Option configures a Gate.
type Option func(*options)

type options struct {
	clock    clockwork.Clock
	logger   *slog.Logger
	name     string
	observer Observer
	// tickOffset seeds the tick counter; tests use it to start near wraparound.
	tickOffset tick
}

// WithClock sets the clock used for expiry ticks, the reclaimer timer and wait
// timeouts. Defaults to the real clock.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default() tagged with the
// rategate component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName labels the gate in logs and observer callbacks. Unnamed gates are
// labelled with their ID.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithObserver registers an Observer for gate events.
func WithObserver(observer Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.observer = observer
		}
	}
}

func withTickOffset(offset tick) Option {
	return func(o *options) {
		o.tickOffset = offset
	}
}
