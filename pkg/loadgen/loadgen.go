// Package loadgen drives a rate gate with concurrent callers and audits the
// admissions it observed against the gate's sliding-window bound.
//
// A run starts a fixed number of workers that call WaitToProceed in a loop
// until the run duration elapses. Every admission time is recorded; after
// the run, the largest number of admissions inside any window shorter than
// the gate's time unit by a small tolerance must not exceed the gate's
// occurrences. The tolerance absorbs scheduling jitter between the moment a
// gate admits a caller and the moment the caller reads the clock.
package loadgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/clayv/RateGate/pkg/rategate"
	"github.com/clayv/RateGate/pkg/telemetry/logging"
	"github.com/clayv/RateGate/pkg/telemetry/tracing"
)

// ErrInvalidConfig is returned by Run when the load settings are unusable.
var ErrInvalidConfig = errors.New("invalid load configuration")

// Config controls one load run.
type Config struct {
	// Workers is the number of concurrent callers.
	Workers int

	// Duration is how long callers keep requesting admission.
	Duration time.Duration

	// Timeout is passed to every WaitToProceed call.
	Timeout time.Duration

	// Tolerance shortens the audit window to absorb timestamp jitter.
	// Zero uses a twentieth of the gate's time unit.
	Tolerance time.Duration
}

// Latency summarises how long callers waited for admission.
type Latency struct {
	Mean time.Duration `json:"mean"`
	P50  time.Duration `json:"p50"`
	P90  time.Duration `json:"p90"`
	P99  time.Duration `json:"p99"`
	Max  time.Duration `json:"max"`
}

// Result is the outcome of one load run.
type Result struct {
	RunID       string        `json:"run_id"`
	Gate        string        `json:"gate"`
	Occurrences int           `json:"occurrences"`
	TimeUnit    time.Duration `json:"time_unit"`
	Workers     int           `json:"workers"`
	Duration    time.Duration `json:"duration"`
	Timeout     time.Duration `json:"timeout"`

	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed"`

	Attempts  int `json:"attempts"`
	Admitted  int `json:"admitted"`
	Rejected  int `json:"rejected"`
	Cancelled int `json:"cancelled"`

	// Error is set when the gate failed during the run.
	Error string `json:"error,omitempty"`

	// Latency covers admitted calls only.
	Latency Latency `json:"latency"`

	AuditWindow time.Duration `json:"audit_window"`
	MaxInWindow int           `json:"max_in_window"`
	TotalBound  int           `json:"total_bound"`
	Passed      bool          `json:"passed"`
}

// Throughput returns admissions per second over the elapsed run time.
func (r *Result) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Admitted) / r.Elapsed.Seconds()
}

// Runner drives one gate.
type Runner struct {
	gate     *rategate.Gate
	clock    clockwork.Clock
	logger   *slog.Logger
	tracer   trace.Tracer
	admitted *atomic.Int64
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock sets the clock used for run timing and admission timestamps.
// It should be the clock the gate was built with.
func WithClock(clock clockwork.Clock) Option {
	return func(r *Runner) { r.clock = clock }
}

// WithLogger sets the runner's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithTracer records each run as a span.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Runner) { r.tracer = tracer }
}

// WithAdmittedCounter adds every admission to counter as it happens, so a
// caller can report progress while the run is in flight. Runners may share
// one counter.
func WithAdmittedCounter(counter *atomic.Int64) Option {
	return func(r *Runner) { r.admitted = counter }
}

// NewRunner creates a runner for gate.
func NewRunner(gate *rategate.Gate, opts ...Option) *Runner {
	r := &Runner{
		gate:  gate,
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default().With("component", "loadgen")
	}
	if r.tracer == nil {
		r.tracer = noop.NewTracerProvider().Tracer("")
	}
	return r
}

// sample is what one worker accumulates.
type sample struct {
	admittedAt []time.Time
	waits      []time.Duration
	attempts   int
	rejected   int
	cancelled  int
}

// Run drives the gate for cfg.Duration or until ctx is done. A gate torn
// down mid-run stops every worker; the partial result is returned together
// with the error.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Workers <= 0 {
		return nil, fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, cfg.Workers)
	}
	if cfg.Duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %s", ErrInvalidConfig, cfg.Duration)
	}
	if cfg.Timeout < 0 && cfg.Timeout != rategate.Infinite {
		return nil, fmt.Errorf("%w: timeout must be non-negative or infinite, got %s", ErrInvalidConfig, cfg.Timeout)
	}

	tolerance := cfg.Tolerance
	if tolerance <= 0 {
		tolerance = r.gate.TimeUnit() / 20
	}

	res := &Result{
		RunID:       uuid.NewString(),
		Gate:        r.gate.Name(),
		Occurrences: r.gate.Occurrences(),
		TimeUnit:    r.gate.TimeUnit(),
		Workers:     cfg.Workers,
		Duration:    cfg.Duration,
		Timeout:     cfg.Timeout,
		AuditWindow: r.gate.TimeUnit() - tolerance,
	}
	if res.Gate == "" {
		res.Gate = r.gate.ID()
	}

	ctx, span := r.tracer.Start(ctx, tracing.SpanLoadRun,
		trace.WithAttributes(tracing.GateAttributes(res.RunID, res.Gate, res.Occurrences, res.TimeUnit)...),
		trace.WithAttributes(tracing.LoadAttributes(cfg.Workers, cfg.Duration, cfg.Timeout)...),
	)
	defer span.End()

	ctx = logging.WithGate(logging.WithRunID(ctx, res.RunID), res.Gate)
	r.logger.InfoContext(ctx, "load run started",
		"workers", cfg.Workers,
		"duration", cfg.Duration,
		"timeout", cfg.Timeout,
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := r.clock.AfterFunc(cfg.Duration, cancel)
	defer stop.Stop()

	samples := make([]sample, cfg.Workers)
	g, gctx := errgroup.WithContext(runCtx)

	res.StartedAt = r.clock.Now()
	for i := range samples {
		s := &samples[i]
		g.Go(func() error {
			return r.work(gctx, cfg.Timeout, s)
		})
	}
	runErr := g.Wait()
	res.Elapsed = r.clock.Since(res.StartedAt)

	var times []time.Time
	var waits []time.Duration
	for _, s := range samples {
		res.Attempts += s.attempts
		res.Rejected += s.rejected
		res.Cancelled += s.cancelled
		times = append(times, s.admittedAt...)
		waits = append(waits, s.waits...)
	}
	res.Admitted = len(times)
	if runErr != nil {
		res.Error = runErr.Error()
	}

	res.Latency = latencyStats(waits)
	res.MaxInWindow = MaxInWindow(times, res.AuditWindow)
	res.TotalBound = TotalBound(res.Occurrences, res.TimeUnit, res.Elapsed)
	res.Passed = runErr == nil &&
		res.MaxInWindow <= res.Occurrences &&
		res.Admitted <= res.TotalBound

	tracing.SetAudit(span, res.Attempts, res.Admitted, res.Rejected, res.MaxInWindow, res.TotalBound, res.Passed)
	tracing.RecordError(span, runErr)

	level := slog.LevelInfo
	if !res.Passed {
		level = slog.LevelWarn
	}
	r.logger.Log(ctx, level, "load run finished",
		"admitted", res.Admitted,
		"attempts", res.Attempts,
		"max_in_window", res.MaxInWindow,
		"passed", res.Passed,
	)

	if runErr != nil {
		return res, fmt.Errorf("load run against gate %q failed: %w", res.Gate, runErr)
	}
	return res, nil
}

// work calls the gate until ctx is done. Only a gate failure is returned as
// an error, which cancels the other workers.
func (r *Runner) work(ctx context.Context, timeout time.Duration, s *sample) error {
	for ctx.Err() == nil {
		start := r.clock.Now()
		ok, err := r.gate.WaitToProceedContext(ctx, timeout)
		if err != nil {
			return err
		}
		s.attempts++

		switch {
		case ok:
			now := r.clock.Now()
			s.admittedAt = append(s.admittedAt, now)
			s.waits = append(s.waits, now.Sub(start))
			if r.admitted != nil {
				r.admitted.Add(1)
			}
		case ctx.Err() != nil:
			s.cancelled++
		default:
			s.rejected++
			if timeout == 0 {
				// Probing callers back off briefly instead of spinning.
				select {
				case <-ctx.Done():
				case <-r.clock.After(time.Millisecond):
				}
			}
		}
	}
	return nil
}

// runAllState collects RunAll's per-gate outcomes.
type runAllState struct {
	mu      sync.Mutex
	results []*Result
	errs    []error
}

// RunAll drives every gate concurrently with the same settings and returns
// results in the order of gates.
func RunAll(ctx context.Context, gates []*rategate.Gate, cfg Config, opts ...Option) ([]*Result, error) {
	state := &runAllState{results: make([]*Result, len(gates))}

	var wg sync.WaitGroup
	for i, gate := range gates {
		wg.Add(1)
		go func(i int, gate *rategate.Gate) {
			defer wg.Done()
			res, err := NewRunner(gate, opts...).Run(ctx, cfg)

			state.mu.Lock()
			defer state.mu.Unlock()
			state.results[i] = res
			if err != nil {
				state.errs = append(state.errs, err)
			}
		}(i, gate)
	}
	wg.Wait()

	return state.results, errors.Join(state.errs...)
}
