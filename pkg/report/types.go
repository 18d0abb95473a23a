package report

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clayv/RateGate/pkg/loadgen"
)

// Report is the persisted summary of one load run against one gate.
type Report struct {
	// Identity
	ID    string `json:"id"`     // UUID v4
	RunID string `json:"run_id"` // Shared by every gate driven in the same run
	Gate  string `json:"gate"`

	// Gate and load settings
	Occurrences int           `json:"occurrences"`
	TimeUnit    time.Duration `json:"time_unit"`
	Workers     int           `json:"workers"`
	Duration    time.Duration `json:"duration"`
	Timeout     time.Duration `json:"timeout"`

	// Timing
	StartedAt  time.Time     `json:"started_at"`
	Elapsed    time.Duration `json:"elapsed"`
	RecordedAt time.Time     `json:"recorded_at"`

	// Outcomes
	Attempts  int `json:"attempts"`
	Admitted  int `json:"admitted"`
	Rejected  int `json:"rejected"`
	Cancelled int `json:"cancelled"`

	// Wait latency of admitted calls
	LatencyP50 time.Duration `json:"latency_p50"`
	LatencyP99 time.Duration `json:"latency_p99"`
	LatencyMax time.Duration `json:"latency_max"`

	// Audit
	MaxInWindow int    `json:"max_in_window"`
	TotalBound  int    `json:"total_bound"`
	Passed      bool   `json:"passed"`
	Error       string `json:"error,omitempty"`
}

// FromResult converts a load-run result into a report with a fresh ID.
// runID groups reports from one CLI invocation; empty uses the result's own.
func FromResult(res *loadgen.Result, runID string) *Report {
	if runID == "" {
		runID = res.RunID
	}
	return &Report{
		ID:          uuid.NewString(),
		RunID:       runID,
		Gate:        res.Gate,
		Occurrences: res.Occurrences,
		TimeUnit:    res.TimeUnit,
		Workers:     res.Workers,
		Duration:    res.Duration,
		Timeout:     res.Timeout,
		StartedAt:   res.StartedAt,
		Elapsed:     res.Elapsed,
		RecordedAt:  time.Now(),
		Attempts:    res.Attempts,
		Admitted:    res.Admitted,
		Rejected:    res.Rejected,
		Cancelled:   res.Cancelled,
		LatencyP50:  res.Latency.P50,
		LatencyP99:  res.Latency.P99,
		LatencyMax:  res.Latency.Max,
		MaxInWindow: res.MaxInWindow,
		TotalBound:  res.TotalBound,
		Passed:      res.Passed,
		Error:       res.Error,
	}
}

// Query selects stored reports. Zero-valued fields do not filter.
// Results are ordered by StartedAt, newest first.
type Query struct {
	// Time range on StartedAt
	StartTime *time.Time `json:"start_time,omitempty"` // Inclusive start time
	EndTime   *time.Time `json:"end_time,omitempty"`   // Inclusive end time

	// Filters
	Gate   string `json:"gate,omitempty"`
	RunID  string `json:"run_id,omitempty"`
	Passed *bool  `json:"passed,omitempty"`

	// Pagination
	Limit  int `json:"limit,omitempty"`  // Max records to return
	Offset int `json:"offset,omitempty"` // Skip N records
}

// Matches reports whether r satisfies every filter in q. Pagination is
// ignored.
func (q *Query) Matches(r *Report) bool {
	if q == nil {
		return true
	}
	if q.StartTime != nil && r.StartedAt.Before(*q.StartTime) {
		return false
	}
	if q.EndTime != nil && r.StartedAt.After(*q.EndTime) {
		return false
	}
	if q.Gate != "" && r.Gate != q.Gate {
		return false
	}
	if q.RunID != "" && r.RunID != q.RunID {
		return false
	}
	if q.Passed != nil && r.Passed != *q.Passed {
		return false
	}
	return true
}

// Storage defines the interface for report storage backends.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Store persists a report. Storing an existing ID replaces it.
	Store(ctx context.Context, r *Report) error

	// Get returns the report with id, or an error wrapping ErrNotFound.
	Get(ctx context.Context, id string) (*Report, error)

	// Query returns reports matching q, newest first.
	// Returns an empty slice if no records match.
	Query(ctx context.Context, q *Query) ([]*Report, error)

	// Count returns the number of reports matching q, ignoring pagination.
	Count(ctx context.Context, q *Query) (int64, error)

	// Delete removes reports matching q, ignoring pagination, and returns
	// how many were removed.
	Delete(ctx context.Context, q *Query) (int64, error)

	// Close releases resources held by the backend.
	Close() error
}
