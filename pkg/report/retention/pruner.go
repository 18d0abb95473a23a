package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/clayv/RateGate/pkg/config"
	"github.com/clayv/RateGate/pkg/report"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// RetentionDays is the number of days to retain reports.
	// 0 or negative means keep reports forever.
	RetentionDays int

	// PruneSchedule is a cron expression for scheduling pruning.
	// Example: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string

	// MaxRecords is the maximum number of reports to keep.
	// 0 means unlimited.
	MaxRecords int64
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays: config.DefaultRetentionDays,
		PruneSchedule: config.DefaultRetentionSchedule,
	}
}

// FromConfig converts the file-level retention settings.
func FromConfig(cfg config.RetentionConfig) *Config {
	return &Config{
		RetentionDays: cfg.Days,
		PruneSchedule: cfg.Schedule,
		MaxRecords:    cfg.MaxRecords,
	}
}

// Option configures a Pruner.
type Option func(*Pruner)

// WithClock sets the clock used to compute the age cutoff.
func WithClock(clock clockwork.Clock) Option {
	return func(p *Pruner) { p.clock = clock }
}

// WithLogger sets the pruner's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pruner) { p.logger = logger }
}

// Pruner enforces retention policies on stored reports.
type Pruner struct {
	storage   report.Storage
	config    *Config
	clock     clockwork.Clock
	logger    *slog.Logger
	scheduler *Scheduler
}

// NewPruner creates a new retention pruner.
func NewPruner(storage report.Storage, cfg *Config, opts ...Option) *Pruner {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	p := &Pruner{
		storage: storage,
		config:  cfg,
		clock:   clockwork.NewRealClock(),
		logger:  slog.Default().With("component", "report.retention"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.scheduler = NewScheduler(p)

	return p
}

// Prune deletes reports older than the retention period, then trims the
// oldest reports until at most MaxRecords remain. It returns the total
// number of reports deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var totalDeleted int64

	if p.config.RetentionDays > 0 {
		deleted, err := p.pruneByAge(ctx)
		if err != nil {
			return totalDeleted, fmt.Errorf("prune by age failed: %w", err)
		}
		totalDeleted += deleted
		p.logger.Debug("pruned reports by age",
			"deleted_count", deleted,
			"retention_days", p.config.RetentionDays,
		)
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return totalDeleted, fmt.Errorf("prune by count failed: %w", err)
		}
		totalDeleted += deleted
		p.logger.Debug("pruned reports by count",
			"deleted_count", deleted,
			"max_records", p.config.MaxRecords,
		)
	}

	if totalDeleted > 0 {
		p.logger.Info("report pruning completed",
			"total_deleted", totalDeleted,
			"retention_days", p.config.RetentionDays,
			"max_records", p.config.MaxRecords,
		)
	}

	return totalDeleted, nil
}

// pruneByAge deletes reports that started before the retention cutoff.
func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := p.clock.Now().AddDate(0, 0, -p.config.RetentionDays)

	deleted, err := p.storage.Delete(ctx, &report.Query{EndTime: &cutoff})
	if err != nil {
		return 0, &report.RetentionError{RetentionDays: p.config.RetentionDays, Cause: err}
	}
	return deleted, nil
}

// pruneByCount deletes the oldest reports beyond MaxRecords. Reports that
// share the boundary start time are removed together.
func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx, &report.Query{})
	if err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	if count <= p.config.MaxRecords {
		return 0, nil
	}

	// Storage returns newest first, so the first report past MaxRecords is
	// the newest one that has to go.
	boundary, err := p.storage.Query(ctx, &report.Query{Offset: int(p.config.MaxRecords), Limit: 1})
	if err != nil {
		return 0, fmt.Errorf("failed to query reports: %w", err)
	}
	if len(boundary) == 0 {
		return 0, nil
	}

	cutoff := boundary[0].StartedAt
	p.logger.Debug("pruning oldest reports",
		"current_count", count,
		"max_records", p.config.MaxRecords,
		"cutoff_time", cutoff,
	)

	deleted, err := p.storage.Delete(ctx, &report.Query{EndTime: &cutoff})
	if err != nil {
		return 0, fmt.Errorf("delete failed: %w", err)
	}
	return deleted, nil
}

// Start starts the automatic pruning scheduler.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the automatic pruning scheduler, waiting for a running prune.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled pruning, or nil when
// the scheduler is not running.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
