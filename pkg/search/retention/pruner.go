package retention

import (
	"context"
	"log/slog"
	"time"

	"parcelhq/atlas/pkg/search"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// RetentionDays is the number of days to retain search executions.
	// 0 means keep history forever (no pruning).
	RetentionDays int

	// MaxRecords is the maximum number of search executions to keep,
	// across all owners. 0 means no cap. When both phases are configured
	// the age phase runs first, then the count cap.
	MaxRecords int64

	// PruneSchedule is a cron expression for scheduling pruning.
	// Example: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays: 0,
		PruneSchedule: "0 3 * * *",
	}
}

// Pruner enforces the retention policy on search records.
type Pruner struct {
	store   search.Store
	config  *Config
	metrics *search.Metrics
	logger  *slog.Logger

	// now is the clock used to compute the cutoff; replaced in tests.
	now func() time.Time
}

// NewPruner creates a new retention pruner. metrics may be nil.
func NewPruner(store search.Store, config *Config, metrics *search.Metrics) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}
	return &Pruner{
		store:   store,
		config:  config,
		metrics: metrics,
		logger:  slog.Default().With("component", "search.retention"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Prune enforces the retention policy, across all owners. The age phase runs
// first, deleting records older than RetentionDays; the count phase then
// deletes the oldest records beyond MaxRecords. Either phase is skipped when
// its limit is zero. Returns the total number of records deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var totalDeleted int64

	if p.config.RetentionDays > 0 {
		cutoff := p.now().AddDate(0, 0, -p.config.RetentionDays)

		deleted, err := p.store.PruneSearches(ctx, cutoff)
		if err != nil {
			return totalDeleted, err
		}
		totalDeleted += deleted

		if deleted > 0 {
			p.logger.Info("search history pruned by age",
				"deleted_count", deleted,
				"retention_days", p.config.RetentionDays,
				"cutoff", cutoff,
			)
		}
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.store.CapSearches(ctx, p.config.MaxRecords)
		if err != nil {
			return totalDeleted, err
		}
		totalDeleted += deleted

		if deleted > 0 {
			p.logger.Info("search history pruned by count",
				"deleted_count", deleted,
				"max_records", p.config.MaxRecords,
			)
		}
	}

	if p.metrics != nil && totalDeleted > 0 {
		p.metrics.ObservePruned(totalDeleted)
	}
	if totalDeleted == 0 {
		p.logger.Debug("no records pruned",
			"retention_days", p.config.RetentionDays,
			"max_records", p.config.MaxRecords,
		)
	}

	return totalDeleted, nil
}
