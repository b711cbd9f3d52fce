package daemons

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/catalog/internal/logging"
	"github.com/dmitrijs2005/catalog/internal/server/metrics"
	"github.com/dmitrijs2005/catalog/internal/server/repositories/repomanager"
)

// Options are the scheduling settings shared by the daemons.
type Options struct {
	Interval time.Duration
	Timeout  time.Duration
	Logger   logging.Logger
	Metrics  *metrics.Metrics
}

// Retention hard-deletes tombstones the index has already dropped.
type Retention struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	metrics     *metrics.Metrics
}

// NewRetention builds the purge cycle.
func NewRetention(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger, mt *metrics.Metrics) *Retention {
	return &Retention{db: db, repomanager: m, logger: logger.With("module", "retention"), metrics: mt}
}

// Cycle purges every eligible tombstone in one statement.
func (r *Retention) Cycle(ctx context.Context) error {
	n, err := r.repomanager.Records(r.db).PurgeIndexedTombstones(ctx)
	if err != nil {
		return fmt.Errorf("purge tombstones: %w", err)
	}
	if n > 0 {
		r.logger.Info(ctx, "purged records", "count", n)
	}
	r.metrics.Purged(n)
	return nil
}

// NewRetentionDaemon wraps a Retention cycle in a Runner.
func NewRetentionDaemon(r *Retention, opts Options) *Runner {
	return NewRunner("retention", opts.Interval, opts.Timeout, r.Cycle, opts.Logger, opts.Metrics)
}
