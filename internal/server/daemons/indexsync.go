package daemons

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/catalog/internal/logging"
	"github.com/dmitrijs2005/catalog/internal/server/metrics"
	"github.com/dmitrijs2005/catalog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/catalog/internal/server/search"
)

// IndexSync pushes stale records to the search index.
type IndexSync struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	index       search.Index
	batch       int
	logger      logging.Logger
	metrics     *metrics.Metrics
}

// NewIndexSync builds the sync cycle for batches of up to batch records.
func NewIndexSync(db *sql.DB, m repomanager.RepositoryManager, index search.Index, batch int, logger logging.Logger, mt *metrics.Metrics) *IndexSync {
	return &IndexSync{
		db:          db,
		repomanager: m,
		index:       index,
		batch:       batch,
		logger:      logger.With("module", "index_sync"),
		metrics:     mt,
	}
}

// Cycle selects one batch of stale records, sends them to the index in a
// single bulk request and marks them indexed. If the bulk request fails in
// whole or in part nothing is marked and the batch is retried next cycle.
func (s *IndexSync) Cycle(ctx context.Context) error {
	repo := s.repomanager.Records(s.db)

	stale, err := repo.SelectStale(ctx, s.batch)
	if err != nil {
		return fmt.Errorf("select stale: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	s.logger.Info(ctx, "found stale records", "count", len(stale))

	ops := make([]search.BulkOp, 0, len(stale))
	var indexed, deleted int
	for _, r := range stale {
		if r.Deleted != nil {
			ops = append(ops, search.DeleteOp(r.ID))
			deleted++
			continue
		}
		ops = append(ops, search.IndexOp(r))
		indexed++
	}

	if err := s.index.Bulk(ctx, ops); err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}

	n, err := repo.MarkIndexed(ctx, stale)
	if err != nil {
		return fmt.Errorf("mark indexed: %w", err)
	}

	s.metrics.Synced("index", indexed)
	s.metrics.Synced("delete", deleted)

	if skipped := int64(len(stale)) - n; skipped > 0 {
		s.logger.Info(ctx, "records changed during sync, left stale", "count", skipped)
	}
	s.logger.Debug(ctx, "marked records indexed", "count", n, "indexed", indexed, "deleted", deleted)
	return nil
}

// NewIndexSyncDaemon wraps an IndexSync cycle in a Runner.
func NewIndexSyncDaemon(s *IndexSync, opts Options) *Runner {
	return NewRunner("index_sync", opts.Interval, opts.Timeout, s.Cycle, opts.Logger, opts.Metrics)
}
