package seed

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/catalog/internal/dbx"
	"github.com/dmitrijs2005/catalog/internal/logging"
	"github.com/dmitrijs2005/catalog/internal/server/repositories/repomanager"
)

const defaultBatchSize = 100

// Report summarizes an import.
type Report struct {
	Inserted int
	Skipped  int
	Rejected []error
}

// Importer loads decoded seed rows into the primary store in batches.
type Importer struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	batch       int
	logger      logging.Logger
}

// NewImporter constructs an Importer. db may be nil for the in-memory
// backend, in which case batches are not transactional.
func NewImporter(db *sql.DB, m repomanager.RepositoryManager, batch int, logger logging.Logger) *Importer {
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &Importer{db: db, repomanager: m, batch: batch, logger: logger.With("module", "seed")}
}

// Run opens source, decodes it and imports every row.
func (i *Importer) Run(ctx context.Context, source string, opts S3Options) (*Report, error) {
	rc, err := Open(ctx, source, opts)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	rows, err := Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", source, err)
	}

	rep, err := i.Import(ctx, rows)
	if err != nil {
		return rep, err
	}

	i.logger.Info(ctx, "seed imported",
		"source", source,
		"inserted", rep.Inserted,
		"skipped", rep.Skipped,
		"rejected", len(rep.Rejected),
	)
	return rep, nil
}

// Import validates rows and inserts them batch by batch. Rows that already
// exist are skipped. Invalid rows are rejected and reported with their line.
func (i *Importer) Import(ctx context.Context, rows []Row) (*Report, error) {
	rep := &Report{}

	for start := 0; start < len(rows); start += i.batch {
		end := min(start+i.batch, len(rows))

		var batch Report
		err := i.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
			batch = Report{}
			return i.insertBatch(ctx, tx, rows[start:end], &batch)
		})
		if err != nil {
			return rep, fmt.Errorf("batch at line %d: %w", rows[start].Line, err)
		}

		rep.Inserted += batch.Inserted
		rep.Skipped += batch.Skipped
		rep.Rejected = append(rep.Rejected, batch.Rejected...)
	}

	for _, err := range rep.Rejected {
		i.logger.Warn(ctx, "seed row rejected", "error", err)
	}
	return rep, nil
}

func (i *Importer) inTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if i.db == nil {
		return fn(ctx, nil)
	}
	return dbx.WithTx(ctx, i.db, nil, fn)
}

func (i *Importer) insertBatch(ctx context.Context, tx dbx.DBTX, rows []Row, rep *Report) error {
	repo := i.repomanager.Records(tx)

	for _, row := range rows {
		if row.Err != nil {
			rep.Rejected = append(rep.Rejected, row.Err)
			continue
		}

		rec, err := row.Params.Validate()
		if err != nil {
			rep.Rejected = append(rep.Rejected, fmt.Errorf("line %d: %w", row.Line, err))
			continue
		}

		_, inserted, err := repo.Insert(ctx, rec)
		if err != nil {
			return err
		}
		if inserted {
			rep.Inserted++
		} else {
			rep.Skipped++
		}
	}
	return nil
}
