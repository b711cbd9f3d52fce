// Package records holds the primary store for catalog records: a PostgreSQL
// implementation and an in-memory one sharing the same keyset predicate.
package records

import (
	"context"

	"github.com/dmitrijs2005/catalog/internal/server/models"
)

// Repository is the authoritative store of catalog records.
//
// Reads other than SelectStale skip soft-deleted rows. Every mutation is a
// single statement and stamps timestamps with the store clock.
type Repository interface {
	// GetByID returns a live record or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Record, error)
	// GetByIDs returns the live records among ids, in no particular order.
	GetByIDs(ctx context.Context, ids []string) ([]*models.Record, error)
	// SelectPage returns up to limit live records after seek (nil for the
	// first page) in keyset order, plus the count of all rows after seek.
	SelectPage(ctx context.Context, seek *Seek, limit int) ([]*models.Record, int64, error)
	// Insert stores r. It reports false when a record with the same id exists.
	Insert(ctx context.Context, r *models.Record) (*models.Record, bool, error)
	// Update applies changes to a live record and bumps updated.
	Update(ctx context.Context, id string, changes models.Changes) (*models.Record, error)
	// SoftDelete tombstones a live record. It reports false when none matched.
	SoftDelete(ctx context.Context, id string) (bool, error)
	// SelectStale returns up to limit records whose index copy is missing or
	// older than the record, least recently indexed first. Tombstones included.
	SelectStale(ctx context.Context, limit int) ([]*models.Record, error)
	// MarkIndexed sets indexed on each record whose updated still matches the
	// observed value and returns the number of rows marked.
	MarkIndexed(ctx context.Context, records []*models.Record) (int64, error)
	// PurgeIndexedTombstones hard-deletes tombstones already removed from the
	// index and returns the number of rows deleted.
	PurgeIndexedTombstones(ctx context.Context) (int64, error)
}
