package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/catalog/internal/dbx"
	"github.com/dmitrijs2005/catalog/internal/server/repositories/records"
)

// MemoryRepositoryManager hands out one shared in-memory store regardless of
// the DBTX passed in. Used with DatabaseDSN "memory".
type MemoryRepositoryManager struct {
	records *records.MemoryRepository
}

// NewMemoryRepositoryManager constructs a manager over a fresh memory store.
func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{records: records.NewMemoryRepository()}
}

// Records returns the shared memory store.
func (m *MemoryRepositoryManager) Records(dbx.DBTX) records.Repository {
	return m.records
}

// RunMigrations is a no-op; the memory store has no schema.
func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}
