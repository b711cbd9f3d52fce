package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/catalog/internal/dbx"
	"github.com/dmitrijs2005/catalog/internal/server/repositories/records"
)

// RepositoryManager vends repositories bound to a DBTX and prepares the schema.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Records(db dbx.DBTX) records.Repository
}
