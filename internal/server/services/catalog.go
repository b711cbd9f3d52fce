// Package services contains the catalog business logic: record CRUD, keyset
// listing, index search and reconciliation of search hits against the
// primary store.
package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/catalog/internal/common"
	"github.com/dmitrijs2005/catalog/internal/logging"
	"github.com/dmitrijs2005/catalog/internal/server/models"
	"github.com/dmitrijs2005/catalog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/catalog/internal/server/search"
	"github.com/google/uuid"
)

// ConflictError reports that a record with the derived id already exists.
type ConflictError struct {
	ID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("record %s already exists", e.ID)
}

// Is makes errors.Is(err, common.ErrConflict) match.
func (e *ConflictError) Is(target error) bool {
	return target == common.ErrConflict
}

// CatalogService is the entry point for the transport layer.
type CatalogService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	paginator   *Paginator
	searcher    *Searcher
	reconciler  *Reconciler
	logger      logging.Logger
}

// NewCatalogService wires the listing, search and reconciliation helpers
// over the given store and index.
func NewCatalogService(db *sql.DB, m repomanager.RepositoryManager, index search.Index, logger logging.Logger) *CatalogService {
	return &CatalogService{
		db:          db,
		repomanager: m,
		paginator:   NewPaginator(db, m, logger),
		searcher:    NewSearcher(index, logger),
		reconciler:  NewReconciler(db, m, logger),
		logger:      logger.With("module", "catalog"),
	}
}

func parseID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: id %q: %v", common.ErrClientInput, id, err)
	}
	return parsed.String(), nil
}

// Create stores a new record. A record with the same title and release date
// yields a *ConflictError carrying the existing id.
func (s *CatalogService) Create(ctx context.Context, params models.CreateParams) (*models.Record, error) {
	rec, err := params.Validate()
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "creating record", "id", rec.ID, "title", rec.Title)

	created, ok, err := s.repomanager.Records(s.db).Insert(ctx, rec)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ConflictError{ID: rec.ID}
	}
	return created, nil
}

// Get returns a live record.
func (s *CatalogService) Get(ctx context.Context, id string) (*models.Record, error) {
	id, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Records(s.db).GetByID(ctx, id)
}

// Update applies a partial update to a live record.
func (s *CatalogService) Update(ctx context.Context, id string, params models.UpdateParams) (*models.Record, error) {
	id, err := parseID(id)
	if err != nil {
		return nil, err
	}
	changes, err := params.Validate()
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "updating record", "id", id)
	return s.repomanager.Records(s.db).Update(ctx, id, changes)
}

// Delete tombstones a live record. The row stays until the index has caught
// up and retention purges it.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	id, err := parseID(id)
	if err != nil {
		return err
	}

	ok, err := s.repomanager.Records(s.db).SoftDelete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrorNotFound
	}

	s.logger.Info(ctx, "soft deleted record", "id", id)
	return nil
}

// List returns a keyset page, or when term is non-empty a page of search
// results reconciled against the primary store.
func (s *CatalogService) List(ctx context.Context, count int, term string, c *string) (*models.Page[*models.Record], error) {
	if term == "" {
		return s.paginator.List(ctx, count, c)
	}

	hits, err := s.searcher.Search(ctx, term, count, c)
	if err != nil {
		return nil, err
	}
	return s.reconciler.Hydrate(ctx, hits)
}
