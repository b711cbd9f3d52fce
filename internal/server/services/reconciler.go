package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/catalog/internal/logging"
	"github.com/dmitrijs2005/catalog/internal/server/models"
	"github.com/dmitrijs2005/catalog/internal/server/repositories/repomanager"
)

// Reconciler replaces placeholder hits with records from the primary store.
type Reconciler struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

// NewReconciler constructs a Reconciler.
func NewReconciler(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *Reconciler {
	return &Reconciler{db: db, repomanager: m, logger: logger.With("module", "reconciler")}
}

// Hydrate resolves every hit of page to a record, keeping hit order. A page
// without placeholders is converted without touching the store; otherwise the
// placeholders are fetched in one batch and those missing (deleted or never
// stored) are dropped. Page number and cursor are kept as is.
func (r *Reconciler) Hydrate(ctx context.Context, page *models.Page[models.Hit]) (*models.Page[*models.Record], error) {
	var missing []string
	for _, h := range page.Items {
		if p, ok := h.(models.Placeholder); ok {
			missing = append(missing, p.ID)
		}
	}

	found := make(map[string]*models.Record, len(missing))
	if len(missing) > 0 {
		recs, err := r.repomanager.Records(r.db).GetByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			found[rec.ID] = rec
		}
	}

	items := make([]*models.Record, 0, len(page.Items))
	for _, h := range page.Items {
		switch v := h.(type) {
		case models.Resolved:
			items = append(items, v.Record)
		case models.Placeholder:
			rec, ok := found[v.ID]
			if !ok {
				r.logger.Debug(ctx, "dropping unresolved hit", "id", v.ID)
				continue
			}
			items = append(items, rec)
		}
	}

	return &models.Page[*models.Record]{
		Items:      items,
		NextCursor: page.NextCursor,
		PageNumber: page.PageNumber,
	}, nil
}
