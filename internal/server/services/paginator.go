package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/catalog/internal/common"
	"github.com/dmitrijs2005/catalog/internal/logging"
	"github.com/dmitrijs2005/catalog/internal/server/cursor"
	"github.com/dmitrijs2005/catalog/internal/server/models"
	"github.com/dmitrijs2005/catalog/internal/server/repositories/records"
	"github.com/dmitrijs2005/catalog/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Paginator lists live records in keyset order with resumable cursors.
type Paginator struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

// NewPaginator constructs a Paginator reading through the manager's records
// repository.
func NewPaginator(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *Paginator {
	return &Paginator{db: db, repomanager: m, logger: logger.With("module", "paginator")}
}

// seekFromAnchor validates a decoded anchor and converts it to a seek position.
func seekFromAnchor(a cursor.ListAnchor) (*records.Seek, error) {
	if _, err := uuid.Parse(a.ID); err != nil {
		return nil, fmt.Errorf("%w: %w: anchor id: %v", common.ErrClientInput, cursor.ErrParse, err)
	}

	seek := &records.Seek{Title: a.Title, ID: a.ID}
	if a.ReleaseDate != nil {
		d, err := models.ParseDate(*a.ReleaseDate)
		if err != nil {
			return nil, fmt.Errorf("%w: %w: %v", common.ErrClientInput, cursor.ErrParse, err)
		}
		seek.ReleaseDate = &d
	}
	return seek, nil
}

func anchorAfter(r *models.Record, page int64) cursor.ListAnchor {
	a := cursor.ListAnchor{Title: r.Title, ID: r.ID, PageNumber: page}
	if r.ReleaseDate != nil {
		s := r.ReleaseDate.String()
		a.ReleaseDate = &s
	}
	return a
}

// List returns up to pageSize records after the position encoded in c, or
// the first page when c is nil. NextCursor is set only when rows remain.
func (p *Paginator) List(ctx context.Context, pageSize int, c *string) (*models.Page[*models.Record], error) {
	if pageSize < 1 {
		return nil, fmt.Errorf("%w: page size %d", common.ErrClientInput, pageSize)
	}

	page := int64(1)
	var seek *records.Seek
	if c != nil {
		anchor, err := cursor.Decode[cursor.ListAnchor](*c)
		if err != nil {
			return nil, err
		}
		if seek, err = seekFromAnchor(anchor); err != nil {
			return nil, err
		}
		page = anchor.PageNumber
	}

	p.logger.Debug(ctx, "listing records", "page", page, "count", pageSize)

	items, total, err := p.repomanager.Records(p.db).SelectPage(ctx, seek, pageSize)
	if err != nil {
		return nil, err
	}

	result := &models.Page[*models.Record]{Items: items, PageNumber: page}
	if len(items) > 0 && total > int64(len(items)) {
		next, err := cursor.Encode(anchorAfter(items[len(items)-1], page+1))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
		}
		result.NextCursor = &next
	}
	return result, nil
}
