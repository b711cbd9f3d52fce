package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/catalog/internal/common"
	"github.com/dmitrijs2005/catalog/internal/logging"
	"github.com/dmitrijs2005/catalog/internal/server/cursor"
	"github.com/dmitrijs2005/catalog/internal/server/models"
	"github.com/dmitrijs2005/catalog/internal/server/search"
	"github.com/google/uuid"
)

// requiredFields must be present and non-null for a document to be used as
// a full record.
var requiredFields = []string{
	"id", "title", "created", "updated", "spokenLanguages", "productionCountries", "genres",
}

// Searcher pages through title matches in the search index.
type Searcher struct {
	index  search.Index
	logger logging.Logger
}

// NewSearcher constructs a Searcher over index.
func NewSearcher(index search.Index, logger logging.Logger) *Searcher {
	return &Searcher{index: index, logger: logger.With("module", "searcher")}
}

// Search returns one page of hits for term. Page numbers come from c; the
// next cursor is set while total > page*count and the following page still
// fits in search.MaxResultWindow. A page beyond the window is a client error.
func (s *Searcher) Search(ctx context.Context, term string, count int, c *string) (*models.Page[models.Hit], error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: page size %d", common.ErrClientInput, count)
	}

	page := int64(1)
	if c != nil {
		anchor, err := cursor.Decode[cursor.SearchAnchor](*c)
		if err != nil {
			return nil, err
		}
		page = anchor.PageNumber
	}

	lastPage := int64(search.MaxResultWindow / count)
	if page > lastPage {
		return nil, fmt.Errorf("%w: %w: page %d is past the result window of %d hits",
			common.ErrClientInput, cursor.ErrParse, page, search.MaxResultWindow)
	}

	from := (page - 1) * int64(count)
	res, err := s.index.Search(ctx, term, int(from), count)
	if err != nil {
		return nil, err
	}

	hits := make([]models.Hit, 0, len(res.Hits))
	for _, raw := range res.Hits {
		hit, ok := decodeHit(raw)
		if !ok {
			s.logger.Warn(ctx, "dropping hit with malformed id", "id", raw.ID)
			continue
		}
		hits = append(hits, hit)
	}

	result := &models.Page[models.Hit]{Items: hits, PageNumber: page}
	if res.Total > page*int64(count) && page < lastPage {
		next, err := cursor.Encode(cursor.SearchAnchor{PageNumber: page + 1})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
		}
		result.NextCursor = &next
	}
	return result, nil
}

// decodeHit returns a Resolved hit when the document carries a complete
// record and a Placeholder otherwise. It reports false when the hit id is not
// a uuid.
func decodeHit(raw search.RawHit) (models.Hit, bool) {
	id, err := uuid.Parse(raw.ID)
	if err != nil {
		return nil, false
	}
	placeholder := models.Placeholder{ID: id.String()}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw.Source, &fields); err != nil {
		return placeholder, true
	}
	for _, name := range requiredFields {
		v, ok := fields[name]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return placeholder, true
		}
	}

	var rec models.Record
	if err := json.Unmarshal(raw.Source, &rec); err != nil {
		return placeholder, true
	}
	return models.Resolved{Record: &rec}, true
}
