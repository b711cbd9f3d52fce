package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/dmitrijs2005/catalog/internal/common"
	"github.com/dmitrijs2005/catalog/internal/logging"
	"github.com/dmitrijs2005/catalog/internal/server/cursor"
	"github.com/dmitrijs2005/catalog/internal/server/models"
	"github.com/dmitrijs2005/catalog/internal/server/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIndex records the paging arguments of the last Search call.
type fakeIndex struct {
	search.Index
	result     *search.Result
	err        error
	from, size int
	term       string
}

func (f *fakeIndex) Search(_ context.Context, term string, from, size int) (*search.Result, error) {
	f.term, f.from, f.size = term, from, size
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func fullDocument(t *testing.T, id, title string) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(&models.Record{
		ID:                  id,
		Title:               title,
		SpokenLanguages:     []models.Language{},
		ProductionCountries: []models.Country{},
		Genres:              []models.Genre{},
		Created:             time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Updated:             time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return b
}

func TestSearcher_DecodesHits(t *testing.T) {
	full := models.RecordID("Dune", date("2021-10-22"))
	partial := models.RecordID("Dune", date("1984-12-14"))
	nulled := models.RecordID("Dune", nil)

	idx := &fakeIndex{result: &search.Result{
		Total: 4,
		Hits: []search.RawHit{
			{ID: full, Source: fullDocument(t, full, "Dune")},
			{ID: partial, Source: json.RawMessage(`{"id":"` + partial + `","title":"Dune"}`)},
			{ID: "not-a-uuid", Source: json.RawMessage(`{}`)},
			{ID: nulled, Source: json.RawMessage(`{"id":null,"title":"Dune","created":null}`)},
		},
	}}

	page, err := NewSearcher(idx, logging.Nop()).Search(context.Background(), "dune", 10, nil)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)

	resolved, ok := page.Items[0].(models.Resolved)
	require.True(t, ok)
	assert.Equal(t, full, resolved.Record.ID)

	assert.Equal(t, models.Placeholder{ID: partial}, page.Items[1])
	assert.Equal(t, models.Placeholder{ID: nulled}, page.Items[2])
	assert.Nil(t, page.NextCursor)
	assert.Equal(t, 0, idx.from)
	assert.Equal(t, 10, idx.size)
	assert.Equal(t, "dune", idx.term)
}

func TestSearcher_Paging(t *testing.T) {
	idx := &fakeIndex{result: &search.Result{Total: 5, Hits: []search.RawHit{}}}
	s := NewSearcher(idx, logging.Nop())

	page, err := s.Search(context.Background(), "dune", 2, nil)
	require.NoError(t, err)
	require.NotNil(t, page.NextCursor)

	anchor, err := cursor.Decode[cursor.SearchAnchor](*page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, int64(2), anchor.PageNumber)

	page, err = s.Search(context.Background(), "dune", 2, page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.PageNumber)
	assert.Equal(t, 2, idx.from)
	require.NotNil(t, page.NextCursor)

	page, err = s.Search(context.Background(), "dune", 2, page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, 4, idx.from)
	assert.Nil(t, page.NextCursor, "5 hits fit in three pages of 2")
}

func TestSearcher_Errors(t *testing.T) {
	idx := &fakeIndex{err: fmt.Errorf("%w: down", common.ErrIndexQuery)}
	s := NewSearcher(idx, logging.Nop())

	_, err := s.Search(context.Background(), "dune", 10, nil)
	assert.ErrorIs(t, err, common.ErrIndexQuery)

	bad := "***"
	_, err = s.Search(context.Background(), "dune", 10, &bad)
	assert.ErrorIs(t, err, common.ErrClientInput)

	_, err = s.Search(context.Background(), "dune", 0, nil)
	assert.ErrorIs(t, err, common.ErrClientInput)
}

func TestSearcher_ResultWindow(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		page     int64
		wantErr  bool
		wantFrom int
		wantNext bool
	}{
		{name: "page overflowing int64", count: 25, page: math.MaxInt64/25 + 2, wantErr: true},
		{name: "max page", count: 25, page: math.MaxInt64, wantErr: true},
		{name: "first page past window", count: 25, page: 401, wantErr: true},
		{name: "last page inside window", count: 25, page: 400, wantFrom: 9975},
		{name: "page before last", count: 25, page: 399, wantFrom: 9950, wantNext: true},
		{name: "uneven page size", count: 30, page: 334, wantErr: true},
		{name: "uneven last page", count: 30, page: 333, wantFrom: 9960},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := &fakeIndex{result: &search.Result{Total: 2 * search.MaxResultWindow, Hits: []search.RawHit{}}, from: -1}
			c, err := cursor.Encode(cursor.SearchAnchor{PageNumber: tt.page})
			require.NoError(t, err)

			page, err := NewSearcher(idx, logging.Nop()).Search(context.Background(), "dune", tt.count, &c)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrClientInput)
				assert.ErrorIs(t, err, cursor.ErrParse)
				assert.Equal(t, -1, idx.from, "index must not be queried")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantFrom, idx.from)
			assert.LessOrEqual(t, idx.from+idx.size, search.MaxResultWindow)
			assert.Equal(t, tt.wantNext, page.NextCursor != nil)
		})
	}
}
