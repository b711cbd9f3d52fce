package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/dmitrijs2005/catalog/internal/common"
	"github.com/dmitrijs2005/catalog/internal/logging"
	"github.com/dmitrijs2005/catalog/internal/server/cursor"
	"github.com/dmitrijs2005/catalog/internal/server/models"
	"github.com/dmitrijs2005/catalog/internal/server/repositories/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPaginator(repo records.Repository) *Paginator {
	return NewPaginator(nil, &fakeManager{repo: repo}, logging.Nop())
}

func walk(t *testing.T, p *Paginator, size int, between func(page int)) []*models.Record {
	t.Helper()
	var (
		all []*models.Record
		c   *string
	)
	for i := 1; ; i++ {
		page, err := p.List(context.Background(), size, c)
		require.NoError(t, err)
		assert.Equal(t, int64(i), page.PageNumber)
		all = append(all, page.Items...)
		if page.NextCursor == nil {
			return all
		}
		c = page.NextCursor
		if between != nil {
			between(i)
		}
	}
}

func seedRecords(repo records.Repository, n int) []*models.Record {
	var out []*models.Record
	for i := 0; i < n; i++ {
		// ids derive from title and date, so at most one undated row per title
		var rd *models.Date
		if i >= 12 || i%4 != 0 {
			rd = date(fmt.Sprintf("19%02d-06-01", 50+i))
		}
		out = append(out, insert(repo, fmt.Sprintf("Title %d", i%6), rd))
	}
	return out
}

func ids(recs []*models.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestPaginator_SinglePageHasNoCursor(t *testing.T) {
	repo := records.NewMemoryRepository()
	insert(repo, "Dune", date("1984-12-14"))

	page, err := newPaginator(repo).List(context.Background(), 25, nil)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Nil(t, page.NextCursor)
	assert.Equal(t, int64(1), page.PageNumber)
}

func TestPaginator_EmptyStore(t *testing.T) {
	page, err := newPaginator(records.NewMemoryRepository()).List(context.Background(), 10, nil)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Nil(t, page.NextCursor)
}

func TestPaginator_Completeness(t *testing.T) {
	repo := records.NewMemoryRepository()
	want := seedRecords(repo, 29)
	slices.SortFunc(want, records.Compare)

	for _, size := range []int{1, 2, 3, 5, 7, 28, 29, 30, 100} {
		got := walk(t, newPaginator(repo), size, nil)
		assert.Equal(t, ids(want), ids(got), "page size %d", size)
	}
}

func TestPaginator_StableUnderConcurrentInsert(t *testing.T) {
	repo := records.NewMemoryRepository()
	original := seedRecords(repo, 24)

	inserted := 0
	got := walk(t, newPaginator(repo), 5, func(page int) {
		// one row before every possible anchor, one after
		insert(repo, fmt.Sprintf("A new %d", page), nil)
		insert(repo, fmt.Sprintf("Z new %d", page), date("2000-01-01"))
		inserted += 2
	})

	seen := make(map[string]int)
	for _, r := range got {
		seen[r.ID]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "record %s returned %d times", id, n)
	}
	for _, r := range original {
		assert.Equal(t, 1, seen[r.ID], "original record %s missing", r.ID)
	}

	// pages come out in order even while rows are added
	assert.True(t, slices.IsSortedFunc(got, records.Compare))
	assert.Greater(t, inserted, 0)
}

func TestPaginator_InvalidInput(t *testing.T) {
	p := newPaginator(records.NewMemoryRepository())

	searchCursor, err := cursor.Encode(cursor.SearchAnchor{PageNumber: 2})
	require.NoError(t, err)
	badID, err := cursor.Encode(cursor.ListAnchor{Title: "Dune", ID: "nope", PageNumber: 2})
	require.NoError(t, err)
	bad := "2021/10/22"
	badDate, err := cursor.Encode(cursor.ListAnchor{Title: "Dune", ReleaseDate: &bad, ID: models.RecordID("Dune", nil), PageNumber: 2})
	require.NoError(t, err)
	garbage := "%%%"

	for name, c := range map[string]*string{
		"not base64":  &garbage,
		"search kind": &searchCursor,
		"bad id":      &badID,
		"bad date":    &badDate,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := p.List(context.Background(), 10, c)
			assert.True(t, errors.Is(err, common.ErrClientInput), "got %v", err)
		})
	}

	_, err = p.List(context.Background(), 0, nil)
	assert.ErrorIs(t, err, common.ErrClientInput)
}

func TestPaginator_StoreError(t *testing.T) {
	repo := newCountingRepo()
	repo.pageErr = fmt.Errorf("%w: boom", common.ErrStoreQuery)

	_, err := newPaginator(repo).List(context.Background(), 10, nil)
	assert.ErrorIs(t, err, common.ErrStoreQuery)
}
