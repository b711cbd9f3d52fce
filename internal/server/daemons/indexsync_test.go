package daemons

import (
	"context"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/catalog/internal/common"
	"github.com/dmitrijs2005/catalog/internal/dbx"
	"github.com/dmitrijs2005/catalog/internal/logging"
	"github.com/dmitrijs2005/catalog/internal/server/metrics"
	"github.com/dmitrijs2005/catalog/internal/server/models"
	"github.com/dmitrijs2005/catalog/internal/server/repositories/records"
	"github.com/dmitrijs2005/catalog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/catalog/internal/server/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeManager hands out a fixed repository.
type fakeManager struct {
	repomanager.RepositoryManager
	repo records.Repository
}

func (m *fakeManager) Records(dbx.DBTX) records.Repository { return m.repo }

// scriptedIndex records bulk calls and fails or runs a hook on demand.
type scriptedIndex struct {
	search.Index
	calls  [][]search.BulkOp
	err    error
	during func()
}

func (s *scriptedIndex) Bulk(_ context.Context, ops []search.BulkOp) error {
	s.calls = append(s.calls, ops)
	if s.during != nil {
		s.during()
	}
	return s.err
}

func insert(t *testing.T, repo records.Repository, title string) *models.Record {
	t.Helper()
	rec, err := models.CreateParams{Title: title}.Validate()
	require.NoError(t, err)
	out, ok, err := repo.Insert(context.Background(), rec)
	require.NoError(t, err)
	require.True(t, ok)
	return out
}

func TestIndexSync_IndexesAndMarks(t *testing.T) {
	ctx := context.Background()
	repo := records.NewMemoryRepository()
	idx := search.NewMemoryIndex()
	m := metrics.New(prometheus.NewRegistry())

	a := insert(t, repo, "Alien")
	insert(t, repo, "Brazil")

	s := NewIndexSync(nil, &fakeManager{repo: repo}, idx, 10, logging.Nop(), m)
	require.NoError(t, s.Cycle(ctx))

	assert.Equal(t, 2, idx.Len())
	stale, err := repo.SelectStale(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, stale)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SyncedRecords.WithLabelValues("index")))

	// tombstone goes out as a delete
	_, err = repo.SoftDelete(ctx, a.ID)
	require.NoError(t, err)
	require.NoError(t, s.Cycle(ctx))
	assert.False(t, idx.Has(a.ID))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyncedRecords.WithLabelValues("delete")))

	// nothing stale: no bulk call at all
	scripted := &scriptedIndex{}
	require.NoError(t, NewIndexSync(nil, &fakeManager{repo: repo}, scripted, 10, logging.Nop(), nil).Cycle(ctx))
	assert.Empty(t, scripted.calls)
}

func TestIndexSync_BatchSize(t *testing.T) {
	ctx := context.Background()
	repo := records.NewMemoryRepository()
	for i := 0; i < 5; i++ {
		insert(t, repo, fmt.Sprintf("Movie %d", i))
	}
	idx := &scriptedIndex{}

	require.NoError(t, NewIndexSync(nil, &fakeManager{repo: repo}, idx, 2, logging.Nop(), nil).Cycle(ctx))
	require.Len(t, idx.calls, 1)
	assert.Len(t, idx.calls[0], 2)

	stale, _ := repo.SelectStale(ctx, 10)
	assert.Len(t, stale, 3)
}

func TestIndexSync_PartialFailureMarksNothing(t *testing.T) {
	ctx := context.Background()
	repo := records.NewMemoryRepository()
	insert(t, repo, "Alien")
	insert(t, repo, "Brazil")
	insert(t, repo, "Contact")

	idx := &scriptedIndex{err: fmt.Errorf("%w: 1 of 3 failed", common.ErrIndexPartial)}
	err := NewIndexSync(nil, &fakeManager{repo: repo}, idx, 10, logging.Nop(), nil).Cycle(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrIndexPartial)

	stale, err := repo.SelectStale(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, stale, 3)
	for _, r := range stale {
		assert.Nil(t, r.Indexed)
	}
}

func TestIndexSync_ChangedDuringCycleStaysStale(t *testing.T) {
	ctx := context.Background()
	repo := records.NewMemoryRepository()
	a := insert(t, repo, "Alien")
	insert(t, repo, "Brazil")

	idx := &scriptedIndex{during: func() {
		title := "Aliens"
		_, err := repo.Update(ctx, a.ID, models.Changes{Title: &title})
		require.NoError(t, err)
	}}
	require.NoError(t, NewIndexSync(nil, &fakeManager{repo: repo}, idx, 10, logging.Nop(), nil).Cycle(ctx))

	stale, err := repo.SelectStale(ctx, 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, a.ID, stale[0].ID)
	assert.Equal(t, "Aliens", stale[0].Title)
}

type failingRepo struct {
	records.Repository
	err error
}

func (f *failingRepo) SelectStale(context.Context, int) ([]*models.Record, error) {
	return nil, f.err
}

func (f *failingRepo) PurgeIndexedTombstones(context.Context) (int64, error) {
	return 0, f.err
}

func TestIndexSync_StoreError(t *testing.T) {
	repo := &failingRepo{err: fmt.Errorf("%w: down", common.ErrStoreQuery)}
	err := NewIndexSync(nil, &fakeManager{repo: repo}, &scriptedIndex{}, 10, logging.Nop(), nil).Cycle(context.Background())
	assert.ErrorIs(t, err, common.ErrStoreQuery)
}
