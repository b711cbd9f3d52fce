package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/catalog/internal/dbx"
	"github.com/dmitrijs2005/catalog/internal/server/models"
	"github.com/dmitrijs2005/catalog/internal/server/repositories/records"
	"github.com/dmitrijs2005/catalog/internal/server/repositories/repomanager"
)

// fakeManager hands out a fixed repository.
type fakeManager struct {
	repomanager.RepositoryManager
	repo records.Repository
}

func (m *fakeManager) Records(dbx.DBTX) records.Repository { return m.repo }

// countingRepo wraps a repository and counts GetByIDs calls. Unset methods
// fall through to the embedded Repository.
type countingRepo struct {
	records.Repository

	mu          sync.Mutex
	getByIDs    int
	getByIDsErr error
	pageErr     error
}

func (r *countingRepo) GetByIDs(ctx context.Context, ids []string) ([]*models.Record, error) {
	r.mu.Lock()
	r.getByIDs++
	r.mu.Unlock()
	if r.getByIDsErr != nil {
		return nil, r.getByIDsErr
	}
	return r.Repository.GetByIDs(ctx, ids)
}

func (r *countingRepo) SelectPage(ctx context.Context, seek *records.Seek, limit int) ([]*models.Record, int64, error) {
	if r.pageErr != nil {
		return nil, 0, r.pageErr
	}
	return r.Repository.SelectPage(ctx, seek, limit)
}

func newCountingRepo() *countingRepo {
	return &countingRepo{Repository: records.NewMemoryRepository()}
}

func date(s string) *models.Date {
	d := models.MustParseDate(s)
	return &d
}

// insert stores a record built from title and release date.
func insert(repo records.Repository, title string, rd *models.Date) *models.Record {
	rec, err := models.CreateParams{Title: title, ReleaseDate: rd}.Validate()
	if err != nil {
		panic(err)
	}
	out, ok, err := repo.Insert(context.Background(), rec)
	if err != nil || !ok {
		panic("insert failed")
	}
	return out
}
