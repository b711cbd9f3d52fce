package records

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/catalog/internal/common"
	"github.com/dmitrijs2005/catalog/internal/server/models"
)

// MemoryRepository is an in-process Repository for development and tests.
// It applies the same keyset predicate and ordering as the SQL store.
type MemoryRepository struct {
	mu   sync.RWMutex
	rows map[string]*models.Record
	last time.Time
	now  func() time.Time
}

// NewMemoryRepository returns an empty store stamped by the wall clock.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		rows: make(map[string]*models.Record),
		now:  time.Now,
	}
}

// tick returns a store timestamp strictly later than the previous one.
// Callers hold mu.
func (m *MemoryRepository) tick() time.Time {
	t := m.now().UTC().Truncate(time.Microsecond)
	if !t.After(m.last) {
		t = m.last.Add(time.Microsecond)
	}
	m.last = t
	return t
}

func cloneRecord(r *models.Record) *models.Record {
	c := *r
	c.SpokenLanguages = slices.Clone(r.SpokenLanguages)
	c.ProductionCountries = slices.Clone(r.ProductionCountries)
	c.Genres = slices.Clone(r.Genres)
	c.Tagline = clonePtr(r.Tagline)
	c.Overview = clonePtr(r.Overview)
	c.ForeignURL = clonePtr(r.ForeignURL)
	c.ReleaseDate = clonePtr(r.ReleaseDate)
	c.Indexed = clonePtr(r.Indexed)
	c.Deleted = clonePtr(r.Deleted)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (m *MemoryRepository) GetByID(_ context.Context, id string) (*models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rows[id]
	if !ok || r.Deleted != nil {
		return nil, common.ErrorNotFound
	}
	return cloneRecord(r), nil
}

func (m *MemoryRepository) GetByIDs(_ context.Context, ids []string) ([]*models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*models.Record, 0, len(ids))
	for _, id := range ids {
		if r, ok := m.rows[id]; ok && r.Deleted == nil {
			result = append(result, cloneRecord(r))
		}
	}
	return result, nil
}

func (m *MemoryRepository) SelectPage(_ context.Context, seek *Seek, limit int) ([]*models.Record, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]*models.Record, 0)
	for _, r := range m.rows {
		if r.Deleted == nil && seek.Matches(r) {
			matched = append(matched, r)
		}
	}
	slices.SortFunc(matched, Compare)

	total := int64(len(matched))
	if len(matched) > limit {
		matched = matched[:limit]
	}

	items := make([]*models.Record, len(matched))
	for i, r := range matched {
		items[i] = cloneRecord(r)
	}
	return items, total, nil
}

func (m *MemoryRepository) Insert(_ context.Context, r *models.Record) (*models.Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[r.ID]; ok {
		return nil, false, nil
	}

	row := cloneRecord(r)
	t := m.tick()
	row.Created, row.Updated = t, t
	row.Indexed, row.Deleted = nil, nil
	m.rows[row.ID] = row
	return cloneRecord(row), true, nil
}

func (m *MemoryRepository) Update(_ context.Context, id string, c models.Changes) (*models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.rows[id]
	if !ok || row.Deleted != nil {
		return nil, common.ErrorNotFound
	}
	c.Apply(row)
	row.Updated = m.tick()
	return cloneRecord(row), nil
}

func (m *MemoryRepository) SoftDelete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.rows[id]
	if !ok || row.Deleted != nil {
		return false, nil
	}
	t := m.tick()
	row.Deleted = &t
	row.Updated = t
	return true, nil
}

func (m *MemoryRepository) SelectStale(_ context.Context, limit int) ([]*models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stale := make([]*models.Record, 0)
	for _, r := range m.rows {
		if r.IsStale() {
			stale = append(stale, r)
		}
	}
	slices.SortFunc(stale, func(a, b *models.Record) int {
		switch {
		case a.Indexed == nil && b.Indexed == nil:
			return 0
		case a.Indexed == nil:
			return -1
		case b.Indexed == nil:
			return 1
		}
		return a.Indexed.Compare(*b.Indexed)
	})
	if len(stale) > limit {
		stale = stale[:limit]
	}

	result := make([]*models.Record, len(stale))
	for i, r := range stale {
		result[i] = cloneRecord(r)
	}
	return result, nil
}

func (m *MemoryRepository) MarkIndexed(_ context.Context, recs []*models.Record) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	t := m.tick()
	for _, rec := range recs {
		row, ok := m.rows[rec.ID]
		if !ok || !row.Updated.Equal(rec.Updated) {
			continue
		}
		indexed := t
		row.Indexed = &indexed
		n++
	}
	return n, nil
}

func (m *MemoryRepository) PurgeIndexedTombstones(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, row := range m.rows {
		if row.IsPurgeable() {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}
