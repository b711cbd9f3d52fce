package search

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrijs2005/catalog/internal/common"
)

type memoryDoc struct {
	title  string
	source json.RawMessage
}

// MemoryIndex is an in-process Index. A search matches documents whose
// title contains the term, case-insensitively; results are ordered by title
// and id.
type MemoryIndex struct {
	mu   sync.RWMutex
	docs map[string]memoryDoc
}

// NewMemoryIndex returns an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{docs: make(map[string]memoryDoc)}
}

// EnsureIndex is a no-op; the memory index needs no mapping.
func (m *MemoryIndex) EnsureIndex(context.Context) error {
	return nil
}

func (m *MemoryIndex) Bulk(_ context.Context, ops []BulkOp) error {
	staged := make(map[string]*memoryDoc, len(ops))
	for _, op := range ops {
		switch op.Kind {
		case OpDelete:
			staged[op.ID] = nil
		case OpIndex:
			if op.Record == nil {
				return fmt.Errorf("%w: index op %s without document", common.ErrIndexPartial, op.ID)
			}
			b, err := json.Marshal(op.Record)
			if err != nil {
				return fmt.Errorf("%w: encode %s: %w", common.ErrIndexQuery, op.ID, err)
			}
			staged[op.ID] = &memoryDoc{title: op.Record.Title, source: b}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, doc := range staged {
		if doc == nil {
			delete(m.docs, id)
			continue
		}
		m.docs[id] = *doc
	}
	return nil
}

// Put stores a raw document under id. The title is read from the source when
// present.
func (m *MemoryIndex) Put(id string, source json.RawMessage) {
	var probe struct {
		Title string `json:"title"`
	}
	_ = json.Unmarshal(source, &probe)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[id] = memoryDoc{title: probe.Title, source: slices.Clone(source)}
}

// Len returns the number of stored documents.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// Has reports whether a document with id is stored.
func (m *MemoryIndex) Has(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.docs[id]
	return ok
}

func (m *MemoryIndex) Search(_ context.Context, term string, from, size int) (*Result, error) {
	if from < 0 || size < 0 {
		return nil, fmt.Errorf("%w: negative from/size", common.ErrIndexQuery)
	}
	needle := strings.ToLower(strings.TrimSpace(term))

	m.mu.RLock()
	matched := make([]RawHit, 0)
	titles := make(map[string]string)
	for id, doc := range m.docs {
		if strings.Contains(strings.ToLower(doc.title), needle) {
			matched = append(matched, RawHit{ID: id, Source: slices.Clone(doc.source)})
			titles[id] = doc.title
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(matched, func(a, b RawHit) int {
		if c := strings.Compare(titles[a.ID], titles[b.ID]); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	result := &Result{Total: int64(len(matched)), Hits: []RawHit{}}
	if from < len(matched) {
		result.Hits = matched[from:min(from+size, len(matched))]
	}
	return result, nil
}
