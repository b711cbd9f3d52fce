// Package search is the secondary full-text index of catalog records:
// an Elasticsearch implementation and an in-memory one for development.
package search

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/catalog/internal/server/models"
)

// MaxResultWindow is the deepest hit, from+size, an index query may reach.
// It matches the Elasticsearch index.max_result_window default.
const MaxResultWindow = 10000

// OpKind is the action of a bulk operation.
type OpKind int

const (
	OpIndex OpKind = iota
	OpDelete
)

func (k OpKind) String() string {
	if k == OpDelete {
		return "delete"
	}
	return "index"
}

// BulkOp is one index or delete action. Record is set for OpIndex.
type BulkOp struct {
	Kind   OpKind
	ID     string
	Record *models.Record
}

// IndexOp builds an upsert of r.
func IndexOp(r *models.Record) BulkOp {
	return BulkOp{Kind: OpIndex, ID: r.ID, Record: r}
}

// DeleteOp builds a removal of id.
func DeleteOp(id string) BulkOp {
	return BulkOp{Kind: OpDelete, ID: id}
}

// RawHit is an undecoded search hit.
type RawHit struct {
	ID     string
	Source json.RawMessage
}

// Result is one page of raw hits plus the total number of matches.
type Result struct {
	Total int64
	Hits  []RawHit
}

// Index is the search index used by the catalog.
type Index interface {
	// EnsureIndex creates the index with the catalog mapping unless it exists.
	EnsureIndex(ctx context.Context) error
	// Bulk applies ops in one request. If any item fails, the error wraps
	// common.ErrIndexPartial.
	Bulk(ctx context.Context, ops []BulkOp) error
	// Search runs a phrase query for term over titles.
	Search(ctx context.Context, term string, from, size int) (*Result, error)
}
