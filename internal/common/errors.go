// Package common defines sentinel errors shared by the catalog server layers
// and its client. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrConflict   = errors.New("already exists")

	// Request input errors (malformed cursor, bad page size, invalid payload).
	ErrClientInput = errors.New("invalid client input")

	// Backend failures.
	ErrStoreQuery   = errors.New("error querying primary store")
	ErrIndexQuery   = errors.New("error querying search index")
	ErrIndexPartial = errors.New("search index rejected part of a bulk request")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")
)
