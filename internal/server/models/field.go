package models

import (
	"bytes"
	"encoding/json"
)

// Field is an optional update value that tells an absent key apart from an
// explicit null. The zero value is absent.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a present, non-null Field.
func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// Null returns a present Field holding null.
func Null[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

// IsZero reports whether the field is absent, so `omitzero` drops it.
func (f Field[T]) IsZero() bool { return !f.Set }

// Ptr returns nil for null, otherwise a pointer to the value.
func (f Field[T]) Ptr() *T {
	if f.Null {
		return nil
	}
	v := f.Value
	return &v
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if f.Null || !f.Set {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(b, &f.Value)
}
