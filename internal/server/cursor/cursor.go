// Package cursor encodes pagination anchors as opaque, URL-safe strings.
//
// An anchor is serialized with deterministic CBOR (integer keys, canonical
// ordering) and then base64url-encoded without padding, so equal anchors
// always yield equal cursors.
package cursor

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/catalog/internal/common"
	"github.com/fxamacker/cbor/v2"
)

var (
	// ErrDecode means the cursor is not valid base64url.
	ErrDecode = errors.New("cursor: bad encoding")
	// ErrParse means the payload is not a well-formed anchor.
	ErrParse = errors.New("cursor: bad payload")
)

// Anchor is implemented by every cursor payload.
type Anchor interface {
	Page() int64
}

// ListAnchor resumes a keyset listing after the row it describes.
type ListAnchor struct {
	Title       string  `cbor:"1,keyasint"`
	ReleaseDate *string `cbor:"2,keyasint,omitempty"`
	ID          string  `cbor:"3,keyasint"`
	PageNumber  int64   `cbor:"4,keyasint"`
}

func (a ListAnchor) Page() int64 { return a.PageNumber }

// SearchAnchor resumes an offset-based search listing.
type SearchAnchor struct {
	PageNumber int64 `cbor:"1,keyasint"`
}

func (a SearchAnchor) Page() int64 { return a.PageNumber }

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// Encode serializes an anchor into a cursor string.
func Encode[A Anchor](anchor A) (string, error) {
	b, err := encMode.Marshal(anchor)
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Decode parses a cursor produced by Encode. Errors match ErrDecode or
// ErrParse, and always common.ErrClientInput.
func Decode[A Anchor](s string) (A, error) {
	var anchor A

	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return anchor, fmt.Errorf("%w: %w: %v", common.ErrClientInput, ErrDecode, err)
	}

	if err := decMode.Unmarshal(b, &anchor); err != nil {
		return anchor, fmt.Errorf("%w: %w: %v", common.ErrClientInput, ErrParse, err)
	}

	if anchor.Page() < 1 {
		return anchor, fmt.Errorf("%w: %w: page number %d", common.ErrClientInput, ErrParse, anchor.Page())
	}

	return anchor, nil
}
