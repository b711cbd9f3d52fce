package models

import "time"

// Language is a spoken language of a record.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Country is a production country of a record.
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Genre is a record genre. ID is a uuid.
type Genre struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Record is a movie in the catalog. The JSON form is both the API payload and
// the search index document.
type Record struct {
	ID                  string     `json:"id"`
	Title               string     `json:"title"`
	Tagline             *string    `json:"tagline"`
	Overview            *string    `json:"overview"`
	SpokenLanguages     []Language `json:"spokenLanguages"`
	ProductionCountries []Country  `json:"productionCountries"`
	Genres              []Genre    `json:"genres"`
	ReleaseDate         *Date      `json:"releaseDate"`
	Created             time.Time  `json:"created"`
	Updated             time.Time  `json:"updated"`
	Indexed             *time.Time `json:"indexed"`
	ForeignURL          *string    `json:"foreignUrl"`
	Deleted             *time.Time `json:"deleted"`
}

// IsStale reports whether the index copy lags behind the record.
func (r *Record) IsStale() bool {
	return r.Indexed == nil || r.Indexed.Before(r.Updated)
}

// IsPurgeable reports whether a tombstone has reached the index and can be
// hard deleted.
func (r *Record) IsPurgeable() bool {
	return r.Deleted != nil && r.Indexed != nil && r.Deleted.Before(*r.Indexed)
}

// Page is one page of a keyset-paginated or searched listing. NextCursor is
// nil when no further rows exist.
type Page[T any] struct {
	Items      []T
	NextCursor *string
	PageNumber int64
}
