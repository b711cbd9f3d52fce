package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/catalog/internal/common"
	"github.com/google/uuid"
)

// GenreParams is a genre in a create or update payload. A missing id gets a
// random one.
type GenreParams struct {
	ID   *string `json:"id,omitempty"`
	Name string  `json:"name"`
}

// CreateParams describes a new record.
type CreateParams struct {
	Title               string        `json:"title"`
	Tagline             *string       `json:"tagline,omitempty"`
	Overview            *string       `json:"overview,omitempty"`
	SpokenLanguages     []Language    `json:"spokenLanguages,omitempty"`
	ProductionCountries []Country     `json:"productionCountries,omitempty"`
	Genres              []GenreParams `json:"genres,omitempty"`
	ReleaseDate         *Date         `json:"releaseDate,omitempty"`
	ForeignURL          *string       `json:"foreignUrl,omitempty"`
}

// UpdateParams describes a partial update. Absent fields are left untouched;
// explicit null clears nullable fields.
type UpdateParams struct {
	Title               Field[string]        `json:"title,omitzero"`
	Tagline             Field[string]        `json:"tagline,omitzero"`
	Overview            Field[string]        `json:"overview,omitzero"`
	SpokenLanguages     Field[[]Language]    `json:"spokenLanguages,omitzero"`
	ProductionCountries Field[[]Country]     `json:"productionCountries,omitzero"`
	Genres              Field[[]GenreParams] `json:"genres,omitzero"`
	ReleaseDate         Field[Date]          `json:"releaseDate,omitzero"`
	ForeignURL          Field[string]        `json:"foreignUrl,omitzero"`
}

// Changes is a validated update ready for the repository. Nil members are
// not touched.
type Changes struct {
	Title               *string
	Tagline             *Field[string]
	Overview            *Field[string]
	SpokenLanguages     *[]Language
	ProductionCountries *[]Country
	Genres              *[]Genre
	ReleaseDate         *Field[Date]
	ForeignURL          *Field[string]
}

// Empty reports whether the update sets nothing.
func (c Changes) Empty() bool {
	return c.Title == nil && c.Tagline == nil && c.Overview == nil &&
		c.SpokenLanguages == nil && c.ProductionCountries == nil && c.Genres == nil &&
		c.ReleaseDate == nil && c.ForeignURL == nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrClientInput, fmt.Sprintf(format, args...))
}

func buildGenres(in []GenreParams) ([]Genre, error) {
	out := make([]Genre, 0, len(in))
	for i, g := range in {
		id := uuid.NewString()
		if g.ID != nil {
			parsed, err := uuid.Parse(*g.ID)
			if err != nil {
				return nil, invalid("genres[%d].id: %v", i, err)
			}
			id = parsed.String()
		}
		out = append(out, Genre{ID: id, Name: g.Name})
	}
	return out, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Validate checks the payload and returns the record to insert. Timestamps
// are left zero; the store assigns them.
func (p CreateParams) Validate() (*Record, error) {
	if strings.TrimSpace(p.Title) == "" {
		return nil, invalid("title must not be blank")
	}

	genres, err := buildGenres(p.Genres)
	if err != nil {
		return nil, err
	}

	return &Record{
		ID:                  RecordID(p.Title, p.ReleaseDate),
		Title:               p.Title,
		Tagline:             p.Tagline,
		Overview:            p.Overview,
		SpokenLanguages:     nonNil(p.SpokenLanguages),
		ProductionCountries: nonNil(p.ProductionCountries),
		Genres:              genres,
		ReleaseDate:         p.ReleaseDate,
		ForeignURL:          p.ForeignURL,
	}, nil
}

// Validate checks the payload and converts it to Changes.
func (p UpdateParams) Validate() (Changes, error) {
	var c Changes

	if p.Title.Set {
		if p.Title.Null || strings.TrimSpace(p.Title.Value) == "" {
			return Changes{}, invalid("title must not be blank")
		}
		c.Title = &p.Title.Value
	}
	if p.Tagline.Set {
		c.Tagline = &p.Tagline
	}
	if p.Overview.Set {
		c.Overview = &p.Overview
	}
	if p.SpokenLanguages.Set {
		v := nonNil(p.SpokenLanguages.Value)
		c.SpokenLanguages = &v
	}
	if p.ProductionCountries.Set {
		v := nonNil(p.ProductionCountries.Value)
		c.ProductionCountries = &v
	}
	if p.Genres.Set {
		genres, err := buildGenres(p.Genres.Value)
		if err != nil {
			return Changes{}, err
		}
		c.Genres = &genres
	}
	if p.ReleaseDate.Set {
		c.ReleaseDate = &p.ReleaseDate
	}
	if p.ForeignURL.Set {
		c.ForeignURL = &p.ForeignURL
	}

	return c, nil
}

// Apply copies c onto r. Timestamps are not touched.
func (c Changes) Apply(r *Record) {
	if c.Title != nil {
		r.Title = *c.Title
	}
	if c.Tagline != nil {
		r.Tagline = c.Tagline.Ptr()
	}
	if c.Overview != nil {
		r.Overview = c.Overview.Ptr()
	}
	if c.SpokenLanguages != nil {
		r.SpokenLanguages = *c.SpokenLanguages
	}
	if c.ProductionCountries != nil {
		r.ProductionCountries = *c.ProductionCountries
	}
	if c.Genres != nil {
		r.Genres = *c.Genres
	}
	if c.ReleaseDate != nil {
		r.ReleaseDate = c.ReleaseDate.Ptr()
	}
	if c.ForeignURL != nil {
		r.ForeignURL = c.ForeignURL.Ptr()
	}
}

// RecordID derives the record id from the title and release date, so the
// same movie submitted twice maps to the same row.
//
//	id = uuid5(uuid5(nil, "Some(YYYY-MM-DD)" | "None"), quoted(title))
func RecordID(title string, releaseDate *Date) string {
	ns := "None"
	if releaseDate != nil {
		ns = "Some(" + releaseDate.String() + ")"
	}
	namespace := uuid.NewSHA1(uuid.Nil, []byte(ns))
	return uuid.NewSHA1(namespace, []byte(strconv.Quote(title))).String()
}
