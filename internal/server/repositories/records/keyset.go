package records

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/catalog/internal/server/models"
)

// OrderBy is the one listing order: title, newest release first with
// undated records last, then id.
const OrderBy = "title ASC, release_date DESC NULLS LAST, id ASC"

// Seek identifies the last row of the previous page. Rows strictly after it
// in OrderBy order form the next page.
type Seek struct {
	Title       string
	ReleaseDate *models.Date
	ID          string
}

// SQL renders the predicate with placeholders numbered from next and returns
// the matching arguments.
func (s *Seek) SQL(next int) (string, []any) {
	if s.ReleaseDate == nil {
		return fmt.Sprintf(
			"(title > $%[1]d OR (title = $%[1]d AND release_date IS NULL AND id > $%[2]d))",
			next, next+1,
		), []any{s.Title, s.ID}
	}

	return fmt.Sprintf(
		"(title > $%[1]d OR (title = $%[1]d AND (release_date < $%[2]d OR (release_date = $%[2]d AND id > $%[3]d) OR release_date IS NULL)))",
		next, next+1, next+2,
	), []any{s.Title, s.ReleaseDate.String(), s.ID}
}

// Matches reports whether r sorts after the seek position.
func (s *Seek) Matches(r *models.Record) bool {
	if s == nil {
		return true
	}

	switch c := strings.Compare(r.Title, s.Title); {
	case c > 0:
		return true
	case c < 0:
		return false
	}

	if s.ReleaseDate == nil {
		return r.ReleaseDate == nil && r.ID > s.ID
	}
	if r.ReleaseDate == nil {
		return true
	}

	switch r.ReleaseDate.Compare(*s.ReleaseDate) {
	case -1:
		return true
	case 1:
		return false
	default:
		return r.ID > s.ID
	}
}

// Compare orders records the way OrderBy does.
func Compare(a, b *models.Record) int {
	if c := strings.Compare(a.Title, b.Title); c != 0 {
		return c
	}

	switch {
	case a.ReleaseDate == nil && b.ReleaseDate != nil:
		return 1
	case a.ReleaseDate != nil && b.ReleaseDate == nil:
		return -1
	case a.ReleaseDate != nil && b.ReleaseDate != nil:
		if c := a.ReleaseDate.Compare(*b.ReleaseDate); c != 0 {
			return -c
		}
	}

	return strings.Compare(a.ID, b.ID)
}

// SeekAfter returns the seek position just past r.
func SeekAfter(r *models.Record) *Seek {
	return &Seek{Title: r.Title, ReleaseDate: r.ReleaseDate, ID: r.ID}
}
