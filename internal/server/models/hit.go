package models

// Hit is one search result: either a full record decoded from the index
// document or a placeholder that only carries the id.
type Hit interface {
	HitID() string
	hit()
}

// Placeholder is a hit whose document could not be turned into a Record.
type Placeholder struct {
	ID string
}

// Resolved is a hit carrying the complete record.
type Resolved struct {
	Record *Record
}

func (p Placeholder) HitID() string { return p.ID }
func (Placeholder) hit()            {}

func (r Resolved) HitID() string { return r.Record.ID }
func (Resolved) hit()            {}
