// Package search derives keyword sets from records and filters record
// lists by free-text queries.
//
// Every function in this package is pure: records are values, nothing is
// retained between calls except inside an explicit Index, and all exported
// functions are safe for concurrent use.
package search

import "strings"

// Record types with special keyword handling.
const (
	TypeOnline = "online"
	TypeVenue  = "venue"
)

// Record is the searchable projection of an event or story.
// Title, Category and Type are expected to be set; Location and
// Description may be empty.
type Record struct {
	Title       string
	Category    string
	Type        string
	Location    string
	Description string
}

// Searchable is implemented by anything that can be projected to a Record.
type Searchable interface {
	SearchRecord() Record
}

// Document is a Searchable with a stable identity, used by Index.
type Document interface {
	Searchable
	SearchID() string
}

// SearchRecord lets a bare Record be passed wherever a Searchable is expected.
func (r Record) SearchRecord() Record { return r }

// Haystack returns the lowercased combined text the matcher runs against.
// Fields are joined by a newline so no query token can span two fields.
func Haystack(r Record) string {
	return strings.ToLower(strings.Join([]string{
		r.Title,
		r.Category,
		r.Type,
		r.Location,
		r.Description,
	}, "\n"))
}
