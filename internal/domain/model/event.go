// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/womenconnect/platform/internal/domain/search"
)

// Event categories offered by the create form.
const (
	CategoryWork      = "work"
	CategoryEducation = "education"
	CategoryHome      = "home"
)

// Defaults applied to new events.
const (
	DefaultEventType     = search.TypeOnline
	DefaultEventCategory = CategoryWork
)

// Event is a calendar entry. For online events Location holds the join
// link; for venue events it holds the address.
type Event struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Date        time.Time `json:"date" yaml:"date"`
	Type        string    `json:"type" yaml:"type"`
	Location    string    `json:"location" yaml:"location"`
	Description string    `json:"description,omitempty" yaml:"description"`
	Category    string    `json:"category" yaml:"category"`
	CreatedBy   string    `json:"created_by" yaml:"created_by"`
	CreatorName string    `json:"creator_name" yaml:"creator_name"`
	Attendees   []string  `json:"attendees" yaml:"attendees"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// ApplyDefaults fills the type and category the create form preselects.
func (e *Event) ApplyDefaults() {
	if strings.TrimSpace(e.Type) == "" {
		e.Type = DefaultEventType
	}
	if strings.TrimSpace(e.Category) == "" {
		e.Category = DefaultEventCategory
	}
	if e.Attendees == nil {
		e.Attendees = []string{}
	}
}

// Validate checks the fields required to store an event.
func (e *Event) Validate() error {
	switch {
	case strings.TrimSpace(e.Title) == "":
		return fmt.Errorf("%w: missing title", ErrValidation)
	case e.Date.IsZero():
		return fmt.Errorf("%w: missing date", ErrValidation)
	case e.Type != search.TypeOnline && e.Type != search.TypeVenue:
		return fmt.Errorf("%w: type must be %q or %q", ErrValidation, search.TypeOnline, search.TypeVenue)
	case strings.TrimSpace(e.Category) == "":
		return fmt.Errorf("%w: missing category", ErrValidation)
	case strings.TrimSpace(e.Location) == "":
		return fmt.Errorf("%w: missing location", ErrValidation)
	}
	return nil
}

// IsOnline reports whether the event happens online.
func (e *Event) IsOnline() bool { return e.Type == search.TypeOnline }

// SearchID implements search.Document.
func (e Event) SearchID() string { return e.ID }

// SearchRecord implements search.Searchable.
func (e Event) SearchRecord() search.Record {
	return search.Record{
		Title:       e.Title,
		Category:    e.Category,
		Type:        e.Type,
		Location:    e.Location,
		Description: e.Description,
	}
}
