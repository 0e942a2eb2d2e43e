// Package calendar orders and filters events by date.
package calendar

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/womenconnect/platform/internal/domain/model"
)

// LocalLayout is the datetime-local form value, e.g. 2025-03-08T18:30.
const LocalLayout = "2006-01-02T15:04"

// ErrInvalidDate is returned by ParseDate.
var ErrInvalidDate = errors.New("invalid event date")

// ParseDate accepts RFC3339 or the datetime-local layout. Values without a
// zone are interpreted in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range []string{LocalLayout, "2006-01-02T15:04:05", time.DateOnly} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// SortByDate sorts events by date ascending, ties broken by id.
func SortByDate(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		return events[i].ID < events[j].ID
	})
}

// Upcoming returns the events dated at or after now, ordered by date.
// The input slice is not modified.
func Upcoming(events []model.Event, now time.Time) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if !e.Date.Before(now) {
			out = append(out, e)
		}
	}
	SortByDate(out)
	return out
}
