// Package repository persists users, events and stories.
package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/womenconnect/platform/internal/domain/model"
)

// Drivers accepted by Open.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Counts summarizes the stored collections.
type Counts struct {
	Users   int `json:"users"`
	Events  int `json:"events"`
	Stories int `json:"stories"`
}

// Store provides read/write access to the document collections.
//
// Array fields (bookmarks, likes, comments) are only changed through the
// dedicated operations, which apply atomically per document.
type Store interface {
	// CreateUser inserts a user. Returns ErrConflict when the id or the
	// case-insensitive email is already taken.
	CreateUser(ctx context.Context, u model.User) error
	GetUser(ctx context.Context, id string) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	UpdateUserName(ctx context.Context, id, name string) (model.User, error)
	UpdateUserPhoto(ctx context.Context, id, photoURL string) (model.User, error)
	// ToggleBookmark adds storyID to the user's bookmarks or removes it when
	// present and reports whether it is bookmarked afterwards.
	ToggleBookmark(ctx context.Context, userID, storyID string) (bool, error)

	CreateEvent(ctx context.Context, e model.Event) error
	GetEvent(ctx context.Context, id string) (model.Event, error)
	// ListEvents returns every event ordered by date ascending, then id.
	ListEvents(ctx context.Context) ([]model.Event, error)
	DeleteEvent(ctx context.Context, id string) error

	CreateStory(ctx context.Context, s model.Story) error
	GetStory(ctx context.Context, id string) (model.Story, error)
	// ListStories returns every story ordered by creation time descending, then id.
	ListStories(ctx context.Context) ([]model.Story, error)
	DeleteStory(ctx context.Context, id string) error
	// ToggleLike adds or removes userID from the story's likes.
	ToggleLike(ctx context.Context, storyID, userID string) (model.Story, error)
	AddComment(ctx context.Context, storyID string, c model.Comment) (model.Story, error)

	Counts(ctx context.Context) (Counts, error)
	Close() error
}

// Open builds the store named by driver. path is only used by sqlite.
func Open(ctx context.Context, driver, path string, opts ...Option) (Store, error) {
	switch strings.ToLower(driver) {
	case "", DriverMemory:
		return NewMemoryStore(ctx, opts...), nil
	case DriverSQLite:
		return OpenSQLite(ctx, path, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// NormalizeEmail is the key used for email uniqueness.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// toggle removes v from list when present, appends it otherwise, and
// reports membership afterwards. The input is never modified.
func toggle(list []string, v string) ([]string, bool) {
	if i := slices.Index(list, v); i >= 0 {
		return slices.Delete(slices.Clone(list), i, i+1), false
	}
	out := make([]string, len(list), len(list)+1)
	copy(out, list)
	return append(out, v), true
}

func cloneUser(u model.User) model.User {
	u.Bookmarks = cloneStrings(u.Bookmarks)
	return u
}

func cloneEvent(e model.Event) model.Event {
	e.Attendees = cloneStrings(e.Attendees)
	return e
}

func cloneStory(s model.Story) model.Story {
	s.Likes = cloneStrings(s.Likes)
	if s.Comments == nil {
		s.Comments = []model.Comment{}
	} else {
		s.Comments = slices.Clone(s.Comments)
	}
	return s
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return slices.Clone(in)
}

// sortStories orders newest first with id as the tie-breaker.
func sortStories(stories []model.Story) {
	slices.SortStableFunc(stories, func(a, b model.Story) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
