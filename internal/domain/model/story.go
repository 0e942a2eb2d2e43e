package model

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/womenconnect/platform/internal/domain/search"
)

// charsPerReadMinute drives the "N min read" label.
const charsPerReadMinute = 1000

// Story is a post in the community feed.
type Story struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	ImageURL   string    `json:"image_url,omitempty"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Likes      []string  `json:"likes"`
	Comments   []Comment `json:"comments"`
	CreatedAt  time.Time `json:"created_at"`
}

// Comment is appended to a story; comments are never edited.
type Comment struct {
	Text      string    `json:"text"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the fields required to store a story.
func (s *Story) Validate() error {
	switch {
	case strings.TrimSpace(s.Title) == "":
		return fmt.Errorf("%w: missing title", ErrValidation)
	case strings.TrimSpace(s.Content) == "":
		return fmt.Errorf("%w: missing content", ErrValidation)
	}
	return nil
}

// Normalize trims the comment and checks it is not empty.
func (c *Comment) Normalize() error {
	c.Text = strings.TrimSpace(c.Text)
	if c.Text == "" {
		return fmt.Errorf("%w: empty comment", ErrValidation)
	}
	return nil
}

// ReadMinutes estimates reading time, rounding up.
func (s *Story) ReadMinutes() int {
	n := utf8.RuneCountInString(s.Content)
	return (n + charsPerReadMinute - 1) / charsPerReadMinute
}

// LikedBy reports whether userID liked the story.
func (s *Story) LikedBy(userID string) bool {
	return slices.Contains(s.Likes, userID)
}

// SearchID implements search.Document.
func (s Story) SearchID() string { return s.ID }

// SearchRecord implements search.Searchable. Stories have no category or
// type, so only their title and content are searched.
func (s Story) SearchRecord() search.Record {
	return search.Record{
		Title:       s.Title,
		Description: s.Content,
	}
}
