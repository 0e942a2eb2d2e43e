package model

import (
	"slices"
	"strings"
	"time"
)

// Fallbacks shown when a user has not set a name or photo.
const (
	AnonymousName   = "Anonymous"
	DefaultPhotoURL = "/profile-image.png"
)

// User is a registered member. PasswordHash never leaves the service;
// handlers expose Profile instead.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	PhotoURL     string
	Bookmarks    []string
	CreatedAt    time.Time
}

// Profile is the public view of a user.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	PhotoURL  string    `json:"photo_url"`
	Bookmarks []string  `json:"bookmarks"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName returns the name, or AnonymousName when unset.
func (u *User) DisplayName() string {
	if n := strings.TrimSpace(u.Name); n != "" {
		return n
	}
	return AnonymousName
}

// HasBookmark reports whether storyID is bookmarked.
func (u *User) HasBookmark(storyID string) bool {
	return slices.Contains(u.Bookmarks, storyID)
}

// Profile returns the public view of u.
func (u *User) Profile() Profile {
	photo := u.PhotoURL
	if photo == "" {
		photo = DefaultPhotoURL
	}
	bookmarks := u.Bookmarks
	if bookmarks == nil {
		bookmarks = []string{}
	}
	return Profile{
		ID:        u.ID,
		Name:      u.DisplayName(),
		Email:     u.Email,
		PhotoURL:  photo,
		Bookmarks: bookmarks,
		CreatedAt: u.CreatedAt,
	}
}
