package model_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/womenconnect/platform/internal/domain/model"
	"github.com/womenconnect/platform/internal/domain/search"
)

func TestEvent(t *testing.T) {
	Convey("Given an event built from an empty form", t, func() {
		e := model.Event{Title: "Career Fair", Date: time.Date(2030, 1, 2, 10, 0, 0, 0, time.UTC), Location: "https://meet"}
		e.ApplyDefaults()

		Convey("Then the form defaults are applied", func() {
			So(e.Type, ShouldEqual, "online")
			So(e.Category, ShouldEqual, "work")
			So(e.Attendees, ShouldNotBeNil)
			So(e.IsOnline(), ShouldBeTrue)
			So(e.Validate(), ShouldBeNil)
		})

		Convey("And the search projection carries every field", func() {
			e.Description = "Meet employers"
			rec := e.SearchRecord()
			So(rec.Title, ShouldEqual, "Career Fair")
			So(rec.Category, ShouldEqual, "work")
			So(rec.Type, ShouldEqual, "online")
			So(rec.Location, ShouldEqual, "https://meet")
			So(rec.Description, ShouldEqual, "Meet employers")
		})
	})

	Convey("Given invalid events", t, func() {
		base := func() model.Event {
			return model.Event{Title: "T", Date: time.Now(), Type: "venue", Category: "home", Location: "Hall"}
		}
		cases := map[string]func(*model.Event){
			"title":    func(e *model.Event) { e.Title = "  " },
			"date":     func(e *model.Event) { e.Date = time.Time{} },
			"type":     func(e *model.Event) { e.Type = "hybrid" },
			"category": func(e *model.Event) { e.Category = "" },
			"location": func(e *model.Event) { e.Location = "" },
		}
		for field, mutate := range cases {
			e := base()
			mutate(&e)
			err := e.Validate()
			So(err, ShouldNotBeNil)
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, field)
		}
	})
}

func TestStory(t *testing.T) {
	Convey("Given a story", t, func() {
		s := model.Story{Title: "My journey", Content: strings.Repeat("a", 1001), Likes: []string{"u1"}}

		Convey("Then reading time rounds up per thousand characters", func() {
			So(s.ReadMinutes(), ShouldEqual, 2)
			s.Content = strings.Repeat("é", 1000)
			So(s.ReadMinutes(), ShouldEqual, 1)
			s.Content = ""
			So(s.ReadMinutes(), ShouldEqual, 0)
		})

		Convey("Then likes are checked by user id", func() {
			So(s.LikedBy("u1"), ShouldBeTrue)
			So(s.LikedBy("u2"), ShouldBeFalse)
		})

		Convey("Then the search projection carries only title and content", func() {
			rec := s.SearchRecord()
			So(rec.Category, ShouldBeEmpty)
			So(rec.Type, ShouldBeEmpty)
			So(rec.Description, ShouldEqual, s.Content)
			So(search.ExtractKeywords(rec).Has(""), ShouldBeFalse)
		})

		Convey("Then a story without content is rejected", func() {
			s.Content = " "
			So(errors.Is(s.Validate(), model.ErrValidation), ShouldBeTrue)
		})
	})

	Convey("Given a comment with surrounding whitespace", t, func() {
		c := model.Comment{Text: "  well said \n"}
		So(c.Normalize(), ShouldBeNil)
		So(c.Text, ShouldEqual, "well said")

		blank := model.Comment{Text: "   "}
		So(errors.Is(blank.Normalize(), model.ErrValidation), ShouldBeTrue)
	})
}

func TestUserProfile(t *testing.T) {
	Convey("Given a user without name or photo", t, func() {
		u := model.User{ID: "u1", Email: "a@b.co", PasswordHash: "secret"}
		p := u.Profile()

		Convey("Then the profile falls back to defaults", func() {
			So(p.Name, ShouldEqual, model.AnonymousName)
			So(p.PhotoURL, ShouldEqual, model.DefaultPhotoURL)
			So(p.Bookmarks, ShouldBeEmpty)
			So(p.Bookmarks, ShouldNotBeNil)
		})
	})

	Convey("Given a user with bookmarks", t, func() {
		u := model.User{Name: " Ada ", Bookmarks: []string{"s1"}}
		So(u.DisplayName(), ShouldEqual, "Ada")
		So(u.HasBookmark("s1"), ShouldBeTrue)
		So(u.HasBookmark("s2"), ShouldBeFalse)
	})
}
