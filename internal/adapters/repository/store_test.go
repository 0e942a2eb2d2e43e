package repository_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/womenconnect/platform/internal/adapters/repository"
	"github.com/womenconnect/platform/internal/domain/model"
)

type factory func(t *testing.T) repository.Store

func memoryFactory(t *testing.T) repository.Store {
	return repository.NewMemoryStore(context.Background())
}

func sqliteFactory(t *testing.T) repository.Store {
	s, err := repository.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "wc.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return s
}

var base = time.Date(2030, 5, 1, 9, 0, 0, 0, time.UTC)

func TestMemoryStore(t *testing.T) { runStoreContract(t, memoryFactory) }
func TestSQLiteStore(t *testing.T) { runStoreContract(t, sqliteFactory) }

func runStoreContract(t *testing.T, newStore factory) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		s := newStore(t)
		Reset(func() { _ = s.Close() })

		Convey("Users", func() {
			u := model.User{ID: "u1", Name: "Ada", Email: "Ada@Example.com", PasswordHash: "h", CreatedAt: base}
			So(s.CreateUser(ctx, u), ShouldBeNil)

			Convey("are found by id and by case-insensitive email", func() {
				got, err := s.GetUser(ctx, "u1")
				So(err, ShouldBeNil)
				So(got.Name, ShouldEqual, "Ada")
				So(got.CreatedAt.Equal(base), ShouldBeTrue)
				So(got.Bookmarks, ShouldResemble, []string{})

				got, err = s.GetUserByEmail(ctx, " ada@example.COM ")
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, "u1")
			})

			Convey("reject a duplicate id or email", func() {
				So(errors.Is(s.CreateUser(ctx, model.User{ID: "u1", Email: "x@y.z"}), repository.ErrConflict), ShouldBeTrue)
				So(errors.Is(s.CreateUser(ctx, model.User{ID: "u2", Email: "ada@example.com"}), repository.ErrConflict), ShouldBeTrue)
			})

			Convey("can change name and photo", func() {
				got, err := s.UpdateUserName(ctx, "u1", "Ada L.")
				So(err, ShouldBeNil)
				So(got.Name, ShouldEqual, "Ada L.")
				got, err = s.UpdateUserPhoto(ctx, "u1", "/blobs/avatars/u1.png")
				So(err, ShouldBeNil)
				So(got.PhotoURL, ShouldEqual, "/blobs/avatars/u1.png")
				So(got.Name, ShouldEqual, "Ada L.")
			})

			Convey("toggle bookmarks on and off", func() {
				on, err := s.ToggleBookmark(ctx, "u1", "s1")
				So(err, ShouldBeNil)
				So(on, ShouldBeTrue)
				on, _ = s.ToggleBookmark(ctx, "u1", "s2")
				So(on, ShouldBeTrue)
				on, _ = s.ToggleBookmark(ctx, "u1", "s1")
				So(on, ShouldBeFalse)

				got, _ := s.GetUser(ctx, "u1")
				So(got.Bookmarks, ShouldResemble, []string{"s2"})
			})

			Convey("report missing users", func() {
				_, err := s.GetUser(ctx, "nope")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				_, err = s.UpdateUserName(ctx, "nope", "x")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				_, err = s.ToggleBookmark(ctx, "nope", "s1")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("Events", func() {
			for i, day := range []int{3, 1, 2, 1} {
				e := model.Event{
					ID:       fmt.Sprintf("e%d", i),
					Title:    fmt.Sprintf("Event %d", i),
					Date:     base.AddDate(0, 0, day),
					Type:     "online",
					Location: "https://meet.example",
					Category: "work",
				}
				So(s.CreateEvent(ctx, e), ShouldBeNil)
			}

			Convey("are listed by date ascending with id as tie-breaker", func() {
				list, err := s.ListEvents(ctx)
				So(err, ShouldBeNil)
				ids := make([]string, len(list))
				for i, e := range list {
					ids[i] = e.ID
				}
				So(ids, ShouldResemble, []string{"e1", "e3", "e2", "e0"})
			})

			Convey("can be fetched, rejected on duplicate and deleted", func() {
				e, err := s.GetEvent(ctx, "e2")
				So(err, ShouldBeNil)
				So(e.Date.Equal(base.AddDate(0, 0, 2)), ShouldBeTrue)
				So(e.Attendees, ShouldResemble, []string{})

				So(errors.Is(s.CreateEvent(ctx, e), repository.ErrConflict), ShouldBeTrue)

				So(s.DeleteEvent(ctx, "e2"), ShouldBeNil)
				_, err = s.GetEvent(ctx, "e2")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(errors.Is(s.DeleteEvent(ctx, "e2"), repository.ErrNotFound), ShouldBeTrue)

				list, _ := s.ListEvents(ctx)
				So(len(list), ShouldEqual, 3)
			})
		})

		Convey("Stories", func() {
			for i := 0; i < 3; i++ {
				st := model.Story{
					ID:        fmt.Sprintf("s%d", i),
					Title:     "Story",
					Content:   "Body",
					AuthorID:  "u1",
					CreatedAt: base.Add(time.Duration(i) * time.Hour),
				}
				So(s.CreateStory(ctx, st), ShouldBeNil)
			}

			Convey("are listed newest first", func() {
				list, err := s.ListStories(ctx)
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 3)
				So(list[0].ID, ShouldEqual, "s2")
				So(list[2].ID, ShouldEqual, "s0")
				So(list[0].Comments, ShouldResemble, []model.Comment{})
			})

			Convey("toggle likes per user", func() {
				st, err := s.ToggleLike(ctx, "s1", "u1")
				So(err, ShouldBeNil)
				So(st.Likes, ShouldResemble, []string{"u1"})
				st, _ = s.ToggleLike(ctx, "s1", "u2")
				So(st.Likes, ShouldResemble, []string{"u1", "u2"})
				st, _ = s.ToggleLike(ctx, "s1", "u1")
				So(st.Likes, ShouldResemble, []string{"u2"})

				list, _ := s.ListStories(ctx)
				So(list[1].Likes, ShouldResemble, []string{"u2"})
			})

			Convey("append comments in order", func() {
				c1 := model.Comment{Text: "first", UserID: "u1", UserName: "Ada", CreatedAt: base}
				c2 := model.Comment{Text: "second", UserID: "u2", UserName: "Grace", CreatedAt: base.Add(time.Minute)}
				_, err := s.AddComment(ctx, "s0", c1)
				So(err, ShouldBeNil)
				st, err := s.AddComment(ctx, "s0", c2)
				So(err, ShouldBeNil)
				So(len(st.Comments), ShouldEqual, 2)
				So(st.Comments[1].Text, ShouldEqual, "second")

				got, _ := s.GetStory(ctx, "s0")
				So(got.Comments[0].UserName, ShouldEqual, "Ada")
			})

			Convey("report missing stories", func() {
				_, err := s.ToggleLike(ctx, "nope", "u1")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				_, err = s.AddComment(ctx, "nope", model.Comment{Text: "x"})
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("can be deleted", func() {
				So(s.DeleteStory(ctx, "s0"), ShouldBeNil)
				c, err := s.Counts(ctx)
				So(err, ShouldBeNil)
				So(c.Stories, ShouldEqual, 2)
			})
		})

		Convey("Concurrent likes are never lost", func() {
			So(s.CreateStory(ctx, model.Story{ID: "hot", Title: "t", Content: "c", CreatedAt: base}), ShouldBeNil)

			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, _ = s.ToggleLike(ctx, "hot", fmt.Sprintf("u%02d", i))
				}(i)
			}
			wg.Wait()

			st, err := s.GetStory(ctx, "hot")
			So(err, ShouldBeNil)
			So(len(st.Likes), ShouldEqual, 20)
		})

		Convey("Returned documents are copies", func() {
			So(s.CreateUser(ctx, model.User{ID: "u9", Email: "u9@x.y", Bookmarks: []string{"a"}}), ShouldBeNil)
			u, _ := s.GetUser(ctx, "u9")
			u.Bookmarks[0] = "mutated"

			again, _ := s.GetUser(ctx, "u9")
			So(again.Bookmarks, ShouldResemble, []string{"a"})
		})
	})
}

func TestOpen(t *testing.T) {
	Convey("Given the driver factory", t, func() {
		ctx := context.Background()

		Convey("It builds memory and sqlite stores", func() {
			m, err := repository.Open(ctx, "memory", "")
			So(err, ShouldBeNil)
			So(m.Close(), ShouldBeNil)

			q, err := repository.Open(ctx, "SQLITE", filepath.Join(t.TempDir(), "x.db"))
			So(err, ShouldBeNil)
			So(q.Close(), ShouldBeNil)
		})

		Convey("It rejects unknown drivers", func() {
			_, err := repository.Open(ctx, "postgres", "")
			So(errors.Is(err, repository.ErrUnknownDriver), ShouldBeTrue)
		})
	})
}

func TestMemorySnapshot(t *testing.T) {
	Convey("Given a memory store", t, func() {
		s := repository.NewMemoryStore(context.Background(), repository.WithMetricsUpdateInterval(10*time.Millisecond))
		defer s.Close()

		old := s.Snapshot()
		So(s.CreateEvent(context.Background(), model.Event{ID: "e", Date: base}), ShouldBeNil)

		Convey("Writes publish a new snapshot and leave the old one untouched", func() {
			So(len(old.Events), ShouldEqual, 0)
			So(len(s.Snapshot().Events), ShouldEqual, 1)
		})

		Convey("When a story is liked", func() {
			ctx := context.Background()
			for i, id := range []string{"s1", "s2"} {
				st := model.Story{ID: id, Title: id, Content: "c", Likes: []string{}, Comments: []model.Comment{}, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
				So(s.CreateStory(ctx, st), ShouldBeNil)
			}
			before := s.Snapshot()
			_, err := s.ToggleLike(ctx, "s1", "u1")
			So(err, ShouldBeNil)
			after := s.Snapshot()

			Convey("Then only the story view is republished, in the same order", func() {
				So(&after.Events[0] == &before.Events[0], ShouldBeTrue)
				So(after.Stories[0].ID, ShouldEqual, "s2")
				So(after.Stories[1].ID, ShouldEqual, "s1")
				So(after.Stories[1].Likes, ShouldResemble, []string{"u1"})
				So(before.Stories[1].Likes, ShouldBeEmpty)
			})
		})
	})
}
