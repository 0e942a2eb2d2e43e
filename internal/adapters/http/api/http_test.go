package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/crypto/bcrypt"

	"github.com/womenconnect/platform/internal/adapters/auth"
	"github.com/womenconnect/platform/internal/adapters/blob"
	"github.com/womenconnect/platform/internal/adapters/http/api"
	"github.com/womenconnect/platform/internal/adapters/repository"
	service "github.com/womenconnect/platform/internal/app"
	"github.com/womenconnect/platform/internal/domain/model"
	"github.com/womenconnect/platform/pkg/logger"
)

func init() {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
}

var now = time.Date(2030, 1, 15, 12, 0, 0, 0, time.UTC)

type client struct {
	mux   *http.ServeMux
	token string
}

func (c *client) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		So(err, ShouldBeNil)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	c.mux.ServeHTTP(w, req)
	return w
}

func decode[T any](w *httptest.ResponseRecorder) T {
	var v T
	So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
	return v
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type sessionBody struct {
	Token string        `json:"token"`
	User  model.Profile `json:"user"`
}

type storyBody struct {
	model.Story
	ReadMinutes int  `json:"read_minutes"`
	LikeCount   int  `json:"like_count"`
	Liked       bool `json:"liked"`
	Bookmarked  bool `json:"bookmarked"`
}

func newMux(t *testing.T) *http.ServeMux {
	ctx := context.Background()
	store := repository.NewMemoryStore(ctx)
	blobs, err := blob.NewFSStore(t.TempDir())
	So(err, ShouldBeNil)
	svc := service.New(store, blobs,
		service.WithWorkerCount(1),
		service.WithClock(func() time.Time { return now }),
		service.WithAuthOptions(auth.WithBcryptCost(bcrypt.MinCost)),
		service.WithLogger(logger.Nop()),
	)
	So(svc.Start(ctx), ShouldBeNil)
	Reset(func() {
		_ = svc.Stop(context.Background())
		_ = blobs.Close()
		_ = store.Close()
	})

	mux := http.NewServeMux()
	api.NewServer(svc, 1<<20).Register(ctx, mux)
	return mux
}

func signUp(mux *http.ServeMux, name, email string) *client {
	anon := &client{mux: mux}
	w := anon.do("POST", "/auth/register", map[string]string{"name": name, "email": email, "password": "secret123"})
	So(w.Code, ShouldEqual, http.StatusCreated)
	return &client{mux: mux, token: decode[sessionBody](w).Token}
}

func TestServer_Accounts(t *testing.T) {
	Convey("Given the API", t, func() {
		mux := newMux(t)
		anon := &client{mux: mux}

		Convey("Then health and stats are served", func() {
			So(anon.do("GET", "/healthz", nil).Code, ShouldEqual, http.StatusOK)
			w := anon.do("GET", "/stats", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode[service.Stats](w).Started, ShouldBeTrue)

			m := anon.do("GET", "/metrics", nil)
			So(m.Code, ShouldEqual, http.StatusOK)
			So(m.Body.String(), ShouldContainSubstring, "womenconnect_platform_")
		})

		Convey("When a member registers", func() {
			w := anon.do("POST", "/auth/register", map[string]string{"name": "Ada", "email": "ada@example.com", "password": "secret123"})
			So(w.Code, ShouldEqual, http.StatusCreated)
			body := decode[sessionBody](w)
			So(body.Token, ShouldNotBeEmpty)
			So(body.User.Name, ShouldEqual, "Ada")
			me := &client{mux: mux, token: body.Token}

			Convey("Then the profile is readable and editable", func() {
				p := me.do("GET", "/profile", nil)
				So(p.Code, ShouldEqual, http.StatusOK)
				So(decode[model.Profile](p).Email, ShouldEqual, "ada@example.com")

				u := me.do("PATCH", "/profile", map[string]string{"name": "Ada L."})
				So(u.Code, ShouldEqual, http.StatusOK)
				So(decode[model.Profile](u).Name, ShouldEqual, "Ada L.")
			})

			Convey("Then the same email is refused", func() {
				w := anon.do("POST", "/auth/register", map[string]string{"email": "ada@example.com", "password": "secret123"})
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(decode[errorBody](w).Code, ShouldEqual, "email_in_use")
			})

			Convey("Then login with a wrong password fails", func() {
				w := anon.do("POST", "/auth/login", map[string]string{"email": "ada@example.com", "password": "nope-nope"})
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
				So(decode[errorBody](w).Code, ShouldEqual, "wrong_password")
			})

			Convey("Then logout revokes the token", func() {
				So(me.do("POST", "/auth/logout", nil).Code, ShouldEqual, http.StatusNoContent)
				So(me.do("GET", "/profile", nil).Code, ShouldEqual, http.StatusUnauthorized)
			})

			Convey("Then an avatar upload is stored and served", func() {
				var img bytes.Buffer
				So(png.Encode(&img, image.NewGray(image.Rect(0, 0, 40, 20))), ShouldBeNil)
				var form bytes.Buffer
				mw := multipart.NewWriter(&form)
				part, err := mw.CreateFormFile("file", "me.png")
				So(err, ShouldBeNil)
				_, _ = part.Write(img.Bytes())
				So(mw.Close(), ShouldBeNil)

				req := httptest.NewRequest("POST", "/profile/avatar", &form)
				req.Header.Set("Content-Type", mw.FormDataContentType())
				req.Header.Set("Authorization", "Bearer "+body.Token)
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, req)
				So(rec.Code, ShouldEqual, http.StatusOK)

				photo := decode[model.Profile](rec).PhotoURL
				So(photo, ShouldStartWith, "/blobs/avatars/")
				got := anon.do("GET", photo[:strings.Index(photo, "?")], nil)
				So(got.Code, ShouldEqual, http.StatusOK)
				So(got.Header().Get("Content-Type"), ShouldEqual, "image/png")
			})
		})

		Convey("When input is invalid", func() {
			w := anon.do("POST", "/auth/register", map[string]string{"email": "not-an-email", "password": "secret123"})
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode[errorBody](w).Code, ShouldEqual, "invalid_email")

			w = anon.do("POST", "/auth/register", map[string]string{"email": "x@y.co", "password": "123"})
			So(decode[errorBody](w).Code, ShouldEqual, "weak_password")

			w = anon.do("POST", "/auth/register", map[string]string{"email": "long@y.co", "password": strings.Repeat("x", 80)})
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode[errorBody](w).Code, ShouldEqual, "password_too_long")

			w = anon.do("POST", "/auth/login", map[string]any{"email": "x@y.co", "extra": 1})
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode[errorBody](w).Code, ShouldEqual, "bad_request")
		})

		Convey("When a protected route is called without a token", func() {
			w := anon.do("POST", "/stories", map[string]string{"title": "x", "content": "y"})
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
			So(decode[errorBody](w).Code, ShouldEqual, "unauthorized")
		})

		Convey("When a blob does not exist", func() {
			So(anon.do("GET", "/blobs/avatars/missing.png", nil).Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestServer_Stories(t *testing.T) {
	Convey("Given two members", t, func() {
		mux := newMux(t)
		ada := signUp(mux, "Ada", "ada@example.com")
		bea := signUp(mux, "Bea", "bea@example.com")

		Convey("When Ada publishes a story", func() {
			w := ada.do("POST", "/stories", map[string]string{"title": "Back to work", "content": "Found a remote role"}, "Idempotency-Key", "abc")
			So(w.Code, ShouldEqual, http.StatusCreated)
			st := decode[storyBody](w)
			So(st.ReadMinutes, ShouldEqual, 1)

			Convey("Then a retry is answered from the first create", func() {
				again := ada.do("POST", "/stories", map[string]string{"title": "Back to work", "content": "Found a remote role"}, "Idempotency-Key", "abc")
				So(again.Code, ShouldEqual, http.StatusOK)
				So(again.Header().Get("Idempotent-Replayed"), ShouldEqual, "true")
				So(decode[storyBody](again).ID, ShouldEqual, st.ID)
			})

			Convey("Then Bea can like, comment and bookmark it", func() {
				like := bea.do("POST", "/stories/"+st.ID+"/like", nil)
				So(like.Code, ShouldEqual, http.StatusOK)
				So(decode[storyBody](like).Liked, ShouldBeTrue)

				c := bea.do("POST", "/stories/"+st.ID+"/comments", map[string]string{"text": "Congrats!"})
				So(c.Code, ShouldEqual, http.StatusCreated)
				So(decode[storyBody](c).Comments, ShouldHaveLength, 1)

				b := bea.do("POST", "/stories/"+st.ID+"/bookmark", nil)
				So(b.Code, ShouldEqual, http.StatusOK)

				list := bea.do("GET", "/bookmarks", nil)
				So(list.Code, ShouldEqual, http.StatusOK)
				marks := decode[[]storyBody](list)
				So(marks, ShouldHaveLength, 1)
				So(marks[0].Bookmarked, ShouldBeTrue)

				feed := decode[[]storyBody](bea.do("GET", "/stories", nil))
				So(feed, ShouldHaveLength, 1)
				So(feed[0].LikeCount, ShouldEqual, 1)
				So(feed[0].Liked, ShouldBeTrue)

				anonFeed := decode[[]storyBody]((&client{mux: mux}).do("GET", "/stories", nil))
				So(anonFeed[0].Liked, ShouldBeFalse)
			})

			Convey("Then only Ada can delete it", func() {
				So(bea.do("DELETE", "/stories/"+st.ID, nil).Code, ShouldEqual, http.StatusForbidden)
				So(ada.do("DELETE", "/stories/"+st.ID, nil).Code, ShouldEqual, http.StatusNoContent)
				So(bea.do("POST", "/stories/"+st.ID+"/like", nil).Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When a story has no content", func() {
			w := ada.do("POST", "/stories", map[string]string{"title": "Empty"})
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode[errorBody](w).Code, ShouldEqual, "validation_failed")
		})
	})
}

func TestServer_EventsAndSearch(t *testing.T) {
	Convey("Given a member with events", t, func() {
		mux := newMux(t)
		ada := signUp(mux, "Ada", "ada@example.com")

		post := func(body map[string]string) model.Event {
			w := ada.do("POST", "/events", body)
			So(w.Code, ShouldEqual, http.StatusCreated)
			return decode[model.Event](w)
		}
		meetup := post(map[string]string{"title": "Women in Tech Meetup", "date": "2030-02-01T18:30", "type": "venue", "location": "Community Hall", "category": "education"})
		post(map[string]string{"title": "Remote Job Webinar", "date": "2030-01-20T10:00", "location": "https://meet.example"})
		post(map[string]string{"title": "Old Workshop", "date": "2029-01-01T10:00", "location": "Library"})

		anon := &client{mux: mux}

		Convey("Then upcoming events are listed soonest first", func() {
			events := decode[[]model.Event](anon.do("GET", "/events", nil))
			So(events, ShouldHaveLength, 2)
			So(events[0].Title, ShouldEqual, "Remote Job Webinar")
		})

		Convey("Then the list can be filtered", func() {
			events := decode[[]model.Event](anon.do("GET", "/events?q=TECH+hall", nil))
			So(events, ShouldHaveLength, 1)
			So(events[0].ID, ShouldEqual, meetup.ID)
		})

		Convey("Then an event and its keywords can be fetched", func() {
			So(anon.do("GET", "/events/"+meetup.ID, nil).Code, ShouldEqual, http.StatusOK)
			So(anon.do("GET", "/events/missing", nil).Code, ShouldEqual, http.StatusNotFound)

			kw := decode[struct {
				Keywords []string `json:"keywords"`
			}](anon.do("GET", "/events/"+meetup.ID+"/keywords", nil))
			So(kw.Keywords, ShouldContain, "hall")
			So(kw.Keywords, ShouldContain, "education")
		})

		Convey("Then global search covers past events", func() {
			res := decode[service.SearchResult](anon.do("GET", "/search?q=workshop", nil))
			So(res.Events, ShouldHaveLength, 1)

			bad := anon.do("GET", "/search?q=x&kind=people", nil)
			So(bad.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Then keyword lookup finds indexed events", func() {
			var res struct {
				Keyword string        `json:"keyword"`
				Events  []model.Event `json:"events"`
			}
			deadline := time.Now().Add(5 * time.Second)
			for {
				res.Events = nil
				w := anon.do("GET", "/keywords/Hall", nil)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
				if len(res.Events) > 0 || time.Now().After(deadline) {
					break
				}
				time.Sleep(10 * time.Millisecond)
			}
			So(res.Keyword, ShouldEqual, "Hall")
			So(res.Events, ShouldHaveLength, 1)
			So(res.Events[0].ID, ShouldEqual, meetup.ID)
		})

		Convey("Then a bad event is rejected", func() {
			w := ada.do("POST", "/events", map[string]string{"title": "No date", "location": "x"})
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

type failingStats struct{ api.Dependencies }

func (failingStats) GetStats(context.Context) (service.Stats, error) {
	return service.Stats{}, errors.New("disk on fire")
}

func TestServer_InternalErrors(t *testing.T) {
	Convey("Given a stats provider that fails", t, func() {
		mux := http.NewServeMux()
		api.NewServer(failingStats{}, 0).Register(context.Background(), mux)

		Convey("Then the details are hidden from the client", func() {
			w := (&client{mux: mux}).do("GET", "/stats", nil)
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			body := decode[errorBody](w)
			So(body.Code, ShouldEqual, "internal_error")
			So(body.Message, ShouldNotContainSubstring, "disk")
		})
	})
}
