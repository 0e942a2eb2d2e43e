// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/womenconnect/platform/internal/adapters/auth"
	"github.com/womenconnect/platform/internal/domain/model"
	"github.com/womenconnect/platform/pkg/logger"
	"github.com/womenconnect/platform/pkg/metrics"
)

// maxJSONBody caps request bodies other than uploads.
const maxJSONBody = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	AccountDependencies
	StoryDependencies
	EventDependencies
	SearchDependencies
	BlobDependencies
	StatsProvider
}

// Authenticator resolves bearer tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.User, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	auth           Authenticator
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	accountHandler *AccountHandler
	storyHandler   *StoryHandler
	eventHandler   *EventHandler
	searchHandler  *SearchHandler
	blobHandler    *BlobHandler
}

// NewServer creates a new API server with all handlers. maxUpload caps
// avatar request bodies.
func NewServer(deps Dependencies, maxUpload int64) *Server {
	return &Server{
		auth:           deps,
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(deps),
		accountHandler: NewAccountHandler(deps, maxUpload),
		storyHandler:   NewStoryHandler(deps),
		eventHandler:   NewEventHandler(deps),
		searchHandler:  NewSearchHandler(deps),
		blobHandler:    NewBlobHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(h, endpoint))
	}
	authed := func(h http.HandlerFunc) http.HandlerFunc { return RequireUser(s.auth, h) }
	viewer := func(h http.HandlerFunc) http.HandlerFunc { return OptionalUser(s.auth, h) }

	route("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	route("GET /stats", "stats", s.statsHandler.HandleStats)

	route("POST /auth/register", "auth_register", s.accountHandler.HandleRegister)
	route("POST /auth/login", "auth_login", s.accountHandler.HandleLogin)
	route("POST /auth/logout", "auth_logout", authed(s.accountHandler.HandleLogout))
	route("GET /profile", "profile", authed(s.accountHandler.HandleGetProfile))
	route("PATCH /profile", "profile", authed(s.accountHandler.HandleUpdateProfile))
	route("POST /profile/avatar", "profile_avatar", authed(s.accountHandler.HandleUploadAvatar))
	route("GET /blobs/{key...}", "blobs", s.blobHandler.HandleGetBlob)

	route("GET /stories", "stories", viewer(s.storyHandler.HandleList))
	route("POST /stories", "stories", authed(s.storyHandler.HandleCreate))
	route("DELETE /stories/{id}", "story", authed(s.storyHandler.HandleDelete))
	route("POST /stories/{id}/like", "story_like", authed(s.storyHandler.HandleLike))
	route("POST /stories/{id}/comments", "story_comments", authed(s.storyHandler.HandleComment))
	route("POST /stories/{id}/bookmark", "story_bookmark", authed(s.storyHandler.HandleBookmark))
	route("GET /bookmarks", "bookmarks", authed(s.storyHandler.HandleBookmarks))

	route("GET /events", "events", s.eventHandler.HandleList)
	route("POST /events", "events", authed(s.eventHandler.HandleCreate))
	route("GET /events/{id}", "event", s.eventHandler.HandleGet)
	route("DELETE /events/{id}", "event", authed(s.eventHandler.HandleDelete))
	route("GET /events/{id}/keywords", "event_keywords", s.eventHandler.HandleKeywords)

	route("GET /keywords/{keyword}", "keywords", s.searchHandler.HandleKeyword)
	route("GET /search", "search", s.searchHandler.HandleSearch)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps err with statusFor. Internal errors are logged and
// their details hidden from the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Get().Named("api").Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
		writeError(w, status, code, nil)
		return
	}
	writeError(w, status, code, err)
}

// decodeJSON reads a JSON body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

// bearerToken extracts the token of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// currentUser returns the user set by RequireUser or OptionalUser.
func currentUser(r *http.Request) (model.User, bool) {
	return auth.UserFrom(r.Context())
}

