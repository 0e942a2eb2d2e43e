package api

import (
	"context"
	"net/http"

	service "github.com/womenconnect/platform/internal/app"
	"github.com/womenconnect/platform/internal/domain/model"
)

// EventDependencies defines the calendar operations.
type EventDependencies interface {
	UpcomingEvents(ctx context.Context, query string) ([]model.Event, error)
	CreateEvent(ctx context.Context, creator model.User, in service.EventInput, idemKey string) (model.Event, bool, error)
	GetEvent(ctx context.Context, id string) (model.Event, error)
	DeleteEvent(ctx context.Context, user model.User, id string) error
	EventKeywords(ctx context.Context, id string) ([]string, error)
}

// EventHandler handles event requests.
type EventHandler struct {
	deps EventDependencies
}

// NewEventHandler creates a new event handler.
func NewEventHandler(deps EventDependencies) *EventHandler {
	return &EventHandler{deps: deps}
}

type keywordsResponse struct {
	ID       string   `json:"id"`
	Keywords []string `json:"keywords"`
}

// HandleList handles GET /events?q= requests: upcoming events, soonest
// first, filtered by q.
func (h *EventHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	events, err := h.deps.UpcomingEvents(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleCreate handles POST /events requests.
func (h *EventHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, _ := currentUser(r)
	var req service.EventInput
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	e, replayed, err := h.deps.CreateEvent(r.Context(), u, req, r.Header.Get(IdempotencyKeyHeader))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, replayed, e)
}

// HandleGet handles GET /events/{id} requests.
func (h *EventHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	e, err := h.deps.GetEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// HandleDelete handles DELETE /events/{id} requests.
func (h *EventHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	u, _ := currentUser(r)
	if err := h.deps.DeleteEvent(r.Context(), u, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleKeywords handles GET /events/{id}/keywords requests.
func (h *EventHandler) HandleKeywords(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	kw, err := h.deps.EventKeywords(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, keywordsResponse{ID: id, Keywords: kw})
}
