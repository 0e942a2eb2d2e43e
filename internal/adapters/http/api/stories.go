package api

import (
	"context"
	"net/http"

	service "github.com/womenconnect/platform/internal/app"
	"github.com/womenconnect/platform/internal/domain/model"
)

// IdempotencyKeyHeader lets clients retry create requests safely.
const IdempotencyKeyHeader = "Idempotency-Key"

// StoryDependencies defines the story feed operations.
type StoryDependencies interface {
	ListStories(ctx context.Context) ([]model.Story, error)
	CreateStory(ctx context.Context, author model.User, in service.StoryInput, idemKey string) (model.Story, bool, error)
	DeleteStory(ctx context.Context, user model.User, id string) error
	ToggleLike(ctx context.Context, userID, storyID string) (model.Story, error)
	AddComment(ctx context.Context, user model.User, storyID, text string) (model.Story, error)
	ToggleBookmark(ctx context.Context, userID, storyID string) (bool, error)
	Bookmarks(ctx context.Context, userID string) ([]model.Story, error)
}

// StoryHandler handles story requests.
type StoryHandler struct {
	deps StoryDependencies
}

// NewStoryHandler creates a new story handler.
func NewStoryHandler(deps StoryDependencies) *StoryHandler {
	return &StoryHandler{deps: deps}
}

// storyView is a story as shown in the feed to one viewer.
type storyView struct {
	model.Story
	ReadMinutes int  `json:"read_minutes"`
	LikeCount   int  `json:"like_count"`
	Liked       bool `json:"liked"`
	Bookmarked  bool `json:"bookmarked"`
}

func newStoryView(st model.Story, viewer model.User) storyView {
	v := storyView{
		Story:       st,
		ReadMinutes: st.ReadMinutes(),
		LikeCount:   len(st.Likes),
	}
	if viewer.ID != "" {
		v.Liked = st.LikedBy(viewer.ID)
		v.Bookmarked = viewer.HasBookmark(st.ID)
	}
	return v
}

func storyViews(stories []model.Story, viewer model.User) []storyView {
	out := make([]storyView, len(stories))
	for i, st := range stories {
		out[i] = newStoryView(st, viewer)
	}
	return out
}

type commentRequest struct {
	Text string `json:"text"`
}

type bookmarkResponse struct {
	StoryID    string `json:"story_id"`
	Bookmarked bool   `json:"bookmarked"`
}

// HandleList handles GET /stories requests.
func (h *StoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	stories, err := h.deps.ListStories(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	viewer, _ := currentUser(r)
	writeJSON(w, http.StatusOK, storyViews(stories, viewer))
}

// HandleCreate handles POST /stories requests.
func (h *StoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, _ := currentUser(r)
	var req service.StoryInput
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	st, replayed, err := h.deps.CreateStory(r.Context(), u, req, r.Header.Get(IdempotencyKeyHeader))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, replayed, newStoryView(st, u))
}

// HandleDelete handles DELETE /stories/{id} requests.
func (h *StoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	u, _ := currentUser(r)
	if err := h.deps.DeleteStory(r.Context(), u, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleLike handles POST /stories/{id}/like requests.
func (h *StoryHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	u, _ := currentUser(r)
	st, err := h.deps.ToggleLike(r.Context(), u.ID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStoryView(st, u))
}

// HandleComment handles POST /stories/{id}/comments requests.
func (h *StoryHandler) HandleComment(w http.ResponseWriter, r *http.Request) {
	u, _ := currentUser(r)
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	st, err := h.deps.AddComment(r.Context(), u, r.PathValue("id"), req.Text)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newStoryView(st, u))
}

// HandleBookmark handles POST /stories/{id}/bookmark requests.
func (h *StoryHandler) HandleBookmark(w http.ResponseWriter, r *http.Request) {
	u, _ := currentUser(r)
	id := r.PathValue("id")
	on, err := h.deps.ToggleBookmark(r.Context(), u.ID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookmarkResponse{StoryID: id, Bookmarked: on})
}

// HandleBookmarks handles GET /bookmarks requests.
func (h *StoryHandler) HandleBookmarks(w http.ResponseWriter, r *http.Request) {
	u, _ := currentUser(r)
	stories, err := h.deps.Bookmarks(r.Context(), u.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, storyViews(stories, u))
}

// writeCreated answers a create: 201 for a new resource, 200 with the
// Idempotent-Replayed header when an earlier request created it.
func writeCreated(w http.ResponseWriter, replayed bool, v any) {
	if replayed {
		w.Header().Set("Idempotent-Replayed", "true")
		writeJSON(w, http.StatusOK, v)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}
