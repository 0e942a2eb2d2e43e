package api

import (
	"context"
	"net/http"

	service "github.com/womenconnect/platform/internal/app"
)

// SearchDependencies defines the search operations.
type SearchDependencies interface {
	Search(ctx context.Context, query, kind string) (service.SearchResult, error)
	LookupKeyword(ctx context.Context, keyword string) (service.SearchResult, error)
}

// SearchHandler handles search requests.
type SearchHandler struct {
	deps SearchDependencies
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(deps SearchDependencies) *SearchHandler {
	return &SearchHandler{deps: deps}
}

type keywordLookupResponse struct {
	Keyword string `json:"keyword"`
	service.SearchResult
}

// HandleSearch handles GET /search?q=&kind= requests.
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.deps.Search(r.Context(), q.Get("q"), q.Get("kind"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleKeyword handles GET /keywords/{keyword} requests.
func (h *SearchHandler) HandleKeyword(w http.ResponseWriter, r *http.Request) {
	kw := r.PathValue("keyword")
	res, err := h.deps.LookupKeyword(r.Context(), kw)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, keywordLookupResponse{Keyword: kw, SearchResult: res})
}
