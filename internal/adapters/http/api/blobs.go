package api

import (
	"context"
	"net/http"
	"strconv"
)

// BlobDependencies defines read access to stored files.
type BlobDependencies interface {
	Blob(ctx context.Context, key string) ([]byte, string, error)
}

// BlobHandler serves uploaded files.
type BlobHandler struct {
	deps BlobDependencies
}

// NewBlobHandler creates a new blob handler.
func NewBlobHandler(deps BlobDependencies) *BlobHandler {
	return &BlobHandler{deps: deps}
}

// HandleGetBlob handles GET /blobs/{key...} requests.
func (h *BlobHandler) HandleGetBlob(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := h.deps.Blob(r.Context(), r.PathValue("key"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
