package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/womenconnect/platform/internal/adapters/auth"
	"github.com/womenconnect/platform/internal/domain/avatar"
	"github.com/womenconnect/platform/internal/domain/model"
)

// multipartOverhead is allowed on top of the avatar limit for form framing.
const multipartOverhead = 64 << 10

// AccountDependencies defines the account and profile operations.
type AccountDependencies interface {
	Authenticator
	Register(ctx context.Context, name, email, password string) (auth.Session, model.Profile, error)
	Login(ctx context.Context, email, password string) (auth.Session, error)
	Logout(ctx context.Context, token string) error
	Profile(ctx context.Context, userID string) (model.Profile, error)
	UpdateName(ctx context.Context, userID, name string) (model.Profile, error)
	UploadAvatar(ctx context.Context, userID string, r io.Reader) (model.Profile, error)
}

// AccountHandler handles sign-up, sign-in and profile requests.
type AccountHandler struct {
	deps      AccountDependencies
	maxUpload int64
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(deps AccountDependencies, maxUpload int64) *AccountHandler {
	if maxUpload <= 0 {
		maxUpload = avatar.DefaultMaxBytes
	}
	return &AccountHandler{deps: deps, maxUpload: maxUpload}
}

type credentialsRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      *model.Profile `json:"user,omitempty"`
}

type profileRequest struct {
	Name *string `json:"name"`
}

// HandleRegister handles POST /auth/register requests.
func (h *AccountHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	sess, profile, err := h.deps.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Token: sess.Token, ExpiresAt: sess.ExpiresAt, User: &profile})
}

// HandleLogin handles POST /auth/login requests.
func (h *AccountHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	sess, err := h.deps.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	profile, err := h.deps.Profile(r.Context(), sess.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: sess.Token, ExpiresAt: sess.ExpiresAt, User: &profile})
}

// HandleLogout handles POST /auth/logout requests.
func (h *AccountHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Logout(r.Context(), bearerToken(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetProfile handles GET /profile requests.
func (h *AccountHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	u, _ := currentUser(r)
	writeJSON(w, http.StatusOK, u.Profile())
}

// HandleUpdateProfile handles PATCH /profile requests.
func (h *AccountHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	u, _ := currentUser(r)
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if req.Name == nil {
		writeJSON(w, http.StatusOK, u.Profile())
		return
	}
	profile, err := h.deps.UpdateName(r.Context(), u.ID, *req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleUploadAvatar handles POST /profile/avatar with a multipart "file".
func (h *AccountHandler) HandleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	u, _ := currentUser(r)
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)

	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeServiceError(w, r, avatar.ErrTooLarge)
			return
		}
		writeServiceError(w, r, fmt.Errorf("%w: multipart field \"file\": %v", ErrBadRequest, err))
		return
	}
	defer file.Close()

	profile, err := h.deps.UploadAvatar(r.Context(), u.ID, file)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
