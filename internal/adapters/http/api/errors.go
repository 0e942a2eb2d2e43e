package api

import (
	"errors"
	"net/http"

	"github.com/womenconnect/platform/internal/adapters/auth"
	"github.com/womenconnect/platform/internal/adapters/blob"
	"github.com/womenconnect/platform/internal/adapters/repository"
	service "github.com/womenconnect/platform/internal/app"
	"github.com/womenconnect/platform/internal/domain/avatar"
	"github.com/womenconnect/platform/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("missing or invalid bearer token")
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusFor maps an error from the service layer to a status and code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrUnauthorized), errors.Is(err, auth.ErrInvalidSession):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, auth.ErrEmailInUse):
		return http.StatusConflict, auth.Code(err)
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrPasswordTooLong):
		return http.StatusBadRequest, auth.Code(err)
	case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrWrongPassword):
		return http.StatusUnauthorized, auth.Code(err)
	case errors.Is(err, model.ErrValidation), errors.Is(err, service.ErrInvalidKind):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, blob.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrInProgress):
		return http.StatusConflict, "in_progress"
	case errors.Is(err, blob.ErrInvalidKey):
		return http.StatusBadRequest, "invalid_key"
	case errors.Is(err, avatar.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, avatar.ErrNotImage):
		return http.StatusUnsupportedMediaType, "not_an_image"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
