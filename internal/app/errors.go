package service

import "errors"

var (
	// ErrForbidden is returned when a user changes content they do not own.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidKind is returned for an unknown search kind.
	ErrInvalidKind = errors.New("invalid search kind")
	// ErrInProgress is returned when a create is retried with the same
	// idempotency key before the first attempt has finished.
	ErrInProgress = errors.New("request with this idempotency key is still in progress")
)
