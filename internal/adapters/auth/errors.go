package auth

import "errors"

// Sentinel kinds for auth errors. Each carries the code clients switch on.
var (
	ErrEmailInUse      = errors.New("email already in use")
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrWeakPassword    = errors.New("password too short")
	ErrPasswordTooLong = errors.New("password too long")
	ErrUserNotFound    = errors.New("no user found with this email")
	ErrWrongPassword   = errors.New("invalid password")
	ErrInvalidSession  = errors.New("invalid or expired session")
)

// Code returns the stable client-facing code for an auth error, or "" when
// err is not one of this package's sentinels.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrEmailInUse):
		return "email_in_use"
	case errors.Is(err, ErrInvalidEmail):
		return "invalid_email"
	case errors.Is(err, ErrWeakPassword):
		return "weak_password"
	case errors.Is(err, ErrPasswordTooLong):
		return "password_too_long"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrWrongPassword):
		return "wrong_password"
	case errors.Is(err, ErrInvalidSession):
		return "unauthorized"
	}
	return ""
}
