// Package auth implements email and password accounts with bearer sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/womenconnect/platform/internal/adapters/repository"
	"github.com/womenconnect/platform/internal/domain/model"
	"github.com/womenconnect/platform/pkg/metrics"
)

const (
	defaultMinPasswordLength = 6
	defaultSessionTTL        = 7 * 24 * time.Hour

	// maxPasswordBytes is the longest input bcrypt accepts.
	maxPasswordBytes = 72
)

// Users is the slice of the store auth needs.
type Users interface {
	CreateUser(ctx context.Context, u model.User) error
	GetUser(ctx context.Context, id string) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
}

// Session is an issued bearer token.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service signs users up and in and resolves session tokens.
type Service struct {
	users             Users
	minPasswordLength int
	ttl               time.Duration
	cost              int
	now               func() time.Time

	mu       sync.Mutex
	sessions map[string]Session
}

// New returns a Service storing accounts in users.
func New(users Users, opts ...Option) *Service {
	s := &Service{
		users:             users,
		minPasswordLength: defaultMinPasswordLength,
		ttl:               defaultSessionTTL,
		cost:              bcrypt.DefaultCost,
		now:               time.Now,
		sessions:          make(map[string]Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignUp creates an account. The name may be empty; it is shown as
// "Anonymous" until set.
func (s *Service) SignUp(ctx context.Context, name, email, password string) (model.User, error) {
	addr, err := parseEmail(email)
	if err != nil {
		metrics.RecordAuthFailure("invalid_email")
		return model.User{}, err
	}
	if utf8.RuneCountInString(password) < s.minPasswordLength {
		metrics.RecordAuthFailure("weak_password")
		return model.User{}, fmt.Errorf("%w: need at least %d characters", ErrWeakPassword, s.minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		metrics.RecordAuthFailure("password_too_long")
		return model.User{}, fmt.Errorf("%w: at most %d bytes", ErrPasswordTooLong, maxPasswordBytes)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := model.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        addr,
		PasswordHash: string(hash),
		Bookmarks:    []string{},
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			metrics.RecordAuthFailure("email_in_use")
			return model.User{}, ErrEmailInUse
		}
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	metrics.RecordSignUp()
	return u, nil
}

// SignIn verifies credentials and issues a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	addr, err := parseEmail(email)
	if err != nil {
		metrics.RecordAuthFailure("invalid_email")
		return Session{}, err
	}
	u, err := s.users.GetUserByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordAuthFailure("user_not_found")
			return Session{}, ErrUserNotFound
		}
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	if len(password) > maxPasswordBytes {
		metrics.RecordAuthFailure("wrong_password")
		return Session{}, ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		metrics.RecordAuthFailure("wrong_password")
		return Session{}, ErrWrongPassword
	}

	sess := Session{Token: uuid.NewString(), UserID: u.ID, ExpiresAt: s.now().Add(s.ttl)}
	s.mu.Lock()
	s.sessions[sess.Token] = sess
	s.pruneLocked()
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.RecordSignIn()
	metrics.UpdateSessions(n)
	return sess, nil
}

// SignOut revokes token. Unknown tokens are ignored.
func (s *Service) SignOut(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	n := len(s.sessions)
	s.mu.Unlock()
	metrics.UpdateSessions(n)
	return nil
}

// Authenticate resolves a live token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, ErrInvalidSession
	}
	s.mu.Lock()
	sess, ok := s.sessions[token]
	if ok && !s.now().Before(sess.ExpiresAt) {
		delete(s.sessions, token)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		metrics.RecordAuthFailure("invalid_session")
		return model.User{}, ErrInvalidSession
	}

	u, err := s.users.GetUser(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, ErrInvalidSession
		}
		return model.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// Sessions returns the number of live sessions.
func (s *Service) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	return len(s.sessions)
}

func (s *Service) pruneLocked() {
	now := s.now()
	for tok, sess := range s.sessions {
		if !now.Before(sess.ExpiresAt) {
			delete(s.sessions, tok)
		}
	}
}

// parseEmail accepts a bare address and returns it trimmed.
func parseEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	a, err := mail.ParseAddress(email)
	if err != nil || a.Address != email {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return email, nil
}
