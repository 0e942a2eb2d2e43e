package service

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/womenconnect/platform/internal/adapters/auth"
	"github.com/womenconnect/platform/internal/domain/avatar"
	"github.com/womenconnect/platform/internal/domain/model"
	"github.com/womenconnect/platform/pkg/logger"
)

// Register creates an account and signs it in.
func (s *Service) Register(ctx context.Context, name, email, password string) (auth.Session, model.Profile, error) {
	u, err := s.accounts.SignUp(ctx, name, email, password)
	if err != nil {
		return auth.Session{}, model.Profile{}, err
	}
	sess, err := s.accounts.SignIn(ctx, email, password)
	if err != nil {
		return auth.Session{}, model.Profile{}, err
	}
	s.logger.Info(ctx, "user registered", logger.String("userID", u.ID))
	return sess, u.Profile(), nil
}

// Login signs a user in.
func (s *Service) Login(ctx context.Context, email, password string) (auth.Session, error) {
	return s.accounts.SignIn(ctx, email, password)
}

// Logout revokes a session token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.accounts.SignOut(ctx, token)
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (model.User, error) {
	return s.accounts.Authenticate(ctx, token)
}

// Profile returns the public profile of a user.
func (s *Service) Profile(ctx context.Context, userID string) (model.Profile, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return model.Profile{}, err
	}
	return u.Profile(), nil
}

// UpdateName changes the display name. A blank name shows as Anonymous.
func (s *Service) UpdateName(ctx context.Context, userID, name string) (model.Profile, error) {
	u, err := s.store.UpdateUserName(ctx, userID, name)
	if err != nil {
		return model.Profile{}, err
	}
	return u.Profile(), nil
}

// UploadAvatar scales the image read from r, stores it as PNG and points
// the user's photo at it.
func (s *Service) UploadAvatar(ctx context.Context, userID string, r io.Reader) (model.Profile, error) {
	img, err := avatar.Process(r, s.avatarMaxBytes, s.avatarSize)
	if err != nil {
		return model.Profile{}, err
	}
	url, err := s.blobs.Put(ctx, avatarKey(userID), img, avatar.ContentType)
	if err != nil {
		return model.Profile{}, fmt.Errorf("store avatar: %w", err)
	}
	// The key is reused per user; the version defeats browser caches.
	url += "?v=" + strconv.FormatInt(s.now().UnixNano(), 36)

	u, err := s.store.UpdateUserPhoto(ctx, userID, url)
	if err != nil {
		return model.Profile{}, err
	}
	return u.Profile(), nil
}

// Blob returns a stored file and its content type.
func (s *Service) Blob(ctx context.Context, key string) ([]byte, string, error) {
	return s.blobs.Get(ctx, key)
}

func avatarKey(userID string) string {
	return "avatars/" + userID + ".png"
}
