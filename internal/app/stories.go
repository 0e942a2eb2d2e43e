package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	eventqueue "github.com/womenconnect/platform/internal/adapters/mq/queue"
	"github.com/womenconnect/platform/internal/adapters/repository"
	"github.com/womenconnect/platform/internal/domain/model"
	"github.com/womenconnect/platform/pkg/logger"
)

// StoryInput is what a member submits to publish a story.
type StoryInput struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	ImageURL string `json:"image_url"`
}

// ListStories returns the feed, newest first.
func (s *Service) ListStories(ctx context.Context) ([]model.Story, error) {
	return s.store.ListStories(ctx)
}

// CreateStory publishes a story by author. A repeated idempotency key
// returns the story created the first time and replayed=true.
func (s *Service) CreateStory(ctx context.Context, author model.User, in StoryInput, idemKey string) (story model.Story, replayed bool, err error) {
	st := model.Story{
		ID:         uuid.NewString(),
		Title:      strings.TrimSpace(in.Title),
		Content:    strings.TrimSpace(in.Content),
		ImageURL:   strings.TrimSpace(in.ImageURL),
		AuthorID:   author.ID,
		AuthorName: author.DisplayName(),
		Likes:      []string{},
		Comments:   []model.Comment{},
		CreatedAt:  s.now().UTC(),
	}
	if err := st.Validate(); err != nil {
		return model.Story{}, false, err
	}

	scope := "story:" + author.ID
	if id, seen := s.remember(ctx, scope, idemKey, st.ID); seen {
		existing, err := replay(s, scope, idemKey, func() (model.Story, error) { return s.store.GetStory(ctx, id) })
		return existing, true, err
	}
	err = s.store.CreateStory(ctx, st)
	s.settle(ctx, scope, idemKey, err == nil)
	if err != nil {
		return model.Story{}, false, err
	}
	s.enqueue(ctx, eventqueue.KindStory, st.ID, eventqueue.OpUpsert)
	s.logger.Debug(ctx, "story created", logger.String("storyID", st.ID), logger.String("authorID", author.ID))
	return st, false, nil
}

// DeleteStory removes a story. Only its author may delete it.
func (s *Service) DeleteStory(ctx context.Context, user model.User, id string) error {
	st, err := s.store.GetStory(ctx, id)
	if err != nil {
		return err
	}
	if st.AuthorID != user.ID {
		return ErrForbidden
	}
	if err := s.store.DeleteStory(ctx, id); err != nil {
		return err
	}
	s.enqueue(ctx, eventqueue.KindStory, id, eventqueue.OpDelete)
	return nil
}

// ToggleLike likes the story for userID, or unlikes it when already liked.
func (s *Service) ToggleLike(ctx context.Context, userID, storyID string) (model.Story, error) {
	return s.store.ToggleLike(ctx, storyID, userID)
}

// AddComment appends a comment by user to the story.
func (s *Service) AddComment(ctx context.Context, user model.User, storyID, text string) (model.Story, error) {
	c := model.Comment{
		Text:      text,
		UserID:    user.ID,
		UserName:  user.DisplayName(),
		CreatedAt: s.now().UTC(),
	}
	if err := c.Normalize(); err != nil {
		return model.Story{}, err
	}
	return s.store.AddComment(ctx, storyID, c)
}

// ToggleBookmark bookmarks a story, or removes the bookmark when present,
// and reports whether the story is bookmarked afterwards. A bookmark on a
// story that has since been deleted can still be removed.
func (s *Service) ToggleBookmark(ctx context.Context, userID, storyID string) (bool, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	if !u.HasBookmark(storyID) {
		if _, err := s.store.GetStory(ctx, storyID); err != nil {
			return false, err
		}
	}
	return s.store.ToggleBookmark(ctx, userID, storyID)
}

// Bookmarks returns the stories userID bookmarked, in bookmark order.
// Deleted stories are skipped.
func (s *Service) Bookmarks(ctx context.Context, userID string) ([]model.Story, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Story, 0, len(u.Bookmarks))
	for _, id := range u.Bookmarks {
		st, err := s.store.GetStory(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}
