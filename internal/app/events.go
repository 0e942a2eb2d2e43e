package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	eventqueue "github.com/womenconnect/platform/internal/adapters/mq/queue"
	"github.com/womenconnect/platform/internal/adapters/repository"
	"github.com/womenconnect/platform/internal/domain/calendar"
	"github.com/womenconnect/platform/internal/domain/model"
	"github.com/womenconnect/platform/internal/domain/search"
	"github.com/womenconnect/platform/pkg/logger"
)

// EventInput is the create-event form. Date is RFC 3339 or the
// datetime-local form "2006-01-02T15:04".
type EventInput struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Type        string `json:"type"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// CreateEvent adds an event created by creator. A repeated idempotency key
// returns the event created the first time and replayed=true.
func (s *Service) CreateEvent(ctx context.Context, creator model.User, in EventInput, idemKey string) (event model.Event, replayed bool, err error) {
	date, err := calendar.ParseDate(in.Date, s.loc)
	if err != nil {
		return model.Event{}, false, fmt.Errorf("%w: %v", model.ErrValidation, err)
	}
	e := model.Event{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Date:        date,
		Type:        strings.TrimSpace(in.Type),
		Location:    strings.TrimSpace(in.Location),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		CreatedBy:   creator.ID,
		CreatorName: creator.DisplayName(),
		Attendees:   []string{},
		CreatedAt:   s.now().UTC(),
	}
	e.ApplyDefaults()
	if err := e.Validate(); err != nil {
		return model.Event{}, false, err
	}

	scope := "event:" + creator.ID
	if id, seen := s.remember(ctx, scope, idemKey, e.ID); seen {
		existing, err := replay(s, scope, idemKey, func() (model.Event, error) { return s.store.GetEvent(ctx, id) })
		return existing, true, err
	}
	err = s.store.CreateEvent(ctx, e)
	s.settle(ctx, scope, idemKey, err == nil)
	if err != nil {
		return model.Event{}, false, err
	}
	s.enqueue(ctx, eventqueue.KindEvent, e.ID, eventqueue.OpUpsert)
	s.logger.Debug(ctx, "event created", logger.String("eventID", e.ID), logger.String("createdBy", creator.ID))
	return e, false, nil
}

// GetEvent returns one event.
func (s *Service) GetEvent(ctx context.Context, id string) (model.Event, error) {
	return s.store.GetEvent(ctx, id)
}

// DeleteEvent removes an event. Only its creator may delete it.
func (s *Service) DeleteEvent(ctx context.Context, user model.User, id string) error {
	e, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if e.CreatedBy != user.ID {
		return ErrForbidden
	}
	if err := s.store.DeleteEvent(ctx, id); err != nil {
		return err
	}
	s.enqueue(ctx, eventqueue.KindEvent, id, eventqueue.OpDelete)
	return nil
}

// UpcomingEvents returns events dated now or later, soonest first,
// filtered by query. An empty query keeps them all.
func (s *Service) UpcomingEvents(ctx context.Context, query string) ([]model.Event, error) {
	all, err := s.store.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	upcoming := calendar.Upcoming(all, s.now())
	return s.searchEvents(upcoming, query), nil
}

// EventKeywords returns the sorted keyword set of an event.
func (s *Service) EventKeywords(ctx context.Context, id string) ([]string, error) {
	e, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if kw, ok := s.events.Keywords(id); ok {
		return kw, nil
	}
	return search.ExtractKeywords(e.SearchRecord()).Sorted(), nil
}

// ImportEvents stores seed events, skipping ids that already exist, and
// returns how many were added.
func (s *Service) ImportEvents(ctx context.Context, events []model.Event) (int, error) {
	added := 0
	for _, e := range events {
		if e.CreatedAt.IsZero() {
			e.CreatedAt = s.now().UTC()
		}
		if e.CreatorName == "" {
			e.CreatorName = model.AnonymousName
		}
		err := s.store.CreateEvent(ctx, e)
		if errors.Is(err, repository.ErrConflict) {
			continue
		}
		if err != nil {
			return added, fmt.Errorf("import event %s: %w", e.ID, err)
		}
		s.enqueue(ctx, eventqueue.KindEvent, e.ID, eventqueue.OpUpsert)
		added++
	}
	return added, nil
}
