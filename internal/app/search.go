package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/womenconnect/platform/internal/domain/model"
	"github.com/womenconnect/platform/internal/domain/search"
	"github.com/womenconnect/platform/pkg/metrics"
)

// Search kinds.
const (
	KindAll     = "all"
	KindEvents  = "events"
	KindStories = "stories"
)

// SearchResult holds matches per collection. A collection that was not
// searched is nil.
type SearchResult struct {
	Events  []model.Event `json:"events"`
	Stories []model.Story `json:"stories"`
}

// Search matches query against every event (past ones included) and
// every story. kind limits the collections searched; empty means all.
func (s *Service) Search(ctx context.Context, query, kind string) (SearchResult, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		kind = KindAll
	}
	if kind != KindAll && kind != KindEvents && kind != KindStories {
		return SearchResult{}, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	var res SearchResult
	if kind != KindStories {
		events, err := s.store.ListEvents(ctx)
		if err != nil {
			return SearchResult{}, err
		}
		res.Events = limit(s.searchEvents(events, query), s.maxSearchResults)
	}
	if kind != KindEvents {
		stories, err := s.store.ListStories(ctx)
		if err != nil {
			return SearchResult{}, err
		}
		res.Stories = limit(s.searchStories(stories, query), s.maxSearchResults)
	}
	return res, nil
}

// LookupKeyword returns the events and stories whose keyword set contains
// keyword, in listing order.
func (s *Service) LookupKeyword(ctx context.Context, keyword string) (SearchResult, error) {
	res := SearchResult{Events: []model.Event{}, Stories: []model.Story{}}

	if ids := toSet(s.events.Lookup(keyword)); len(ids) > 0 {
		events, err := s.store.ListEvents(ctx)
		if err != nil {
			return SearchResult{}, err
		}
		for _, e := range events {
			if _, ok := ids[e.ID]; ok {
				res.Events = append(res.Events, e)
			}
		}
	}
	if ids := toSet(s.stories.Lookup(keyword)); len(ids) > 0 {
		stories, err := s.store.ListStories(ctx)
		if err != nil {
			return SearchResult{}, err
		}
		for _, st := range stories {
			if _, ok := ids[st.ID]; ok {
				res.Stories = append(res.Stories, st)
			}
		}
	}
	return res, nil
}

func (s *Service) searchEvents(events []model.Event, query string) []model.Event {
	start := time.Now()
	out := search.FilterIndexed(s.events, events, query)
	metrics.RecordSearchLatency(KindEvents, float64(time.Since(start).Microseconds())/1000)
	metrics.RecordSearch(KindEvents, len(out))
	return out
}

func (s *Service) searchStories(stories []model.Story, query string) []model.Story {
	start := time.Now()
	out := search.FilterIndexed(s.stories, stories, query)
	metrics.RecordSearchLatency(KindStories, float64(time.Since(start).Microseconds())/1000)
	metrics.RecordSearch(KindStories, len(out))
	return out
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
