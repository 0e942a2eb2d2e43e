package repository

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/womenconnect/platform/internal/domain/calendar"
	"github.com/womenconnect/platform/internal/domain/model"
	"github.com/womenconnect/platform/pkg/metrics"
)

// Snapshot is an immutable, pre-sorted view of the listable collections.
// A new one is published after every event or story write so list reads
// never take the lock.
type Snapshot struct {
	Events  []model.Event // date asc
	Stories []model.Story // created_at desc
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]model.User
	emails  map[string]string // normalized email -> user id
	events  map[string]model.Event
	stories map[string]model.Story

	snapshot atomic.Pointer[Snapshot]

	settings settings
	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore constructs an empty store and starts its metrics updater.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		users:    make(map[string]model.User),
		emails:   make(map[string]string),
		events:   make(map[string]model.Event),
		stories:  make(map[string]model.Story),
		settings: defaultSettings(),
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(&s.settings)
	}
	s.snapshot.Store(&Snapshot{Events: []model.Event{}, Stories: []model.Story{}})

	startMetricsUpdater(ctx, &s.wg, s.stopChan, s.settings.metricsUpdateInterval, s.Counts)
	return s
}

// Close stops the metrics updater.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Snapshot returns the latest published snapshot. Callers must not modify it.
func (s *MemoryStore) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// publishEvents rebuilds the sorted event view and keeps the story view.
// Caller holds the write lock.
func (s *MemoryStore) publishEvents() {
	events := make([]model.Event, 0, len(s.events))
	for _, e := range s.events {
		events = append(events, e)
	}
	calendar.SortByDate(events)

	prev := s.snapshot.Load()
	s.snapshot.Store(&Snapshot{Events: events, Stories: prev.Stories})
}

// publishStories rebuilds the sorted story view and keeps the event view.
// Caller holds the write lock.
func (s *MemoryStore) publishStories() {
	stories := make([]model.Story, 0, len(s.stories))
	for _, st := range s.stories {
		stories = append(stories, st)
	}
	sortStories(stories)

	prev := s.snapshot.Load()
	s.snapshot.Store(&Snapshot{Events: prev.Events, Stories: stories})
}

// replaceStory publishes st in place of the story with the same id. The
// sort key does not change on update, so no re-sort is needed.
// Caller holds the write lock.
func (s *MemoryStore) replaceStory(st model.Story) {
	prev := s.snapshot.Load()
	i := slices.IndexFunc(prev.Stories, func(x model.Story) bool { return x.ID == st.ID })
	if i < 0 {
		s.publishStories()
		return
	}
	stories := slices.Clone(prev.Stories)
	stories[i] = st
	s.snapshot.Store(&Snapshot{Events: prev.Events, Stories: stories})
}

func (s *MemoryStore) CreateUser(_ context.Context, u model.User) error {
	defer observe("create_user", time.Now())
	key := NormalizeEmail(u.Email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return fail("create_user", ErrConflict)
	}
	if _, ok := s.emails[key]; ok {
		return fail("create_user", ErrConflict)
	}
	s.users[u.ID] = cloneUser(u)
	s.emails[key] = u.ID
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (model.User, error) {
	defer observe("get_user", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, fail("get_user", ErrNotFound)
	}
	return cloneUser(u), nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	defer observe("get_user_by_email", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[NormalizeEmail(email)]
	if !ok {
		return model.User{}, fail("get_user_by_email", ErrNotFound)
	}
	return cloneUser(s.users[id]), nil
}

func (s *MemoryStore) UpdateUserName(_ context.Context, id, name string) (model.User, error) {
	return s.updateUser("update_user_name", id, func(u *model.User) { u.Name = name })
}

func (s *MemoryStore) UpdateUserPhoto(_ context.Context, id, photoURL string) (model.User, error) {
	return s.updateUser("update_user_photo", id, func(u *model.User) { u.PhotoURL = photoURL })
}

func (s *MemoryStore) ToggleBookmark(_ context.Context, userID, storyID string) (bool, error) {
	var on bool
	_, err := s.updateUser("toggle_bookmark", userID, func(u *model.User) {
		u.Bookmarks, on = toggle(u.Bookmarks, storyID)
	})
	return on, err
}

func (s *MemoryStore) updateUser(op, id string, mutate func(*model.User)) (model.User, error) {
	defer observe(op, time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, fail(op, ErrNotFound)
	}
	u = cloneUser(u)
	mutate(&u)
	s.users[id] = u
	return cloneUser(u), nil
}

func (s *MemoryStore) CreateEvent(_ context.Context, e model.Event) error {
	defer observe("create_event", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.ID]; ok {
		return fail("create_event", ErrConflict)
	}
	s.events[e.ID] = cloneEvent(e)
	s.publishEvents()
	return nil
}

func (s *MemoryStore) GetEvent(_ context.Context, id string) (model.Event, error) {
	defer observe("get_event", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return model.Event{}, fail("get_event", ErrNotFound)
	}
	return cloneEvent(e), nil
}

func (s *MemoryStore) ListEvents(_ context.Context) ([]model.Event, error) {
	defer observe("list_events", time.Now())
	snap := s.snapshot.Load()
	out := make([]model.Event, len(snap.Events))
	for i, e := range snap.Events {
		out[i] = cloneEvent(e)
	}
	return out, nil
}

func (s *MemoryStore) DeleteEvent(_ context.Context, id string) error {
	defer observe("delete_event", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return fail("delete_event", ErrNotFound)
	}
	delete(s.events, id)
	s.publishEvents()
	return nil
}

func (s *MemoryStore) CreateStory(_ context.Context, st model.Story) error {
	defer observe("create_story", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stories[st.ID]; ok {
		return fail("create_story", ErrConflict)
	}
	s.stories[st.ID] = cloneStory(st)
	s.publishStories()
	return nil
}

func (s *MemoryStore) GetStory(_ context.Context, id string) (model.Story, error) {
	defer observe("get_story", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stories[id]
	if !ok {
		return model.Story{}, fail("get_story", ErrNotFound)
	}
	return cloneStory(st), nil
}

func (s *MemoryStore) ListStories(_ context.Context) ([]model.Story, error) {
	defer observe("list_stories", time.Now())
	snap := s.snapshot.Load()
	out := make([]model.Story, len(snap.Stories))
	for i, st := range snap.Stories {
		out[i] = cloneStory(st)
	}
	return out, nil
}

func (s *MemoryStore) DeleteStory(_ context.Context, id string) error {
	defer observe("delete_story", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stories[id]; !ok {
		return fail("delete_story", ErrNotFound)
	}
	delete(s.stories, id)
	s.publishStories()
	return nil
}

func (s *MemoryStore) ToggleLike(_ context.Context, storyID, userID string) (model.Story, error) {
	return s.updateStory("toggle_like", storyID, func(st *model.Story) {
		st.Likes, _ = toggle(st.Likes, userID)
	})
}

func (s *MemoryStore) AddComment(_ context.Context, storyID string, c model.Comment) (model.Story, error) {
	return s.updateStory("add_comment", storyID, func(st *model.Story) {
		st.Comments = append(slices.Clip(st.Comments), c)
	})
}

func (s *MemoryStore) updateStory(op, id string, mutate func(*model.Story)) (model.Story, error) {
	defer observe(op, time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stories[id]
	if !ok {
		return model.Story{}, fail(op, ErrNotFound)
	}
	st = cloneStory(st)
	mutate(&st)
	s.stories[id] = st
	s.replaceStory(st)
	return cloneStory(st), nil
}

func (s *MemoryStore) Counts(_ context.Context) (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Counts{Users: len(s.users), Events: len(s.events), Stories: len(s.stories)}, nil
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
}

func fail(op string, err error) error {
	metrics.RecordStoreError(op)
	return err
}

// startMetricsUpdater periodically publishes record counts until ctx is done
// or stop is closed.
func startMetricsUpdater(ctx context.Context, wg *sync.WaitGroup, stop <-chan struct{}, interval time.Duration, counts func(context.Context) (Counts, error)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				c, err := counts(ctx)
				if err != nil {
					continue
				}
				metrics.UpdateStoreRecords("users", c.Users)
				metrics.UpdateStoreRecords("events", c.Events)
				metrics.UpdateStoreRecords("stories", c.Stories)
			}
		}
	}()
}
