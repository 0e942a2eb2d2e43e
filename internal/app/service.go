// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"runtime"
	"sync"
	"time"

	"github.com/womenconnect/platform/internal/adapters/auth"
	eventqueue "github.com/womenconnect/platform/internal/adapters/mq/queue"
	workerpool "github.com/womenconnect/platform/internal/adapters/mq/worker"
	"github.com/womenconnect/platform/internal/adapters/repository"
	"github.com/womenconnect/platform/internal/domain/avatar"
	"github.com/womenconnect/platform/internal/domain/dedupe"
	"github.com/womenconnect/platform/internal/domain/search"
	"github.com/womenconnect/platform/pkg/logger"
	"github.com/womenconnect/platform/pkg/metrics"
)

// Blobs stores uploaded files.
type Blobs interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, string, error)
}

// applyStripes is the number of locks index updates are spread over.
const applyStripes = 64

// Service implements the API dependencies of the community platform.
type Service struct {
	mu sync.RWMutex

	// applyMu serializes index updates per document so a slow upsert
	// cannot land after the delete that followed it.
	applyMu [applyStripes]sync.Mutex

	// Core components
	store    repository.Store
	blobs    Blobs
	accounts *auth.Service
	deduper  dedupe.Deduper
	events   *search.Index
	stories  *search.Index
	queue    *eventqueue.InMemoryQueue
	pool     *workerpool.Pool

	// Configuration
	workerCount      int
	queueSize        int
	idempotencySize  int
	avatarMaxBytes   int64
	avatarSize       int
	maxSearchResults int
	authOpts         []auth.Option
	loc              *time.Location
	now              func() time.Time

	// State
	started  bool
	flightMu sync.Mutex
	inFlight map[string]struct{}

	logger logger.Logger
}

// New constructs a Service on top of store and blobs.
func New(store repository.Store, blobs Blobs, opts ...Option) *Service {
	s := &Service{
		store:           store,
		blobs:           blobs,
		events:          search.NewIndex(),
		stories:         search.NewIndex(),
		workerCount:     runtime.NumCPU(),
		queueSize:       10_000,
		idempotencySize: 50_000,
		avatarMaxBytes:  avatar.DefaultMaxBytes,
		avatarSize:      avatar.DefaultSize,
		loc:             time.UTC,
		now:             time.Now,
		inFlight:        make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.idempotencySize))
	authOpts := append([]auth.Option{auth.WithClock(s.now)}, s.authOpts...)
	s.accounts = auth.New(store, authOpts...)
	return s
}

// Start rebuilds the search indexes from the store and starts the
// indexing workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting service...")

	if err := s.reindex(ctx); err != nil {
		return fmt.Errorf("build search index: %w", err)
	}

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, workerpool.IndexerFunc(s.Apply),
		workerpool.WithLogger(s.logger.Named("indexer")),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("indexedEvents", s.events.Len()),
		logger.Int("indexedStories", s.stories.Len()),
	)
	return nil
}

// Stop drains the indexing queue and stops the workers. The store is
// owned by the caller and left open.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping service...")
	err := s.pool.Shutdown(ctx)
	s.started = false
	s.logger.Info(ctx, "service stopped")
	return err
}

// WaitIndexed blocks until every queued indexing job has been applied.
func (s *Service) WaitIndexed(ctx context.Context) error {
	s.mu.RLock()
	q := s.queue
	s.mu.RUnlock()
	if q == nil {
		return nil
	}
	return q.WaitIdle(ctx)
}

// Apply brings one document of the search index in line with the store.
// It is run by the indexing workers.
func (s *Service) Apply(ctx context.Context, job eventqueue.Job) error {
	ix := s.index(job.Kind)
	if ix == nil {
		return fmt.Errorf("unknown index kind %q", job.Kind)
	}

	mu := s.applyLock(job.Kind, job.ID)
	mu.Lock()
	defer mu.Unlock()

	var (
		rec search.Record
		err error
	)
	if job.Op == eventqueue.OpUpsert {
		rec, err = s.load(ctx, job.Kind, job.ID)
	}
	switch {
	case job.Op == eventqueue.OpDelete, errors.Is(err, repository.ErrNotFound):
		ix.Delete(job.ID)
	case err != nil:
		return err
	default:
		ix.Put(job.ID, rec)
		metrics.RecordKeywordExtraction()
	}
	metrics.UpdateIndexSize(string(job.Kind), ix.Len())
	return nil
}

func (s *Service) applyLock(kind eventqueue.Kind, id string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(kind))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(id))
	return &s.applyMu[h.Sum32()%applyStripes]
}

func (s *Service) index(kind eventqueue.Kind) *search.Index {
	switch kind {
	case eventqueue.KindEvent:
		return s.events
	case eventqueue.KindStory:
		return s.stories
	}
	return nil
}

func (s *Service) load(ctx context.Context, kind eventqueue.Kind, id string) (search.Record, error) {
	if kind == eventqueue.KindEvent {
		e, err := s.store.GetEvent(ctx, id)
		return e.SearchRecord(), err
	}
	st, err := s.store.GetStory(ctx, id)
	return st.SearchRecord(), err
}

// enqueue schedules an index update. When the queue is full, or the
// service is not running, the update is applied inline instead.
func (s *Service) enqueue(ctx context.Context, kind eventqueue.Kind, id string, op eventqueue.Op) {
	job := eventqueue.Job{Kind: kind, ID: id, Op: op, EnqueuedAt: s.now()}

	s.mu.RLock()
	q := s.queue
	running := s.started
	s.mu.RUnlock()

	if running && q.Enqueue(ctx, job) {
		return
	}
	if err := s.Apply(ctx, job); err != nil {
		s.logger.Warn(ctx, "inline index update failed",
			logger.String("kind", string(kind)),
			logger.String("id", id),
			logger.Error(err),
		)
	}
}

// reindex loads every event and story into the indexes. Caller holds s.mu.
func (s *Service) reindex(ctx context.Context) error {
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		return err
	}
	for _, e := range events {
		s.events.Put(e.ID, e.SearchRecord())
	}
	stories, err := s.store.ListStories(ctx)
	if err != nil {
		return err
	}
	for _, st := range stories {
		s.stories.Put(st.ID, st.SearchRecord())
	}
	metrics.UpdateIndexSize(string(eventqueue.KindEvent), s.events.Len())
	metrics.UpdateIndexSize(string(eventqueue.KindStory), s.stories.Len())
	return nil
}

// Stats is a point-in-time view of the service.
type Stats struct {
	Started         bool  `json:"started"`
	Workers         int   `json:"workers"`
	QueueCapacity   int   `json:"queue_capacity"`
	QueueLength     int   `json:"queue_length"`
	IndexedEvents   int   `json:"indexed_events"`
	IndexedStories  int   `json:"indexed_stories"`
	Users           int   `json:"users"`
	Events          int   `json:"events"`
	Stories         int   `json:"stories"`
	Sessions        int   `json:"sessions"`
	IdempotencyKeys int64 `json:"idempotency_keys"`
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	stats := Stats{
		Started:         s.started,
		Workers:         s.workerCount,
		QueueCapacity:   s.queueSize,
		IndexedEvents:   s.events.Len(),
		IndexedStories:  s.stories.Len(),
		Sessions:        s.accounts.Sessions(),
		IdempotencyKeys: s.deduper.Size(),
	}
	if s.started {
		stats.QueueLength = s.queue.Len(ctx)
	}
	s.mu.RUnlock()

	counts, err := s.store.Counts(ctx)
	if err != nil {
		return stats, err
	}
	stats.Users = counts.Users
	stats.Events = counts.Events
	stats.Stories = counts.Stories

	metrics.UpdateQueueSize(stats.QueueLength)
	return stats, nil
}

// remember guards a create with an idempotency key. It returns the id of
// the resource an earlier request with the same key created, if any. A
// first use marks the key in flight until settle is called.
// An empty key disables the check.
func (s *Service) remember(ctx context.Context, scope, key, id string) (string, bool) {
	if key == "" {
		return "", false
	}
	k := scope + "\x00" + key
	s.flightMu.Lock()
	existing, seen := s.deduper.Remember(ctx, k, id)
	if !seen {
		s.inFlight[k] = struct{}{}
	}
	s.flightMu.Unlock()
	if seen {
		metrics.RecordIdempotentReplay()
	}
	return existing, seen
}

// settle closes the in-flight window opened by remember. A failed create
// releases the key so a retry can try again.
func (s *Service) settle(ctx context.Context, scope, key string, ok bool) {
	if key == "" {
		return
	}
	k := scope + "\x00" + key
	s.flightMu.Lock()
	delete(s.inFlight, k)
	if !ok {
		s.deduper.Forget(ctx, k)
	}
	s.flightMu.Unlock()
}

// replay loads the resource a repeated idempotency key points at. While the
// first request is still writing it, ErrInProgress is returned instead of
// not found.
func replay[T any](s *Service, scope, key string, get func() (T, error)) (T, error) {
	v, err := get()
	if !errors.Is(err, repository.ErrNotFound) {
		return v, err
	}
	s.flightMu.Lock()
	_, pending := s.inFlight[scope+"\x00"+key]
	s.flightMu.Unlock()
	if pending {
		return v, ErrInProgress
	}
	// The first request may have committed between the two checks.
	return get()
}
