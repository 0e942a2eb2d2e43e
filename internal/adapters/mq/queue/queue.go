// Package queue carries search indexing jobs from writers to workers.
//
// Enqueue never blocks: when the queue is full the caller gets false and
// the search index falls back to computing the document inline on read.
package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/womenconnect/platform/pkg/metrics"
)

const (
	defaultQueueCapacity = 10_000
	idlePollInterval     = 5 * time.Millisecond
)

// Kind names the collection a job refers to.
type Kind string

// Indexed collections.
const (
	KindEvent Kind = "event"
	KindStory Kind = "story"
)

// Op is the index operation to apply.
type Op string

// Index operations.
const (
	OpUpsert Op = "upsert"
	OpDelete Op = "delete"
)

// Job asks a worker to refresh one document in the search index.
type Job struct {
	Kind       Kind
	ID         string
	Op         Op
	EnqueuedAt time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job. Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, j Job) bool

	// Dequeue returns the channel workers receive jobs from. It is closed,
	// after the remaining jobs are drained, once the queue is closed.
	Dequeue(ctx context.Context) <-chan Job

	// Done marks one dequeued job as finished.
	Done()

	// Len returns the current number of queued jobs.
	Len(ctx context.Context) int

	// Close stops accepting jobs.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int
	pending  atomic.Int64 // enqueued and not yet Done

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)
	return q
}

// Enqueue adds a job to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}
	if ctx.Err() != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	}
	if j.EnqueuedAt.IsZero() {
		j.EnqueuedAt = time.Now()
	}

	q.pending.Add(1)
	select {
	case q.jobs <- j:
		metrics.RecordQueueEnqueue()
		q.observeSize()
		return true
	default:
		q.pending.Add(-1)
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns the job channel. Every receiver must call Done per job.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Job {
	return q.jobs
}

// Done marks one received job as processed.
func (q *InMemoryQueue) Done() {
	metrics.RecordQueueDequeue()
	q.pending.Add(-1)
	q.observeSize()
}

// Len returns the current number of queued jobs.
func (q *InMemoryQueue) Len(_ context.Context) int {
	q.observeSize()
	return len(q.jobs)
}

// Pending returns the number of jobs enqueued but not yet marked Done.
func (q *InMemoryQueue) Pending() int64 {
	return q.pending.Load()
}

// WaitIdle blocks until every enqueued job is Done or ctx ends.
func (q *InMemoryQueue) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(idlePollInterval)
	defer ticker.Stop()
	for q.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Close stops accepting jobs. Already queued jobs remain receivable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) observeSize() {
	size := len(q.jobs)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
