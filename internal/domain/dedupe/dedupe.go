// Package dedupe remembers idempotency keys of create requests so a
// retried request returns the resource created by the first one.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// defaultMaxSize bounds the number of remembered keys.
const defaultMaxSize = 50_000

// Deduper maps idempotency keys to the id of the resource they created.
type Deduper interface {
	// Remember atomically records key -> id unless key is already known.
	// When known it returns the stored id and true; otherwise it records id
	// and returns "" and false.
	Remember(ctx context.Context, key, id string) (string, bool)

	// Forget drops key so the request can be retried, e.g. when the create
	// it guarded failed after the key was recorded.
	Forget(ctx context.Context, key string)

	Size() int64
}

type item struct {
	key string
	id  string
}

// inMemoryDeduper evicts the oldest key once maxSize is reached.
// maxSize <= 0 means unbounded.
type inMemoryDeduper struct {
	mu      sync.Mutex
	byKey   map[string]*list.Element
	order   *list.List // front = oldest
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
		byKey:   make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) Remember(_ context.Context, key, id string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.byKey[key]; ok {
		return el.Value.(*item).id, true
	}

	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		d.evictOldest()
	}
	d.byKey[key] = d.order.PushBack(&item{key: key, id: id})
	d.size.Store(int64(d.order.Len()))
	return "", false
}

func (d *inMemoryDeduper) Forget(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.byKey[key]; ok {
		d.order.Remove(el)
		delete(d.byKey, key)
		d.size.Store(int64(d.order.Len()))
	}
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	el := d.order.Front()
	if el == nil {
		return
	}
	d.order.Remove(el)
	delete(d.byKey, el.Value.(*item).key)
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
