package search

import (
	"sort"
	"strings"
	"sync"
)

// Index caches the haystack and keyword set of each document and keeps an
// inverted keyword -> ids map. Searching through an Index returns exactly
// what Filter returns; a missing or stale entry is recomputed on the spot.
type Index struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	inverted map[string]map[string]struct{}
}

type entry struct {
	record   Record
	haystack string
	keywords KeywordSet
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		entries:  make(map[string]*entry),
		inverted: make(map[string]map[string]struct{}),
	}
}

// Put indexes r under id, replacing any previous entry.
func (ix *Index) Put(id string, r Record) {
	e := &entry{
		record:   r,
		haystack: Haystack(r),
		keywords: ExtractKeywords(r),
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if old, ok := ix.entries[id]; ok {
		ix.unlink(id, old)
	}
	ix.entries[id] = e
	for k := range e.keywords {
		ids, ok := ix.inverted[k]
		if !ok {
			ids = make(map[string]struct{})
			ix.inverted[k] = ids
		}
		ids[id] = struct{}{}
	}
}

// Delete removes id. It reports whether the id was indexed.
func (ix *Index) Delete(id string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	old, ok := ix.entries[id]
	if !ok {
		return false
	}
	ix.unlink(id, old)
	delete(ix.entries, id)
	return true
}

// unlink drops id from the inverted lists of e. Caller holds ix.mu.
func (ix *Index) unlink(id string, e *entry) {
	for k := range e.keywords {
		ids := ix.inverted[k]
		delete(ids, id)
		if len(ids) == 0 {
			delete(ix.inverted, k)
		}
	}
}

// Keywords returns the sorted keyword set indexed for id.
func (ix *Index) Keywords(id string) ([]string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	e, ok := ix.entries[id]
	if !ok {
		return nil, false
	}
	return e.keywords.Sorted(), true
}

// Lookup returns the sorted ids whose keyword set contains keyword.
// The keyword is lowercased before lookup.
func (ix *Index) Lookup(keyword string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	ids := ix.inverted[strings.ToLower(strings.TrimSpace(keyword))]
	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Haystack returns the cached haystack for id when it was built from r,
// and computes it from r otherwise.
func (ix *Index) Haystack(id string, r Record) string {
	ix.mu.RLock()
	e, ok := ix.entries[id]
	ix.mu.RUnlock()

	if ok && e.record == r {
		return e.haystack
	}
	return Haystack(r)
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// FilterIndexed is Filter using ix for haystack lookups.
func FilterIndexed[T Document](ix *Index, items []T, query string) []T {
	q := ParseQuery(query)
	if q.IsEmpty() {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if q.Matches(ix.Haystack(it.SearchID(), it.SearchRecord())) {
			out = append(out, it)
		}
	}
	return out
}
