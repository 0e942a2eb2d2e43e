package search

import "strings"

// Query is a parsed free-text query: lowercased, whitespace separated tokens.
type Query struct {
	tokens []string
}

// ParseQuery lowercases q and splits it on whitespace runs.
func ParseQuery(q string) Query {
	return Query{tokens: strings.Fields(strings.ToLower(q))}
}

// IsEmpty reports whether the query has no tokens, i.e. it was empty or
// whitespace only. An empty query matches everything.
func (q Query) IsEmpty() bool { return len(q.tokens) == 0 }

// Tokens returns a copy of the query tokens.
func (q Query) Tokens() []string {
	out := make([]string, len(q.tokens))
	copy(out, q.tokens)
	return out
}

// Matches reports whether every token is a substring of haystack.
// haystack must already be lowercased (see Haystack).
func (q Query) Matches(haystack string) bool {
	for _, tok := range q.tokens {
		if !strings.Contains(haystack, tok) {
			return false
		}
	}
	return true
}

// MatchRecord reports whether r satisfies the query.
func (q Query) MatchRecord(r Record) bool {
	if q.IsEmpty() {
		return true
	}
	return q.Matches(Haystack(r))
}

// SearchRecords returns the records matching query, in input order.
// An empty or whitespace-only query returns records unchanged.
func SearchRecords(records []Record, query string) []Record {
	return Filter(records, query)
}

// Filter is SearchRecords for any Searchable element type.
func Filter[T Searchable](items []T, query string) []T {
	q := ParseQuery(query)
	if q.IsEmpty() {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if q.Matches(Haystack(it.SearchRecord())) {
			out = append(out, it)
		}
	}
	return out
}
