package search

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// minWordLength is exclusive: words must be longer than this to be kept.
const minWordLength = 2

// KeywordSet is an unordered set of normalized tokens.
type KeywordSet map[string]struct{}

// Has reports whether k is in the set.
func (s KeywordSet) Has(k string) bool {
	_, ok := s[k]
	return ok
}

// Sorted returns the keywords in lexical order.
func (s KeywordSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ExtractKeywords derives the keyword set of r.
//
// Title, Description and, for venue records only, Location are split on
// whitespace and words of three or more characters are kept. Category and
// Type are added whole, whatever their length, unless empty.
func ExtractKeywords(r Record) KeywordSet {
	set := make(KeywordSet)

	addWords(set, r.Title)
	addWhole(set, r.Category)
	addWhole(set, r.Type)

	if r.Type == TypeVenue && r.Location != "" {
		addWords(set, r.Location)
	}
	if r.Description != "" {
		addWords(set, r.Description)
	}
	return set
}

func addWhole(set KeywordSet, field string) {
	if field != "" {
		set[strings.ToLower(field)] = struct{}{}
	}
}

func addWords(set KeywordSet, text string) {
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if utf8.RuneCountInString(w) > minWordLength {
			set[w] = struct{}{}
		}
	}
}
