package citation

import (
	"encoding/json"
	"sort"
)

// CitationSet is an unordered set of distinct citation surface texts.
type CitationSet map[string]struct{}

// Unique reduces matches to their distinct surface texts. Equality is exact:
// "42 USC 1983" and "42 U.S.C. § 1983" stay separate citations.
func Unique(matches []Match) CitationSet {
	set := make(CitationSet, len(matches))
	for _, m := range matches {
		set[m.Text] = struct{}{}
	}
	return set
}

// Contains reports whether citation is in the set.
func (s CitationSet) Contains(citation string) bool {
	_, ok := s[citation]
	return ok
}

// Sorted returns the citations in lexical order.
func (s CitationSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (s CitationSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s CitationSet) MarshalYAML() (any, error) {
	return s.Sorted(), nil
}
