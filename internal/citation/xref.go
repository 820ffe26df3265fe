package citation

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultContextRadius is the number of characters kept on each side of a
// match in its context snippet.
const DefaultContextRadius = 50

// Location is one occurrence of a citation and the surrounding text.
// Position counts characters from the start of the document, the way an
// editor reports a column; Offset is the matching byte offset (Match.Start).
type Location struct {
	Position int    `json:"position" yaml:"position"`
	Offset   int    `json:"-" yaml:"-"`
	Context  string `json:"context" yaml:"context"`
}

// CrossReferenceMap maps each distinct surface text to every place it occurs.
type CrossReferenceMap map[string][]Location

// Index builds the cross-reference map for scan using DefaultContextRadius.
func Index(text string, scan ScanResult) CrossReferenceMap {
	return IndexWithRadius(text, scan, DefaultContextRadius)
}

// IndexWithRadius builds the cross-reference map for scan. Locations are
// appended in registry order, then left to right within a family, so one
// key may hold positions that are not globally sorted. Identical surface
// texts from different families share a single entry.
func IndexWithRadius(text string, scan ScanResult, radius int) CrossReferenceMap {
	xref := make(CrossReferenceMap)
	for _, fm := range scan {
		// Matches run left to right, so character positions are counted
		// from the previous match instead of from the start every time.
		offset, chars := 0, 0
		for _, m := range fm.Matches {
			chars += utf8.RuneCountInString(text[offset:m.Start])
			offset = m.Start
			xref[m.Text] = append(xref[m.Text], Location{
				Position: chars,
				Offset:   m.Start,
				Context:  Snippet(text, m.Start, m.End, radius),
			})
		}
	}
	return xref
}

// Snippet returns up to radius characters before start, the text between
// start and end, and up to radius characters after end, clipped to the
// bounds of text. Characters are runes, so a snippet never splits a UTF-8
// sequence. Newlines become spaces.
func Snippet(text string, start, end, radius int) string {
	start = min(max(start, 0), len(text))
	end = min(max(end, start), len(text))

	from := start
	for n := 0; n < radius && from > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(text[:from])
		from -= size
	}
	to := end
	for n := 0; n < radius && to < len(text); n++ {
		_, size := utf8.DecodeRuneInString(text[to:])
		to += size
	}
	return strings.ReplaceAll(text[from:to], "\n", " ")
}

// Keys returns the citations in lexical order.
func (m CrossReferenceMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
