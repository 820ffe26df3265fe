package citation

// Match is one occurrence of a citation in the scanned text.
// Start and End are byte offsets, End exclusive, so text[Start:End] == Text.
type Match struct {
	Family Family   `json:"family" yaml:"family"`
	Text   string   `json:"text" yaml:"text"`
	Start  int      `json:"start" yaml:"start"`
	End    int      `json:"end" yaml:"end"`
	Groups []string `json:"groups" yaml:"groups"`
}

// FamilyMatches holds the matches one family produced, left to right.
type FamilyMatches struct {
	Family  Family
	Matches []Match
}

// ScanResult holds one entry per registry family, in registry order.
type ScanResult []FamilyMatches

// Scan applies every pattern in reg to text. Matches from a single pattern
// never overlap each other; matches from different families may.
// Scan never fails: text without citations yields empty per-family results.
func Scan(text string, reg *Registry) ScanResult {
	result := make(ScanResult, 0, reg.Len())
	if reg == nil {
		return result
	}

	for _, spec := range reg.specs {
		fm := FamilyMatches{Family: spec.Family, Matches: []Match{}}
		for _, loc := range spec.Pattern.FindAllStringSubmatchIndex(text, -1) {
			fm.Matches = append(fm.Matches, newMatch(spec.Family, text, loc))
		}
		result = append(result, fm)
	}
	return result
}

func newMatch(family Family, text string, loc []int) Match {
	groups := make([]string, 0, len(loc)/2-1)
	for i := 2; i+1 < len(loc); i += 2 {
		// Unmatched optional groups report -1.
		if loc[i] < 0 {
			groups = append(groups, "")
			continue
		}
		groups = append(groups, text[loc[i]:loc[i+1]])
	}
	return Match{
		Family: family,
		Text:   text[loc[0]:loc[1]],
		Start:  loc[0],
		End:    loc[1],
		Groups: groups,
	}
}

// For returns the matches recorded for family, or nil if it was not scanned.
func (s ScanResult) For(family Family) []Match {
	for _, fm := range s {
		if fm.Family == family {
			return fm.Matches
		}
	}
	return nil
}

// Count returns the number of matches across all families.
func (s ScanResult) Count() int {
	n := 0
	for _, fm := range s {
		n += len(fm.Matches)
	}
	return n
}
