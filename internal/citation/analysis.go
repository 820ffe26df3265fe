package citation

// Analysis summarizes the citations found in one document.
//
// UniqueReferences sums the per-family unique counts, so a surface text
// matched by two families is counted once for each of them.
type Analysis struct {
	TotalReferences  int                    `json:"total_references" yaml:"total_references"`
	UniqueReferences int                    `json:"unique_references" yaml:"unique_references"`
	Families         []Family               `json:"families" yaml:"families"`
	ByFamily         map[Family]int         `json:"by_family" yaml:"by_family"`
	UniqueCitations  map[Family]CitationSet `json:"unique_citations" yaml:"unique_citations"`
	CrossReferences  CrossReferenceMap      `json:"cross_reference_map" yaml:"cross_reference_map"`
	Matches          map[Family][]Match     `json:"all_references" yaml:"all_references"`
}

// Analyzer runs the scanner, deduplicator and indexer over a text.
type Analyzer struct {
	registry *Registry
	radius   int
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithContextRadius sets the snippet radius used by the cross-reference map.
// Non-positive values fall back to DefaultContextRadius.
func WithContextRadius(radius int) Option {
	return func(a *Analyzer) {
		if radius > 0 {
			a.radius = radius
		}
	}
}

// NewAnalyzer creates an analyzer over reg. A nil reg uses DefaultRegistry.
func NewAnalyzer(reg *Registry, opts ...Option) *Analyzer {
	if reg == nil {
		reg = DefaultRegistry()
	}
	a := &Analyzer{registry: reg, radius: DefaultContextRadius}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Registry returns the registry the analyzer scans with.
func (a *Analyzer) Registry() *Registry {
	return a.registry
}

// Analyze scans text once and assembles the full Analysis. Nothing is cached
// between calls.
func (a *Analyzer) Analyze(text string) *Analysis {
	scan := Scan(text, a.registry)

	result := &Analysis{
		Families:        a.registry.Families(),
		ByFamily:        make(map[Family]int, len(scan)),
		UniqueCitations: make(map[Family]CitationSet, len(scan)),
		CrossReferences: IndexWithRadius(text, scan, a.radius),
		Matches:         make(map[Family][]Match, len(scan)),
	}
	for _, fm := range scan {
		unique := Unique(fm.Matches)
		result.ByFamily[fm.Family] = len(fm.Matches)
		result.UniqueCitations[fm.Family] = unique
		result.Matches[fm.Family] = fm.Matches
		result.TotalReferences += len(fm.Matches)
		result.UniqueReferences += len(unique)
	}
	return result
}

// Analyze runs a default analyzer over text.
func Analyze(text string) *Analysis {
	return NewAnalyzer(nil).Analyze(text)
}
