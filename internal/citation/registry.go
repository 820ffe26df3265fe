// Package citation recognizes statutory citations in legal text, deduplicates
// them per family and builds the position-indexed cross-reference map that
// reports are rendered from.
//
// Everything in this package is a pure function of its inputs. A Registry is
// immutable once built and may be shared by concurrent scans.
package citation

import (
	"fmt"
	"regexp"
)

// Family identifies a citation family such as the U.S. Code or the C.F.R.
type Family string

const (
	USC         Family = "USC"
	CFR         Family = "CFR"
	StateCode   Family = "StateCode"
	SectionOnly Family = "SectionOnly"
	PublicLaw   Family = "PublicLaw"
)

// PatternSpec pairs a family with the rule that recognizes its surface forms.
type PatternSpec struct {
	Family  Family
	Pattern *regexp.Regexp
}

// builtinPatterns lists the default rules in registry order. SectionOnly is
// the broadest rule and overlaps every other family on purpose.
//
// RE2's \s only covers ASCII whitespace, so spacing is written as [\s\p{Z}]
// to accept the no-break and other Unicode spaces common in text pulled out
// of PDF and Word files.
var builtinPatterns = []struct {
	family Family
	expr   string
}{
	// 42 USC 1983, 42 U.S.C. § 1983, 15 U.S.C. § 78j-1
	{USC, `\b(\d+)[\s\p{Z}]+U\.?S\.?C\.?[\s\p{Z}]+§?[\s\p{Z}]*(\d+[a-z]?(?:-\d+)?)`},
	// 29 CFR 1910.1200, 45 C.F.R. § 164
	{CFR, `\b(\d+)[\s\p{Z}]+C\.?F\.?R\.?[\s\p{Z}]+§?[\s\p{Z}]*(\d+(?:\.\d+)?)`},
	// Texas Code § 12.34, Nevada Rev. Stat. 41.035
	{StateCode, `\b([A-Z][a-z]+)[\s\p{Z}]+(?:Code|Stat\.?|Rev\.?[\s\p{Z}]+Stat\.?)[\s\p{Z}]+§?[\s\p{Z}]*(\d+(?:[.-]\d+)*)`},
	// § 501, § 12.3-4a
	{SectionOnly, `§[\s\p{Z}]*(\d+(?:[.-]\d+[a-z]?)*)`},
	// Pub. L. No. 117-58
	{PublicLaw, `\b(Pub\.?[\s\p{Z}]+L\.?[\s\p{Z}]+No\.?[\s\p{Z}]+)(\d+-\d+)`},
}

// Compile builds a case-insensitive PatternSpec for family from expr.
// Patterns are compiled with RE2, so matching time is linear in the input.
func Compile(family Family, expr string) (PatternSpec, error) {
	if family == "" {
		return PatternSpec{}, fmt.Errorf("pattern family cannot be empty")
	}
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return PatternSpec{}, fmt.Errorf("compile %s pattern: %w", family, err)
	}
	return PatternSpec{Family: family, Pattern: re}, nil
}

// Registry is an ordered collection of citation patterns, one per family.
// Iteration order is fixed at construction and decides the append order of
// cross-reference locations.
type Registry struct {
	specs []PatternSpec
}

// NewRegistry creates a registry from specs, keeping their order.
// Returns an error if a spec has no pattern or a family appears twice.
// An empty registry is valid and never matches anything.
func NewRegistry(specs ...PatternSpec) (*Registry, error) {
	seen := make(map[Family]bool, len(specs))
	kept := make([]PatternSpec, 0, len(specs))
	for _, spec := range specs {
		if spec.Family == "" {
			return nil, fmt.Errorf("pattern family cannot be empty")
		}
		if spec.Pattern == nil {
			return nil, fmt.Errorf("family %q has no pattern", spec.Family)
		}
		if seen[spec.Family] {
			return nil, fmt.Errorf("family %q already registered", spec.Family)
		}
		seen[spec.Family] = true
		kept = append(kept, spec)
	}
	return &Registry{specs: kept}, nil
}

// DefaultRegistry returns the built-in USC, CFR, StateCode, SectionOnly and
// PublicLaw rules in that order.
func DefaultRegistry() *Registry {
	specs := make([]PatternSpec, 0, len(builtinPatterns))
	for _, p := range builtinPatterns {
		spec, err := Compile(p.family, p.expr)
		if err != nil {
			panic(err)
		}
		specs = append(specs, spec)
	}
	return &Registry{specs: specs}
}

// With returns a new registry holding r's specs followed by extra.
func (r *Registry) With(extra ...PatternSpec) (*Registry, error) {
	return NewRegistry(append(r.Specs(), extra...)...)
}

// Families returns the registered families in iteration order.
func (r *Registry) Families() []Family {
	if r == nil {
		return []Family{}
	}
	families := make([]Family, len(r.specs))
	for i, spec := range r.specs {
		families[i] = spec.Family
	}
	return families
}

// Specs returns a copy of the registered pattern specs.
func (r *Registry) Specs() []PatternSpec {
	if r == nil {
		return nil
	}
	out := make([]PatternSpec, len(r.specs))
	copy(out, r.specs)
	return out
}

// Len reports the number of registered families.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.specs)
}
