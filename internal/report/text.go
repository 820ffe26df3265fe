package report

import (
	"fmt"
	"strings"

	"github.com/dgallion1/statutefinder/internal/citation"
	"github.com/fatih/color"
)

const ruleWidth = 60

// Text renders the plain-text analysis report.
type Text struct {
	heading *color.Color
	label   *color.Color
	cite    *color.Color
}

// NewText creates a text renderer. Colour is applied only when useColor is
// set, independent of the global color.NoColor switch.
func NewText(useColor bool) *Text {
	t := &Text{
		heading: color.New(color.FgCyan, color.Bold),
		label:   color.New(color.FgYellow),
		cite:    color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{t.heading, t.label, t.cite} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return t
}

func (t *Text) Name() string          { return "text" }
func (t *Text) FileExtension() string { return ".txt" }
func (t *Text) ContentType() string   { return "text/plain; charset=utf-8" }

// Render writes the banner, the totals, counts per family, the sorted unique
// citations of every family that has any, and the cross-reference map sorted
// by citation with locations in their stored order.
func (t *Text) Render(a *citation.Analysis) (string, error) {
	rule := strings.Repeat("=", ruleWidth)
	var lines []string

	section := func(title string) {
		lines = append(lines, rule, t.heading.Sprint(title), rule)
	}

	section("STATUTE CROSS-REFERENCE ANALYSIS")
	lines = append(lines,
		fmt.Sprintf("\nTotal References Found: %d", a.TotalReferences),
		fmt.Sprintf("Unique Citations: %d", a.UniqueReferences),
		"\nReferences by Type:",
	)
	for _, family := range a.Families {
		lines = append(lines, fmt.Sprintf("  %s: %d", t.label.Sprint(family), a.ByFamily[family]))
	}

	lines = append(lines, "")
	section("UNIQUE CITATIONS")
	for _, family := range a.Families {
		set := a.UniqueCitations[family]
		if len(set) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("\n%s:", t.label.Sprint(family)))
		for _, c := range set.Sorted() {
			lines = append(lines, "  • "+t.cite.Sprint(c))
		}
	}

	lines = append(lines, "")
	section("CROSS-REFERENCE MAP")
	for _, key := range a.CrossReferences.Keys() {
		locs := a.CrossReferences[key]
		lines = append(lines, fmt.Sprintf("\n%s (appears %d time(s)):", t.cite.Sprint(key), len(locs)))
		for _, loc := range locs {
			lines = append(lines, fmt.Sprintf("  Position %d: ...%s...", loc.Position, loc.Context))
		}
	}

	return strings.Join(lines, "\n"), nil
}
