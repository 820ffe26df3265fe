// Package report renders an Analysis into text, JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dgallion1/statutefinder/internal/citation"
	"gopkg.in/yaml.v3"
)

// DefaultFilename is where the interactive CLI saves a report when the user
// does not name a file.
const DefaultFilename = "statute_analysis_report.txt"

// Renderer turns an Analysis into a report string.
type Renderer interface {
	Name() string
	FileExtension() string
	ContentType() string
	Render(a *citation.Analysis) (string, error)
}

// Options controls renderer output.
type Options struct {
	Color bool // ANSI colour in text reports
}

var renderers = map[string]func(Options) Renderer{
	"text": func(o Options) Renderer { return NewText(o.Color) },
	"json": func(Options) Renderer { return JSON{} },
	"yaml": func(Options) Renderer { return YAML{} },
}

// ForFormat returns the renderer registered under name.
func ForFormat(name string, opts Options) (Renderer, error) {
	newRenderer, ok := renderers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown report format %q (supported: %s)", name, strings.Join(Formats(), ", "))
	}
	return newRenderer(opts), nil
}

// Formats lists the registered renderer names.
func Formats() []string {
	names := make([]string, 0, len(renderers))
	for name := range renderers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// JSON renders the analysis as indented JSON.
type JSON struct{}

func (JSON) Name() string          { return "json" }
func (JSON) FileExtension() string { return ".json" }
func (JSON) ContentType() string   { return "application/json" }

func (JSON) Render(a *citation.Analysis) (string, error) {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal json report: %w", err)
	}
	return string(data), nil
}

// YAML renders the analysis as YAML.
type YAML struct{}

func (YAML) Name() string          { return "yaml" }
func (YAML) FileExtension() string { return ".yaml" }
func (YAML) ContentType() string   { return "application/yaml" }

func (YAML) Render(a *citation.Analysis) (string, error) {
	data, err := yaml.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("marshal yaml report: %w", err)
	}
	return string(data), nil
}
