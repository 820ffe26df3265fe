// Package parser extracts plain text from document files. Each format is a
// strategy that can be queried for availability on its own, so the loader
// reports per-format readiness without the analysis core depending on any
// parsing library.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrNotFound          = errors.New("file not found")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrMissingCapability = errors.New("format support not available")
	ErrExtractionFailure = errors.New("text extraction failed")
)

// Format names a document format.
type Format string

const (
	FormatText     Format = "text"
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Document is the text extracted from one source file.
type Document struct {
	Title  string // Filename without extension, or the document's own title
	Format Format
	Text   string
	Pages  int // Page count for paged formats, 0 otherwise
}

// Parser converts raw document bytes into a Document.
type Parser interface {
	Parse(r io.Reader, filename string) (*Document, error)
}

// Options configures the loader.
type Options struct {
	// FallbackPdftotext retries PDF extraction with the pdftotext binary.
	FallbackPdftotext bool
	// ValidatePDF runs a relaxed structural check before extracting text.
	ValidatePDF bool
	// Disabled formats report unavailable and fail with ErrMissingCapability.
	Disabled []Format
}

// Capability describes whether a format can be loaded.
type Capability struct {
	Format     Format   `json:"format" yaml:"format"`
	Extensions []string `json:"extensions" yaml:"extensions"`
	Available  bool     `json:"available" yaml:"available"`
	Detail     string   `json:"detail" yaml:"detail"`
}

type strategy struct {
	format     Format
	extensions []string
	build      func(Options) Parser
	detail     func(Options) string
}

var strategies = []strategy{
	{
		format:     FormatText,
		extensions: []string{".txt"},
		build:      func(Options) Parser { return &TextParser{} },
	},
	{
		format:     FormatPDF,
		extensions: []string{".pdf"},
		build: func(o Options) Parser {
			return &PDFParser{FallbackPdftotext: o.FallbackPdftotext, Validate: o.ValidatePDF}
		},
		detail: func(o Options) string {
			if !o.FallbackPdftotext {
				return "pdftotext fallback disabled"
			}
			if _, err := exec.LookPath("pdftotext"); err != nil {
				return "pdftotext fallback not installed"
			}
			return "pdftotext fallback available"
		},
	},
	{
		format:     FormatDOCX,
		extensions: []string{".docx", ".doc"},
		build:      func(Options) Parser { return &DOCXParser{} },
		detail:     func(Options) string { return "legacy .doc files must be OOXML internally" },
	},
	{
		format:     FormatMarkdown,
		extensions: []string{".md", ".markdown"},
		build:      func(Options) Parser { return &MarkdownParser{} },
	},
	{
		format:     FormatHTML,
		extensions: []string{".html", ".htm"},
		build:      func(Options) Parser { return &HTMLParser{} },
	},
}

// Loader resolves files to parsers and extracts their text.
type Loader struct {
	opts     Options
	disabled map[Format]bool
}

// NewLoader creates a loader with the given options.
func NewLoader(opts Options) *Loader {
	disabled := make(map[Format]bool, len(opts.Disabled))
	for _, f := range opts.Disabled {
		disabled[Format(strings.ToLower(string(f)))] = true
	}
	return &Loader{opts: opts, disabled: disabled}
}

func lookup(filename string) (strategy, string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, s := range strategies {
		for _, e := range s.extensions {
			if e == ext {
				return s, ext, true
			}
		}
	}
	return strategy{}, ext, false
}

// FormatFor returns the format a filename maps to.
func FormatFor(filename string) (Format, bool) {
	s, _, ok := lookup(filename)
	return s.format, ok
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	_, ok := FormatFor(filename)
	return ok
}

// SupportedExtensions lists every recognized extension in sorted order.
func SupportedExtensions() []string {
	var exts []string
	for _, s := range strategies {
		exts = append(exts, s.extensions...)
	}
	sort.Strings(exts)
	return exts
}

// ForFile returns the parser for filename, or ErrUnsupportedFormat /
// ErrMissingCapability.
func (l *Loader) ForFile(filename string) (Parser, error) {
	s, ext, ok := lookup(filename)
	if !ok {
		if ext == "" {
			ext = "(none)"
		}
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if l.disabled[s.format] {
		return nil, fmt.Errorf("%w: %s support is disabled", ErrMissingCapability, s.format)
	}
	return s.build(l.opts), nil
}

// Capabilities reports the availability of every format.
func (l *Loader) Capabilities() []Capability {
	caps := make([]Capability, 0, len(strategies))
	for _, s := range strategies {
		c := Capability{
			Format:     s.format,
			Extensions: append([]string(nil), s.extensions...),
			Available:  !l.disabled[s.format],
		}
		switch {
		case !c.Available:
			c.Detail = "disabled by configuration"
		case s.detail != nil:
			c.Detail = s.detail(l.opts)
		}
		caps = append(caps, c)
	}
	return caps
}

// Load reads path and extracts its text. Errors wrap ErrNotFound,
// ErrUnsupportedFormat, ErrMissingCapability or ErrExtractionFailure.
func (l *Loader) Load(path string) (*Document, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailure, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnsupportedFormat, path)
	}

	p, err := l.ForFile(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailure, err)
	}
	defer f.Close()

	return parse(p, f, filepath.Base(path))
}

// LoadBytes extracts text from an in-memory file, such as an upload.
func (l *Loader) LoadBytes(data []byte, filename string) (*Document, error) {
	p, err := l.ForFile(filename)
	if err != nil {
		return nil, err
	}
	return parse(p, bytes.NewReader(data), filename)
}

func parse(p Parser, r io.Reader, filename string) (*Document, error) {
	doc, err := p.Parse(r, filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailure, err)
	}
	return doc, nil
}

func titleFromFilename(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
