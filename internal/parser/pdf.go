package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	pdflib "github.com/ledongthuc/pdf"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFParser handles PDF files. It tries the Go library first,
// then falls back to pdftotext if enabled and installed.
type PDFParser struct {
	FallbackPdftotext bool
	Validate          bool
}

var disablePdfcpuConfig sync.Once

func (p *PDFParser) Parse(r io.Reader, filename string) (*Document, error) {
	// ledongthuc/pdf and pdfcpu both work from a path, so we write to a temp file.
	tmp, err := os.CreateTemp("", "statutefinder-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	if p.Validate {
		if err := validatePDF(tmpPath); err != nil {
			return nil, fmt.Errorf("invalid pdf: %w", err)
		}
	}

	text, pages, err := extractPDFText(tmpPath)
	if err != nil && p.FallbackPdftotext {
		text, pages, err = extractPdftotext(tmpPath)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	return &Document{
		Title:  titleFromFilename(filename),
		Format: FormatPDF,
		Text:   text,
		Pages:  pages,
	}, nil
}

func validatePDF(path string) error {
	// pdfcpu writes a config dir under $HOME unless told not to.
	disablePdfcpuConfig.Do(pdfapi.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return pdfapi.ValidateFile(path, conf)
}

// extractPDFText joins page texts with newlines. Pages whose text cannot be
// read contribute an empty line so later page numbers stay aligned.
func extractPDFText(path string) (string, int, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\n"), numPages, nil
}

func extractPdftotext(path string) (string, int, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", 0, fmt.Errorf("pdftotext: %w", err)
	}
	text, pages := splitFormFeeds(string(out))
	return text, pages, nil
}

// splitFormFeeds turns pdftotext's form-feed page breaks into newlines and
// counts the pages. Every page ends with a form feed; trailing text without
// one is counted as a final page.
func splitFormFeeds(out string) (string, int) {
	pages := strings.Count(out, "\f")
	if out != "" && !strings.HasSuffix(out, "\f") {
		pages++
	}
	return strings.ReplaceAll(out, "\f", "\n"), pages
}
