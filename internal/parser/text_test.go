package parser

import (
	"strings"
	"testing"
)

func TestTextParser_KeepsTextVerbatim(t *testing.T) {
	input := "First line, 42 USC 1983.\n\n  Indented § 501 line.\n"
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", doc.Title)
	}
	if doc.Format != FormatText {
		t.Errorf("expected format %q, got %q", FormatText, doc.Format)
	}
	if doc.Text != input {
		t.Errorf("expected text %q, got %q", input, doc.Text)
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "empty" {
		t.Errorf("expected title %q, got %q", "empty", doc.Title)
	}
	if doc.Text != "" {
		t.Errorf("expected empty text, got %q", doc.Text)
	}
}

func TestTextParser_DropsInvalidUTF8(t *testing.T) {
	input := "See \xff42 USC 1983\xfe."
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "bad.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Text != "See 42 USC 1983." {
		t.Errorf("expected invalid bytes dropped, got %q", doc.Text)
	}
}

func TestTextParser_KeepsMultibyteRunes(t *testing.T) {
	input := "Voir § 12 — Règlement"
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "fr.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Text != input {
		t.Errorf("expected %q, got %q", input, doc.Text)
	}
}
