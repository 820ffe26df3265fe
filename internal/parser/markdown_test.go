package parser

import (
	"strings"
	"testing"
)

func TestMarkdownParser_StripsMarkup(t *testing.T) {
	input := `# Enforcement

Claims arise under **42 U.S.C. § 1983**.

## Regulations

See [40 CFR 122.26](https://example.com) and *Pub. L. No. 111-148*.
`
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "memo.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "Enforcement" {
		t.Errorf("expected title %q, got %q", "Enforcement", doc.Title)
	}
	if doc.Format != FormatMarkdown {
		t.Errorf("expected format %q, got %q", FormatMarkdown, doc.Format)
	}

	want := "Enforcement\nClaims arise under 42 U.S.C. § 1983.\nRegulations\nSee 40 CFR 122.26 and Pub. L. No. 111-148."
	if doc.Text != want {
		t.Errorf("expected text %q, got %q", want, doc.Text)
	}
	if strings.Contains(doc.Text, "**") || strings.Contains(doc.Text, "](") {
		t.Errorf("markup leaked into text: %q", doc.Text)
	}
}

func TestMarkdownParser_NoHeadings(t *testing.T) {
	input := `Just some plain text.

Another paragraph here.`

	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "plain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "plain" {
		t.Errorf("expected filename title %q, got %q", "plain", doc.Title)
	}
	if doc.Text != "Just some plain text.\nAnother paragraph here." {
		t.Errorf("unexpected text %q", doc.Text)
	}
}

func TestMarkdownParser_CodeBlocks(t *testing.T) {
	input := "# Statutes\n\n```\n15 USC 78j-1\n```\n\nMore text after code.\n"

	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "code.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(doc.Text, "15 USC 78j-1") {
		t.Errorf("expected code block content in text, got %q", doc.Text)
	}
	if !strings.Contains(doc.Text, "More text after code.") {
		t.Errorf("expected post-code text, got %q", doc.Text)
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Text != "" {
		t.Errorf("expected empty text, got %q", doc.Text)
	}
	if doc.Title != "empty" {
		t.Errorf("expected title %q, got %q", "empty", doc.Title)
	}
}
