package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Paragraph texts are joined with newlines,
// empty paragraphs included.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var paragraphs []string
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		paragraphs = append(paragraphs, docxParagraphText(para))
	}

	return &Document{
		Title:  titleFromFilename(filename),
		Format: FormatDOCX,
		Text:   strings.Join(paragraphs, "\n"),
	}, nil
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return buf.String()
}
