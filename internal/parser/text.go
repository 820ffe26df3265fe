package parser

import (
	"io"
	"strings"
)

// TextParser handles plain text files. The text is kept verbatim so citation
// offsets line up with the file; invalid UTF-8 sequences are dropped.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return &Document{
		Title:  titleFromFilename(filename),
		Format: FormatText,
		Text:   strings.ToValidUTF8(string(data), ""),
	}, nil
}
