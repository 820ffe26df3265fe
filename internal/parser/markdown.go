package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Markup is stripped
// and top-level blocks are joined with newlines; the first heading, if any,
// becomes the title.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	out := &Document{
		Title:  titleFromFilename(filename),
		Format: FormatMarkdown,
	}

	var blocks []string
	headingSeen := false
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		var t string
		if h, ok := n.(*ast.Heading); ok {
			t = extractText(h, src)
			if !headingSeen && t != "" {
				out.Title = t
				headingSeen = true
			}
		} else {
			t = extractText(n, src)
		}
		if t != "" {
			blocks = append(blocks, t)
		}
	}

	out.Text = strings.Join(blocks, "\n")
	return out, nil
}

// extractText gets the text content of a goldmark AST node. Leaf blocks such
// as code blocks contribute their raw lines; everything else is built from
// inline text so emphasis and link markup drop out.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && !n.HasChildren() {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
			continue
		}
		s := extractText(c, src)
		if c.Type() == ast.TypeBlock && buf.Len() > 0 && s != "" {
			buf.WriteByte('\n')
		}
		buf.WriteString(s)
	}
	return strings.TrimSpace(buf.String())
}
