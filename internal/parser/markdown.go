package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/citeshield/internal/document"
)

// MarkdownParser handles Markdown files. The raw source is kept so that
// citations can be located by line; goldmark only supplies the title.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}
	src = bytes.TrimPrefix(src, utf8BOM)
	if !utf8.Valid(src) {
		return nil, fmt.Errorf("%s is not valid UTF-8 text", filename)
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	return newDocument(filename, "markdown", firstHeading(doc, src), string(src)), nil
}

// firstHeading returns the text of the highest-level heading that appears
// first in the document.
func firstHeading(doc ast.Node, src []byte) string {
	best, bestLevel := "", 7
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Level >= bestLevel {
			continue
		}
		if t := extractText(h, src); t != "" {
			best, bestLevel = t, h.Level
		}
	}
	return best
}

// extractText gets the text content of a goldmark inline tree.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		} else {
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
