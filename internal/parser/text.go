package parser

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/dgallion1/citeshield/internal/document"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TextParser handles plain text files. Content is kept verbatim so line
// numbers match the source.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	src = bytes.TrimPrefix(src, utf8BOM)
	if !utf8.Valid(src) {
		return nil, fmt.Errorf("%s is not valid UTF-8 text", filename)
	}
	return newDocument(filename, "text", "", string(src)), nil
}
