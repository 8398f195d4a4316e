package chunker

import (
	"fmt"
	"strings"
	"unicode"
)

// Normalize canonicalizes line endings to "\n".
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// SplitLines normalizes text and splits it into lines. A trailing newline
// yields a final empty line, and empty text yields a single empty line.
func SplitLines(text string) []string {
	return strings.Split(Normalize(text), "\n")
}

// NumberLine prefixes a line with its zero-padded 1-based line number.
func NumberLine(lineNo int, line string) string {
	return strings.TrimRightFunc(fmt.Sprintf("%04d: %s", lineNo, line), unicode.IsSpace)
}

// Annotate numbers every line of a document.
func Annotate(text string) string {
	lines := SplitLines(text)
	numbered := make([]string, len(lines))
	for i, line := range lines {
		numbered[i] = NumberLine(i+1, line)
	}
	return strings.Join(numbered, "\n")
}
