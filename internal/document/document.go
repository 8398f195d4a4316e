package document

import (
	"fmt"
	"strings"
)

// previewRunes bounds Chunk.Preview before the ellipsis is appended.
const previewRunes = 160

// Document is the decoded text of an uploaded brief, ready for chunking.
type Document struct {
	Name   string // Display name (usually the filename)
	Title  string // Title from metadata or first heading, falls back to the filename stem
	Format string // Loader that produced the text, e.g. "pdf"
	Text   string // Best-effort concatenation of page/paragraph text
}

// Chunk is a contiguous, line-numbered excerpt of a document.
type Chunk struct {
	Index     int    `json:"index"`      // Sequence number, 0-based
	StartLine int    `json:"start_line"` // 1-based, inclusive, absolute
	EndLine   int    `json:"end_line"`   // 1-based, inclusive, absolute
	Text      string `json:"text"`       // Lines formatted as "NNNN: content"
}

// Header renders the section label shared by every listing.
func (c Chunk) Header() string {
	return fmt.Sprintf("Section %d (lines %d-%d)", c.Index, c.StartLine, c.EndLine)
}

// Preview summarizes the first three lines on a single line, without their
// line-number prefixes.
func (c Chunk) Preview() string {
	lines := strings.Split(c.Text, "\n")
	if len(lines) > 3 {
		lines = lines[:3]
	}
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		if _, rest, ok := strings.Cut(line, ":"); ok {
			line = rest
		}
		parts = append(parts, strings.TrimSpace(line))
	}
	joined := strings.Join(parts, " ")

	runes := []rune(joined)
	if len(runes) > previewRunes {
		return string(runes[:previewRunes]) + "..."
	}
	return joined
}
