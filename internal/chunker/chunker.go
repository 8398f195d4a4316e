package chunker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/citeshield/internal/document"
)

// ErrInvalidParameter is wrapped by every chunking parameter violation.
var ErrInvalidParameter = errors.New("invalid chunking parameter")

// ParameterError reports which chunking constraint a Config broke.
type ParameterError struct {
	Param string
	Value int
	Msg   string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%s (got %s=%d)", e.Msg, e.Param, e.Value)
}

func (e *ParameterError) Unwrap() error { return ErrInvalidParameter }

// Config controls chunking behavior.
type Config struct {
	MaxLines int // Lines per chunk.
	Overlap  int // Lines shared between consecutive chunks.
}

// DefaultConfig returns the window used for briefs.
func DefaultConfig() Config {
	return Config{
		MaxLines: 40,
		Overlap:  5,
	}
}

// Validate checks the window parameters.
func (c Config) Validate() error {
	if c.MaxLines <= 0 {
		return &ParameterError{Param: "max_lines", Value: c.MaxLines, Msg: "max_lines must be a positive integer"}
	}
	if c.Overlap < 0 {
		return &ParameterError{Param: "overlap", Value: c.Overlap, Msg: "overlap cannot be negative"}
	}
	if c.Overlap >= c.MaxLines {
		return &ParameterError{Param: "overlap", Value: c.Overlap, Msg: fmt.Sprintf("overlap must be smaller than max_lines (%d)", c.MaxLines)}
	}
	return nil
}

// Chunk splits text into overlapping windows of numbered lines. Line numbers
// are absolute positions in the original text.
func Chunk(text string, cfg Config) ([]document.Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lines := SplitLines(text)
	var chunks []document.Chunk
	start := 0
	index := 0

	for start < len(lines) {
		end := min(len(lines), start+cfg.MaxLines)
		chunks = append(chunks, document.Chunk{
			Index:     index,
			StartLine: start + 1,
			EndLine:   end,
			Text:      numberWindow(lines[start:end], start+1),
		})
		if end == len(lines) {
			break
		}
		// The +1 floor keeps the cursor moving when overlap would stall it.
		start = max(end-cfg.Overlap, start+1)
		index++
	}

	return chunks, nil
}

func numberWindow(lines []string, firstLine int) string {
	var sb strings.Builder
	for i, line := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(NumberLine(firstLine+i, line))
	}
	return strings.TrimSpace(sb.String())
}
