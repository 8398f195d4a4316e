package chunker

import (
	"strings"

	"github.com/dgallion1/citeshield/internal/document"
)

// EstimateTokens gives a rough token count using the ~1.33 tokens/word heuristic.
// Callers use it to budget how many sections fit in a context window.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// TokenStats summarizes estimated token counts across a chunk list.
type TokenStats struct {
	Total   int `json:"total"`
	Largest int `json:"largest"`
}

// EstimateChunkTokens sums EstimateTokens over chunks.
func EstimateChunkTokens(chunks []document.Chunk) TokenStats {
	var s TokenStats
	for _, c := range chunks {
		n := EstimateTokens(c.Text)
		s.Total += n
		if n > s.Largest {
			s.Largest = n
		}
	}
	return s
}
