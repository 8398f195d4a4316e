package sections

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/citeshield/internal/document"
)

// Score ranks a chunk against a free-text query by keyword frequency,
// coverage of distinct keywords and keyword density. Keywords are query
// tokens longer than two characters. Matching is plain substring counting,
// so a keyword also matches inside longer words.
func Score(chunk document.Chunk, query string) float64 {
	keywords := keywords(query)
	if len(keywords) == 0 {
		return 0
	}
	haystack := strings.ToLower(chunk.Text)

	freq := 0
	seen := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		n := strings.Count(haystack, kw)
		freq += n
		if n > 0 {
			seen[kw] = true
		}
	}
	density := float64(freq) / float64(max(1, len(strings.Fields(haystack))))
	return float64(freq) + float64(len(seen)) + density
}

func keywords(query string) []string {
	var out []string
	for _, tok := range strings.Fields(strings.ToLower(query)) {
		if utf8.RuneCountInString(tok) > 2 {
			out = append(out, tok)
		}
	}
	return out
}
