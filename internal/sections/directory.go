// Package sections exposes a read-only directory over a document's chunks:
// paginated listing, indexed retrieval and keyword search.
package sections

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dgallion1/citeshield/internal/document"
)

const (
	// NoSections is returned by List when nothing is in range.
	NoSections = "No sections available."
	// NoMatches is returned by Search when no chunk scores above zero.
	NoMatches = "No relevant sections found. Try a different query."
	// EmptyOverview is the overview line for a document with no chunks.
	EmptyOverview = "- Section 0: <document was empty>"

	DefaultListLimit     = 5
	DefaultSearchLimit   = 3
	DefaultOverviewLimit = 5
)

// ErrOutOfRange is wrapped by RangeError.
var ErrOutOfRange = errors.New("section index out of range")

// RangeError reports an index outside [0, Count-1].
type RangeError struct {
	Index int
	Count int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("section index %d is invalid, valid range: 0-%d", e.Index, e.Count-1)
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }

// Directory is the per-run view of a chunked document. It is never mutated
// after New returns, so concurrent readers need no locking.
type Directory struct {
	name     string
	chunks   []document.Chunk
	overview string
}

// New builds a directory over a copy of chunks, precomputing an overview of
// the first overviewLimit sections.
func New(documentName string, chunks []document.Chunk, overviewLimit int) *Directory {
	owned := make([]document.Chunk, len(chunks))
	copy(owned, chunks)
	return &Directory{
		name:     documentName,
		chunks:   owned,
		overview: Summarize(owned, overviewLimit),
	}
}

// Name returns the document display name.
func (d *Directory) Name() string { return d.name }

// Len returns the number of sections.
func (d *Directory) Len() int { return len(d.chunks) }

// Overview returns the precomputed overview.
func (d *Directory) Overview() string { return d.overview }

// Chunks returns a copy of the section list.
func (d *Directory) Chunks() []document.Chunk {
	out := make([]document.Chunk, len(d.chunks))
	copy(out, d.chunks)
	return out
}

// List renders up to max(1, limit) sections beginning at start.
func (d *Directory) List(start, limit int) string {
	start = max(start, 0)
	if start >= len(d.chunks) {
		return NoSections
	}
	end := min(len(d.chunks), start+max(1, limit))
	return renderRows(d.chunks[start:end])
}

// Get returns the section at index.
func (d *Directory) Get(index int) (document.Chunk, error) {
	if index < 0 || index >= len(d.chunks) {
		return document.Chunk{}, &RangeError{Index: index, Count: len(d.chunks)}
	}
	return d.chunks[index], nil
}

// Section renders the full numbered text of the section at index.
func (d *Directory) Section(index int) (string, error) {
	c, err := d.Get(index)
	if err != nil {
		return "", err
	}
	return c.Header() + ":\n" + c.Text, nil
}

// Search renders the highest scoring sections for query. Ties keep document
// order.
func (d *Directory) Search(query string, limit int) string {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	type scored struct {
		chunk document.Chunk
		score float64
	}
	ranked := make([]scored, 0, len(d.chunks))
	for _, c := range d.chunks {
		ranked = append(ranked, scored{chunk: c, score: Score(c, query)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	var top []document.Chunk
	for _, r := range ranked {
		if r.score <= 0 || len(top) == limit {
			break
		}
		top = append(top, r.chunk)
	}
	if len(top) == 0 {
		return NoMatches
	}
	return renderRows(top)
}

// Summarize lists the first limit chunks as an overview.
func Summarize(chunks []document.Chunk, limit int) string {
	if limit <= 0 {
		limit = DefaultOverviewLimit
	}
	if len(chunks) == 0 {
		return EmptyOverview
	}
	rows := make([]string, 0, min(limit, len(chunks)))
	for _, c := range chunks[:min(limit, len(chunks))] {
		rows = append(rows, "- "+c.Header()+": "+c.Preview())
	}
	return strings.Join(rows, "\n")
}

func renderRows(chunks []document.Chunk) string {
	rows := make([]string, len(chunks))
	for i, c := range chunks {
		rows[i] = c.Header() + ": " + c.Preview()
	}
	return strings.Join(rows, "\n")
}
