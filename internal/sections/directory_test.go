package sections

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/citeshield/internal/chunker"
	"github.com/dgallion1/citeshield/internal/document"
)

func briefChunks() []document.Chunk {
	return []document.Chunk{
		{Index: 0, StartLine: 1, EndLine: 2, Text: "Case Brown v. Board"},
		{Index: 1, StartLine: 3, EndLine: 4, Text: "Random text"},
	}
}

func TestList_ReturnsPreview(t *testing.T) {
	d := New("x", []document.Chunk{{Index: 0, StartLine: 1, EndLine: 3, Text: "0001: Hello world"}}, 0)
	got := d.List(0, 5)
	if got != "Section 0 (lines 1-3): Hello world" {
		t.Errorf("expected single row, got %q", got)
	}
}

func TestList_Pagination(t *testing.T) {
	chunks, err := chunker.Chunk("a\nb\nc\nd\ne\nf", chunker.Config{MaxLines: 2, Overlap: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := New("brief.txt", chunks, 0)

	rows := strings.Split(d.List(1, 2), "\n")
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0] != "Section 1 (lines 3-4): c d" {
		t.Errorf("unexpected first row %q", rows[0])
	}
	if rows[1] != "Section 2 (lines 5-6): e f" {
		t.Errorf("unexpected second row %q", rows[1])
	}
}

func TestList_LimitFloorIsOne(t *testing.T) {
	d := New("x", briefChunks(), 0)
	for _, limit := range []int{0, -4} {
		if rows := strings.Split(d.List(0, limit), "\n"); len(rows) != 1 {
			t.Errorf("limit=%d: expected 1 row, got %d", limit, len(rows))
		}
	}
}

func TestList_NegativeStartClamped(t *testing.T) {
	d := New("x", briefChunks(), 0)
	if got := d.List(-3, 1); !strings.HasPrefix(got, "Section 0 ") {
		t.Errorf("expected listing from section 0, got %q", got)
	}
}

func TestList_PastEndAndEmpty(t *testing.T) {
	d := New("x", briefChunks(), 0)
	if got := d.List(2, 5); got != NoSections {
		t.Errorf("expected %q, got %q", NoSections, got)
	}
	empty := New("x", nil, 0)
	if got := empty.List(0, 5); got != NoSections {
		t.Errorf("expected %q for empty directory, got %q", NoSections, got)
	}
}

func TestGet_Bounds(t *testing.T) {
	d := New("x", []document.Chunk{{Index: 0, StartLine: 1, EndLine: 1, Text: "0001: only"}}, 0)

	for _, idx := range []int{-1, 1} {
		_, err := d.Section(idx)
		if !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("index %d: expected ErrOutOfRange, got %v", idx, err)
		}
		var rerr *RangeError
		if !errors.As(err, &rerr) {
			t.Fatalf("index %d: expected *RangeError, got %T", idx, err)
		}
		if rerr.Index != idx || rerr.Count != 1 {
			t.Errorf("index %d: unexpected error fields %+v", idx, rerr)
		}
		if !strings.Contains(err.Error(), "valid range: 0-0") {
			t.Errorf("index %d: expected bounds in message, got %q", idx, err.Error())
		}
	}

	got, err := d.Section(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Section 0 (lines 1-1):\n0001: only" {
		t.Errorf("unexpected rendering %q", got)
	}
}

func TestSearch_Ranking(t *testing.T) {
	d := New("x", briefChunks(), 0)
	got := d.Search("Brown", 0)
	if !strings.HasPrefix(got, "Section 0 (lines 1-2): Case Brown v. Board") {
		t.Errorf("expected Brown chunk first, got %q", got)
	}
	if strings.Contains(got, "Section 1") {
		t.Errorf("expected zero-score chunk filtered out, got %q", got)
	}
}

func TestSearch_ZeroSignal(t *testing.T) {
	d := New("x", briefChunks(), 0)
	for _, q := range []string{"", "   ", "v. of a", "Br ow"} {
		if got := d.Search(q, 3); got != NoMatches {
			t.Errorf("query %q: expected %q, got %q", q, NoMatches, got)
		}
	}
}

func TestSearch_TiesKeepDocumentOrder(t *testing.T) {
	chunks := []document.Chunk{
		{Index: 0, StartLine: 1, EndLine: 1, Text: "unrelated"},
		{Index: 1, StartLine: 2, EndLine: 2, Text: "statute here"},
		{Index: 2, StartLine: 3, EndLine: 3, Text: "statute here"},
		{Index: 3, StartLine: 4, EndLine: 4, Text: "statute statute"},
	}
	d := New("x", chunks, 0)
	rows := strings.Split(d.Search("statute", 10), "\n")
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d: %q", len(rows), rows)
	}
	wantOrder := []string{"Section 3 ", "Section 1 ", "Section 2 "}
	for i, prefix := range wantOrder {
		if !strings.HasPrefix(rows[i], prefix) {
			t.Errorf("row %d: expected prefix %q, got %q", i, prefix, rows[i])
		}
	}
}

func TestSearch_DefaultLimit(t *testing.T) {
	var chunks []document.Chunk
	for i := range 6 {
		chunks = append(chunks, document.Chunk{Index: i, StartLine: i + 1, EndLine: i + 1, Text: "marbury"})
	}
	d := New("x", chunks, 0)
	if rows := strings.Split(d.Search("Marbury", 0), "\n"); len(rows) != DefaultSearchLimit {
		t.Errorf("expected %d rows, got %d", DefaultSearchLimit, len(rows))
	}
	if rows := strings.Split(d.Search("Marbury", 5), "\n"); len(rows) != 5 {
		t.Errorf("expected 5 rows, got %d", len(rows))
	}
}

func TestSummarize(t *testing.T) {
	got := Summarize(briefChunks(), 1)
	if got != "- Section 0 (lines 1-2): Case Brown v. Board" {
		t.Errorf("unexpected overview %q", got)
	}
	if got := Summarize(nil, 5); got != EmptyOverview {
		t.Errorf("expected %q, got %q", EmptyOverview, got)
	}
}

func TestNew_CopiesChunks(t *testing.T) {
	chunks := briefChunks()
	d := New("brief.txt", chunks, 6)
	chunks[0].Text = "mutated"

	c, err := d.Get(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Text != "Case Brown v. Board" {
		t.Errorf("expected directory to own its chunks, got %q", c.Text)
	}
	out := d.Chunks()
	out[1].Text = "mutated"
	if c, _ := d.Get(1); c.Text != "Random text" {
		t.Errorf("expected Chunks() to return a copy, got %q", c.Text)
	}
	if d.Name() != "brief.txt" || d.Len() != 2 {
		t.Errorf("unexpected name/len %q/%d", d.Name(), d.Len())
	}
	if !strings.HasPrefix(d.Overview(), "- Section 0 (lines 1-2)") {
		t.Errorf("unexpected overview %q", d.Overview())
	}
}
