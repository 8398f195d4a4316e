package sections

import (
	"math"
	"testing"

	"github.com/dgallion1/citeshield/internal/document"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		query string
		want  float64
	}{
		{"no keywords", "anything at all", "", 0},
		{"short tokens only", "an ox is by", "an ox is", 0},
		{"no match", "Random text", "Brown", 0},
		// freq 1, coverage 1, density 1/4.
		{"single hit", "Case Brown v. Board", "Brown", 2.25},
		// freq 2 (brown twice), coverage 1, density 2/3.
		{"repeated hit", "brown brown board", "BROWN", 3 + 2.0/3.0},
		// "court" also matches inside "courthouse".
		{"substring match", "the courthouse court", "court", 2 + 1 + 2.0/3.0},
		// freq 2, coverage 2, density 2/2.
		{"two keywords", "Marbury Madison", "marbury madison", 5},
		// Duplicate query tokens double-count frequency but not coverage.
		{"duplicate tokens", "marbury", "marbury marbury", 2 + 1 + 2},
	}
	for _, tt := range tests {
		got := Score(document.Chunk{Text: tt.text}, tt.query)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestScore_EmptyChunkUsesDensityFloor(t *testing.T) {
	if got := Score(document.Chunk{Text: ""}, "brown"); got != 0 {
		t.Errorf("expected 0 for empty chunk, got %v", got)
	}
}
