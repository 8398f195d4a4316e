package metrics

import (
	"testing"
	"time"

	"github.com/dgallion1/citeshield/internal/progress"
	"github.com/dgallion1/citeshield/internal/tools"
)

func TestLatencyStatsSnapshotPercentiles(t *testing.T) {
	stats := NewLatencyStats(time.Hour)
	for _, us := range []int64{100, 200, 300, 400, 500} {
		stats.Record(tools.GetSection, time.Duration(us)*time.Microsecond)
	}

	snap, ok := stats.Snapshot()[tools.GetSection]
	if !ok {
		t.Fatal("expected snapshot for get_brief_section")
	}
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinUs != 100 {
		t.Fatalf("expected min=100, got %d", snap.MinUs)
	}
	if snap.MaxUs != 500 {
		t.Fatalf("expected max=500, got %d", snap.MaxUs)
	}
	if snap.AvgUs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgUs)
	}
	if snap.P50Us != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Us)
	}
	if snap.P95Us != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Us)
	}
	if snap.P99Us != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Us)
	}
}

func TestLatencyStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewLatencyStats(10 * time.Millisecond)
	stats.Record(tools.ListSections, time.Millisecond)
	time.Sleep(25 * time.Millisecond)

	if snap := stats.Snapshot(); len(snap) != 0 {
		t.Fatalf("expected no tools after prune, got %v", snap)
	}

	stats.Record(tools.ListSections, 2*time.Millisecond)
	if snap := stats.Snapshot()[tools.ListSections]; snap.Count != 1 || snap.MinUs != 2000 {
		t.Fatalf("expected single fresh sample, got %+v", snap)
	}
}

func TestLatencyStatsObservesEvents(t *testing.T) {
	stats := NewLatencyStats(time.Hour)
	stats.Observe(progress.Event{Kind: progress.KindToolStarted, Tool: tools.SearchSections})
	stats.Observe(progress.Event{Kind: progress.KindToolFinished, Tool: tools.SearchSections, Duration: time.Millisecond})
	stats.Observe(progress.Event{Kind: progress.KindToolFailed, Tool: tools.SearchSections})
	stats.Observe(progress.Event{Kind: progress.KindToolFailed, Tool: "drop_table"})

	snap := stats.Snapshot()
	if got := snap[tools.SearchSections]; got.Count != 1 || got.Failed != 1 {
		t.Errorf("expected 1 sample and 1 failure, got %+v", got)
	}
	if got := snap["unknown"]; got.Failed != 1 {
		t.Errorf("expected unknown tool bucket, got %+v", got)
	}
	if _, ok := snap["drop_table"]; ok {
		t.Error("expected arbitrary tool names to be folded")
	}
}

func TestLatencyStatsEmpty(t *testing.T) {
	if snap := NewLatencyStats(0).Snapshot(); len(snap) != 0 {
		t.Errorf("expected empty snapshot, got %v", snap)
	}
}
