package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/dgallion1/citeshield/internal/progress"
)

type sample struct {
	timestamp  time.Time
	durationUs int64
}

// StatsSnapshot is a point-in-time aggregate of one tool's latency samples.
type StatsSnapshot struct {
	Count  int     `json:"count"`
	Failed int     `json:"failed"`
	MinUs  int64   `json:"min_us"`
	MaxUs  int64   `json:"max_us"`
	AvgUs  float64 `json:"avg_us"`
	P50Us  float64 `json:"p50_us"`
	P95Us  float64 `json:"p95_us"`
	P99Us  float64 `json:"p99_us"`
}

type window struct {
	samples []sample
	failed  []time.Time
}

// LatencyStats tracks recent tool call latencies per tool within a rolling
// window. It consumes tool_finished and tool_failed events.
type LatencyStats struct {
	mu     sync.Mutex
	tools  map[string]*window
	maxAge time.Duration
}

func NewLatencyStats(maxAge time.Duration) *LatencyStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &LatencyStats{
		tools:  make(map[string]*window),
		maxAge: maxAge,
	}
}

// Observe implements progress.Observer.
func (s *LatencyStats) Observe(e progress.Event) {
	switch e.Kind {
	case progress.KindToolFinished:
		s.Record(toolLabel(e.Tool), e.Duration)
	case progress.KindToolFailed:
		s.RecordFailure(toolLabel(e.Tool))
	}
}

func (s *LatencyStats) Record(tool string, d time.Duration) {
	us := d.Microseconds()
	if us < 0 {
		us = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.windowLocked(tool)
	s.pruneLocked(w, now)
	w.samples = append(w.samples, sample{timestamp: now, durationUs: us})
}

func (s *LatencyStats) RecordFailure(tool string) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.windowLocked(tool)
	s.pruneLocked(w, now)
	w.failed = append(w.failed, now)
}

// Snapshot aggregates every tool seen within the window.
func (s *LatencyStats) Snapshot() map[string]StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]StatsSnapshot, len(s.tools))
	for tool, w := range s.tools {
		s.pruneLocked(w, now)
		if len(w.samples) == 0 && len(w.failed) == 0 {
			delete(s.tools, tool)
			continue
		}
		out[tool] = summarize(w)
	}
	return out
}

func summarize(w *window) StatsSnapshot {
	snap := StatsSnapshot{Failed: len(w.failed)}
	if len(w.samples) == 0 {
		return snap
	}

	values := make([]int64, 0, len(w.samples))
	var sum int64
	for _, sm := range w.samples {
		values = append(values, sm.durationUs)
		sum += sm.durationUs
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	snap.Count = len(values)
	snap.MinUs = values[0]
	snap.MaxUs = values[len(values)-1]
	snap.AvgUs = float64(sum) / float64(len(values))
	snap.P50Us = percentile(values, 50)
	snap.P95Us = percentile(values, 95)
	snap.P99Us = percentile(values, 99)
	return snap
}

func (s *LatencyStats) windowLocked(tool string) *window {
	w, ok := s.tools[tool]
	if !ok {
		w = &window{samples: make([]sample, 0, 64)}
		s.tools[tool] = w
	}
	return w
}

func (s *LatencyStats) pruneLocked(w *window, now time.Time) {
	cutoff := now.Add(-s.maxAge)
	writeIdx := 0
	for _, sm := range w.samples {
		if !sm.timestamp.Before(cutoff) {
			w.samples[writeIdx] = sm
			writeIdx++
		}
	}
	w.samples = w.samples[:writeIdx]

	kept := w.failed[:0]
	for _, at := range w.failed {
		if !at.Before(cutoff) {
			kept = append(kept, at)
		}
	}
	w.failed = kept
}

func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
