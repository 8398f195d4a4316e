// Package progress carries run activity as immutable events delivered to
// observers, in place of shared progress counters.
package progress

import (
	"log/slog"
	"sync"
	"time"
)

// Kind identifies what an Event reports.
type Kind string

const (
	KindRunStarted      Kind = "run_started"
	KindDocumentChunked Kind = "document_chunked"
	KindToolStarted     Kind = "tool_started"
	KindToolFinished    Kind = "tool_finished"
	KindToolFailed      Kind = "tool_failed"
	KindReportSubmitted Kind = "report_submitted"
)

// Event is a single record of run activity. Seq and At are stamped by Log.
type Event struct {
	Seq      int           `json:"seq"`
	At       time.Time     `json:"at"`
	Kind     Kind          `json:"kind"`
	RunID    string        `json:"run_id,omitempty"`
	Document string        `json:"document,omitempty"`
	Tool     string        `json:"tool,omitempty"`
	Args     string        `json:"args,omitempty"`
	Detail   string        `json:"detail,omitempty"`
	Chunks   int           `json:"chunks,omitempty"`
	Duration time.Duration `json:"duration_ns,omitempty"`
}

// Observer receives events. Implementations must not retain pointers into
// caller state; events are passed by value.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// Discard drops every event.
var Discard Observer = ObserverFunc(func(Event) {})

type fanout []Observer

func (f fanout) Observe(e Event) {
	for _, o := range f {
		o.Observe(e)
	}
}

// Fanout delivers each event to every non-nil observer in order.
func Fanout(observers ...Observer) Observer {
	var out fanout
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

// Log is an append-only event recorder. Recorded events are never modified;
// readers get copies.
type Log struct {
	mu     sync.Mutex
	events []Event
	next   Observer
	now    func() time.Time
}

// NewLog returns an empty log that forwards stamped events to next (may be nil).
func NewLog(next Observer) *Log {
	return &Log{next: next, now: time.Now}
}

// Observe stamps and appends an event, then forwards it.
func (l *Log) Observe(e Event) {
	l.mu.Lock()
	e.Seq = len(l.events) + 1
	if e.At.IsZero() {
		e.At = l.now()
	}
	l.events = append(l.events, e)
	next := l.next
	l.mu.Unlock()

	if next != nil {
		next.Observe(e)
	}
}

// Events returns the events with Seq greater than since.
func (l *Log) Events(since int) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	since = max(since, 0)
	if since >= len(l.events) {
		return []Event{}
	}
	out := make([]Event, len(l.events)-since)
	copy(out, l.events[since:])
	return out
}

// Len returns the number of recorded events.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Logger writes each event as a structured log line.
func Logger(log *slog.Logger) Observer {
	return ObserverFunc(func(e Event) {
		attrs := []any{"kind", e.Kind, "seq", e.Seq}
		if e.RunID != "" {
			attrs = append(attrs, "run_id", e.RunID)
		}
		if e.Tool != "" {
			attrs = append(attrs, "tool", e.Tool)
		}
		if e.Chunks > 0 {
			attrs = append(attrs, "chunks", e.Chunks)
		}
		if e.Duration > 0 {
			attrs = append(attrs, "duration_ms", e.Duration.Milliseconds())
		}
		if e.Kind == KindToolFailed {
			log.Warn("run event", append(attrs, "error", e.Detail)...)
			return
		}
		log.Info("run event", attrs...)
	})
}
