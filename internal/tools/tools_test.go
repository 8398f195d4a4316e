package tools

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/citeshield/internal/chunker"
	"github.com/dgallion1/citeshield/internal/progress"
	"github.com/dgallion1/citeshield/internal/sections"
)

const brief = `Introduction
The plaintiff relies on Brown v. Board of Education, 347 U.S. 483 (1954).
Argument
Under 42 U.S.C. § 1983 the defendant is liable.
Conclusion
The motion should be granted.`

func newDispatcher(t *testing.T) (*Dispatcher, *progress.Log) {
	t.Helper()
	chunks, err := chunker.Chunk(brief, chunker.Config{MaxLines: 2, Overlap: 0})
	if err != nil {
		t.Fatalf("chunk: %v", err)
	}
	log := progress.NewLog(nil)
	return NewDispatcher("run-1", sections.New("brief.txt", chunks, 0), log), log
}

func TestDefinitions(t *testing.T) {
	defs := Definitions()
	if len(defs) != 3 {
		t.Fatalf("expected 3 definitions, got %d", len(defs))
	}
	names := []string{ListSections, GetSection, SearchSections}
	for i, d := range defs {
		if d.Name != names[i] {
			t.Errorf("definition %d: expected %s, got %s", i, names[i], d.Name)
		}
		if d.Description == "" {
			t.Errorf("%s: missing description", d.Name)
		}
	}
	if !defs[1].Parameters[0].Required {
		t.Error("expected section_index to be required")
	}
}

func TestInvoke_ListDefaults(t *testing.T) {
	d, _ := newDispatcher(t)
	out, err := d.Invoke(ListSections, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows := strings.Split(out, "\n"); len(rows) != 3 {
		t.Errorf("expected all 3 sections, got %d rows", len(rows))
	}
}

func TestInvoke_ListPaged(t *testing.T) {
	d, _ := newDispatcher(t)
	out, err := d.Invoke(ListSections, json.RawMessage(`{"start_section":1,"limit":1}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "Section 1 (lines 3-4)") || strings.Contains(out, "\n") {
		t.Errorf("expected only section 1, got %q", out)
	}
}

func TestInvoke_Get(t *testing.T) {
	d, _ := newDispatcher(t)
	out, err := d.Invoke(GetSection, json.RawMessage(`{"section_index":1}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Section 1 (lines 3-4):\n0003: Argument\n0004: Under 42 U.S.C. § 1983 the defendant is liable."
	if out != want {
		t.Errorf("expected %q, got %q", want, out)
	}
}

func TestInvoke_GetOutOfRange(t *testing.T) {
	d, log := newDispatcher(t)
	_, err := d.Invoke(GetSection, json.RawMessage(`{"section_index":9}`))
	if !errors.Is(err, sections.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if err.Error() != "section index 9 is invalid, valid range: 0-2" {
		t.Errorf("unexpected message %q", err.Error())
	}
	events := log.Events(0)
	if last := events[len(events)-1]; last.Kind != progress.KindToolFailed || last.Detail != err.Error() {
		t.Errorf("expected tool_failed event with error detail, got %+v", last)
	}
}

func TestInvoke_GetRequiresIndex(t *testing.T) {
	d, _ := newDispatcher(t)
	for _, args := range []string{``, `{}`} {
		if _, err := d.Invoke(GetSection, json.RawMessage(args)); !errors.Is(err, ErrBadArguments) {
			t.Errorf("args %q: expected ErrBadArguments, got %v", args, err)
		}
	}
}

func TestInvoke_Search(t *testing.T) {
	d, _ := newDispatcher(t)
	out, err := d.Invoke(SearchSections, json.RawMessage(`{"query":"Brown Board"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "Section 0 ") {
		t.Errorf("expected section 0 first, got %q", out)
	}
	out, _ = d.Search("zzzz", 3)
	if out != sections.NoMatches {
		t.Errorf("expected no matches message, got %q", out)
	}
}

func TestInvoke_BadArguments(t *testing.T) {
	d, _ := newDispatcher(t)
	cases := []struct {
		tool string
		args string
	}{
		{ListSections, `{"start":1}`},
		{ListSections, `{"limit":"five"}`},
		{SearchSections, `not json`},
		{GetSection, `{"section_index":1.5}`},
	}
	for _, tc := range cases {
		if _, err := d.Invoke(tc.tool, json.RawMessage(tc.args)); !errors.Is(err, ErrBadArguments) {
			t.Errorf("%s %s: expected ErrBadArguments, got %v", tc.tool, tc.args, err)
		}
	}
}

func TestInvoke_UnknownTool(t *testing.T) {
	d, _ := newDispatcher(t)
	if _, err := d.Invoke("delete_everything", nil); !errors.Is(err, ErrUnknownTool) {
		t.Errorf("expected ErrUnknownTool, got %v", err)
	}
}

func TestInvoke_EmitsEvents(t *testing.T) {
	d, log := newDispatcher(t)
	if _, err := d.Get(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events := log.Events(0)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Kind != progress.KindToolStarted || events[1].Kind != progress.KindToolFinished {
		t.Errorf("expected started then finished, got %s, %s", events[0].Kind, events[1].Kind)
	}
	for _, e := range events {
		if e.Tool != GetSection || e.RunID != "run-1" {
			t.Errorf("unexpected event identity %+v", e)
		}
		if e.Args != `{"section_index":0}` {
			t.Errorf("expected compact args, got %q", e.Args)
		}
	}
	if events[1].Detail == "" {
		t.Error("expected result preview in finished event")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("expected unchanged, got %q", got)
	}
	if got := truncate("abcdefghij", 5); got != "abcd…" {
		t.Errorf("expected abcd…, got %q", got)
	}
}
