package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/citeshield/internal/chunker"
	"github.com/dgallion1/citeshield/internal/document"
	"github.com/dgallion1/citeshield/internal/progress"
	"github.com/dgallion1/citeshield/internal/report"
)

func sampleDoc() *document.Document {
	return &document.Document{
		Name:   "brief.txt",
		Title:  "brief",
		Format: "text",
		Text:   "Intro\nBrown v. Board, 347 U.S. 483\nArgument\nMore text\nConclusion",
	}
}

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_EmptyInput(t *testing.T) {
	h := ContentHashHex([]byte{})
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if h != want {
		t.Errorf("expected hash %q, got %q", want, h)
	}
}

func TestPrepare_BuildsSession(t *testing.T) {
	var forwarded []progress.Event
	obs := progress.ObserverFunc(func(e progress.Event) { forwarded = append(forwarded, e) })

	sess, err := Prepare(sampleDoc(), chunker.Config{MaxLines: 2, Overlap: 0}, 2, obs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.ID == "" {
		t.Error("expected session ID")
	}
	if sess.Directory.Len() != 3 {
		t.Errorf("expected 3 sections, got %d", sess.Directory.Len())
	}
	if !strings.HasPrefix(sess.Annotated, "0001: Intro\n0002: Brown") {
		t.Errorf("unexpected annotated text %q", sess.Annotated)
	}
	if sess.ContentHash != ContentHashHex([]byte(sampleDoc().Text)) {
		t.Error("expected content hash of document text")
	}

	events := sess.Events.Events(0)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Kind != progress.KindRunStarted || events[1].Kind != progress.KindDocumentChunked {
		t.Errorf("unexpected event kinds %s, %s", events[0].Kind, events[1].Kind)
	}
	if events[1].Chunks != 3 || events[1].RunID != sess.ID {
		t.Errorf("unexpected chunked event %+v", events[1])
	}
	if len(forwarded) != 2 {
		t.Errorf("expected events forwarded to observer, got %d", len(forwarded))
	}
}

func TestPrepare_InvalidConfig(t *testing.T) {
	_, err := Prepare(sampleDoc(), chunker.Config{MaxLines: 3, Overlap: 3}, 5, nil)
	if !errors.Is(err, chunker.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestSession_ToolCallsRecorded(t *testing.T) {
	sess, err := Prepare(sampleDoc(), chunker.Config{MaxLines: 2, Overlap: 0}, 5, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := sess.Tools.Search("Brown", 3); err != nil {
		t.Fatalf("search: %v", err)
	}
	if got := sess.Events.Len(); got != 4 {
		t.Errorf("expected 4 events after one tool call, got %d", got)
	}
}

func TestSession_SetReport(t *testing.T) {
	sess, err := Prepare(sampleDoc(), chunker.DefaultConfig(), 5, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Report() != nil {
		t.Fatal("expected no report before submission")
	}

	if err := sess.SetReport(&report.Report{DocumentName: "brief.txt", OverallAssessment: "nope"}); err == nil {
		t.Error("expected invalid report to be rejected")
	}
	if sess.Report() != nil {
		t.Error("expected rejected report not to be stored")
	}

	r := report.NewReport("brief.txt", "ok", nil)
	if err := sess.SetReport(r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Report() != r {
		t.Error("expected stored report")
	}
	snap := sess.Snapshot()
	if !snap.HasReport || snap.Overall != string(report.OverallNeedsReview) {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	events := sess.Events.Events(0)
	if last := events[len(events)-1]; last.Kind != progress.KindReportSubmitted {
		t.Errorf("expected report_submitted event, got %s", last.Kind)
	}
}

func TestStore_PutGetDelete(t *testing.T) {
	store := NewStore(time.Hour)
	sess := &Session{ID: "store-1", lastAccess: time.Now()}
	store.Put(sess)

	got := store.Get("store-1")
	if got == nil || got.ID != "store-1" {
		t.Fatalf("expected to get session back, got %+v", got)
	}
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing session")
	}
	if !store.Delete("store-1") || store.Delete("store-1") {
		t.Error("expected delete to report existence once")
	}
	if store.Len() != 0 {
		t.Errorf("expected empty store, got %d", store.Len())
	}
}

func TestStore_TTLCleanup(t *testing.T) {
	store := NewStore(50 * time.Millisecond)
	store.Put(&Session{ID: "old", lastAccess: time.Now().Add(-time.Second)})
	store.Put(&Session{ID: "new", lastAccess: time.Now()})

	if n := store.Cleanup(); n != 1 {
		t.Errorf("expected 1 removed, got %d", n)
	}
	if store.Get("old") != nil {
		t.Error("expected expired session to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh session to survive cleanup")
	}
}

func TestStore_GetRefreshesAccess(t *testing.T) {
	store := NewStore(time.Hour)
	sess := &Session{ID: "s", lastAccess: time.Now().Add(-30 * time.Minute)}
	store.Put(sess)
	before := sess.LastAccess()
	store.Get("s")
	if !sess.LastAccess().After(before) {
		t.Error("expected Get to refresh last access")
	}
}

func TestService_OpenGetDelete(t *testing.T) {
	svc := NewService(Options{Chunk: chunker.DefaultConfig(), OverviewLimit: 5, SessionTTL: time.Hour}, nil)
	sess, err := svc.Open(sampleDoc(), svc.DefaultChunkConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := svc.Get(sess.ID)
	if err != nil || got != sess {
		t.Fatalf("expected session back, got %v, %v", got, err)
	}
	if err := svc.Delete(sess.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if err := svc.Delete(sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound on second delete, got %v", err)
	}
}

func TestService_JanitorExpiresSessions(t *testing.T) {
	svc := NewService(Options{
		Chunk:           chunker.DefaultConfig(),
		SessionTTL:      time.Millisecond,
		CleanupInterval: 5 * time.Millisecond,
	}, nil)
	if _, err := svc.Open(sampleDoc(), svc.DefaultChunkConfig()); err != nil {
		t.Fatalf("open: %v", err)
	}
	svc.Start(context.Background())
	defer svc.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for svc.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if svc.Len() != 0 {
		t.Errorf("expected janitor to expire session, %d left", svc.Len())
	}
}

func TestService_StopWithoutStart(t *testing.T) {
	svc := NewService(Options{}, nil)
	svc.Stop()
}
