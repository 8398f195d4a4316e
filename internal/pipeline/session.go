package pipeline

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/citeshield/internal/progress"
	"github.com/dgallion1/citeshield/internal/report"
	"github.com/dgallion1/citeshield/internal/sections"
	"github.com/dgallion1/citeshield/internal/tools"
)

// Session is one verification run over a single document. Everything but
// the report slot and the access time is fixed once Prepare returns.
type Session struct {
	ID           string
	DocumentName string
	Title        string
	Format       string
	ContentHash  string
	Annotated    string
	Directory    *sections.Directory
	Tools        *tools.Dispatcher
	Events       *progress.Log
	CreatedAt    time.Time

	mu         sync.Mutex
	report     *report.Report
	lastAccess time.Time
}

// Touch marks the session as used now.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = time.Now()
}

// LastAccess returns when the session was last used.
func (s *Session) LastAccess() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

// SetReport validates and stores the final report for the run.
func (s *Session) SetReport(r *report.Report) error {
	if r == nil {
		return errors.New("report is required")
	}
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid report: %w", err)
	}
	s.mu.Lock()
	s.report = r
	s.lastAccess = time.Now()
	s.mu.Unlock()

	s.Events.Observe(progress.Event{
		Kind:     progress.KindReportSubmitted,
		RunID:    s.ID,
		Document: s.DocumentName,
		Detail:   string(r.OverallAssessment),
	})
	return nil
}

// Report returns the submitted report, or nil before one is submitted.
func (s *Session) Report() *report.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// SessionSnapshot is a read-only, JSON-safe copy of session state.
type SessionSnapshot struct {
	ID           string    `json:"brief_id"`
	DocumentName string    `json:"document_name"`
	Title        string    `json:"title"`
	Format       string    `json:"format"`
	ContentHash  string    `json:"content_hash"`
	Sections     int       `json:"sections"`
	Events       int       `json:"events"`
	HasReport    bool      `json:"has_report"`
	Overall      string    `json:"overall_assessment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccess   time.Time `json:"last_access"`
}

// Snapshot returns a JSON-safe copy of the session state.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := SessionSnapshot{
		ID:           s.ID,
		DocumentName: s.DocumentName,
		Title:        s.Title,
		Format:       s.Format,
		ContentHash:  s.ContentHash,
		Sections:     s.Directory.Len(),
		Events:       s.Events.Len(),
		HasReport:    s.report != nil,
		CreatedAt:    s.CreatedAt,
		LastAccess:   s.lastAccess,
	}
	if s.report != nil {
		snap.Overall = string(s.report.OverallAssessment)
	}
	return snap
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
