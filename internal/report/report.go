// Package report holds the structured verdict produced for a verified brief
// and the derived summary counts.
package report

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the verification outcome for one citation.
type Status string

const (
	StatusVerified     Status = "verified"
	StatusNeedsReview  Status = "needs_review"
	StatusNotFound     Status = "not_found"
	StatusContradicted Status = "contradicted"
)

// CitationType is the kind of authority cited.
type CitationType string

const (
	TypeCase       CitationType = "case"
	TypeStatute    CitationType = "statute"
	TypeRegulation CitationType = "regulation"
	TypeSecondary  CitationType = "secondary"
	TypeUnknown    CitationType = "unknown"
)

// Risk is how urgent a citation is to fix before filing.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// Overall is the aggregate verdict for the whole document.
type Overall string

const (
	OverallPass        Overall = "pass"
	OverallNeedsReview Overall = "needs_review"
	OverallHighRisk    Overall = "high_risk"
)

func (s Status) Valid() bool {
	switch s {
	case StatusVerified, StatusNeedsReview, StatusNotFound, StatusContradicted:
		return true
	}
	return false
}

func (c CitationType) Valid() bool {
	switch c {
	case TypeCase, TypeStatute, TypeRegulation, TypeSecondary, TypeUnknown:
		return true
	}
	return false
}

func (r Risk) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

func (o Overall) Valid() bool {
	switch o {
	case OverallPass, OverallNeedsReview, OverallHighRisk:
		return true
	}
	return false
}

// Assessment is the verdict for a single citation.
type Assessment struct {
	CitationText          string       `json:"citation_text"`
	CitationType          CitationType `json:"citation_type"`
	PropositionSummary    string       `json:"proposition_summary"`
	VerificationStatus    Status       `json:"verification_status"`
	Reasoning             string       `json:"reasoning"`
	SupportingAuthorities []string     `json:"supporting_authorities"`
	RiskLevel             Risk         `json:"risk_level"`
	RecommendedFix        *string      `json:"recommended_fix"`
}

// Report is the complete verdict for one document.
type Report struct {
	DocumentName      string       `json:"document_name"`
	OverallAssessment Overall      `json:"overall_assessment"`
	TotalCitations    int          `json:"total_citations"`
	VerifiedCitations int          `json:"verified_citations"`
	FlaggedCitations  int          `json:"flagged_citations"`
	UnableToLocate    int          `json:"unable_to_locate"`
	NarrativeSummary  string       `json:"narrative_summary"`
	Citations         []Assessment `json:"citations"`
}

// Validate reports every schema problem in r, joined.
func (r *Report) Validate() error {
	var errs []error
	if strings.TrimSpace(r.DocumentName) == "" {
		errs = append(errs, errors.New("document_name is required"))
	}
	if !r.OverallAssessment.Valid() {
		errs = append(errs, fmt.Errorf("overall_assessment %q is not one of pass, needs_review, high_risk", r.OverallAssessment))
	}
	counts := []struct {
		name string
		n    int
	}{
		{"total_citations", r.TotalCitations},
		{"verified_citations", r.VerifiedCitations},
		{"flagged_citations", r.FlaggedCitations},
		{"unable_to_locate", r.UnableToLocate},
	}
	for _, c := range counts {
		if c.n < 0 {
			errs = append(errs, fmt.Errorf("%s cannot be negative (got %d)", c.name, c.n))
		}
	}
	for i, c := range r.Citations {
		if err := c.validate(); err != nil {
			errs = append(errs, fmt.Errorf("citations[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func (a Assessment) validate() error {
	var errs []error
	if strings.TrimSpace(a.CitationText) == "" {
		errs = append(errs, errors.New("citation_text is required"))
	}
	if !a.CitationType.Valid() {
		errs = append(errs, fmt.Errorf("citation_type %q is invalid", a.CitationType))
	}
	if !a.VerificationStatus.Valid() {
		errs = append(errs, fmt.Errorf("verification_status %q is invalid", a.VerificationStatus))
	}
	if !a.RiskLevel.Valid() {
		errs = append(errs, fmt.Errorf("risk_level %q is invalid", a.RiskLevel))
	}
	return errors.Join(errs...)
}

// Counts are the summary figures derived from a citation list.
type Counts struct {
	Total    int
	Verified int
	Flagged  int
	NotFound int
}

// Tally counts citations by status. Flagged covers needs_review and
// contradicted.
func Tally(citations []Assessment) Counts {
	c := Counts{Total: len(citations)}
	for _, a := range citations {
		switch a.VerificationStatus {
		case StatusVerified:
			c.Verified++
		case StatusNeedsReview, StatusContradicted:
			c.Flagged++
		case StatusNotFound:
			c.NotFound++
		}
	}
	return c
}

// Assess derives the overall verdict. A report passes only when it has at
// least one citation and every citation is verified.
func Assess(citations []Assessment) Overall {
	if len(citations) == 0 {
		return OverallNeedsReview
	}
	allVerified := true
	for _, a := range citations {
		if a.VerificationStatus == StatusContradicted || a.RiskLevel == RiskHigh {
			return OverallHighRisk
		}
		if a.VerificationStatus != StatusVerified {
			allVerified = false
		}
	}
	if allVerified {
		return OverallPass
	}
	return OverallNeedsReview
}

// NewReport builds a report whose counts and overall verdict are derived
// from citations.
func NewReport(documentName, narrative string, citations []Assessment) *Report {
	c := Tally(citations)
	return &Report{
		DocumentName:      documentName,
		OverallAssessment: Assess(citations),
		TotalCitations:    c.Total,
		VerifiedCitations: c.Verified,
		FlaggedCitations:  c.Flagged,
		UnableToLocate:    c.NotFound,
		NarrativeSummary:  narrative,
		Citations:         citations,
	}
}
