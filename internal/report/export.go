package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const fallbackBasename = "citation-report"

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// DefaultBasename derives a filesystem-friendly export name from a document
// name: the extension is dropped, runs of unsafe characters become "-", and
// the result is lower-cased.
func DefaultBasename(documentName string) string {
	base := filepath.Base(documentName)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	slug := strings.Trim(unsafeName.ReplaceAllString(stem, "-"), "-_")
	if slug == "" {
		return fallbackBasename
	}
	return strings.ToLower(slug)
}

type summaryRow struct {
	Label string
	Value string
	Badge string
}

type evidence struct {
	Text string
	URL  bool
}

type citationRow struct {
	Index int
	Assessment
	Fix      string
	Evidence []evidence
}

type htmlView struct {
	Title      string
	Summary    []summaryRow
	Paragraphs []string
	Citations  []citationRow
}

var page = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; margin: 2rem; line-height: 1.5; color: #1f2933; background: #f9fafb; }
        h1, h2 { color: #0b7285; }
        table { border-collapse: collapse; width: 100%; margin-bottom: 2rem; background: #fff; box-shadow: 0 1px 3px rgba(15, 23, 42, 0.12); }
        table th, table td { padding: 0.75rem; border-bottom: 1px solid #e2e8f0; vertical-align: top; }
        table th { text-align: left; background: #e7f5ff; font-weight: 600; }
        .summary-table { width: auto; }
        .summary-table th { width: 16rem; }
        .badge { display: inline-block; padding: 0.25rem 0.5rem; border-radius: 999px; font-size: 0.85rem; background: #f1f5f9; color: #0f172a; }
        .badge.pass, .badge.verified { background: #c8e6c9; color: #1b5e20; }
        .badge.needs_review { background: #fff3bf; color: #8a6d3b; }
        .badge.high_risk { background: #ffcdd2; color: #b71c1c; }
        .badge.not_found { background: #ffe8cc; color: #7f4f24; }
        .badge.contradicted { background: #f8d7da; color: #842029; }
        .empty-state { font-style: italic; color: #64748b; }
        ul.supporting { margin: 0; padding-left: 1.5rem; }
        ul.supporting li { margin-bottom: 0.35rem; }
        a { color: #0b7285; }
    </style>
</head>
<body>
    <h1>{{.Title}}</h1>
    <section>
        <h2>Report Summary</h2>
        <table class="summary-table">
            <tbody>
{{- range .Summary}}
                <tr><th>{{.Label}}</th><td>{{if .Badge}}<span class="badge {{.Badge}}">{{.Value}}</span>{{else}}{{.Value}}{{end}}</td></tr>
{{- end}}
            </tbody>
        </table>
    </section>
    <section>
        <h2>Narrative Summary</h2>
{{- range .Paragraphs}}
        <p>{{.}}</p>
{{- else}}
        <p class="empty-state">No narrative summary provided.</p>
{{- end}}
    </section>
    <section>
        <h2>Citation Details</h2>
{{- if .Citations}}
        <table class="citations">
            <thead>
                <tr>
                    <th>#</th>
                    <th>Citation</th>
                    <th>Type</th>
                    <th>Status</th>
                    <th>Risk</th>
                    <th>Proposition Summary</th>
                    <th>Reasoning</th>
                    <th>Recommended Fix</th>
                    <th>Supporting Evidence</th>
                </tr>
            </thead>
            <tbody>
{{- range .Citations}}
                <tr>
                    <td>{{.Index}}</td>
                    <td>{{.CitationText}}</td>
                    <td>{{.CitationType}}</td>
                    <td><span class="badge {{.VerificationStatus}}">{{.VerificationStatus}}</span></td>
                    <td>{{.RiskLevel}}</td>
                    <td>{{.PropositionSummary}}</td>
                    <td>{{.Reasoning}}</td>
                    <td>{{.Fix}}</td>
                    <td>{{if .Evidence}}<ul class="supporting">{{range .Evidence}}{{if .URL}}<li><a href="{{.Text}}" target="_blank" rel="noopener noreferrer">{{.Text}}</a></li>{{else}}<li>{{.Text}}</li>{{end}}{{end}}</ul>{{else}}<span class="empty-state">No supporting evidence provided.</span>{{end}}</td>
                </tr>
{{- end}}
            </tbody>
        </table>
{{- else}}
        <p class="empty-state">No citations were included in this report.</p>
{{- end}}
    </section>
</body>
</html>
`))

// HTML renders r as a standalone HTML page.
func HTML(r *Report) (string, error) {
	view := htmlView{
		Title: "Citation Verification Report - " + r.DocumentName,
		Summary: []summaryRow{
			{Label: "Document", Value: r.DocumentName},
			{
				Label: "Overall Assessment",
				Value: cases.Title(language.English).String(strings.ReplaceAll(string(r.OverallAssessment), "_", " ")),
				Badge: strings.ReplaceAll(string(r.OverallAssessment), " ", "_"),
			},
			{Label: "Total Citations", Value: strconv.Itoa(r.TotalCitations)},
			{Label: "Verified Citations", Value: strconv.Itoa(r.VerifiedCitations)},
			{Label: "Flagged Citations", Value: strconv.Itoa(r.FlaggedCitations)},
			{Label: "Unable to Locate", Value: strconv.Itoa(r.UnableToLocate)},
		},
	}
	for _, line := range strings.Split(r.NarrativeSummary, "\n") {
		if strings.TrimSpace(line) != "" {
			view.Paragraphs = append(view.Paragraphs, strings.TrimRight(line, "\r"))
		}
	}
	for i, c := range r.Citations {
		row := citationRow{Index: i + 1, Assessment: c, Fix: "—"}
		if c.RecommendedFix != nil && *c.RecommendedFix != "" {
			row.Fix = *c.RecommendedFix
		}
		for _, a := range c.SupportingAuthorities {
			a = strings.TrimSpace(a)
			if a == "" {
				continue
			}
			row.Evidence = append(row.Evidence, evidence{Text: a, URL: looksLikeURL(a)})
		}
		view.Citations = append(view.Citations, row)
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

func looksLikeURL(s string) bool {
	s = strings.ToLower(s)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// CSV renders r as summary rows, a blank row, a header and one row per
// citation.
func CSV(r *Report) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true

	records := [][]string{
		{"document_name", r.DocumentName},
		{"overall_assessment", string(r.OverallAssessment)},
		{"total_citations", strconv.Itoa(r.TotalCitations)},
		{"verified_citations", strconv.Itoa(r.VerifiedCitations)},
		{"flagged_citations", strconv.Itoa(r.FlaggedCitations)},
		{"unable_to_locate", strconv.Itoa(r.UnableToLocate)},
		{"narrative_summary", r.NarrativeSummary},
		{},
		{
			"index", "citation_text", "citation_type", "verification_status", "risk_level",
			"proposition_summary", "reasoning", "recommended_fix", "supporting_authorities",
		},
	}
	for i, c := range r.Citations {
		fix := ""
		if c.RecommendedFix != nil {
			fix = *c.RecommendedFix
		}
		records = append(records, []string{
			strconv.Itoa(i + 1),
			c.CitationText,
			string(c.CitationType),
			string(c.VerificationStatus),
			string(c.RiskLevel),
			c.PropositionSummary,
			c.Reasoning,
			fix,
			strings.Join(c.SupportingAuthorities, " | "),
		})
	}
	if err := w.WriteAll(records); err != nil {
		return "", fmt.Errorf("render csv: %w", err)
	}
	return buf.String(), nil
}

// WriteHTML renders r to path, creating parent directories.
func WriteHTML(r *Report, path string) error {
	out, err := HTML(r)
	if err != nil {
		return err
	}
	return writeFile(path, out)
}

// WriteCSV renders r to path, creating parent directories.
func WriteCSV(r *Report, path string) error {
	out, err := CSV(r)
	if err != nil {
		return err
	}
	return writeFile(path, out)
}

func writeFile(path, contents string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
