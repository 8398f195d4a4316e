// Package tools exposes the section directory as named tool calls for an
// external reasoning process.
package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgallion1/citeshield/internal/progress"
	"github.com/dgallion1/citeshield/internal/sections"
)

const (
	ListSections   = "list_brief_sections"
	GetSection     = "get_brief_section"
	SearchSections = "search_brief_sections"
)

var (
	ErrUnknownTool  = errors.New("unknown tool")
	ErrBadArguments = errors.New("invalid tool arguments")
)

// Parameter describes one tool argument.
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Default     any    `json:"default,omitempty"`
	Description string `json:"description"`
}

// Definition describes a tool for callers deciding which one to invoke.
type Definition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
}

// Definitions lists the available tools in a stable order.
func Definitions() []Definition {
	return []Definition{
		{
			Name:        ListSections,
			Description: "Quick index of document sections, accepts pagination arguments.",
			Parameters: []Parameter{
				{Name: "start_section", Type: "integer", Default: 0, Description: "Index of the first section to list."},
				{Name: "limit", Type: "integer", Default: sections.DefaultListLimit, Description: "Maximum number of sections to return."},
			},
		},
		{
			Name:        GetSection,
			Description: "Returns verbatim text (with line numbers) for a section.",
			Parameters: []Parameter{
				{Name: "section_index", Type: "integer", Required: true, Description: "Zero-based index of the section."},
			},
		},
		{
			Name:        SearchSections,
			Description: "Keyword search to find relevant passages.",
			Parameters: []Parameter{
				{Name: "query", Type: "string", Description: "Case name, reporter cite, statute number or legal concept."},
				{Name: "limit", Type: "integer", Default: sections.DefaultSearchLimit, Description: "Maximum number of results."},
			},
		},
	}
}

type listArgs struct {
	StartSection int  `json:"start_section"`
	Limit        *int `json:"limit"`
}

type getArgs struct {
	SectionIndex *int `json:"section_index"`
}

type searchArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// Dispatcher runs tool calls against one directory and reports each call to
// an observer.
type Dispatcher struct {
	dir   *sections.Directory
	obs   progress.Observer
	runID string
}

// NewDispatcher binds a directory. obs may be nil.
func NewDispatcher(runID string, dir *sections.Directory, obs progress.Observer) *Dispatcher {
	if obs == nil {
		obs = progress.Discard
	}
	return &Dispatcher{dir: dir, obs: obs, runID: runID}
}

// Invoke runs the named tool with JSON-encoded arguments. Empty args use the
// tool defaults.
func (d *Dispatcher) Invoke(name string, args json.RawMessage) (string, error) {
	argText := compact(args)
	d.obs.Observe(progress.Event{Kind: progress.KindToolStarted, RunID: d.runID, Tool: name, Args: argText})

	start := time.Now()
	out, err := d.run(name, args)
	elapsed := time.Since(start)

	if err != nil {
		d.obs.Observe(progress.Event{
			Kind: progress.KindToolFailed, RunID: d.runID, Tool: name, Args: argText,
			Detail: err.Error(), Duration: elapsed,
		})
		return "", err
	}
	d.obs.Observe(progress.Event{
		Kind: progress.KindToolFinished, RunID: d.runID, Tool: name, Args: argText,
		Detail: truncate(out, 80), Duration: elapsed,
	})
	return out, nil
}

// List is a typed shortcut for list_brief_sections.
func (d *Dispatcher) List(start, limit int) (string, error) {
	return d.Invoke(ListSections, mustJSON(listArgs{StartSection: start, Limit: &limit}))
}

// Get is a typed shortcut for get_brief_section.
func (d *Dispatcher) Get(index int) (string, error) {
	return d.Invoke(GetSection, mustJSON(getArgs{SectionIndex: &index}))
}

// Search is a typed shortcut for search_brief_sections.
func (d *Dispatcher) Search(query string, limit int) (string, error) {
	return d.Invoke(SearchSections, mustJSON(searchArgs{Query: query, Limit: limit}))
}

func (d *Dispatcher) run(name string, raw json.RawMessage) (string, error) {
	switch name {
	case ListSections:
		var a listArgs
		if err := decode(raw, &a); err != nil {
			return "", err
		}
		limit := sections.DefaultListLimit
		if a.Limit != nil {
			limit = *a.Limit
		}
		return d.dir.List(a.StartSection, limit), nil
	case GetSection:
		var a getArgs
		if err := decode(raw, &a); err != nil {
			return "", err
		}
		if a.SectionIndex == nil {
			return "", fmt.Errorf("%w: section_index is required", ErrBadArguments)
		}
		return d.dir.Section(*a.SectionIndex)
	case SearchSections:
		var a searchArgs
		if err := decode(raw, &a); err != nil {
			return "", err
		}
		return d.dir.Search(a.Query, a.Limit), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
}

func decode(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %s", ErrBadArguments, err)
	}
	return nil
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func compact(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return truncate(string(raw), 200)
	}
	return truncate(buf.String(), 200)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
