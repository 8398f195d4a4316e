package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dgallion1/citeshield/internal/chunker"
	"github.com/dgallion1/citeshield/internal/config"
	"github.com/dgallion1/citeshield/internal/document"
	"github.com/dgallion1/citeshield/internal/parser"
	"github.com/dgallion1/citeshield/internal/pipeline"
	"github.com/dgallion1/citeshield/internal/progress"
	"github.com/dgallion1/citeshield/internal/report"
	"github.com/dgallion1/citeshield/internal/tools"
)

type options struct {
	text     *string
	maxLines int
	overlap  int
	overview int
	logLevel string
	verbose  bool
	pdf      bool
}

func rootCmd() *cobra.Command {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Defaults()
	}
	opts := &options{}
	var text string

	cmd := &cobra.Command{
		Use:   "citeshield",
		Short: "Chunk legal briefs into line-numbered sections for citation review",
		Long: `citeshield splits a brief into overlapping, line-numbered sections and
exposes the same listing, retrieval and search tools a reviewer uses to
locate every citation.

Input is a file path (txt, md, html, pdf, docx, csv), '-' for stdin, or
--text for inline text.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if cmd.Flags().Changed("text") {
				opts.text = &text
			}
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&text, "text", "", "Raw document text instead of a file")
	pf.IntVar(&opts.maxLines, "max-lines", cfg.ChunkMaxLines, "Lines per section")
	pf.IntVar(&opts.overlap, "overlap", cfg.ChunkOverlap, "Lines shared by consecutive sections")
	pf.IntVar(&opts.overview, "overview", cfg.OverviewSections, "Sections included in the overview")
	pf.StringVar(&opts.logLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Log tool events to stderr")
	pf.BoolVar(&opts.pdf, "pdftotext", cfg.PDFFallbackPdftotext, "Fall back to pdftotext for unreadable PDFs")

	cmd.AddCommand(
		sectionsCmd(opts),
		sectionCmd(opts),
		searchCmd(opts),
		overviewCmd(opts),
		annotateCmd(opts),
		toolsCmd(),
		exportCmd(),
	)
	return cmd
}

func sectionsCmd(opts *options) *cobra.Command {
	var start, limit int
	cmd := &cobra.Command{
		Use:   "sections [file|-]",
		Short: "List sections with a short preview",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := opts.open(cmd, args)
			if err != nil {
				return err
			}
			out, err := sess.Tools.List(start, limit)
			return printResult(cmd, out, err)
		},
	}
	cmd.Flags().IntVar(&start, "start", 0, "First section to list")
	cmd.Flags().IntVar(&limit, "limit", 5, "Maximum sections to list")
	return cmd
}

func sectionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "section [file|-] <index>",
		Short: "Print the full numbered text of one section",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, rest, err := opts.open(cmd, args)
			if err != nil {
				return err
			}
			if len(rest) != 1 {
				return errors.New("section index is required")
			}
			index, err := strconv.Atoi(rest[0])
			if err != nil {
				return fmt.Errorf("section index must be an integer, got %q", rest[0])
			}
			out, err := sess.Tools.Get(index)
			return printResult(cmd, out, err)
		},
	}
}

func searchCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search [file|-] <query...>",
		Short: "Keyword search across sections",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, rest, err := opts.open(cmd, args)
			if err != nil {
				return err
			}
			out, err := sess.Tools.Search(strings.Join(rest, " "), limit)
			return printResult(cmd, out, err)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 3, "Maximum results")
	return cmd
}

func overviewCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "overview [file|-]",
		Short: "Print the document overview",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := opts.open(cmd, args)
			if err != nil {
				return err
			}
			stats := chunker.EstimateChunkTokens(sess.Directory.Chunks())
			fmt.Fprintf(cmd.OutOrStdout(), "Document: %s\nTitle: %s\nSections: %d (~%d tokens, largest ~%d)\n\n%s\n",
				sess.DocumentName, sess.Title, sess.Directory.Len(), stats.Total, stats.Largest, sess.Directory.Overview())
			return nil
		},
	}
}

func annotateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "annotate [file|-]",
		Short: "Print the whole document with line numbers",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := opts.open(cmd, args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sess.Annotated)
			return nil
		},
	}
}

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Describe the available document tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TOOL\tARGUMENTS\tDESCRIPTION")
			for _, d := range tools.Definitions() {
				params := make([]string, 0, len(d.Parameters))
				for _, p := range d.Parameters {
					s := p.Name + " " + p.Type
					if p.Required {
						s += " (required)"
					} else if p.Default != nil {
						s += fmt.Sprintf("=%v", p.Default)
					}
					params = append(params, s)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, strings.Join(params, ", "), d.Description)
			}
			return tw.Flush()
		},
	}
}

func exportCmd() *cobra.Command {
	var htmlPath, csvPath, dir string
	cmd := &cobra.Command{
		Use:   "export <report.json>",
		Short: "Render a verification report as HTML and/or CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := readReport(cmd, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if htmlPath == "" && csvPath == "" && dir == "" {
				return printReport(out, rep)
			}

			var saved []string
			if dir != "" {
				base := report.DefaultBasename(rep.DocumentName)
				htmlOut := filepath.Join(dir, base+".html")
				csvOut := filepath.Join(dir, base+".csv")
				if err := report.WriteHTML(rep, htmlOut); err != nil {
					return err
				}
				if err := report.WriteCSV(rep, csvOut); err != nil {
					return err
				}
				saved = append(saved, "HTML report -> "+htmlOut, "CSV report  -> "+csvOut)
			}
			if htmlPath != "" {
				if err := report.WriteHTML(rep, htmlPath); err != nil {
					return err
				}
				saved = append(saved, "HTML report -> "+htmlPath)
			}
			if csvPath != "" {
				if err := report.WriteCSV(rep, csvPath); err != nil {
					return err
				}
				saved = append(saved, "CSV report  -> "+csvPath)
			}
			fmt.Fprintf(out, "Saved report exports:\n%s\n", strings.Join(saved, "\n"))
			return nil
		},
	}
	cmd.Flags().StringVar(&htmlPath, "html", "", "Write an HTML report to this path")
	cmd.Flags().StringVar(&csvPath, "csv", "", "Write a CSV report to this path")
	cmd.Flags().StringVar(&dir, "dir", "", "Directory for both HTML and CSV exports")
	return cmd
}

// open resolves the document input from --text, '-' or a path and prepares
// a session over it. The remaining positional arguments are returned.
func (o *options) open(cmd *cobra.Command, args []string) (*pipeline.Session, []string, error) {
	doc, rest, err := o.document(cmd, args)
	if err != nil {
		return nil, nil, err
	}
	var obs progress.Observer
	if o.verbose {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(o.logLevel)); err != nil {
			lvl = slog.LevelInfo
		}
		obs = progress.Logger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl})))
	}
	sess, err := pipeline.Prepare(doc, chunker.Config{MaxLines: o.maxLines, Overlap: o.overlap}, o.overview, obs)
	if err != nil {
		return nil, nil, err
	}
	return sess, rest, nil
}

func (o *options) document(cmd *cobra.Command, args []string) (*document.Document, []string, error) {
	if o.text != nil {
		if len(args) > 0 && isDocumentArg(cmd, args[0]) {
			return nil, nil, errors.New("cannot supply both a file path and --text")
		}
		if strings.TrimSpace(*o.text) == "" {
			return nil, nil, errors.New("provided --text input is empty")
		}
		return textDocument("inline-text", *o.text), args, nil
	}
	if len(args) == 0 {
		return nil, nil, errors.New("provide a document path or use --text / '-' for stdin input")
	}

	path, rest := args[0], args[1:]
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, nil, fmt.Errorf("read stdin: %w", err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return nil, nil, errors.New("no input received from stdin")
		}
		return textDocument("stdin", string(data)), rest, nil
	}

	loader := parser.Loader{PDFFallback: o.pdf}
	doc, err := loader.Load(path)
	if err != nil {
		return nil, nil, err
	}
	return doc, rest, nil
}

// isDocumentArg reports whether the first positional argument names a
// document rather than a command operand.
func isDocumentArg(cmd *cobra.Command, arg string) bool {
	switch cmd.Name() {
	case "section", "search":
		if arg == "-" {
			return true
		}
		_, err := os.Stat(arg)
		return err == nil
	}
	return true
}

func textDocument(name, text string) *document.Document {
	return &document.Document{Name: name, Title: name, Format: "text", Text: text}
}

func printResult(cmd *cobra.Command, out string, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func readReport(cmd *cobra.Command, path string) (*report.Report, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var rep report.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	if err := rep.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report: %w", err)
	}
	return &rep, nil
}

func printReport(w io.Writer, rep *report.Report) error {
	fmt.Fprintf(w, "Document: %s\nOverall: %s\nCitations: %d total, %d verified, %d flagged, %d not found\n",
		rep.DocumentName, rep.OverallAssessment, rep.TotalCitations, rep.VerifiedCitations,
		rep.FlaggedCitations, rep.UnableToLocate)
	if rep.NarrativeSummary != "" {
		fmt.Fprintf(w, "\n%s\n", rep.NarrativeSummary)
	}
	if len(rep.Citations) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCITATION\tSTATUS\tRISK\tFIX")
	for i, c := range rep.Citations {
		fix := "-"
		if c.RecommendedFix != nil && *c.RecommendedFix != "" {
			fix = *c.RecommendedFix
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, c.CitationText, c.VerificationStatus, c.RiskLevel, fix)
	}
	return tw.Flush()
}
