// Package audit runs a documentation-coverage audit: it extracts the public
// symbols of a source tree and the identifiers mentioned in a design
// document, compares them, and writes the gap report.
package audit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/phobologic/gapaudit/internal/lang"
	"github.com/phobologic/gapaudit/internal/mentions"
	"github.com/phobologic/gapaudit/internal/model"
	"github.com/phobologic/gapaudit/internal/parse"
	"github.com/phobologic/gapaudit/internal/report"
	"github.com/phobologic/gapaudit/internal/symbols"
)

// DefaultOutputPath is where the report is written when no path is given.
const DefaultOutputPath = "gap_report_rust.json"

// Options configures one audit run.
type Options struct {
	CodeDir    string
	DocPath    string
	OutputPath string

	// Format of the report; empty infers it from OutputPath.
	Format string
	// Mode is the extraction mode name; empty means lexical.
	Mode string
	// Language names the registered language to audit; empty means Rust.
	Language string
	// Extension overrides the language's source file suffix.
	Extension string

	Exclude          []string
	RespectGitignore bool
	Workers          int
	MaxFileSize      int64

	// Warnings receives the user-facing warnings of both extractors.
	Warnings io.Writer
	Progress io.Writer
	Logger   *slog.Logger
}

// Normalize fills defaults and validates the language. An empty CodeDir is
// an empty tree and an empty DocPath a missing document; requiring them is
// up to the caller.
func (o *Options) Normalize() error {
	if o.OutputPath == "" {
		o.OutputPath = DefaultOutputPath
	}
	if o.Language == "" {
		o.Language = lang.ForExtension(filepath.Ext(o.Extension))
	}
	if o.Language == "" {
		o.Language = lang.Rust
	}
	if _, ok := lang.Languages[o.Language]; !ok {
		return fmt.Errorf("unsupported language %q", o.Language)
	}
	if o.Extension == "" {
		o.Extension = lang.Languages[o.Language].Extensions[0]
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return nil
}

// Result is the output of an audit run.
type Result struct {
	Report     *model.GapReport
	ReportPath string
	Format     report.Format
	Scan       symbols.Stats
}

// Run executes an audit and writes the report. Unreadable source files and a
// missing or unreadable document produce warnings, never errors.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Normalize(); err != nil {
		return nil, err
	}

	mode, err := parse.ParseMode(opts.Mode)
	if err != nil {
		return nil, err
	}
	format, err := report.ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = report.FormatForPath(opts.OutputPath)
	}

	scanner, err := symbols.NewScanner(lang.Languages[opts.Language], mode)
	if err != nil {
		return nil, err
	}
	scanner.Discover.Suffix = opts.Extension
	scanner.Discover.Exclude = opts.Exclude
	scanner.Discover.RespectGitignore = opts.RespectGitignore
	scanner.Workers = opts.Workers
	scanner.MaxFileSize = opts.MaxFileSize
	scanner.Warnings = opts.Warnings
	scanner.Progress = opts.Progress
	scanner.Logger = opts.Logger.With("component", "symbols")

	code, stats, err := scanner.Scan(ctx, opts.CodeDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", opts.CodeDir, err)
	}

	docParser := &mentions.Parser{
		Warnings: opts.Warnings,
		Logger:   opts.Logger.With("component", "mentions"),
	}
	doc := docParser.Parse(opts.DocPath)

	r := report.Build(code, doc)

	if err := report.WriteFile(opts.OutputPath, r, format); err != nil {
		return nil, err
	}
	opts.Logger.Info("wrote gap report",
		"path", opts.OutputPath,
		"format", format,
		"undocumented", r.Summary.UndocumentedCount,
		"unimplemented", r.Summary.UnimplementedCount)

	return &Result{
		Report:     r,
		ReportPath: opts.OutputPath,
		Format:     format,
		Scan:       stats,
	}, nil
}
