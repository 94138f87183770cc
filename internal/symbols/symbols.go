// Package symbols builds the set of public declaration names in a source tree.
package symbols

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"unicode/utf8"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/gapaudit/internal/discover"
	"github.com/phobologic/gapaudit/internal/lang"
	"github.com/phobologic/gapaudit/internal/model"
	"github.com/phobologic/gapaudit/internal/parse"
)

// ErrInvalidUTF8 is reported for source files that are not valid UTF-8.
var ErrInvalidUTF8 = errors.New("invalid UTF-8")

// Stats counts what a scan did.
type Stats struct {
	Discovered int
	Scanned    int
	Skipped    int
}

// Scanner extracts a CodeSymbolSet from a directory tree. A Scanner keeps no
// state between calls to Scan.
type Scanner struct {
	Language  *lang.Language
	Extractor parse.Extractor
	Discover  discover.Options

	// Workers bounds concurrent file reads; <= 0 means GOMAXPROCS.
	Workers int
	// MaxFileSize skips larger files; 0 means no limit.
	MaxFileSize int64

	// Warnings receives one line per skipped file. Nil discards.
	Warnings io.Writer
	// Progress, when set, receives a progress bar.
	Progress io.Writer
	Logger   *slog.Logger
}

// NewScanner returns a Scanner for l in the given mode, discovering files by
// the language's first extension.
func NewScanner(l *lang.Language, mode parse.Mode) (*Scanner, error) {
	ex, err := parse.NewExtractor(l, mode)
	if err != nil {
		return nil, err
	}
	return &Scanner{
		Language:  l,
		Extractor: ex,
		Discover:  discover.Options{Suffix: l.Extensions[0]},
	}, nil
}

type fileResult struct {
	names []string
	ok    bool
}

// Scan visits every matching file under root and returns the union of their
// public declaration names. A file that cannot be read or decoded is skipped
// with a warning; it never aborts the scan. A missing root yields an empty set.
// The only errors returned are invalid discovery options and ctx cancellation.
func (s *Scanner) Scan(ctx context.Context, root string) (model.SymbolSet, Stats, error) {
	logger := s.logger()

	files, err := discover.Files(root, s.Discover)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		if info, statErr := os.Stat(root); statErr != nil || !info.IsDir() {
			logger.Warn("code root is not a directory", "root", root)
		}
	}
	logger.Debug("discovered source files", "root", root, "count", len(files))

	stats := Stats{Discovered: len(files)}
	results := make([]fileResult, len(files))

	var bar *progressbar.ProgressBar
	if s.Progress != nil && len(files) > 0 {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(s.Progress),
			progressbar.OptionSetDescription("Scanning files"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
		)
	}

	// outMu serializes bar redraws and warning lines, which may share a writer.
	var outMu sync.Mutex
	tick := func() {
		if bar == nil {
			return
		}
		outMu.Lock()
		defer outMu.Unlock()
		_ = bar.Add(1)
	}
	warn := func(path string, err error) {
		outMu.Lock()
		defer outMu.Unlock()
		if bar != nil {
			_ = bar.Clear()
		}
		if s.Warnings != nil {
			_, _ = fmt.Fprintf(s.Warnings, "Warning: Could not read %s: %v\n", path, err)
		}
		logger.Warn("skipping unreadable file", "path", path, "error", err)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers(len(files)))

	for i, f := range files {
		i, f := i, f
		if groupCtx.Err() != nil {
			break
		}
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			names, err := s.scanFile(groupCtx, f.AbsPath)
			if err != nil {
				if ctxErr := groupCtx.Err(); ctxErr != nil {
					return ctxErr
				}
				warn(f.AbsPath, err)
				tick()
				return nil
			}
			tick()
			results[i] = fileResult{names: names, ok: true}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, stats, err
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}
	if bar != nil {
		_ = bar.Finish()
	}

	// Single combining step once all workers are done.
	set := model.NewSymbolSet()
	for _, r := range results {
		if !r.ok {
			stats.Skipped++
			continue
		}
		stats.Scanned++
		set.Add(r.names...)
	}

	logger.Info("scanned source tree",
		"root", root, "files", stats.Scanned, "skipped", stats.Skipped, "symbols", set.Len())
	return set, stats, nil
}

func (s *Scanner) scanFile(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if s.MaxFileSize > 0 {
		info, err := f.Stat()
		if err != nil {
			return nil, err
		}
		if info.Size() > s.MaxFileSize {
			return nil, fmt.Errorf("skipped (>%d bytes)", s.MaxFileSize)
		}
	}

	source, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(source) {
		return nil, ErrInvalidUTF8
	}

	return s.Extractor.Extract(ctx, source)
}

func (s *Scanner) workers(files int) int {
	n := s.Workers
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	if n > files {
		n = files
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (s *Scanner) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
