package symbols

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/gapaudit/internal/lang"
	"github.com/phobologic/gapaudit/internal/parse"
)

func newScanner(t *testing.T, mode parse.Mode) *Scanner {
	t.Helper()
	s, err := NewScanner(lang.Languages[lang.Rust], mode)
	require.NoError(t, err)
	return s
}

func createSampleTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "crates/pricer/src/lib.rs", `pub struct OptionConfig {}
pub fn calculate_cva(x: i32) -> i32 { x }
`)
	writeFile(t, dir, "crates/optimiser/src/solvers/bfgs.rs", `pub struct Bfgs;
pub trait Solver { fn solve(&self); }
impl Bfgs {
    pub fn new() -> Self { Bfgs }
}
`)
	writeFile(t, dir, "crates/optimiser/src/error.rs", `pub enum OptimiserError { Diverged }
pub struct OptionConfig;
`)
	writeFile(t, dir, "README.md", "pub struct NotRust;")
	return dir
}

func TestScanMergesFiles(t *testing.T) {
	t.Parallel()

	for _, mode := range []parse.Mode{parse.Lexical, parse.Syntax} {
		mode := mode
		t.Run(string(mode), func(t *testing.T) {
			t.Parallel()
			dir := createSampleTree(t)

			var warnings bytes.Buffer
			s := newScanner(t, mode)
			s.Warnings = &warnings

			set, stats, err := s.Scan(context.Background(), dir)
			require.NoError(t, err)

			// OptionConfig is declared twice and collapses to one entry.
			assert.Equal(t,
				[]string{"Bfgs", "OptimiserError", "OptionConfig", "Solver", "calculate_cva"},
				set.Sorted())
			assert.Equal(t, Stats{Discovered: 3, Scanned: 3}, stats)
			assert.Empty(t, warnings.String())
		})
	}
}

func TestScanIdempotent(t *testing.T) {
	t.Parallel()
	dir := createSampleTree(t)
	s := newScanner(t, parse.Lexical)

	first, _, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)
	second, _, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, first.Sorted(), second.Sorted())
}

func TestScanFaultIsolation(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "a.rs", "pub fn alpha() {}")
	writeFile(t, dir, "b.rs", "pub struct Beta;")
	writeFile(t, dir, "bad.rs", "pub fn bad() {} \xff\xfe")

	var warnings bytes.Buffer
	s := newScanner(t, parse.Lexical)
	s.Warnings = &warnings

	set, stats, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"Beta", "alpha"}, set.Sorted())
	assert.Equal(t, Stats{Discovered: 3, Scanned: 2, Skipped: 1}, stats)
	assert.Equal(t, 1, strings.Count(warnings.String(), "Warning: Could not read"))
	assert.Contains(t, warnings.String(), filepath.Join(dir, "bad.rs"))
	assert.Contains(t, warnings.String(), ErrInvalidUTF8.Error())
}

func TestScanUnopenableFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "a.rs", "pub fn alpha() {}")
	writeFile(t, dir, "b.rs", "pub struct Beta;")
	if err := os.Symlink(filepath.Join(dir, "missing-target.rs.orig"), filepath.Join(dir, "broken.rs")); err != nil {
		t.Skip("symlinks not supported")
	}

	var warnings bytes.Buffer
	s := newScanner(t, parse.Lexical)
	s.Warnings = &warnings
	s.Workers = 1

	set, stats, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"Beta", "alpha"}, set.Sorted())
	assert.Equal(t, 1, stats.Skipped)
	assert.Contains(t, warnings.String(), "broken.rs")
}

func TestScanMaxFileSize(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "small.rs", "pub fn s() {}")
	writeFile(t, dir, "big.rs", "pub fn big() {}"+strings.Repeat(" ", 100))

	var warnings bytes.Buffer
	s := newScanner(t, parse.Lexical)
	s.Warnings = &warnings
	s.MaxFileSize = 50

	set, _, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"s"}, set.Sorted())
	assert.Contains(t, warnings.String(), "skipped (>50 bytes)")
}

func TestScanMissingRoot(t *testing.T) {
	t.Parallel()

	s := newScanner(t, parse.Lexical)
	set, stats, err := s.Scan(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
	assert.Equal(t, Stats{}, stats)
}

func TestScanMonotonic(t *testing.T) {
	t.Parallel()
	dir := createSampleTree(t)
	s := newScanner(t, parse.Lexical)

	before, _, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)

	writeFile(t, dir, "crates/pricer/src/greeks.rs", "pub fn delta() -> f64 { 0.0 }")
	after, _, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, before.Len()+1, after.Len())
	assert.True(t, after.Has("delta"))
}

func TestScanCancelled(t *testing.T) {
	t.Parallel()
	dir := createSampleTree(t)
	s := newScanner(t, parse.Lexical)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := s.Scan(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanProgress(t *testing.T) {
	t.Parallel()
	dir := createSampleTree(t)

	var progress bytes.Buffer
	s := newScanner(t, parse.Lexical)
	s.Progress = &progress

	_, _, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)
	assert.Contains(t, progress.String(), "Scanning files")
}

func TestScanWarningsDoNotSplitProgressBar(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "a.rs", "pub fn alpha() {}")
	writeFile(t, dir, "b.rs", "pub fn broken() {} \xff")
	writeFile(t, dir, "c.rs", "pub struct Gamma;")
	writeFile(t, dir, "d.rs", "pub fn also_broken() {} \xfe")

	var stderr bytes.Buffer
	s := newScanner(t, parse.Lexical)
	s.Warnings = &stderr
	s.Progress = &stderr
	s.Workers = 1

	_, stats, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 2, stats.Skipped)

	out := stderr.String()
	assert.Equal(t, 2, strings.Count(out, "Warning: Could not read"))
	for rest, offset := out, 0; ; {
		i := strings.Index(rest, "Warning: ")
		if i < 0 {
			break
		}
		pos := offset + i
		if pos > 0 {
			assert.Contains(t, "\r\n", string(out[pos-1]), "warning starts mid-line at %d: %q", pos, out)
		}
		offset = pos + 1
		rest = out[offset:]
	}
}

func TestScanExclude(t *testing.T) {
	t.Parallel()
	dir := createSampleTree(t)
	s := newScanner(t, parse.Lexical)
	s.Discover.Exclude = []string{"crates/optimiser"}

	set, _, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"OptionConfig", "calculate_cva"}, set.Sorted())
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
