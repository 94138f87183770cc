package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// TestApplyDefaultsCreate verifies that empty content receives every default.
func TestApplyDefaultsCreate(t *testing.T) {
	t.Parallel()

	out, err := applyDefaults(nil, starterConfig())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(out, &got))
	assert.Equal(t, "./crates", got[codeKey])
	assert.Equal(t, defaultOutput, got[outputKey])
	assert.Equal(t, defaultMode, got[modeKey])
	assert.Contains(t, got, "log")
}

// TestApplyDefaultsKeepsValues verifies that existing values and unrelated
// keys survive, including inside nested maps.
func TestApplyDefaultsKeepsValues(t *testing.T) {
	t.Parallel()

	existing := []byte("code: ./src\ncustom: kept\nlog:\n  level: debug\n")
	out, err := applyDefaults(existing, starterConfig())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(out, &got))
	assert.Equal(t, "./src", got[codeKey])
	assert.Equal(t, "kept", got["custom"])
	assert.Equal(t, "./docs/design/SDD.md", got[sddKey])

	logCfg, ok := got["log"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "debug", logCfg["level"])
	assert.Equal(t, defaultLogMaxSize, logCfg["max_size"])
}

// TestApplyDefaultsInvalidYAML verifies that a malformed file is reported
// rather than overwritten.
func TestApplyDefaultsInvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := applyDefaults([]byte("code: [unclosed"), starterConfig())
	assert.Error(t, err)
}

// TestInitCreatesFile verifies that init creates the target file when it does
// not exist, and that the file is a loadable config.
func TestInitCreatesFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, configFileName)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"init", path}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "wrote gapaudit config to "+path)

	v := newConfig()
	require.NoError(t, loadConfig(v, path))
	assert.Equal(t, "./crates", v.GetString(codeKey))
	assert.Equal(t, []string{"target"}, v.GetStringSlice(excludeKey))
}

// TestInitDryRun verifies that --dry-run prints the would-be file content and
// does not create the target file.
func TestInitDryRun(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, configFileName)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"init", "--dry-run", path}, &stdout, &stderr))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "--dry-run should not create the file")
	assert.Contains(t, stdout.String(), "sdd: ./docs/design/SDD.md")
}

// TestInitDryRunShowsMergedFile verifies that --dry-run on an existing file
// shows the merged content and leaves the file unchanged.
func TestInitDryRunShowsMergedFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, configFileName)
	existing := "code: ./rust\n"
	require.NoError(t, os.WriteFile(path, []byte(existing), 0o644))

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"init", "--dry-run", path}, &stdout, &stderr))

	assert.Contains(t, stdout.String(), "code: ./rust")
	assert.Contains(t, stdout.String(), "output: gap_report_rust.json")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, existing, string(data), "--dry-run must not modify the file")
}

// TestInitIdempotent verifies that running init twice produces identical output.
func TestInitIdempotent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, configFileName)

	var buf bytes.Buffer
	require.NoError(t, run([]string{"init", path}, &buf, &buf))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, run([]string{"init", path}, &buf, &buf))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

// TestInitRejectsMalformedFile verifies that init refuses to clobber a file it
// cannot parse.
func TestInitRejectsMalformedFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, configFileName)
	require.NoError(t, os.WriteFile(path, []byte("code: [unclosed"), 0o644))

	var stdout, stderr bytes.Buffer
	err := run([]string{"init", path}, &stdout, &stderr)
	require.Error(t, err)

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "code: [unclosed", string(data))
}
