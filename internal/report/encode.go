package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/gapaudit/internal/model"
	"github.com/phobologic/gapaudit/internal/toon"
)

// Format is a report serialization.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	TOON Format = "toon"
)

// ErrUnknownFormat is returned for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown report format")

// ParseFormat converts a user-supplied format name. The empty string means
// "infer from the output path" and returns "".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", JSON, YAML, TOON:
		return f, nil
	case "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("%w %q (want json, yaml or toon)", ErrUnknownFormat, s)
}

// FormatForPath infers the format from the output file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	case ".toon":
		return TOON
	}
	return JSON
}

// Encode writes r to w in the given format.
func Encode(w io.Writer, r *model.GapReport, format Format) error {
	var data []byte
	switch format {
	case JSON, "":
		b, err := json.MarshalIndent(r, "", "    ")
		if err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		data = append(b, '\n')
	case YAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(4)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		data = buf.Bytes()
	case TOON:
		data = []byte(toon.Encode(r) + "\n")
	default:
		return fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}

	_, err := w.Write(data)
	return err
}

// WriteFile encodes r into path, creating parent directories. The file is
// replaced atomically.
func WriteFile(path string, r *model.GapReport, format Format) error {
	var buf bytes.Buffer
	if err := Encode(&buf, r, format); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".gapaudit-*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// RenderSummary renders the report counts as a console table.
func RenderSummary(r *model.GapReport) string {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Metric", "Count"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})

	table.Append([]string{"Code entities", strconv.Itoa(r.Summary.TotalCodeEntities)})
	table.Append([]string{"SDD entities", strconv.Itoa(r.Summary.TotalSDDEntities)})
	table.Append([]string{"Undocumented", strconv.Itoa(r.Summary.UndocumentedCount)})
	table.Append([]string{"Unimplemented", strconv.Itoa(r.Summary.UnimplementedCount)})

	table.Render()

	return buf.String()
}
