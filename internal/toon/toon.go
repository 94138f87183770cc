// Package toon implements TOON (Token-Oriented Object Notation) encoding of
// gap reports.
package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/gapaudit/internal/model"
)

var (
	// Identifiers a TOON decoder would read as numbers.
	looksNumeric = regexp.MustCompile(`^\d+(?:[eE]\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a GapReport into TOON format. Keys and their order match the
// JSON encoding.
func Encode(r *model.GapReport) string {
	var parts []string

	parts = append(parts, "summary:")
	parts = append(parts, formatField(1, "total_code_entities", strconv.Itoa(r.Summary.TotalCodeEntities)))
	parts = append(parts, formatField(1, "total_sdd_entities", strconv.Itoa(r.Summary.TotalSDDEntities)))
	parts = append(parts, formatField(1, "undocumented_count", strconv.Itoa(r.Summary.UndocumentedCount)))
	parts = append(parts, formatField(1, "unimplemented_count", strconv.Itoa(r.Summary.UnimplementedCount)))

	parts = append(parts, formatList("undocumented_items_in_code", r.Undocumented))
	parts = append(parts, formatList("unimplemented_items_in_sdd", r.Unimplemented))

	return strings.Join(parts, "\n")
}

func formatField(indent int, key, value string) string {
	return fmt.Sprintf("%s%s: %s", strings.Repeat("  ", indent), key, value)
}

// formatList renders a primitive array inline: name[N]: a,b,c
func formatList(name string, values []string) string {
	if len(values) == 0 {
		return fmt.Sprintf("%s[0]:", name)
	}
	encoded := make([]string, len(values))
	for i, v := range values {
		encoded[i] = encodeString(v)
	}
	return fmt.Sprintf("%s[%d]: %s", name, len(values), strings.Join(encoded, ","))
}

// encodeString encodes an identifier. Identifiers never contain delimiters,
// quotes or whitespace, so only keyword and numeric lookalikes are quoted.
func encodeString(value string) string {
	if _, ok := keywords[strings.ToLower(value)]; ok || looksNumeric.MatchString(value) {
		return `"` + value + `"`
	}
	return value
}
