// Package mentions extracts identifiers quoted as inline code in a Markdown
// design document.
package mentions

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"unicode/utf8"

	"github.com/phobologic/gapaudit/internal/model"
)

// inlineCodeRe matches a single-backtick span holding one identifier.
var inlineCodeRe = regexp.MustCompile("`([a-zA-Z0-9_]+)`")

// Parser reads one document. It keeps no state between calls to Parse.
type Parser struct {
	// Warnings receives a line when the document cannot be used. Nil discards.
	Warnings io.Writer
	Logger   *slog.Logger
}

// Parse returns the identifiers mentioned in the document at path. A missing
// or unreadable document is not an error: a warning is written and the empty
// set is returned, so that every code symbol is reported as undocumented.
func (p *Parser) Parse(path string) model.SymbolSet {
	data, err := os.ReadFile(path)
	if err == nil && !utf8.Valid(data) {
		err = errors.New("invalid UTF-8")
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			p.warnf("Warning: SDD not found at %s. All code will be reported as undocumented.\n", path)
			p.logger().Warn("design document not found", "path", path)
		} else {
			p.warnf("Warning: Could not read SDD %s: %v\n", path, err)
			p.logger().Warn("design document unreadable", "path", path, "error", err)
		}
		return model.NewSymbolSet()
	}

	set := Extract(data)
	p.logger().Info("parsed design document", "path", path, "mentions", set.Len())
	return set
}

// Extract returns the identifiers enclosed in single backticks in content.
// Spans holding anything other than identifier characters are ignored.
func Extract(content []byte) model.SymbolSet {
	set := model.NewSymbolSet()
	for _, m := range inlineCodeRe.FindAllSubmatch(content, -1) {
		set.Add(string(m[1]))
	}
	return set
}

func (p *Parser) warnf(format string, args ...any) {
	if p.Warnings != nil {
		_, _ = fmt.Fprintf(p.Warnings, format, args...)
	}
}

func (p *Parser) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
