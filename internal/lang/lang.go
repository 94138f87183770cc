// Package lang provides a language registry mapping file extensions to the
// lexical patterns and tree-sitter grammars used to find public declarations.
package lang

import (
	"embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

//go:embed queries/*.scm
var queryFS embed.FS

const (
	// identifierPattern matches one identifier token.
	identifierPattern = `([a-zA-Z0-9_]+)`
	// spacePattern matches a run of Unicode whitespace. RE2's \s is ASCII
	// only and omits \v.
	spacePattern = `[\s\v\x1c-\x1f\x85\p{Z}]+`
)

// Language describes how public declarations are spelled in one language.
type Language struct {
	Name       string
	Extensions []string

	// Visibility is the marker that makes a declaration public ("pub").
	Visibility string
	// TypeKeywords introduce type-like declarations (struct, enum, trait).
	TypeKeywords []string
	// FuncKeyword introduces a function declaration.
	FuncKeyword string
	// ImplKeyword opens a block whose members are not top-level declarations.
	ImplKeyword string
	// ImplNodeType is the tree-sitter node type of such a block.
	ImplNodeType string

	lang *sitter.Language

	queryOnce sync.Once
	query     *sitter.Query
	queryErr  error

	patternOnce sync.Once
	patterns    []*regexp.Regexp
}

// NewParser creates a fresh tree-sitter parser for this language.
// Each goroutine must use its own parser (not thread-safe).
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// GetTagQuery returns the compiled tree-sitter query (safe to share across goroutines).
func (l *Language) GetTagQuery() (*sitter.Query, error) {
	l.queryOnce.Do(func() {
		data, err := queryFS.ReadFile(fmt.Sprintf("queries/%s.scm", l.Name))
		if err != nil {
			l.queryErr = fmt.Errorf("reading query file: %w", err)
			return
		}
		q, err := sitter.NewQuery(data, l.lang)
		if err != nil {
			l.queryErr = fmt.Errorf("compiling query: %w", err)
			return
		}
		l.query = q
	})
	return l.query, l.queryErr
}

// DeclPatterns returns the lexical patterns for public declarations. The
// first submatch of each pattern is the declared name.
func (l *Language) DeclPatterns() []*regexp.Regexp {
	l.patternOnce.Do(func() {
		vis := regexp.QuoteMeta(l.Visibility)
		if len(l.TypeKeywords) > 0 {
			kws := make([]string, len(l.TypeKeywords))
			for i, kw := range l.TypeKeywords {
				kws[i] = regexp.QuoteMeta(kw)
			}
			l.patterns = append(l.patterns, regexp.MustCompile(
				vis+spacePattern+`(?:`+strings.Join(kws, "|")+`)`+spacePattern+identifierPattern))
		}
		if l.FuncKeyword != "" {
			l.patterns = append(l.patterns, regexp.MustCompile(
				vis+spacePattern+regexp.QuoteMeta(l.FuncKeyword)+spacePattern+identifierPattern))
		}
	})
	return l.patterns
}

// Languages maps language names to their configuration.
// Populated by init() functions in per-language files.
var Languages = map[string]*Language{}

// extensionMap is built lazily after all init() functions have run.
var extensionMap map[string]string
var extensionOnce sync.Once

func getExtensionMap() map[string]string {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]string)
		for _, l := range Languages {
			for _, ext := range l.Extensions {
				extensionMap[ext] = l.Name
			}
		}
	})
	return extensionMap
}

// ForExtension returns the language name for a file extension, or "" if unsupported.
// Matching is case-sensitive.
func ForExtension(ext string) string {
	return getExtensionMap()[ext]
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}
