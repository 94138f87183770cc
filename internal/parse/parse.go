// Package parse extracts public declaration names from source files, either
// by lexical pattern matching or with a tree-sitter parse.
package parse

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/gapaudit/internal/lang"
)

// Mode selects how declarations are found.
type Mode string

const (
	// Lexical matches the visibility marker and keywords textually.
	Lexical Mode = "lexical"
	// Syntax walks a tree-sitter parse of the file.
	Syntax Mode = "syntax"
)

// ErrUnknownMode is returned for a mode name other than lexical or syntax.
var ErrUnknownMode = errors.New("unknown extraction mode")

// ParseMode converts a user-supplied mode name. The empty string selects Lexical.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", Lexical:
		return Lexical, nil
	case Syntax:
		return Syntax, nil
	}
	return "", fmt.Errorf("%w %q (want %s or %s)", ErrUnknownMode, s, Lexical, Syntax)
}

// Extractor returns the public declaration names found in one file's source.
// Names may repeat; callers collapse them into a set.
type Extractor interface {
	Extract(ctx context.Context, source []byte) ([]string, error)
}

// NewExtractor returns the extractor for mode. Syntax extractors are safe for
// concurrent use: each call creates its own parser.
func NewExtractor(l *lang.Language, mode Mode) (Extractor, error) {
	switch mode {
	case Lexical:
		return &lexicalExtractor{lang: l}, nil
	case Syntax:
		q, err := l.GetTagQuery()
		if err != nil {
			return nil, fmt.Errorf("%s query: %w", l.Name, err)
		}
		return &syntaxExtractor{lang: l, query: q}, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownMode, mode)
}

type lexicalExtractor struct {
	lang *lang.Language
}

func (e *lexicalExtractor) Extract(_ context.Context, source []byte) ([]string, error) {
	return ExtractLexical(e.lang, source), nil
}

// ExtractLexical returns the names that textually follow the language's
// visibility marker and a declaration keyword. Bodies of impl blocks are
// masked first so their members are not reported.
func ExtractLexical(l *lang.Language, source []byte) []string {
	text := source
	if l.ImplKeyword != "" {
		text = MaskImplBodies(source, l.ImplKeyword)
	}

	var names []string
	for _, re := range l.DeclPatterns() {
		for _, m := range re.FindAllSubmatch(text, -1) {
			names = append(names, string(m[1]))
		}
	}
	return names
}

type syntaxExtractor struct {
	lang  *lang.Language
	query *sitter.Query
}

func (e *syntaxExtractor) Extract(ctx context.Context, source []byte) ([]string, error) {
	parser := e.lang.NewParser()
	defer parser.Close()
	return ExtractSyntax(ctx, e.lang, parser, e.query, source)
}

// ExtractSyntax parses source and returns the names of item declarations whose
// visibility modifier is exactly the language's marker and which are not
// members of an impl block. The parser must be created for the correct language.
func ExtractSyntax(ctx context.Context, l *lang.Language, parser *sitter.Parser, query *sitter.Query, source []byte) ([]string, error) {
	if len(source) == 0 {
		return nil, nil
	}

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	defer tree.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, tree.RootNode())

	var names []string

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)

		var nameNode, visNode, defNode *sitter.Node
		for _, c := range match.Captures {
			switch query.CaptureNameForId(c.Index) {
			case "name":
				nameNode = c.Node
			case "visibility":
				visNode = c.Node
			case "definition.type", "definition.function":
				defNode = c.Node
			}
		}

		if nameNode == nil || visNode == nil || defNode == nil {
			continue
		}
		// pub(crate), pub(super) and friends are not public.
		if lang.NodeText(visNode, source) != l.Visibility {
			continue
		}
		if hasAncestor(defNode, l.ImplNodeType) {
			continue
		}

		names = append(names, lang.NodeText(nameNode, source))
	}

	return names, nil
}

func hasAncestor(node *sitter.Node, nodeType string) bool {
	if nodeType == "" {
		return false
	}
	for p := node.Parent(); p != nil; p = p.Parent() {
		if p.Type() == nodeType {
			return true
		}
	}
	return false
}
