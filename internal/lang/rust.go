package lang

import (
	"github.com/smacker/go-tree-sitter/rust"
)

// Rust is the default language audited by gapaudit.
const Rust = "rust"

func init() {
	Languages[Rust] = &Language{
		Name:         Rust,
		Extensions:   []string{".rs"},
		Visibility:   "pub",
		TypeKeywords: []string{"struct", "enum", "trait"},
		FuncKeyword:  "fn",
		ImplKeyword:  "impl",
		ImplNodeType: "impl_item",
		lang:         rust.GetLanguage(),
	}
}
