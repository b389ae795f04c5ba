package languages

import (
	"loupe/internal/chunker"

	"github.com/smacker/go-tree-sitter/javascript"
)

func RegisterJavaScript(r *chunker.Registry) {
	r.Register("javascript", &chunker.LanguageSpec{
		Language: javascript.GetLanguage(),
		Query: `
			(function_declaration name: (identifier) @name) @unit
			(class_declaration name: (identifier) @name) @unit
			(export_statement (function_declaration name: (identifier) @name)) @unit
			(export_statement (class_declaration name: (identifier) @name)) @unit
			(lexical_declaration (variable_declarator name: (identifier) @name value: (arrow_function))) @unit
		`,
		Kinds: map[string]chunker.Kind{
			"function_declaration": chunker.KindFunction,
			"class_declaration":    chunker.KindType,
			"export_statement":     chunker.KindFunction,
			"lexical_declaration":  chunker.KindFunction,
		},
		Extensions: []string{"js", "jsx", "mjs", "cjs"},
	})
}
