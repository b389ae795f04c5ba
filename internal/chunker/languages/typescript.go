package languages

import (
	"loupe/internal/chunker"

	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

func RegisterTypeScript(r *chunker.Registry) {
	r.Register("typescript", &chunker.LanguageSpec{
		Language: typescript.GetLanguage(),
		Query: `
			(function_declaration name: (identifier) @name) @unit
			(class_declaration name: (type_identifier) @name) @unit
			(export_statement (function_declaration name: (identifier) @name)) @unit
			(export_statement (class_declaration name: (type_identifier) @name)) @unit
			(lexical_declaration (variable_declarator name: (identifier) @name value: (arrow_function))) @unit
			(interface_declaration name: (type_identifier) @name) @unit
			(type_alias_declaration name: (type_identifier) @name) @unit
		`,
		Kinds: map[string]chunker.Kind{
			"function_declaration":   chunker.KindFunction,
			"class_declaration":      chunker.KindType,
			"export_statement":       chunker.KindFunction,
			"lexical_declaration":    chunker.KindFunction,
			"interface_declaration":  chunker.KindType,
			"type_alias_declaration": chunker.KindType,
		},
		Extensions: []string{"ts", "tsx"},
	})
}
