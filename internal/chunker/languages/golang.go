package languages

import (
	"loupe/internal/chunker"

	"github.com/smacker/go-tree-sitter/golang"
)

func RegisterGo(r *chunker.Registry) {
	r.Register("go", &chunker.LanguageSpec{
		Language: golang.GetLanguage(),
		Query: `
			(function_declaration name: (identifier) @name) @unit
			(method_declaration name: (field_identifier) @name) @unit
			(type_declaration (type_spec name: (type_identifier) @name)) @unit
		`,
		Kinds: map[string]chunker.Kind{
			"function_declaration": chunker.KindFunction,
			"method_declaration":   chunker.KindFunction,
			"type_declaration":     chunker.KindType,
		},
		Extensions: []string{"go"},
	})
}
