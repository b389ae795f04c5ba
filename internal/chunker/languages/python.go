package languages

import (
	"loupe/internal/chunker"

	"github.com/smacker/go-tree-sitter/python"
)

func RegisterPython(r *chunker.Registry) {
	r.Register("python", &chunker.LanguageSpec{
		Language: python.GetLanguage(),
		Query: `
			(function_definition name: (identifier) @name) @unit
			(class_definition name: (identifier) @name) @unit
			(decorated_definition definition: (function_definition name: (identifier) @name)) @unit
			(decorated_definition definition: (class_definition name: (identifier) @name)) @unit
		`,
		Kinds: map[string]chunker.Kind{
			"function_definition":  chunker.KindFunction,
			"class_definition":     chunker.KindType,
			"decorated_definition": chunker.KindFunction,
		},
		Extensions: []string{"py", "pyi"},
	})
}
