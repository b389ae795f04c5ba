// Package languages holds the tree-sitter grammar registrations for every
// language loupe can chunk structurally. Files in other languages still get
// reviewed through fallback windowing.
package languages

import "loupe/internal/chunker"

// RegisterAll registers every built-in language spec.
func RegisterAll(r *chunker.Registry) {
	RegisterGo(r)
	RegisterPython(r)
	RegisterJavaScript(r)
	RegisterTypeScript(r)
}
