package chunker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

const (
	// DefaultMaxLinesPerChunk is the largest line span a chunk may have
	// before it is split further.
	DefaultMaxLinesPerChunk = 200

	// DefaultActivationThreshold is the file size at or below which the
	// whole file is returned as a single chunk.
	DefaultActivationThreshold = 300
)

// Kind classifies what a chunk holds.
type Kind string

const (
	KindFunction Kind = "function"
	KindType     Kind = "type"
	KindWindow   Kind = "window"
)

// SourceUnit is the raw input to a chunking run: the full text and its
// total line count. It is created once per run and never modified.
type SourceUnit struct {
	Text  string
	Lines int
}

// NewSourceUnit builds a SourceUnit from raw text. A trailing newline does
// not count as an extra line.
func NewSourceUnit(text string) SourceUnit {
	return SourceUnit{Text: text, Lines: len(splitLines(text))}
}

// SemanticChunk is one self-contained unit of work. StartLine and EndLine
// are 1-indexed, inclusive, in file coordinates. Content carries the shared
// header context when one was extracted, followed by the unit body.
type SemanticChunk struct {
	Content   string
	StartLine int
	EndLine   int
	Kind      Kind
	Index     int
}

// Span returns the chunk's line span in file coordinates.
func (c SemanticChunk) Span() int {
	return c.EndLine - c.StartLine + 1
}

// Config controls chunking behavior.
type Config struct {
	// MaxLinesPerChunk bounds a chunk's line span before further
	// splitting is attempted. Must be positive.
	MaxLinesPerChunk int
	// ActivationThreshold is the total line count at or below which the
	// file bypasses splitting entirely. Must not be negative.
	ActivationThreshold int
}

// DefaultConfig returns the standard chunking configuration.
func DefaultConfig() Config {
	return Config{
		MaxLinesPerChunk:    DefaultMaxLinesPerChunk,
		ActivationThreshold: DefaultActivationThreshold,
	}
}

// ErrInvalidConfig is returned when chunking configuration is rejected.
var ErrInvalidConfig = errors.New("invalid chunker config")

func (c Config) validate() error {
	if c.MaxLinesPerChunk <= 0 {
		return fmt.Errorf("%w: max lines per chunk must be positive, got %d", ErrInvalidConfig, c.MaxLinesPerChunk)
	}
	if c.ActivationThreshold < 0 {
		return fmt.Errorf("%w: activation threshold must not be negative, got %d", ErrInvalidConfig, c.ActivationThreshold)
	}
	return nil
}

// Chunker splits source files into semantic chunks using tree-sitter
// grammars from its registry, with fixed-size line windowing as the
// always-available fallback.
type Chunker struct {
	registry *Registry
}

// New creates a chunker backed by the given registry.
func New(r *Registry) *Chunker {
	return &Chunker{registry: r}
}

// Chunk splits src into an ordered sequence of self-contained chunks.
// The path is used only for grammar lookup by extension. Structural parse
// failure is recovered via fallback windowing and never surfaced; only an
// invalid config produces an error.
func (c *Chunker) Chunk(path string, src SourceUnit, cfg Config) ([]SemanticChunk, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if src.Lines == 0 {
		return nil, nil
	}

	lines := splitLines(src.Text)

	// Small-file fast path: no splitting below the activation threshold.
	if src.Lines <= cfg.ActivationThreshold {
		return []SemanticChunk{{
			Content:   strings.Join(lines, "\n"),
			StartLine: 1,
			EndLine:   src.Lines,
			Kind:      KindWindow,
		}}, nil
	}

	units := c.parseUnits(path, src.Text)
	if len(units) == 0 {
		return reindex(fallbackWindows(lines, 1, src.Lines, cfg.MaxLinesPerChunk)), nil
	}

	header := sharedHeader(lines, units)

	var chunks []SemanticChunk
	for _, u := range units {
		if u.endLine-u.startLine+1 > cfg.MaxLinesPerChunk {
			// Oversized unit: window within the unit's own boundaries.
			for _, s := range fallbackWindows(lines, u.startLine, u.endLine, cfg.MaxLinesPerChunk) {
				s.Content = withHeader(header, s.Content)
				s.Kind = u.kind
				chunks = append(chunks, s)
			}
			continue
		}
		body := strings.Join(lines[u.startLine-1:u.endLine], "\n")
		chunks = append(chunks, SemanticChunk{
			Content:   withHeader(header, body),
			StartLine: u.startLine,
			EndLine:   u.endLine,
			Kind:      u.kind,
		})
	}
	return reindex(chunks), nil
}

// unit is a chunk-worthy structural node as a plain line range. The syntax
// tree is discarded once units are extracted; chunks never reference nodes.
type unit struct {
	kind      Kind
	startLine int
	endLine   int
}

// parseUnits runs the registered tree-sitter query for the file's language
// and extracts top-level chunk-worthy units in source order. Any failure
// (no grammar, parse error, bad query) returns nil so the caller degrades
// to fallback windowing.
func (c *Chunker) parseUnits(path, text string) []unit {
	spec, _ := c.registry.Lookup(path)
	if spec == nil {
		return nil
	}
	src := []byte(text)

	parser := sitter.NewParser()
	parser.SetLanguage(spec.Language)
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil
	}
	defer tree.Close()

	q, err := sitter.NewQuery([]byte(spec.Query), spec.Language)
	if err != nil {
		return nil
	}
	defer q.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, tree.RootNode())

	var units []unit
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, cap := range m.Captures {
			if q.CaptureNameForId(cap.Index) != "unit" {
				continue
			}
			units = append(units, unit{
				kind:      spec.kindOf(cap.Node.Type()),
				startLine: int(cap.Node.StartPoint().Row) + 1,
				endLine:   int(cap.Node.EndPoint().Row) + 1,
			})
		}
	}
	return dedupUnits(units)
}

// dedupUnits sorts units into source order and drops units nested inside a
// larger one, keeping the outer node.
func dedupUnits(units []unit) []unit {
	if len(units) <= 1 {
		return units
	}
	sort.Slice(units, func(i, j int) bool {
		if units[i].startLine != units[j].startLine {
			return units[i].startLine < units[j].startLine
		}
		return units[i].endLine > units[j].endLine
	})
	result := units[:0]
	lastEnd := 0
	for _, u := range units {
		if u.startLine > lastEnd {
			result = append(result, u)
			lastEnd = u.endLine
		}
	}
	return result
}

// sharedHeader collects every line not covered by a unit span: imports,
// package clauses, free-standing constants, and the like. These lines are
// prepended to each chunk so it stays self-contained.
func sharedHeader(lines []string, units []unit) string {
	covered := make([]bool, len(lines)+1)
	for _, u := range units {
		for i := u.startLine; i <= u.endLine && i <= len(lines); i++ {
			covered[i] = true
		}
	}
	var parts []string
	for i := 1; i <= len(lines); i++ {
		if !covered[i] {
			parts = append(parts, lines[i-1])
		}
	}
	return strings.Trim(strings.Join(parts, "\n"), "\n")
}

// UnitMarker separates the shared header from the chunk body. Line numbers
// reported against a chunk are counted from the first line after it.
const UnitMarker = "// --- unit under review ---"

func withHeader(header, body string) string {
	if header == "" {
		return body
	}
	return header + "\n\n" + UnitMarker + "\n" + body
}

// fallbackWindows cuts [start, end] into contiguous, non-overlapping
// windows of exactly maxLines lines each; only the final window may be
// shorter. This path never fails.
func fallbackWindows(lines []string, start, end, maxLines int) []SemanticChunk {
	var chunks []SemanticChunk
	for s := start; s <= end; s += maxLines {
		e := s + maxLines - 1
		if e > end {
			e = end
		}
		chunks = append(chunks, SemanticChunk{
			Content:   strings.Join(lines[s-1:e], "\n"),
			StartLine: s,
			EndLine:   e,
			Kind:      KindWindow,
		})
	}
	return chunks
}

// reindex assigns contiguous zero-based indices in source order.
func reindex(chunks []SemanticChunk) []SemanticChunk {
	for i := range chunks {
		chunks[i].Index = i
	}
	return chunks
}

// splitLines splits text into lines without counting a trailing newline as
// an extra empty line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
