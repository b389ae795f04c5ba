package review

import (
	"sort"
	"time"
	"unicode/utf8"

	"loupe/internal/chunker"
	"loupe/internal/dispatch"
	"loupe/internal/finding"
)

// MergedResult is the deduplicated, file-absolute finding set for one run.
type MergedResult struct {
	Findings []finding.MergedFinding
}

// ChunkFailure records one failed chunk for run metadata.
type ChunkFailure struct {
	Index int    `json:"index"`
	Err   string `json:"error"`
}

// RunMetadata is aggregate, non-finding information about a pipeline
// execution. Analyzer metrics are summed, never reinterpreted.
type RunMetadata struct {
	ChunkCount   int            `json:"chunkCount"`
	FailedChunks []ChunkFailure `json:"failedChunks,omitempty"`
	AnalysisTime time.Duration  `json:"analysisTime"`
}

// dedupKey collapses cross-chunk duplicates: no two merged findings may
// share the same (absolute line, category) pair.
type dedupKey struct {
	line     int
	category finding.Category
}

type candidate struct {
	finding.MergedFinding
	chunkIndex int
}

// Merge remaps every successful outcome's findings into file-absolute line
// numbers, deduplicates across chunk boundaries, and returns one sorted
// result plus run metadata. Failed chunks contribute no findings but are
// always reported in the metadata; merging a partial outcome set is the
// normal case, not an error.
func Merge(outcomes []dispatch.Outcome, chunks []chunker.SemanticChunk) (MergedResult, RunMetadata) {
	byIndex := make(map[int]chunker.SemanticChunk, len(chunks))
	for _, c := range chunks {
		byIndex[c.Index] = c
	}

	meta := RunMetadata{ChunkCount: len(chunks)}

	groups := make(map[dedupKey]*candidate)
	var order []dedupKey

	for _, out := range outcomes {
		meta.AnalysisTime += out.Elapsed
		if !out.Success {
			if out.Err != nil {
				meta.FailedChunks = append(meta.FailedChunks, ChunkFailure{Index: out.ChunkIndex, Err: out.Err.Error()})
			} else {
				meta.FailedChunks = append(meta.FailedChunks, ChunkFailure{Index: out.ChunkIndex})
			}
			continue
		}
		chunk, ok := byIndex[out.ChunkIndex]
		if !ok {
			continue
		}
		for _, f := range out.Findings {
			abs := remap(chunk, f.Line)
			key := dedupKey{line: abs, category: f.Category}
			cand, seen := groups[key]
			if !seen {
				groups[key] = &candidate{
					MergedFinding: merged(f, abs, out.ChunkIndex),
					chunkIndex:    out.ChunkIndex,
				}
				order = append(order, key)
				continue
			}
			cand.Chunks = appendChunkIndex(cand.Chunks, out.ChunkIndex)
			if wins(f, out.ChunkIndex, cand) {
				chunksSoFar := cand.Chunks
				cand.MergedFinding = merged(f, abs, out.ChunkIndex)
				cand.MergedFinding.Chunks = chunksSoFar
				cand.chunkIndex = out.ChunkIndex
			}
		}
	}

	sort.Slice(meta.FailedChunks, func(i, j int) bool {
		return meta.FailedChunks[i].Index < meta.FailedChunks[j].Index
	})

	result := MergedResult{Findings: make([]finding.MergedFinding, 0, len(order))}
	for _, key := range order {
		result.Findings = append(result.Findings, groups[key].MergedFinding)
	}
	// Stable: findings sharing a line keep their grouping order.
	sort.SliceStable(result.Findings, func(i, j int) bool {
		return result.Findings[i].Line < result.Findings[j].Line
	})
	return result, meta
}

// remap converts a chunk-local line to file coordinates, clamping results
// outside the chunk's span to the nearest boundary. A backend reporting an
// implausible line loses precision, not the finding.
func remap(c chunker.SemanticChunk, local int) int {
	abs := c.StartLine + local - 1
	if abs < c.StartLine {
		return c.StartLine
	}
	if abs > c.EndLine {
		return c.EndLine
	}
	return abs
}

// wins reports whether f should replace the current group survivor: the
// strictly longer reasoning text wins, measured in characters rather than
// bytes, and equal lengths keep the lowest chunk index.
func wins(f finding.Finding, chunkIndex int, cur *candidate) bool {
	fr := utf8.RuneCountInString(f.Reasoning)
	cr := utf8.RuneCountInString(cur.Reasoning)
	if fr != cr {
		return fr > cr
	}
	return chunkIndex < cur.chunkIndex
}

func merged(f finding.Finding, abs, chunkIndex int) finding.MergedFinding {
	return finding.MergedFinding{
		Category:    f.Category,
		Severity:    f.Severity,
		Line:        abs,
		Description: f.Description,
		Reasoning:   f.Reasoning,
		Confidence:  f.Confidence,
		Chunks:      []int{chunkIndex},
	}
}

func appendChunkIndex(indices []int, idx int) []int {
	for _, i := range indices {
		if i == idx {
			return indices
		}
	}
	indices = append(indices, idx)
	sort.Ints(indices)
	return indices
}
