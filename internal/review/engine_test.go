package review_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loupe/internal/chunker"
	"loupe/internal/chunker/languages"
	"loupe/internal/dispatch"
	"loupe/internal/finding"
	"loupe/internal/review"
)

func testRegistry() *chunker.Registry {
	reg := chunker.NewRegistry()
	languages.RegisterAll(reg)
	return reg
}

func oneBugPerChunk() dispatch.Analyzer {
	return dispatch.AnalyzerFunc(func(ctx context.Context, content string) ([]finding.Finding, error) {
		return []finding.Finding{{
			Category:    finding.CategoryBug,
			Severity:    finding.SeverityMedium,
			Line:        1,
			Description: "suspicious",
			Reasoning:   "because",
		}}, nil
	})
}

func TestReviewSourceSmallFile(t *testing.T) {
	eng := review.NewEngine(testRegistry(), oneBugPerChunk(), review.Config{
		Chunk:   chunker.DefaultConfig(),
		Workers: 2,
	})

	report, err := eng.ReviewSource(context.Background(), "main.go", "package main\n\nfunc main() {}\n")
	require.NoError(t, err)
	assert.Equal(t, "main.go", report.Path)
	assert.Equal(t, "go", report.Language)
	assert.Equal(t, 1, report.Meta.ChunkCount)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, 1, report.Findings[0].Line)
	assert.Equal(t, 1, report.Summary.Counts.Medium)
	assert.Equal(t, finding.SeverityMedium, report.Summary.HighestSeverity)
}

func TestReviewSourceEmptyInput(t *testing.T) {
	eng := review.NewEngine(testRegistry(), oneBugPerChunk(), review.Config{
		Chunk: chunker.DefaultConfig(),
	})

	report, err := eng.ReviewSource(context.Background(), "empty.go", "")
	require.NoError(t, err)
	assert.Empty(t, report.Findings)
	assert.Equal(t, 0, report.Meta.ChunkCount)
}

func TestReviewSourceInvalidConfig(t *testing.T) {
	eng := review.NewEngine(testRegistry(), oneBugPerChunk(), review.Config{
		Chunk: chunker.Config{MaxLinesPerChunk: -5},
	})

	_, err := eng.ReviewSource(context.Background(), "x.go", "package x\n")
	require.ErrorIs(t, err, chunker.ErrInvalidConfig)
}

func TestReviewSourcePartialFailure(t *testing.T) {
	var calls atomic.Int64
	flaky := dispatch.AnalyzerFunc(func(ctx context.Context, content string) ([]finding.Finding, error) {
		if calls.Add(1) == 2 {
			return nil, errors.New("backend hiccup")
		}
		return []finding.Finding{{Category: finding.CategoryBug, Line: 1, Description: "d"}}, nil
	})

	// Force multiple fallback chunks with a tiny window.
	eng := review.NewEngine(testRegistry(), flaky, review.Config{
		Chunk:   chunker.Config{MaxLinesPerChunk: 50, ActivationThreshold: 0},
		Workers: 1,
	})

	var text strings.Builder
	for i := 0; i < 150; i++ {
		text.WriteString("some line\n")
	}

	report, err := eng.ReviewSource(context.Background(), "big.txt", text.String())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Meta.ChunkCount)
	require.Len(t, report.Meta.FailedChunks, 1)
	assert.Equal(t, 1, report.Meta.FailedChunks[0].Index)
	assert.Len(t, report.Findings, 2)
}

func TestProgressCallback(t *testing.T) {
	var updates atomic.Int64
	eng := review.NewEngine(testRegistry(), oneBugPerChunk(), review.Config{
		Chunk:   chunker.Config{MaxLinesPerChunk: 10, ActivationThreshold: 0},
		Workers: 2,
		OnProgress: func(path string, done, total int) {
			updates.Add(1)
			assert.Equal(t, "p.txt", path)
			assert.Equal(t, 4, total)
		},
	})

	text := strings.Repeat("x\n", 40)
	_, err := eng.ReviewSource(context.Background(), "p.txt", text)
	require.NoError(t, err)
	assert.Equal(t, int64(4), updates.Load())
}

func TestReviewTree(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\n\nfunc A() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.go"), []byte("package b\n\nfunc B() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte("# not reviewed\n"), 0o644))

	eng := review.NewEngine(testRegistry(), oneBugPerChunk(), review.Config{
		Chunk:   chunker.DefaultConfig(),
		Workers: 2,
	})

	reports, err := eng.ReviewTree(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "a.go", reports[0].Path)
	assert.Equal(t, "b.go", reports[1].Path)
	for _, r := range reports {
		assert.Len(t, r.Findings, 1)
	}
}
