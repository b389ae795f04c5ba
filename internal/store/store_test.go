package store_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loupe/internal/finding"
	"loupe/internal/review"
	"loupe/internal/store"
)

func openTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGetRun(t *testing.T) {
	s := openTestStore(t)

	run := store.Run{
		Path:       "internal/server/server.go",
		Model:      "qwen3:8b",
		ElapsedMs:  4200,
		ChunkCount: 5,
		FailedChunks: []review.ChunkFailure{
			{Index: 3, Err: "timeout"},
		},
	}
	findings := []finding.MergedFinding{
		{Category: finding.CategoryBug, Severity: finding.SeverityHigh, Line: 42, Description: "nil deref", Reasoning: "unchecked", Confidence: 0.8, Chunks: []int{0}},
		{Category: finding.CategoryStyle, Severity: finding.SeverityLow, Line: 7, Description: "naming", Reasoning: "r", Chunks: []int{0, 1}},
	}

	id, err := s.SaveRun(run, findings)
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	got, err := s.GetRun(id)
	require.NoError(t, err)
	assert.Equal(t, run.Path, got.Path)
	assert.Equal(t, run.Model, got.Model)
	assert.Equal(t, run.ElapsedMs, got.ElapsedMs)
	assert.Equal(t, run.ChunkCount, got.ChunkCount)
	assert.Equal(t, run.FailedChunks, got.FailedChunks)
	assert.Equal(t, 2, got.Findings)
	assert.False(t, got.StartedAt.IsZero())
}

func TestGetFindingsOrderedByLine(t *testing.T) {
	s := openTestStore(t)

	id, err := s.SaveRun(store.Run{Path: "a.go"}, []finding.MergedFinding{
		{Category: finding.CategoryBug, Severity: finding.SeverityHigh, Line: 42, Description: "late", Chunks: []int{1}},
		{Category: finding.CategoryStyle, Severity: finding.SeverityLow, Line: 7, Description: "early", Chunks: []int{0, 1}},
	})
	require.NoError(t, err)

	got, err := s.GetFindings(id)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 7, got[0].Line)
	assert.Equal(t, "early", got[0].Description)
	assert.Equal(t, []int{0, 1}, got[0].Chunks)
	assert.Equal(t, 42, got[1].Line)
}

func TestListRunsNewestFirst(t *testing.T) {
	s := openTestStore(t)

	for _, p := range []string{"first.go", "second.go", "third.go"} {
		_, err := s.SaveRun(store.Run{Path: p}, nil)
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "third.go", runs[0].Path)
	assert.Equal(t, "second.go", runs[1].Path)
}

func TestListRunsDefaultLimit(t *testing.T) {
	s := openTestStore(t)

	_, err := s.SaveRun(store.Run{Path: "only.go"}, nil)
	require.NoError(t, err)

	runs, err := s.ListRuns(0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestGetRunMissing(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetRun(999)
	require.Error(t, err)
}

func TestRunWithoutFailures(t *testing.T) {
	s := openTestStore(t)

	id, err := s.SaveRun(store.Run{Path: "clean.go", ChunkCount: 2}, nil)
	require.NoError(t, err)

	got, err := s.GetRun(id)
	require.NoError(t, err)
	assert.Empty(t, got.FailedChunks)
	assert.Equal(t, 0, got.Findings)
}
