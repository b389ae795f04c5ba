package dispatch_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loupe/internal/chunker"
	"loupe/internal/dispatch"
	"loupe/internal/finding"
)

func makeChunks(n int) []chunker.SemanticChunk {
	chunks := make([]chunker.SemanticChunk, n)
	for i := range chunks {
		chunks[i] = chunker.SemanticChunk{
			Content:   fmt.Sprintf("chunk-%d", i),
			StartLine: i*10 + 1,
			EndLine:   (i + 1) * 10,
			Kind:      chunker.KindWindow,
			Index:     i,
		}
	}
	return chunks
}

func TestIndexPreservedRegardlessOfCompletionOrder(t *testing.T) {
	chunks := makeChunks(8)
	analyzer := dispatch.AnalyzerFunc(func(ctx context.Context, content string) ([]finding.Finding, error) {
		// Earlier chunks finish last.
		var idx int
		fmt.Sscanf(content, "chunk-%d", &idx)
		time.Sleep(time.Duration(8-idx) * 5 * time.Millisecond)
		return []finding.Finding{{Category: finding.CategoryBug, Line: 1, Description: content}}, nil
	})

	outcomes := dispatch.Dispatch(context.Background(), chunks, analyzer, 8)
	require.Len(t, outcomes, len(chunks))
	for i, out := range outcomes {
		assert.Equal(t, chunks[i].Index, out.ChunkIndex)
		require.True(t, out.Success)
		require.Len(t, out.Findings, 1)
		assert.Equal(t, chunks[i].Content, out.Findings[0].Description)
		assert.Greater(t, out.Elapsed, time.Duration(0))
	}
}

func TestFailedChunkDoesNotAbortSiblings(t *testing.T) {
	chunks := makeChunks(5)
	boom := errors.New("backend exploded")
	analyzer := dispatch.AnalyzerFunc(func(ctx context.Context, content string) ([]finding.Finding, error) {
		if strings.HasSuffix(content, "-2") {
			return nil, boom
		}
		return []finding.Finding{{Category: finding.CategoryBug, Line: 1, Description: content}}, nil
	})

	outcomes := dispatch.Dispatch(context.Background(), chunks, analyzer, 2)
	require.Len(t, outcomes, 5)
	for i, out := range outcomes {
		if i == 2 {
			assert.False(t, out.Success)
			assert.ErrorIs(t, out.Err, boom)
			assert.Empty(t, out.Findings)
			continue
		}
		assert.True(t, out.Success, "chunk %d", i)
	}
}

func TestConcurrencyBound(t *testing.T) {
	chunks := makeChunks(20)
	const workers = 3

	var inflight, peak atomic.Int64
	analyzer := dispatch.AnalyzerFunc(func(ctx context.Context, content string) ([]finding.Finding, error) {
		n := inflight.Add(1)
		defer inflight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return nil, nil
	})

	outcomes := dispatch.Dispatch(context.Background(), chunks, analyzer, workers)
	require.Len(t, outcomes, 20)
	assert.LessOrEqual(t, peak.Load(), int64(workers))
}

func TestCancellationStopsScheduling(t *testing.T) {
	chunks := makeChunks(5)
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int64
	analyzer := dispatch.AnalyzerFunc(func(_ context.Context, content string) ([]finding.Finding, error) {
		calls.Add(1)
		cancel() // first call cancels the run
		return []finding.Finding{{Category: finding.CategoryBug, Line: 1}}, nil
	})

	outcomes := dispatch.Dispatch(ctx, chunks, analyzer, 1)
	require.Len(t, outcomes, 5)

	// The first chunk completed before cancellation and its result is kept.
	assert.True(t, outcomes[0].Success)
	for i := 1; i < len(outcomes); i++ {
		assert.False(t, outcomes[i].Success, "chunk %d", i)
		assert.ErrorIs(t, outcomes[i].Err, context.Canceled, "chunk %d", i)
	}
	assert.Equal(t, int64(1), calls.Load())
}

func TestCancelledBeforeDispatch(t *testing.T) {
	chunks := makeChunks(3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	analyzer := dispatch.AnalyzerFunc(func(ctx context.Context, content string) ([]finding.Finding, error) {
		t.Fatal("analyzer must not be called after cancellation")
		return nil, nil
	})

	outcomes := dispatch.Dispatch(ctx, chunks, analyzer, 4)
	require.Len(t, outcomes, 3)
	for i, out := range outcomes {
		assert.False(t, out.Success)
		assert.ErrorIs(t, out.Err, context.Canceled)
		assert.Equal(t, chunks[i].Index, out.ChunkIndex)
	}
}

func TestEmptyChunkList(t *testing.T) {
	analyzer := dispatch.AnalyzerFunc(func(ctx context.Context, content string) ([]finding.Finding, error) {
		return nil, nil
	})
	outcomes := dispatch.Dispatch(context.Background(), nil, analyzer, 4)
	assert.Nil(t, outcomes)
}
