// Package dispatch runs chunk analyses across a bounded worker pool.
// Workers never share state: each emits its outcome to a single collector,
// and a failed chunk never aborts its siblings.
package dispatch

import (
	"context"
	"time"

	"loupe/internal/chunker"
	"loupe/internal/finding"
)

// DefaultWorkers is the pool size used when the caller passes a
// non-positive worker count.
const DefaultWorkers = 4

// Analyzer turns chunk content into findings. It is the only blocking
// point in the pipeline; retry, backoff, and timeout policy are entirely
// its own business.
type Analyzer interface {
	Analyze(ctx context.Context, content string) ([]finding.Finding, error)
}

// AnalyzerFunc adapts a function to the Analyzer interface.
type AnalyzerFunc func(ctx context.Context, content string) ([]finding.Finding, error)

func (f AnalyzerFunc) Analyze(ctx context.Context, content string) ([]finding.Finding, error) {
	return f(ctx, content)
}

// Outcome is the result of analyzing one chunk, produced regardless of
// success. Elapsed is the wall time spent inside the Analyzer call.
type Outcome struct {
	ChunkIndex int
	Success    bool
	Findings   []finding.Finding
	Err        error
	Elapsed    time.Duration
}

// Dispatch analyzes chunks under a pool of at most workers concurrent
// Analyzer calls. The returned slice always has exactly one outcome per
// input chunk, positioned identically to the input regardless of the order
// in which workers complete. Cancelling ctx stops scheduling new chunks
// immediately; chunks never scheduled are recorded as failed outcomes
// carrying the context error, and outcomes already produced are kept.
func Dispatch(ctx context.Context, chunks []chunker.SemanticChunk, analyzer Analyzer, workers int) []Outcome {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if len(chunks) == 0 {
		return nil
	}

	// Buffered to the chunk count so no worker ever blocks on send; the
	// collector below is the only reader and the only writer to the
	// outcome slice.
	results := make(chan Outcome, len(chunks))
	sem := make(chan struct{}, workers)

	for _, c := range chunks {
		if ctx.Err() != nil {
			results <- Outcome{ChunkIndex: c.Index, Err: ctx.Err()}
			continue
		}
		select {
		case <-ctx.Done():
			results <- Outcome{ChunkIndex: c.Index, Err: ctx.Err()}
			continue
		case sem <- struct{}{}:
			// The semaphore can win a race against cancellation when a
			// worker releases it after ctx is already done.
			if ctx.Err() != nil {
				<-sem
				results <- Outcome{ChunkIndex: c.Index, Err: ctx.Err()}
				continue
			}
		}
		go func(c chunker.SemanticChunk) {
			defer func() { <-sem }()
			start := time.Now()
			findings, err := analyzer.Analyze(ctx, c.Content)
			out := Outcome{ChunkIndex: c.Index, Elapsed: time.Since(start)}
			if err != nil {
				out.Err = err
			} else {
				out.Success = true
				out.Findings = findings
			}
			results <- out
		}(c)
	}

	// Collect: index outcomes by originating chunk, not completion order.
	slot := make(map[int]int, len(chunks))
	for i, c := range chunks {
		slot[c.Index] = i
	}
	outcomes := make([]Outcome, len(chunks))
	for range chunks {
		out := <-results
		outcomes[slot[out.ChunkIndex]] = out
	}
	return outcomes
}
