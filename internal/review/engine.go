// Package review orchestrates the chunk → dispatch → merge pipeline and
// owns the merge semantics that make the result deterministic regardless
// of analysis completion order.
package review

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"loupe/internal/chunker"
	"loupe/internal/dispatch"
	"loupe/internal/finding"
	"loupe/internal/walker"
)

// treeWorkers bounds how many files a tree review processes at once.
// Chunk-level concurrency within a file is bounded separately by Workers.
const treeWorkers = 2

// ProgressFunc receives chunk completion updates during a review.
type ProgressFunc func(path string, done, total int)

// Config controls a review run.
type Config struct {
	Chunk      chunker.Config
	Workers    int
	OnProgress ProgressFunc
}

// Report is the result of reviewing one file.
type Report struct {
	Path     string                  `json:"path"`
	Language string                  `json:"language,omitempty"`
	Findings []finding.MergedFinding `json:"findings"`
	Summary  finding.Summary         `json:"summary"`
	Meta     RunMetadata             `json:"meta"`
	Elapsed  time.Duration           `json:"elapsed"`
}

// ReportFromStored rebuilds a Report from persisted run data.
func ReportFromStored(path string, findings []finding.MergedFinding, failed []ChunkFailure, chunkCount int, elapsed time.Duration) *Report {
	return &Report{
		Path:     path,
		Findings: findings,
		Summary:  finding.Summarize(findings),
		Meta:     RunMetadata{ChunkCount: chunkCount, FailedChunks: failed},
		Elapsed:  elapsed,
	}
}

// Engine runs the pipeline over files and trees.
type Engine struct {
	chunker  *chunker.Chunker
	registry *chunker.Registry
	analyzer dispatch.Analyzer
	cfg      Config
}

// NewEngine creates an engine. The analyzer is the external analysis
// capability; everything it does (prompting, backend calls, its own retry
// and timeout policy) is opaque here.
func NewEngine(reg *chunker.Registry, analyzer dispatch.Analyzer, cfg Config) *Engine {
	return &Engine{
		chunker:  chunker.New(reg),
		registry: reg,
		analyzer: analyzer,
		cfg:      cfg,
	}
}

// ReviewFile runs the full pipeline on a single file.
func (e *Engine) ReviewFile(ctx context.Context, path string) (*Report, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return e.reviewSource(ctx, path, string(src))
}

// ReviewSource runs the pipeline on already-loaded text. The path is used
// for grammar lookup and reporting only.
func (e *Engine) ReviewSource(ctx context.Context, path, text string) (*Report, error) {
	return e.reviewSource(ctx, path, text)
}

func (e *Engine) reviewSource(ctx context.Context, path, text string) (*Report, error) {
	start := time.Now()
	source := chunker.NewSourceUnit(text)

	chunks, err := e.chunker.Chunk(path, source, e.cfg.Chunk)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Path:     path,
		Language: e.registry.LanguageName(path),
	}
	if len(chunks) == 0 {
		// Empty input: nothing to analyze.
		report.Summary = finding.Summarize(nil)
		report.Elapsed = time.Since(start)
		return report, nil
	}

	outcomes := dispatch.Dispatch(ctx, chunks, e.progressAnalyzer(path, len(chunks)), e.cfg.Workers)
	result, meta := Merge(outcomes, chunks)

	report.Findings = result.Findings
	report.Summary = finding.Summarize(result.Findings)
	report.Meta = meta
	report.Elapsed = time.Since(start)
	return report, nil
}

// progressAnalyzer wraps the engine's analyzer so every completed chunk,
// successful or not, bumps the progress callback.
func (e *Engine) progressAnalyzer(path string, total int) dispatch.Analyzer {
	if e.cfg.OnProgress == nil {
		return e.analyzer
	}
	var done atomic.Int64
	return dispatch.AnalyzerFunc(func(ctx context.Context, content string) ([]finding.Finding, error) {
		findings, err := e.analyzer.Analyze(ctx, content)
		e.cfg.OnProgress(path, int(done.Add(1)), total)
		return findings, err
	})
}

// ReviewTree walks root and reviews every file with a registered grammar
// extension, a bounded number of files at a time. Unreadable files fail the
// run; analysis failures inside a file stay in that file's metadata.
func (e *Engine) ReviewTree(ctx context.Context, root string) ([]*Report, error) {
	files, errCh := walker.Walk(root, e.registry.Extensions())

	var mu sync.Mutex
	var reports []*Report

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(treeWorkers)
	for fi := range files {
		g.Go(func() error {
			r, err := e.ReviewFile(gctx, fi.Path)
			if err != nil {
				return err
			}
			r.Path = fi.RelPath
			mu.Lock()
			reports = append(reports, r)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := <-errCh; err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Path < reports[j].Path
	})
	return reports, nil
}
