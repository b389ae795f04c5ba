package store

import (
	"time"

	"loupe/internal/review"
)

// Run is one persisted review run over a single path.
type Run struct {
	ID           int64
	Path         string
	Model        string
	StartedAt    time.Time
	ElapsedMs    int64
	ChunkCount   int
	FailedChunks []review.ChunkFailure
	Findings     int
}
