package ingest

import (
	"context"

	"github.com/voclabs/vocd/internal/domain"
)

// Source yields rows one at a time. Next returns io.EOF after the last row.
// The pipeline iterates a source exactly once.
type Source interface {
	Next() (domain.SourceRow, error)
	Close() error
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Store persists posts with their embeddings.
type Store interface {
	Insert(ctx context.Context, post *domain.Post) (int64, error)
}
