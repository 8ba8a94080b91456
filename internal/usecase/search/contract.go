package search

import (
	"context"

	"github.com/voclabs/vocd/internal/domain"
)

// Repository defines the storage contract for similarity search.
type Repository interface {
	Search(ctx context.Context, vector []float32, k int) ([]domain.Match, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
