package chat

import (
	"context"

	"github.com/voclabs/vocd/internal/domain"
)

// Retriever finds stored posts similar to a query.
type Retriever interface {
	Search(ctx context.Context, query string) ([]domain.Match, error)
}

// Generator produces a completion from a system and user prompt pair.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
