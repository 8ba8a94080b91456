// Package search implements query-time similarity retrieval over stored posts.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/voclabs/vocd/internal/domain"
)

// Config holds the retrieval cut-off parameters.
type Config struct {
	// Threshold is the strict lower bound on similarity. Matches at exactly
	// this value are excluded.
	Threshold float64
	// Limit caps the number of returned matches.
	Limit int
}

// Service handles similarity search: embed the query, fetch KNN candidates,
// apply the threshold and deterministic ordering.
type Service struct {
	repo  Repository
	embed Embedder
	cfg   Config
}

// New creates a search service.
func New(repo Repository, embed Embedder, cfg Config) *Service {
	return &Service{repo: repo, embed: embed, cfg: cfg}
}

// Search returns the posts most similar to query, ordered by similarity
// descending with ties broken by ascending post id. Results never exceed
// cfg.Limit and never include matches at or below cfg.Threshold.
func (s *Service) Search(ctx context.Context, query string) ([]domain.Match, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query: %w", domain.ErrValidation)
	}

	embResult, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	// Overfetch so that score ties at the limit boundary are resolved here
	// by post id rather than by the store's internal ordering. The window is
	// best-effort: a tie group larger than limit KNN slots is still cut by
	// the backend before we see it.
	candidates, err := s.repo.Search(ctx, embResult.Embedding, s.cfg.Limit*2)
	if err != nil {
		if errors.Is(err, domain.ErrDimMismatch) {
			return nil, fmt.Errorf("search posts: %w", err)
		}
		return nil, fmt.Errorf("search posts: %w: %w", domain.ErrUpstreamUnavailable, err)
	}

	matches := candidates[:0]
	for _, m := range candidates {
		if m.Similarity > s.cfg.Threshold {
			matches = append(matches, m)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].ID < matches[j].ID
	})

	if len(matches) > s.cfg.Limit {
		matches = matches[:s.cfg.Limit]
	}
	return matches, nil
}
