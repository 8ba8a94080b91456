package search

import (
	"context"
	"errors"
	"testing"

	"github.com/voclabs/vocd/internal/domain"
)

// --- Mocks ---

type mockRepo struct {
	matches []domain.Match
	err     error
	lastK   int
	called  bool
}

func (m *mockRepo) Search(_ context.Context, _ []float32, k int) ([]domain.Match, error) {
	m.called = true
	m.lastK = k
	return m.matches, m.err
}

type mockEmbedder struct {
	vec    []float32
	err    error
	called bool
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.called = true
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

func newTestService(repo *mockRepo, embed *mockEmbedder) *Service {
	return New(repo, embed, Config{Threshold: 0.7, Limit: 5})
}

// --- Tests ---

func TestSearch_HappyPath(t *testing.T) {
	repo := &mockRepo{matches: []domain.Match{
		{ID: 2, Title: "Card security", Similarity: 0.81},
		{ID: 9, Title: "Mortgage rates", Similarity: 0.93},
	}}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2}}
	svc := newTestService(repo, embed)

	matches, err := svc.Search(context.Background(), "how do rates work")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].ID != 9 || matches[1].ID != 2 {
		t.Fatalf("expected order [9 2], got [%d %d]", matches[0].ID, matches[1].ID)
	}
	if repo.lastK != 10 {
		t.Errorf("expected overfetch K=10, got %d", repo.lastK)
	}
}

func TestSearch_ThresholdIsStrict(t *testing.T) {
	repo := &mockRepo{matches: []domain.Match{
		{ID: 1, Similarity: 0.7},  // exactly at threshold: excluded
		{ID: 2, Similarity: 0.71}, // above: included
		{ID: 3, Similarity: 0.69},
	}}
	svc := newTestService(repo, &mockEmbedder{vec: []float32{0.1}})

	matches, err := svc.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != 2 {
		t.Fatalf("expected only id 2, got %+v", matches)
	}
}

func TestSearch_TiesBrokenByAscendingID(t *testing.T) {
	repo := &mockRepo{matches: []domain.Match{
		{ID: 30, Similarity: 0.8},
		{ID: 4, Similarity: 0.8},
		{ID: 17, Similarity: 0.8},
	}}
	svc := newTestService(repo, &mockEmbedder{vec: []float32{0.1}})

	matches, err := svc.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int64{4, 17, 30}
	for i, id := range want {
		if matches[i].ID != id {
			t.Fatalf("expected ids %v, got %+v", want, matches)
		}
	}
}

func TestSearch_LimitApplied(t *testing.T) {
	var in []domain.Match
	for i := 1; i <= 8; i++ {
		in = append(in, domain.Match{ID: int64(i), Similarity: 0.9})
	}
	repo := &mockRepo{matches: in}
	svc := newTestService(repo, &mockEmbedder{vec: []float32{0.1}})

	matches, err := svc.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 5 {
		t.Fatalf("expected 5 matches, got %d", len(matches))
	}
	if matches[4].ID != 5 {
		t.Fatalf("expected last id 5, got %d", matches[4].ID)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo, &mockEmbedder{vec: []float32{0.1}})

	_, err := svc.Search(context.Background(), "   ")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if repo.called {
		t.Error("repo must not be called for an empty query")
	}
}

func TestSearch_EmptyStore(t *testing.T) {
	svc := newTestService(&mockRepo{}, &mockEmbedder{vec: []float32{0.1}})

	matches, err := svc.Search(context.Background(), "anything")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(matches))
	}
}

func TestSearch_EmbedderError(t *testing.T) {
	repo := &mockRepo{}
	embed := &mockEmbedder{err: domain.ErrProviderError}
	svc := newTestService(repo, embed)

	_, err := svc.Search(context.Background(), "q")
	if !errors.Is(err, domain.ErrProviderError) {
		t.Fatalf("expected ErrProviderError, got %v", err)
	}
	if repo.called {
		t.Error("repo must not be called when embedding fails")
	}
}

func TestSearch_StoreUnreachable(t *testing.T) {
	repo := &mockRepo{err: errors.New("connection refused")}
	svc := newTestService(repo, &mockEmbedder{vec: []float32{0.1}})

	_, err := svc.Search(context.Background(), "q")
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestSearch_DimMismatchNotMaskedAsUnavailable(t *testing.T) {
	repo := &mockRepo{err: domain.ErrDimMismatch}
	svc := newTestService(repo, &mockEmbedder{vec: []float32{0.1}})

	_, err := svc.Search(context.Background(), "q")
	if !errors.Is(err, domain.ErrDimMismatch) {
		t.Fatalf("expected ErrDimMismatch, got %v", err)
	}
	if errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatal("dimension mismatch must not be reported as upstream unavailable")
	}
}
