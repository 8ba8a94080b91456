package ingest

import (
	"context"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voclabs/vocd/internal/domain"
)

// sliceSource yields rows from a slice, optionally failing after the slice
// is drained instead of returning io.EOF.
type sliceSource struct {
	rows    []domain.SourceRow
	tailErr error
	i       int
	closed  bool
}

func (s *sliceSource) Next() (domain.SourceRow, error) {
	if s.i >= len(s.rows) {
		if s.tailErr != nil {
			return domain.SourceRow{}, s.tailErr
		}
		return domain.SourceRow{}, io.EOF
	}
	row := s.rows[s.i]
	s.i++
	return row, nil
}

func (s *sliceSource) Close() error {
	s.closed = true
	return nil
}

// mockEmbedder embeds concurrently; embedFn decides per text.
type mockEmbedder struct {
	mu      sync.Mutex
	calls   map[string]int
	embedFn func(text string, attempt int) (domain.EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[text]++
	attempt := m.calls[text]
	m.mu.Unlock()

	if m.embedFn != nil {
		return m.embedFn(text, attempt)
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}, nil
}

func (m *mockEmbedder) callCount(text string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[text]
}

// mockStore records inserted posts in call order.
type mockStore struct {
	posts    []*domain.Post
	insertFn func(post *domain.Post) (int64, error)
}

func (m *mockStore) Insert(_ context.Context, post *domain.Post) (int64, error) {
	if m.insertFn != nil {
		id, err := m.insertFn(post)
		if err != nil {
			return 0, err
		}
		m.posts = append(m.posts, post)
		return id, nil
	}
	m.posts = append(m.posts, post)
	return int64(len(m.posts)), nil
}

func newTestService(embed *mockEmbedder, store *mockStore, cfg Config) *Service {
	if cfg.RetryBaseDelay == 0 {
		cfg.RetryBaseDelay = time.Millisecond
	}
	return New(embed, store, cfg, zap.NewNop())
}

func row(cols []string, vals map[string]string) domain.SourceRow {
	return domain.SourceRow{Columns: cols, Values: vals}
}

func postRow(title, body string) domain.SourceRow {
	return row([]string{"title", "body"}, map[string]string{"title": title, "body": body})
}
