package posts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/voclabs/vocd/internal/db"
	"github.com/voclabs/vocd/internal/domain"
)

// store is the consumer interface for post storage (ISP).
//
//nolint:interfacebloat // posts repo needs hash + sequence + index + search operations
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	Incr(ctx context.Context, key string) (int64, error)
	Del(ctx context.Context, key string) error
	DelMulti(ctx context.Context, keys []string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo implements the post store consumed by the ingest and search usecases.
type Repo struct {
	store  store
	dim    int
	prefix string
	hnsw   HNSWConfig
}

// New creates a posts repository bound to a fixed embedding dimension.
func New(s store, dim int) *Repo {
	return &Repo{
		store:  s,
		dim:    dim,
		prefix: domain.KeyPrefix,
		hnsw:   HNSWConfig{M: 32, EFConstruct: 400},
	}
}

// WithKeyPrefix overrides the key namespace prefix.
func (r *Repo) WithKeyPrefix(prefix string) *Repo {
	if prefix != "" {
		r.prefix = prefix
	}
	return r
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// Dim returns the embedding dimension this store accepts.
func (r *Repo) Dim() int {
	return r.dim
}

// Insert stores a post under the next sequence id and returns that id.
// The embedding must match the store dimension exactly.
func (r *Repo) Insert(ctx context.Context, post *domain.Post) (int64, error) {
	if len(post.Embedding) != r.dim {
		return 0, fmt.Errorf("insert post: got dim %d, want %d: %w",
			len(post.Embedding), r.dim, domain.ErrDimMismatch)
	}

	id, err := r.store.Incr(ctx, r.seqKey())
	if err != nil {
		return 0, fmt.Errorf("next post id: %w", err)
	}

	if err := r.store.HSet(ctx, r.postKey(id), buildHashFields(post)); err != nil {
		return 0, fmt.Errorf("hset %s: %w", r.postKey(id), err)
	}
	return id, nil
}

// Search runs a KNN query and returns candidate matches ordered by the store.
// Threshold filtering and deterministic re-ordering happen in the usecase.
func (r *Repo) Search(ctx context.Context, vector []float32, k int) ([]domain.Match, error) {
	if len(vector) != r.dim {
		return nil, fmt.Errorf("search: got dim %d, want %d: %w",
			len(vector), r.dim, domain.ErrDimMismatch)
	}

	q := &db.KNNQuery{
		IndexName:    r.indexName(),
		Vector:       vector,
		K:            k,
		ReturnFields: []string{"title", "body", "__vector_score"},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", r.indexName(), err)
	}

	return r.parseKNNResults(sr), nil
}

// EnsureSchema creates the FT index if it does not exist yet.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.indexName())
	if err != nil {
		return fmt.Errorf("check index %s: %w", r.indexName(), err)
	}
	if exists {
		return nil
	}

	if err := r.store.CreateIndex(ctx, r.buildIndex()); err != nil {
		return fmt.Errorf("create index %s: %w", r.indexName(), err)
	}
	return nil
}

// Rebuild drops the index, deletes every stored post plus the sequence
// counter, and recreates the index. Used when the embedding dimension
// changes: old vectors cannot be reinterpreted, only re-embedded.
func (r *Repo) Rebuild(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, r.indexName()); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", r.indexName(), err)
	}

	keys, err := r.store.Scan(ctx, r.keyPrefix()+"*")
	if err != nil {
		return fmt.Errorf("scan posts: %w", err)
	}
	if err := r.store.DelMulti(ctx, keys); err != nil {
		return fmt.Errorf("delete posts: %w", err)
	}

	if err := r.store.CreateIndex(ctx, r.buildIndex()); err != nil {
		return fmt.Errorf("create index %s: %w", r.indexName(), err)
	}
	return nil
}

// buildIndex creates the FT index definition for the posts hash prefix.
func (r *Repo) buildIndex() *db.IndexDefinition {
	return &db.IndexDefinition{
		Name:     r.indexName(),
		Prefixes: []string{r.keyPrefix()},
		Vector: db.VectorField{
			Name:        "__vector",
			Alias:       "vector",
			Algorithm:   db.VectorHNSW,
			Dim:         r.dim,
			Distance:    db.DistanceCosine,
			M:           r.hnsw.M,
			EFConstruct: r.hnsw.EFConstruct,
		},
	}
}

// parseKNNResults converts db.SearchResult into []domain.Match. Entries whose
// key does not carry a numeric post id are skipped.
func (r *Repo) parseKNNResults(sr *db.SearchResult) []domain.Match {
	if sr == nil || sr.Total == 0 {
		return nil
	}

	matches := make([]domain.Match, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id, err := strconv.ParseInt(strings.TrimPrefix(entry.Key, r.keyPrefix()), 10, 64)
		if err != nil {
			continue
		}
		matches = append(matches, domain.Match{
			ID:         id,
			Title:      entry.Fields["title"],
			Body:       entry.Fields["body"],
			Similarity: entry.Score,
		})
	}
	return matches
}

func (r *Repo) keyPrefix() string {
	return r.prefix + "posts:"
}

func (r *Repo) postKey(id int64) string {
	return r.keyPrefix() + strconv.FormatInt(id, 10)
}

func (r *Repo) seqKey() string {
	return r.keyPrefix() + "seq"
}

func (r *Repo) indexName() string {
	return r.keyPrefix() + "idx"
}
