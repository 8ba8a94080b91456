package domain

// KeyPrefix namespaces all keys this service writes to the store.
const KeyPrefix = "vocd:"

// Post is the persistent unit of retrievable knowledge. Posts are append-only:
// once stored they are never mutated, only destroyed by an explicit schema
// rebuild.
type Post struct {
	ID        int64
	Title     string
	Body      string
	Embedding []float32
}

// Match is one similarity search result. Similarity is 1 - cosine distance,
// clamped to [0,1].
type Match struct {
	ID         int64
	Title      string
	Body       string
	Similarity float64
}

// SourceRow is one input record during ingestion: column-keyed raw values.
// Columns preserves the source column order so that "first column" fallbacks
// are deterministic.
type SourceRow struct {
	Columns []string
	Values  map[string]string
}

// Get returns the value of a column, or "" when absent.
func (r SourceRow) Get(column string) string {
	return r.Values[column]
}
