package db

// KNNQuery describes a vector similarity search request.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchEntry is a single hit with its key, similarity score, and returned fields.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// SearchResult holds the total match count and returned entries.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}
