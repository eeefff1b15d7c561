// Package vector provides the optional shadow vector store used to
// cross-check hybrid search ranking against a second index.
package vector

import "context"

// Document is one embedded entity stored in the shadow index.
type Document struct {
	ID       uint64
	Name     string
	Vector   []float32
	Metadata map[string]string
}

// SearchResult is a single match from a similarity search.
type SearchResult struct {
	ID       uint64
	Score    float32
	Name     string
	Metadata map[string]string
}

// Repository provides vector storage and similarity search.
type Repository interface {
	// Upsert inserts or updates documents.
	Upsert(ctx context.Context, docs []Document) error
	// Search finds the top-k most similar documents.
	Search(ctx context.Context, vector []float32, topK int) ([]SearchResult, error)
	// Close releases resources.
	Close() error
}
