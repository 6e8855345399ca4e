package interfaces

import (
	"context"

	"github.com/aidocify/docify/internal/models"
)

// VectorIndex stores (embedding, text, metadata) tuples and supports
// nearest-neighbor search with an exact-match filter on the source
// identifier. Without that filter, retrieval degrades to the entire corpus.
type VectorIndex interface {
	// EnsureCollection creates the collection with the given embedding
	// dimension and cosine distance if it does not exist. Idempotent:
	// calling it on an existing collection is never an error.
	EnsureCollection(ctx context.Context, dimension int) error

	// Upsert writes all chunks in a single batch call
	Upsert(ctx context.Context, chunks []models.DocumentChunk) error

	// Search returns the top-k chunks nearest to the query vector. When
	// sourceID is non-empty, results are restricted to that document.
	Search(ctx context.Context, vector []float32, k int, sourceID string) ([]models.RetrievedChunk, error)

	// FetchBySource returns every chunk tagged with the source identifier,
	// for full-document operations like summarization.
	FetchBySource(ctx context.Context, sourceID string) ([]models.RetrievedChunk, error)

	// DeleteBySource removes all chunks tagged with the source identifier
	DeleteBySource(ctx context.Context, sourceID string) error
}
