package interfaces

import (
	"context"
)

// Message represents a single chat message
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// LLMService provides chat completion and text embedding via a model
// provider. Providers that cannot embed return an error from Embed.
type LLMService interface {
	// Chat generates a completion for the conversation history
	Chat(ctx context.Context, messages []Message) (string, error)

	// Embed generates an embedding vector for the given text
	Embed(ctx context.Context, text string) ([]float32, error)

	// Name returns the provider name ("openai", "claude", "gemini")
	Name() string

	// Close releases provider resources
	Close() error
}

// EmbeddingService generates embedding vectors for chunks and queries
type EmbeddingService interface {
	// GenerateEmbedding creates a vector embedding for text
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)

	// GenerateQueryEmbedding generates an embedding for a search query
	GenerateQueryEmbedding(ctx context.Context, query string) ([]float32, error)

	// Dimension returns the embedding dimension
	Dimension() int
}
