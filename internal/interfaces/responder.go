package interfaces

import (
	"context"

	"github.com/aidocify/docify/internal/models"
)

// ChatResult carries the generated answer plus the retrieved chunks that
// grounded it, for citation display on the client.
type ChatResult struct {
	Message string                  `json:"message"`
	Docs    []models.RetrievedChunk `json:"docs"`
}

// ResponderService answers questions and produces summaries grounded in a
// single document's indexed chunks.
type ResponderService interface {
	// Chat answers a free-text query from the top-k chunks of the given
	// source. When retrieval finds nothing it returns a graceful fallback
	// answer without invoking the language model.
	Chat(ctx context.Context, sourceID, query string) (*ChatResult, error)

	// Summarize produces a concise full-document summary from every chunk
	// of the given source, in page order. Returns responder.ErrNoContent
	// when zero chunks exist.
	Summarize(ctx context.Context, sourceID string) (string, error)
}
