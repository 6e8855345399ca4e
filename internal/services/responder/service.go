package responder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/aidocify/docify/internal/interfaces"
	"github.com/aidocify/docify/internal/models"
)

// ErrNoContent indicates the source has no indexed chunks to summarize
var ErrNoContent = errors.New("no indexed content for source")

const (
	defaultTopK = 4
	maxTopK     = 10
)

// Service answers questions and produces summaries grounded in a single
// document's indexed chunks. It never lets the model answer from its own
// knowledge: empty retrieval short-circuits to a fallback message.
type Service struct {
	embedder    interfaces.EmbeddingService
	vectorIndex interfaces.VectorIndex
	chatService interfaces.LLMService
	topK        int
	logger      arbor.ILogger
}

var _ interfaces.ResponderService = (*Service)(nil)

// NewService creates the responder service
func NewService(embedder interfaces.EmbeddingService, vectorIndex interfaces.VectorIndex, chatService interfaces.LLMService, topK int, logger arbor.ILogger) *Service {
	if topK <= 0 {
		topK = defaultTopK
	}
	if topK > maxTopK {
		topK = maxTopK
	}

	return &Service{
		embedder:    embedder,
		vectorIndex: vectorIndex,
		chatService: chatService,
		topK:        topK,
		logger:      logger,
	}
}

// Chat answers a free-text query from the top-k chunks of the given source
func (s *Service) Chat(ctx context.Context, sourceID, query string) (*interfaces.ChatResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	queryVector, err := s.embedder.GenerateQueryEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	docs, err := s.vectorIndex.Search(ctx, queryVector, s.topK, sourceID)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}

	// Nothing retrieved: answer gracefully without the model so it cannot
	// hallucinate an answer from outside the document.
	if len(docs) == 0 {
		s.logger.Debug().Str("source_id", sourceID).Msg("No chunks retrieved for query")
		return &interfaces.ChatResult{
			Message: noContextFallback,
			Docs:    []models.RetrievedChunk{},
		}, nil
	}

	var contextText strings.Builder
	for i, doc := range docs {
		if i > 0 {
			contextText.WriteString("\n\n---\n\n")
		}
		contextText.WriteString(doc.Text)
	}

	messages := []interfaces.Message{
		{Role: "system", Content: chatSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Context:\n---\n%s\n---\nQuestion: %s\nAnswer:", contextText.String(), query)},
	}

	answer, err := s.chatService.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	s.logger.Debug().
		Str("source_id", sourceID).
		Int("docs", len(docs)).
		Int("answer_length", len(answer)).
		Msg("Chat answer generated")

	return &interfaces.ChatResult{
		Message: answer,
		Docs:    docs,
	}, nil
}

// Summarize produces a concise full-document summary from every chunk of
// the given source, in page order.
func (s *Service) Summarize(ctx context.Context, sourceID string) (string, error) {
	chunks, err := s.vectorIndex.FetchBySource(ctx, sourceID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch document chunks: %w", err)
	}

	if len(chunks) == 0 {
		return "", ErrNoContent
	}

	// Reassemble the document in reading order
	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Page < chunks[j].Page
	})

	var documentText strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			documentText.WriteString("\n\n")
		}
		documentText.WriteString(chunk.Text)
	}

	messages := []interfaces.Message{
		{Role: "system", Content: summaryPrompt},
		{Role: "user", Content: documentText.String()},
	}

	summary, err := s.chatService.Chat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("summary generation failed: %w", err)
	}

	if strings.TrimSpace(summary) == "" {
		return "", fmt.Errorf("model returned empty summary")
	}

	s.logger.Debug().
		Str("source_id", sourceID).
		Int("chunks", len(chunks)).
		Int("summary_length", len(summary)).
		Msg("Summary generated")

	return summary, nil
}
