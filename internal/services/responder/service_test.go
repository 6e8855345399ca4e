package responder

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/aidocify/docify/internal/interfaces"
	"github.com/aidocify/docify/internal/models"
)

type stubEmbedder struct {
	vector []float32
	err    error
}

func (s *stubEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return s.vector, s.err
}
func (s *stubEmbedder) GenerateQueryEmbedding(ctx context.Context, query string) ([]float32, error) {
	return s.vector, s.err
}
func (s *stubEmbedder) Dimension() int { return len(s.vector) }

type stubIndex struct {
	searchResults []models.RetrievedChunk
	searchErr     error
	fetchResults  []models.RetrievedChunk
	fetchErr      error

	gotVector   []float32
	gotK        int
	gotSourceID string
}

func (s *stubIndex) EnsureCollection(ctx context.Context, dimension int) error { return nil }
func (s *stubIndex) Upsert(ctx context.Context, chunks []models.DocumentChunk) error {
	return nil
}
func (s *stubIndex) Search(ctx context.Context, vector []float32, k int, sourceID string) ([]models.RetrievedChunk, error) {
	s.gotVector = vector
	s.gotK = k
	s.gotSourceID = sourceID
	return s.searchResults, s.searchErr
}
func (s *stubIndex) FetchBySource(ctx context.Context, sourceID string) ([]models.RetrievedChunk, error) {
	s.gotSourceID = sourceID
	return s.fetchResults, s.fetchErr
}
func (s *stubIndex) DeleteBySource(ctx context.Context, sourceID string) error { return nil }

type stubChat struct {
	answer      string
	err         error
	gotMessages []interfaces.Message
	calls       int
}

func (s *stubChat) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	s.calls++
	s.gotMessages = messages
	return s.answer, s.err
}
func (s *stubChat) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("not implemented")
}
func (s *stubChat) Name() string { return "stub" }
func (s *stubChat) Close() error { return nil }

func TestService_Chat(t *testing.T) {
	index := &stubIndex{searchResults: []models.RetrievedChunk{
		{SourceID: "pdf_1", Text: "widgets are blue", Page: 2, Score: 0.91},
		{SourceID: "pdf_1", Text: "widgets have gears", Page: 5, Score: 0.84},
	}}
	chat := &stubChat{answer: "Widgets are blue and have gears."}
	service := NewService(&stubEmbedder{vector: []float32{0.5, 0.5}}, index, chat, 4, arbor.NewLogger())

	result, err := service.Chat(context.Background(), "pdf_1", "what are widgets like?")
	require.NoError(t, err)

	assert.Equal(t, "Widgets are blue and have gears.", result.Message)
	assert.Len(t, result.Docs, 2)
	assert.Equal(t, "pdf_1", index.gotSourceID)
	assert.Equal(t, 4, index.gotK)

	// Retrieved chunks reach the model joined by separators, oldest first
	require.Len(t, chat.gotMessages, 2)
	assert.Equal(t, "system", chat.gotMessages[0].Role)
	userContent := chat.gotMessages[1].Content
	assert.Contains(t, userContent, "widgets are blue\n\n---\n\nwidgets have gears")
	assert.Contains(t, userContent, "Question: what are widgets like?")
}

func TestService_ChatEmptyRetrieval(t *testing.T) {
	index := &stubIndex{searchResults: nil}
	chat := &stubChat{answer: "should never be used"}
	service := NewService(&stubEmbedder{vector: []float32{0.5}}, index, chat, 4, arbor.NewLogger())

	result, err := service.Chat(context.Background(), "pdf_1", "anything at all?")
	require.NoError(t, err)

	// The model is never consulted when nothing was retrieved
	assert.Equal(t, 0, chat.calls)
	assert.NotEmpty(t, result.Message)
	assert.NotEqual(t, "should never be used", result.Message)
	assert.Empty(t, result.Docs)
}

func TestService_ChatEmptyQuery(t *testing.T) {
	service := NewService(&stubEmbedder{}, &stubIndex{}, &stubChat{}, 4, arbor.NewLogger())

	_, err := service.Chat(context.Background(), "pdf_1", "   ")
	assert.Error(t, err)
}

func TestService_ChatEmbedError(t *testing.T) {
	embedder := &stubEmbedder{err: fmt.Errorf("provider down")}
	service := NewService(embedder, &stubIndex{}, &stubChat{}, 4, arbor.NewLogger())

	_, err := service.Chat(context.Background(), "pdf_1", "question")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to embed query")
}

func TestService_ChatSearchError(t *testing.T) {
	index := &stubIndex{searchErr: fmt.Errorf("qdrant unreachable")}
	service := NewService(&stubEmbedder{vector: []float32{0.1}}, index, &stubChat{}, 4, arbor.NewLogger())

	_, err := service.Chat(context.Background(), "pdf_1", "question")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieval failed")
}

func TestService_TopKClamped(t *testing.T) {
	index := &stubIndex{searchResults: []models.RetrievedChunk{{Text: "x"}}}
	service := NewService(&stubEmbedder{vector: []float32{0.1}}, index, &stubChat{answer: "ok"}, 500, arbor.NewLogger())

	_, err := service.Chat(context.Background(), "pdf_1", "question")
	require.NoError(t, err)
	assert.Equal(t, maxTopK, index.gotK)

	service = NewService(&stubEmbedder{vector: []float32{0.1}}, index, &stubChat{answer: "ok"}, 0, arbor.NewLogger())
	_, err = service.Chat(context.Background(), "pdf_1", "question")
	require.NoError(t, err)
	assert.Equal(t, defaultTopK, index.gotK)
}

func TestService_Summarize(t *testing.T) {
	index := &stubIndex{fetchResults: []models.RetrievedChunk{
		{SourceID: "pdf_1", Text: "conclusion", Page: 9},
		{SourceID: "pdf_1", Text: "introduction", Page: 1},
		{SourceID: "pdf_1", Text: "method", Page: 4},
	}}
	chat := &stubChat{answer: "A study of widgets."}
	service := NewService(&stubEmbedder{}, index, chat, 4, arbor.NewLogger())

	summary, err := service.Summarize(context.Background(), "pdf_1")
	require.NoError(t, err)
	assert.Equal(t, "A study of widgets.", summary)

	// Chunks reach the model in page order regardless of retrieval order
	require.Len(t, chat.gotMessages, 2)
	body := chat.gotMessages[1].Content
	introPos := strings.Index(body, "introduction")
	methodPos := strings.Index(body, "method")
	conclPos := strings.Index(body, "conclusion")
	assert.True(t, introPos < methodPos && methodPos < conclPos)
}

func TestService_SummarizeNoContent(t *testing.T) {
	service := NewService(&stubEmbedder{}, &stubIndex{}, &stubChat{}, 4, arbor.NewLogger())

	_, err := service.Summarize(context.Background(), "pdf_missing")
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestService_SummarizeChatError(t *testing.T) {
	index := &stubIndex{fetchResults: []models.RetrievedChunk{{Text: "content", Page: 1}}}
	chat := &stubChat{err: fmt.Errorf("model overloaded")}
	service := NewService(&stubEmbedder{}, index, chat, 4, arbor.NewLogger())

	_, err := service.Summarize(context.Background(), "pdf_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "summary generation failed")
}
