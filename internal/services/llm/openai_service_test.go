package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/aidocify/docify/internal/common"
	"github.com/aidocify/docify/internal/interfaces"
)

// stubKVStorage returns not-found for every key so the config fallback wins
type stubKVStorage struct{}

func (stubKVStorage) Get(ctx context.Context, key string) (string, error) {
	return "", interfaces.ErrKeyNotFound
}
func (stubKVStorage) Set(ctx context.Context, key, value, description string) error { return nil }
func (stubKVStorage) Delete(ctx context.Context, key string) error                  { return nil }

// stubStorageManager satisfies StorageManager for provider construction
type stubStorageManager struct{}

func (stubStorageManager) JobStatusStorage() interfaces.JobStatusStorage { return nil }
func (stubStorageManager) BlobMetaStorage() interfaces.BlobMetaStorage   { return nil }
func (stubStorageManager) KeyValueStorage() interfaces.KeyValueStorage   { return stubKVStorage{} }
func (stubStorageManager) Close() error                                  { return nil }

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAIService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := &common.OpenAIConfig{
		BaseURL:    server.URL,
		APIKey:     "sk-test",
		ChatModel:  "gpt-4o-mini",
		EmbedModel: "text-embedding-3-small",
		Timeout:    "5s",
	}

	service, err := NewOpenAIService(config, stubStorageManager{}, arbor.NewLogger())
	require.NoError(t, err)
	return service
}

func TestOpenAIService_Chat(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	service := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)

		assert.Equal(t, "/chat/completions", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "The answer is 42."}},
			},
		})
	})

	answer, err := service.Chat(context.Background(), []interfaces.Message{
		{Role: "system", Content: "be helpful"},
		{Role: "user", Content: "what is the answer?"},
	})
	require.NoError(t, err)

	assert.Equal(t, "The answer is 42.", answer)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotBody["model"])

	messages := gotBody["messages"].([]any)
	require.Len(t, messages, 2)
	first := messages[0].(map[string]any)
	assert.Equal(t, "system", first["role"])
}

func TestOpenAIService_ChatEmptyMessages(t *testing.T) {
	service := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := service.Chat(context.Background(), nil)
	assert.Error(t, err)
}

func TestOpenAIService_ChatNoChoices(t *testing.T) {
	service := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})

	_, err := service.Chat(context.Background(), []interfaces.Message{{Role: "user", Content: "hi"}})
	assert.Error(t, err)
}

func TestOpenAIService_Embed(t *testing.T) {
	var gotBody map[string]any

	service := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)

		assert.Equal(t, "/embeddings", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float32{0.1, 0.2, 0.3}},
			},
		})
	})

	embedding, err := service.Embed(context.Background(), "some page text")
	require.NoError(t, err)

	assert.Equal(t, []float32{0.1, 0.2, 0.3}, embedding)
	assert.Equal(t, "text-embedding-3-small", gotBody["model"])
	assert.Equal(t, []any{"some page text"}, gotBody["input"])
}

func TestOpenAIService_EmbedEmptyText(t *testing.T) {
	service := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := service.Embed(context.Background(), "   ")
	assert.Error(t, err)
}

func TestOpenAIService_APIError(t *testing.T) {
	service := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limited"}}`))
	})

	_, err := service.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestOpenAIService_MissingAPIKey(t *testing.T) {
	config := &common.OpenAIConfig{
		BaseURL: "http://localhost:1",
		Timeout: "5s",
	}

	_, err := NewOpenAIService(config, stubStorageManager{}, arbor.NewLogger())
	assert.Error(t, err)
}

func TestConvertMessagesToClaude(t *testing.T) {
	messages := []interfaces.Message{
		{Role: "system", Content: "instructions"},
		{Role: "user", Content: "question"},
		{Role: "assistant", Content: "previous answer"},
	}

	claudeMessages, systemText, err := convertMessagesToClaude(messages)
	require.NoError(t, err)

	assert.Equal(t, "instructions", systemText)
	assert.Len(t, claudeMessages, 2)

	// No user message is an error
	_, _, err = convertMessagesToClaude([]interfaces.Message{{Role: "system", Content: "only system"}})
	assert.Error(t, err)

	_, _, err = convertMessagesToClaude(nil)
	assert.Error(t, err)
}
