package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/aidocify/docify/internal/common"
	"github.com/aidocify/docify/internal/interfaces"
)

// OpenAIService implements the LLMService interface against an
// OpenAI-compatible REST API. It covers both chat completions and
// embeddings, so it can serve as chat provider, embed provider, or both.
type OpenAIService struct {
	config *common.OpenAIConfig
	logger arbor.ILogger
	apiKey string
	client *http.Client
}

// Compile-time interface assertion
var _ interfaces.LLMService = (*OpenAIService)(nil)

// NewOpenAIService creates a new OpenAI LLM service instance
func NewOpenAIService(openaiConfig *common.OpenAIConfig, storageManager interfaces.StorageManager, logger arbor.ILogger) (*OpenAIService, error) {
	ctx := context.Background()
	apiKey, err := common.ResolveAPIKey(ctx, storageManager.KeyValueStorage(), "openai_api_key", openaiConfig.APIKey)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API key is required (set via OPENAI_API_KEY or openai.api_key in config): %w", err)
	}

	timeout, err := time.ParseDuration(openaiConfig.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", openaiConfig.Timeout, err)
	}

	service := &OpenAIService{
		config: openaiConfig,
		logger: logger,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}

	logger.Debug().
		Str("base_url", openaiConfig.BaseURL).
		Str("chat_model", openaiConfig.ChatModel).
		Str("embed_model", openaiConfig.EmbedModel).
		Msg("OpenAI LLM service initialized successfully")

	return service, nil
}

// Chat generates a completion response based on the conversation history
func (s *OpenAIService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty for chat completion")
	}

	startTime := time.Now()

	reqBody := map[string]any{
		"model":    s.config.ChatModel,
		"messages": messages,
	}
	if s.config.Temperature > 0 {
		reqBody["temperature"] = s.config.Temperature
	}

	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := s.postJSON(ctx, "/chat/completions", reqBody, &resp); err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("no response generated from OpenAI API")
	}

	s.logger.Debug().
		Int("message_count", len(messages)).
		Dur("duration", time.Since(startTime)).
		Msg("OpenAI chat completion completed")

	return resp.Choices[0].Message.Content, nil
}

// Embed generates an embedding vector for the given text
func (s *OpenAIService) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty for embedding")
	}

	reqBody := map[string]any{
		"model": s.config.EmbedModel,
		"input": []string{text},
	}

	var resp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := s.postJSON(ctx, "/embeddings", reqBody, &resp); err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embedding returned from API")
	}

	return resp.Data[0].Embedding, nil
}

// Name returns the provider name
func (s *OpenAIService) Name() string {
	return "openai"
}

// Close releases resources
func (s *OpenAIService) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *OpenAIService) postJSON(ctx context.Context, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	url := strings.TrimRight(s.config.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("openai POST %s failed: %s: %s", path, resp.Status, string(snippet))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
