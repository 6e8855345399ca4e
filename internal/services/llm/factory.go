package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/aidocify/docify/internal/common"
	"github.com/aidocify/docify/internal/interfaces"
)

// NewChatService constructs the chat provider selected by llm.chat_provider
func NewChatService(config *common.Config, storageManager interfaces.StorageManager, logger arbor.ILogger) (interfaces.LLMService, error) {
	return newProvider(config.LLM.ChatProvider, config, storageManager, logger)
}

// NewEmbedService constructs the embedding provider selected by
// llm.embed_provider. Claude is rejected here because it cannot embed.
func NewEmbedService(config *common.Config, storageManager interfaces.StorageManager, logger arbor.ILogger) (interfaces.LLMService, error) {
	if config.LLM.EmbedProvider == common.ProviderClaude {
		return nil, fmt.Errorf("claude cannot serve as embed provider; use openai or gemini")
	}
	return newProvider(config.LLM.EmbedProvider, config, storageManager, logger)
}

func newProvider(provider common.LLMProvider, config *common.Config, storageManager interfaces.StorageManager, logger arbor.ILogger) (interfaces.LLMService, error) {
	switch provider {
	case common.ProviderOpenAI:
		return NewOpenAIService(&config.OpenAI, storageManager, logger)
	case common.ProviderClaude:
		return NewClaudeService(&config.Claude, storageManager, logger)
	case common.ProviderGemini:
		return NewGeminiService(&config.Gemini, config.LLM.EmbedDimension, storageManager, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}
