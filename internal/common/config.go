package common

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/aidocify/docify/internal/interfaces"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Logging     LoggingConfig   `toml:"logging"`
	Storage     StorageConfig   `toml:"storage"`
	BlobStore   BlobStoreConfig `toml:"blobstore"`
	Queue       QueueConfig     `toml:"queue"`
	Qdrant      QdrantConfig    `toml:"qdrant"`
	Ingest      IngestConfig    `toml:"ingest"`
	Chat        ChatConfig      `toml:"chat"`
	OpenAI      OpenAIConfig    `toml:"openai"`
	Claude      ClaudeConfig    `toml:"claude"`
	Gemini      GeminiConfig    `toml:"gemini"`
	LLM         LLMConfig       `toml:"llm"`
}

type ServerConfig struct {
	Port           int      `toml:"port" validate:"gt=0,lte=65535"`
	Host           string   `toml:"host" validate:"required"`
	AllowedOrigins []string `toml:"allowed_origins"` // CORS allow-list; empty allows any origin (development)
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"`
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// BlobStoreConfig configures where uploaded file bytes live
type BlobStoreConfig struct {
	Dir           string `toml:"dir" validate:"required"` // Directory holding uploaded blobs
	PublicBaseURL string `toml:"public_base_url"`         // Prefix for preview URLs; defaults to the serving path
}

type QueueConfig struct {
	PollInterval      string `toml:"poll_interval"` // e.g., "1s" - how often workers poll for messages
	Concurrency       int    `toml:"concurrency" validate:"gt=0"`
	VisibilityTimeout string `toml:"visibility_timeout"` // e.g., "5m" - message visibility timeout for redelivery
	MaxReceive        int    `toml:"max_receive"`        // Max times a message can be received before disposal
	QueueName         string `toml:"queue_name"`         // Queue name prefix in Badger
}

// QdrantConfig configures the vector index collaborator
type QdrantConfig struct {
	URL        string `toml:"url" validate:"required,url"`
	APIKey     string `toml:"api_key"`
	Collection string `toml:"collection" validate:"required"`
	Timeout    string `toml:"timeout"`
}

// IngestConfig configures the ingestion worker
type IngestConfig struct {
	ScratchDir      string `toml:"scratch_dir"`      // Transient per-job PDF scratch area; defaults under os.TempDir
	ReplaceExisting bool   `toml:"replace_existing"` // Delete previously ingested chunks for a source id before upserting
	FetchTimeout    string `toml:"fetch_timeout"`    // Blob download timeout
}

// ChatConfig configures retrieval-augmented chat
type ChatConfig struct {
	TopK int `toml:"top_k"` // Retrieved chunks per chat query (default 4)
}

// OpenAIConfig holds settings for the OpenAI-compatible provider
type OpenAIConfig struct {
	BaseURL     string  `toml:"base_url"`
	APIKey      string  `toml:"api_key"`
	ChatModel   string  `toml:"chat_model"`
	EmbedModel  string  `toml:"embed_model"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

// ClaudeConfig holds settings for the Anthropic Claude provider
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Timeout     string  `toml:"timeout"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float32 `toml:"temperature"`
}

// GeminiConfig holds settings for the Google Gemini provider
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	ChatModel   string  `toml:"chat_model"`
	EmbedModel  string  `toml:"embed_model"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

// LLMProvider identifies a model provider
type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderClaude LLMProvider = "claude"
	ProviderGemini LLMProvider = "gemini"
)

// LLMConfig selects providers and the shared embedding dimension
type LLMConfig struct {
	ChatProvider   LLMProvider `toml:"chat_provider" validate:"oneof=openai claude gemini"`
	EmbedProvider  LLMProvider `toml:"embed_provider" validate:"oneof=openai gemini"`
	EmbedDimension int         `toml:"embed_dimension" validate:"gt=0"`
}

// NewDefaultConfig returns the configuration defaults applied before any
// file or environment override.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port:           8000,
			Host:           "localhost",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/docify",
			},
		},
		BlobStore: BlobStoreConfig{
			Dir: "./data/uploads",
		},
		Queue: QueueConfig{
			PollInterval:      "1s",
			Concurrency:       5,
			VisibilityTimeout: "5m",
			MaxReceive:        3,
			QueueName:         "file-upload-queue",
		},
		Qdrant: QdrantConfig{
			URL:        "http://localhost:6333",
			Collection: "ai_docs",
			Timeout:    "15s",
		},
		Ingest: IngestConfig{
			ReplaceExisting: true,
			FetchTimeout:    "60s",
		},
		Chat: ChatConfig{
			TopK: 4,
		},
		OpenAI: OpenAIConfig{
			BaseURL:    "https://api.openai.com/v1",
			ChatModel:  "gpt-4o-mini",
			EmbedModel: "text-embedding-3-small",
			Timeout:    "60s",
		},
		Claude: ClaudeConfig{
			Model:     "claude-sonnet-4-20250514",
			Timeout:   "60s",
			MaxTokens: 8192,
		},
		Gemini: GeminiConfig{
			ChatModel:  "gemini-2.0-flash",
			EmbedModel: "gemini-embedding-001",
			Timeout:    "60s",
		},
		LLM: LLMConfig{
			ChatProvider:   ProviderOpenAI,
			EmbedProvider:  ProviderOpenAI,
			EmbedDimension: 1536,
		},
	}
}

// LoadFromFiles loads configuration with precedence:
// defaults -> file1 -> file2 -> ... -> environment variables.
// Later config files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the assembled configuration for structural errors
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if _, err := time.ParseDuration(c.Queue.PollInterval); err != nil {
		return fmt.Errorf("invalid queue.poll_interval %q: %w", c.Queue.PollInterval, err)
	}
	if _, err := time.ParseDuration(c.Queue.VisibilityTimeout); err != nil {
		return fmt.Errorf("invalid queue.visibility_timeout %q: %w", c.Queue.VisibilityTimeout, err)
	}

	return nil
}

// applyEnvOverrides applies DOCIFY_* environment variables over the loaded
// configuration. Credentials are expected to arrive this way in production.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("DOCIFY_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("DOCIFY_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	} else if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("DOCIFY_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if origins := os.Getenv("DOCIFY_ALLOWED_ORIGINS"); origins != "" {
		config.Server.AllowedOrigins = splitAndTrim(origins, ",")
	} else if frontend := os.Getenv("FRONTEND_URL"); frontend != "" {
		config.Server.AllowedOrigins = splitAndTrim(frontend, ",")
	}

	// Logging configuration
	if level := os.Getenv("DOCIFY_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("DOCIFY_LOG_OUTPUT"); output != "" {
		if outputs := splitAndTrim(output, ","); len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Storage configuration
	if badgerPath := os.Getenv("DOCIFY_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if uploadsDir := os.Getenv("DOCIFY_UPLOADS_DIR"); uploadsDir != "" {
		config.BlobStore.Dir = uploadsDir
	} else if uploadsDir := os.Getenv("UPLOADS_DIR"); uploadsDir != "" {
		config.BlobStore.Dir = uploadsDir
	}

	// Queue configuration
	if pollInterval := os.Getenv("DOCIFY_QUEUE_POLL_INTERVAL"); pollInterval != "" {
		config.Queue.PollInterval = pollInterval
	}
	if concurrency := os.Getenv("DOCIFY_QUEUE_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil {
			config.Queue.Concurrency = c
		}
	}
	if visibilityTimeout := os.Getenv("DOCIFY_QUEUE_VISIBILITY_TIMEOUT"); visibilityTimeout != "" {
		config.Queue.VisibilityTimeout = visibilityTimeout
	}
	if maxReceive := os.Getenv("DOCIFY_QUEUE_MAX_RECEIVE"); maxReceive != "" {
		if mr, err := strconv.Atoi(maxReceive); err == nil {
			config.Queue.MaxReceive = mr
		}
	}
	if queueName := os.Getenv("DOCIFY_QUEUE_NAME"); queueName != "" {
		config.Queue.QueueName = queueName
	}

	// Vector index configuration
	if qdrantURL := os.Getenv("QDRANT_URL"); qdrantURL != "" {
		config.Qdrant.URL = qdrantURL
	}
	if qdrantKey := os.Getenv("QDRANT_API_KEY"); qdrantKey != "" {
		config.Qdrant.APIKey = qdrantKey
	}
	if collection := os.Getenv("DOCIFY_QDRANT_COLLECTION"); collection != "" {
		config.Qdrant.Collection = collection
	}

	// Model provider credentials
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		config.OpenAI.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if provider := os.Getenv("DOCIFY_CHAT_PROVIDER"); provider != "" {
		config.LLM.ChatProvider = LLMProvider(provider)
	}
	if provider := os.Getenv("DOCIFY_EMBED_PROVIDER"); provider != "" {
		config.LLM.EmbedProvider = LLMProvider(provider)
	}
	if dim := os.Getenv("DOCIFY_EMBED_DIMENSION"); dim != "" {
		if d, err := strconv.Atoi(dim); err == nil {
			config.LLM.EmbedDimension = d
		}
	}
}

// ApplyFlagOverrides applies command-line flag values (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ResolveAPIKey resolves an API key with KV-first resolution order:
// KV store -> config fallback. Returns an error when neither holds a value.
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	if kvStorage != nil {
		if value, err := kvStorage.Get(ctx, name); err == nil && value != "" {
			return value, nil
		}
	}
	if configFallback != "" {
		return configFallback, nil
	}
	return "", fmt.Errorf("no value found for key %q", name)
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// QueuePollInterval returns the parsed poll interval
func (c *Config) QueuePollInterval() time.Duration {
	d, err := time.ParseDuration(c.Queue.PollInterval)
	if err != nil {
		return time.Second
	}
	return d
}

// QueueVisibilityTimeout returns the parsed visibility timeout
func (c *Config) QueueVisibilityTimeout() time.Duration {
	d, err := time.ParseDuration(c.Queue.VisibilityTimeout)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// QdrantTimeout returns the parsed Qdrant request timeout
func (c *Config) QdrantTimeout() time.Duration {
	d, err := time.ParseDuration(c.Qdrant.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// IngestFetchTimeout returns the parsed blob download timeout
func (c *Config) IngestFetchTimeout() time.Duration {
	d, err := time.ParseDuration(c.Ingest.FetchTimeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
