package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/aidocify/docify/internal/common"
	"github.com/aidocify/docify/internal/handlers"
	"github.com/aidocify/docify/internal/interfaces"
	"github.com/aidocify/docify/internal/queue"
	"github.com/aidocify/docify/internal/services/blobstore"
	"github.com/aidocify/docify/internal/services/embeddings"
	"github.com/aidocify/docify/internal/services/events"
	"github.com/aidocify/docify/internal/services/ingest"
	"github.com/aidocify/docify/internal/services/llm"
	"github.com/aidocify/docify/internal/services/pdf"
	"github.com/aidocify/docify/internal/services/responder"
	"github.com/aidocify/docify/internal/services/vectorstore"
	storagebadger "github.com/aidocify/docify/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager *storagebadger.Manager
	QueueManager   interfaces.QueueManager
	WorkerPool     *queue.WorkerPool

	// Domain services
	EventService     interfaces.EventService
	BlobStore        interfaces.BlobStore
	PDFExtractor     interfaces.PDFExtractor
	ChatService      interfaces.LLMService
	EmbedService     interfaces.LLMService
	EmbeddingService interfaces.EmbeddingService
	VectorIndex      interfaces.VectorIndex
	IngestService    *ingest.Service
	ResponderService interfaces.ResponderService

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	UploadHandler    *handlers.UploadHandler
	JobHandler       *handlers.JobHandler
	ChatHandler      *handlers.ChatHandler
	SummarizeHandler *handlers.SummarizeHandler
	DocumentHandler  *handlers.DocumentHandler
	WSHandler        *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Storage first: everything downstream hangs off it
	storageManager, err := storagebadger.NewManager(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager

	// Event bus and websocket push before any publisher exists
	app.EventService = events.NewService(logger)
	app.WSHandler = handlers.NewWebSocketHandler(app.EventService, logger)

	// Durable queue shares the storage database
	queueManager, err := queue.NewManager(
		storageManager.DB().Badger(),
		cfg.Queue.QueueName,
		cfg.QueueVisibilityTimeout(),
		cfg.Queue.MaxReceive,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize queue: %w", err)
	}
	app.QueueManager = queueManager

	// Blob store for uploaded PDF bytes
	blobStore, err := blobstore.NewLocalStore(cfg.BlobStore.Dir, cfg.BlobStore.PublicBaseURL, storageManager.BlobMetaStorage(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize blob store: %w", err)
	}
	app.BlobStore = blobStore

	// Model providers
	chatService, err := llm.NewChatService(cfg, storageManager, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	app.ChatService = chatService

	if cfg.LLM.EmbedProvider == cfg.LLM.ChatProvider {
		app.EmbedService = chatService
	} else {
		embedService, err := llm.NewEmbedService(cfg, storageManager, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize embed provider: %w", err)
		}
		app.EmbedService = embedService
	}
	app.EmbeddingService = embeddings.NewService(app.EmbedService, cfg.LLM.EmbedDimension, logger)

	// Vector index
	vectorIndex, err := vectorstore.NewQdrantIndex(vectorstore.Config{
		URL:        cfg.Qdrant.URL,
		APIKey:     cfg.Qdrant.APIKey,
		Collection: cfg.Qdrant.Collection,
		Timeout:    cfg.QdrantTimeout(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}
	app.VectorIndex = vectorIndex

	app.PDFExtractor = pdf.NewExtractor(logger)

	// Ingestion pipeline behind the worker pool
	ingestService, err := ingest.NewService(
		app.BlobStore,
		app.PDFExtractor,
		app.EmbeddingService,
		app.VectorIndex,
		storageManager.JobStatusStorage(),
		app.EventService,
		ingest.Options{
			ScratchDir:      cfg.Ingest.ScratchDir,
			ReplaceExisting: cfg.Ingest.ReplaceExisting,
			FetchTimeout:    cfg.IngestFetchTimeout(),
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ingest service: %w", err)
	}
	app.IngestService = ingestService

	app.WorkerPool = queue.NewWorkerPool(queueManager, logger, cfg.Queue.Concurrency, cfg.QueuePollInterval())
	app.WorkerPool.RegisterHandler(ingest.MessageTypeIngestPDF, ingestService.HandleMessage)

	// Retrieval-augmented responder
	app.ResponderService = responder.NewService(app.EmbeddingService, app.VectorIndex, app.ChatService, cfg.Chat.TopK, logger)

	// HTTP handlers
	app.APIHandler = handlers.NewAPIHandler()
	app.UploadHandler = handlers.NewUploadHandler(app.BlobStore, storageManager.JobStatusStorage(), app.QueueManager, app.EventService, logger)
	app.JobHandler = handlers.NewJobHandler(storageManager.JobStatusStorage(), logger)
	app.ChatHandler = handlers.NewChatHandler(app.ResponderService, logger)
	app.SummarizeHandler = handlers.NewSummarizeHandler(app.ResponderService, storageManager.BlobMetaStorage(), logger)
	app.DocumentHandler = handlers.NewDocumentHandler(app.BlobStore, storageManager.BlobMetaStorage(), app.VectorIndex, logger)

	logger.Info().Msg("Application initialized")

	return app, nil
}

// StartWorkers launches the background worker pool
func (a *App) StartWorkers(ctx context.Context) error {
	return a.WorkerPool.Start(ctx)
}

// Close releases all application resources in reverse dependency order
func (a *App) Close() error {
	if a.WorkerPool != nil {
		a.WorkerPool.Stop()
	}
	if a.QueueManager != nil {
		a.QueueManager.Close()
	}
	if a.EventService != nil {
		a.EventService.Close()
	}
	if a.ChatService != nil {
		a.ChatService.Close()
	}
	if a.EmbedService != nil && a.EmbedService != a.ChatService {
		a.EmbedService.Close()
	}
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}

	a.Logger.Info().Msg("Application shut down")
	return nil
}
