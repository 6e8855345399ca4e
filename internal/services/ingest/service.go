package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/aidocify/docify/internal/interfaces"
	"github.com/aidocify/docify/internal/models"
)

// MessageTypeIngestPDF is the queue message type this service handles
const MessageTypeIngestPDF = "ingest-pdf"

// Service turns one uploaded PDF blob into indexed chunks. It is the unit of
// work behind each queue message: fetch bytes, extract per-page text, embed
// each page, and upsert the batch into the vector index.
type Service struct {
	blobStore   interfaces.BlobStore
	extractor   interfaces.PDFExtractor
	embedder    interfaces.EmbeddingService
	vectorIndex interfaces.VectorIndex
	jobs        interfaces.JobStatusStorage
	events      interfaces.EventService
	logger      arbor.ILogger

	scratchDir      string
	replaceExisting bool
	fetchClient     *http.Client
}

// Options configures the ingest service
type Options struct {
	ScratchDir      string
	ReplaceExisting bool
	FetchTimeout    time.Duration
}

// NewService creates the ingestion service
func NewService(
	blobStore interfaces.BlobStore,
	extractor interfaces.PDFExtractor,
	embedder interfaces.EmbeddingService,
	vectorIndex interfaces.VectorIndex,
	jobs interfaces.JobStatusStorage,
	events interfaces.EventService,
	opts Options,
	logger arbor.ILogger,
) (*Service, error) {
	scratchDir := opts.ScratchDir
	if scratchDir == "" {
		scratchDir = filepath.Join(os.TempDir(), "docify-ingest")
	}
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}

	fetchTimeout := opts.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = 60 * time.Second
	}

	return &Service{
		blobStore:       blobStore,
		extractor:       extractor,
		embedder:        embedder,
		vectorIndex:     vectorIndex,
		jobs:            jobs,
		events:          events,
		logger:          logger,
		scratchDir:      scratchDir,
		replaceExisting: opts.ReplaceExisting,
		fetchClient:     &http.Client{Timeout: fetchTimeout},
	}, nil
}

// HandleMessage processes one queued ingestion job. Registered with the
// worker pool for MessageTypeIngestPDF. A returned error leaves the message
// queued for redelivery; the job record reflects the failure either way.
func (s *Service) HandleMessage(ctx context.Context, msg *models.QueueMessage) error {
	var payload models.IngestPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		// Malformed payloads never become processable; fail the job terminally
		s.markFailed(ctx, msg.JobID, fmt.Sprintf("invalid job payload: %v", err))
		return nil
	}

	s.logger.Info().
		Str("job_id", msg.JobID).
		Str("blob_id", payload.BlobID).
		Str("name", payload.OriginalName).
		Msg("Processing ingestion job")

	s.markActive(ctx, msg.JobID)

	chunkCount, err := s.process(ctx, msg.JobID, &payload)
	if err != nil {
		s.markFailed(ctx, msg.JobID, err.Error())
		return fmt.Errorf("ingestion failed for blob %s: %w", payload.BlobID, err)
	}

	s.markCompleted(ctx, msg.JobID, chunkCount)

	s.logger.Info().
		Str("job_id", msg.JobID).
		Str("blob_id", payload.BlobID).
		Int("chunks", chunkCount).
		Msg("Ingestion job completed")

	return nil
}

// process runs the fetch-extract-embed-upsert pipeline and returns the
// number of chunks written to the vector index.
func (s *Service) process(ctx context.Context, jobID string, payload *models.IngestPayload) (int, error) {
	scratchPath := filepath.Join(s.scratchDir, fmt.Sprintf("%s.pdf", jobID))
	if err := s.fetchToFile(ctx, payload, scratchPath); err != nil {
		return 0, err
	}
	defer func() {
		// Cleanup runs on success and failure alike; a leftover scratch file
		// is a disk-space leak, not a correctness issue, so only log it.
		if err := os.Remove(scratchPath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", scratchPath).Msg("Failed to remove scratch file")
		}
	}()

	s.updateProgress(ctx, jobID, 20)

	pages, err := s.extractor.ExtractPages(ctx, scratchPath)
	if err != nil {
		return 0, fmt.Errorf("text extraction failed: %w", err)
	}

	s.updateProgress(ctx, jobID, 30)

	// One chunk per page with extractable text. Every chunk carries the
	// blob id as its source tag so retrieval stays scoped to this document.
	chunks := make([]models.DocumentChunk, 0, len(pages))
	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		chunks = append(chunks, models.DocumentChunk{
			ID:       uuid.New().String(),
			SourceID: payload.BlobID,
			Text:     page.Text,
			Page:     page.PageNumber,
		})
	}

	// A scanned or image-only PDF yields zero chunks; that is a successful
	// ingestion of an empty document, not an error.
	if len(chunks) == 0 {
		s.logger.Warn().Str("blob_id", payload.BlobID).Int("pages", len(pages)).Msg("No extractable text in document")
		return 0, nil
	}

	for i := range chunks {
		embedding, err := s.embedder.GenerateEmbedding(ctx, chunks[i].Text)
		if err != nil {
			return 0, fmt.Errorf("embedding failed for page %d: %w", chunks[i].Page, err)
		}
		chunks[i].Embedding = embedding

		s.updateProgress(ctx, jobID, 30+(60*(i+1))/len(chunks))
	}

	if err := s.vectorIndex.EnsureCollection(ctx, s.embedder.Dimension()); err != nil {
		return 0, fmt.Errorf("collection setup failed: %w", err)
	}

	if s.replaceExisting {
		if err := s.vectorIndex.DeleteBySource(ctx, payload.BlobID); err != nil {
			return 0, fmt.Errorf("failed to clear previous chunks: %w", err)
		}
	}

	// Single batch upsert: the index never sees a half-written document
	if err := s.vectorIndex.Upsert(ctx, chunks); err != nil {
		return 0, fmt.Errorf("vector upsert failed: %w", err)
	}

	return len(chunks), nil
}

// fetchToFile downloads the blob bytes into the scratch file. Local blobs
// come straight from the blob store; anything else is fetched over HTTP.
func (s *Service) fetchToFile(ctx context.Context, payload *models.IngestPayload, path string) error {
	var reader io.ReadCloser

	if payload.BlobID != "" {
		r, err := s.blobStore.Open(ctx, payload.BlobID)
		if err == nil {
			reader = r
		} else if payload.BlobURL == "" {
			return fmt.Errorf("fetch failed: %w", err)
		}
	}

	if reader == nil {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, payload.BlobURL, nil)
		if err != nil {
			return fmt.Errorf("invalid blob url %q: %w", payload.BlobURL, err)
		}
		resp, err := s.fetchClient.Do(req)
		if err != nil {
			return fmt.Errorf("fetch failed: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return fmt.Errorf("fetch failed: unexpected status %s for %s", resp.Status, payload.BlobURL)
		}
		reader = resp.Body
	}
	defer reader.Close()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create scratch file: %w", err)
	}

	_, err = io.Copy(f, reader)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to write scratch file: %w", err)
	}

	return nil
}

func (s *Service) markActive(ctx context.Context, jobID string) {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("Failed to load job record")
		return
	}
	now := time.Now()
	job.Status = models.JobStatusActive
	job.ProcessedOn = &now
	if err := s.jobs.SaveJob(ctx, job); err != nil {
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("Failed to save job record")
		return
	}
	s.events.Publish(ctx, interfaces.Event{Type: interfaces.EventJobActive, Payload: job})
}

func (s *Service) markCompleted(ctx context.Context, jobID string, chunkCount int) {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("Failed to load job record")
		return
	}
	now := time.Now()
	job.Status = models.JobStatusCompleted
	job.Progress = 100
	job.ChunkCount = chunkCount
	job.FailedReason = ""
	job.FinishedOn = &now
	if err := s.jobs.SaveJob(ctx, job); err != nil {
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("Failed to save job record")
		return
	}
	s.events.Publish(ctx, interfaces.Event{Type: interfaces.EventJobCompleted, Payload: job})
}

func (s *Service) markFailed(ctx context.Context, jobID string, reason string) {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("Failed to load job record")
		return
	}
	now := time.Now()
	job.Status = models.JobStatusFailed
	job.FailedReason = reason
	job.FinishedOn = &now
	if err := s.jobs.SaveJob(ctx, job); err != nil {
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("Failed to save job record")
		return
	}
	s.events.Publish(ctx, interfaces.Event{Type: interfaces.EventJobFailed, Payload: job})
}

func (s *Service) updateProgress(ctx context.Context, jobID string, progress int) {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return
	}
	if progress > 100 {
		progress = 100
	}
	if progress <= job.Progress {
		return
	}
	job.Progress = progress
	if err := s.jobs.SaveJob(ctx, job); err != nil {
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("Failed to save job progress")
	}
}
