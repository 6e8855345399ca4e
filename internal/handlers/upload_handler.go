package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/aidocify/docify/internal/common"
	"github.com/aidocify/docify/internal/interfaces"
	"github.com/aidocify/docify/internal/models"
)

// maxUploadSize caps multipart memory buffering at 32 MB
const maxUploadSize = 32 << 20

// UploadHandler accepts PDF uploads and enqueues ingestion jobs. The
// response returns as soon as the blob is stored and the job is queued;
// processing happens in the worker pool.
type UploadHandler struct {
	blobStore interfaces.BlobStore
	jobs      interfaces.JobStatusStorage
	queue     interfaces.QueueManager
	events    interfaces.EventService
	logger    arbor.ILogger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(
	blobStore interfaces.BlobStore,
	jobs interfaces.JobStatusStorage,
	queue interfaces.QueueManager,
	events interfaces.EventService,
	logger arbor.ILogger,
) *UploadHandler {
	return &UploadHandler{
		blobStore: blobStore,
		jobs:      jobs,
		queue:     queue,
		events:    events,
		logger:    logger,
	}
}

// UploadPDFHandler handles POST /upload/pdf requests
func (h *UploadHandler) UploadPDFHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid multipart form data.")
		return
	}

	file, header, err := r.FormFile("pdf")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "No PDF file uploaded.")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		WriteError(w, http.StatusBadRequest, "Only PDF files are accepted.")
		return
	}

	blob, err := h.blobStore.Store(r.Context(), file, header.Filename)
	if err != nil {
		h.logger.Error().Err(err).Str("name", header.Filename).Msg("Failed to store upload")
		WriteError(w, http.StatusInternalServerError, "Failed to store uploaded file.")
		return
	}

	job := &models.JobRecord{
		ID:           common.NewJobID(),
		BlobID:       blob.ID,
		OriginalName: header.Filename,
		Status:       models.JobStatusWaiting,
		CreatedAt:    time.Now(),
	}
	if err := h.jobs.SaveJob(r.Context(), job); err != nil {
		h.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to save job record")
		WriteError(w, http.StatusInternalServerError, "Failed to create ingestion job.")
		return
	}

	payload, err := json.Marshal(models.IngestPayload{
		BlobID:       blob.ID,
		BlobURL:      h.blobStore.PreviewURL(blob.ID),
		OriginalName: header.Filename,
	})
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to encode job payload.")
		return
	}

	if err := h.queue.Enqueue(r.Context(), models.QueueMessage{
		JobID:   job.ID,
		Type:    "ingest-pdf",
		Payload: payload,
	}); err != nil {
		h.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to enqueue ingestion job")

		// The record was already saved as waiting; without a queue message
		// it would stay pending forever, so mark it failed.
		now := time.Now()
		job.Status = models.JobStatusFailed
		job.FailedReason = fmt.Sprintf("failed to enqueue ingestion job: %v", err)
		job.FinishedOn = &now
		if saveErr := h.jobs.SaveJob(r.Context(), job); saveErr != nil {
			h.logger.Error().Err(saveErr).Str("job_id", job.ID).Msg("Failed to mark orphaned job as failed")
		}

		WriteError(w, http.StatusInternalServerError, "Failed to enqueue ingestion job.")
		return
	}

	h.events.Publish(r.Context(), interfaces.Event{Type: interfaces.EventJobQueued, Payload: job})

	h.logger.Info().
		Str("job_id", job.ID).
		Str("blob_id", blob.ID).
		Str("name", header.Filename).
		Int64("size", blob.Size).
		Msg("Upload accepted, ingestion job queued")

	WriteJSON(w, http.StatusOK, map[string]string{
		"message":      "File uploaded successfully, processing started.",
		"publicId":     blob.ID,
		"originalName": header.Filename,
		"jobId":        job.ID,
		"fileUrl":      h.blobStore.PreviewURL(blob.ID),
	})
}
