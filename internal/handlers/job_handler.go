package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/aidocify/docify/internal/interfaces"
	"github.com/aidocify/docify/internal/models"
)

// JobHandler serves ingestion job status to pollers
type JobHandler struct {
	jobs   interfaces.JobStatusStorage
	logger arbor.ILogger
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobs interfaces.JobStatusStorage, logger arbor.ILogger) *JobHandler {
	return &JobHandler{
		jobs:   jobs,
		logger: logger,
	}
}

// jobStatusResponse is the wire shape for job status polling
type jobStatusResponse struct {
	JobID        string  `json:"jobId"`
	Status       string  `json:"status"`
	IsCompleted  bool    `json:"isCompleted"`
	IsFailed     bool    `json:"isFailed"`
	Progress     int     `json:"progress"`
	FailedReason string  `json:"failedReason,omitempty"`
	Timestamp    int64   `json:"timestamp"`
	ProcessedOn  *int64  `json:"processedOn,omitempty"`
	FinishedOn   *int64  `json:"finishedOn,omitempty"`
	PublicID     string  `json:"publicId,omitempty"`
	OriginalName string  `json:"originalName,omitempty"`
}

// GetJobStatusHandler handles GET /api/job-status/{jobId} requests
func (h *JobHandler) GetJobStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	jobID := strings.TrimPrefix(r.URL.Path, "/api/job-status/")
	if jobID == "" || strings.Contains(jobID, "/") {
		WriteError(w, http.StatusBadRequest, "jobId path parameter is required.")
		return
	}

	job, err := h.jobs.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, interfaces.ErrJobNotFound) {
			WriteError(w, http.StatusNotFound, "Job not found.")
			return
		}
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to load job status")
		WriteError(w, http.StatusInternalServerError, "Failed to load job status.")
		return
	}

	resp := jobStatusResponse{
		JobID:        job.ID,
		Status:       string(job.Status),
		IsCompleted:  job.Status == models.JobStatusCompleted,
		IsFailed:     job.Status == models.JobStatusFailed,
		Progress:     job.Progress,
		FailedReason: job.FailedReason,
		Timestamp:    job.CreatedAt.UnixMilli(),
		PublicID:     job.BlobID,
		OriginalName: job.OriginalName,
	}
	if job.ProcessedOn != nil {
		ms := job.ProcessedOn.UnixMilli()
		resp.ProcessedOn = &ms
	}
	if job.FinishedOn != nil {
		ms := job.FinishedOn.UnixMilli()
		resp.FinishedOn = &ms
	}

	WriteJSON(w, http.StatusOK, resp)
}
