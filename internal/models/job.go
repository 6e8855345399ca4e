package models

import (
	"time"
)

// JobStatus represents the lifecycle state of an ingestion job
type JobStatus string

const (
	JobStatusWaiting   JobStatus = "waiting"
	JobStatusActive    JobStatus = "active"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// IsTerminal returns true for completed and failed states
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// IngestPayload is the job payload carried through the queue. It holds
// everything the worker needs to turn one uploaded blob into indexed chunks.
type IngestPayload struct {
	BlobID       string `json:"blob_id"`       // Source identifier tagged onto every chunk
	BlobURL      string `json:"blob_url"`      // Fetchable URL, used once for download
	OriginalName string `json:"original_name"` // Display name from the upload
}

// JobRecord is the durable status record backing the job-status endpoint.
// The queue owns delivery; this record owns what pollers observe. A job is
// only marked completed after the worker's unit of work actually finished.
type JobRecord struct {
	ID           string    `json:"id" badgerhold:"key"`
	BlobID       string    `json:"blob_id"`
	OriginalName string    `json:"original_name"`
	Status       JobStatus `json:"status"`
	Progress     int       `json:"progress"` // 0-100
	FailedReason string    `json:"failed_reason,omitempty"`
	ChunkCount   int       `json:"chunk_count"` // Chunks upserted on completion

	CreatedAt   time.Time  `json:"created_at"`
	ProcessedOn *time.Time `json:"processed_on,omitempty"`
	FinishedOn  *time.Time `json:"finished_on,omitempty"`
}
