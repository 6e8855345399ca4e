package common

import (
	"github.com/google/uuid"
)

// NewBlobID generates a unique blob/source identifier with the "pdf_" prefix.
// Format: pdf_<uuid>. The result contains only [a-z0-9_-], so it is safe to
// embed in vector index filter clauses and file names without escaping.
func NewBlobID() string {
	return "pdf_" + uuid.New().String()
}

// NewJobID generates a unique ingestion job identifier
// Format: job_<uuid>
func NewJobID() string {
	return "job_" + uuid.New().String()
}
