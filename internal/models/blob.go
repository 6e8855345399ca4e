package models

import (
	"time"
)

// BlobRecord is the metadata record kept for each stored blob. The bytes
// themselves live in the blob store; this record maps the public identifier
// back to the stored object and its display name.
type BlobRecord struct {
	ID           string    `json:"id" badgerhold:"key"` // pdf_<uuid>, also the chunk source identifier
	OriginalName string    `json:"original_name"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	StoredAt     time.Time `json:"stored_at"`
}
