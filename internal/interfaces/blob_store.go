package interfaces

import (
	"context"
	"io"

	"github.com/aidocify/docify/internal/models"
)

// BlobStore persists uploaded file bytes outside the request path and hands
// back a stable identifier safe for use as a vector index metadata tag.
type BlobStore interface {
	// Store persists the file bytes and returns the blob record. The
	// returned id doubles as the chunk source identifier.
	Store(ctx context.Context, content io.Reader, originalName string) (*models.BlobRecord, error)

	// Open returns a reader over a stored blob's bytes
	Open(ctx context.Context, id string) (io.ReadCloser, error)

	// PreviewURL resolves the fetchable URL for a stored blob
	PreviewURL(id string) string

	// Delete removes the blob bytes and its metadata record
	Delete(ctx context.Context, id string) error
}
