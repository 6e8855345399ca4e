package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/aidocify/docify/internal/models"
)

// ErrKeyNotFound is returned when a key/value pair does not exist
var ErrKeyNotFound = errors.New("key not found")

// ErrJobNotFound is returned when a job record does not exist
var ErrJobNotFound = errors.New("job not found")

// ErrBlobNotFound is returned when a blob record does not exist
var ErrBlobNotFound = errors.New("blob not found")

// KeyValuePair represents a stored key/value entry
type KeyValuePair struct {
	Key         string    `badgerhold:"key"`
	Value       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// KeyValueStorage provides generic key/value storage (API keys, settings)
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, description string) error
	Delete(ctx context.Context, key string) error
}

// JobStatusStorage persists ingestion job status records for pollers.
// Records survive queue message deletion so terminal states stay observable.
type JobStatusStorage interface {
	SaveJob(ctx context.Context, job *models.JobRecord) error
	GetJob(ctx context.Context, jobID string) (*models.JobRecord, error)
	ListJobs(ctx context.Context, limit int) ([]*models.JobRecord, error)
}

// BlobMetaStorage persists metadata records for stored blobs
type BlobMetaStorage interface {
	SaveBlob(ctx context.Context, blob *models.BlobRecord) error
	GetBlob(ctx context.Context, id string) (*models.BlobRecord, error)
	DeleteBlob(ctx context.Context, id string) error
}

// StorageManager provides access to all storage interfaces
type StorageManager interface {
	JobStatusStorage() JobStatusStorage
	BlobMetaStorage() BlobMetaStorage
	KeyValueStorage() KeyValueStorage
	Close() error
}
