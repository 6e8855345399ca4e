package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/aidocify/docify/internal/common"
	"github.com/aidocify/docify/internal/interfaces"
	"github.com/aidocify/docify/internal/models"
)

// ErrStorageUnavailable indicates the blob directory cannot be written
var ErrStorageUnavailable = errors.New("blob storage unavailable")

// LocalStore stores blob bytes on the local filesystem with metadata records
// in the blob meta storage. Files are named by blob id so the id alone
// resolves the on-disk path.
type LocalStore struct {
	dir           string
	publicBaseURL string
	meta          interfaces.BlobMetaStorage
	logger        arbor.ILogger
}

var _ interfaces.BlobStore = (*LocalStore)(nil)

// NewLocalStore creates a filesystem blob store rooted at dir
func NewLocalStore(dir, publicBaseURL string, meta interfaces.BlobMetaStorage, logger arbor.ILogger) (*LocalStore, error) {
	if dir == "" {
		return nil, errors.New("blob directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	return &LocalStore{
		dir:           dir,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		meta:          meta,
		logger:        logger,
	}, nil
}

// Store persists the uploaded bytes under a fresh blob id and records the
// metadata. The caller never overwrites an existing blob: every upload gets
// its own id.
func (s *LocalStore) Store(ctx context.Context, content io.Reader, originalName string) (*models.BlobRecord, error) {
	id := common.NewBlobID()
	path := s.blobPath(id)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	size, err := io.Copy(f, content)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write blob %s: %w", id, err)
	}

	record := &models.BlobRecord{
		ID:           id,
		OriginalName: originalName,
		Size:         size,
		ContentType:  "application/pdf",
		StoredAt:     time.Now(),
	}

	if err := s.meta.SaveBlob(ctx, record); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to save blob metadata: %w", err)
	}

	s.logger.Debug().Str("blob_id", id).Str("name", originalName).Int64("size", size).Msg("Blob stored")
	return record, nil
}

// Open returns a reader over a stored blob's bytes
func (s *LocalStore) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	if _, err := s.meta.GetBlob(ctx, id); err != nil {
		return nil, err
	}

	f, err := os.Open(s.blobPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, interfaces.ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to open blob %s: %w", id, err)
	}
	return f, nil
}

// PreviewURL resolves the fetchable URL for a stored blob
func (s *LocalStore) PreviewURL(id string) string {
	if s.publicBaseURL != "" {
		return fmt.Sprintf("%s/files/%s", s.publicBaseURL, id)
	}
	return fmt.Sprintf("/files/%s", id)
}

// Delete removes the blob bytes and its metadata record
func (s *LocalStore) Delete(ctx context.Context, id string) error {
	if err := os.Remove(s.blobPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove blob file %s: %w", id, err)
	}
	if err := s.meta.DeleteBlob(ctx, id); err != nil && !errors.Is(err, interfaces.ErrBlobNotFound) {
		return err
	}
	return nil
}

func (s *LocalStore) blobPath(id string) string {
	// Blob ids are uuid-derived ([a-z0-9_-]) so they are path-safe as-is
	return filepath.Join(s.dir, id+".pdf")
}
