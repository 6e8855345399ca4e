package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/aidocify/docify/internal/interfaces"
	"github.com/aidocify/docify/internal/models"
)

// BlobMetaStorage implements the BlobMetaStorage interface for Badger
type BlobMetaStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewBlobMetaStorage creates a new BlobMetaStorage instance
func NewBlobMetaStorage(db *BadgerDB, logger arbor.ILogger) interfaces.BlobMetaStorage {
	return &BlobMetaStorage{
		db:     db,
		logger: logger,
	}
}

// SaveBlob upserts a blob metadata record
func (s *BlobMetaStorage) SaveBlob(ctx context.Context, blob *models.BlobRecord) error {
	if blob == nil || blob.ID == "" {
		return fmt.Errorf("blob ID is required")
	}

	if err := s.db.Store().Upsert(blob.ID, blob); err != nil {
		return fmt.Errorf("failed to save blob record: %w", err)
	}
	return nil
}

// GetBlob retrieves a blob metadata record by id
func (s *BlobMetaStorage) GetBlob(ctx context.Context, id string) (*models.BlobRecord, error) {
	var blob models.BlobRecord
	if err := s.db.Store().Get(id, &blob); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to get blob record: %w", err)
	}
	return &blob, nil
}

// DeleteBlob removes a blob metadata record
func (s *BlobMetaStorage) DeleteBlob(ctx context.Context, id string) error {
	err := s.db.Store().Delete(id, &models.BlobRecord{})
	if err == badgerhold.ErrNotFound {
		return interfaces.ErrBlobNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete blob record: %w", err)
	}
	return nil
}
