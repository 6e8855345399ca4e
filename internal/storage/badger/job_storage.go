package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/aidocify/docify/internal/interfaces"
	"github.com/aidocify/docify/internal/models"
)

// JobStatusStorage implements the JobStatusStorage interface for Badger
type JobStatusStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewJobStatusStorage creates a new JobStatusStorage instance
func NewJobStatusStorage(db *BadgerDB, logger arbor.ILogger) interfaces.JobStatusStorage {
	return &JobStatusStorage{
		db:     db,
		logger: logger,
	}
}

// SaveJob upserts a job record
func (s *JobStatusStorage) SaveJob(ctx context.Context, job *models.JobRecord) error {
	if job == nil || job.ID == "" {
		return fmt.Errorf("job ID is required")
	}

	if err := s.db.Store().Upsert(job.ID, job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

// GetJob retrieves a job record by id
func (s *JobStatusStorage) GetJob(ctx context.Context, jobID string) (*models.JobRecord, error) {
	var job models.JobRecord
	if err := s.db.Store().Get(jobID, &job); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// ListJobs returns recent job records, newest first
func (s *JobStatusStorage) ListJobs(ctx context.Context, limit int) ([]*models.JobRecord, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var jobs []models.JobRecord
	if err := s.db.Store().Find(&jobs, query); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	result := make([]*models.JobRecord, len(jobs))
	for i := range jobs {
		result[i] = &jobs[i]
	}
	return result, nil
}
