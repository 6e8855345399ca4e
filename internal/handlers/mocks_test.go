package handlers

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/aidocify/docify/internal/interfaces"
	"github.com/aidocify/docify/internal/models"
)

// Mock implementations with overridable function fields, defaulting to
// happy-path behavior.

type mockBlobStore struct {
	storeFn  func(ctx context.Context, content io.Reader, originalName string) (*models.BlobRecord, error)
	openFn   func(ctx context.Context, id string) (io.ReadCloser, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockBlobStore) Store(ctx context.Context, content io.Reader, originalName string) (*models.BlobRecord, error) {
	if m.storeFn != nil {
		return m.storeFn(ctx, content, originalName)
	}
	return &models.BlobRecord{
		ID:           "pdf_abc",
		OriginalName: originalName,
		Size:         42,
		ContentType:  "application/pdf",
		StoredAt:     time.Now(),
	}, nil
}

func (m *mockBlobStore) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	if m.openFn != nil {
		return m.openFn(ctx, id)
	}
	return io.NopCloser(bytes.NewReader([]byte("%PDF-1.4 bytes"))), nil
}

func (m *mockBlobStore) PreviewURL(id string) string {
	return "/files/" + id
}

func (m *mockBlobStore) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockJobStore struct {
	saveFn func(ctx context.Context, job *models.JobRecord) error
	getFn  func(ctx context.Context, jobID string) (*models.JobRecord, error)

	saved []*models.JobRecord
}

func (m *mockJobStore) SaveJob(ctx context.Context, job *models.JobRecord) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, job)
	}
	m.saved = append(m.saved, job)
	return nil
}

func (m *mockJobStore) GetJob(ctx context.Context, jobID string) (*models.JobRecord, error) {
	if m.getFn != nil {
		return m.getFn(ctx, jobID)
	}
	return nil, interfaces.ErrJobNotFound
}

func (m *mockJobStore) ListJobs(ctx context.Context, limit int) ([]*models.JobRecord, error) {
	return nil, nil
}

type mockQueue struct {
	enqueueFn func(ctx context.Context, msg models.QueueMessage) error

	enqueued []models.QueueMessage
}

func (m *mockQueue) Enqueue(ctx context.Context, msg models.QueueMessage) error {
	if m.enqueueFn != nil {
		return m.enqueueFn(ctx, msg)
	}
	m.enqueued = append(m.enqueued, msg)
	return nil
}

func (m *mockQueue) Receive(ctx context.Context) (*models.QueueMessage, func() error, error) {
	return nil, nil, models.ErrNoMessage
}

func (m *mockQueue) Extend(ctx context.Context, messageID string, duration time.Duration) error {
	return nil
}

func (m *mockQueue) Close() error { return nil }

type mockEventService struct {
	published []interfaces.Event
}

func (m *mockEventService) Subscribe(eventType interfaces.EventType, handler interfaces.EventHandler) error {
	return nil
}

func (m *mockEventService) Publish(ctx context.Context, event interfaces.Event) error {
	m.published = append(m.published, event)
	return nil
}

func (m *mockEventService) Close() error { return nil }

type mockResponder struct {
	chatFn      func(ctx context.Context, sourceID, query string) (*interfaces.ChatResult, error)
	summarizeFn func(ctx context.Context, sourceID string) (string, error)
}

func (m *mockResponder) Chat(ctx context.Context, sourceID, query string) (*interfaces.ChatResult, error) {
	if m.chatFn != nil {
		return m.chatFn(ctx, sourceID, query)
	}
	return &interfaces.ChatResult{Message: "mock answer", Docs: []models.RetrievedChunk{}}, nil
}

func (m *mockResponder) Summarize(ctx context.Context, sourceID string) (string, error) {
	if m.summarizeFn != nil {
		return m.summarizeFn(ctx, sourceID)
	}
	return "mock summary", nil
}

type mockBlobMeta struct {
	getFn func(ctx context.Context, id string) (*models.BlobRecord, error)
}

func (m *mockBlobMeta) SaveBlob(ctx context.Context, blob *models.BlobRecord) error { return nil }

func (m *mockBlobMeta) GetBlob(ctx context.Context, id string) (*models.BlobRecord, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return &models.BlobRecord{
		ID:           id,
		OriginalName: "report.pdf",
		ContentType:  "application/pdf",
	}, nil
}

func (m *mockBlobMeta) DeleteBlob(ctx context.Context, id string) error { return nil }

type mockVectorIndex struct {
	deleteBySourceFn func(ctx context.Context, sourceID string) error

	deletedSources []string
}

func (m *mockVectorIndex) EnsureCollection(ctx context.Context, dimension int) error { return nil }

func (m *mockVectorIndex) Upsert(ctx context.Context, chunks []models.DocumentChunk) error {
	return nil
}

func (m *mockVectorIndex) Search(ctx context.Context, vector []float32, k int, sourceID string) ([]models.RetrievedChunk, error) {
	return nil, nil
}

func (m *mockVectorIndex) FetchBySource(ctx context.Context, sourceID string) ([]models.RetrievedChunk, error) {
	return nil, nil
}

func (m *mockVectorIndex) DeleteBySource(ctx context.Context, sourceID string) error {
	if m.deleteBySourceFn != nil {
		return m.deleteBySourceFn(ctx, sourceID)
	}
	m.deletedSources = append(m.deletedSources, sourceID)
	return nil
}
