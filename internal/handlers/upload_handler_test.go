package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/aidocify/docify/internal/models"
)

func multipartUpload(t *testing.T, fieldName, fileName string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(fieldName, fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload/pdf", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadPDFHandler(t *testing.T) {
	jobs := &mockJobStore{}
	queue := &mockQueue{}
	events := &mockEventService{}
	handler := NewUploadHandler(&mockBlobStore{}, jobs, queue, events, arbor.NewLogger())

	req := multipartUpload(t, "pdf", "report.pdf", []byte("%PDF-1.4 content"))
	w := httptest.NewRecorder()
	handler.UploadPDFHandler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pdf_abc", resp["publicId"])
	assert.Equal(t, "report.pdf", resp["originalName"])
	assert.NotEmpty(t, resp["jobId"])
	assert.Equal(t, "/files/pdf_abc", resp["fileUrl"])

	// The job record and queue message reference the same identifiers
	require.Len(t, jobs.saved, 1)
	assert.Equal(t, resp["jobId"], jobs.saved[0].ID)
	assert.Equal(t, "pdf_abc", jobs.saved[0].BlobID)
	assert.Equal(t, models.JobStatusWaiting, jobs.saved[0].Status)

	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, resp["jobId"], queue.enqueued[0].JobID)
	assert.Equal(t, "ingest-pdf", queue.enqueued[0].Type)

	var payload models.IngestPayload
	require.NoError(t, json.Unmarshal(queue.enqueued[0].Payload, &payload))
	assert.Equal(t, "pdf_abc", payload.BlobID)

	require.Len(t, events.published, 1)
}

func TestUploadPDFHandler_MissingFile(t *testing.T) {
	handler := NewUploadHandler(&mockBlobStore{}, &mockJobStore{}, &mockQueue{}, &mockEventService{}, arbor.NewLogger())

	req := multipartUpload(t, "document", "report.pdf", []byte("%PDF-1.4"))
	w := httptest.NewRecorder()
	handler.UploadPDFHandler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No PDF file uploaded.")
}

func TestUploadPDFHandler_WrongExtension(t *testing.T) {
	handler := NewUploadHandler(&mockBlobStore{}, &mockJobStore{}, &mockQueue{}, &mockEventService{}, arbor.NewLogger())

	req := multipartUpload(t, "pdf", "notes.txt", []byte("plain text"))
	w := httptest.NewRecorder()
	handler.UploadPDFHandler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Only PDF files are accepted.")
}

func TestUploadPDFHandler_WrongMethod(t *testing.T) {
	handler := NewUploadHandler(&mockBlobStore{}, &mockJobStore{}, &mockQueue{}, &mockEventService{}, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/upload/pdf", nil)
	w := httptest.NewRecorder()
	handler.UploadPDFHandler(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestUploadPDFHandler_StoreFailure(t *testing.T) {
	blobStore := &mockBlobStore{
		storeFn: func(ctx context.Context, content io.Reader, originalName string) (*models.BlobRecord, error) {
			return nil, fmt.Errorf("disk full")
		},
	}
	queue := &mockQueue{}
	handler := NewUploadHandler(blobStore, &mockJobStore{}, queue, &mockEventService{}, arbor.NewLogger())

	req := multipartUpload(t, "pdf", "report.pdf", []byte("%PDF-1.4"))
	w := httptest.NewRecorder()
	handler.UploadPDFHandler(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, queue.enqueued)
}

func TestUploadPDFHandler_EnqueueFailure(t *testing.T) {
	queue := &mockQueue{
		enqueueFn: func(ctx context.Context, msg models.QueueMessage) error {
			return fmt.Errorf("queue closed")
		},
	}
	jobs := &mockJobStore{}
	events := &mockEventService{}
	handler := NewUploadHandler(&mockBlobStore{}, jobs, queue, events, arbor.NewLogger())

	req := multipartUpload(t, "pdf", "report.pdf", []byte("%PDF-1.4"))
	w := httptest.NewRecorder()
	handler.UploadPDFHandler(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, events.published)

	// The job record must not be left pending when no message exists
	require.Len(t, jobs.saved, 2)
	final := jobs.saved[1]
	assert.Equal(t, models.JobStatusFailed, final.Status)
	assert.Contains(t, final.FailedReason, "failed to enqueue ingestion job")
	assert.NotNil(t, final.FinishedOn)
}
