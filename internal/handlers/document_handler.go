package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/aidocify/docify/internal/interfaces"
)

// DocumentHandler serves stored PDF bytes, resolves preview URLs, and
// deletes documents across all stores.
type DocumentHandler struct {
	blobStore   interfaces.BlobStore
	blobs       interfaces.BlobMetaStorage
	vectorIndex interfaces.VectorIndex
	logger      arbor.ILogger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(
	blobStore interfaces.BlobStore,
	blobs interfaces.BlobMetaStorage,
	vectorIndex interfaces.VectorIndex,
	logger arbor.ILogger,
) *DocumentHandler {
	return &DocumentHandler{
		blobStore:   blobStore,
		blobs:       blobs,
		vectorIndex: vectorIndex,
		logger:      logger,
	}
}

// PreviewURLHandler handles GET /api/get-pdf-preview-url requests
func (h *DocumentHandler) PreviewURLHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	publicID := r.URL.Query().Get("publicId")
	if publicID == "" {
		WriteError(w, http.StatusBadRequest, "publicId query parameter is required.")
		return
	}

	if _, err := h.blobs.GetBlob(r.Context(), publicID); err != nil {
		if errors.Is(err, interfaces.ErrBlobNotFound) {
			WriteError(w, http.StatusNotFound, "Document not found.")
			return
		}
		h.logger.Error().Err(err).Str("blob_id", publicID).Msg("Failed to look up blob")
		WriteError(w, http.StatusInternalServerError, "Failed to resolve preview URL.")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"previewUrl": h.blobStore.PreviewURL(publicID),
	})
}

// ServeFileHandler handles GET /files/{id} requests
func (h *DocumentHandler) ServeFileHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/files/")
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, http.StatusBadRequest, "File id is required.")
		return
	}

	blob, err := h.blobs.GetBlob(r.Context(), id)
	if err != nil {
		if errors.Is(err, interfaces.ErrBlobNotFound) {
			WriteError(w, http.StatusNotFound, "File not found.")
			return
		}
		h.logger.Error().Err(err).Str("blob_id", id).Msg("Failed to look up blob")
		WriteError(w, http.StatusInternalServerError, "Failed to load file.")
		return
	}

	reader, err := h.blobStore.Open(r.Context(), id)
	if err != nil {
		if errors.Is(err, interfaces.ErrBlobNotFound) {
			WriteError(w, http.StatusNotFound, "File not found.")
			return
		}
		h.logger.Error().Err(err).Str("blob_id", id).Msg("Failed to open blob")
		WriteError(w, http.StatusInternalServerError, "Failed to load file.")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Content-Disposition", `inline; filename="`+blob.OriginalName+`"`)
	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn().Err(err).Str("blob_id", id).Msg("Failed to stream blob")
	}
}

// DeleteDocumentHandler handles DELETE /api/documents/{publicId} requests.
// Removes the indexed chunks first, then the blob: a document that is gone
// from retrieval but still previewable beats the reverse.
func (h *DocumentHandler) DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	publicID := strings.TrimPrefix(r.URL.Path, "/api/documents/")
	if publicID == "" || strings.Contains(publicID, "/") {
		WriteError(w, http.StatusBadRequest, "publicId path parameter is required.")
		return
	}

	if _, err := h.blobs.GetBlob(r.Context(), publicID); err != nil {
		if errors.Is(err, interfaces.ErrBlobNotFound) {
			WriteError(w, http.StatusNotFound, "Document not found.")
			return
		}
		h.logger.Error().Err(err).Str("blob_id", publicID).Msg("Failed to look up blob")
		WriteError(w, http.StatusInternalServerError, "Failed to delete document.")
		return
	}

	if err := h.vectorIndex.DeleteBySource(r.Context(), publicID); err != nil {
		h.logger.Error().Err(err).Str("blob_id", publicID).Msg("Failed to delete indexed chunks")
		WriteError(w, http.StatusInternalServerError, "Failed to delete indexed content.")
		return
	}

	if err := h.blobStore.Delete(r.Context(), publicID); err != nil {
		h.logger.Error().Err(err).Str("blob_id", publicID).Msg("Failed to delete blob")
		WriteError(w, http.StatusInternalServerError, "Failed to delete stored file.")
		return
	}

	h.logger.Info().Str("blob_id", publicID).Msg("Document deleted")

	WriteJSON(w, http.StatusOK, map[string]string{
		"message":  "Document deleted.",
		"publicId": publicID,
	})
}
