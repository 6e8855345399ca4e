package handlers

import (
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/aidocify/docify/internal/interfaces"
	"github.com/aidocify/docify/internal/services/responder"
)

// SummarizeHandler produces whole-document summaries
type SummarizeHandler struct {
	responder interfaces.ResponderService
	blobs     interfaces.BlobMetaStorage
	logger    arbor.ILogger
}

// NewSummarizeHandler creates a new summarize handler
func NewSummarizeHandler(responderService interfaces.ResponderService, blobs interfaces.BlobMetaStorage, logger arbor.ILogger) *SummarizeHandler {
	return &SummarizeHandler{
		responder: responderService,
		blobs:     blobs,
		logger:    logger,
	}
}

// SummarizeHandler handles GET /api/summarize requests. The document is
// addressed by publicId; fileName is accepted as a legacy alias carrying the
// same identifier.
func (h *SummarizeHandler) SummarizeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	sourceID := r.URL.Query().Get("publicId")
	if sourceID == "" {
		sourceID = r.URL.Query().Get("fileName")
	}
	if sourceID == "" {
		WriteError(w, http.StatusBadRequest, "publicId query parameter is required.")
		return
	}

	if _, err := h.blobs.GetBlob(r.Context(), sourceID); err != nil {
		if errors.Is(err, interfaces.ErrBlobNotFound) {
			WriteError(w, http.StatusNotFound, "PDF file not found on server: "+sourceID)
			return
		}
		h.logger.Error().Err(err).Str("source_id", sourceID).Msg("Failed to look up blob")
		WriteError(w, http.StatusInternalServerError, "Failed to look up document.")
		return
	}

	summary, err := h.responder.Summarize(r.Context(), sourceID)
	if err != nil {
		if errors.Is(err, responder.ErrNoContent) {
			WriteError(w, http.StatusNotFound, "Could not extract content from PDF: "+sourceID)
			return
		}
		h.logger.Error().Err(err).Str("source_id", sourceID).Msg("Summarization failed")
		WriteError(w, http.StatusInternalServerError, "Error generating summary.")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"summary": summary,
	})
}
