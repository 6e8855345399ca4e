package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/aidocify/docify/internal/interfaces"
)

// ChatHandler answers document-grounded questions
type ChatHandler struct {
	responder interfaces.ResponderService
	logger    arbor.ILogger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(responder interfaces.ResponderService, logger arbor.ILogger) *ChatHandler {
	return &ChatHandler{
		responder: responder,
		logger:    logger,
	}
}

// ChatHandler handles GET /chat requests
func (h *ChatHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query := r.URL.Query().Get("message")
	if strings.TrimSpace(query) == "" {
		WriteError(w, http.StatusBadRequest, "message query parameter is required.")
		return
	}

	sourceID := r.URL.Query().Get("publicId")
	if sourceID == "" {
		WriteError(w, http.StatusBadRequest, "publicId query parameter is required.")
		return
	}

	result, err := h.responder.Chat(r.Context(), sourceID, query)
	if err != nil {
		h.logger.Error().Err(err).Str("source_id", sourceID).Msg("Chat request failed")
		WriteError(w, http.StatusInternalServerError, "Failed to generate answer.")
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
