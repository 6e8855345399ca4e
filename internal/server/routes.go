package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Upload and stored file serving
	mux.HandleFunc("/upload/pdf", s.app.UploadHandler.UploadPDFHandler)
	mux.HandleFunc("/files/", s.app.DocumentHandler.ServeFileHandler)

	// Job status polling and push
	mux.HandleFunc("/api/job-status/", s.app.JobHandler.GetJobStatusHandler)
	mux.HandleFunc("/ws/jobs", s.app.WSHandler.HandleWebSocket)

	// Retrieval-augmented endpoints
	mux.HandleFunc("/chat", s.app.ChatHandler.ChatHandler)
	mux.HandleFunc("/api/summarize", s.app.SummarizeHandler.SummarizeHandler)

	// Document management
	mux.HandleFunc("/api/get-pdf-preview-url", s.app.DocumentHandler.PreviewURLHandler)
	mux.HandleFunc("/api/documents/", s.app.DocumentHandler.DeleteDocumentHandler)

	// Service endpoints
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/", s.app.APIHandler.RootHandler)

	return mux
}
