package file

import (
	"log/slog"

	"ecolink/internal/core/port"

	"github.com/go-chi/chi/v5"
)

// HandlerV1 is the handler for v1 file routes
type HandlerV1 struct {
	fileService port.FileService
	logger      *slog.Logger
}

// NewFileHandlerV1 creates HandlerV1
func NewFileHandlerV1(service port.FileService, logger *slog.Logger) *HandlerV1 {
	return &HandlerV1{
		fileService: service,
		logger:      logger,
	}
}

// Routes exposes handler routes
func (h *HandlerV1) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/upload-url", h.RequestUploadV1)
	router.Post("/", h.CommitV1)
	router.Get("/{fileID}", h.GetFileV1)
	router.Get("/{fileID}/download-url", h.RequestDownloadV1)
	router.Post("/{fileID}/retry", h.RetryV1)
	router.Post("/{fileID}/reprocess", h.ReprocessV1)

	return router
}
