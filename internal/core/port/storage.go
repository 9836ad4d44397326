package port

import (
	"context"
	"ecolink/internal/core/domain"
	"io"

	"github.com/google/uuid"
)

// FileStorage is an interface to define object storage interactions
type FileStorage interface {
	IssueUploadHandle(ctx context.Context, ownerID uuid.UUID, filename string, contentType string) (*domain.TransferHandle, error)
	IssueDownloadHandle(ctx context.Context, key string) (*domain.TransferHandle, error)
	Fetch(ctx context.Context, key string) (io.ReadCloser, error)
}
