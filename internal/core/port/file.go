package port

import (
	"context"
	"ecolink/internal/core/domain"

	"github.com/google/uuid"
)

// FileService is the request side of the pipeline
type FileService interface {
	RequestUpload(ctx context.Context, ownerID uuid.UUID, filename string, contentType string) (*domain.TransferHandle, error)
	Commit(ctx context.Context, req domain.CommitRequest) (*domain.FileAsset, error)
	GetFile(ctx context.Context, ownerID uuid.UUID, assetID uuid.UUID) (*domain.FileAsset, []domain.Recommendation, error)
	RequestDownload(ctx context.Context, ownerID uuid.UUID, assetID uuid.UUID) (*domain.TransferHandle, error)
	Retry(ctx context.Context, ownerID uuid.UUID, assetID uuid.UUID) (*domain.FileAsset, error)
	Reprocess(ctx context.Context, ownerID uuid.UUID, assetID uuid.UUID) (*domain.FileAsset, error)
}

// IngestionService is the worker side of the pipeline
type IngestionService interface {
	MessageService
	Process(ctx context.Context, assetID uuid.UUID) error
}

// SweepService requeues work that lost its task message or its worker
type SweepService interface {
	RequeueStale(ctx context.Context) (int, error)
}
