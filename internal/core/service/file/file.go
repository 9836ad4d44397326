package file

import (
	"context"
	"log/slog"
	"mime"
	"time"

	"ecolink/internal/config"
	"ecolink/internal/core/domain"
	"ecolink/internal/core/port"

	"github.com/google/uuid"
)

type fileService struct {
	fileStorage   port.FileStorage
	uow           port.UnitOfWork
	publisher     port.TaskPublisher
	fileUploadCfg config.FileUploadConfig
	logger        *slog.Logger
	now           func() time.Time
}

// NewFileService creates a new file service
func NewFileService(uow port.UnitOfWork, storage port.FileStorage, publisher port.TaskPublisher, cfg config.FileUploadConfig, logger *slog.Logger) port.FileService {
	return &fileService{
		uow:           uow,
		fileStorage:   storage,
		publisher:     publisher,
		fileUploadCfg: cfg,
		logger:        logger,
		now:           time.Now,
	}
}

// ownedAsset hides other owners' assets behind ErrAssetNotFound
func (f *fileService) ownedAsset(ctx context.Context, ownerID uuid.UUID, assetID uuid.UUID) (*domain.FileAsset, error) {
	asset, err := f.uow.FileAssetRepo().FindByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if asset.OwnerID != ownerID {
		return nil, domain.ErrAssetNotFound
	}
	return asset, nil
}

// dispatch publishes the task for a stored pending asset. A failed publish
// leaves the asset pending; the sweeper republishes it.
func (f *fileService) dispatch(ctx context.Context, asset *domain.FileAsset) {
	if err := f.publisher.Publish(ctx, domain.NewIngestionTask(asset.ID, asset.Attempts)); err != nil {
		f.logger.Warn("failed to publish ingestion task, leaving it to the sweeper", "asset_id", asset.ID, "error", err)
	}
}

func extractMimeType(contentType string) string {
	mimeType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "application/octet-stream"
	}
	return mimeType
}
