package file

import (
	"context"
	"fmt"

	"ecolink/internal/core/domain"

	"github.com/google/uuid"
)

// Commit records a pending asset, then enqueues its first ingestion task.
// The task is published only once the row is visible to workers.
func (f *fileService) Commit(ctx context.Context, req domain.CommitRequest) (*domain.FileAsset, error) {
	if req.DeclaredSizeBytes > f.fileUploadCfg.MaxUploadSize {
		return nil, domain.ErrFileSizeTooBig
	}
	if !domain.OwnsStorageKey(req.OwnerID, req.StorageKey) {
		return nil, domain.ErrForeignStorageKey
	}

	now := f.now().UTC()
	asset := domain.FileAsset{
		ID:                uuid.New(),
		OwnerID:           req.OwnerID,
		StorageKey:        req.StorageKey,
		Filename:          req.Filename,
		DeclaredSizeBytes: req.DeclaredSizeBytes,
		DeclaredMimeType:  extractMimeType(req.DeclaredContentType),
		Status:            domain.AssetStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := f.uow.FileAssetRepo().Create(ctx, asset); err != nil {
		return nil, fmt.Errorf("could not commit upload: %w", err)
	}

	f.logger.Info("upload committed", "asset_id", asset.ID, "owner_id", asset.OwnerID, "storage_key", asset.StorageKey)
	f.dispatch(ctx, &asset)
	return &asset, nil
}
