package file

import (
	"context"
	"fmt"

	"ecolink/internal/core/domain"

	"github.com/google/uuid"
)

func (f *fileService) GetFile(ctx context.Context, ownerID uuid.UUID, assetID uuid.UUID) (*domain.FileAsset, []domain.Recommendation, error) {
	asset, err := f.ownedAsset(ctx, ownerID, assetID)
	if err != nil {
		return nil, nil, err
	}

	recs, err := f.uow.RecommendationRepo().FindActiveByAssetID(ctx, asset.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load recommendations: %w", err)
	}

	return asset, recs, nil
}

func (f *fileService) RequestDownload(ctx context.Context, ownerID uuid.UUID, assetID uuid.UUID) (*domain.TransferHandle, error) {
	asset, err := f.ownedAsset(ctx, ownerID, assetID)
	if err != nil {
		return nil, err
	}

	handle, err := f.fileStorage.IssueDownloadHandle(ctx, asset.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("could not generate download presigned url: %w", err)
	}
	return handle, nil
}
