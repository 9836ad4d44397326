package file

import (
	"context"
	"fmt"

	"ecolink/internal/core/domain"

	"github.com/google/uuid"
)

// Retry moves a failed asset back to pending and dispatches a new task
func (f *fileService) Retry(ctx context.Context, ownerID uuid.UUID, assetID uuid.UUID) (*domain.FileAsset, error) {
	return f.requeue(ctx, ownerID, assetID, domain.AssetStatusFailed)
}

// Reprocess starts a new attempt for a complete asset. The previous result
// stays visible until the new attempt's terminal write replaces it.
func (f *fileService) Reprocess(ctx context.Context, ownerID uuid.UUID, assetID uuid.UUID) (*domain.FileAsset, error) {
	return f.requeue(ctx, ownerID, assetID, domain.AssetStatusComplete)
}

func (f *fileService) requeue(ctx context.Context, ownerID uuid.UUID, assetID uuid.UUID, from domain.AssetStatus) (*domain.FileAsset, error) {
	asset, err := f.ownedAsset(ctx, ownerID, assetID)
	if err != nil {
		return nil, err
	}
	if asset.Status != from {
		return nil, fmt.Errorf("%w: asset is %s", domain.ErrInvalidTransition, asset.Status)
	}

	updated, err := f.uow.FileAssetRepo().Requeue(ctx, assetID, from)
	if err != nil {
		return nil, fmt.Errorf("could not requeue asset %s: %w", assetID, err)
	}

	f.logger.Info("asset requeued", "asset_id", assetID, "from", from)
	f.dispatch(ctx, updated)
	return updated, nil
}
