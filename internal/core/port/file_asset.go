package port

import (
	"context"
	"ecolink/internal/core/domain"
	"time"

	"github.com/google/uuid"
)

// FileAssetRepository is an interface to define file asset persistence
type FileAssetRepository interface {
	Create(ctx context.Context, asset domain.FileAsset) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.FileAsset, error)
	// Claim moves a pending asset, or one claimed longer than claimTimeout ago, to processing.
	// Claim age is measured on the store's clock.
	Claim(ctx context.Context, id uuid.UUID, token uuid.UUID, claimTimeout time.Duration) (*domain.FileAsset, error)
	// SaveResult is the single terminal write of a successful attempt, fenced by the claim token
	SaveResult(ctx context.Context, result domain.IngestionResult) error
	// MarkFailed is the terminal write of a failed attempt, fenced by the claim token
	MarkFailed(ctx context.Context, id uuid.UUID, token uuid.UUID, reason string) error
	// Requeue moves an asset from a terminal status back to pending
	Requeue(ctx context.Context, id uuid.UUID, from domain.AssetStatus) (*domain.FileAsset, error)
	FindStaleClaims(ctx context.Context, claimTimeout time.Duration, limit int) ([]domain.FileAsset, error)
	FindStalePending(ctx context.Context, idleFor time.Duration, limit int) ([]domain.FileAsset, error)
	CountDuplicates(ctx context.Context, ownerID uuid.UUID) (int, error)
}

// FingerprintRepository is the registry of canonical assets per owner and content hash
type FingerprintRepository interface {
	// ClaimCanonical registers candidateID as canonical unless one exists, and returns the canonical id
	ClaimCanonical(ctx context.Context, ownerID uuid.UUID, contentHash string, candidateID uuid.UUID) (uuid.UUID, error)
}

// RecommendationRepository is an interface to define recommendation persistence
type RecommendationRepository interface {
	// ReplaceForAsset invalidates the active set and appends recs
	ReplaceForAsset(ctx context.Context, assetID uuid.UUID, recs []domain.Recommendation) error
	FindActiveByAssetID(ctx context.Context, assetID uuid.UUID) ([]domain.Recommendation, error)
}
