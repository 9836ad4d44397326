package postgres_test

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"testing"
	"time"

	"ecolink/internal/core/domain"
	"ecolink/internal/core/port"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const claimTimeout = 10 * time.Minute

func hashOf(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func newPendingAsset(owner uuid.UUID) domain.FileAsset {
	now := time.Now().UTC()
	id := uuid.New()
	return domain.FileAsset{
		ID:                id,
		OwnerID:           owner,
		StorageKey:        domain.OwnerKeyPrefix(owner) + id.String() + "_file.txt",
		Filename:          "file.txt",
		DeclaredSizeBytes: 100,
		DeclaredMimeType:  "text/plain",
		Status:            domain.AssetStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func resultFor(asset *domain.FileAsset, hash string, duplicateOf *uuid.UUID) domain.IngestionResult {
	return domain.IngestionResult{
		AssetID:     asset.ID,
		ClaimToken:  *asset.ClaimToken,
		Fingerprint: domain.Fingerprint{Hash: hash, SizeBytes: 100, MimeType: "text/plain"},
		DuplicateOf: duplicateOf,
		Impact:      domain.Impact{KWh: 0.001, CO2g: 0.4, Score: 10},
		ProcessedAt: time.Now().UTC(),
	}
}

// completeAsset creates, claims and completes an asset as canonical for hash
func completeAsset(t *testing.T, ctx context.Context, repo port.FileAssetRepository, owner uuid.UUID, hash string) *domain.FileAsset {
	t.Helper()
	asset := newPendingAsset(owner)
	require.NoError(t, repo.Create(ctx, asset))
	claimed, err := repo.Claim(ctx, asset.ID, uuid.New(), claimTimeout)
	require.NoError(t, err)
	require.NoError(t, repo.SaveResult(ctx, resultFor(claimed, hash, nil)))
	done, err := repo.FindByID(ctx, asset.ID)
	require.NoError(t, err)
	return done
}

// backdate shifts a timestamp column of an asset into the past on the database clock
func backdate(t *testing.T, ctx context.Context, db *sql.DB, id uuid.UUID, column string, age time.Duration) {
	t.Helper()
	_, err := db.ExecContext(ctx,
		`UPDATE file_assets SET `+column+` = now() - make_interval(secs => $2) WHERE id = $1`,
		id, age.Seconds(),
	)
	require.NoError(t, err)
}
