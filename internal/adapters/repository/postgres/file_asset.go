package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ecolink/internal/core/domain"
	"ecolink/internal/core/port"

	"github.com/google/uuid"
)

const fileAssetColumns = `id, owner_id, storage_key, filename, declared_size_bytes, declared_mime_type,
       content_hash, verified_size_bytes, verified_mime_type, duplicate_of,
       kwh_estimate, co2_g_estimate, impact_score,
       status, failure_reason, attempts, claim_token, claimed_at, last_accessed_at,
       created_at, updated_at, processed_at`

const canonicalIndex = "ux_file_assets_canonical"

type sqlFileAssetRepository struct {
	db SQLQuerier
}

// NewSqlFileAssetRepository creates sqlFileAssetRepository that implements port.FileAssetRepository
func NewSqlFileAssetRepository(db SQLQuerier) port.FileAssetRepository {
	return &sqlFileAssetRepository{
		db: db,
	}
}

// Create inserts a pending asset. Timestamps come from the database clock.
func (s *sqlFileAssetRepository) Create(ctx context.Context, asset domain.FileAsset) error {
	query := `INSERT INTO file_assets (id, owner_id, storage_key, filename, declared_size_bytes, declared_mime_type, status, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())`

	_, err := s.db.ExecContext(ctx, query,
		asset.ID,
		asset.OwnerID,
		asset.StorageKey,
		asset.Filename,
		asset.DeclaredSizeBytes,
		asset.DeclaredMimeType,
		asset.Status,
	)
	if err != nil {
		if uniqueViolationOn(err, "") {
			return fmt.Errorf("storage key %s : %w", asset.StorageKey, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("error inserting file asset: %w", err)
	}
	return nil
}

// FindByID finds by id
func (s *sqlFileAssetRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.FileAsset, error) {
	query := `SELECT ` + fileAssetColumns + ` FROM file_assets WHERE id = $1`

	asset, err := scanFileAsset(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAssetNotFound
		}
		return nil, err
	}
	return asset, nil
}

// Claim takes a pending asset, or one claimed more than claimTimeout ago.
// claimed_at is written and aged on the database clock only.
func (s *sqlFileAssetRepository) Claim(ctx context.Context, id uuid.UUID, token uuid.UUID, claimTimeout time.Duration) (*domain.FileAsset, error) {
	query := `UPDATE file_assets
              SET status = 'processing', claim_token = $2, claimed_at = now(),
                  attempts = attempts + 1, failure_reason = NULL, updated_at = now()
              WHERE id = $1
                AND (status = 'pending' OR (status = 'processing' AND claimed_at < now() - make_interval(secs => $3)))
              RETURNING ` + fileAssetColumns

	asset, err := scanFileAsset(s.db.QueryRowContext(ctx, query, id, token, claimTimeout.Seconds()))
	if err == nil {
		return asset, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("error claiming file asset: %w", err)
	}

	if err := s.exists(ctx, id); err != nil {
		return nil, err
	}
	return nil, domain.ErrNotClaimable
}

// SaveResult writes the verified fingerprint, metrics and complete status.
// content_hash and duplicate_of are only ever filled, never replaced.
func (s *sqlFileAssetRepository) SaveResult(ctx context.Context, result domain.IngestionResult) error {
	query := `UPDATE file_assets
              SET content_hash = COALESCE(content_hash, $3),
                  verified_size_bytes = $4,
                  verified_mime_type = $5,
                  duplicate_of = COALESCE(duplicate_of, $6),
                  kwh_estimate = $7,
                  co2_g_estimate = $8,
                  impact_score = $9,
                  status = 'complete',
                  failure_reason = NULL,
                  claim_token = NULL,
                  processed_at = $10,
                  updated_at = now()
              WHERE id = $1
                AND status = 'processing'
                AND claim_token = $2
                AND (content_hash IS NULL OR content_hash = $3)`

	var duplicateOf uuid.NullUUID
	if result.DuplicateOf != nil {
		duplicateOf = uuid.NullUUID{UUID: *result.DuplicateOf, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, query,
		result.AssetID,
		result.ClaimToken,
		result.Fingerprint.Hash,
		result.Fingerprint.SizeBytes,
		result.Fingerprint.MimeType,
		duplicateOf,
		result.Impact.KWh,
		result.Impact.CO2g,
		result.Impact.Score,
		result.ProcessedAt,
	)
	if err != nil {
		if uniqueViolationOn(err, canonicalIndex) {
			return fmt.Errorf("%w: second canonical for asset %s", domain.ErrInvariantViolation, result.AssetID)
		}
		return fmt.Errorf("error saving ingestion result: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking rows affected: %w", err)
	}
	if rowsAffected == 1 {
		return nil
	}

	var holdsClaim bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM file_assets WHERE id = $1 AND status = 'processing' AND claim_token = $2)`,
		result.AssetID, result.ClaimToken,
	).Scan(&holdsClaim)
	if err != nil {
		return fmt.Errorf("error checking claim: %w", err)
	}
	if holdsClaim {
		return domain.ErrContentChanged
	}
	return domain.ErrClaimLost
}

// MarkFailed ends the attempt held by token
func (s *sqlFileAssetRepository) MarkFailed(ctx context.Context, id uuid.UUID, token uuid.UUID, reason string) error {
	query := `UPDATE file_assets
              SET status = 'failed', failure_reason = $3, claim_token = NULL, processed_at = now(), updated_at = now()
              WHERE id = $1 AND status = 'processing' AND claim_token = $2`

	res, err := s.db.ExecContext(ctx, query, id, token, reason)
	if err != nil {
		return fmt.Errorf("error marking file asset failed: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrClaimLost
	}
	return nil
}

// Requeue moves an asset from a terminal status back to pending
func (s *sqlFileAssetRepository) Requeue(ctx context.Context, id uuid.UUID, from domain.AssetStatus) (*domain.FileAsset, error) {
	if err := domain.CheckTransition(from, domain.AssetStatusPending); err != nil {
		return nil, err
	}

	query := `UPDATE file_assets
              SET status = 'pending', failure_reason = NULL, claim_token = NULL, claimed_at = NULL, updated_at = now()
              WHERE id = $1 AND status = $2
              RETURNING ` + fileAssetColumns

	asset, err := scanFileAsset(s.db.QueryRowContext(ctx, query, id, from))
	if err == nil {
		return asset, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("error requeueing file asset: %w", err)
	}

	if err := s.exists(ctx, id); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: asset %s is not %s", domain.ErrInvalidTransition, id, from)
}

// FindStaleClaims finds processing assets claimed more than claimTimeout ago
func (s *sqlFileAssetRepository) FindStaleClaims(ctx context.Context, claimTimeout time.Duration, limit int) ([]domain.FileAsset, error) {
	query := `SELECT ` + fileAssetColumns + `
              FROM file_assets
              WHERE status = 'processing' AND claimed_at < now() - make_interval(secs => $1)
              ORDER BY claimed_at
              LIMIT $2`

	return s.queryAssets(ctx, query, claimTimeout.Seconds(), limit)
}

// FindStalePending finds pending assets untouched for longer than idleFor
func (s *sqlFileAssetRepository) FindStalePending(ctx context.Context, idleFor time.Duration, limit int) ([]domain.FileAsset, error) {
	query := `SELECT ` + fileAssetColumns + `
              FROM file_assets
              WHERE status = 'pending' AND updated_at < now() - make_interval(secs => $1)
              ORDER BY updated_at
              LIMIT $2`

	return s.queryAssets(ctx, query, idleFor.Seconds(), limit)
}

// CountDuplicates counts the owner's assets linked to a canonical
func (s *sqlFileAssetRepository) CountDuplicates(ctx context.Context, ownerID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM file_assets WHERE owner_id = $1 AND duplicate_of IS NOT NULL`,
		ownerID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting duplicates: %w", err)
	}
	return count, nil
}

func (s *sqlFileAssetRepository) exists(ctx context.Context, id uuid.UUID) error {
	var found bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM file_assets WHERE id = $1)`, id).Scan(&found); err != nil {
		return fmt.Errorf("error checking file asset: %w", err)
	}
	if !found {
		return domain.ErrAssetNotFound
	}
	return nil
}

func (s *sqlFileAssetRepository) queryAssets(ctx context.Context, query string, args ...any) ([]domain.FileAsset, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying file assets: %w", err)
	}
	defer rows.Close()

	assets := make([]domain.FileAsset, 0)
	for rows.Next() {
		asset, err := scanFileAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning file asset: %w", err)
		}
		assets = append(assets, *asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating file assets: %w", err)
	}
	return assets, nil
}

// dbFileAsset represents a file asset row
type dbFileAsset struct {
	ID                uuid.UUID
	OwnerID           uuid.UUID
	StorageKey        string
	Filename          string
	DeclaredSizeBytes int64
	DeclaredMimeType  string
	ContentHash       sql.NullString
	VerifiedSizeBytes sql.NullInt64
	VerifiedMimeType  sql.NullString
	DuplicateOf       uuid.NullUUID
	KWhEstimate       sql.NullFloat64
	CO2gEstimate      sql.NullFloat64
	ImpactScore       sql.NullInt32
	Status            string
	FailureReason     sql.NullString
	Attempts          int
	ClaimToken        uuid.NullUUID
	ClaimedAt         sql.NullTime
	LastAccessedAt    sql.NullTime
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ProcessedAt       sql.NullTime
}

func scanFileAsset(row rowScanner) (*domain.FileAsset, error) {
	var f dbFileAsset
	err := row.Scan(
		&f.ID,
		&f.OwnerID,
		&f.StorageKey,
		&f.Filename,
		&f.DeclaredSizeBytes,
		&f.DeclaredMimeType,
		&f.ContentHash,
		&f.VerifiedSizeBytes,
		&f.VerifiedMimeType,
		&f.DuplicateOf,
		&f.KWhEstimate,
		&f.CO2gEstimate,
		&f.ImpactScore,
		&f.Status,
		&f.FailureReason,
		&f.Attempts,
		&f.ClaimToken,
		&f.ClaimedAt,
		&f.LastAccessedAt,
		&f.CreatedAt,
		&f.UpdatedAt,
		&f.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	return f.ToDomain(), nil
}

// ToDomain converts to domain.FileAsset
func (f *dbFileAsset) ToDomain() *domain.FileAsset {
	asset := &domain.FileAsset{
		ID:                f.ID,
		OwnerID:           f.OwnerID,
		StorageKey:        f.StorageKey,
		Filename:          f.Filename,
		DeclaredSizeBytes: f.DeclaredSizeBytes,
		DeclaredMimeType:  f.DeclaredMimeType,
		Status:            domain.AssetStatus(f.Status),
		Attempts:          f.Attempts,
		CreatedAt:         f.CreatedAt,
		UpdatedAt:         f.UpdatedAt,
	}
	if f.ContentHash.Valid {
		asset.ContentHash = &f.ContentHash.String
	}
	if f.VerifiedSizeBytes.Valid {
		asset.VerifiedSizeBytes = &f.VerifiedSizeBytes.Int64
	}
	if f.VerifiedMimeType.Valid {
		asset.VerifiedMimeType = &f.VerifiedMimeType.String
	}
	if f.DuplicateOf.Valid {
		asset.DuplicateOf = &f.DuplicateOf.UUID
	}
	if f.KWhEstimate.Valid {
		asset.KWhEstimate = &f.KWhEstimate.Float64
	}
	if f.CO2gEstimate.Valid {
		asset.CO2gEstimate = &f.CO2gEstimate.Float64
	}
	if f.ImpactScore.Valid {
		score := int(f.ImpactScore.Int32)
		asset.ImpactScore = &score
	}
	if f.FailureReason.Valid {
		asset.FailureReason = &f.FailureReason.String
	}
	if f.ClaimToken.Valid {
		asset.ClaimToken = &f.ClaimToken.UUID
	}
	if f.ClaimedAt.Valid {
		asset.ClaimedAt = &f.ClaimedAt.Time
	}
	if f.LastAccessedAt.Valid {
		asset.LastAccessedAt = &f.LastAccessedAt.Time
	}
	if f.ProcessedAt.Valid {
		asset.ProcessedAt = &f.ProcessedAt.Time
	}
	return asset
}
