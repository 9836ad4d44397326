package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"ecolink/internal/core/domain"
	"ecolink/internal/core/port"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type sqlRecommendationRepository struct {
	db SQLQuerier
}

// NewSqlRecommendationRepository creates sqlRecommendationRepository that implements port.RecommendationRepository
func NewSqlRecommendationRepository(db SQLQuerier) port.RecommendationRepository {
	return &sqlRecommendationRepository{
		db: db,
	}
}

// ReplaceForAsset invalidates the active set and appends recs. Rows are never edited otherwise.
func (s *sqlRecommendationRepository) ReplaceForAsset(ctx context.Context, assetID uuid.UUID, recs []domain.Recommendation) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE recommendations SET invalidated_at = now() WHERE asset_id = $1 AND invalidated_at IS NULL`,
		assetID,
	)
	if err != nil {
		return fmt.Errorf("error invalidating recommendations: %w", err)
	}

	if len(recs) == 0 {
		return nil
	}

	placeholders := make([]string, len(recs))
	args := make([]any, 0, len(recs)*5)
	for i, rec := range recs {
		n := i * 5
		placeholders[i] = fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5)
		args = append(args, rec.ID, assetID, rec.Kind, rec.Message, rec.CreatedAt)
	}

	query := fmt.Sprintf(
		"INSERT INTO recommendations (id, asset_id, kind, message, created_at) VALUES %s",
		strings.Join(placeholders, ", "),
	)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("error inserting recommendations: %w", err)
	}
	return nil
}

// FindActiveByAssetID lists the current recommendations in kind order
func (s *sqlRecommendationRepository) FindActiveByAssetID(ctx context.Context, assetID uuid.UUID) ([]domain.Recommendation, error) {
	query := `SELECT id, asset_id, kind, message, created_at, invalidated_at
              FROM recommendations
              WHERE asset_id = $1 AND invalidated_at IS NULL
              ORDER BY array_position($2::text[], kind), created_at`

	order := make([]string, len(domain.RecommendationKindOrder))
	for i, kind := range domain.RecommendationKindOrder {
		order[i] = string(kind)
	}

	rows, err := s.db.QueryContext(ctx, query, assetID, pq.Array(order))
	if err != nil {
		return nil, fmt.Errorf("error querying recommendations: %w", err)
	}
	defer rows.Close()

	recs := make([]domain.Recommendation, 0)
	for rows.Next() {
		var rec domain.Recommendation
		var kind string
		var invalidatedAt sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.AssetID, &kind, &rec.Message, &rec.CreatedAt, &invalidatedAt); err != nil {
			return nil, fmt.Errorf("error scanning recommendation: %w", err)
		}
		rec.Kind = domain.RecommendationKind(kind)
		if invalidatedAt.Valid {
			rec.InvalidatedAt = &invalidatedAt.Time
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recommendations: %w", err)
	}
	return recs, nil
}
