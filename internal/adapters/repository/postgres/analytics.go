package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ecolink/internal/core/domain"
	"ecolink/internal/core/port"

	"github.com/google/uuid"
)

// scopeFilter narrows to complete assets, an optional owner and an optional [from, to) window
const scopeFilter = `status = 'complete'
  AND ($1::uuid IS NULL OR owner_id = $1)
  AND ($2::timestamptz IS NULL OR created_at >= $2)
  AND ($3::timestamptz IS NULL OR created_at < $3)`

type sqlAnalyticsRepository struct {
	db SQLQuerier
}

// NewSqlAnalyticsRepository creates sqlAnalyticsRepository that implements port.AnalyticsRepository.
// Every method is a single statement so it reads one snapshot.
func NewSqlAnalyticsRepository(db SQLQuerier) port.AnalyticsRepository {
	return &sqlAnalyticsRepository{
		db: db,
	}
}

func (s *sqlAnalyticsRepository) Summary(ctx context.Context, scope domain.AnalyticsScope) (domain.AnalyticsSummary, error) {
	query := `SELECT count(*),
                     COALESCE(sum(verified_size_bytes), 0),
                     COALESCE(sum(kwh_estimate), 0),
                     COALESCE(sum(co2_g_estimate), 0),
                     count(*) FILTER (WHERE duplicate_of IS NOT NULL),
                     COALESCE(sum(kwh_estimate) FILTER (WHERE duplicate_of IS NOT NULL), 0),
                     COALESCE(sum(co2_g_estimate) FILTER (WHERE duplicate_of IS NOT NULL), 0),
                     COALESCE(avg(impact_score), 0)
              FROM file_assets
              WHERE ` + scopeFilter

	var summary domain.AnalyticsSummary
	err := s.db.QueryRowContext(ctx, query, scopeArgs(scope)...).Scan(
		&summary.TotalFiles,
		&summary.TotalSizeBytes,
		&summary.TotalKWh,
		&summary.TotalCO2g,
		&summary.DuplicatesCount,
		&summary.KWhSaved,
		&summary.CO2gSaved,
		&summary.AverageImpactScore,
	)
	if err != nil {
		return domain.AnalyticsSummary{}, fmt.Errorf("error computing summary: %w", err)
	}
	return summary, nil
}

func (s *sqlAnalyticsRepository) FileTypes(ctx context.Context, scope domain.AnalyticsScope) ([]domain.FileTypeBreakdown, error) {
	query := `SELECT COALESCE(verified_mime_type, declared_mime_type) AS mime_type,
                     count(*),
                     COALESCE(sum(verified_size_bytes), 0),
                     COALESCE(avg(impact_score), 0)
              FROM file_assets
              WHERE ` + scopeFilter + `
              GROUP BY mime_type
              ORDER BY count(*) DESC, mime_type`

	rows, err := s.db.QueryContext(ctx, query, scopeArgs(scope)...)
	if err != nil {
		return nil, fmt.Errorf("error querying file types: %w", err)
	}
	defer rows.Close()

	types := make([]domain.FileTypeBreakdown, 0)
	for rows.Next() {
		var t domain.FileTypeBreakdown
		if err := rows.Scan(&t.MimeType, &t.Count, &t.TotalSizeBytes, &t.AverageImpactScore); err != nil {
			return nil, fmt.Errorf("error scanning file type: %w", err)
		}
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating file types: %w", err)
	}
	return types, nil
}

// DailyTrend returns only the UTC days that have complete assets
func (s *sqlAnalyticsRepository) DailyTrend(ctx context.Context, scope domain.AnalyticsScope) ([]domain.TrendPoint, error) {
	query := `SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
                     count(*),
                     COALESCE(sum(kwh_estimate), 0),
                     COALESCE(sum(co2_g_estimate), 0),
                     count(*) FILTER (WHERE duplicate_of IS NOT NULL)
              FROM file_assets
              WHERE ` + scopeFilter + `
              GROUP BY day
              ORDER BY day`

	rows, err := s.db.QueryContext(ctx, query, scopeArgs(scope)...)
	if err != nil {
		return nil, fmt.Errorf("error querying trend: %w", err)
	}
	defer rows.Close()

	points := make([]domain.TrendPoint, 0)
	for rows.Next() {
		var p domain.TrendPoint
		var day string
		if err := rows.Scan(&day, &p.FilesCount, &p.TotalKWh, &p.TotalCO2g, &p.DuplicatesCount); err != nil {
			return nil, fmt.Errorf("error scanning trend point: %w", err)
		}
		p.Date, err = time.Parse(time.DateOnly, day)
		if err != nil {
			return nil, fmt.Errorf("error parsing trend day %q: %w", day, err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trend: %w", err)
	}
	return points, nil
}

func scopeArgs(scope domain.AnalyticsScope) []any {
	owner := uuid.NullUUID{UUID: scope.OwnerID, Valid: scope.OwnerID != uuid.Nil}
	from := sql.NullTime{Time: scope.From, Valid: !scope.From.IsZero()}
	to := sql.NullTime{Time: scope.To, Valid: !scope.To.IsZero()}
	return []any{owner, from, to}
}
