package port

import (
	"context"
	"ecolink/internal/core/domain"
	"time"

	"github.com/google/uuid"
)

// AnalyticsRepository runs read-only aggregates over complete assets
type AnalyticsRepository interface {
	Summary(ctx context.Context, scope domain.AnalyticsScope) (domain.AnalyticsSummary, error)
	FileTypes(ctx context.Context, scope domain.AnalyticsScope) ([]domain.FileTypeBreakdown, error)
	DailyTrend(ctx context.Context, scope domain.AnalyticsScope) ([]domain.TrendPoint, error)
}

// AnalyticsService exposes rollups to the dashboard
type AnalyticsService interface {
	Summarize(ctx context.Context, scope domain.AnalyticsScope) (domain.AnalyticsSummary, error)
	FileTypes(ctx context.Context, scope domain.AnalyticsScope) ([]domain.FileTypeBreakdown, error)
	Trend(ctx context.Context, ownerID uuid.UUID, days int, now time.Time) ([]domain.TrendPoint, error)
}
