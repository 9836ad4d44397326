package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"ecolink/internal/config"
	"ecolink/internal/core/domain"
	"ecolink/internal/core/port"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ecolink_analytics_cache_hits_total",
		Help: "Analytics reads served from the in-process cache",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ecolink_analytics_cache_misses_total",
		Help: "Analytics reads that hit the database",
	})
)

const (
	defaultTrendDays = 30
	day              = 24 * time.Hour
)

type analyticsService struct {
	repo   port.AnalyticsRepository
	cache  *expirable.LRU[string, any]
	cfg    config.AnalyticsConfig
	logger *slog.Logger
}

// NewAnalyticsService creates the read side of the pipeline. Results are
// cached per scope for cfg.CacheTTL; a zero TTL or size disables the cache.
func NewAnalyticsService(repo port.AnalyticsRepository, cfg config.AnalyticsConfig, logger *slog.Logger) port.AnalyticsService {
	s := &analyticsService{repo: repo, cfg: cfg, logger: logger}
	if cfg.CacheTTL > 0 && cfg.CacheSize > 0 {
		s.cache = expirable.NewLRU[string, any](cfg.CacheSize, nil, cfg.CacheTTL)
	}
	return s
}

func (a *analyticsService) Summarize(ctx context.Context, scope domain.AnalyticsScope) (domain.AnalyticsSummary, error) {
	return cached(a, "summary|"+scopeKey(scope), func() (domain.AnalyticsSummary, error) {
		summary, err := a.repo.Summary(ctx, scope)
		if err != nil {
			return domain.AnalyticsSummary{}, fmt.Errorf("could not compute summary: %w", err)
		}
		if summary.TotalFiles > 0 {
			summary.DuplicatesPercentage = round2(float64(summary.DuplicatesCount) / float64(summary.TotalFiles) * 100)
		}
		return summary, nil
	})
}

func (a *analyticsService) FileTypes(ctx context.Context, scope domain.AnalyticsScope) ([]domain.FileTypeBreakdown, error) {
	return cached(a, "types|"+scopeKey(scope), func() ([]domain.FileTypeBreakdown, error) {
		types, err := a.repo.FileTypes(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("could not compute file types: %w", err)
		}
		return types, nil
	})
}

// Trend returns one point per UTC day for the last days days, today included.
// Days without complete assets are zero-filled.
func (a *analyticsService) Trend(ctx context.Context, ownerID uuid.UUID, days int, now time.Time) ([]domain.TrendPoint, error) {
	if days <= 0 {
		days = defaultTrendDays
	}
	if a.cfg.TrendMaxDays > 0 && days > a.cfg.TrendMaxDays {
		days = a.cfg.TrendMaxDays
	}

	to := now.UTC().Truncate(day).Add(day)
	scope := domain.AnalyticsScope{OwnerID: ownerID, From: to.Add(-time.Duration(days) * day), To: to}

	return cached(a, "trend|"+scopeKey(scope), func() ([]domain.TrendPoint, error) {
		rows, err := a.repo.DailyTrend(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("could not compute trend: %w", err)
		}
		return zeroFill(rows, scope.From, days), nil
	})
}

func zeroFill(rows []domain.TrendPoint, from time.Time, days int) []domain.TrendPoint {
	byDay := make(map[string]domain.TrendPoint, len(rows))
	for _, row := range rows {
		byDay[row.Date.UTC().Format(time.DateOnly)] = row
	}

	points := make([]domain.TrendPoint, days)
	for i := range points {
		date := from.Add(time.Duration(i) * day)
		point := byDay[date.Format(time.DateOnly)]
		point.Date = date
		points[i] = point
	}
	return points
}

func cached[T any](a *analyticsService, key string, load func() (T, error)) (T, error) {
	if a.cache == nil {
		return load()
	}
	if v, ok := a.cache.Get(key); ok {
		cacheHitsTotal.Inc()
		return v.(T), nil
	}
	cacheMissesTotal.Inc()

	v, err := load()
	if err != nil {
		return v, err
	}
	a.cache.Add(key, v)
	return v, nil
}

func scopeKey(scope domain.AnalyticsScope) string {
	return fmt.Sprintf("%s|%d|%d", scope.OwnerID, unixOrZero(scope.From), unixOrZero(scope.To))
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
