package analytics_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"ecolink/internal/adapters/repository"
	"ecolink/internal/config"
	"ecolink/internal/core/domain"
	"ecolink/internal/core/service/analytics"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestSummarize_ComputesPercentage(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := repository.NewMockAnalyticsRepository()
	service := analytics.NewAnalyticsService(repo, config.AnalyticsConfig{}, discardLogger)
	scope := domain.AnalyticsScope{OwnerID: uuid.New()}

	repo.On("Summary", ctx, scope).Return(domain.AnalyticsSummary{TotalFiles: 3, DuplicatesCount: 1, TotalKWh: 0.5}, nil)

	// Act
	summary, err := service.Summarize(ctx, scope)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 33.33, summary.DuplicatesPercentage)
	assert.Equal(t, 0.5, summary.TotalKWh)
}

func TestSummarize_EmptyScope(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := repository.NewMockAnalyticsRepository()
	service := analytics.NewAnalyticsService(repo, config.AnalyticsConfig{}, discardLogger)
	scope := domain.AnalyticsScope{}

	repo.On("Summary", ctx, scope).Return(domain.AnalyticsSummary{}, nil)

	// Act
	summary, err := service.Summarize(ctx, scope)

	// Assert
	require.NoError(t, err)
	assert.Zero(t, summary.DuplicatesPercentage)
}

func TestSummarize_CachedWithinTTL(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := repository.NewMockAnalyticsRepository()
	service := analytics.NewAnalyticsService(repo, config.AnalyticsConfig{CacheSize: 8, CacheTTL: time.Minute}, discardLogger)
	scope := domain.AnalyticsScope{OwnerID: uuid.New()}

	repo.On("Summary", ctx, scope).Return(domain.AnalyticsSummary{TotalFiles: 1}, nil).Once()

	// Act
	first, err1 := service.Summarize(ctx, scope)
	second, err2 := service.Summarize(ctx, scope)

	// Assert
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, first, second)
	repo.AssertNumberOfCalls(t, "Summary", 1)
}

func TestSummarize_ZeroTTLDisablesCache(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := repository.NewMockAnalyticsRepository()
	service := analytics.NewAnalyticsService(repo, config.AnalyticsConfig{CacheSize: 8}, discardLogger)
	scope := domain.AnalyticsScope{OwnerID: uuid.New()}

	repo.On("Summary", ctx, scope).Return(domain.AnalyticsSummary{TotalFiles: 1}, nil)

	// Act
	_, _ = service.Summarize(ctx, scope)
	_, _ = service.Summarize(ctx, scope)

	// Assert
	repo.AssertNumberOfCalls(t, "Summary", 2)
}

func TestSummarize_ErrorsAreNotCached(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := repository.NewMockAnalyticsRepository()
	service := analytics.NewAnalyticsService(repo, config.AnalyticsConfig{CacheSize: 8, CacheTTL: time.Minute}, discardLogger)
	scope := domain.AnalyticsScope{}
	dbErr := errors.New("timeout")

	repo.On("Summary", ctx, scope).Return(domain.AnalyticsSummary{}, dbErr).Once()
	repo.On("Summary", ctx, scope).Return(domain.AnalyticsSummary{TotalFiles: 2}, nil).Once()

	// Act
	_, err := service.Summarize(ctx, scope)
	summary, err2 := service.Summarize(ctx, scope)

	// Assert
	assert.ErrorIs(t, err, dbErr)
	require.NoError(t, err2)
	assert.Equal(t, 2, summary.TotalFiles)
}

func TestFileTypes(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := repository.NewMockAnalyticsRepository()
	service := analytics.NewAnalyticsService(repo, config.AnalyticsConfig{}, discardLogger)
	scope := domain.AnalyticsScope{OwnerID: uuid.New()}
	types := []domain.FileTypeBreakdown{{MimeType: "image/png", Count: 2, TotalSizeBytes: 400}}

	repo.On("FileTypes", ctx, scope).Return(types, nil)

	// Act
	got, err := service.FileTypes(ctx, scope)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, types, got)
}

func TestTrend_ZeroFillsMissingDays(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := repository.NewMockAnalyticsRepository()
	service := analytics.NewAnalyticsService(repo, config.AnalyticsConfig{TrendMaxDays: 365}, discardLogger)
	owner := uuid.New()
	now := time.Date(2026, 3, 14, 15, 30, 0, 0, time.UTC)
	today := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	expectedScope := domain.AnalyticsScope{OwnerID: owner, From: today.AddDate(0, 0, -2), To: today.AddDate(0, 0, 1)}
	repo.On("DailyTrend", ctx, expectedScope).Return([]domain.TrendPoint{
		{Date: today.AddDate(0, 0, -1), FilesCount: 4, TotalKWh: 0.2, DuplicatesCount: 1},
	}, nil)

	// Act
	points, err := service.Trend(ctx, owner, 3, now)

	// Assert
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, today.AddDate(0, 0, -2), points[0].Date)
	assert.Zero(t, points[0].FilesCount)
	assert.Equal(t, 4, points[1].FilesCount)
	assert.Equal(t, 1, points[1].DuplicatesCount)
	assert.Equal(t, today, points[2].Date)
	assert.Zero(t, points[2].TotalKWh)
}

func TestTrend_DaysClampedAndDefaulted(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 15, 30, 0, 0, time.UTC)

	t.Run("clamped to max", func(t *testing.T) {
		repo := repository.NewMockAnalyticsRepository()
		service := analytics.NewAnalyticsService(repo, config.AnalyticsConfig{TrendMaxDays: 7}, discardLogger)
		repo.On("DailyTrend", ctx, mock.Anything).Return([]domain.TrendPoint{}, nil)

		points, err := service.Trend(ctx, uuid.Nil, 1000, now)

		require.NoError(t, err)
		assert.Len(t, points, 7)
	})

	t.Run("defaulted", func(t *testing.T) {
		repo := repository.NewMockAnalyticsRepository()
		service := analytics.NewAnalyticsService(repo, config.AnalyticsConfig{TrendMaxDays: 365}, discardLogger)
		repo.On("DailyTrend", ctx, mock.Anything).Return([]domain.TrendPoint{}, nil)

		points, err := service.Trend(ctx, uuid.Nil, 0, now)

		require.NoError(t, err)
		assert.Len(t, points, 30)
	})
}
