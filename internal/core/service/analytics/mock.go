package analytics

import (
	"context"
	"time"

	"ecolink/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockAnalyticsService is a mock implementation of AnalyticsService
type MockAnalyticsService struct {
	mock.Mock
}

// NewMockAnalyticsService creates a new MockAnalyticsService
func NewMockAnalyticsService() *MockAnalyticsService {
	return &MockAnalyticsService{}
}

func (m *MockAnalyticsService) Summarize(ctx context.Context, scope domain.AnalyticsScope) (domain.AnalyticsSummary, error) {
	args := m.Called(ctx, scope)
	return args.Get(0).(domain.AnalyticsSummary), args.Error(1)
}

func (m *MockAnalyticsService) FileTypes(ctx context.Context, scope domain.AnalyticsScope) ([]domain.FileTypeBreakdown, error) {
	args := m.Called(ctx, scope)
	return args.Get(0).([]domain.FileTypeBreakdown), args.Error(1)
}

func (m *MockAnalyticsService) Trend(ctx context.Context, ownerID uuid.UUID, days int, now time.Time) ([]domain.TrendPoint, error) {
	args := m.Called(ctx, ownerID, days, now)
	return args.Get(0).([]domain.TrendPoint), args.Error(1)
}
