package repository

import (
	"context"
	"ecolink/internal/core/domain"
	"ecolink/internal/core/port"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockFileAssetRepository struct {
	mock.Mock
}

func NewMockFileAssetRepository() *MockFileAssetRepository {
	return &MockFileAssetRepository{}
}

func (m *MockFileAssetRepository) Create(ctx context.Context, asset domain.FileAsset) error {
	args := m.Called(ctx, asset)
	return args.Error(0)
}

func (m *MockFileAssetRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.FileAsset, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*domain.FileAsset), args.Error(1)
}

func (m *MockFileAssetRepository) Claim(ctx context.Context, id uuid.UUID, token uuid.UUID, claimTimeout time.Duration) (*domain.FileAsset, error) {
	args := m.Called(ctx, id, token, claimTimeout)
	return args.Get(0).(*domain.FileAsset), args.Error(1)
}

func (m *MockFileAssetRepository) SaveResult(ctx context.Context, result domain.IngestionResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockFileAssetRepository) MarkFailed(ctx context.Context, id uuid.UUID, token uuid.UUID, reason string) error {
	args := m.Called(ctx, id, token, reason)
	return args.Error(0)
}

func (m *MockFileAssetRepository) Requeue(ctx context.Context, id uuid.UUID, from domain.AssetStatus) (*domain.FileAsset, error) {
	args := m.Called(ctx, id, from)
	return args.Get(0).(*domain.FileAsset), args.Error(1)
}

func (m *MockFileAssetRepository) FindStaleClaims(ctx context.Context, claimTimeout time.Duration, limit int) ([]domain.FileAsset, error) {
	args := m.Called(ctx, claimTimeout, limit)
	return args.Get(0).([]domain.FileAsset), args.Error(1)
}

func (m *MockFileAssetRepository) FindStalePending(ctx context.Context, idleFor time.Duration, limit int) ([]domain.FileAsset, error) {
	args := m.Called(ctx, idleFor, limit)
	return args.Get(0).([]domain.FileAsset), args.Error(1)
}

func (m *MockFileAssetRepository) CountDuplicates(ctx context.Context, ownerID uuid.UUID) (int, error) {
	args := m.Called(ctx, ownerID)
	return args.Int(0), args.Error(1)
}

type MockFingerprintRepository struct {
	mock.Mock
}

func NewMockFingerprintRepository() *MockFingerprintRepository {
	return &MockFingerprintRepository{}
}

func (m *MockFingerprintRepository) ClaimCanonical(ctx context.Context, ownerID uuid.UUID, contentHash string, candidateID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, ownerID, contentHash, candidateID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

type MockRecommendationRepository struct {
	mock.Mock
}

func NewMockRecommendationRepository() *MockRecommendationRepository {
	return &MockRecommendationRepository{}
}

func (m *MockRecommendationRepository) ReplaceForAsset(ctx context.Context, assetID uuid.UUID, recs []domain.Recommendation) error {
	args := m.Called(ctx, assetID, recs)
	return args.Error(0)
}

func (m *MockRecommendationRepository) FindActiveByAssetID(ctx context.Context, assetID uuid.UUID) ([]domain.Recommendation, error) {
	args := m.Called(ctx, assetID)
	return args.Get(0).([]domain.Recommendation), args.Error(1)
}

type MockAnalyticsRepository struct {
	mock.Mock
}

func NewMockAnalyticsRepository() *MockAnalyticsRepository {
	return &MockAnalyticsRepository{}
}

func (m *MockAnalyticsRepository) Summary(ctx context.Context, scope domain.AnalyticsScope) (domain.AnalyticsSummary, error) {
	args := m.Called(ctx, scope)
	return args.Get(0).(domain.AnalyticsSummary), args.Error(1)
}

func (m *MockAnalyticsRepository) FileTypes(ctx context.Context, scope domain.AnalyticsScope) ([]domain.FileTypeBreakdown, error) {
	args := m.Called(ctx, scope)
	return args.Get(0).([]domain.FileTypeBreakdown), args.Error(1)
}

func (m *MockAnalyticsRepository) DailyTrend(ctx context.Context, scope domain.AnalyticsScope) ([]domain.TrendPoint, error) {
	args := m.Called(ctx, scope)
	return args.Get(0).([]domain.TrendPoint), args.Error(1)
}

type MockUnitOfWork struct {
	mock.Mock
	fileAssetRepo      *MockFileAssetRepository
	fingerprintRepo    *MockFingerprintRepository
	recommendationRepo *MockRecommendationRepository
}

func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		fileAssetRepo:      &MockFileAssetRepository{},
		fingerprintRepo:    &MockFingerprintRepository{},
		recommendationRepo: &MockRecommendationRepository{},
	}
}

func (m *MockUnitOfWork) FileAssetRepo() port.FileAssetRepository {
	return m.fileAssetRepo
}

func (m *MockUnitOfWork) FingerprintRepo() port.FingerprintRepository {
	return m.fingerprintRepo
}

func (m *MockUnitOfWork) RecommendationRepo() port.RecommendationRepository {
	return m.recommendationRepo
}

func (m *MockUnitOfWork) Execute(ctx context.Context, fn func(uow port.UnitOfWork) error) error {
	args := m.Called(ctx, fn)

	if err := fn(m); err != nil {
		return err
	}

	return args.Error(0)
}

func (m *MockUnitOfWork) GetFileAssetRepoMock() *MockFileAssetRepository {
	return m.fileAssetRepo
}

func (m *MockUnitOfWork) GetFingerprintRepoMock() *MockFingerprintRepository {
	return m.fingerprintRepo
}

func (m *MockUnitOfWork) GetRecommendationRepoMock() *MockRecommendationRepository {
	return m.recommendationRepo
}
