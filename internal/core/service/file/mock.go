package file

import (
	"context"
	"ecolink/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockFileService is a mock implementation of FileService
type MockFileService struct {
	mock.Mock
}

// NewMockFileService creates a new MockFileService
func NewMockFileService() *MockFileService {
	return &MockFileService{}
}

func (m *MockFileService) RequestUpload(ctx context.Context, ownerID uuid.UUID, filename string, contentType string) (*domain.TransferHandle, error) {
	args := m.Called(ctx, ownerID, filename, contentType)
	return args.Get(0).(*domain.TransferHandle), args.Error(1)
}

func (m *MockFileService) Commit(ctx context.Context, req domain.CommitRequest) (*domain.FileAsset, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(*domain.FileAsset), args.Error(1)
}

func (m *MockFileService) GetFile(ctx context.Context, ownerID uuid.UUID, assetID uuid.UUID) (*domain.FileAsset, []domain.Recommendation, error) {
	args := m.Called(ctx, ownerID, assetID)
	return args.Get(0).(*domain.FileAsset), args.Get(1).([]domain.Recommendation), args.Error(2)
}

func (m *MockFileService) RequestDownload(ctx context.Context, ownerID uuid.UUID, assetID uuid.UUID) (*domain.TransferHandle, error) {
	args := m.Called(ctx, ownerID, assetID)
	return args.Get(0).(*domain.TransferHandle), args.Error(1)
}

func (m *MockFileService) Retry(ctx context.Context, ownerID uuid.UUID, assetID uuid.UUID) (*domain.FileAsset, error) {
	args := m.Called(ctx, ownerID, assetID)
	return args.Get(0).(*domain.FileAsset), args.Error(1)
}

func (m *MockFileService) Reprocess(ctx context.Context, ownerID uuid.UUID, assetID uuid.UUID) (*domain.FileAsset, error) {
	args := m.Called(ctx, ownerID, assetID)
	return args.Get(0).(*domain.FileAsset), args.Error(1)
}
