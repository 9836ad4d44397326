package file_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ecolink/internal/adapters/eventbroker"
	"ecolink/internal/adapters/repository"
	"ecolink/internal/adapters/storage"
	"ecolink/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileService_GetFile_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUow := repository.NewMockUnitOfWork()
	service := newFileService(mockUow, storage.NewMockStorage(), eventbroker.NewMockPublisher())

	owner := uuid.New()
	asset := &domain.FileAsset{ID: uuid.New(), OwnerID: owner, Status: domain.AssetStatusComplete}
	recs := []domain.Recommendation{{ID: uuid.New(), AssetID: asset.ID, Kind: domain.RecommendationLargeFileReview}}

	mockUow.GetFileAssetRepoMock().On("FindByID", ctx, asset.ID).Return(asset, nil)
	mockUow.GetRecommendationRepoMock().On("FindActiveByAssetID", ctx, asset.ID).Return(recs, nil)

	// Act
	got, gotRecs, err := service.GetFile(ctx, owner, asset.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, asset, got)
	assert.Equal(t, recs, gotRecs)
}

func TestFileService_GetFile_NotFound(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUow := repository.NewMockUnitOfWork()
	service := newFileService(mockUow, storage.NewMockStorage(), eventbroker.NewMockPublisher())
	id := uuid.New()

	mockUow.GetFileAssetRepoMock().On("FindByID", ctx, id).Return((*domain.FileAsset)(nil), domain.ErrAssetNotFound)

	// Act
	_, _, err := service.GetFile(ctx, uuid.New(), id)

	// Assert
	assert.ErrorIs(t, err, domain.ErrAssetNotFound)
}

func TestFileService_GetFile_OtherOwnerIsHidden(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUow := repository.NewMockUnitOfWork()
	service := newFileService(mockUow, storage.NewMockStorage(), eventbroker.NewMockPublisher())

	asset := &domain.FileAsset{ID: uuid.New(), OwnerID: uuid.New()}
	mockUow.GetFileAssetRepoMock().On("FindByID", ctx, asset.ID).Return(asset, nil)

	// Act
	_, _, err := service.GetFile(ctx, uuid.New(), asset.ID)

	// Assert
	assert.ErrorIs(t, err, domain.ErrAssetNotFound)
	mockUow.GetRecommendationRepoMock().AssertNotCalled(t, "FindActiveByAssetID")
}

func TestFileService_RequestDownload(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUow := repository.NewMockUnitOfWork()
	mockStorage := storage.NewMockStorage()
	service := newFileService(mockUow, mockStorage, eventbroker.NewMockPublisher())

	owner := uuid.New()
	asset := &domain.FileAsset{ID: uuid.New(), OwnerID: owner, StorageKey: "uploads/x/y"}
	handle := &domain.TransferHandle{URL: "https://minio.example.com/y", Method: "GET", TTL: time.Hour}

	mockUow.GetFileAssetRepoMock().On("FindByID", ctx, asset.ID).Return(asset, nil)
	mockStorage.On("IssueDownloadHandle", ctx, asset.StorageKey).Return(handle, nil)

	// Act
	got, err := service.RequestDownload(ctx, owner, asset.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, handle, got)
}

func TestFileService_RequestUpload(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ctx := context.Background()
		mockStorage := storage.NewMockStorage()
		service := newFileService(repository.NewMockUnitOfWork(), mockStorage, eventbroker.NewMockPublisher())
		owner := uuid.New()
		handle := &domain.TransferHandle{URL: "https://minio.example.com/put", Method: "PUT", Key: domain.OwnerKeyPrefix(owner) + "k_a.txt"}

		mockStorage.On("IssueUploadHandle", ctx, owner, "a.txt", "text/plain").Return(handle, nil)

		got, err := service.RequestUpload(ctx, owner, "a.txt", "text/plain")

		require.NoError(t, err)
		assert.Equal(t, handle, got)
	})

	t.Run("storage error", func(t *testing.T) {
		ctx := context.Background()
		mockStorage := storage.NewMockStorage()
		service := newFileService(repository.NewMockUnitOfWork(), mockStorage, eventbroker.NewMockPublisher())
		owner := uuid.New()
		storeErr := errors.New("presign failed")

		mockStorage.On("IssueUploadHandle", ctx, owner, "a.txt", "").Return((*domain.TransferHandle)(nil), storeErr)

		_, err := service.RequestUpload(ctx, owner, "a.txt", "")

		assert.ErrorIs(t, err, storeErr)
	})
}
