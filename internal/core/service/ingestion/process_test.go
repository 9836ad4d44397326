package ingestion_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"ecolink/internal/adapters/repository"
	"ecolink/internal/adapters/storage"
	"ecolink/internal/config"
	"ecolink/internal/core/domain"
	"ecolink/internal/core/port"
	"ecolink/internal/core/service/impact"
	"ecolink/internal/core/service/ingestion"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

var testImpactCfg = config.ImpactConfig{
	KWhPerGB:           0.006,
	CO2GPerKWh:         400,
	SizeReferenceBytes: 1 << 30,
	CO2ReferenceG:      1000,
	DuplicateFactor:    0.5,
}

func newService(uow *repository.MockUnitOfWork, st *storage.MockStorage) port.IngestionService {
	return ingestion.NewIngestionService(
		uow,
		st,
		config.IngestConfig{
			ChunkSize:    1024,
			SniffBytes:   3072,
			ClaimTimeout: claimTimeout,
			FetchRetries: 2,
			FetchBackoff: time.Millisecond,
		},
		testImpactCfg,
		config.RecommendationConfig{
			LargeFileBytes:   100 << 20,
			CompressMinBytes: 10 << 20,
			ShareLinkBytes:   50 << 20,
			StaleAfter:       90 * 24 * time.Hour,
		},
		0,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		ingestion.WithClock(func() time.Time { return fixedNow }),
	)
}

func claimedAsset() *domain.FileAsset {
	return &domain.FileAsset{
		ID:                uuid.New(),
		OwnerID:           uuid.New(),
		StorageKey:        "uploads/owner/abc_report.txt",
		Filename:          "report.txt",
		DeclaredSizeBytes: 11,
		DeclaredMimeType:  "text/plain",
		Status:            domain.AssetStatusProcessing,
		Attempts:          1,
		CreatedAt:         fixedNow.Add(-time.Minute),
	}
}

func body(data []byte) func() io.ReadCloser {
	return func() io.ReadCloser {
		return io.NopCloser(bytes.NewReader(data))
	}
}

func hashOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

const claimTimeout = 10 * time.Minute

func TestProcess_CanonicalSuccess(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUow := repository.NewMockUnitOfWork()
	mockStorage := storage.NewMockStorage()
	service := newService(mockUow, mockStorage)

	asset := claimedAsset()
	data := []byte("hello world")
	hash := hashOf(data)

	fileRepo := mockUow.GetFileAssetRepoMock()
	fileRepo.On("Claim", ctx, asset.ID, mock.Anything, claimTimeout).Return(asset, nil)
	mockStorage.On("Fetch", ctx, asset.StorageKey).Return(body(data), nil)
	mockUow.On("Execute", ctx, mock.Anything).Return(nil)
	mockUow.GetFingerprintRepoMock().On("ClaimCanonical", ctx, asset.OwnerID, hash, asset.ID).Return(asset.ID, nil)
	fileRepo.On("CountDuplicates", ctx, asset.OwnerID).Return(0, nil)

	var saved domain.IngestionResult
	fileRepo.On("SaveResult", ctx, mock.AnythingOfType("domain.IngestionResult")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.IngestionResult) }).
		Return(nil)
	mockUow.GetRecommendationRepoMock().On("ReplaceForAsset", ctx, asset.ID, mock.Anything).Return(nil)

	// Act
	err := service.Process(ctx, asset.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, hash, saved.Fingerprint.Hash)
	assert.Equal(t, int64(len(data)), saved.Fingerprint.SizeBytes)
	assert.Equal(t, "text/plain", saved.Fingerprint.MimeType)
	assert.Nil(t, saved.DuplicateOf)
	assert.Equal(t, fixedNow, saved.ProcessedAt)
	assert.Equal(t, impact.Estimate(int64(len(data)), false, domain.RegionConstants{KWhPerGB: 0.006, CO2GPerKWh: 400}, impact.DefaultScorePolicy()), saved.Impact)
	assert.Empty(t, saved.Recommendations)
	fileRepo.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockUow.AssertExpectations(t)
	fileRepo.AssertExpectations(t)
}

func TestProcess_DuplicateCopiesCanonicalMetrics(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUow := repository.NewMockUnitOfWork()
	mockStorage := storage.NewMockStorage()
	service := newService(mockUow, mockStorage)

	asset := claimedAsset()
	data := []byte("hello world")
	hash := hashOf(data)

	kwh, co2, score := 0.25, 100.0, 42
	canonical := &domain.FileAsset{
		ID:           uuid.New(),
		OwnerID:      asset.OwnerID,
		Filename:     "original.txt",
		ContentHash:  &hash,
		KWhEstimate:  &kwh,
		CO2gEstimate: &co2,
		ImpactScore:  &score,
		Status:       domain.AssetStatusComplete,
	}

	fileRepo := mockUow.GetFileAssetRepoMock()
	fileRepo.On("Claim", ctx, asset.ID, mock.Anything, claimTimeout).Return(asset, nil)
	mockStorage.On("Fetch", ctx, asset.StorageKey).Return(body(data), nil)
	mockUow.On("Execute", ctx, mock.Anything).Return(nil)
	mockUow.GetFingerprintRepoMock().On("ClaimCanonical", ctx, asset.OwnerID, hash, asset.ID).Return(canonical.ID, nil)
	fileRepo.On("FindByID", ctx, canonical.ID).Return(canonical, nil)
	fileRepo.On("CountDuplicates", ctx, asset.OwnerID).Return(1, nil)

	var saved domain.IngestionResult
	fileRepo.On("SaveResult", ctx, mock.AnythingOfType("domain.IngestionResult")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.IngestionResult) }).
		Return(nil)
	mockUow.GetRecommendationRepoMock().On("ReplaceForAsset", ctx, asset.ID, mock.Anything).Return(nil)

	// Act
	err := service.Process(ctx, asset.ID)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, saved.DuplicateOf)
	assert.Equal(t, canonical.ID, *saved.DuplicateOf)
	assert.Equal(t, kwh, saved.Impact.KWh)
	assert.Equal(t, co2, saved.Impact.CO2g)
	assert.Less(t, saved.Impact.Score, impact.Score(int64(len(data)), co2, false, impact.DefaultScorePolicy()))
	require.Len(t, saved.Recommendations, 1)
	assert.Equal(t, domain.RecommendationDuplicateRemovable, saved.Recommendations[0].Kind)
	assert.Contains(t, saved.Recommendations[0].Message, "original.txt")
	assert.Contains(t, saved.Recommendations[0].Message, "2 duplicate files")
}

func TestProcess_NotClaimableIsAcked(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUow := repository.NewMockUnitOfWork()
	mockStorage := storage.NewMockStorage()
	service := newService(mockUow, mockStorage)
	id := uuid.New()

	mockUow.GetFileAssetRepoMock().On("Claim", ctx, id, mock.Anything, claimTimeout).
		Return((*domain.FileAsset)(nil), domain.ErrNotClaimable)

	// Act
	err := service.Process(ctx, id)

	// Assert
	assert.NoError(t, err)
	mockStorage.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestProcess_UnknownAssetIsAcked(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUow := repository.NewMockUnitOfWork()
	mockStorage := storage.NewMockStorage()
	service := newService(mockUow, mockStorage)
	id := uuid.New()

	mockUow.GetFileAssetRepoMock().On("Claim", ctx, id, mock.Anything, claimTimeout).
		Return((*domain.FileAsset)(nil), domain.ErrAssetNotFound)

	// Act
	err := service.Process(ctx, id)

	// Assert
	assert.NoError(t, err)
}

func TestProcess_ClaimErrorIsReturned(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUow := repository.NewMockUnitOfWork()
	mockStorage := storage.NewMockStorage()
	service := newService(mockUow, mockStorage)
	id := uuid.New()
	dbErr := errors.New("connection refused")

	mockUow.GetFileAssetRepoMock().On("Claim", ctx, id, mock.Anything, claimTimeout).
		Return((*domain.FileAsset)(nil), dbErr)

	// Act
	err := service.Process(ctx, id)

	// Assert
	assert.ErrorIs(t, err, dbErr)
}

func TestProcess_TransientFetchExhaustedMarksFailed(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUow := repository.NewMockUnitOfWork()
	mockStorage := storage.NewMockStorage()
	service := newService(mockUow, mockStorage)
	asset := claimedAsset()

	fileRepo := mockUow.GetFileAssetRepoMock()
	fileRepo.On("Claim", ctx, asset.ID, mock.Anything, claimTimeout).Return(asset, nil)
	mockStorage.On("Fetch", ctx, asset.StorageKey).
		Return(nil, fmt.Errorf("%w: dial tcp: i/o timeout", domain.ErrStorageUnavailable)).Times(3)
	fileRepo.On("MarkFailed", ctx, asset.ID, mock.Anything, "storage unavailable after retries").Return(nil)

	// Act
	err := service.Process(ctx, asset.ID)

	// Assert
	require.NoError(t, err)
	mockStorage.AssertExpectations(t)
	fileRepo.AssertExpectations(t)
	fileRepo.AssertNotCalled(t, "SaveResult", mock.Anything, mock.Anything)
	mockUow.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestProcess_TransientFetchRecovers(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUow := repository.NewMockUnitOfWork()
	mockStorage := storage.NewMockStorage()
	service := newService(mockUow, mockStorage)

	asset := claimedAsset()
	data := []byte("retry me")
	hash := hashOf(data)

	fileRepo := mockUow.GetFileAssetRepoMock()
	fileRepo.On("Claim", ctx, asset.ID, mock.Anything, claimTimeout).Return(asset, nil)
	mockStorage.On("Fetch", ctx, asset.StorageKey).Return(nil, domain.ErrStorageUnavailable).Once()
	mockStorage.On("Fetch", ctx, asset.StorageKey).Return(body(data), nil).Once()
	mockUow.On("Execute", ctx, mock.Anything).Return(nil)
	mockUow.GetFingerprintRepoMock().On("ClaimCanonical", ctx, asset.OwnerID, hash, asset.ID).Return(asset.ID, nil)
	fileRepo.On("CountDuplicates", ctx, asset.OwnerID).Return(0, nil)
	fileRepo.On("SaveResult", ctx, mock.AnythingOfType("domain.IngestionResult")).Return(nil)
	mockUow.GetRecommendationRepoMock().On("ReplaceForAsset", ctx, asset.ID, mock.Anything).Return(nil)

	// Act
	err := service.Process(ctx, asset.ID)

	// Assert
	require.NoError(t, err)
	mockStorage.AssertExpectations(t)
	fileRepo.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_ObjectNotFoundIsNotRetried(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUow := repository.NewMockUnitOfWork()
	mockStorage := storage.NewMockStorage()
	service := newService(mockUow, mockStorage)
	asset := claimedAsset()

	fileRepo := mockUow.GetFileAssetRepoMock()
	fileRepo.On("Claim", ctx, asset.ID, mock.Anything, claimTimeout).Return(asset, nil)
	mockStorage.On("Fetch", ctx, asset.StorageKey).Return(nil, domain.ErrObjectNotFound).Once()
	fileRepo.On("MarkFailed", ctx, asset.ID, mock.Anything, "object not found in storage").Return(nil)

	// Act
	err := service.Process(ctx, asset.ID)

	// Assert
	require.NoError(t, err)
	mockStorage.AssertNumberOfCalls(t, "Fetch", 1)
	fileRepo.AssertExpectations(t)
}

func TestProcess_ContentChangedOnReprocess(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUow := repository.NewMockUnitOfWork()
	mockStorage := storage.NewMockStorage()
	service := newService(mockUow, mockStorage)

	asset := claimedAsset()
	recorded := hashOf([]byte("first version"))
	asset.ContentHash = &recorded

	fileRepo := mockUow.GetFileAssetRepoMock()
	fileRepo.On("Claim", ctx, asset.ID, mock.Anything, claimTimeout).Return(asset, nil)
	mockStorage.On("Fetch", ctx, asset.StorageKey).Return(body([]byte("second version")), nil)
	fileRepo.On("MarkFailed", ctx, asset.ID, mock.Anything, "content changed since first fingerprint").Return(nil)

	// Act
	err := service.Process(ctx, asset.ID)

	// Assert
	require.NoError(t, err)
	fileRepo.AssertExpectations(t)
	mockUow.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestProcess_ClaimLostStopsQuietly(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUow := repository.NewMockUnitOfWork()
	mockStorage := storage.NewMockStorage()
	service := newService(mockUow, mockStorage)

	asset := claimedAsset()
	data := []byte("hello world")
	hash := hashOf(data)

	fileRepo := mockUow.GetFileAssetRepoMock()
	fileRepo.On("Claim", ctx, asset.ID, mock.Anything, claimTimeout).Return(asset, nil)
	mockStorage.On("Fetch", ctx, asset.StorageKey).Return(body(data), nil)
	mockUow.On("Execute", ctx, mock.Anything).Return(nil)
	mockUow.GetFingerprintRepoMock().On("ClaimCanonical", ctx, asset.OwnerID, hash, asset.ID).Return(asset.ID, nil)
	fileRepo.On("CountDuplicates", ctx, asset.OwnerID).Return(0, nil)
	fileRepo.On("SaveResult", ctx, mock.AnythingOfType("domain.IngestionResult")).Return(domain.ErrClaimLost)

	// Act
	err := service.Process(ctx, asset.ID)

	// Assert
	require.NoError(t, err)
	fileRepo.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockUow.GetRecommendationRepoMock().AssertNotCalled(t, "ReplaceForAsset", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_FailureNotRecordedIsReturned(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUow := repository.NewMockUnitOfWork()
	mockStorage := storage.NewMockStorage()
	service := newService(mockUow, mockStorage)
	asset := claimedAsset()
	dbErr := errors.New("database is down")

	fileRepo := mockUow.GetFileAssetRepoMock()
	fileRepo.On("Claim", ctx, asset.ID, mock.Anything, claimTimeout).Return(asset, nil)
	mockStorage.On("Fetch", ctx, asset.StorageKey).Return(nil, domain.ErrObjectNotFound)
	fileRepo.On("MarkFailed", ctx, asset.ID, mock.Anything, mock.Anything).Return(dbErr)

	// Act
	err := service.Process(ctx, asset.ID)

	// Assert
	assert.ErrorIs(t, err, dbErr)
}

func TestProcess_InvariantViolationMarksFailed(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUow := repository.NewMockUnitOfWork()
	mockStorage := storage.NewMockStorage()
	service := newService(mockUow, mockStorage)

	asset := claimedAsset()
	data := []byte("hello world")
	hash := hashOf(data)
	chained := uuid.New()
	canonical := &domain.FileAsset{ID: uuid.New(), OwnerID: asset.OwnerID, ContentHash: &hash, DuplicateOf: &chained}

	fileRepo := mockUow.GetFileAssetRepoMock()
	fileRepo.On("Claim", ctx, asset.ID, mock.Anything, claimTimeout).Return(asset, nil)
	mockStorage.On("Fetch", ctx, asset.StorageKey).Return(body(data), nil)
	mockUow.On("Execute", ctx, mock.Anything).Return(nil)
	mockUow.GetFingerprintRepoMock().On("ClaimCanonical", ctx, asset.OwnerID, hash, asset.ID).Return(canonical.ID, nil)
	fileRepo.On("FindByID", ctx, canonical.ID).Return(canonical, nil)
	fileRepo.On("MarkFailed", ctx, asset.ID, mock.Anything, "internal consistency error").Return(nil)

	// Act
	err := service.Process(ctx, asset.ID)

	// Assert
	require.NoError(t, err)
	fileRepo.AssertExpectations(t)
	fileRepo.AssertNotCalled(t, "SaveResult", mock.Anything, mock.Anything)
}

func TestHandleMessage(t *testing.T) {
	t.Run("malformed payload is dropped", func(t *testing.T) {
		mockUow := repository.NewMockUnitOfWork()
		service := newService(mockUow, storage.NewMockStorage())

		err := service.HandleMessage(context.Background(), []byte("{not json"))

		assert.NoError(t, err)
		mockUow.GetFileAssetRepoMock().AssertNotCalled(t, "Claim", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing asset id is dropped", func(t *testing.T) {
		mockUow := repository.NewMockUnitOfWork()
		service := newService(mockUow, storage.NewMockStorage())

		err := service.HandleMessage(context.Background(), []byte(`{}`))

		assert.NoError(t, err)
	})

	t.Run("valid task is processed", func(t *testing.T) {
		ctx := context.Background()
		mockUow := repository.NewMockUnitOfWork()
		service := newService(mockUow, storage.NewMockStorage())
		id := uuid.New()

		mockUow.GetFileAssetRepoMock().On("Claim", ctx, id, mock.Anything, claimTimeout).
			Return((*domain.FileAsset)(nil), domain.ErrNotClaimable)

		err := service.HandleMessage(ctx, []byte(`{"asset_id":"`+id.String()+`"}`))

		assert.NoError(t, err)
		mockUow.GetFileAssetRepoMock().AssertExpectations(t)
	})
}
