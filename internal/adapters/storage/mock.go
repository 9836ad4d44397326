package storage

import (
	"context"
	"ecolink/internal/core/domain"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

func NewMockStorage() *MockStorage {
	return &MockStorage{}
}

func (m *MockStorage) IssueUploadHandle(ctx context.Context, ownerID uuid.UUID, filename string, contentType string) (*domain.TransferHandle, error) {
	args := m.Called(ctx, ownerID, filename, contentType)
	return args.Get(0).(*domain.TransferHandle), args.Error(1)
}

func (m *MockStorage) IssueDownloadHandle(ctx context.Context, key string) (*domain.TransferHandle, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(*domain.TransferHandle), args.Error(1)
}

// Fetch returns the configured reader. A func(...) io.ReadCloser return value
// is invoked per call so retries get a fresh stream.
func (m *MockStorage) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if fn, ok := args.Get(0).(func() io.ReadCloser); ok {
		return fn(), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}
