package eventbroker

import (
	"context"
	"ecolink/internal/core/domain"

	"github.com/stretchr/testify/mock"
)

type MockPublisher struct {
	mock.Mock
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, task domain.IngestionTask) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}
