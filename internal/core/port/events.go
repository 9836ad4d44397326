package port

import (
	"context"
	"ecolink/internal/core/domain"
)

// EventConsumer is an interface to define a task consumer (kafka, nats, ...)
type EventConsumer interface {
	Subscribe(ctx context.Context, handler MessageService) error
	Close() error
}

// MessageService is an interface to define message handling
type MessageService interface {
	HandleMessage(ctx context.Context, data []byte) error
}

// TaskPublisher enqueues ingestion tasks
type TaskPublisher interface {
	Publish(ctx context.Context, task domain.IngestionTask) error
}
