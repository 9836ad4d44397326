package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"ecolink/internal/config"
	"ecolink/internal/core/domain"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Publisher enqueues ingestion tasks on the JetStream work queue
type Publisher struct {
	logger *slog.Logger
	conn   *nats.Conn
	js     jetstream.JetStream
	config config.NATSConfig
}

// NewNATSPublisher connects and makes sure the task stream exists
func NewNATSPublisher(ctx context.Context, cfg config.NATSConfig, logger *slog.Logger) (*Publisher, error) {
	conn, js, err := connect(cfg, cfg.ConsumerName+"-publisher", logger)
	if err != nil {
		return nil, err
	}
	if err := ensureStream(ctx, js, cfg); err != nil {
		conn.Close()
		return nil, err
	}

	return &Publisher{
		conn:   conn,
		js:     js,
		config: cfg,
		logger: logger,
	}, nil
}

// Publish sends task. The dedup key is used as message id so republishing
// the same attempt within the dedup window is a no-op.
func (p *Publisher) Publish(ctx context.Context, task domain.IngestionTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode task: %w", err)
	}

	var opts []jetstream.PublishOpt
	if task.DedupKey != "" {
		opts = append(opts, jetstream.WithMsgID(task.DedupKey))
	}

	ack, err := p.js.Publish(ctx, p.config.Subject, data, opts...)
	if err != nil {
		return fmt.Errorf("failed to publish task for asset %s: %w", task.AssetID, err)
	}
	if ack.Duplicate {
		p.logger.Debug("task already enqueued", "asset_id", task.AssetID, "dedup_key", task.DedupKey)
	}
	return nil
}

// Close drains pending publishes and closes the connection
func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
