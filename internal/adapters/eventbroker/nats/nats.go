package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"ecolink/internal/config"
	"ecolink/internal/core/port"

	"github.com/cenkalti/backoff/v4"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// dedupWindow bounds how long the stream remembers a task's message id
const dedupWindow = 2 * time.Minute

const (
	receiveRetryInitial = 100 * time.Millisecond
	receiveRetryMax     = 5 * time.Second
)

func connect(cfg config.NATSConfig, name string, logger *slog.Logger) (*nats.Conn, jetstream.JetStream, error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	}
	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to connect to JetStream: %w", err)
	}
	return conn, js, nil
}

// ensureStream creates the task stream as a work queue: a task is removed
// once acked, and a message id seen within dedupWindow is dropped.
func ensureStream(ctx context.Context, js jetstream.JetStream, cfg config.NATSConfig) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       cfg.StreamName,
		Subjects:   []string{cfg.Subject},
		Retention:  jetstream.WorkQueuePolicy,
		Storage:    jetstream.FileStorage,
		Duplicates: dedupWindow,
	})
	if err != nil {
		return fmt.Errorf("failed to ensure stream %s: %w", cfg.StreamName, err)
	}
	return nil
}

// Consumer is a struct to interact with nats
type Consumer struct {
	logger  *slog.Logger
	conn    *nats.Conn
	js      jetstream.JetStream
	config  config.NATSConfig
	workers int
	iter    jetstream.MessagesContext
	wg      sync.WaitGroup
	errs    chan error
	stop    chan struct{}
	closing atomic.Bool
}

// NewNATSConsumer creates a new consumer running workers handlers in parallel
func NewNATSConsumer(cfg config.NATSConfig, workers int, logger *slog.Logger) (*Consumer, error) {
	conn, js, err := connect(cfg, cfg.ConsumerName, logger)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = 1
	}

	return &Consumer{
		conn:    conn,
		js:      js,
		config:  cfg,
		workers: workers,
		logger:  logger,
		errs:    make(chan error, 1),
		stop:    make(chan struct{}),
	}, nil
}

// Err reports a subscription that stopped on its own. Nothing is sent
// after a context cancellation or Close.
func (n *Consumer) Err() <-chan error {
	return n.errs
}

// Subscribe subscribes to stream and handles messages. A handler error naks
// the message with a delay; the broker stops redelivering after MaxDeliver.
func (n *Consumer) Subscribe(ctx context.Context, handler port.MessageService) error {
	if err := ensureStream(ctx, n.js, n.config); err != nil {
		return err
	}

	consumerCfg := jetstream.ConsumerConfig{
		Durable:       n.config.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		FilterSubject: n.config.Subject,
		AckWait:       n.config.AckWait,
		MaxDeliver:    n.config.MaxDeliver,
		MaxAckPending: n.workers * 2,
	}

	cons, err := n.js.CreateOrUpdateConsumer(ctx, n.config.StreamName, consumerCfg)
	if err != nil {
		return err
	}

	iter, err := cons.Messages(jetstream.PullMaxMessages(n.workers))
	if err != nil {
		return err
	}
	n.iter = iter
	context.AfterFunc(ctx, iter.Stop)

	msgs := make(chan jetstream.Msg)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer close(msgs)
		n.receive(ctx, iter, msgs)
	}()

	for i := 0; i < n.workers; i++ {
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			for msg := range msgs {
				n.handle(ctx, handler, msg)
			}
		}()
	}
	return nil
}

// receive feeds msgs until the subscription ends. Transient iterator errors
// such as missed heartbeats are retried with backoff.
func (n *Consumer) receive(ctx context.Context, iter jetstream.MessagesContext, msgs chan<- jetstream.Msg) {
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = receiveRetryInitial
	retry.MaxInterval = receiveRetryMax
	retry.MaxElapsedTime = 0

	n.logger.Info("NATS subscription started", "workers", n.workers)
	for {
		msg, err := iter.Next()
		if err == nil {
			retry.Reset()
			msgs <- msg
			continue
		}

		if ctx.Err() != nil || n.closing.Load() {
			n.logger.Info("NATS subscription stopped")
			return
		}
		if subscriptionLost(err) {
			n.logger.Error("NATS subscription lost", "error", err)
			n.errs <- fmt.Errorf("nats subscription lost: %w", err)
			return
		}

		delay := retry.NextBackOff()
		n.logger.Warn("failed to receive message, retrying", "error", err, "retry_in", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
		case <-n.stop:
		}
	}
}

// subscriptionLost tells errors the iterator cannot recover from
func subscriptionLost(err error) bool {
	return errors.Is(err, jetstream.ErrMsgIteratorClosed) ||
		errors.Is(err, jetstream.ErrConsumerDeleted) ||
		errors.Is(err, jetstream.ErrConsumerNotFound) ||
		errors.Is(err, nats.ErrConnectionClosed)
}

func (n *Consumer) handle(ctx context.Context, handler port.MessageService, msg jetstream.Msg) {
	stop := n.keepAlive(msg)
	handleErr := handler.HandleMessage(ctx, msg.Data())
	stop()

	if handleErr != nil {
		n.logger.Warn("failed to handle message", "error", handleErr)
		if errNak := msg.NakWithDelay(n.config.NakDelay); errNak != nil {
			n.logger.Error("failed to nak message", "error", errNak)
		}
		return
	}
	if ackErr := msg.Ack(); ackErr != nil {
		n.logger.Error("failed to ack message", "error", ackErr)
	}
}

// keepAlive resets the ack timer while a long task is being handled
func (n *Consumer) keepAlive(msg jetstream.Msg) func() {
	if n.config.AckWait <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	ticker := time.NewTicker(n.config.AckWait / 2)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := msg.InProgress(); err != nil {
					n.logger.Debug("failed to extend ack deadline", "error", err)
				}
			}
		}
	}()
	return func() { close(done) }
}

// Close graceful shutdown
func (n *Consumer) Close() error {
	if n.closing.Swap(true) {
		return nil
	}
	close(n.stop)
	if n.iter != nil {
		n.iter.Stop()
	}

	n.wg.Wait()

	if n.conn != nil {
		n.conn.Close()
	}
	return nil
}
