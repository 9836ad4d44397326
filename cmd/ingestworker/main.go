package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"ecolink/internal/adapters/eventbroker/nats"
	"ecolink/internal/adapters/repository/postgres"
	"ecolink/internal/adapters/storage/minio"
	"ecolink/internal/config"
	"ecolink/internal/core/port"
	"ecolink/internal/core/service/ingestion"
	"ecolink/internal/core/service/sweeper"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup always runs
func run() int {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))

	// Initialize database
	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to init database", "error", err)
		return 1
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()
	logger.Info("db connection established")

	minioAdapter, err := minio.NewAdapter(ctx, cfg.Minio, logger)
	if err != nil {
		logger.Error("failed to init minio", "error", err)
		return 1
	}
	logger.Info("minio adapter initialized")

	publisher, err := nats.NewNATSPublisher(ctx, cfg.NATS, logger)
	if err != nil {
		logger.Error("failed to create NATS publisher", "error", err)
		return 1
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close NATS publisher", "error", err)
		}
	}()

	// Initialize services
	unitOfWork := postgres.NewUnitOfWork(db)
	ingestionService := ingestion.NewIngestionService(
		unitOfWork,
		minioAdapter,
		cfg.Ingest,
		cfg.Impact,
		cfg.Recommendation,
		cfg.Upload.MaxUploadSize,
		logger,
	)
	sweeperService := sweeper.NewSweeperService(unitOfWork, publisher, cfg.Ingest, logger)

	// Initialize NATS consumer
	natsConsumer, err := nats.NewNATSConsumer(cfg.NATS, cfg.Ingest.Workers, logger)
	if err != nil {
		logger.Error("failed to create NATS consumer", "error", err)
		return 1
	}
	logger.Info("NATS consumer initialized")

	if err := natsConsumer.Subscribe(ctx, ingestionService); err != nil {
		logger.Error("failed to subscribe to NATS", "error", err)
		return 1
	}
	logger.Info("NATS subscription active", "workers", cfg.Ingest.Workers)

	metricsServer := &http.Server{
		Addr:              cfg.Server.MetricsAddr,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("starting metrics server", "addr", cfg.Server.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start metrics server", "error", err)
		}
	}()

	// init sweep task
	wg.Add(1)
	go func() {
		defer wg.Done()
		initSweepTask(ctx, sweeperService, cfg.Ingest.SweepEvery, logger)
	}()

	// Wait for termination signal or a lost subscription
	exitCode := 0
	select {
	case <-ctx.Done():
	case err := <-natsConsumer.Err():
		logger.Error("NATS consumer stopped, shutting down", "error", err)
		exitCode = 1
		stop()
	}
	logger.Info("gracefully shutting down ingest worker")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := natsConsumer.Close(); err != nil {
		logger.Error("failed to close NATS consumer during shutdown", "error", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown metrics server", "error", err)
	}

	wg.Wait()
	logger.Info("ingest worker shutdown complete")
	return exitCode
}

func initSweepTask(ctx context.Context, service port.SweepService, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	logger.Info("sweep task initialized", "interval", every)

	for {
		select {
		case <-ticker.C:
			if _, err := service.RequeueStale(ctx); err != nil {
				logger.Error("failed to requeue stale assets", "error", err)
			}
		case <-ctx.Done():
			logger.Info("sweep task stopped")
			return
		}
	}
}
