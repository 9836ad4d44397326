package ingestion

import (
	"log/slog"
	"time"

	"ecolink/internal/config"
	"ecolink/internal/core/domain"
	"ecolink/internal/core/port"
	"ecolink/internal/core/service/dedup"
	"ecolink/internal/core/service/fingerprint"
	"ecolink/internal/core/service/impact"
	"ecolink/internal/core/service/recommendation"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecolink_ingest_tasks_total",
		Help: "Ingestion tasks by outcome",
	}, []string{"outcome"})

	taskDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ecolink_ingest_task_duration_seconds",
		Help:    "Duration of a claimed ingestion attempt",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})

	dedupTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecolink_dedup_resolutions_total",
		Help: "Duplicate resolver outcomes",
	}, []string{"result"})
)

const (
	outcomeComplete  = "complete"
	outcomeFailed    = "failed"
	outcomeSkipped   = "skipped"
	outcomeClaimLost = "claim_lost"
	outcomeRequeued  = "requeued"
)

type ingestionService struct {
	uow           port.UnitOfWork
	storage       port.FileStorage
	fingerprinter *fingerprint.Fingerprinter
	resolver      *dedup.Resolver
	engine        *recommendation.Engine
	region        domain.RegionConstants
	policy        impact.ScorePolicy
	cfg           config.IngestConfig
	logger        *slog.Logger
	now           func() time.Time
}

// Option customizes the ingestion service
type Option func(*ingestionService)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *ingestionService) {
		s.now = now
	}
}

// NewIngestionService creates the worker side of the pipeline
func NewIngestionService(
	uow port.UnitOfWork,
	storage port.FileStorage,
	ingestCfg config.IngestConfig,
	impactCfg config.ImpactConfig,
	recCfg config.RecommendationConfig,
	maxContentBytes int64,
	logger *slog.Logger,
	opts ...Option,
) port.IngestionService {
	policy := impact.DefaultScorePolicy()
	policy.SizeReferenceBytes = impactCfg.SizeReferenceBytes
	policy.CO2ReferenceG = impactCfg.CO2ReferenceG
	policy.DuplicateFactor = impactCfg.DuplicateFactor

	s := &ingestionService{
		uow:           uow,
		storage:       storage,
		fingerprinter: fingerprint.New(ingestCfg.ChunkSize, ingestCfg.SniffBytes, maxContentBytes),
		resolver:      dedup.NewResolver(),
		engine: recommendation.NewEngine(recommendation.Policy{
			LargeFileBytes:   recCfg.LargeFileBytes,
			CompressMinBytes: recCfg.CompressMinBytes,
			ShareLinkBytes:   recCfg.ShareLinkBytes,
			StaleAfter:       recCfg.StaleAfter,
		}),
		region: domain.RegionConstants{
			KWhPerGB:   impactCfg.KWhPerGB,
			CO2GPerKWh: impactCfg.CO2GPerKWh,
		},
		policy: policy,
		cfg:    ingestCfg,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
