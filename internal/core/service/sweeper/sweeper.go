package sweeper

import (
	"log/slog"

	"ecolink/internal/config"
	"ecolink/internal/core/port"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requeuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ecolink_sweeper_requeued_total",
	Help: "Ingestion tasks republished by the sweeper",
}, []string{"reason"})

type sweeperService struct {
	uow       port.UnitOfWork
	publisher port.TaskPublisher
	cfg       config.IngestConfig
	logger    *slog.Logger
}

// NewSweeperService creates a new sweeper service
func NewSweeperService(uow port.UnitOfWork, publisher port.TaskPublisher, cfg config.IngestConfig, logger *slog.Logger) port.SweepService {
	return &sweeperService{
		uow:       uow,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}
}
