package ingestion

import (
	"context"
	"encoding/json"

	"ecolink/internal/core/domain"

	"github.com/google/uuid"
)

// HandleMessage decodes one task and processes it. Malformed tasks are
// dropped since a redelivery would never decode either.
func (s *ingestionService) HandleMessage(ctx context.Context, data []byte) error {
	var task domain.IngestionTask
	if err := json.Unmarshal(data, &task); err != nil {
		s.logger.Warn("dropping malformed ingestion task", "error", err)
		tasksTotal.WithLabelValues(outcomeSkipped).Inc()
		return nil
	}
	if task.AssetID == uuid.Nil {
		s.logger.Warn("dropping ingestion task without asset id")
		tasksTotal.WithLabelValues(outcomeSkipped).Inc()
		return nil
	}

	return s.Process(ctx, task.AssetID)
}
