package sweeper

import (
	"context"
	"fmt"

	"ecolink/internal/core/domain"
)

// RequeueStale republishes tasks for assets whose worker vanished (expired
// claim) and for pending assets whose task never got processed. Publishing
// is safe to repeat: the claim decides who works on an asset.
func (s *sweeperService) RequeueStale(ctx context.Context) (int, error) {
	claims, err := s.uow.FileAssetRepo().FindStaleClaims(ctx, s.cfg.ClaimTimeout, s.cfg.SweepBatch)
	if err != nil {
		return 0, fmt.Errorf("could not find stale claims: %w", err)
	}

	pending, err := s.uow.FileAssetRepo().FindStalePending(ctx, s.cfg.PendingRequeueAfter, s.cfg.SweepBatch)
	if err != nil {
		return 0, fmt.Errorf("could not find stale pending assets: %w", err)
	}

	requeued := s.publishAll(ctx, claims, "expired_claim")
	requeued += s.publishAll(ctx, pending, "stale_pending")

	if requeued > 0 {
		s.logger.Info("sweep requeued assets", "expired_claims", len(claims), "stale_pending", len(pending), "published", requeued)
	}
	return requeued, nil
}

func (s *sweeperService) publishAll(ctx context.Context, assets []domain.FileAsset, reason string) int {
	published := 0
	for _, asset := range assets {
		if err := s.publisher.Publish(ctx, domain.NewIngestionTask(asset.ID, asset.Attempts)); err != nil {
			s.logger.Error("failed to republish ingestion task", "asset_id", asset.ID, "reason", reason, "error", err)
			continue
		}
		requeuedTotal.WithLabelValues(reason).Inc()
		published++
	}
	return published
}
