package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecolink/internal/core/domain"
	"ecolink/internal/core/port"
	"ecolink/internal/core/service/impact"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// Process runs one attempt for assetID. A nil return means the task can be
// acked: the asset reached a terminal status, was not claimable, or another
// worker owns it. An error means the outcome could not be recorded.
func (s *ingestionService) Process(ctx context.Context, assetID uuid.UUID) error {
	start := s.now()
	token := uuid.New()

	asset, err := s.uow.FileAssetRepo().Claim(ctx, assetID, token, s.cfg.ClaimTimeout)
	if errors.Is(err, domain.ErrNotClaimable) || errors.Is(err, domain.ErrAssetNotFound) {
		s.logger.Debug("skipping task", "asset_id", assetID, "reason", err)
		tasksTotal.WithLabelValues(outcomeSkipped).Inc()
		return nil
	}
	if err != nil {
		tasksTotal.WithLabelValues(outcomeRequeued).Inc()
		return fmt.Errorf("could not claim asset %s: %w", assetID, err)
	}

	logger := s.logger.With("asset_id", asset.ID, "owner_id", asset.OwnerID, "attempt", asset.Attempts)
	logger.Info("processing asset", "storage_key", asset.StorageKey)

	defer func() {
		taskDurationSeconds.Observe(s.now().Sub(start).Seconds())
	}()

	result, err := s.ingest(ctx, *asset, token)
	switch {
	case err == nil:
		tasksTotal.WithLabelValues(outcomeComplete).Inc()
		logger.Info("asset complete",
			"content_hash", result.Fingerprint.Hash,
			"duplicate_of", result.DuplicateOf,
			"impact_score", result.Impact.Score,
			"recommendations", len(result.Recommendations),
		)
		return nil
	case errors.Is(err, domain.ErrClaimLost):
		tasksTotal.WithLabelValues(outcomeClaimLost).Inc()
		logger.Info("claim taken over by another worker, stopping")
		return nil
	case errors.Is(err, context.Canceled):
		tasksTotal.WithLabelValues(outcomeRequeued).Inc()
		return err
	}

	if errors.Is(err, domain.ErrInvariantViolation) {
		logger.Error("invariant violation while ingesting", "error", err)
	} else {
		logger.Warn("ingestion failed", "error", err)
	}

	if markErr := s.uow.FileAssetRepo().MarkFailed(ctx, asset.ID, token, failureReason(err)); markErr != nil {
		if errors.Is(markErr, domain.ErrClaimLost) {
			tasksTotal.WithLabelValues(outcomeClaimLost).Inc()
			return nil
		}
		tasksTotal.WithLabelValues(outcomeRequeued).Inc()
		return fmt.Errorf("could not record failure of asset %s: %w", asset.ID, markErr)
	}

	tasksTotal.WithLabelValues(outcomeFailed).Inc()
	return nil
}

func (s *ingestionService) ingest(ctx context.Context, asset domain.FileAsset, token uuid.UUID) (domain.IngestionResult, error) {
	fp, err := s.fetchFingerprint(ctx, asset)
	if err != nil {
		return domain.IngestionResult{}, err
	}

	if asset.ContentHash != nil && *asset.ContentHash != fp.Hash {
		return domain.IngestionResult{}, fmt.Errorf("%w: recorded %s, read %s", domain.ErrContentChanged, *asset.ContentHash, fp.Hash)
	}

	var result domain.IngestionResult
	txErr := s.uow.Execute(ctx, func(uow port.UnitOfWork) error {
		res, err := s.resolver.Resolve(ctx, uow, asset.OwnerID, fp.Hash, asset.ID)
		if err != nil {
			return err
		}
		if err := checkLinkage(asset, res.IsDuplicate, res.CanonicalID); err != nil {
			return err
		}

		result = domain.IngestionResult{
			AssetID:     asset.ID,
			ClaimToken:  token,
			Fingerprint: fp,
			ProcessedAt: s.now(),
		}
		if res.IsDuplicate {
			canonicalID := res.CanonicalID
			result.DuplicateOf = &canonicalID
			result.Impact = domain.Impact{
				KWh:  *res.Canonical.KWhEstimate,
				CO2g: *res.Canonical.CO2gEstimate,
			}
			result.Impact.Score = impact.Score(fp.SizeBytes, result.Impact.CO2g, true, s.policy)
		} else {
			result.Impact = impact.Estimate(fp.SizeBytes, false, s.region, s.policy)
		}

		duplicates, err := uow.FileAssetRepo().CountDuplicates(ctx, asset.OwnerID)
		if err != nil {
			return fmt.Errorf("could not count duplicates: %w", err)
		}
		if res.IsDuplicate && asset.DuplicateOf == nil {
			duplicates++
		}

		final := asset.WithResult(result)
		result.Recommendations = s.engine.Evaluate(final, domain.OwnerContext{
			DuplicateCount: duplicates,
			Canonical:      res.Canonical,
		}, result.ProcessedAt)

		if err := uow.FileAssetRepo().SaveResult(ctx, result); err != nil {
			return err
		}
		return uow.RecommendationRepo().ReplaceForAsset(ctx, asset.ID, result.Recommendations)
	})
	if txErr != nil {
		return domain.IngestionResult{}, txErr
	}

	if result.DuplicateOf != nil {
		dedupTotal.WithLabelValues("duplicate").Inc()
	} else {
		dedupTotal.WithLabelValues("canonical").Inc()
	}
	return result, nil
}

// checkLinkage keeps duplicate_of append-only across reprocessing
func checkLinkage(asset domain.FileAsset, isDuplicate bool, canonicalID uuid.UUID) error {
	if asset.DuplicateOf == nil {
		return nil
	}
	if !isDuplicate || *asset.DuplicateOf != canonicalID {
		return fmt.Errorf("%w: asset %s links to %s but registry resolves %s", domain.ErrInvariantViolation, asset.ID, *asset.DuplicateOf, canonicalID)
	}
	return nil
}

// fetchFingerprint streams the object through the fingerprinter, retrying
// transient storage errors with exponential backoff.
func (s *ingestionService) fetchFingerprint(ctx context.Context, asset domain.FileAsset) (domain.Fingerprint, error) {
	operation := func() (domain.Fingerprint, error) {
		body, err := s.storage.Fetch(ctx, asset.StorageKey)
		if err != nil {
			return domain.Fingerprint{}, classify(err)
		}
		defer body.Close()

		fp, err := s.fingerprinter.Fingerprint(body, asset.DeclaredMimeType)
		if err != nil {
			return domain.Fingerprint{}, classify(err)
		}
		return fp, nil
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = s.cfg.FetchBackoff
	exp.MaxElapsedTime = s.cfg.ClaimTimeout / 2

	notify := func(err error, wait time.Duration) {
		s.logger.Warn("transient storage error, retrying", "asset_id", asset.ID, "error", err, "wait", wait)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(exp, s.cfg.FetchRetries), ctx)
	return backoff.RetryNotifyWithData(operation, b, notify)
}

func classify(err error) error {
	if domain.IsTransient(err) {
		return err
	}
	return backoff.Permanent(err)
}

// failureReason is the terse text stored on a failed asset
func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrObjectNotFound):
		return "object not found in storage"
	case errors.Is(err, domain.ErrContentTooLarge):
		return "content exceeds maximum size"
	case errors.Is(err, domain.ErrContentChanged):
		return "content changed since first fingerprint"
	case errors.Is(err, domain.ErrStorageMisconfigured):
		return "storage misconfigured"
	case errors.Is(err, domain.ErrStorageUnavailable):
		return "storage unavailable after retries"
	case errors.Is(err, domain.ErrInvariantViolation):
		return "internal consistency error"
	default:
		return "processing error"
	}
}
