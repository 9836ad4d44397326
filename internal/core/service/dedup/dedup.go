package dedup

import (
	"context"
	"fmt"

	"ecolink/internal/core/domain"
	"ecolink/internal/core/port"

	"github.com/google/uuid"
)

// Resolution is the outcome of resolving one fingerprint
type Resolution struct {
	IsDuplicate bool
	CanonicalID uuid.UUID
	// Canonical is loaded only for duplicates
	Canonical *domain.FileAsset
}

// Resolver decides which asset is canonical for an owner's content hash.
// Atomicity comes from the registry's primary key, so Resolve must run inside
// the same transaction as the terminal write of the candidate.
type Resolver struct{}

// NewResolver creates a Resolver
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve registers candidateID as canonical unless another asset already is.
// Losing the race is reported as IsDuplicate, not as an error.
func (r *Resolver) Resolve(ctx context.Context, uow port.UnitOfWork, ownerID uuid.UUID, contentHash string, candidateID uuid.UUID) (Resolution, error) {
	canonicalID, err := uow.FingerprintRepo().ClaimCanonical(ctx, ownerID, contentHash, candidateID)
	if err != nil {
		return Resolution{}, fmt.Errorf("could not resolve canonical: %w", err)
	}

	if canonicalID == candidateID {
		return Resolution{IsDuplicate: false, CanonicalID: candidateID}, nil
	}

	canonical, err := uow.FileAssetRepo().FindByID(ctx, canonicalID)
	if err != nil {
		return Resolution{}, fmt.Errorf("could not load canonical %s: %w", canonicalID, err)
	}
	if canonical.DuplicateOf != nil {
		return Resolution{}, fmt.Errorf("%w: canonical %s points at %s", domain.ErrInvariantViolation, canonicalID, *canonical.DuplicateOf)
	}
	if canonical.OwnerID != ownerID || canonical.ContentHash == nil || *canonical.ContentHash != contentHash {
		return Resolution{}, fmt.Errorf("%w: registry entry for %s does not match canonical %s", domain.ErrInvariantViolation, contentHash, canonicalID)
	}
	if !canonical.HasResult() {
		return Resolution{}, fmt.Errorf("%w: canonical %s has no metrics", domain.ErrInvariantViolation, canonicalID)
	}

	return Resolution{IsDuplicate: true, CanonicalID: canonicalID, Canonical: canonical}, nil
}
