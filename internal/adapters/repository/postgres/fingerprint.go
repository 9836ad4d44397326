package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ecolink/internal/core/port"

	"github.com/google/uuid"
)

type sqlFingerprintRepository struct {
	db SQLQuerier
}

// NewSqlFingerprintRepository creates sqlFingerprintRepository that implements port.FingerprintRepository
func NewSqlFingerprintRepository(db SQLQuerier) port.FingerprintRepository {
	return &sqlFingerprintRepository{
		db: db,
	}
}

// ClaimCanonical inserts the registry row for candidateID unless one exists.
// A concurrent inserter of the same key blocks here until the first
// transaction ends, then reads the committed winner.
func (s *sqlFingerprintRepository) ClaimCanonical(ctx context.Context, ownerID uuid.UUID, contentHash string, candidateID uuid.UUID) (uuid.UUID, error) {
	insert := `INSERT INTO content_fingerprints (owner_id, content_hash, canonical_id)
               VALUES ($1, $2, $3)
               ON CONFLICT (owner_id, content_hash) DO NOTHING
               RETURNING canonical_id`

	var canonicalID uuid.UUID
	err := s.db.QueryRowContext(ctx, insert, ownerID, contentHash, candidateID).Scan(&canonicalID)
	if err == nil {
		return canonicalID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("error registering fingerprint: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT canonical_id FROM content_fingerprints WHERE owner_id = $1 AND content_hash = $2`,
		ownerID, contentHash,
	).Scan(&canonicalID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("error reading fingerprint: %w", err)
	}
	return canonicalID, nil
}
