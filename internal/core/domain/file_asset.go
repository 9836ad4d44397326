package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AssetStatus represents the lifecycle state of a file asset
type AssetStatus string

const (
	AssetStatusPending    AssetStatus = "pending"
	AssetStatusProcessing AssetStatus = "processing"
	AssetStatusComplete   AssetStatus = "complete"
	AssetStatusFailed     AssetStatus = "failed"
)

// validTransitions lists every legal move. processing -> processing is the
// takeover of an expired claim, complete -> pending is an explicit reprocess.
var validTransitions = map[AssetStatus]map[AssetStatus]bool{
	AssetStatusPending:    {AssetStatusProcessing: true},
	AssetStatusProcessing: {AssetStatusComplete: true, AssetStatusFailed: true, AssetStatusProcessing: true},
	AssetStatusComplete:   {AssetStatusPending: true},
	AssetStatusFailed:     {AssetStatusPending: true},
}

// CanTransition reports whether from -> to is a legal lifecycle move
func CanTransition(from, to AssetStatus) bool {
	return validTransitions[from][to]
}

// CheckTransition returns ErrInvalidTransition when from -> to is not legal
func CheckTransition(from, to AssetStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// IsTerminal reports whether a processing attempt has ended
func (s AssetStatus) IsTerminal() bool {
	return s == AssetStatusComplete || s == AssetStatusFailed
}

// FileAsset represents one physical content upload owned by one user
type FileAsset struct {
	ID                uuid.UUID
	OwnerID           uuid.UUID
	StorageKey        string
	Filename          string
	DeclaredSizeBytes int64
	DeclaredMimeType  string

	ContentHash       *string
	VerifiedSizeBytes *int64
	VerifiedMimeType  *string
	DuplicateOf       *uuid.UUID
	KWhEstimate       *float64
	CO2gEstimate      *float64
	ImpactScore       *int

	Status         AssetStatus
	FailureReason  *string
	Attempts       int
	ClaimToken     *uuid.UUID
	ClaimedAt      *time.Time
	LastAccessedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ProcessedAt    *time.Time
}

// IsDuplicate reports whether the asset references a canonical
func (a FileAsset) IsDuplicate() bool {
	return a.DuplicateOf != nil
}

// HasResult reports whether a previous attempt wrote verified metrics
func (a FileAsset) HasResult() bool {
	return a.ContentHash != nil && a.KWhEstimate != nil && a.CO2gEstimate != nil && a.ImpactScore != nil
}

// SizeBytes returns the verified size when known, the declared one otherwise
func (a FileAsset) SizeBytes() int64 {
	if a.VerifiedSizeBytes != nil {
		return *a.VerifiedSizeBytes
	}
	return a.DeclaredSizeBytes
}

// MimeType returns the verified type when known, the declared one otherwise
func (a FileAsset) MimeType() string {
	if a.VerifiedMimeType != nil {
		return *a.VerifiedMimeType
	}
	return a.DeclaredMimeType
}

// WithResult returns a copy of the asset as it will look once result is persisted
func (a FileAsset) WithResult(result IngestionResult) FileAsset {
	hash := result.Fingerprint.Hash
	size := result.Fingerprint.SizeBytes
	mime := result.Fingerprint.MimeType
	kwh := result.Impact.KWh
	co2 := result.Impact.CO2g
	score := result.Impact.Score

	a.ContentHash = &hash
	a.VerifiedSizeBytes = &size
	a.VerifiedMimeType = &mime
	if a.DuplicateOf == nil && result.DuplicateOf != nil {
		dup := *result.DuplicateOf
		a.DuplicateOf = &dup
	}
	a.KWhEstimate = &kwh
	a.CO2gEstimate = &co2
	a.ImpactScore = &score
	a.Status = AssetStatusComplete
	a.FailureReason = nil
	return a
}

// Fingerprint is the verified identity of a byte stream
type Fingerprint struct {
	Hash      string
	SizeBytes int64
	MimeType  string
}

// IngestionResult is everything the terminal write of a successful attempt persists
type IngestionResult struct {
	AssetID         uuid.UUID
	ClaimToken      uuid.UUID
	Fingerprint     Fingerprint
	DuplicateOf     *uuid.UUID
	Impact          Impact
	Recommendations []Recommendation
	ProcessedAt     time.Time
}
