package domain

import (
	"time"

	"github.com/google/uuid"
)

// RecommendationKind is one of the fixed advisory categories
type RecommendationKind string

const (
	RecommendationDuplicateRemovable RecommendationKind = "duplicate-removable"
	RecommendationLargeFileReview    RecommendationKind = "large-file-review"
	RecommendationCompressCandidate  RecommendationKind = "compress-candidate"
	RecommendationStaleArchive       RecommendationKind = "stale-archive-candidate"
	RecommendationShareLink          RecommendationKind = "share-link-candidate"
)

// RecommendationKindOrder is the fixed order recommendations are listed in
var RecommendationKindOrder = []RecommendationKind{
	RecommendationDuplicateRemovable,
	RecommendationLargeFileReview,
	RecommendationCompressCandidate,
	RecommendationShareLink,
	RecommendationStaleArchive,
}

// Recommendation is an advisory tied to exactly one file asset
type Recommendation struct {
	ID            uuid.UUID
	AssetID       uuid.UUID
	Kind          RecommendationKind
	Message       string
	CreatedAt     time.Time
	InvalidatedAt *time.Time
}

// OwnerContext is the owner-scoped aggregate state rules may consult
type OwnerContext struct {
	DuplicateCount int
	Canonical      *FileAsset
}
