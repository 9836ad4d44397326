package recommendation

import (
	"fmt"
	"strings"
	"time"

	"ecolink/internal/core/domain"

	"github.com/google/uuid"
)

// Policy holds the rule thresholds
type Policy struct {
	LargeFileBytes   int64
	CompressMinBytes int64
	ShareLinkBytes   int64
	StaleAfter       time.Duration
}

// DefaultPolicy mirrors the config defaults
func DefaultPolicy() Policy {
	return Policy{
		LargeFileBytes:   100 << 20,
		CompressMinBytes: 10 << 20,
		ShareLinkBytes:   50 << 20,
		StaleAfter:       90 * 24 * time.Hour,
	}
}

// rule fires at most once per asset and must not depend on other rules
type rule struct {
	kind     domain.RecommendationKind
	evaluate func(p Policy, asset domain.FileAsset, oc domain.OwnerContext, now time.Time) (string, bool)
}

// rules are listed in output order
var rules = []rule{
	{domain.RecommendationDuplicateRemovable, duplicateRemovable},
	{domain.RecommendationLargeFileReview, largeFileReview},
	{domain.RecommendationCompressCandidate, compressCandidate},
	{domain.RecommendationShareLink, shareLink},
	{domain.RecommendationStaleArchive, staleArchive},
}

// Engine evaluates every rule against a finalized asset
type Engine struct {
	policy Policy
}

// NewEngine creates an Engine
func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// Evaluate returns the recommendations that fire for asset. The same asset
// state, owner context and instant always yield the same kinds and messages.
func (e *Engine) Evaluate(asset domain.FileAsset, oc domain.OwnerContext, now time.Time) []domain.Recommendation {
	recs := make([]domain.Recommendation, 0, len(rules))
	for _, r := range rules {
		message, ok := r.evaluate(e.policy, asset, oc, now)
		if !ok {
			continue
		}
		recs = append(recs, domain.Recommendation{
			ID:        uuid.New(),
			AssetID:   asset.ID,
			Kind:      r.kind,
			Message:   message,
			CreatedAt: now,
		})
	}
	return recs
}

func duplicateRemovable(_ Policy, asset domain.FileAsset, oc domain.OwnerContext, _ time.Time) (string, bool) {
	if asset.DuplicateOf == nil {
		return "", false
	}
	name := "an earlier upload"
	if oc.Canonical != nil {
		name = fmt.Sprintf("%q", oc.Canonical.Filename)
	}
	msg := fmt.Sprintf("This file is identical to %s. Removing it would save %.1fg CO2.", name, deref(asset.CO2gEstimate))
	if oc.DuplicateCount > 1 {
		msg += fmt.Sprintf(" You have %d duplicate files in total.", oc.DuplicateCount)
	}
	return msg, true
}

func largeFileReview(p Policy, asset domain.FileAsset, _ domain.OwnerContext, _ time.Time) (string, bool) {
	size := asset.SizeBytes()
	if p.LargeFileBytes <= 0 || size <= p.LargeFileBytes {
		return "", false
	}
	return fmt.Sprintf("This large file (%.1fMB) has an estimated footprint of %.1fg CO2. Review whether it still needs to be stored.",
		megabytes(size), deref(asset.CO2gEstimate)), true
}

func compressCandidate(p Policy, asset domain.FileAsset, _ domain.OwnerContext, _ time.Time) (string, bool) {
	size := asset.SizeBytes()
	if size <= p.CompressMinBytes || !IsCompressible(asset.MimeType()) {
		return "", false
	}
	return fmt.Sprintf("This %.1fMB %s file could be compressed to reduce storage and transfer energy.",
		megabytes(size), asset.MimeType()), true
}

func shareLink(p Policy, asset domain.FileAsset, _ domain.OwnerContext, _ time.Time) (string, bool) {
	mime := asset.MimeType()
	if p.ShareLinkBytes <= 0 || asset.SizeBytes() <= p.ShareLinkBytes {
		return "", false
	}
	if !strings.HasPrefix(mime, "video/") && !strings.HasPrefix(mime, "audio/") {
		return "", false
	}
	return "For large media files, share a streaming link instead of distributing copies to reduce bandwidth.", true
}

func staleArchive(p Policy, asset domain.FileAsset, _ domain.OwnerContext, now time.Time) (string, bool) {
	if p.StaleAfter <= 0 {
		return "", false
	}
	last := asset.CreatedAt
	if asset.LastAccessedAt != nil {
		last = *asset.LastAccessedAt
	}
	if last.IsZero() || now.Sub(last) <= p.StaleAfter {
		return "", false
	}
	days := int(now.Sub(last).Hours() / 24)
	return fmt.Sprintf("This file has not been accessed for %d days. Consider moving it to archive storage.", days), true
}

// compressible lists types that are not already compressed
var compressible = map[string]bool{
	"application/json":         true,
	"application/xml":          true,
	"application/pdf":          true,
	"application/x-tar":        true,
	"application/sql":          true,
	"application/x-sqlite3":    true,
	"application/vnd.ms-excel": true,
	"application/msword":       true,
	"image/bmp":                true,
	"image/tiff":               true,
	"image/svg+xml":            true,
	"audio/wav":                true,
	"audio/x-wav":              true,
	"audio/aiff":               true,
	"video/x-msvideo":          true,
}

// IsCompressible reports whether a media type usually shrinks under general-purpose compression
func IsCompressible(mimeType string) bool {
	if strings.HasPrefix(mimeType, "text/") {
		return true
	}
	return compressible[mimeType]
}

func megabytes(size int64) float64 {
	return float64(size) / (1 << 20)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// Kinds returns the kinds of recs in order
func Kinds(recs []domain.Recommendation) []domain.RecommendationKind {
	kinds := make([]domain.RecommendationKind, 0, len(recs))
	for _, r := range recs {
		kinds = append(kinds, r.Kind)
	}
	return kinds
}
