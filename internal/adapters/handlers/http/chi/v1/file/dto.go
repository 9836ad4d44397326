package file

import (
	"time"

	"ecolink/internal/core/domain"

	"github.com/google/uuid"
)

// V1TransferResponse is a presigned request the client performs against storage
type V1TransferResponse struct {
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	Key       string            `json:"storage_key"`
	ExpiresAt time.Time         `json:"expires_at"`
}

func toTransferResponse(handle *domain.TransferHandle) V1TransferResponse {
	return V1TransferResponse{
		URL:       handle.URL,
		Method:    handle.Method,
		Headers:   handle.Headers,
		Key:       handle.Key,
		ExpiresAt: handle.ExpiresAt,
	}
}

// V1RecommendationResponse is one active recommendation
type V1RecommendationResponse struct {
	Kind      domain.RecommendationKind `json:"kind"`
	Message   string                    `json:"message"`
	CreatedAt time.Time                 `json:"created_at"`
}

// V1FileResponse is the view of a file asset
type V1FileResponse struct {
	ID                uuid.UUID          `json:"id"`
	Filename          string             `json:"filename"`
	StorageKey        string             `json:"storage_key"`
	Status            domain.AssetStatus `json:"status"`
	FailureReason     *string            `json:"failure_reason,omitempty"`
	DeclaredSizeBytes int64              `json:"declared_size_bytes"`
	DeclaredMimeType  string             `json:"declared_mime_type"`
	ContentHash       *string            `json:"content_hash,omitempty"`
	VerifiedSizeBytes *int64             `json:"verified_size_bytes,omitempty"`
	VerifiedMimeType  *string            `json:"verified_mime_type,omitempty"`
	DuplicateOf       *uuid.UUID         `json:"duplicate_of,omitempty"`
	KWhEstimate       *float64           `json:"kwh_estimate,omitempty"`
	CO2gEstimate      *float64           `json:"co2_g_estimate,omitempty"`
	ImpactScore       *int               `json:"impact_score,omitempty"`
	Attempts          int                `json:"attempts"`
	CreatedAt         time.Time          `json:"created_at"`
	ProcessedAt       *time.Time         `json:"processed_at,omitempty"`

	Recommendations []V1RecommendationResponse `json:"recommendations,omitempty"`
}

func toFileResponse(asset *domain.FileAsset, recs []domain.Recommendation) V1FileResponse {
	resp := V1FileResponse{
		ID:                asset.ID,
		Filename:          asset.Filename,
		StorageKey:        asset.StorageKey,
		Status:            asset.Status,
		FailureReason:     asset.FailureReason,
		DeclaredSizeBytes: asset.DeclaredSizeBytes,
		DeclaredMimeType:  asset.DeclaredMimeType,
		ContentHash:       asset.ContentHash,
		VerifiedSizeBytes: asset.VerifiedSizeBytes,
		VerifiedMimeType:  asset.VerifiedMimeType,
		DuplicateOf:       asset.DuplicateOf,
		KWhEstimate:       asset.KWhEstimate,
		CO2gEstimate:      asset.CO2gEstimate,
		ImpactScore:       asset.ImpactScore,
		Attempts:          asset.Attempts,
		CreatedAt:         asset.CreatedAt,
		ProcessedAt:       asset.ProcessedAt,
	}
	for _, rec := range recs {
		resp.Recommendations = append(resp.Recommendations, V1RecommendationResponse{
			Kind:      rec.Kind,
			Message:   rec.Message,
			CreatedAt: rec.CreatedAt,
		})
	}
	return resp
}
