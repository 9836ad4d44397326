package file

import (
	"net/http"

	"ecolink/internal/adapters/handlers/http/chi/v1/common"
	"ecolink/internal/core/domain"
)

// V1CommitRequest is sent once the bytes are in storage
type V1CommitRequest struct {
	StorageKey  string `json:"storage_key" validate:"required,max=1024"`
	Filename    string `json:"filename" validate:"required,max=255"`
	SizeBytes   int64  `json:"size_bytes" validate:"gt=0"`
	ContentType string `json:"content_type" validate:"max=255"`
}

// CommitV1 records the upload and enqueues its ingestion
func (h *HandlerV1) CommitV1(w http.ResponseWriter, r *http.Request) {
	ownerID, err := common.OwnerID(r)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	var req V1CommitRequest
	if err := common.DecodeAndValidate(r, &req); err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	asset, err := h.fileService.Commit(r.Context(), domain.CommitRequest{
		OwnerID:             ownerID,
		StorageKey:          req.StorageKey,
		Filename:            req.Filename,
		DeclaredSizeBytes:   req.SizeBytes,
		DeclaredContentType: req.ContentType,
	})
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	common.WriteJSON(w, h.logger, http.StatusAccepted, toFileResponse(asset, nil))
}
