package file

import (
	"context"
	"net/http"

	"ecolink/internal/adapters/handlers/http/chi/v1/common"
	"ecolink/internal/core/domain"

	"github.com/google/uuid"
)

// RetryV1 requeues a failed asset
func (h *HandlerV1) RetryV1(w http.ResponseWriter, r *http.Request) {
	h.requeue(w, r, h.fileService.Retry)
}

// ReprocessV1 requeues a complete asset
func (h *HandlerV1) ReprocessV1(w http.ResponseWriter, r *http.Request) {
	h.requeue(w, r, h.fileService.Reprocess)
}

func (h *HandlerV1) requeue(w http.ResponseWriter, r *http.Request, fn func(context.Context, uuid.UUID, uuid.UUID) (*domain.FileAsset, error)) {
	ownerID, err := common.OwnerID(r)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	fileID, err := common.PathID(r, "fileID")
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	asset, err := fn(r.Context(), ownerID, fileID)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	common.WriteJSON(w, h.logger, http.StatusAccepted, toFileResponse(asset, nil))
}
