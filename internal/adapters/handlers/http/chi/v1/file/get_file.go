package file

import (
	"net/http"

	"ecolink/internal/adapters/handlers/http/chi/v1/common"
)

// GetFileV1 returns the asset with its active recommendations
func (h *HandlerV1) GetFileV1(w http.ResponseWriter, r *http.Request) {
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

	asset, recs, err := h.fileService.GetFile(r.Context(), ownerID, fileID)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	common.WriteJSON(w, h.logger, http.StatusOK, toFileResponse(asset, recs))
}

// RequestDownloadV1 issues a presigned GET for the asset's object
func (h *HandlerV1) RequestDownloadV1(w http.ResponseWriter, r *http.Request) {
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

	handle, err := h.fileService.RequestDownload(r.Context(), ownerID, fileID)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	common.WriteJSON(w, h.logger, http.StatusOK, toTransferResponse(handle))
}
