package file

import (
	"net/http"

	"ecolink/internal/adapters/handlers/http/chi/v1/common"
)

// V1UploadURLRequest asks for a presigned PUT
type V1UploadURLRequest struct {
	Filename    string `json:"filename" validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"required,max=255"`
}

// RequestUploadV1 issues an upload handle under the caller's prefix
func (h *HandlerV1) RequestUploadV1(w http.ResponseWriter, r *http.Request) {
	ownerID, err := common.OwnerID(r)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	var req V1UploadURLRequest
	if err := common.DecodeAndValidate(r, &req); err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	handle, err := h.fileService.RequestUpload(r.Context(), ownerID, req.Filename, req.ContentType)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	common.WriteJSON(w, h.logger, http.StatusCreated, toTransferResponse(handle))
}
