package file

import (
	"context"
	"fmt"

	"ecolink/internal/core/domain"

	"github.com/google/uuid"
)

func (f *fileService) RequestUpload(ctx context.Context, ownerID uuid.UUID, filename string, contentType string) (*domain.TransferHandle, error) {
	handle, err := f.fileStorage.IssueUploadHandle(ctx, ownerID, filename, contentType)
	if err != nil {
		return nil, fmt.Errorf("could not generate upload presigned url: %w", err)
	}
	return handle, nil
}
