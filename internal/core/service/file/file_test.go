package file_test

import (
	"io"
	"log/slog"

	"ecolink/internal/adapters/eventbroker"
	"ecolink/internal/adapters/repository"
	"ecolink/internal/adapters/storage"
	"ecolink/internal/config"
	"ecolink/internal/core/port"
	"ecolink/internal/core/service/file"
)

var defaultCfg = config.FileUploadConfig{MaxUploadSize: 5 << 30}

func newFileService(uow *repository.MockUnitOfWork, st *storage.MockStorage, pub *eventbroker.MockPublisher) port.FileService {
	return file.NewFileService(uow, st, pub, defaultCfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}
