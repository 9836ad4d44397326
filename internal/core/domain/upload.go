package domain

import (
	"crypto/rand"
	"encoding/hex"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TransferHandle is a time-limited presigned request against object storage
type TransferHandle struct {
	URL       string
	Method    string
	Headers   map[string]string
	Key       string
	TTL       time.Duration
	ExpiresAt time.Time
}

// CommitRequest is what the client sends once its bytes are in object storage
type CommitRequest struct {
	OwnerID             uuid.UUID
	StorageKey          string
	Filename            string
	DeclaredSizeBytes   int64
	DeclaredContentType string
}

// IngestionTask is the queue message. It carries only the asset id so a
// replay always reads current state from the record.
type IngestionTask struct {
	AssetID uuid.UUID `json:"asset_id"`
	// DedupKey identifies one dispatch attempt for broker-side dedup
	DedupKey string `json:"-"`
}

// NewIngestionTask builds the task for the given attempt number
func NewIngestionTask(assetID uuid.UUID, attempt int) IngestionTask {
	return IngestionTask{
		AssetID:  assetID,
		DedupKey: assetID.String() + "-" + strconv.Itoa(attempt),
	}
}

const uploadsPrefix = "uploads"

// OwnerKeyPrefix is the storage prefix under which an owner's uploads live
func OwnerKeyPrefix(ownerID uuid.UUID) string {
	return uploadsPrefix + "/" + ownerID.String() + "/"
}

// NewStorageKey builds a fresh object key for an owner's upload
func NewStorageKey(ownerID uuid.UUID, filename string) string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return OwnerKeyPrefix(ownerID) + hex.EncodeToString(b[:]) + "_" + SanitizeFilename(filename)
}

// SanitizeFilename keeps the base name and replaces characters unsafe in object keys
func SanitizeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "file"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
}

// OwnsStorageKey reports whether key lives under the owner's prefix
func OwnsStorageKey(ownerID uuid.UUID, key string) bool {
	prefix := OwnerKeyPrefix(ownerID)
	return strings.HasPrefix(key, prefix) && len(key) > len(prefix) && !strings.Contains(key, "..")
}
