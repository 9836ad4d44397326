package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"ecolink/internal/config"
	"ecolink/internal/core/domain"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Adapter is an adapter for minio
type Adapter struct {
	client *minio.Client
	config config.MinioConfig
	logger *slog.Logger
}

// NewAdapter returns Adapter
func NewAdapter(ctx context.Context, cfg config.MinioConfig, logger *slog.Logger) (*Adapter, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket exists: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info("bucket created", slog.String("bucket", cfg.BucketName))
	}

	return &Adapter{client: client, config: cfg, logger: logger}, nil
}

// IssueUploadHandle presigns a PUT under a fresh key in the owner's prefix.
// The content type is signed so the client must send the same header.
func (a *Adapter) IssueUploadHandle(ctx context.Context, ownerID uuid.UUID, filename string, contentType string) (*domain.TransferHandle, error) {
	key := domain.NewStorageKey(ownerID, filename)

	requestHeaders := make(http.Header)
	if contentType != "" {
		requestHeaders.Set("Content-Type", contentType)
	}

	presignedURL, err := a.client.PresignHeader(ctx, http.MethodPut, a.config.BucketName, key, a.config.UploadURLDuration, nil, requestHeaders)
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", classify(err))
	}

	return &domain.TransferHandle{
		URL:       presignedURL.String(),
		Method:    http.MethodPut,
		Headers:   headerToMap(requestHeaders),
		Key:       key,
		TTL:       a.config.UploadURLDuration,
		ExpiresAt: time.Now().Add(a.config.UploadURLDuration),
	}, nil
}

// IssueDownloadHandle presigns a GET for an existing key
func (a *Adapter) IssueDownloadHandle(ctx context.Context, key string) (*domain.TransferHandle, error) {
	presignedURL, err := a.client.PresignedGetObject(ctx, a.config.BucketName, key, a.config.DownloadURLDuration, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned download URL: %w", classify(err))
	}

	return &domain.TransferHandle{
		URL:       presignedURL.String(),
		Method:    http.MethodGet,
		Headers:   map[string]string{},
		Key:       key,
		TTL:       a.config.DownloadURLDuration,
		ExpiresAt: time.Now().Add(a.config.DownloadURLDuration),
	}, nil
}

// Fetch opens a stream over the object. GetObject is lazy, so the object is
// stat'ed first to surface a missing key before any byte is read.
func (a *Adapter) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	object, err := a.client.GetObject(ctx, a.config.BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", classify(err))
	}

	if _, err := object.Stat(); err != nil {
		object.Close()
		return nil, fmt.Errorf("failed to stat object %s: %w", key, classify(err))
	}
	return object, nil
}

// classify maps S3 error codes onto the domain storage errors
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchObject":
		return fmt.Errorf("%w: %w", domain.ErrObjectNotFound, err)
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "NoSuchBucket":
		return fmt.Errorf("%w: %w", domain.ErrStorageMisconfigured, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
}

func headerToMap(headers http.Header) map[string]string {
	result := make(map[string]string)
	for key, values := range headers {
		if len(values) > 0 {
			result[key] = values[0]
		}
	}
	return result
}
