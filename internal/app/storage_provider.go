package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/branchaudit-backend/internal/clients/gcp"
	"github.com/yungbote/branchaudit-backend/internal/platform/blob"
	"github.com/yungbote/branchaudit-backend/internal/platform/logger"
)

const (
	BlobModeMemory = "memory"
	BlobModeGCS    = "gcs"
)

var newBucketService = func(ctx context.Context, log *logger.Logger, cfg gcp.BucketConfig) (blob.Store, error) {
	bs, err := gcp.NewBucketService(ctx, log, cfg)
	if err != nil {
		return nil, err
	}
	return bs, nil
}

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode   StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingBucket StorageProviderBootstrapErrorCode = "missing_bucket"
	StorageProviderBootstrapErrorConnectFailed StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code   StorageProviderBootstrapErrorCode
	Mode   string
	Bucket string
	Cause  error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "blob storage bootstrap failed"
	}
	return fmt.Sprintf("blob storage bootstrap failed (code=%s mode=%q bucket=%q): %v", e.Code, e.Mode, e.Bucket, e.Cause)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// blobMode picks gcs when a bucket is configured and no mode is forced.
func blobMode(cfg Config) string {
	mode := strings.ToLower(strings.TrimSpace(cfg.BlobMode))
	if mode != "" {
		return mode
	}
	if strings.TrimSpace(cfg.BlobBucket) != "" {
		return BlobModeGCS
	}
	return BlobModeMemory
}

func resolveBlobStore(ctx context.Context, log *logger.Logger, cfg Config) (blob.Store, error) {
	mode := blobMode(cfg)
	bucket := strings.TrimSpace(cfg.BlobBucket)
	log.Info("Selecting blob storage provider", "mode", mode, "bucket", bucket)

	switch mode {
	case BlobModeMemory:
		base := strings.TrimSpace(cfg.BlobPublicBaseURL)
		if base == "" {
			base = "memory://evidence"
		}
		log.Warn("Evidence uploads are kept in memory only", "base_url", base)
		return blob.NewMemoryStore(base), nil
	case BlobModeGCS:
		if bucket == "" {
			return nil, &StorageProviderBootstrapError{
				Code:  StorageProviderBootstrapErrorMissingBucket,
				Mode:  mode,
				Cause: errors.New("BLOB_BUCKET is required for gcs mode"),
			}
		}
		store, err := newBucketService(ctx, log, gcp.BucketConfig{
			Name:        bucket,
			CDNDomain:   cfg.BlobPublicBaseURL,
			Credentials: cfg.GCPCredentials,
		})
		if err != nil {
			err = &StorageProviderBootstrapError{Code: StorageProviderBootstrapErrorConnectFailed, Mode: mode, Bucket: bucket, Cause: err}
			log.Error("Blob storage provider bootstrap failed", "mode", mode, "bucket", bucket, "error", err)
			return nil, err
		}
		return store, nil
	default:
		return nil, &StorageProviderBootstrapError{
			Code:  StorageProviderBootstrapErrorInvalidMode,
			Mode:  mode,
			Cause: fmt.Errorf("unsupported BLOB_MODE %q", mode),
		}
	}
}
