package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/branchaudit-backend/internal/platform/blob"
	"github.com/yungbote/branchaudit-backend/internal/platform/logger"
)

type BucketConfig struct {
	Name        string
	CDNDomain   string
	Credentials string
}

// BucketService stores evidence files in one GCS bucket.
type BucketService struct {
	log    *logger.Logger
	client *storage.Client
	cfg    BucketConfig
}

var _ blob.Store = (*BucketService)(nil)

func NewBucketService(ctx context.Context, log *logger.Logger, cfg BucketConfig) (*BucketService, error) {
	serviceLog := log.With("service", "BucketService")
	cfg.Name = strings.TrimSpace(cfg.Name)
	if cfg.Name == "" {
		return nil, fmt.Errorf("missing BLOB_BUCKET")
	}
	opts := ClientOptions(cfg.Credentials)
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &BucketService{log: serviceLog, client: client, cfg: cfg}, nil
}

func (bs *BucketService) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("blob key required")
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := bs.client.Bucket(bs.cfg.Name).Object(key).NewWriter(ctx)
	if contentType == "" {
		contentType = contentTypeForKey(key)
	}
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return bs.PublicURL(key), nil
}

func (bs *BucketService) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	err := bs.client.Bucket(bs.cfg.Name).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, bs.cfg.Name, err)
	}
	return nil
}

func (bs *BucketService) PublicURL(key string) string {
	if bs.cfg.CDNDomain != "" {
		return fmt.Sprintf("https://%s/%s", strings.TrimRight(bs.cfg.CDNDomain, "/"), key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bs.cfg.Name, key)
}

func (bs *BucketService) Close() error {
	return bs.client.Close()
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch {
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".webp"):
		return "image/webp"
	case strings.HasSuffix(s, ".heic"):
		return "image/heic"
	case strings.HasSuffix(s, ".mp4"):
		return "video/mp4"
	case strings.HasSuffix(s, ".pdf"):
		return "application/pdf"
	default:
		return ""
	}
}
