// Package storage keeps generated files (ledger exports) in MinIO and hands
// out time-limited download links.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// Object 已存储的文件
type Object struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Size      int64     `json:"size"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Options configures the MinIO connection.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	URLExpiry time.Duration
}

// ExportStore MinIO导出文件存储
type ExportStore struct {
	client *minio.Client
	bucket string
	expiry time.Duration
	logger *zap.Logger
}

// NewExportStore connects to MinIO. It does not touch the bucket; call
// EnsureBucket once at startup.
func NewExportStore(opts Options, logger *zap.Logger) (*ExportStore, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is not configured")
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	if opts.URLExpiry <= 0 {
		opts.URLExpiry = 15 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportStore{client: client, bucket: opts.Bucket, expiry: opts.URLExpiry, logger: logger}, nil
}

// EnsureBucket creates the bucket when missing.
func (s *ExportStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	s.logger.Info("Created export bucket", zap.String("bucket", s.bucket))
	return nil
}

// Put uploads data under prefix/yyyy/mm/dd/<rand>-filename and returns a
// presigned GET URL.
func (s *ExportStore) Put(ctx context.Context, prefix, filename, contentType string, data []byte) (*Object, error) {
	key := path.Join(prefix, time.Now().Format("2006/01/02"), uuid.New().String()[:8]+"-"+filename)

	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}

	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", filename))
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.expiry, params)
	if err != nil {
		return nil, fmt.Errorf("presign %s: %w", key, err)
	}

	s.logger.Info("Stored export", zap.String("key", key), zap.Int64("size", info.Size))
	return &Object{
		Key:       key,
		URL:       u.String(),
		Size:      info.Size,
		ExpiresAt: time.Now().Add(s.expiry),
	}, nil
}
