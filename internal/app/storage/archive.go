// Package storage uploads finished transcripts to S3-compatible object
// storage for long-term archival.
package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"green-needle/internal/app/batch"
)

// Config locates the bucket. Endpoint is host:port without a scheme.
type Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
}

// MinioArchiver copies transcript files into a bucket, keyed by upload date.
type MinioArchiver struct {
	client *minio.Client
	bucket string
	prefix string
	logger *zap.Logger
	now    func() time.Time
}

var _ batch.Archiver = (*MinioArchiver)(nil)

func New(cfg Config) (*MinioArchiver, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("storage: endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage: bucket is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: client for %s: %w", cfg.Endpoint, err)
	}
	return &MinioArchiver{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: zap.NewNop(),
		now:    time.Now,
	}, nil
}

// WithLogger attaches a logger.
func (a *MinioArchiver) WithLogger(logger *zap.Logger) *MinioArchiver {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// EnsureBucket creates the bucket when it does not exist yet.
func (a *MinioArchiver) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("storage: check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("storage: create bucket %s: %w", a.bucket, err)
	}
	a.logger.Info("bucket created", zap.String("bucket", a.bucket))
	return nil
}

// Archive uploads one local file and returns its object URL.
func (a *MinioArchiver) Archive(ctx context.Context, localPath string) (string, error) {
	key := a.objectKey(localPath)
	info, err := a.client.FPutObject(ctx, a.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: contentTypeFor(localPath),
	})
	if err != nil {
		return "", fmt.Errorf("storage: upload %s: %w", localPath, err)
	}
	a.logger.Debug("archived",
		zap.String("object", key),
		zap.Int64("size", info.Size))
	return fmt.Sprintf("minio://%s/%s", a.bucket, key), nil
}

// objectKey groups uploads by date so a bucket listing reads like a journal.
func (a *MinioArchiver) objectKey(localPath string) string {
	key := path.Join(a.now().Format("2006/01/02"), filepath.Base(localPath))
	if a.prefix != "" {
		key = path.Join(a.prefix, key)
	}
	return key
}

func contentTypeFor(localPath string) string {
	switch strings.ToLower(filepath.Ext(localPath)) {
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".json":
		return "application/json"
	case ".srt":
		return "application/x-subrip"
	case ".vtt":
		return "text/vtt"
	case ".tsv":
		return "text/tab-separated-values"
	}
	return "application/octet-stream"
}
