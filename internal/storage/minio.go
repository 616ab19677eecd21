package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"driveline/internal/middleware"
	"driveline/internal/observability"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig holds the connection settings for the MinIO-backed store.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioStore is an AssetStore backed by a MinIO (S3-compatible) bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects to MinIO and ensures the bucket exists.
func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client for %s: %w", cfg.Endpoint, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
		exists, checkErr := client.BucketExists(ctx, cfg.Bucket)
		if checkErr != nil || !exists {
			return nil, fmt.Errorf("make/verify bucket %s: %w", cfg.Bucket, err)
		}
	}

	middleware.Logger.Info("MinIO asset store ready",
		slog.String("endpoint", cfg.Endpoint),
		slog.String("bucket", cfg.Bucket),
	)

	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

func (s *MinioStore) Put(ctx context.Context, content []byte, suggestedName string) (string, error) {
	defer observability.ObserveAssetStore("put", "minio", time.Now())

	key := objectKey(suggestedName)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: http.DetectContentType(content),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s to bucket %s: %w", key, s.bucket, err)
	}
	return key, nil
}

func (s *MinioStore) Delete(ctx context.Context, path string) error {
	defer observability.ObserveAssetStore("delete", "minio", time.Now())

	// RemoveObject on a missing key is a no-op in S3 semantics, which gives us
	// the idempotent delete the lifecycle service relies on.
	if err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s from bucket %s: %w", path, s.bucket, err)
	}
	return nil
}
