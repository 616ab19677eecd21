// Package storage abstracts durable blob storage for listing images.
package storage

import (
	"context"
	"fmt"

	"driveline/internal/config"
)

// AssetStore stores and deletes image blobs by path. Delete is idempotent:
// removing a path that no longer exists is not an error, so compensating
// cleanup can be retried safely.
type AssetStore interface {
	Put(ctx context.Context, content []byte, suggestedName string) (string, error)
	Delete(ctx context.Context, path string) error
}

// New selects an AssetStore backend from configuration.
func New(cfg *config.Config) (AssetStore, error) {
	switch cfg.AssetStore {
	case "", "local":
		return NewLocalStore(cfg.AssetUploadDir), nil
	case "minio":
		return NewMinioStore(MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown asset store backend %q", cfg.AssetStore)
	}
}
