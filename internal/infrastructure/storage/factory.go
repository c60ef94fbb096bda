package storage

import (
	"context"

	tripapp "github.com/zeniva/backend/internal/application/trip"
	infraconfig "github.com/zeniva/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewDocumentStore returns the S3 store when a bucket is configured and the
// in-memory store otherwise.
func NewDocumentStore(ctx context.Context, cfg *infraconfig.StorageConfig, logger *zap.Logger) (tripapp.DocumentStore, error) {
	if cfg == nil || cfg.Bucket == "" {
		logger.Warn("No storage bucket configured, trip documents are kept in memory")
		return NewMemoryDocumentStore(), nil
	}
	store, err := NewS3DocumentStore(ctx, cfg, WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	logger.Info("S3 document store ready",
		zap.String("bucket", store.Bucket()),
		zap.String("endpoint", cfg.Endpoint),
	)
	return store, nil
}
