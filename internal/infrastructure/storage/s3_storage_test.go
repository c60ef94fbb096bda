package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeniva/backend/internal/infrastructure/config"
	"go.uber.org/zap/zaptest"
)

func testStorageConfig() *config.StorageConfig {
	return &config.StorageConfig{
		Bucket:          "trip-docs",
		Region:          "eu-west-1",
		Endpoint:        "localhost:9000",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		UsePathStyle:    true,
	}
}

func TestNewS3DocumentStore_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("nil config", func(t *testing.T) {
		_, err := NewS3DocumentStore(ctx, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket", func(t *testing.T) {
		cfg := testStorageConfig()
		cfg.Bucket = ""
		_, err := NewS3DocumentStore(ctx, cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("half of the static keys", func(t *testing.T) {
		cfg := testStorageConfig()
		cfg.SecretAccessKey = ""
		_, err := NewS3DocumentStore(ctx, cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be set together")
	})

	t.Run("valid config", func(t *testing.T) {
		store, err := NewS3DocumentStore(ctx, testStorageConfig(),
			WithLogger(zaptest.NewLogger(t)),
			WithPresignExpiration(time.Hour),
		)
		require.NoError(t, err)
		assert.Equal(t, "trip-docs", store.Bucket())
		assert.Equal(t, time.Hour, store.presignExpiration)
	})
}

func TestS3DocumentStore_DownloadURL(t *testing.T) {
	ctx := context.Background()
	store, err := NewS3DocumentStore(ctx, testStorageConfig())
	require.NoError(t, err)

	url, expiresAt, err := store.DownloadURL(ctx, "tenant/trip/invoice.pdf", 10*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "https://localhost:9000/trip-docs/tenant/trip/invoice.pdf")
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.Contains(t, url, "X-Amz-Expires=600")
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), expiresAt, 5*time.Second)

	t.Run("default expiration", func(t *testing.T) {
		url, _, err := store.DownloadURL(ctx, "k", 0)
		require.NoError(t, err)
		assert.Contains(t, url, "X-Amz-Expires=900")
	})

	t.Run("empty key", func(t *testing.T) {
		_, _, err := store.DownloadURL(ctx, "", time.Minute)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage key is required")
	})
}

func TestS3DocumentStore_EmptyKey(t *testing.T) {
	ctx := context.Background()
	store, err := NewS3DocumentStore(ctx, testStorageConfig())
	require.NoError(t, err)

	assert.Error(t, store.Put(ctx, "", nil, 0, "text/plain"))
	assert.Error(t, store.Delete(ctx, ""))
	_, err = store.Exists(ctx, "")
	assert.Error(t, err)
}
