package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeniva/backend/internal/infrastructure/config"
	"go.uber.org/zap/zaptest"
)

func TestMemoryDocumentStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDocumentStore()

	require.NoError(t, store.Put(ctx, "a/b.pdf", strings.NewReader("%PDF-1.7"), 8, "application/pdf"))
	assert.Equal(t, 1, store.Len())

	obj, ok := store.Get("a/b.pdf")
	require.True(t, ok)
	assert.Equal(t, "%PDF-1.7", string(obj.Data))
	assert.Equal(t, "application/pdf", obj.ContentType)

	exists, err := store.Exists(ctx, "a/b.pdf")
	require.NoError(t, err)
	assert.True(t, exists)

	url, expiresAt, err := store.DownloadURL(ctx, "a/b.pdf", time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, store.BaseURL+"/a%2Fb.pdf?expires="))
	assert.True(t, expiresAt.After(time.Now()))

	require.NoError(t, store.Delete(ctx, "a/b.pdf"))
	exists, err = store.Exists(ctx, "a/b.pdf")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, store.Delete(ctx, "a/b.pdf"))
}

func TestMemoryDocumentStore_SizeMismatch(t *testing.T) {
	store := NewMemoryDocumentStore()
	err := store.Put(context.Background(), "k", strings.NewReader("abc"), 10, "text/plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "size mismatch")
	assert.Zero(t, store.Len())
}

func TestMemoryDocumentStore_EmptyKey(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDocumentStore()
	assert.Error(t, store.Put(ctx, "", strings.NewReader(""), 0, ""))
	_, _, err := store.DownloadURL(ctx, "", time.Minute)
	assert.Error(t, err)
	assert.Error(t, store.Delete(ctx, ""))
	_, err = store.Exists(ctx, "")
	assert.Error(t, err)
}

func TestNewDocumentStore_WithoutBucket(t *testing.T) {
	store, err := NewDocumentStore(context.Background(), &config.StorageConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &MemoryDocumentStore{}, store)
}
