package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	tripapp "github.com/zeniva/backend/internal/application/trip"
)

var _ tripapp.DocumentStore = (*MemoryDocumentStore)(nil)

// StoredObject is a document held by MemoryDocumentStore
type StoredObject struct {
	Data        []byte
	ContentType string
	StoredAt    time.Time
}

// MemoryDocumentStore keeps documents in process memory. It serves
// development setups without a bucket and tests.
type MemoryDocumentStore struct {
	mu      sync.RWMutex
	objects map[string]StoredObject
	// BaseURL prefixes generated download URLs
	BaseURL string
}

// NewMemoryDocumentStore creates an empty store
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{
		objects: make(map[string]StoredObject),
		BaseURL: "http://localhost:8080/files",
	}
}

// Put reads the whole body into memory
func (m *MemoryDocumentStore) Put(_ context.Context, key string, body io.Reader, size int64, contentType string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, body)
	if err != nil {
		return fmt.Errorf("failed to read object body: %w", err)
	}
	if size >= 0 && n != size {
		return fmt.Errorf("object size mismatch: declared %d, read %d", size, n)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = StoredObject{
		Data:        buf.Bytes(),
		ContentType: contentType,
		StoredAt:    time.Now(),
	}
	return nil
}

// DownloadURL returns a fake URL for a stored key
func (m *MemoryDocumentStore) DownloadURL(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	if expiresIn <= 0 {
		expiresIn = 15 * time.Minute
	}
	expiresAt := time.Now().Add(expiresIn)
	return m.BaseURL + "/" + url.PathEscape(key) + "?expires=" + expiresAt.UTC().Format(time.RFC3339), expiresAt, nil
}

// Delete removes a key
func (m *MemoryDocumentStore) Delete(_ context.Context, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Exists reports whether key is stored
func (m *MemoryDocumentStore) Exists(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("storage key is required")
	}
	m.mu.RLock()
	_, ok := m.objects[key]
	m.mu.RUnlock()
	return ok, nil
}

// Get returns a stored object
func (m *MemoryDocumentStore) Get(key string) (StoredObject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj, ok
}

// Len returns the number of stored objects
func (m *MemoryDocumentStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
