package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	filesapp "github.com/procura/backend/internal/application/files"
	invoiceapp "github.com/procura/backend/internal/application/invoice"
	procurementapp "github.com/procura/backend/internal/application/procurement"
)

var (
	_ filesapp.ObjectStorage           = (*MemoryObjectStorage)(nil)
	_ invoiceapp.DocumentFetcher       = (*MemoryObjectStorage)(nil)
	_ procurementapp.DownloadURLSigner = (*MemoryObjectStorage)(nil)
)

// MemoryObjectStorage keeps documents in process memory. It backs local
// development and tests that need a working document round trip without
// an S3 endpoint. Download URLs are fabricated and not fetchable
type MemoryObjectStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// BaseURL prefixes fabricated download URLs
	BaseURL string
}

// NewMemoryObjectStorage creates an empty MemoryObjectStorage
func NewMemoryObjectStorage() *MemoryObjectStorage {
	return &MemoryObjectStorage{
		objects: make(map[string][]byte),
		BaseURL: "https://storage.invalid",
	}
}

// Upload stores a document in memory
func (s *MemoryObjectStorage) Upload(_ context.Context, storageKey string, data []byte, _ string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[storageKey] = append([]byte(nil), data...)
	return nil
}

// FetchDocument returns a stored document's bytes
func (s *MemoryObjectStorage) FetchDocument(_ context.Context, storageKey string) ([]byte, error) {
	if storageKey == "" {
		return nil, errors.New("storage key is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[storageKey]
	if !ok {
		return nil, errors.New("object not found: " + storageKey)
	}
	return append([]byte(nil), data...), nil
}

// ObjectExists checks whether a document was stored
func (s *MemoryObjectStorage) ObjectExists(_ context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errors.New("storage key is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[storageKey]
	return ok, nil
}

// DeleteObject removes a stored document
func (s *MemoryObjectStorage) DeleteObject(_ context.Context, storageKey string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, storageKey)
	return nil
}

// GenerateDownloadURL fabricates a download link for a stored document
func (s *MemoryObjectStorage) GenerateDownloadURL(_ context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	expiresAt := time.Now().Add(expiresIn)
	return s.BaseURL + "/" + storageKey + "?expires=" + expiresAt.Format(time.RFC3339), expiresAt, nil
}

// SignDownloadURL fabricates a download link with a fixed lifetime
func (s *MemoryObjectStorage) SignDownloadURL(ctx context.Context, storageKey string) (string, error) {
	url, _, err := s.GenerateDownloadURL(ctx, storageKey, 15*time.Minute)
	return url, err
}
