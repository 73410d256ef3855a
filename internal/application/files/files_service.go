package files

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/procura/backend/internal/domain/shared"
)

// uploadContentTypes maps the document extensions the platform accepts to
// the content type stored alongside the object. Uploads outside this set
// are rejected outright
var uploadContentTypes = map[string]string{
	"pdf":  "application/pdf",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
}

// ObjectStorage is the slice of the storage backend the file workflows
// need: direct upload, existence probe and presigned download links
type ObjectStorage interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}

// FileServiceConfig holds tunables for document handling
type FileServiceConfig struct {
	// MaxUploadBytes bounds a single uploaded document
	MaxUploadBytes int64
	// DownloadURLTTL is the lifetime of presigned download links
	DownloadURLTTL time.Duration
}

// DefaultFileServiceConfig returns the default file service configuration
func DefaultFileServiceConfig() FileServiceConfig {
	return FileServiceConfig{
		MaxUploadBytes: 20 << 20,
		DownloadURLTTL: 15 * time.Minute,
	}
}

// FileService stores invoice and contract documents under tenant-prefixed
// keys and issues presigned download links for them
type FileService struct {
	storage ObjectStorage
	config  FileServiceConfig
	logger  *zap.Logger
}

// NewFileService creates a new FileService
func NewFileService(storage ObjectStorage, config FileServiceConfig, logger *zap.Logger) *FileService {
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = DefaultFileServiceConfig().MaxUploadBytes
	}
	if config.DownloadURLTTL <= 0 {
		config.DownloadURLTTL = DefaultFileServiceConfig().DownloadURLTTL
	}
	return &FileService{
		storage: storage,
		config:  config,
		logger:  logger,
	}
}

// Upload stores a document under a fresh tenant-prefixed key and returns
// the key callers attach to invoices and contracts
func (s *FileService) Upload(ctx context.Context, tenantID uuid.UUID, filename string, data []byte) (*UploadResponse, error) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	contentType, ok := uploadContentTypes[ext]
	if !ok {
		return nil, shared.NewDomainError("INVALID_FILE_EXTENSION", "Only pdf, png, jpg and jpeg documents are accepted")
	}
	if len(data) == 0 {
		return nil, shared.NewDomainError("EMPTY_FILE", "Uploaded document is empty")
	}
	if int64(len(data)) > s.config.MaxUploadBytes {
		return nil, shared.NewDomainError("FILE_TOO_LARGE", "Uploaded document exceeds the size limit")
	}

	key := shared.NewStorageKey(tenantID, ext)
	if err := s.storage.Upload(ctx, key, data, contentType); err != nil {
		return nil, err
	}

	s.logger.Info("document uploaded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("storage_key", key),
		zap.Int("size_bytes", len(data)))

	return &UploadResponse{
		Key:         key,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
	}, nil
}

// DownloadURL issues a presigned link for a stored document. Keys owned
// by another tenant are reported as not found
func (s *FileService) DownloadURL(ctx context.Context, tenantID uuid.UUID, key string) (*DownloadURLResponse, error) {
	owner, _, err := shared.ParseStorageKey(key)
	if err != nil {
		return nil, err
	}
	if owner != tenantID {
		return nil, shared.ErrNotFound
	}

	exists, err := s.storage.ObjectExists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.ErrNotFound
	}

	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, key, s.config.DownloadURLTTL)
	if err != nil {
		return nil, err
	}

	return &DownloadURLResponse{
		Key:       key,
		URL:       url,
		ExpiresAt: expiresAt,
	}, nil
}
