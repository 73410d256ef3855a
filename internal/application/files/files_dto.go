package files

import (
	"time"
)

// UploadResponse describes a stored document
type UploadResponse struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

// DownloadURLResponse carries a short-lived presigned link to a document
type DownloadURLResponse struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
