package notification

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/notification"
)

// RegisterDeviceRequest registers or refreshes a push token for the
// authenticated user
type RegisterDeviceRequest struct {
	Token    string `json:"token" binding:"required,max=255"`
	Platform string `json:"platform" binding:"required,oneof=android ios web"`
}

// DeviceResponse represents a registered device in API responses
type DeviceResponse struct {
	ID           uuid.UUID             `json:"id"`
	Token        string                `json:"token"`
	Platform     notification.Platform `json:"platform"`
	Active       bool                  `json:"active"`
	LastActiveAt time.Time             `json:"last_active_at"`
	CreatedAt    time.Time             `json:"created_at"`
}

// ToDeviceResponse converts a device to a response DTO
func ToDeviceResponse(d *notification.Device) DeviceResponse {
	return DeviceResponse{
		ID:           d.ID,
		Token:        d.Token,
		Platform:     d.Platform,
		Active:       d.Active,
		LastActiveAt: d.LastActiveAt,
		CreatedAt:    d.CreatedAt,
	}
}

// NotificationListFilter represents filtering options for a user's
// notification feed
type NotificationListFilter struct {
	Page     int   `form:"page" binding:"omitempty,min=1"`
	PageSize int   `form:"page_size" binding:"omitempty,min=1,max=100"`
	Unread   *bool `form:"unread"`
}

// NotificationResponse represents one notification in API responses. The
// payload is returned as a parsed JSON object
type NotificationResponse struct {
	ID        uuid.UUID         `json:"id"`
	Type      notification.Type `json:"type"`
	Title     string            `json:"title"`
	Body      string            `json:"body,omitempty"`
	Payload   map[string]any    `json:"payload,omitempty"`
	ReadAt    *time.Time        `json:"read_at,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// ToNotificationResponse converts a notification to a response DTO
func ToNotificationResponse(n *notification.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Body:      n.Body,
		Payload:   parsePayload(n.Payload),
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

// UnreadCountResponse reports the number of unread notifications
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}

// parsePayload tolerates malformed rows: the feed must stay readable even
// if one payload cannot be decoded
func parsePayload(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}
	return payload
}
