package notification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

// DeviceRepository defines the interface for device token persistence
type DeviceRepository interface {
	// Create registers a new device
	Create(ctx context.Context, device *Device) error

	// Update updates an existing device
	Update(ctx context.Context, device *Device) error

	// Delete removes a device registration
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// FindByToken finds a device by its push token within a tenant
	FindByToken(ctx context.Context, tenantID uuid.UUID, token string) (*Device, error)

	// FindActiveByUser finds a user's active devices
	FindActiveByUser(ctx context.Context, tenantID, userID uuid.UUID) ([]*Device, error)

	// FindActiveInactiveSince finds active devices without activity
	// since the cutoff, across tenants, for the cleanup sweep
	FindActiveInactiveSince(ctx context.Context, cutoff time.Time, limit int) ([]*Device, error)
}

// Repository defines the interface for notification persistence
type Repository interface {
	// Create creates a notification
	Create(ctx context.Context, notif *Notification) error

	// CreateBatch creates several notifications at once
	CreateBatch(ctx context.Context, notifs []*Notification) error

	// Update updates an existing notification
	Update(ctx context.Context, notif *Notification) error

	// FindByID finds a notification by ID within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Notification, error)

	// FindByRecipient finds a user's notifications, newest first
	FindByRecipient(ctx context.Context, tenantID, userID uuid.UUID, filter shared.Filter) (*shared.Paginated[*Notification], error)

	// CountUnread counts a user's unread notifications
	CountUnread(ctx context.Context, tenantID, userID uuid.UUID) (int64, error)

	// ExistsByAlertKey reports whether a notification of the given type
	// carrying the payload field alert_key was created in the tenant
	// since the cutoff. A zero cutoff matches any age. Sweeps use this
	// to keep threshold alerts from firing twice
	ExistsByAlertKey(ctx context.Context, tenantID uuid.UUID, notifType Type, alertKey string, since time.Time) (bool, error)
}
