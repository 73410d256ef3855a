package notification

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

// Platform identifies the push target kind of a registered device
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
	PlatformWeb     Platform = "web"
)

// IsValid checks if the platform is supported
func (p Platform) IsValid() bool {
	switch p {
	case PlatformAndroid, PlatformIOS, PlatformWeb:
		return true
	}
	return false
}

// Device is a user's registered push token
type Device struct {
	shared.TenantAggregateRoot
	UserID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Token         string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_devices_token"`
	Platform      Platform  `gorm:"type:varchar(20);not null"`
	Active        bool      `gorm:"not null;default:true;index"`
	LastActiveAt  time.Time `gorm:"not null;index"`
	DeactivatedAt *time.Time
}

// TableName returns the table name for GORM
func (Device) TableName() string {
	return "devices"
}

// NewDevice registers a push token for a user
func NewDevice(tenantID, userID uuid.UUID, token string, platform Platform) (*Device, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, shared.NewDomainError("INVALID_TOKEN", "Device token cannot be empty")
	}
	if len(token) > 255 {
		return nil, shared.NewDomainError("INVALID_TOKEN", "Device token cannot exceed 255 characters")
	}
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Device requires a user")
	}
	if !platform.IsValid() {
		return nil, shared.NewDomainError("INVALID_PLATFORM", "Unknown platform: "+string(platform))
	}

	return &Device{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		UserID:              userID,
		Token:               token,
		Platform:            platform,
		Active:              true,
		LastActiveAt:        time.Now(),
	}, nil
}

// Touch records activity on the token
func (d *Device) Touch() {
	d.LastActiveAt = time.Now()
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
}

// Deactivate retires the token. Deactivated tokens are skipped by the
// push sender
func (d *Device) Deactivate() {
	if !d.Active {
		return
	}
	now := time.Now()
	d.Active = false
	d.DeactivatedAt = &now
	d.UpdatedAt = now
	d.IncrementVersion()
}

// Reactivate restores a previously retired token, typically when the
// same token is registered again
func (d *Device) Reactivate() {
	if d.Active {
		d.Touch()
		return
	}
	d.Active = true
	d.DeactivatedAt = nil
	d.LastActiveAt = time.Now()
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
}

// IsStale reports whether the token saw no activity since the cutoff
func (d *Device) IsStale(cutoff time.Time) bool {
	return d.LastActiveAt.Before(cutoff)
}
