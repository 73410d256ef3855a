package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/notification"
	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/infrastructure/persistence/tenant"
)

// GormDeviceRepository implements notification.DeviceRepository using GORM
type GormDeviceRepository struct {
	db *tenant.TenantDB
}

// NewGormDeviceRepository creates a new GormDeviceRepository
func NewGormDeviceRepository(db *tenant.TenantDB) *GormDeviceRepository {
	return &GormDeviceRepository{db: db}
}

// Create registers a new device
func (r *GormDeviceRepository) Create(ctx context.Context, device *notification.Device) error {
	return translateError(r.db.DB().WithContext(ctx).Create(device).Error)
}

// Update updates an existing device
func (r *GormDeviceRepository) Update(ctx context.Context, device *notification.Device) error {
	return translateError(r.db.DB().WithContext(ctx).Save(device).Error)
}

// Delete removes a device registration
func (r *GormDeviceRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithTenant(tenantID).WithContext(ctx).
		Delete(&notification.Device{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByToken finds a device by its push token within a tenant
func (r *GormDeviceRepository) FindByToken(ctx context.Context, tenantID uuid.UUID, token string) (*notification.Device, error) {
	var device notification.Device
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		First(&device, "token = ?", token).Error; err != nil {
		return nil, translateError(err)
	}
	return &device, nil
}

// FindActiveByUser finds a user's active devices
func (r *GormDeviceRepository) FindActiveByUser(ctx context.Context, tenantID, userID uuid.UUID) ([]*notification.Device, error) {
	var devices []*notification.Device
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		Where("user_id = ? AND active = ?", userID, true).
		Order("last_active_at DESC").
		Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

// FindActiveInactiveSince finds active devices without activity since the
// cutoff, across all tenants. The cleanup sweep runs without a tenant in
// context, hence Unscoped
func (r *GormDeviceRepository) FindActiveInactiveSince(ctx context.Context, cutoff time.Time, limit int) ([]*notification.Device, error) {
	query := r.db.Unscoped().WithContext(ctx).
		Where("active = ? AND last_active_at < ?", true, cutoff).
		Order("last_active_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var devices []*notification.Device
	if err := query.Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

// Ensure GormDeviceRepository implements notification.DeviceRepository
var _ notification.DeviceRepository = (*GormDeviceRepository)(nil)

// GormNotificationRepository implements notification.Repository using GORM
type GormNotificationRepository struct {
	db *tenant.TenantDB
}

// NewGormNotificationRepository creates a new GormNotificationRepository
func NewGormNotificationRepository(db *tenant.TenantDB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Create creates a notification
func (r *GormNotificationRepository) Create(ctx context.Context, notif *notification.Notification) error {
	return translateError(r.db.DB().WithContext(ctx).Create(notif).Error)
}

// CreateBatch creates several notifications at once
func (r *GormNotificationRepository) CreateBatch(ctx context.Context, notifs []*notification.Notification) error {
	if len(notifs) == 0 {
		return nil
	}
	return translateError(r.db.DB().WithContext(ctx).Create(notifs).Error)
}

// Update updates an existing notification
func (r *GormNotificationRepository) Update(ctx context.Context, notif *notification.Notification) error {
	return translateError(r.db.DB().WithContext(ctx).Save(notif).Error)
}

// FindByID finds a notification by ID within a tenant
func (r *GormNotificationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*notification.Notification, error) {
	var notif notification.Notification
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		First(&notif, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &notif, nil
}

// FindByRecipient finds a user's notifications, newest first
func (r *GormNotificationRepository) FindByRecipient(ctx context.Context, tenantID, userID uuid.UUID, filter shared.Filter) (*shared.Paginated[*notification.Notification], error) {
	query := r.db.WithTenant(tenantID).WithContext(ctx).
		Model(&notification.Notification{}).
		Where("user_id = ?", userID)

	if unread, ok := filter.Filters["unread"]; ok {
		if b, isBool := unread.(bool); isBool && b {
			query = query.Where("read_at IS NULL")
		}
	}
	if notifType, ok := filter.Filters["type"]; ok {
		query = query.Where("type = ?", notifType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, translateError(err)
	}

	var notifs []*notification.Notification
	if err := paginate(query, filter, NotificationSortFields, "created_at DESC").Find(&notifs).Error; err != nil {
		return nil, err
	}
	result := shared.NewPaginated(notifs, total, filter.Page, filter.PageSize)
	return &result, nil
}

// CountUnread counts a user's unread notifications
func (r *GormNotificationRepository) CountUnread(ctx context.Context, tenantID, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		Model(&notification.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByAlertKey reports whether a notification of the given type
// carrying the payload field alert_key was created since the cutoff
func (r *GormNotificationRepository) ExistsByAlertKey(ctx context.Context, tenantID uuid.UUID, notifType notification.Type, alertKey string, since time.Time) (bool, error) {
	query := r.db.WithTenant(tenantID).WithContext(ctx).
		Model(&notification.Notification{}).
		Where("type = ? AND payload ->> 'alert_key' = ?", notifType, alertKey)
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormNotificationRepository implements notification.Repository
var _ notification.Repository = (*GormNotificationRepository)(nil)
