package notification

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/procura/backend/internal/domain/notification"
	"github.com/procura/backend/internal/domain/shared"
)

// NotificationServiceConfig carries push delivery tuning
type NotificationServiceConfig struct {
	// PushEnabled gates outbound push entirely. Rows are written either way
	PushEnabled bool
	// MaxPushRetries is the number of retries after the first attempt
	// when delivery fails transiently
	MaxPushRetries int
	// PushRetryBackoff is the delay before the first retry. It doubles
	// on each subsequent retry
	PushRetryBackoff time.Duration
}

// DefaultNotificationServiceConfig returns production delivery settings
func DefaultNotificationServiceConfig() NotificationServiceConfig {
	return NotificationServiceConfig{
		PushEnabled:      true,
		MaxPushRetries:   3,
		PushRetryBackoff: 200 * time.Millisecond,
	}
}

// NotificationService writes notification records and fans them out to
// the recipient's devices. The row is the durable record; push delivery
// is best effort and never fails the operation that triggered it
type NotificationService struct {
	notifRepo  notification.Repository
	deviceRepo notification.DeviceRepository
	push       notification.PushSender
	config     NotificationServiceConfig
	logger     *zap.Logger
}

// NewNotificationService creates a new NotificationService. push may be
// nil when no transport is configured
func NewNotificationService(
	notifRepo notification.Repository,
	deviceRepo notification.DeviceRepository,
	push notification.PushSender,
	config NotificationServiceConfig,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		notifRepo:  notifRepo,
		deviceRepo: deviceRepo,
		push:       push,
		config:     config,
		logger:     logger,
	}
}

// Notify records a notification for one user and pushes it to their
// active devices
func (s *NotificationService) Notify(ctx context.Context, tenantID, userID uuid.UUID, notifType notification.Type, title, body string, payload map[string]any) (*notification.Notification, error) {
	data, err := encodePayload(payload)
	if err != nil {
		return nil, err
	}

	notif, err := notification.NewNotification(tenantID, userID, notifType, title, body, data)
	if err != nil {
		return nil, err
	}
	if err := s.notifRepo.Create(ctx, notif); err != nil {
		return nil, err
	}

	s.fanOut(ctx, tenantID, userID, notification.PushMessage{
		Type:  notifType,
		Title: title,
		Body:  body,
		Data:  data,
	})
	return notif, nil
}

// NotifyMany records the same notification for several users and pushes
// it to each. Returns how many records were written
func (s *NotificationService) NotifyMany(ctx context.Context, tenantID uuid.UUID, userIDs []uuid.UUID, notifType notification.Type, title, body string, payload map[string]any) (int, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}

	data, err := encodePayload(payload)
	if err != nil {
		return 0, err
	}

	notifs := make([]*notification.Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		notif, err := notification.NewNotification(tenantID, userID, notifType, title, body, data)
		if err != nil {
			return 0, err
		}
		notifs = append(notifs, notif)
	}
	if err := s.notifRepo.CreateBatch(ctx, notifs); err != nil {
		return 0, err
	}

	msg := notification.PushMessage{Type: notifType, Title: title, Body: body, Data: data}
	for _, userID := range userIDs {
		s.fanOut(ctx, tenantID, userID, msg)
	}
	return len(notifs), nil
}

// List returns a user's notifications, newest first
func (s *NotificationService) List(ctx context.Context, tenantID, userID uuid.UUID, filter NotificationListFilter) (*shared.Paginated[NotificationResponse], error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}

	repoFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Filters:  map[string]any{},
	}
	if filter.Unread != nil {
		repoFilter.Filters["unread"] = *filter.Unread
	}

	page, err := s.notifRepo.FindByRecipient(ctx, tenantID, userID, repoFilter)
	if err != nil {
		return nil, err
	}

	items := make([]NotificationResponse, 0, len(page.Items))
	for _, n := range page.Items {
		items = append(items, ToNotificationResponse(n))
	}
	return &shared.Paginated[NotificationResponse]{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}, nil
}

// MarkRead stamps a notification as read. Only the recipient can read
// their own notifications; marking twice keeps the first stamp
func (s *NotificationService) MarkRead(ctx context.Context, tenantID, userID, notifID uuid.UUID) (*NotificationResponse, error) {
	notif, err := s.notifRepo.FindByID(ctx, tenantID, notifID)
	if err != nil {
		return nil, err
	}
	if notif.UserID != userID {
		return nil, shared.ErrNotFound
	}

	if !notif.IsRead() {
		notif.MarkRead()
		if err := s.notifRepo.Update(ctx, notif); err != nil {
			return nil, err
		}
	}

	resp := ToNotificationResponse(notif)
	return &resp, nil
}

// CountUnread returns the number of unread notifications for a user
func (s *NotificationService) CountUnread(ctx context.Context, tenantID, userID uuid.UUID) (int64, error) {
	return s.notifRepo.CountUnread(ctx, tenantID, userID)
}

// fanOut pushes a message to every active device of the recipient.
// Failures are logged, never returned: the notification row already
// exists and the client catches up on next poll
func (s *NotificationService) fanOut(ctx context.Context, tenantID, userID uuid.UUID, msg notification.PushMessage) {
	if !s.config.PushEnabled || s.push == nil {
		return
	}

	devices, err := s.deviceRepo.FindActiveByUser(ctx, tenantID, userID)
	if err != nil {
		s.logger.Error("failed to load devices for push",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return
	}

	for _, device := range devices {
		err := s.sendWithRetry(ctx, device.Token, msg)
		if err == nil {
			continue
		}
		if errors.Is(err, notification.ErrTokenUnregistered) {
			device.Deactivate()
			if updateErr := s.deviceRepo.Update(ctx, device); updateErr != nil {
				s.logger.Error("failed to retire unregistered device",
					zap.String("device_id", device.ID.String()),
					zap.Error(updateErr))
			}
			continue
		}
		s.logger.Warn("push delivery failed",
			zap.String("device_id", device.ID.String()),
			zap.Error(err))
	}
}

// sendWithRetry delivers to one token, retrying transient failures with
// exponential backoff. An unregistered token aborts immediately
func (s *NotificationService) sendWithRetry(ctx context.Context, token string, msg notification.PushMessage) error {
	backoff := s.config.PushRetryBackoff
	var err error
	for attempt := 0; attempt <= s.config.MaxPushRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		err = s.push.Send(ctx, token, msg)
		if err == nil || errors.Is(err, notification.ErrTokenUnregistered) {
			return err
		}
	}
	return err
}

// encodePayload serializes the payload map for storage and transport
func encodePayload(payload map[string]any) (string, error) {
	if len(payload) == 0 {
		return "", nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", shared.NewDomainError("INVALID_PAYLOAD", "Notification payload cannot be serialized")
	}
	return string(data), nil
}
