package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/procura/backend/internal/domain/notification"
	"github.com/procura/backend/internal/domain/shared"
)

// DeviceService manages push token registrations. Tokens are unique per
// tenant; registering a token that already exists refreshes it and moves
// it to the registering user, since a shared device follows whoever
// signed in last
type DeviceService struct {
	deviceRepo notification.DeviceRepository
	logger     *zap.Logger
}

// NewDeviceService creates a new DeviceService
func NewDeviceService(deviceRepo notification.DeviceRepository, logger *zap.Logger) *DeviceService {
	return &DeviceService{
		deviceRepo: deviceRepo,
		logger:     logger,
	}
}

// Register stores a push token for the authenticated user
func (s *DeviceService) Register(ctx context.Context, tenantID, userID uuid.UUID, req RegisterDeviceRequest) (*DeviceResponse, error) {
	existing, err := s.deviceRepo.FindByToken(ctx, tenantID, req.Token)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	if existing != nil {
		existing.UserID = userID
		existing.Platform = notification.Platform(req.Platform)
		existing.Reactivate()
		if err := s.deviceRepo.Update(ctx, existing); err != nil {
			return nil, err
		}
		resp := ToDeviceResponse(existing)
		return &resp, nil
	}

	device, err := notification.NewDevice(tenantID, userID, req.Token, notification.Platform(req.Platform))
	if err != nil {
		return nil, err
	}
	if err := s.deviceRepo.Create(ctx, device); err != nil {
		return nil, err
	}

	s.logger.Info("device registered",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", userID.String()),
		zap.String("platform", req.Platform))

	resp := ToDeviceResponse(device)
	return &resp, nil
}

// Unregister retires a push token. Only the owning user can unregister a
// token; anyone else gets not found
func (s *DeviceService) Unregister(ctx context.Context, tenantID, userID uuid.UUID, token string) error {
	device, err := s.deviceRepo.FindByToken(ctx, tenantID, token)
	if err != nil {
		return err
	}
	if device.UserID != userID {
		return shared.ErrNotFound
	}
	if !device.Active {
		return nil
	}

	device.Deactivate()
	return s.deviceRepo.Update(ctx, device)
}

// DeactivateStale retires active tokens with no activity since the cutoff
// and returns how many were retired. The cleanup sweep runs this across
// all tenants
func (s *DeviceService) DeactivateStale(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	devices, err := s.deviceRepo.FindActiveInactiveSince(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}

	retired := 0
	for _, device := range devices {
		device.Deactivate()
		if err := s.deviceRepo.Update(ctx, device); err != nil {
			s.logger.Error("failed to retire stale device",
				zap.String("device_id", device.ID.String()),
				zap.Error(err))
			continue
		}
		retired++
	}

	if retired > 0 {
		s.logger.Info("retired stale devices", zap.Int("count", retired))
	}
	return retired, nil
}
