package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/procura/backend/internal/domain/notification"
	"github.com/procura/backend/internal/domain/shared"
)

// MockDeviceRepository is a mock implementation of notification.DeviceRepository
type MockDeviceRepository struct {
	mock.Mock
}

func (m *MockDeviceRepository) Create(ctx context.Context, device *notification.Device) error {
	args := m.Called(ctx, device)
	return args.Error(0)
}

func (m *MockDeviceRepository) Update(ctx context.Context, device *notification.Device) error {
	args := m.Called(ctx, device)
	return args.Error(0)
}

func (m *MockDeviceRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockDeviceRepository) FindByToken(ctx context.Context, tenantID uuid.UUID, token string) (*notification.Device, error) {
	args := m.Called(ctx, tenantID, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Device), args.Error(1)
}

func (m *MockDeviceRepository) FindActiveByUser(ctx context.Context, tenantID, userID uuid.UUID) ([]*notification.Device, error) {
	args := m.Called(ctx, tenantID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*notification.Device), args.Error(1)
}

func (m *MockDeviceRepository) FindActiveInactiveSince(ctx context.Context, cutoff time.Time, limit int) ([]*notification.Device, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*notification.Device), args.Error(1)
}

// MockNotificationRepository is a mock implementation of notification.Repository
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, notif *notification.Notification) error {
	args := m.Called(ctx, notif)
	return args.Error(0)
}

func (m *MockNotificationRepository) CreateBatch(ctx context.Context, notifs []*notification.Notification) error {
	args := m.Called(ctx, notifs)
	return args.Error(0)
}

func (m *MockNotificationRepository) Update(ctx context.Context, notif *notification.Notification) error {
	args := m.Called(ctx, notif)
	return args.Error(0)
}

func (m *MockNotificationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*notification.Notification, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Notification), args.Error(1)
}

func (m *MockNotificationRepository) FindByRecipient(ctx context.Context, tenantID, userID uuid.UUID, filter shared.Filter) (*shared.Paginated[*notification.Notification], error) {
	args := m.Called(ctx, tenantID, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*notification.Notification]), args.Error(1)
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, tenantID, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) ExistsByAlertKey(ctx context.Context, tenantID uuid.UUID, notifType notification.Type, alertKey string, since time.Time) (bool, error) {
	args := m.Called(ctx, tenantID, notifType, alertKey, since)
	return args.Bool(0), args.Error(1)
}

// MockPushSender is a mock implementation of notification.PushSender
type MockPushSender struct {
	mock.Mock
}

func (m *MockPushSender) Send(ctx context.Context, token string, msg notification.PushMessage) error {
	args := m.Called(ctx, token, msg)
	return args.Error(0)
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, code, domainErr.Code)
}

func newDeviceService(deviceRepo *MockDeviceRepository) *DeviceService {
	return NewDeviceService(deviceRepo, zap.NewNop())
}

func TestDeviceService_Register_NewToken(t *testing.T) {
	deviceRepo := new(MockDeviceRepository)
	service := newDeviceService(deviceRepo)
	tenantID := uuid.New()
	userID := uuid.New()

	deviceRepo.On("FindByToken", mock.Anything, tenantID, "fcm-token-1").Return(nil, shared.ErrNotFound)
	deviceRepo.On("Create", mock.Anything, mock.MatchedBy(func(d *notification.Device) bool {
		return d.TenantID == tenantID && d.UserID == userID &&
			d.Token == "fcm-token-1" && d.Platform == notification.PlatformAndroid && d.Active
	})).Return(nil)

	resp, err := service.Register(context.Background(), tenantID, userID, RegisterDeviceRequest{
		Token:    "fcm-token-1",
		Platform: "android",
	})

	require.NoError(t, err)
	assert.Equal(t, "fcm-token-1", resp.Token)
	assert.Equal(t, notification.PlatformAndroid, resp.Platform)
	assert.True(t, resp.Active)
	deviceRepo.AssertExpectations(t)
}

func TestDeviceService_Register_ReactivatesExistingToken(t *testing.T) {
	deviceRepo := new(MockDeviceRepository)
	service := newDeviceService(deviceRepo)
	tenantID := uuid.New()
	userID := uuid.New()

	existing, err := notification.NewDevice(tenantID, userID, "fcm-token-1", notification.PlatformIOS)
	require.NoError(t, err)
	existing.Deactivate()

	deviceRepo.On("FindByToken", mock.Anything, tenantID, "fcm-token-1").Return(existing, nil)
	deviceRepo.On("Update", mock.Anything, mock.MatchedBy(func(d *notification.Device) bool {
		return d.Active && d.DeactivatedAt == nil
	})).Return(nil)

	resp, err := service.Register(context.Background(), tenantID, userID, RegisterDeviceRequest{
		Token:    "fcm-token-1",
		Platform: "ios",
	})

	require.NoError(t, err)
	assert.True(t, resp.Active)
	deviceRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	deviceRepo.AssertExpectations(t)
}

func TestDeviceService_Register_TokenFollowsLastSignIn(t *testing.T) {
	deviceRepo := new(MockDeviceRepository)
	service := newDeviceService(deviceRepo)
	tenantID := uuid.New()
	previousOwner := uuid.New()
	newOwner := uuid.New()

	existing, err := notification.NewDevice(tenantID, previousOwner, "shared-tablet", notification.PlatformAndroid)
	require.NoError(t, err)

	deviceRepo.On("FindByToken", mock.Anything, tenantID, "shared-tablet").Return(existing, nil)
	deviceRepo.On("Update", mock.Anything, mock.MatchedBy(func(d *notification.Device) bool {
		return d.UserID == newOwner && d.Active
	})).Return(nil)

	_, err = service.Register(context.Background(), tenantID, newOwner, RegisterDeviceRequest{
		Token:    "shared-tablet",
		Platform: "android",
	})

	require.NoError(t, err)
	deviceRepo.AssertExpectations(t)
}

func TestDeviceService_Register_UnknownPlatform(t *testing.T) {
	deviceRepo := new(MockDeviceRepository)
	service := newDeviceService(deviceRepo)
	tenantID := uuid.New()

	deviceRepo.On("FindByToken", mock.Anything, tenantID, "tok").Return(nil, shared.ErrNotFound)

	_, err := service.Register(context.Background(), tenantID, uuid.New(), RegisterDeviceRequest{
		Token:    "tok",
		Platform: "blackberry",
	})

	assertDomainCode(t, err, "INVALID_PLATFORM")
	deviceRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDeviceService_Unregister(t *testing.T) {
	tenantID := uuid.New()
	ownerID := uuid.New()

	t.Run("owner retires the token", func(t *testing.T) {
		deviceRepo := new(MockDeviceRepository)
		service := newDeviceService(deviceRepo)

		device, err := notification.NewDevice(tenantID, ownerID, "tok-1", notification.PlatformWeb)
		require.NoError(t, err)

		deviceRepo.On("FindByToken", mock.Anything, tenantID, "tok-1").Return(device, nil)
		deviceRepo.On("Update", mock.Anything, mock.MatchedBy(func(d *notification.Device) bool {
			return !d.Active && d.DeactivatedAt != nil
		})).Return(nil)

		require.NoError(t, service.Unregister(context.Background(), tenantID, ownerID, "tok-1"))
		deviceRepo.AssertExpectations(t)
	})

	t.Run("someone else's token is hidden", func(t *testing.T) {
		deviceRepo := new(MockDeviceRepository)
		service := newDeviceService(deviceRepo)

		device, err := notification.NewDevice(tenantID, ownerID, "tok-1", notification.PlatformWeb)
		require.NoError(t, err)

		deviceRepo.On("FindByToken", mock.Anything, tenantID, "tok-1").Return(device, nil)

		err = service.Unregister(context.Background(), tenantID, uuid.New(), "tok-1")
		assert.ErrorIs(t, err, shared.ErrNotFound)
		deviceRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("already retired is a no-op", func(t *testing.T) {
		deviceRepo := new(MockDeviceRepository)
		service := newDeviceService(deviceRepo)

		device, err := notification.NewDevice(tenantID, ownerID, "tok-1", notification.PlatformWeb)
		require.NoError(t, err)
		device.Deactivate()

		deviceRepo.On("FindByToken", mock.Anything, tenantID, "tok-1").Return(device, nil)

		require.NoError(t, service.Unregister(context.Background(), tenantID, ownerID, "tok-1"))
		deviceRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestDeviceService_DeactivateStale(t *testing.T) {
	deviceRepo := new(MockDeviceRepository)
	service := newDeviceService(deviceRepo)
	cutoff := time.Now().Add(-30 * 24 * time.Hour)

	stale1, err := notification.NewDevice(uuid.New(), uuid.New(), "stale-1", notification.PlatformAndroid)
	require.NoError(t, err)
	stale2, err := notification.NewDevice(uuid.New(), uuid.New(), "stale-2", notification.PlatformIOS)
	require.NoError(t, err)

	deviceRepo.On("FindActiveInactiveSince", mock.Anything, cutoff, 500).
		Return([]*notification.Device{stale1, stale2}, nil)
	deviceRepo.On("Update", mock.Anything, stale1).Return(errors.New("row gone"))
	deviceRepo.On("Update", mock.Anything, stale2).Return(nil)

	retired, err := service.DeactivateStale(context.Background(), cutoff, 500)

	require.NoError(t, err)
	assert.Equal(t, 1, retired)
	assert.False(t, stale1.Active)
	assert.False(t, stale2.Active)
	deviceRepo.AssertExpectations(t)
}
