package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/procura/backend/internal/domain/identity"
	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/infrastructure/auth"
	"github.com/procura/backend/internal/infrastructure/config"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*identity.User, error) {
	args := m.Called(ctx, tenantID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmailGlobal(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*identity.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*identity.User, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*identity.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) FindActiveByRole(ctx context.Context, tenantID uuid.UUID, role identity.Role) ([]*identity.User, error) {
	args := m.Called(ctx, tenantID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*identity.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error) {
	args := m.Called(ctx, tenantID, email)
	return args.Bool(0), args.Error(1)
}

// MockDepartmentRepository is a mock implementation of identity.DepartmentRepository
type MockDepartmentRepository struct {
	mock.Mock
}

func (m *MockDepartmentRepository) Create(ctx context.Context, dept *identity.Department) error {
	args := m.Called(ctx, dept)
	return args.Error(0)
}

func (m *MockDepartmentRepository) Update(ctx context.Context, dept *identity.Department) error {
	args := m.Called(ctx, dept)
	return args.Error(0)
}

func (m *MockDepartmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDepartmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Department, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Department), args.Error(1)
}

func (m *MockDepartmentRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*identity.Department, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Department), args.Error(1)
}

func (m *MockDepartmentRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*identity.Department, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*identity.Department), args.Error(1)
}

func (m *MockDepartmentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*identity.Department, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*identity.Department), args.Get(1).(int64), args.Error(2)
}

func (m *MockDepartmentRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, tenantID, code)
	return args.Bool(0), args.Error(1)
}

const testPassword = "Procura#2026"

type authHarness struct {
	users     *MockUserRepository
	depts     *MockDepartmentRepository
	blacklist *auth.InMemoryTokenBlacklist
	jwt       *auth.JWTService
	service   *AuthService
}

func newAuthHarness(t *testing.T) *authHarness {
	t.Helper()
	h := &authHarness{
		users:     new(MockUserRepository),
		depts:     new(MockDepartmentRepository),
		blacklist: auth.NewInMemoryTokenBlacklist(),
	}
	h.jwt = auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-access-secret",
		RefreshSecret:          "test-refresh-secret",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "procura-test",
		MaxRefreshCount:        10,
	})
	h.service = NewAuthService(h.users, h.depts, h.jwt, h.blacklist, AuthServiceConfig{
		MaxLoginAttempts: 3,
		LockDuration:     time.Minute,
	}, zap.NewNop())
	return h
}

func activeUser(t *testing.T, tenantID uuid.UUID) *identity.User {
	t.Helper()
	user, err := identity.NewActiveUser(tenantID, "buyer@acme.test", testPassword, identity.RoleProcurement)
	require.NoError(t, err)
	return user
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, code, domainErr.Code)
}

func TestAuthService_Login(t *testing.T) {
	h := newAuthHarness(t)
	tenantID := uuid.New()
	user := activeUser(t, tenantID)

	h.users.On("FindByEmailGlobal", mock.Anything, "buyer@acme.test").Return(user, nil)
	h.users.On("Update", mock.Anything, user).Return(nil)

	resp, err := h.service.Login(context.Background(), LoginRequest{
		Email:    "buyer@acme.test",
		Password: testPassword,
	}, "203.0.113.7")

	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, user.Email, resp.User.Email)
	assert.Equal(t, "203.0.113.7", user.LastLoginIP)
	require.NotNil(t, user.LastLoginAt)

	claims, err := h.jwt.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, tenantID.String(), claims.TenantID)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, string(identity.RoleProcurement), claims.Role)
	assert.Equal(t, user.Email, claims.Email)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	h := newAuthHarness(t)

	h.users.On("FindByEmailGlobal", mock.Anything, "ghost@acme.test").Return(nil, shared.ErrNotFound)

	_, err := h.service.Login(context.Background(), LoginRequest{
		Email:    "ghost@acme.test",
		Password: testPassword,
	}, "203.0.113.7")

	assertDomainCode(t, err, "INVALID_CREDENTIALS")
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	h := newAuthHarness(t)
	user := activeUser(t, uuid.New())

	h.users.On("FindByEmailGlobal", mock.Anything, user.Email).Return(user, nil)
	h.users.On("Update", mock.Anything, user).Return(nil)

	_, err := h.service.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: "not-the-password1",
	}, "203.0.113.7")

	assertDomainCode(t, err, "INVALID_CREDENTIALS")
	assert.Equal(t, 1, user.FailedAttempts)
}

func TestAuthService_Login_LocksAfterMaxAttempts(t *testing.T) {
	h := newAuthHarness(t)
	user := activeUser(t, uuid.New())
	user.FailedAttempts = 2 // one short of the harness limit

	h.users.On("FindByEmailGlobal", mock.Anything, user.Email).Return(user, nil)
	h.users.On("Update", mock.Anything, user).Return(nil)

	_, err := h.service.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: "not-the-password1",
	}, "203.0.113.7")

	assertDomainCode(t, err, "ACCOUNT_LOCKED")
	assert.True(t, user.IsLocked())

	// subsequent attempts are rejected before password verification
	_, err = h.service.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: testPassword,
	}, "203.0.113.7")
	assertDomainCode(t, err, "ACCOUNT_LOCKED")
}

func TestAuthService_Login_InactiveAccounts(t *testing.T) {
	h := newAuthHarness(t)
	tenantID := uuid.New()

	deactivated := activeUser(t, tenantID)
	require.NoError(t, deactivated.Deactivate())

	pending, err := identity.NewUser(tenantID, "new.hire@acme.test", testPassword, identity.RoleFinance)
	require.NoError(t, err)

	h.users.On("FindByEmailGlobal", mock.Anything, deactivated.Email).Return(deactivated, nil)
	h.users.On("FindByEmailGlobal", mock.Anything, pending.Email).Return(pending, nil)

	_, err = h.service.Login(context.Background(), LoginRequest{Email: deactivated.Email, Password: testPassword}, "")
	assertDomainCode(t, err, "ACCOUNT_DEACTIVATED")

	_, err = h.service.Login(context.Background(), LoginRequest{Email: pending.Email, Password: testPassword}, "")
	assertDomainCode(t, err, "ACCOUNT_PENDING")

	h.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestAuthService_Refresh_RotatesAndRevokesOld(t *testing.T) {
	h := newAuthHarness(t)
	user := activeUser(t, uuid.New())

	pair, err := h.jwt.GenerateTokenPair(auth.GenerateTokenInput{
		TenantID: user.TenantID, UserID: user.ID,
		Role: string(user.Role), Email: user.Email,
	})
	require.NoError(t, err)

	h.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)

	resp, err := h.service.Refresh(context.Background(), RefreshRequest{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, resp.RefreshToken)

	// the consumed refresh token must not be replayable
	_, err = h.service.Refresh(context.Background(), RefreshRequest{RefreshToken: pair.RefreshToken})
	assertDomainCode(t, err, "TOKEN_INVALID")
}

func TestAuthService_Refresh_PicksUpRoleChange(t *testing.T) {
	h := newAuthHarness(t)
	user := activeUser(t, uuid.New())

	pair, err := h.jwt.GenerateTokenPair(auth.GenerateTokenInput{
		TenantID: user.TenantID, UserID: user.ID,
		Role: string(user.Role), Email: user.Email,
	})
	require.NoError(t, err)

	require.NoError(t, user.ChangeRole(identity.RoleManager))
	h.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)

	resp, err := h.service.Refresh(context.Background(), RefreshRequest{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)

	claims, err := h.jwt.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, string(identity.RoleManager), claims.Role)
}

func TestAuthService_Refresh_DeactivatedUser(t *testing.T) {
	h := newAuthHarness(t)
	user := activeUser(t, uuid.New())

	pair, err := h.jwt.GenerateTokenPair(auth.GenerateTokenInput{
		TenantID: user.TenantID, UserID: user.ID,
		Role: string(user.Role), Email: user.Email,
	})
	require.NoError(t, err)

	require.NoError(t, user.Deactivate())
	h.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)

	_, err = h.service.Refresh(context.Background(), RefreshRequest{RefreshToken: pair.RefreshToken})
	assertDomainCode(t, err, "ACCOUNT_INACTIVE")
}

func TestAuthService_Refresh_RevokedSession(t *testing.T) {
	h := newAuthHarness(t)
	user := activeUser(t, uuid.New())

	pair, err := h.jwt.GenerateTokenPair(auth.GenerateTokenInput{
		TenantID: user.TenantID, UserID: user.ID,
		Role: string(user.Role), Email: user.Email,
	})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, h.blacklist.AddUserTokensToBlacklist(context.Background(), user.ID.String(), time.Hour))

	_, err = h.service.Refresh(context.Background(), RefreshRequest{RefreshToken: pair.RefreshToken})
	assertDomainCode(t, err, "TOKEN_INVALID")
	h.users.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestAuthService_Refresh_GarbageToken(t *testing.T) {
	h := newAuthHarness(t)

	_, err := h.service.Refresh(context.Background(), RefreshRequest{RefreshToken: "not.a.token"})
	assertDomainCode(t, err, "TOKEN_INVALID")
}

func TestAuthService_Logout(t *testing.T) {
	h := newAuthHarness(t)
	user := activeUser(t, uuid.New())

	pair, err := h.jwt.GenerateTokenPair(auth.GenerateTokenInput{
		TenantID: user.TenantID, UserID: user.ID,
		Role: string(user.Role), Email: user.Email,
	})
	require.NoError(t, err)

	claims, err := h.jwt.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	err = h.service.Logout(context.Background(), claims, LogoutRequest{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)

	revoked, err := h.blacklist.IsBlacklisted(context.Background(), claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	h.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	_, err = h.service.Refresh(context.Background(), RefreshRequest{RefreshToken: pair.RefreshToken})
	assertDomainCode(t, err, "TOKEN_INVALID")
}

func TestAuthService_Me(t *testing.T) {
	h := newAuthHarness(t)
	tenantID := uuid.New()
	user := activeUser(t, tenantID)

	dept, err := identity.NewDepartment(tenantID, "PROC", "Procurement")
	require.NoError(t, err)
	user.SetDepartment(&dept.ID)

	h.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	h.depts.On("FindByID", mock.Anything, dept.ID).Return(dept, nil)

	resp, err := h.service.Me(context.Background(), tenantID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, resp.User.Email)
	assert.Equal(t, tenantID, resp.TenantID)
	assert.Equal(t, "Procurement", resp.DepartmentName)
	assert.True(t, resp.CanManageVendors)
	assert.False(t, resp.CanApprovePayments)
}

func TestAuthService_Me_OtherTenantHidden(t *testing.T) {
	h := newAuthHarness(t)
	user := activeUser(t, uuid.New())

	h.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)

	_, err := h.service.Me(context.Background(), uuid.New(), user.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAuthService_ChangePassword(t *testing.T) {
	t.Run("success revokes other sessions", func(t *testing.T) {
		h := newAuthHarness(t)
		user := activeUser(t, uuid.New())

		pair, err := h.jwt.GenerateTokenPair(auth.GenerateTokenInput{
			TenantID: user.TenantID, UserID: user.ID,
			Role: string(user.Role), Email: user.Email,
		})
		require.NoError(t, err)
		claims, err := h.jwt.ValidateAccessToken(pair.AccessToken)
		require.NoError(t, err)

		h.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		h.users.On("Update", mock.Anything, user).Return(nil)

		time.Sleep(10 * time.Millisecond)
		err = h.service.ChangePassword(context.Background(), user.TenantID, user.ID, ChangePasswordRequest{
			OldPassword: testPassword,
			NewPassword: "Rotated#2027",
		})
		require.NoError(t, err)
		assert.True(t, user.VerifyPassword("Rotated#2027"))

		invalidated, err := h.blacklist.IsUserTokenInvalidated(context.Background(), user.ID.String(), claims.GetIssuedAtTime())
		require.NoError(t, err)
		assert.True(t, invalidated)
	})

	t.Run("wrong old password", func(t *testing.T) {
		h := newAuthHarness(t)
		user := activeUser(t, uuid.New())

		h.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)

		err := h.service.ChangePassword(context.Background(), user.TenantID, user.ID, ChangePasswordRequest{
			OldPassword: "wrong-old-1",
			NewPassword: "Rotated#2027",
		})
		assertDomainCode(t, err, "INVALID_PASSWORD")
		h.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}
