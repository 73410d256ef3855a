package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	identityapp "github.com/procura/backend/internal/application/identity"
	"github.com/procura/backend/internal/domain/identity"
	"github.com/procura/backend/internal/infrastructure/auth"
	"github.com/procura/backend/internal/infrastructure/config"
	"github.com/procura/backend/internal/infrastructure/persistence"
	"github.com/procura/backend/internal/infrastructure/persistence/tenant"
)

type authHarness struct {
	tdb      *TestDB
	auth     *identityapp.AuthService
	jwt      *auth.JWTService
	userRepo *persistence.GormUserRepository
	config   identityapp.AuthServiceConfig
}

func newAuthHarness(t *testing.T) *authHarness {
	t.Helper()

	tdb := NewSharedTestDB(t)
	tenantDB := tenant.NewTenantDB(tdb.DB)
	userRepo := persistence.NewGormUserRepository(tenantDB)
	deptRepo := persistence.NewGormDepartmentRepository(tenantDB)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "integration-test-secret-0123456789abcdef",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "procura-test",
		MaxRefreshCount:        10,
	})

	cfg := identityapp.AuthServiceConfig{
		MaxLoginAttempts: 3,
		LockDuration:     time.Hour,
	}

	return &authHarness{
		tdb:      tdb,
		auth:     identityapp.NewAuthService(userRepo, deptRepo, jwtService, auth.NewInMemoryTokenBlacklist(), cfg, zap.NewNop()),
		jwt:      jwtService,
		userRepo: userRepo,
		config:   cfg,
	}
}

func (h *authHarness) seedLoginUser(t *testing.T, password string) (*identity.User, context.Context) {
	t.Helper()

	tenantID := h.tdb.CreateTestTenant()
	ctx := h.tdb.TenantContext(tenantID)

	user, err := identity.NewActiveUser(tenantID, "login-"+user8()+"@procura.test", password, identity.RoleProcurement)
	require.NoError(t, err)
	require.NoError(t, h.userRepo.Create(ctx, user))
	return user, ctx
}

func user8() string {
	return time.Now().Format("150405.000000")
}

func TestAuth_LoginAndRefresh(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	h := newAuthHarness(t)
	const password = "Str0ngPassw0rd!"
	user, ctx := h.seedLoginUser(t, password)

	resp, err := h.auth.Login(ctx, identityapp.LoginRequest{
		Email:    user.Email,
		Password: password,
	}, "203.0.113.10")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, user.ID, resp.User.ID)

	// The access token carries the tenant, which the middleware relies on
	claims, err := h.jwt.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.TenantID.String(), claims.TenantID)

	// Refresh rotates the pair
	refreshed, err := h.auth.Refresh(ctx, identityapp.RefreshRequest{RefreshToken: resp.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, resp.RefreshToken, refreshed.RefreshToken)

	// A refresh token is never valid as an access token
	_, err = h.jwt.ValidateAccessToken(resp.RefreshToken)
	require.Error(t, err)
}

func TestAuth_WrongPassword(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	h := newAuthHarness(t)
	user, ctx := h.seedLoginUser(t, "Str0ngPassw0rd!")

	_, err := h.auth.Login(ctx, identityapp.LoginRequest{
		Email:    user.Email,
		Password: "not-the-password",
	}, "203.0.113.10")
	require.Error(t, err)

	// Credential and unknown-user failures look the same to the caller
	_, err2 := h.auth.Login(ctx, identityapp.LoginRequest{
		Email:    "nobody@procura.test",
		Password: "not-the-password",
	}, "203.0.113.10")
	require.Error(t, err2)
	assert.Equal(t, err.Error(), err2.Error())
}

func TestAuth_LockoutAfterRepeatedFailures(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	h := newAuthHarness(t)
	const password = "Str0ngPassw0rd!"
	user, ctx := h.seedLoginUser(t, password)

	for i := 0; i < h.config.MaxLoginAttempts; i++ {
		_, err := h.auth.Login(ctx, identityapp.LoginRequest{
			Email:    user.Email,
			Password: "wrong-password",
		}, "203.0.113.10")
		require.Error(t, err)
	}

	// The account is now locked, so even the right password is refused
	_, err := h.auth.Login(ctx, identityapp.LoginRequest{
		Email:    user.Email,
		Password: password,
	}, "203.0.113.10")
	require.Error(t, err)

	locked, err := h.userRepo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, locked.IsLocked())
}

func TestAuth_LogoutRevokesTokens(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	h := newAuthHarness(t)
	const password = "Str0ngPassw0rd!"
	user, ctx := h.seedLoginUser(t, password)

	resp, err := h.auth.Login(ctx, identityapp.LoginRequest{
		Email:    user.Email,
		Password: password,
	}, "203.0.113.10")
	require.NoError(t, err)

	claims, err := h.jwt.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)

	require.NoError(t, h.auth.Logout(ctx, claims, identityapp.LogoutRequest{
		RefreshToken: resp.RefreshToken,
	}))

	// The revoked refresh token no longer rotates
	_, err = h.auth.Refresh(ctx, identityapp.RefreshRequest{RefreshToken: resp.RefreshToken})
	require.Error(t, err)
}
