package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/procura/backend/internal/domain/identity"
	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/infrastructure/auth"
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	MaxLoginAttempts int           // Failed attempts before the account locks
	LockDuration     time.Duration // How long the lock holds
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
	}
}

// AuthService handles login, token refresh and logout. Login resolves the
// tenant from the user record, so a single credential pair identifies both
type AuthService struct {
	userRepo   identity.UserRepository
	deptRepo   identity.DepartmentRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	config     AuthServiceConfig
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	deptRepo identity.DepartmentRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		deptRepo:   deptRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		config:     config,
		logger:     logger,
	}
}

// Login authenticates a user by email and password and returns a token pair
func (s *AuthService) Login(ctx context.Context, req LoginRequest, ip string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmailGlobal(ctx, req.Email)
	if err != nil {
		s.logger.Warn("login for unknown email", zap.String("email", req.Email))
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	}

	if !user.CanLogin() {
		if user.IsLocked() {
			s.logger.Warn("login for locked account", zap.String("user_id", user.ID.String()))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked. Try again later or contact an administrator")
		}
		if user.Status == identity.UserStatusDeactivated {
			s.logger.Warn("login for deactivated account", zap.String("user_id", user.ID.String()))
			return nil, shared.NewDomainError("ACCOUNT_DEACTIVATED", "Account has been deactivated")
		}
		if user.Status == identity.UserStatusPending {
			return nil, shared.NewDomainError("ACCOUNT_PENDING", "Account is pending activation")
		}
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is not active")
	}

	if !user.VerifyPassword(req.Password) {
		locked := user.RecordLoginFailure(s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.userRepo.Update(ctx, user); err != nil {
			s.logger.Error("failed to record login failure", zap.Error(err))
		}

		if locked {
			s.logger.Warn("account locked after repeated failures",
				zap.String("user_id", user.ID.String()),
				zap.Int("attempts", s.config.MaxLoginAttempts))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed login attempts. Account has been locked")
		}
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	}

	tokenPair, err := s.jwtService.GenerateTokenPair(s.tokenInput(user))
	if err != nil {
		s.logger.Error("failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}

	user.RecordLoginSuccess(ip)
	if err := s.userRepo.Update(ctx, user); err != nil {
		// the login already succeeded; losing the timestamp is tolerable
		s.logger.Error("failed to record login success", zap.Error(err))
	}

	s.logger.Info("user logged in",
		zap.String("tenant_id", user.TenantID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))

	return &LoginResponse{
		TokenResponse: toTokenResponse(tokenPair),
		User:          ToUserResponse(user),
	}, nil
}

// Refresh rotates a refresh token into a new token pair. The consumed
// refresh token is blacklisted so it cannot be replayed, and the role,
// email and department are re-read from the user record so revoked
// privileges do not survive the rotation
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		s.logger.Warn("refresh token rejected", zap.Error(err))
		return nil, mapTokenError(err)
	}

	revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		s.logger.Error("blacklist lookup failed", zap.Error(err))
		return nil, shared.NewDomainError("TOKEN_ERROR", "Failed to validate refresh token")
	}
	if revoked {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Refresh token has been revoked")
	}

	invalidated, err := s.blacklist.IsUserTokenInvalidated(ctx, claims.Subject, claims.GetIssuedAtTime())
	if err != nil {
		s.logger.Error("blacklist lookup failed", zap.Error(err))
		return nil, shared.NewDomainError("TOKEN_ERROR", "Failed to validate refresh token")
	}
	if invalidated {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Session has been revoked")
	}

	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid subject in token")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		s.logger.Warn("refresh for missing user", zap.String("user_id", userID.String()))
		return nil, shared.NewDomainError("TOKEN_INVALID", "User not found")
	}
	if !user.CanLogin() {
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is no longer active")
	}

	tokenPair, err := s.jwtService.RefreshTokenPair(req.RefreshToken, s.tokenInput(user))
	if err != nil {
		s.logger.Warn("token rotation failed", zap.Error(err))
		return nil, mapTokenError(err)
	}

	if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
		s.logger.Error("failed to revoke rotated refresh token", zap.Error(err))
		return nil, shared.NewDomainError("TOKEN_ERROR", "Failed to rotate refresh token")
	}

	s.logger.Info("token refreshed",
		zap.String("user_id", user.ID.String()),
		zap.Int("refresh_count", claims.RefreshCount+1))

	resp := toTokenResponse(tokenPair)
	return &resp, nil
}

// Logout revokes the session's access token and, when supplied, its
// refresh token. Both are blacklisted for their remaining lifetime
func (s *AuthService) Logout(ctx context.Context, accessClaims *auth.Claims, req LogoutRequest) error {
	if err := s.blacklist.AddToBlacklist(ctx, accessClaims.ID, accessClaims.GetRemainingTTL()); err != nil {
		s.logger.Error("failed to blacklist access token", zap.Error(err))
		return shared.NewDomainError("TOKEN_ERROR", "Failed to revoke session")
	}

	if req.RefreshToken != "" {
		refreshClaims, err := s.jwtService.ValidateRefreshToken(req.RefreshToken)
		if err != nil {
			// already unusable, nothing to revoke
			s.logger.Warn("logout with invalid refresh token", zap.Error(err))
		} else if err := s.blacklist.AddToBlacklist(ctx, refreshClaims.ID, refreshClaims.GetRemainingTTL()); err != nil {
			s.logger.Error("failed to blacklist refresh token", zap.Error(err))
			return shared.NewDomainError("TOKEN_ERROR", "Failed to revoke session")
		}
	}

	s.logger.Info("user logged out", zap.String("user_id", accessClaims.Subject))
	return nil
}

// Me returns the authenticated user's profile with the department name and
// role capabilities resolved
func (s *AuthService) Me(ctx context.Context, tenantID, userID uuid.UUID) (*MeResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}

	resp := &MeResponse{
		User:               ToUserResponse(user),
		TenantID:           user.TenantID,
		CanManageVendors:   user.Role.CanManageVendors(),
		CanApprovePayments: user.Role.CanApprovePayments(),
	}

	if user.DepartmentID != nil {
		dept, err := s.deptRepo.FindByID(ctx, *user.DepartmentID)
		if err != nil {
			// profile still renders without the department name
			s.logger.Warn("failed to resolve department",
				zap.String("department_id", user.DepartmentID.String()),
				zap.Error(err))
		} else {
			resp.DepartmentName = dept.Name
		}
	}

	return resp, nil
}

// ChangePassword changes the caller's own password after verifying the
// current one. Other sessions of the user are revoked
func (s *AuthService) ChangePassword(ctx context.Context, tenantID, userID uuid.UUID, req ChangePasswordRequest) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.TenantID != tenantID {
		return shared.ErrNotFound
	}

	if err := user.ChangePassword(req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	ttl := s.jwtService.GetRefreshTokenExpiration()
	if err := s.blacklist.AddUserTokensToBlacklist(ctx, userID.String(), ttl); err != nil {
		s.logger.Error("failed to revoke sessions after password change", zap.Error(err))
		return shared.NewDomainError("TOKEN_ERROR", "Password changed but session revocation failed")
	}

	s.logger.Info("password changed", zap.String("user_id", userID.String()))
	return nil
}

func (s *AuthService) tokenInput(user *identity.User) auth.GenerateTokenInput {
	return auth.GenerateTokenInput{
		TenantID:     user.TenantID,
		UserID:       user.ID,
		Role:         string(user.Role),
		Email:        user.Email,
		DepartmentID: user.DepartmentID,
	}
}

func toTokenResponse(pair *auth.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		TokenType:             pair.TokenType,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
	}
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum refresh count exceeded. Please log in again")
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidTokenType),
		errors.Is(err, auth.ErrInvalidClaims):
		return shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	default:
		return shared.NewDomainError("TOKEN_ERROR", "Failed to validate refresh token")
	}
}
