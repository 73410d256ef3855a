package identity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/procura/backend/internal/domain/identity"
	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/infrastructure/auth"
)

// UserService handles user provisioning and lifecycle. Deactivating a user
// or resetting a password revokes every token the user already holds
type UserService struct {
	userRepo      identity.UserRepository
	deptRepo      identity.DepartmentRepository
	blacklist     auth.TokenBlacklist
	tokenLifetime time.Duration
	logger        *zap.Logger
}

// NewUserService creates a new UserService. tokenLifetime must cover the
// longest-lived token so revocation entries outlast every issued token
func NewUserService(
	userRepo identity.UserRepository,
	deptRepo identity.DepartmentRepository,
	blacklist auth.TokenBlacklist,
	tokenLifetime time.Duration,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:      userRepo,
		deptRepo:      deptRepo,
		blacklist:     blacklist,
		tokenLifetime: tokenLifetime,
		logger:        logger,
	}
}

// Create provisions a new user in the tenant
func (s *UserService) Create(ctx context.Context, tenantID uuid.UUID, req CreateUserRequest) (*UserResponse, error) {
	// uniqueness checks run against the stored normal form
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.userRepo.ExistsByEmail(ctx, tenantID, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A user with this email already exists")
	}

	if req.DepartmentID != nil {
		if err := s.checkDepartment(ctx, tenantID, *req.DepartmentID); err != nil {
			return nil, err
		}
	}

	var user *identity.User
	if req.Active {
		user, err = identity.NewActiveUser(tenantID, email, req.Password, identity.Role(req.Role))
	} else {
		user, err = identity.NewUser(tenantID, email, req.Password, identity.Role(req.Role))
	}
	if err != nil {
		return nil, err
	}

	if req.DisplayName != "" {
		if err := user.SetDisplayName(req.DisplayName); err != nil {
			return nil, err
		}
	}
	if req.DepartmentID != nil {
		user.SetDepartment(req.DepartmentID)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))

	resp := ToUserResponse(user)
	return &resp, nil
}

// Update modifies a user's profile, role, department, status or password.
// A password set here is an administrative reset
func (s *UserService) Update(ctx context.Context, tenantID, userID uuid.UUID, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.findTenantUser(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	if err := user.SetDisplayName(req.DisplayName); err != nil {
		return nil, err
	}
	if role := identity.Role(req.Role); role != user.Role {
		if err := user.ChangeRole(role); err != nil {
			return nil, err
		}
	}

	if req.DepartmentID != nil {
		if err := s.checkDepartment(ctx, tenantID, *req.DepartmentID); err != nil {
			return nil, err
		}
	}
	user.SetDepartment(req.DepartmentID)

	revoke := false
	switch req.Status {
	case "active":
		if !user.IsActive() {
			if err := user.Activate(); err != nil {
				return nil, err
			}
		}
	case "deactivated":
		if user.Status != identity.UserStatusDeactivated {
			if err := user.Deactivate(); err != nil {
				return nil, err
			}
			revoke = true
		}
	}

	if req.Password != "" {
		if err := user.SetPassword(req.Password); err != nil {
			return nil, err
		}
		revoke = true
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	if revoke {
		if err := s.revokeSessions(ctx, user.ID); err != nil {
			return nil, err
		}
	}

	resp := ToUserResponse(user)
	return &resp, nil
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, tenantID, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.findTenantUser(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// List retrieves users with filtering and pagination
func (s *UserService) List(ctx context.Context, tenantID uuid.UUID, filter UserListFilter) ([]UserResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]any),
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.Role != "" {
		domainFilter.Filters["role"] = filter.Role
	}
	if filter.DepartmentID != "" {
		domainFilter.Filters["department_id"] = filter.DepartmentID
	}

	users, total, err := s.userRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, ToUserResponse(u))
	}
	return responses, total, nil
}

// Delete soft-deletes a user and revokes their sessions. Users cannot
// delete themselves
func (s *UserService) Delete(ctx context.Context, tenantID, actorID, userID uuid.UUID) error {
	if actorID == userID {
		return shared.NewDomainError("CANNOT_DELETE_SELF", "Users cannot delete their own account")
	}

	user, err := s.findTenantUser(ctx, tenantID, userID)
	if err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		return err
	}
	if err := s.revokeSessions(ctx, user.ID); err != nil {
		return err
	}

	s.logger.Info("user deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", user.ID.String()))
	return nil
}

func (s *UserService) findTenantUser(ctx context.Context, tenantID, userID uuid.UUID) (*identity.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (s *UserService) checkDepartment(ctx context.Context, tenantID, departmentID uuid.UUID) error {
	dept, err := s.deptRepo.FindByID(ctx, departmentID)
	if err != nil {
		return err
	}
	if dept.TenantID != tenantID {
		return shared.ErrNotFound
	}
	if !dept.IsActive() {
		return shared.NewDomainError("INVALID_DEPARTMENT", "Department is not active")
	}
	return nil
}

func (s *UserService) revokeSessions(ctx context.Context, userID uuid.UUID) error {
	if err := s.blacklist.AddUserTokensToBlacklist(ctx, userID.String(), s.tokenLifetime); err != nil {
		s.logger.Error("failed to revoke user sessions",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return shared.NewDomainError("TOKEN_ERROR", "User updated but session revocation failed")
	}
	return nil
}
