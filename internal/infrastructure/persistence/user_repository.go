package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/procura/backend/internal/domain/identity"
	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/infrastructure/persistence/tenant"
)

// GormUserRepository implements UserRepository using GORM
type GormUserRepository struct {
	db *tenant.TenantDB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *tenant.TenantDB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create saves a new user. The aggregate carries its tenant ID, so the
// tenant filter from context is not applied here; the create guard still
// rejects a zero tenant_id.
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	return translateError(r.db.DB().WithContext(ctx).Create(user).Error)
}

// Update updates an existing user
func (r *GormUserRepository) Update(ctx context.Context, user *identity.User) error {
	return translateError(r.db.DB().WithContext(ctx).Save(user).Error)
}

// Delete soft-deletes a user by ID within the tenant in context
func (r *GormUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&identity.User{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a user by ID within the tenant in context
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var user identity.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// FindByEmail finds a user by email within a tenant
func (r *GormUserRepository) FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*identity.User, error) {
	var user identity.User
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// FindByEmailGlobal finds a user by email across all tenants. This backs the
// login flow, which resolves the tenant from the user record. An email that
// matches users in more than one tenant is ambiguous and reported as not
// found rather than picking one arbitrarily.
func (r *GormUserRepository) FindByEmailGlobal(ctx context.Context, email string) (*identity.User, error) {
	var users []*identity.User
	if err := r.db.DB().WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Limit(2).
		Find(&users).Error; err != nil {
		return nil, translateError(err)
	}
	if len(users) != 1 {
		return nil, shared.ErrNotFound
	}
	return users[0], nil
}

// FindByIDs resolves multiple user IDs in a single query
func (r *GormUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*identity.User, error) {
	if len(ids) == 0 {
		return []*identity.User{}, nil
	}
	var users []*identity.User
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// FindAll lists users for the tenant in context
func (r *GormUserRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*identity.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&identity.User{})

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("email ILIKE ? OR display_name ILIKE ?", pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "role":
			query = query.Where("role = ?", value)
		case "department_id":
			query = query.Where("department_id = ?", value)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var users []*identity.User
	if err := paginate(query, filter, UserSortFields, "created_at DESC").Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// FindActiveByRole finds active users holding the given role within a tenant
func (r *GormUserRepository) FindActiveByRole(ctx context.Context, tenantID uuid.UUID, role identity.Role) ([]*identity.User, error) {
	var users []*identity.User
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		Where("role = ? AND status = ?", role, identity.UserStatusActive).
		Order("created_at ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ExistsByEmail checks if an email is already registered within a tenant
func (r *GormUserRepository) ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error) {
	var count int64
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		Model(&identity.User{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormUserRepository implements UserRepository
var _ identity.UserRepository = (*GormUserRepository)(nil)
