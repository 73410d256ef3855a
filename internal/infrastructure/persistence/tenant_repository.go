package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/procura/backend/internal/domain/identity"
	"github.com/procura/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormTenantRepository implements TenantRepository using GORM.
// Tenants are the one global table, so this repository takes the raw DB.
type GormTenantRepository struct {
	db *gorm.DB
}

// NewGormTenantRepository creates a new GormTenantRepository
func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

// Create saves a new tenant
func (r *GormTenantRepository) Create(ctx context.Context, tenant *identity.Tenant) error {
	return translateError(r.db.WithContext(ctx).Create(tenant).Error)
}

// Update updates an existing tenant
func (r *GormTenantRepository) Update(ctx context.Context, tenant *identity.Tenant) error {
	return translateError(r.db.WithContext(ctx).Save(tenant).Error)
}

// FindByID finds a tenant by ID
func (r *GormTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	var tenant identity.Tenant
	if err := r.db.WithContext(ctx).First(&tenant, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &tenant, nil
}

// FindByCode finds a tenant by its unique code
func (r *GormTenantRepository) FindByCode(ctx context.Context, code string) (*identity.Tenant, error) {
	var tenant identity.Tenant
	if err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&tenant).Error; err != nil {
		return nil, translateError(err)
	}
	return &tenant, nil
}

// FindAll lists tenants
func (r *GormTenantRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*identity.Tenant, int64, error) {
	query := r.db.WithContext(ctx).Model(&identity.Tenant{})

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR code ILIKE ?", pattern, pattern)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tenants []*identity.Tenant
	if err := paginate(query, filter, TenantSortFields, "created_at DESC").Find(&tenants).Error; err != nil {
		return nil, 0, err
	}
	return tenants, total, nil
}

// FindActiveIDs lists the IDs of all active tenants for the sweeps
func (r *GormTenantRepository) FindActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&identity.Tenant{}).
		Where("status = ?", identity.TenantStatusActive).
		Order("created_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// ExistsByCode checks if a tenant code is already taken
func (r *GormTenantRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&identity.Tenant{}).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// paginate applies pagination and ordering shared by the list queries.
// The sort field is checked against the entity's whitelist so request
// input never reaches ORDER BY raw
func paginate(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultOrder string) *gorm.DB {
	if field := ValidateSortField(filter.OrderBy, allowed, ""); field != "" {
		query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
	} else if defaultOrder != "" {
		query = query.Order(defaultOrder)
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	return query
}

// Ensure GormTenantRepository implements TenantRepository
var _ identity.TenantRepository = (*GormTenantRepository)(nil)
