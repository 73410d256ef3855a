package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/procura/backend/internal/domain/identity"
	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/infrastructure/persistence/tenant"
)

// GormDepartmentRepository implements DepartmentRepository using GORM
type GormDepartmentRepository struct {
	db *tenant.TenantDB
}

// NewGormDepartmentRepository creates a new GormDepartmentRepository
func NewGormDepartmentRepository(db *tenant.TenantDB) *GormDepartmentRepository {
	return &GormDepartmentRepository{db: db}
}

// Create saves a new department
func (r *GormDepartmentRepository) Create(ctx context.Context, dept *identity.Department) error {
	return translateError(r.db.DB().WithContext(ctx).Create(dept).Error)
}

// Update updates an existing department
func (r *GormDepartmentRepository) Update(ctx context.Context, dept *identity.Department) error {
	return translateError(r.db.DB().WithContext(ctx).Save(dept).Error)
}

// Delete removes a department by ID within the tenant in context
func (r *GormDepartmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&identity.Department{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a department by ID within the tenant in context
func (r *GormDepartmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Department, error) {
	var dept identity.Department
	if err := r.db.WithContext(ctx).First(&dept, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &dept, nil
}

// FindByCode finds a department by code within a tenant
func (r *GormDepartmentRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*identity.Department, error) {
	var dept identity.Department
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&dept).Error; err != nil {
		return nil, translateError(err)
	}
	return &dept, nil
}

// FindByIDs resolves multiple department IDs in a single query
func (r *GormDepartmentRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*identity.Department, error) {
	if len(ids) == 0 {
		return []*identity.Department{}, nil
	}
	var depts []*identity.Department
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&depts).Error; err != nil {
		return nil, err
	}
	return depts, nil
}

// FindAll lists departments for the tenant in context
func (r *GormDepartmentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*identity.Department, int64, error) {
	query := r.db.WithContext(ctx).Model(&identity.Department{})

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR code ILIKE ?", pattern, pattern)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var depts []*identity.Department
	if err := paginate(query, filter, DepartmentSortFields, "code ASC").Find(&depts).Error; err != nil {
		return nil, 0, err
	}
	return depts, total, nil
}

// ExistsByCode checks if a department code exists within a tenant
func (r *GormDepartmentRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		Model(&identity.Department{}).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormDepartmentRepository implements DepartmentRepository
var _ identity.DepartmentRepository = (*GormDepartmentRepository)(nil)
