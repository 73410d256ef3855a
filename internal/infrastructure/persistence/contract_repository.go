package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procura/backend/internal/domain/contract"
	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/infrastructure/persistence/tenant"
)

// GormContractRepository implements contract.Repository using GORM
type GormContractRepository struct {
	db *tenant.TenantDB
}

// NewGormContractRepository creates a new GormContractRepository
func NewGormContractRepository(db *tenant.TenantDB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

// Create creates a new contract
func (r *GormContractRepository) Create(ctx context.Context, c *contract.Contract) error {
	return translateError(r.db.DB().WithContext(ctx).Create(c).Error)
}

// Update updates an existing contract
func (r *GormContractRepository) Update(ctx context.Context, c *contract.Contract) error {
	return translateError(r.db.DB().WithContext(ctx).Save(c).Error)
}

// FindByID finds a contract by ID within a tenant
func (r *GormContractRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*contract.Contract, error) {
	var c contract.Contract
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		First(&c, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &c, nil
}

// FindByNumber finds a contract by its number within a tenant
func (r *GormContractRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, contractNumber string) (*contract.Contract, error) {
	var c contract.Contract
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		First(&c, "contract_number = ?", contractNumber).Error; err != nil {
		return nil, translateError(err)
	}
	return &c, nil
}

// FindByVendor finds a vendor's contracts with pagination
func (r *GormContractRepository) FindByVendor(ctx context.Context, tenantID, vendorID uuid.UUID, filter shared.Filter) (*shared.Paginated[*contract.Contract], error) {
	query := r.db.WithTenant(tenantID).WithContext(ctx).
		Model(&contract.Contract{}).
		Where("vendor_id = ?", vendorID)
	query = r.applyFilter(query, filter)
	return r.page(query, filter)
}

// FindAll finds all contracts within a tenant with pagination
func (r *GormContractRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[*contract.Contract], error) {
	query := r.db.WithTenant(tenantID).WithContext(ctx).Model(&contract.Contract{})
	query = r.applyFilter(query, filter)
	return r.page(query, filter)
}

// FindActiveExpiringBefore finds active contracts, across tenants, whose
// expiry date falls before the cutoff. The expiry sweep runs without a
// tenant in context, hence Unscoped
func (r *GormContractRepository) FindActiveExpiringBefore(ctx context.Context, cutoff time.Time) ([]*contract.Contract, error) {
	var contracts []*contract.Contract
	if err := r.db.Unscoped().WithContext(ctx).
		Where("status = ? AND expiry_date < ?", contract.StatusActive, cutoff).
		Order("expiry_date ASC").
		Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

// ExistsByNumber checks whether a contract number is taken
func (r *GormContractRepository) ExistsByNumber(ctx context.Context, tenantID uuid.UUID, contractNumber string) (bool, error) {
	var count int64
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		Model(&contract.Contract{}).
		Where("contract_number = ?", contractNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormContractRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("contract_number ILIKE ? OR title ILIKE ?", searchPattern, searchPattern)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if expiringBefore, ok := filter.Filters["expiring_before"]; ok {
		query = query.Where("expiry_date < ?", expiringBefore)
	}
	return query
}

func (r *GormContractRepository) page(query *gorm.DB, filter shared.Filter) (*shared.Paginated[*contract.Contract], error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, translateError(err)
	}

	var contracts []*contract.Contract
	if err := paginate(query, filter, ContractSortFields, "expiry_date ASC").Find(&contracts).Error; err != nil {
		return nil, err
	}
	result := shared.NewPaginated(contracts, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Ensure GormContractRepository implements contract.Repository
var _ contract.Repository = (*GormContractRepository)(nil)
