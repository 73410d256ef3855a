package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/procura/backend/internal/domain/partner"
	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/infrastructure/persistence/tenant"
)

// GormVendorRepository implements VendorRepository using GORM
type GormVendorRepository struct {
	db *tenant.TenantDB
}

// NewGormVendorRepository creates a new GormVendorRepository
func NewGormVendorRepository(db *tenant.TenantDB) *GormVendorRepository {
	return &GormVendorRepository{db: db}
}

// Create saves a new vendor
func (r *GormVendorRepository) Create(ctx context.Context, vendor *partner.Vendor) error {
	return translateError(r.db.DB().WithContext(ctx).Create(vendor).Error)
}

// Update updates an existing vendor
func (r *GormVendorRepository) Update(ctx context.Context, vendor *partner.Vendor) error {
	return translateError(r.db.DB().WithContext(ctx).Save(vendor).Error)
}

// Delete soft-deletes a vendor by ID within the tenant in context
func (r *GormVendorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&partner.Vendor{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a vendor by ID within the tenant in context
func (r *GormVendorRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Vendor, error) {
	var vendor partner.Vendor
	if err := r.db.WithContext(ctx).First(&vendor, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &vendor, nil
}

// FindByEmail finds a vendor by contact email within a tenant
func (r *GormVendorRepository) FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*partner.Vendor, error) {
	var vendor partner.Vendor
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&vendor).Error; err != nil {
		return nil, translateError(err)
	}
	return &vendor, nil
}

// FindAll lists vendors for the tenant in context
func (r *GormVendorRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*partner.Vendor, int64, error) {
	query := r.db.WithContext(ctx).Model(&partner.Vendor{})

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("legal_name ILIKE ? OR email ILIKE ? OR tax_id ILIKE ?", pattern, pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "country":
			query = query.Where("country = ?", value)
		case "min_risk_score":
			query = query.Where("risk_score >= ?", value)
		case "max_risk_score":
			query = query.Where("risk_score <= ?", value)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var vendors []*partner.Vendor
	if err := paginate(query, filter, VendorSortFields, "legal_name ASC").Find(&vendors).Error; err != nil {
		return nil, 0, err
	}
	return vendors, total, nil
}

// FindByStatus lists vendors in a given status within a tenant
func (r *GormVendorRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status partner.VendorStatus) ([]*partner.Vendor, error) {
	var vendors []*partner.Vendor
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		Where("status = ?", status).
		Order("legal_name ASC").
		Find(&vendors).Error; err != nil {
		return nil, err
	}
	return vendors, nil
}

// ExistsByTaxID checks if a tax ID is already registered within a tenant
func (r *GormVendorRepository) ExistsByTaxID(ctx context.Context, tenantID uuid.UUID, taxID string) (bool, error) {
	var count int64
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		Model(&partner.Vendor{}).
		Where("tax_id = ?", strings.ToUpper(strings.TrimSpace(taxID))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistsByEmail checks if a vendor email is already registered within a tenant
func (r *GormVendorRepository) ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error) {
	var count int64
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		Model(&partner.Vendor{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormVendorRepository implements VendorRepository
var _ partner.VendorRepository = (*GormVendorRepository)(nil)
