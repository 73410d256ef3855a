package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procura/backend/internal/domain/rfq"
	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/infrastructure/persistence/tenant"
)

// GormRfqRepository implements rfq.Repository using GORM
type GormRfqRepository struct {
	db *tenant.TenantDB
}

// NewGormRfqRepository creates a new GormRfqRepository
func NewGormRfqRepository(db *tenant.TenantDB) *GormRfqRepository {
	return &GormRfqRepository{db: db}
}

// Create creates a new RFQ with its lines and invitations
func (r *GormRfqRepository) Create(ctx context.Context, req *rfq.RFQ) error {
	return translateError(r.db.DB().WithContext(ctx).Create(req).Error)
}

// Update updates an existing RFQ. Quotes arrive one vendor at a time, so
// associations are saved in full to pick up new quotes and invitation flips
func (r *GormRfqRepository) Update(ctx context.Context, req *rfq.RFQ) error {
	return translateError(r.db.DB().WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(req).Error)
}

// FindByID finds an RFQ by ID within a tenant, loading lines, invitations and quotes
func (r *GormRfqRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*rfq.RFQ, error) {
	var req rfq.RFQ
	if err := r.preloadAll(r.db.WithTenant(tenantID).WithContext(ctx)).
		First(&req, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &req, nil
}

// FindByNumber finds an RFQ by its number within a tenant
func (r *GormRfqRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, rfqNumber string) (*rfq.RFQ, error) {
	var req rfq.RFQ
	if err := r.preloadAll(r.db.WithTenant(tenantID).WithContext(ctx)).
		First(&req, "rfq_number = ?", rfqNumber).Error; err != nil {
		return nil, translateError(err)
	}
	return &req, nil
}

// FindAll finds all RFQs within a tenant with pagination
func (r *GormRfqRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[*rfq.RFQ], error) {
	query := r.db.WithTenant(tenantID).WithContext(ctx).Model(&rfq.RFQ{})

	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("rfq_number ILIKE ? OR title ILIKE ?", searchPattern, searchPattern)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	return r.page(query, filter)
}

// FindByVendorInvitation finds RFQs a vendor was invited to
func (r *GormRfqRepository) FindByVendorInvitation(ctx context.Context, tenantID, vendorID uuid.UUID, filter shared.Filter) (*shared.Paginated[*rfq.RFQ], error) {
	query := r.db.WithTenant(tenantID).WithContext(ctx).
		Model(&rfq.RFQ{}).
		Where("id IN (?)", r.db.DB().
			Model(&rfq.Invitation{}).
			Select("rfq_id").
			Where("vendor_id = ?", vendorID))

	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	return r.page(query, filter)
}

// GenerateRfqNumber generates a sequential RFQ number per tenant.
// Format: RFQ-NNNNNN (e.g., RFQ-000042)
func (r *GormRfqRepository) GenerateRfqNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	const prefix = "RFQ-"

	var last rfq.RFQ
	err := r.db.WithTenant(tenantID).WithContext(ctx).
		Model(&rfq.RFQ{}).
		Where("rfq_number LIKE ?", prefix+"%").
		Order("rfq_number DESC").
		First(&last).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && last.RfqNumber != "" {
		parts := strings.Split(last.RfqNumber, "-")
		if len(parts) == 2 {
			var num int64
			_, parseErr := fmt.Sscanf(parts[1], "%d", &num)
			if parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	rfqNumber := fmt.Sprintf("%s%06d", prefix, nextNum)

	// Verify uniqueness
	exists, err := r.existsByNumber(ctx, tenantID, rfqNumber)
	if err != nil {
		return "", err
	}
	if exists {
		// If taken, try incrementing until we find a free one
		for i := 0; i < 100; i++ {
			nextNum++
			rfqNumber = fmt.Sprintf("%s%06d", prefix, nextNum)
			exists, err = r.existsByNumber(ctx, tenantID, rfqNumber)
			if err != nil {
				return "", err
			}
			if !exists {
				break
			}
		}
	}

	return rfqNumber, nil
}

func (r *GormRfqRepository) existsByNumber(ctx context.Context, tenantID uuid.UUID, rfqNumber string) (bool, error) {
	var count int64
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		Model(&rfq.RFQ{}).
		Where("rfq_number = ?", rfqNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRfqRepository) preloadAll(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Lines").
		Preload("Invitations").
		Preload("Quotes").
		Preload("Quotes.Lines")
}

func (r *GormRfqRepository) page(query *gorm.DB, filter shared.Filter) (*shared.Paginated[*rfq.RFQ], error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, translateError(err)
	}

	var rfqs []*rfq.RFQ
	if err := r.preloadAll(paginate(query, filter, RfqSortFields, "created_at DESC")).Find(&rfqs).Error; err != nil {
		return nil, err
	}
	result := shared.NewPaginated(rfqs, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Ensure GormRfqRepository implements rfq.Repository
var _ rfq.Repository = (*GormRfqRepository)(nil)
