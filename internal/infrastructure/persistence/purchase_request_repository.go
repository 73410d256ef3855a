package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procura/backend/internal/domain/procurement"
	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/infrastructure/persistence/tenant"
)

// GormPurchaseRequestRepository implements procurement.PurchaseRequestRepository using GORM
type GormPurchaseRequestRepository struct {
	db *tenant.TenantDB
}

// NewGormPurchaseRequestRepository creates a new GormPurchaseRequestRepository
func NewGormPurchaseRequestRepository(db *tenant.TenantDB) *GormPurchaseRequestRepository {
	return &GormPurchaseRequestRepository{db: db}
}

// Create saves a new purchase request with its lines
func (r *GormPurchaseRequestRepository) Create(ctx context.Context, pr *procurement.PurchaseRequest) error {
	return translateError(r.db.DB().WithContext(ctx).Create(pr).Error)
}

// Update updates an existing request. Lines are replaced wholesale because
// draft edits may add, change, or remove any of them
func (r *GormPurchaseRequestRepository) Update(ctx context.Context, pr *procurement.PurchaseRequest) error {
	return translateError(r.db.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("request_id = ?", pr.ID).Delete(&procurement.PrLineItem{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(pr).Error
	}))
}

// Delete soft-deletes a request by ID
func (r *GormPurchaseRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&procurement.PurchaseRequest{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a request by ID with lines, within the tenant in context
func (r *GormPurchaseRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.PurchaseRequest, error) {
	var pr procurement.PurchaseRequest
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&pr, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &pr, nil
}

// FindByNumber finds a request by its PR number within a tenant
func (r *GormPurchaseRequestRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, prNumber string) (*procurement.PurchaseRequest, error) {
	var pr procurement.PurchaseRequest
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		Preload("Lines").
		First(&pr, "pr_number = ?", prNumber).Error; err != nil {
		return nil, translateError(err)
	}
	return &pr, nil
}

// FindAll lists requests for the tenant in context
func (r *GormPurchaseRequestRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*procurement.PurchaseRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&procurement.PurchaseRequest{})
	query = r.applyFilter(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var requests []*procurement.PurchaseRequest
	if err := paginate(query, filter, PurchaseRequestSortFields, "created_at DESC").
		Preload("Lines").
		Find(&requests).Error; err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// FindByRequester lists requests raised by a user
func (r *GormPurchaseRequestRepository) FindByRequester(ctx context.Context, tenantID, requesterID uuid.UUID, filter shared.Filter) ([]*procurement.PurchaseRequest, int64, error) {
	query := r.db.WithTenant(tenantID).WithContext(ctx).
		Model(&procurement.PurchaseRequest{}).
		Where("requester_id = ?", requesterID)
	query = r.applyFilter(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var requests []*procurement.PurchaseRequest
	if err := paginate(query, filter, PurchaseRequestSortFields, "created_at DESC").
		Preload("Lines").
		Find(&requests).Error; err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

func (r *GormPurchaseRequestRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR pr_number ILIKE ?", searchPattern, searchPattern)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if departmentID, ok := filter.Filters["department_id"]; ok {
		query = query.Where("department_id = ?", departmentID)
	}
	return query
}

// GeneratePrNumber allocates the next PR number for a tenant.
// Format: PR-NNNNNN (e.g., PR-000042)
func (r *GormPurchaseRequestRepository) GeneratePrNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	const prefix = "PR-"

	var last procurement.PurchaseRequest
	err := r.db.WithTenant(tenantID).WithContext(ctx).
		Model(&procurement.PurchaseRequest{}).
		Where("pr_number LIKE ?", prefix+"%").
		Order("pr_number DESC").
		First(&last).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && last.PrNumber != "" {
		parts := strings.Split(last.PrNumber, "-")
		if len(parts) == 2 {
			var num int64
			_, parseErr := fmt.Sscanf(parts[1], "%d", &num)
			if parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	prNumber := fmt.Sprintf("%s%06d", prefix, nextNum)

	// Verify uniqueness
	exists, err := r.existsByNumber(ctx, tenantID, prNumber)
	if err != nil {
		return "", err
	}
	if exists {
		// If taken, try incrementing until we find a free one
		for i := 0; i < 100; i++ {
			nextNum++
			prNumber = fmt.Sprintf("%s%06d", prefix, nextNum)
			exists, err = r.existsByNumber(ctx, tenantID, prNumber)
			if err != nil {
				return "", err
			}
			if !exists {
				break
			}
		}
	}

	return prNumber, nil
}

func (r *GormPurchaseRequestRepository) existsByNumber(ctx context.Context, tenantID uuid.UUID, prNumber string) (bool, error) {
	var count int64
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		Model(&procurement.PurchaseRequest{}).
		Where("pr_number = ?", prNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormPurchaseRequestRepository implements procurement.PurchaseRequestRepository
var _ procurement.PurchaseRequestRepository = (*GormPurchaseRequestRepository)(nil)
