package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/procura/backend/internal/domain/procurement"
	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/infrastructure/persistence/tenant"
)

// GormPurchaseOrderRepository implements procurement.PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *tenant.TenantDB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *tenant.TenantDB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// Create saves a new purchase order with its lines
func (r *GormPurchaseOrderRepository) Create(ctx context.Context, po *procurement.PurchaseOrder) error {
	return translateError(r.db.DB().WithContext(ctx).Create(po).Error)
}

// Update updates an existing order and its lines. Line rows are updated in
// place so that received_quantity increments survive concurrent readers
func (r *GormPurchaseOrderRepository) Update(ctx context.Context, po *procurement.PurchaseOrder) error {
	return translateError(r.db.DB().WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(po).Error)
}

// FindByID finds an order by ID with lines, within the tenant in context
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.PurchaseOrder, error) {
	var po procurement.PurchaseOrder
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&po, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &po, nil
}

// FindByIDForUpdate behaves like FindByID but locks the order row.
// Must be called inside a transaction
func (r *GormPurchaseOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*procurement.PurchaseOrder, error) {
	var po procurement.PurchaseOrder
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&po, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	// Lines are loaded separately so the FOR UPDATE lock stays on the order row
	if err := r.db.DB().WithContext(ctx).
		Where("order_id = ?", po.ID).
		Order("created_at ASC").
		Find(&po.Lines).Error; err != nil {
		return nil, err
	}
	return &po, nil
}

// FindByNumber finds an order by its PO number within a tenant
func (r *GormPurchaseOrderRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, poNumber string) (*procurement.PurchaseOrder, error) {
	var po procurement.PurchaseOrder
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		Preload("Lines").
		First(&po, "po_number = ?", poNumber).Error; err != nil {
		return nil, translateError(err)
	}
	return &po, nil
}

// FindByRequest finds orders created from a purchase request
func (r *GormPurchaseOrderRepository) FindByRequest(ctx context.Context, requestID uuid.UUID) ([]*procurement.PurchaseOrder, error) {
	var orders []*procurement.PurchaseOrder
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindByVendor lists orders issued to a vendor
func (r *GormPurchaseOrderRepository) FindByVendor(ctx context.Context, tenantID, vendorID uuid.UUID, filter shared.Filter) ([]*procurement.PurchaseOrder, int64, error) {
	query := r.db.WithTenant(tenantID).WithContext(ctx).
		Model(&procurement.PurchaseOrder{}).
		Where("vendor_id = ?", vendorID)
	query = r.applyFilter(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var orders []*procurement.PurchaseOrder
	if err := paginate(query, filter, PurchaseOrderSortFields, "created_at DESC").
		Preload("Lines").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// FindAll lists orders for the tenant in context
func (r *GormPurchaseOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*procurement.PurchaseOrder, int64, error) {
	query := r.db.WithContext(ctx).Model(&procurement.PurchaseOrder{})
	query = r.applyFilter(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var orders []*procurement.PurchaseOrder
	if err := paginate(query, filter, PurchaseOrderSortFields, "created_at DESC").
		Preload("Lines").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *GormPurchaseOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("po_number ILIKE ? OR vendor_name ILIKE ?", searchPattern, searchPattern)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if vendorID, ok := filter.Filters["vendor_id"]; ok {
		query = query.Where("vendor_id = ?", vendorID)
	}
	return query
}

// GeneratePoNumber allocates the next PO number for a tenant.
// Format: PO-NNNNNN (e.g., PO-000042)
func (r *GormPurchaseOrderRepository) GeneratePoNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	const prefix = "PO-"

	var last procurement.PurchaseOrder
	err := r.db.WithTenant(tenantID).WithContext(ctx).
		Model(&procurement.PurchaseOrder{}).
		Where("po_number LIKE ?", prefix+"%").
		Order("po_number DESC").
		First(&last).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && last.PoNumber != "" {
		parts := strings.Split(last.PoNumber, "-")
		if len(parts) == 2 {
			var num int64
			_, parseErr := fmt.Sscanf(parts[1], "%d", &num)
			if parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	poNumber := fmt.Sprintf("%s%06d", prefix, nextNum)

	// Verify uniqueness
	exists, err := r.existsByNumber(ctx, tenantID, poNumber)
	if err != nil {
		return "", err
	}
	if exists {
		// If taken, try incrementing until we find a free one
		for i := 0; i < 100; i++ {
			nextNum++
			poNumber = fmt.Sprintf("%s%06d", prefix, nextNum)
			exists, err = r.existsByNumber(ctx, tenantID, poNumber)
			if err != nil {
				return "", err
			}
			if !exists {
				break
			}
		}
	}

	return poNumber, nil
}

func (r *GormPurchaseOrderRepository) existsByNumber(ctx context.Context, tenantID uuid.UUID, poNumber string) (bool, error) {
	var count int64
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		Model(&procurement.PurchaseOrder{}).
		Where("po_number = ?", poNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormPurchaseOrderRepository implements procurement.PurchaseOrderRepository
var _ procurement.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
