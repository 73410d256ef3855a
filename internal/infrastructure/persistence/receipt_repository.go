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

// GormReceiptRepository implements procurement.ReceiptRepository using GORM
type GormReceiptRepository struct {
	db *tenant.TenantDB
}

// NewGormReceiptRepository creates a new GormReceiptRepository
func NewGormReceiptRepository(db *tenant.TenantDB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

// Create saves a new receipt with its lines
func (r *GormReceiptRepository) Create(ctx context.Context, receipt *procurement.Receipt) error {
	return translateError(r.db.DB().WithContext(ctx).Create(receipt).Error)
}

// Update updates an existing receipt
func (r *GormReceiptRepository) Update(ctx context.Context, receipt *procurement.Receipt) error {
	return translateError(r.db.DB().WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(receipt).Error)
}

// FindByID finds a receipt by ID with lines, within the tenant in context
func (r *GormReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.Receipt, error) {
	var receipt procurement.Receipt
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&receipt, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &receipt, nil
}

// FindByOrder lists receipts recorded against a purchase order
func (r *GormReceiptRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*procurement.Receipt, error) {
	var receipts []*procurement.Receipt
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("order_id = ?", orderID).
		Order("receipt_date ASC").
		Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}

// FindAll lists receipts for the tenant in context
func (r *GormReceiptRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*procurement.Receipt, int64, error) {
	query := r.db.WithContext(ctx).Model(&procurement.Receipt{})

	if filter.Search != "" {
		query = query.Where("receipt_number ILIKE ?", "%"+filter.Search+"%")
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if orderID, ok := filter.Filters["order_id"]; ok {
		query = query.Where("order_id = ?", orderID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var receipts []*procurement.Receipt
	if err := paginate(query, filter, ReceiptSortFields, "receipt_date DESC").
		Preload("Lines").
		Find(&receipts).Error; err != nil {
		return nil, 0, err
	}
	return receipts, total, nil
}

// GenerateReceiptNumber allocates the next receipt number for a tenant.
// Format: GRN-NNNNNN (e.g., GRN-000042)
func (r *GormReceiptRepository) GenerateReceiptNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	const prefix = "GRN-"

	var last procurement.Receipt
	err := r.db.WithTenant(tenantID).WithContext(ctx).
		Model(&procurement.Receipt{}).
		Where("receipt_number LIKE ?", prefix+"%").
		Order("receipt_number DESC").
		First(&last).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && last.ReceiptNumber != "" {
		parts := strings.Split(last.ReceiptNumber, "-")
		if len(parts) == 2 {
			var num int64
			_, parseErr := fmt.Sscanf(parts[1], "%d", &num)
			if parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	receiptNumber := fmt.Sprintf("%s%06d", prefix, nextNum)

	// Verify uniqueness
	exists, err := r.existsByNumber(ctx, tenantID, receiptNumber)
	if err != nil {
		return "", err
	}
	if exists {
		// If taken, try incrementing until we find a free one
		for i := 0; i < 100; i++ {
			nextNum++
			receiptNumber = fmt.Sprintf("%s%06d", prefix, nextNum)
			exists, err = r.existsByNumber(ctx, tenantID, receiptNumber)
			if err != nil {
				return "", err
			}
			if !exists {
				break
			}
		}
	}

	return receiptNumber, nil
}

func (r *GormReceiptRepository) existsByNumber(ctx context.Context, tenantID uuid.UUID, receiptNumber string) (bool, error) {
	var count int64
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		Model(&procurement.Receipt{}).
		Where("receipt_number = ?", receiptNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormReceiptRepository implements procurement.ReceiptRepository
var _ procurement.ReceiptRepository = (*GormReceiptRepository)(nil)
