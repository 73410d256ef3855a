package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/procura/backend/internal/domain/invoice"
	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/infrastructure/persistence/tenant"
)

// GormInvoiceRepository implements invoice.Repository using GORM
type GormInvoiceRepository struct {
	db *tenant.TenantDB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *tenant.TenantDB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Create creates a new invoice
func (r *GormInvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	return translateError(r.db.DB().WithContext(ctx).Create(inv).Error)
}

// Update updates an existing invoice
func (r *GormInvoiceRepository) Update(ctx context.Context, inv *invoice.Invoice) error {
	return translateError(r.db.DB().WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(inv).Error)
}

// FindByID finds an invoice by ID within a tenant
func (r *GormInvoiceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		Preload("Lines").
		First(&inv, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &inv, nil
}

// FindByIDForUpdate finds an invoice by ID and locks the row.
// Must be called inside a transaction
func (r *GormInvoiceRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&inv, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	// Lines are loaded separately so the FOR UPDATE lock stays on the invoice row
	if err := r.db.DB().WithContext(ctx).
		Where("invoice_id = ?", inv.ID).
		Order("created_at ASC").
		Find(&inv.Lines).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// FindByNumber finds a vendor's invoice by its number
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, tenantID, vendorID uuid.UUID, invoiceNumber string) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		Preload("Lines").
		Where("vendor_id = ? AND invoice_number = ?", vendorID, invoiceNumber).
		First(&inv).Error; err != nil {
		return nil, translateError(err)
	}
	return &inv, nil
}

// FindOpenByOrder finds invoices linked to a purchase order that a match run
// may still move (uploaded or exception)
func (r *GormInvoiceRepository) FindOpenByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]*invoice.Invoice, error) {
	var invoices []*invoice.Invoice
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		Preload("Lines").
		Where("order_id = ? AND status IN ?", orderID, []invoice.Status{invoice.StatusUploaded, invoice.StatusException}).
		Order("created_at ASC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// FindByVendor finds all invoices for a vendor with pagination
func (r *GormInvoiceRepository) FindByVendor(ctx context.Context, tenantID, vendorID uuid.UUID, filter shared.Filter) (*shared.Paginated[*invoice.Invoice], error) {
	query := r.db.WithTenant(tenantID).WithContext(ctx).
		Model(&invoice.Invoice{}).
		Where("vendor_id = ?", vendorID)
	query = r.applyFilter(query, filter)
	return r.page(query, filter)
}

// FindAll finds all invoices within a tenant with pagination
func (r *GormInvoiceRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[*invoice.Invoice], error) {
	query := r.db.WithTenant(tenantID).WithContext(ctx).Model(&invoice.Invoice{})
	query = r.applyFilter(query, filter)
	return r.page(query, filter)
}

// ExistsByNumber checks whether a vendor already has an invoice with the given number
func (r *GormInvoiceRepository) ExistsByNumber(ctx context.Context, tenantID, vendorID uuid.UUID, invoiceNumber string) (bool, error) {
	var count int64
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		Model(&invoice.Invoice{}).
		Where("vendor_id = ? AND invoice_number = ?", vendorID, invoiceNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// VendorActivity aggregates a vendor's invoice counts since the cutoff.
// An invoice that failed matching and was later disputed counts in both
// buckets; the two measure different kinds of friction
func (r *GormInvoiceRepository) VendorActivity(ctx context.Context, tenantID, vendorID uuid.UUID, since time.Time) (*invoice.VendorActivity, error) {
	var activity invoice.VendorActivity
	err := r.db.WithTenant(tenantID).WithContext(ctx).
		Model(&invoice.Invoice{}).
		Select(
			"COUNT(*) AS total, "+
				"COUNT(*) FILTER (WHERE match_status = ?) AS exceptions, "+
				"COUNT(*) FILTER (WHERE status = ?) AS disputed",
			invoice.MatchStatusFail, invoice.StatusDisputed,
		).
		Where("vendor_id = ? AND created_at >= ?", vendorID, since).
		Scan(&activity).Error
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("invoice_number ILIKE ?", "%"+filter.Search+"%")
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if matchStatus, ok := filter.Filters["match_status"]; ok {
		query = query.Where("match_status = ?", matchStatus)
	}
	if orderID, ok := filter.Filters["order_id"]; ok {
		query = query.Where("order_id = ?", orderID)
	}
	return query
}

func (r *GormInvoiceRepository) page(query *gorm.DB, filter shared.Filter) (*shared.Paginated[*invoice.Invoice], error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, translateError(err)
	}

	var invoices []*invoice.Invoice
	if err := paginate(query, filter, InvoiceSortFields, "created_at DESC").
		Preload("Lines").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	result := shared.NewPaginated(invoices, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Ensure GormInvoiceRepository implements invoice.Repository
var _ invoice.Repository = (*GormInvoiceRepository)(nil)
