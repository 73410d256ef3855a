package invoice

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

// Repository defines the interface for invoice persistence
type Repository interface {
	// Create creates a new invoice
	Create(ctx context.Context, inv *Invoice) error

	// Update updates an existing invoice
	Update(ctx context.Context, inv *Invoice) error

	// FindByID finds an invoice by ID within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// FindByIDForUpdate finds an invoice by ID and locks the row
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// FindByNumber finds a vendor's invoice by its number
	FindByNumber(ctx context.Context, tenantID, vendorID uuid.UUID, invoiceNumber string) (*Invoice, error)

	// FindOpenByOrder finds invoices linked to a purchase order that a
	// match run may still move (uploaded or exception)
	FindOpenByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]*Invoice, error)

	// FindByVendor finds all invoices for a vendor with pagination
	FindByVendor(ctx context.Context, tenantID, vendorID uuid.UUID, filter shared.Filter) (*shared.Paginated[*Invoice], error)

	// FindAll finds all invoices within a tenant with pagination
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[*Invoice], error)

	// ExistsByNumber checks whether a vendor already has an invoice
	// with the given number
	ExistsByNumber(ctx context.Context, tenantID, vendorID uuid.UUID, invoiceNumber string) (bool, error)

	// VendorActivity aggregates a vendor's invoice counts since the
	// cutoff. The risk-refresh sweep scores vendors from these
	VendorActivity(ctx context.Context, tenantID, vendorID uuid.UUID, since time.Time) (*VendorActivity, error)
}

// VendorActivity summarizes how a vendor's invoices cleared matching
// within a window
type VendorActivity struct {
	Total      int64
	Exceptions int64
	Disputed   int64
}
