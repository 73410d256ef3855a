package procurement

import (
	"context"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

// PurchaseRequestRepository defines the interface for purchase request persistence
type PurchaseRequestRepository interface {
	// Create saves a new purchase request with its lines
	Create(ctx context.Context, pr *PurchaseRequest) error

	// Update updates an existing request and its lines
	Update(ctx context.Context, pr *PurchaseRequest) error

	// Delete soft-deletes a request by ID
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID finds a request by ID with lines, within the tenant in context
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseRequest, error)

	// FindByNumber finds a request by its PR number within a tenant
	FindByNumber(ctx context.Context, tenantID uuid.UUID, prNumber string) (*PurchaseRequest, error)

	// FindAll lists requests for the tenant in context
	FindAll(ctx context.Context, filter shared.Filter) ([]*PurchaseRequest, int64, error)

	// FindByRequester lists requests raised by a user
	FindByRequester(ctx context.Context, tenantID, requesterID uuid.UUID, filter shared.Filter) ([]*PurchaseRequest, int64, error)

	// GeneratePrNumber allocates the next PR number for a tenant
	GeneratePrNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// PurchaseOrderRepository defines the interface for purchase order persistence
type PurchaseOrderRepository interface {
	// Create saves a new purchase order with its lines
	Create(ctx context.Context, po *PurchaseOrder) error

	// Update updates an existing order and its lines
	Update(ctx context.Context, po *PurchaseOrder) error

	// FindByID finds an order by ID with lines, within the tenant in context
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// FindByIDForUpdate behaves like FindByID but locks the order row.
	// Must be called inside a transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// FindByNumber finds an order by its PO number within a tenant
	FindByNumber(ctx context.Context, tenantID uuid.UUID, poNumber string) (*PurchaseOrder, error)

	// FindByRequest finds orders created from a purchase request
	FindByRequest(ctx context.Context, requestID uuid.UUID) ([]*PurchaseOrder, error)

	// FindByVendor lists orders issued to a vendor
	FindByVendor(ctx context.Context, tenantID, vendorID uuid.UUID, filter shared.Filter) ([]*PurchaseOrder, int64, error)

	// FindAll lists orders for the tenant in context
	FindAll(ctx context.Context, filter shared.Filter) ([]*PurchaseOrder, int64, error)

	// GeneratePoNumber allocates the next PO number for a tenant
	GeneratePoNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// ReceiptRepository defines the interface for goods receipt persistence
type ReceiptRepository interface {
	// Create saves a new receipt with its lines
	Create(ctx context.Context, r *Receipt) error

	// Update updates an existing receipt
	Update(ctx context.Context, r *Receipt) error

	// FindByID finds a receipt by ID with lines, within the tenant in context
	FindByID(ctx context.Context, id uuid.UUID) (*Receipt, error)

	// FindByOrder lists receipts recorded against a purchase order
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*Receipt, error)

	// FindAll lists receipts for the tenant in context
	FindAll(ctx context.Context, filter shared.Filter) ([]*Receipt, int64, error)

	// GenerateReceiptNumber allocates the next receipt number for a tenant
	GenerateReceiptNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}
