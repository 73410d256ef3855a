package rfq

import (
	"context"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

// Repository defines the interface for RFQ persistence
type Repository interface {
	// Create creates a new RFQ with its lines and invitations
	Create(ctx context.Context, r *RFQ) error

	// Update updates an existing RFQ
	Update(ctx context.Context, r *RFQ) error

	// FindByID finds an RFQ by ID within a tenant, loading lines,
	// invitations and quotes
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*RFQ, error)

	// FindByNumber finds an RFQ by its number within a tenant
	FindByNumber(ctx context.Context, tenantID uuid.UUID, rfqNumber string) (*RFQ, error)

	// FindAll finds all RFQs within a tenant with pagination
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[*RFQ], error)

	// FindByVendorInvitation finds RFQs a vendor was invited to
	FindByVendorInvitation(ctx context.Context, tenantID, vendorID uuid.UUID, filter shared.Filter) (*shared.Paginated[*RFQ], error)

	// GenerateRfqNumber generates a sequential RFQ number per tenant
	GenerateRfqNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}
