package contract

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

// Repository defines the interface for contract persistence
type Repository interface {
	// Create creates a new contract
	Create(ctx context.Context, c *Contract) error

	// Update updates an existing contract
	Update(ctx context.Context, c *Contract) error

	// FindByID finds a contract by ID within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Contract, error)

	// FindByNumber finds a contract by its number within a tenant
	FindByNumber(ctx context.Context, tenantID uuid.UUID, contractNumber string) (*Contract, error)

	// FindByVendor finds a vendor's contracts with pagination
	FindByVendor(ctx context.Context, tenantID, vendorID uuid.UUID, filter shared.Filter) (*shared.Paginated[*Contract], error)

	// FindAll finds all contracts within a tenant with pagination
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[*Contract], error)

	// FindActiveExpiringBefore finds active contracts, across tenants,
	// whose expiry date falls before the cutoff. Used by the expiry
	// notification sweep
	FindActiveExpiringBefore(ctx context.Context, cutoff time.Time) ([]*Contract, error)

	// ExistsByNumber checks whether a contract number is taken
	ExistsByNumber(ctx context.Context, tenantID uuid.UUID, contractNumber string) (bool, error)
}
