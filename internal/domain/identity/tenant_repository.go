package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

// TenantRepository defines the interface for tenant persistence
type TenantRepository interface {
	// Create saves a new tenant
	Create(ctx context.Context, tenant *Tenant) error

	// Update updates an existing tenant
	Update(ctx context.Context, tenant *Tenant) error

	// FindByID finds a tenant by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)

	// FindByCode finds a tenant by its unique code
	FindByCode(ctx context.Context, code string) (*Tenant, error)

	// FindAll lists tenants
	FindAll(ctx context.Context, filter shared.Filter) ([]*Tenant, int64, error)

	// FindActiveIDs lists the IDs of all active tenants. Cross-tenant
	// sweeps iterate these to scope their per-tenant work
	FindActiveIDs(ctx context.Context) ([]uuid.UUID, error)

	// ExistsByCode checks if a tenant code is already taken
	ExistsByCode(ctx context.Context, code string) (bool, error)
}
