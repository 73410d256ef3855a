package partner

import (
	"context"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

// VendorRepository defines the interface for vendor persistence
type VendorRepository interface {
	// Create saves a new vendor
	Create(ctx context.Context, vendor *Vendor) error

	// Update updates an existing vendor
	Update(ctx context.Context, vendor *Vendor) error

	// Delete soft-deletes a vendor by ID
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID finds a vendor by ID within the tenant in context
	FindByID(ctx context.Context, id uuid.UUID) (*Vendor, error)

	// FindByEmail finds a vendor by contact email within a tenant
	FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*Vendor, error)

	// FindAll lists vendors for the tenant in context
	FindAll(ctx context.Context, filter shared.Filter) ([]*Vendor, int64, error)

	// FindByStatus lists vendors in a given status within a tenant
	FindByStatus(ctx context.Context, tenantID uuid.UUID, status VendorStatus) ([]*Vendor, error)

	// ExistsByTaxID checks if a tax ID is already registered within a tenant
	ExistsByTaxID(ctx context.Context, tenantID uuid.UUID, taxID string) (bool, error)

	// ExistsByEmail checks if a vendor email is already registered within a tenant
	ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error)
}
