package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

// DepartmentRepository defines the interface for department persistence
type DepartmentRepository interface {
	// Create saves a new department
	Create(ctx context.Context, dept *Department) error

	// Update updates an existing department
	Update(ctx context.Context, dept *Department) error

	// Delete removes a department by ID
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID finds a department by ID within the tenant in context
	FindByID(ctx context.Context, id uuid.UUID) (*Department, error)

	// FindByCode finds a department by code within a tenant
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Department, error)

	// FindByIDs resolves multiple department IDs in a single query
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Department, error)

	// FindAll lists departments for the tenant in context
	FindAll(ctx context.Context, filter shared.Filter) ([]*Department, int64, error)

	// ExistsByCode checks if a department code exists within a tenant
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
}
