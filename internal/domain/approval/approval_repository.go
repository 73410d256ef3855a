package approval

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

// Repository defines the interface for approval persistence
type Repository interface {
	// Create saves a new approval step
	Create(ctx context.Context, a *Approval) error

	// CreateBatch saves a whole chain in one call
	CreateBatch(ctx context.Context, chain []*Approval) error

	// Update updates an existing approval step
	Update(ctx context.Context, a *Approval) error

	// FindByID finds an approval by ID within the tenant in context
	FindByID(ctx context.Context, id uuid.UUID) (*Approval, error)

	// FindByEntity loads an entity's full chain ordered by approval level
	FindByEntity(ctx context.Context, entityType shared.EntityType, entityID uuid.UUID) ([]*Approval, error)

	// FindPendingByApprover lists pending steps assigned to an approver
	FindPendingByApprover(ctx context.Context, tenantID, approverID uuid.UUID, filter shared.Filter) ([]*Approval, int64, error)

	// FindPendingOlderThan lists pending steps created before the cutoff,
	// across all tenants. Used by the approval timeout sweep
	FindPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*Approval, error)
}
