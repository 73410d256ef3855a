package audit

import (
	"context"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

// Repository defines the interface for audit log persistence. The log
// is append-only so there is no update or delete
type Repository interface {
	// Create appends an audit entry
	Create(ctx context.Context, entry *Entry) error

	// FindByEntity finds entries for one entity, newest first
	FindByEntity(ctx context.Context, tenantID uuid.UUID, entityType string, entityID uuid.UUID, filter shared.Filter) (*shared.Paginated[*Entry], error)

	// FindByActor finds entries recorded for one actor, newest first
	FindByActor(ctx context.Context, tenantID, actorID uuid.UUID, filter shared.Filter) (*shared.Paginated[*Entry], error)

	// FindAll finds entries within a tenant with pagination, newest first
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[*Entry], error)
}
