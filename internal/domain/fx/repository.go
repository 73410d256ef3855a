package fx

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

// Repository defines the interface for exchange rate persistence
type Repository interface {
	// Create stores a rate observation
	Create(ctx context.Context, rate *Rate) error

	// FindLatest finds the most recent rate for a pair observed at or
	// before asOf
	FindLatest(ctx context.Context, tenantID uuid.UUID, baseCurrency, quoteCurrency string, asOf time.Time) (*Rate, error)

	// FindAll finds stored rates within a tenant with pagination
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[*Rate], error)
}
