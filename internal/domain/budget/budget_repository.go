package budget

import (
	"context"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

// BudgetRepository defines the interface for budget persistence
type BudgetRepository interface {
	// Create saves a new budget
	Create(ctx context.Context, b *Budget) error

	// Update updates an existing budget
	Update(ctx context.Context, b *Budget) error

	// FindByID finds a budget by ID within the tenant in context
	FindByID(ctx context.Context, id uuid.UUID) (*Budget, error)

	// FindByPeriod finds the budget for a department and fiscal period within a tenant
	FindByPeriod(ctx context.Context, tenantID, departmentID uuid.UUID, fiscalYear, quarter int) (*Budget, error)

	// FindByPeriodForUpdate behaves like FindByPeriod but acquires a row lock.
	// Must be called inside a transaction
	FindByPeriodForUpdate(ctx context.Context, tenantID, departmentID uuid.UUID, fiscalYear, quarter int) (*Budget, error)

	// FindByIDForUpdate finds a budget by ID and acquires a row lock.
	// Must be called inside a transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Budget, error)

	// FindByTenantAndPeriod lists all budgets of a tenant for a fiscal period
	FindByTenantAndPeriod(ctx context.Context, tenantID uuid.UUID, fiscalYear, quarter int) ([]*Budget, error)

	// FindAll lists budgets for the tenant in context
	FindAll(ctx context.Context, filter shared.Filter) ([]*Budget, int64, error)
}

// ReservationRepository defines the interface for budget reservation persistence
type ReservationRepository interface {
	// Create saves a new reservation. A unique violation on
	// (entity_type, entity_id) surfaces as shared.ErrAlreadyExists
	Create(ctx context.Context, r *BudgetReservation) error

	// Update updates an existing reservation
	Update(ctx context.Context, r *BudgetReservation) error

	// FindByEntity finds the reservation held for an entity
	FindByEntity(ctx context.Context, entityType shared.EntityType, entityID uuid.UUID) (*BudgetReservation, error)

	// SumCommittedByBudget sums the committed reservation amounts against a budget
	SumCommittedByBudget(ctx context.Context, budgetID uuid.UUID) (int64, error)

	// FindByBudget lists all reservations against a budget
	FindByBudget(ctx context.Context, budgetID uuid.UUID) ([]*BudgetReservation, error)
}
