package budget

import (
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

// ReservationStatus represents the lifecycle of a budget reservation
type ReservationStatus string

const (
	ReservationStatusCommitted ReservationStatus = "COMMITTED" // Held against the budget's available amount
	ReservationStatusSpent     ReservationStatus = "SPENT"     // Converted into settled spend
	ReservationStatusReleased  ReservationStatus = "RELEASED"  // Returned to the budget's available amount
)

// BudgetReservation holds an amount against a budget on behalf of a
// purchase request, purchase order or invoice. The unique
// (entity_type, entity_id) pair prevents double reservation
type BudgetReservation struct {
	shared.TenantAggregateRoot
	BudgetID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	EntityType  shared.EntityType `gorm:"type:varchar(20);not null;uniqueIndex:idx_reservations_entity,priority:1"`
	EntityID    uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_reservations_entity,priority:2"`
	AmountCents int64             `gorm:"not null;check:amount_cents > 0"`
	Status      ReservationStatus `gorm:"type:varchar(20);not null;default:'COMMITTED';index"`
	SpentAt     *time.Time
	ReleasedAt  *time.Time
}

// TableName returns the table name for GORM
func (BudgetReservation) TableName() string {
	return "budget_reservations"
}

// NewBudgetReservation creates a committed reservation against a budget
func NewBudgetReservation(tenantID, budgetID uuid.UUID, entityType shared.EntityType, entityID uuid.UUID, amountCents int64) (*BudgetReservation, error) {
	if budgetID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BUDGET", "Budget is required")
	}
	if !entityType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ENTITY_TYPE", "Unknown entity type: "+string(entityType))
	}
	if entityID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ENTITY", "Entity is required")
	}
	if amountCents <= 0 {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Reservation amount must be positive")
	}

	return &BudgetReservation{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		BudgetID:            budgetID,
		EntityType:          entityType,
		EntityID:            entityID,
		AmountCents:         amountCents,
		Status:              ReservationStatusCommitted,
	}, nil
}

// MarkSpent transitions a committed reservation to spent
func (r *BudgetReservation) MarkSpent() error {
	if r.Status != ReservationStatusCommitted {
		return shared.NewDomainError("INVALID_STATUS_TRANSITION",
			"Only committed reservations can be spent, current status: "+string(r.Status))
	}

	now := time.Now()
	r.Status = ReservationStatusSpent
	r.SpentAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()

	return nil
}

// Release transitions a committed reservation back to the budget
func (r *BudgetReservation) Release() error {
	if r.Status != ReservationStatusCommitted {
		return shared.NewDomainError("INVALID_STATUS_TRANSITION",
			"Only committed reservations can be released, current status: "+string(r.Status))
	}

	now := time.Now()
	r.Status = ReservationStatusReleased
	r.ReleasedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()

	return nil
}

// IsCommitted returns true while the reservation holds budget
func (r *BudgetReservation) IsCommitted() bool {
	return r.Status == ReservationStatusCommitted
}
