package budget

import (
	"github.com/procura/backend/internal/domain/shared"
)

// Aggregate type constant for Budget
const AggregateTypeBudget = "Budget"

// Budget domain event types
const (
	EventTypeBudgetCreated      = "BudgetCreated"
	EventTypeBudgetTotalChanged = "BudgetTotalChanged"
	EventTypeBudgetSpent        = "BudgetSpent"
)

// BudgetCreatedEvent is raised when a new budget is created
type BudgetCreatedEvent struct {
	shared.BaseDomainEvent
	FiscalYear int   `json:"fiscal_year"`
	Quarter    int   `json:"quarter"`
	TotalCents int64 `json:"total_cents"`
}

// NewBudgetCreatedEvent creates a new BudgetCreatedEvent
func NewBudgetCreatedEvent(b *Budget) *BudgetCreatedEvent {
	return &BudgetCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBudgetCreated, AggregateTypeBudget, b.ID, b.TenantID),
		FiscalYear:      b.FiscalYear,
		Quarter:         b.Quarter,
		TotalCents:      b.TotalCents,
	}
}

// BudgetTotalChangedEvent is raised when a budget's total is adjusted
type BudgetTotalChangedEvent struct {
	shared.BaseDomainEvent
	OldTotalCents int64 `json:"old_total_cents"`
	NewTotalCents int64 `json:"new_total_cents"`
}

// NewBudgetTotalChangedEvent creates a new BudgetTotalChangedEvent
func NewBudgetTotalChangedEvent(b *Budget, oldTotal, newTotal int64) *BudgetTotalChangedEvent {
	return &BudgetTotalChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBudgetTotalChanged, AggregateTypeBudget, b.ID, b.TenantID),
		OldTotalCents:   oldTotal,
		NewTotalCents:   newTotal,
	}
}

// BudgetSpentEvent is raised when settled spend is recorded against a budget
type BudgetSpentEvent struct {
	shared.BaseDomainEvent
	AmountCents int64 `json:"amount_cents"`
	SpentCents  int64 `json:"spent_cents"`
	TotalCents  int64 `json:"total_cents"`
}

// NewBudgetSpentEvent creates a new BudgetSpentEvent
func NewBudgetSpentEvent(b *Budget, amountCents int64) *BudgetSpentEvent {
	return &BudgetSpentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBudgetSpent, AggregateTypeBudget, b.ID, b.TenantID),
		AmountCents:     amountCents,
		SpentCents:      b.SpentCents,
		TotalCents:      b.TotalCents,
	}
}
