package budget

import (
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

// Budget represents a departmental spending limit for one fiscal quarter
// It is the aggregate root for budget-related operations
type Budget struct {
	shared.TenantAggregateRoot
	DepartmentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_budgets_tenant_period,priority:2"`
	FiscalYear   int       `gorm:"not null;uniqueIndex:idx_budgets_tenant_period,priority:3"`
	Quarter      int       `gorm:"not null;uniqueIndex:idx_budgets_tenant_period,priority:4;check:quarter >= 1 AND quarter <= 4"`
	TotalCents   int64     `gorm:"not null;check:total_cents > 0"`
	SpentCents   int64     `gorm:"not null;default:0;check:spent_cents >= 0 AND spent_cents <= total_cents"`
}

// TableName returns the table name for GORM
func (Budget) TableName() string {
	return "budgets"
}

// NewBudget creates a new budget for a department and fiscal quarter
func NewBudget(tenantID, departmentID uuid.UUID, fiscalYear, quarter int, totalCents int64) (*Budget, error) {
	if departmentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DEPARTMENT", "Department is required")
	}
	if fiscalYear < 2000 || fiscalYear > 2100 {
		return nil, shared.NewDomainError("INVALID_FISCAL_YEAR", "Fiscal year is out of range")
	}
	if quarter < 1 || quarter > 4 {
		return nil, shared.NewDomainError("INVALID_QUARTER", "Quarter must be between 1 and 4")
	}
	if totalCents <= 0 {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Budget total must be positive")
	}

	b := &Budget{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		DepartmentID:        departmentID,
		FiscalYear:          fiscalYear,
		Quarter:             quarter,
		TotalCents:          totalCents,
		SpentCents:          0,
	}

	b.AddDomainEvent(NewBudgetCreatedEvent(b))

	return b, nil
}

// SetTotal adjusts the budget total. The new total cannot fall below what is already spent
func (b *Budget) SetTotal(totalCents int64) error {
	if totalCents <= 0 {
		return shared.NewDomainError("INVALID_AMOUNT", "Budget total must be positive")
	}
	if totalCents < b.SpentCents {
		return shared.NewDomainError("TOTAL_BELOW_SPENT", "Budget total cannot be lower than the amount already spent")
	}

	old := b.TotalCents
	b.TotalCents = totalCents
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	b.AddDomainEvent(NewBudgetTotalChangedEvent(b, old, totalCents))

	return nil
}

// AddSpent records settled spend against the budget.
// Callers must hold the budget row lock; the reserved sum is not re-checked here
func (b *Budget) AddSpent(amountCents int64) error {
	if amountCents <= 0 {
		return shared.NewDomainError("INVALID_AMOUNT", "Spend amount must be positive")
	}
	if b.SpentCents+amountCents > b.TotalCents {
		return shared.NewDomainError("BUDGET_EXCEEDED", "Spend would exceed the budget total")
	}

	b.SpentCents += amountCents
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	b.AddDomainEvent(NewBudgetSpentEvent(b, amountCents))

	return nil
}

// AvailableCents computes what can still be reserved given the sum of
// committed reservations against this budget
func (b *Budget) AvailableCents(committedCents int64) int64 {
	return b.TotalCents - b.SpentCents - committedCents
}

// UtilizationPercent returns spend as a percentage of the total
func (b *Budget) UtilizationPercent() float64 {
	if b.TotalCents == 0 {
		return 0
	}
	return float64(b.SpentCents) / float64(b.TotalCents) * 100
}

// CommittedUtilizationPercent returns utilization counting outstanding
// reservations on top of booked spend. Threshold alerts use this so
// money already promised to pending requests is not reported as free
func (b *Budget) CommittedUtilizationPercent(committedCents int64) float64 {
	if b.TotalCents == 0 {
		return 0
	}
	return float64(b.SpentCents+committedCents) / float64(b.TotalCents) * 100
}
