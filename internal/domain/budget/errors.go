package budget

import (
	"fmt"

	"github.com/procura/backend/internal/domain/shared"
)

// ErrBudgetNotFound is returned when no budget exists for the requested
// department and fiscal period. Callers must not create one implicitly
var ErrBudgetNotFound = shared.NewDomainError("BUDGET_NOT_FOUND", "No budget exists for this department and fiscal period")

// ExceededError is returned when a reservation would push a budget past
// its total. It carries the amounts the client needs to adjust the request
type ExceededError struct {
	AvailableCents int64
	RequestedCents int64
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("budget exceeded: requested %d, available %d", e.RequestedCents, e.AvailableCents)
}

// NewExceededError creates a budget exceeded error with the given amounts
func NewExceededError(availableCents, requestedCents int64) *ExceededError {
	return &ExceededError{
		AvailableCents: availableCents,
		RequestedCents: requestedCents,
	}
}
