package budget

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/budget"
	"github.com/procura/backend/internal/domain/shared"
)

// ReserveFunds checks availability and creates a committed reservation in one
// step. The budget row for the department's fiscal period is loaded FOR UPDATE
// so concurrent submissions against the same envelope queue on the row lock;
// the committed sum is computed while the lock is held.
//
// Returns budget.ErrBudgetNotFound when no budget row exists for the period
// (budgets are never created implicitly) and *budget.ExceededError when the
// amount does not fit into total - spent - committed.
func ReserveFunds(ctx context.Context, repos TransactionalRepositories, tenantID, departmentID uuid.UUID, entityType shared.EntityType, entityID uuid.UUID, amountCents int64, at time.Time) (*budget.BudgetReservation, error) {
	if amountCents <= 0 {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Reservation amount must be positive")
	}

	period := budget.PeriodOf(at)
	b, err := repos.Budgets().FindByPeriodForUpdate(ctx, tenantID, departmentID, period.Year, period.Quarter)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, budget.ErrBudgetNotFound
		}
		return nil, err
	}

	committed, err := repos.Reservations().SumCommittedByBudget(ctx, b.ID)
	if err != nil {
		return nil, err
	}

	available := b.AvailableCents(committed)
	if amountCents > available {
		return nil, budget.NewExceededError(available, amountCents)
	}

	reservation, err := budget.NewBudgetReservation(tenantID, b.ID, entityType, entityID, amountCents)
	if err != nil {
		return nil, err
	}
	if err := repos.Reservations().Create(ctx, reservation); err != nil {
		return nil, err
	}

	return reservation, nil
}

// ReleaseReservation returns an entity's committed reservation to the budget.
// A missing or already settled reservation is not an error: cancellations may
// race the sweep that reclaims abandoned holds.
func ReleaseReservation(ctx context.Context, repos TransactionalRepositories, entityType shared.EntityType, entityID uuid.UUID) error {
	reservation, err := repos.Reservations().FindByEntity(ctx, entityType, entityID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if !reservation.IsCommitted() {
		return nil
	}

	if err := reservation.Release(); err != nil {
		return err
	}
	return repos.Reservations().Update(ctx, reservation)
}

// CommitReservation converts an entity's committed reservation into settled
// spend. The budget row is locked before spent_cents moves so the committed
// sum and the spend stay consistent under concurrency. Settling an entity
// that holds no committed reservation is a no-op, so repeated settlement
// attempts stay idempotent.
func CommitReservation(ctx context.Context, repos TransactionalRepositories, entityType shared.EntityType, entityID uuid.UUID) error {
	reservation, err := repos.Reservations().FindByEntity(ctx, entityType, entityID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if !reservation.IsCommitted() {
		return nil
	}

	b, err := repos.Budgets().FindByIDForUpdate(ctx, reservation.BudgetID)
	if err != nil {
		return err
	}

	if err := reservation.MarkSpent(); err != nil {
		return err
	}
	if err := b.AddSpent(reservation.AmountCents); err != nil {
		return err
	}

	if err := repos.Reservations().Update(ctx, reservation); err != nil {
		return err
	}
	return repos.Budgets().Update(ctx, b)
}
