package budget

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/audit"
	"github.com/procura/backend/internal/domain/budget"
	"github.com/procura/backend/internal/domain/shared"
)

// BudgetService handles budget envelope administration
type BudgetService struct {
	budgetRepo      budget.BudgetRepository
	reservationRepo budget.ReservationRepository
	txScope         TransactionScope
}

// NewBudgetService creates a new BudgetService
func NewBudgetService(budgetRepo budget.BudgetRepository, reservationRepo budget.ReservationRepository, txScope TransactionScope) *BudgetService {
	return &BudgetService{
		budgetRepo:      budgetRepo,
		reservationRepo: reservationRepo,
		txScope:         txScope,
	}
}

// Create creates a budget envelope for a department and fiscal quarter.
// At most one envelope exists per (department, year, quarter)
func (s *BudgetService) Create(ctx context.Context, tenantID, actorID uuid.UUID, req CreateBudgetRequest) (*BudgetResponse, error) {
	b, err := budget.NewBudget(tenantID, req.DepartmentID, req.FiscalYear, req.Quarter, req.TotalCents)
	if err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		_, err := repos.Budgets().FindByPeriod(ctx, tenantID, req.DepartmentID, req.FiscalYear, req.Quarter)
		if err == nil {
			return shared.NewDomainError("ALREADY_EXISTS", "A budget already exists for this department and fiscal period")
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		if err := repos.Budgets().Create(ctx, b); err != nil {
			return err
		}

		entry, err := audit.NewEntry(tenantID, actorID, "CREATE", "BUDGET", b.ID,
			nil, budgetState(b))
		if err != nil {
			return err
		}
		return repos.AuditEntries().Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	response := ToBudgetResponse(b, 0)
	return &response, nil
}

// UpdateTotal adjusts an envelope's total. The row is locked so the
// spent guard is evaluated against current figures
func (s *BudgetService) UpdateTotal(ctx context.Context, tenantID, actorID, budgetID uuid.UUID, req UpdateBudgetRequest) (*BudgetResponse, error) {
	var (
		updated   *budget.Budget
		committed int64
	)

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		b, err := repos.Budgets().FindByIDForUpdate(ctx, budgetID)
		if err != nil {
			return err
		}
		if b.TenantID != tenantID {
			return shared.ErrNotFound
		}

		before := budgetState(b)
		if err := b.SetTotal(req.TotalCents); err != nil {
			return err
		}
		if err := repos.Budgets().Update(ctx, b); err != nil {
			return err
		}

		committed, err = repos.Reservations().SumCommittedByBudget(ctx, b.ID)
		if err != nil {
			return err
		}

		entry, err := audit.NewEntry(tenantID, actorID, "UPDATE_TOTAL", "BUDGET", b.ID,
			before, budgetState(b))
		if err != nil {
			return err
		}
		if err := repos.AuditEntries().Create(ctx, entry); err != nil {
			return err
		}

		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	response := ToBudgetResponse(updated, committed)
	return &response, nil
}

// GetByID retrieves a budget with its committed reservation sum
func (s *BudgetService) GetByID(ctx context.Context, tenantID, budgetID uuid.UUID) (*BudgetResponse, error) {
	b, err := s.budgetRepo.FindByID(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	if b.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}

	committed, err := s.reservationRepo.SumCommittedByBudget(ctx, b.ID)
	if err != nil {
		return nil, err
	}

	response := ToBudgetResponse(b, committed)
	return &response, nil
}

// List retrieves budgets with filtering and pagination
func (s *BudgetService) List(ctx context.Context, tenantID uuid.UUID, filter BudgetListFilter) ([]BudgetResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Filters:  make(map[string]any),
	}
	if filter.DepartmentID != "" {
		domainFilter.Filters["department_id"] = filter.DepartmentID
	}
	if filter.FiscalYear != 0 {
		domainFilter.Filters["fiscal_year"] = filter.FiscalYear
	}
	if filter.Quarter != 0 {
		domainFilter.Filters["quarter"] = filter.Quarter
	}

	budgets, total, err := s.budgetRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]BudgetResponse, 0, len(budgets))
	for _, b := range budgets {
		committed, err := s.reservationRepo.SumCommittedByBudget(ctx, b.ID)
		if err != nil {
			return nil, 0, err
		}
		responses = append(responses, ToBudgetResponse(b, committed))
	}

	return responses, total, nil
}

// Summary reports the standing of one department's envelope. Year and
// quarter default to the current fiscal period
func (s *BudgetService) Summary(ctx context.Context, tenantID uuid.UUID, query BudgetSummaryQuery) (*BudgetSummaryResponse, error) {
	year, quarter := query.FiscalYear, query.Quarter
	if year == 0 || quarter == 0 {
		period := budget.PeriodOf(time.Now())
		if year == 0 {
			year = period.Year
		}
		if quarter == 0 {
			quarter = period.Quarter
		}
	}

	b, err := s.budgetRepo.FindByPeriod(ctx, tenantID, query.DepartmentID, year, quarter)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, budget.ErrBudgetNotFound
		}
		return nil, err
	}

	committed, err := s.reservationRepo.SumCommittedByBudget(ctx, b.ID)
	if err != nil {
		return nil, err
	}

	return &BudgetSummaryResponse{
		BudgetID:       b.ID,
		DepartmentID:   b.DepartmentID,
		FiscalYear:     b.FiscalYear,
		Quarter:        b.Quarter,
		TotalCents:     b.TotalCents,
		SpentCents:     b.SpentCents,
		CommittedCents: committed,
		AvailableCents: b.AvailableCents(committed),
		UtilizationPct: b.UtilizationPercent(),
	}, nil
}

func budgetState(b *budget.Budget) audit.State {
	return audit.State{
		"department_id": b.DepartmentID,
		"fiscal_year":   b.FiscalYear,
		"quarter":       b.Quarter,
		"total_cents":   b.TotalCents,
		"spent_cents":   b.SpentCents,
	}
}
