package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/procura/backend/internal/domain/budget"
	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm/clause"
)

// GormBudgetRepository implements BudgetRepository using GORM
type GormBudgetRepository struct {
	db *tenant.TenantDB
}

// NewGormBudgetRepository creates a new GormBudgetRepository
func NewGormBudgetRepository(db *tenant.TenantDB) *GormBudgetRepository {
	return &GormBudgetRepository{db: db}
}

// Create saves a new budget
func (r *GormBudgetRepository) Create(ctx context.Context, b *budget.Budget) error {
	return translateError(r.db.DB().WithContext(ctx).Create(b).Error)
}

// Update updates an existing budget
func (r *GormBudgetRepository) Update(ctx context.Context, b *budget.Budget) error {
	return translateError(r.db.DB().WithContext(ctx).Save(b).Error)
}

// FindByID finds a budget by ID within the tenant in context
func (r *GormBudgetRepository) FindByID(ctx context.Context, id uuid.UUID) (*budget.Budget, error) {
	var b budget.Budget
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &b, nil
}

// FindByPeriod finds the budget for a department and fiscal period within a tenant
func (r *GormBudgetRepository) FindByPeriod(ctx context.Context, tenantID, departmentID uuid.UUID, fiscalYear, quarter int) (*budget.Budget, error) {
	var b budget.Budget
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		Where("department_id = ? AND fiscal_year = ? AND quarter = ?", departmentID, fiscalYear, quarter).
		First(&b).Error; err != nil {
		return nil, translateError(err)
	}
	return &b, nil
}

// FindByPeriodForUpdate behaves like FindByPeriod but acquires a row lock.
// Must be called inside a transaction
func (r *GormBudgetRepository) FindByPeriodForUpdate(ctx context.Context, tenantID, departmentID uuid.UUID, fiscalYear, quarter int) (*budget.Budget, error) {
	var b budget.Budget
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("department_id = ? AND fiscal_year = ? AND quarter = ?", departmentID, fiscalYear, quarter).
		First(&b).Error; err != nil {
		return nil, translateError(err)
	}
	return &b, nil
}

// FindByIDForUpdate finds a budget by ID and acquires a row lock.
// Must be called inside a transaction
func (r *GormBudgetRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*budget.Budget, error) {
	var b budget.Budget
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&b, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &b, nil
}

// FindByTenantAndPeriod lists all budgets of a tenant for a fiscal period
func (r *GormBudgetRepository) FindByTenantAndPeriod(ctx context.Context, tenantID uuid.UUID, fiscalYear, quarter int) ([]*budget.Budget, error) {
	var budgets []*budget.Budget
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		Where("fiscal_year = ? AND quarter = ?", fiscalYear, quarter).
		Find(&budgets).Error; err != nil {
		return nil, err
	}
	return budgets, nil
}

// FindAll lists budgets for the tenant in context
func (r *GormBudgetRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*budget.Budget, int64, error) {
	query := r.db.WithContext(ctx).Model(&budget.Budget{})

	for key, value := range filter.Filters {
		switch key {
		case "department_id":
			query = query.Where("department_id = ?", value)
		case "fiscal_year":
			query = query.Where("fiscal_year = ?", value)
		case "quarter":
			query = query.Where("quarter = ?", value)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var budgets []*budget.Budget
	if err := paginate(query, filter, BudgetSortFields, "fiscal_year DESC, quarter DESC").Find(&budgets).Error; err != nil {
		return nil, 0, err
	}
	return budgets, total, nil
}

// Ensure GormBudgetRepository implements BudgetRepository
var _ budget.BudgetRepository = (*GormBudgetRepository)(nil)

// GormReservationRepository implements ReservationRepository using GORM
type GormReservationRepository struct {
	db *tenant.TenantDB
}

// NewGormReservationRepository creates a new GormReservationRepository
func NewGormReservationRepository(db *tenant.TenantDB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// Create saves a new reservation. The unique index on (entity_type,
// entity_id) makes double reservation surface as shared.ErrAlreadyExists
func (r *GormReservationRepository) Create(ctx context.Context, res *budget.BudgetReservation) error {
	return translateError(r.db.DB().WithContext(ctx).Create(res).Error)
}

// Update updates an existing reservation
func (r *GormReservationRepository) Update(ctx context.Context, res *budget.BudgetReservation) error {
	return translateError(r.db.DB().WithContext(ctx).Save(res).Error)
}

// FindByEntity finds the reservation held for an entity
func (r *GormReservationRepository) FindByEntity(ctx context.Context, entityType shared.EntityType, entityID uuid.UUID) (*budget.BudgetReservation, error) {
	var res budget.BudgetReservation
	if err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		First(&res).Error; err != nil {
		return nil, translateError(err)
	}
	return &res, nil
}

// SumCommittedByBudget sums the committed reservation amounts against a budget
func (r *GormReservationRepository) SumCommittedByBudget(ctx context.Context, budgetID uuid.UUID) (int64, error) {
	var sum int64
	if err := r.db.WithContext(ctx).
		Model(&budget.BudgetReservation{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Where("budget_id = ? AND status = ?", budgetID, budget.ReservationStatusCommitted).
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	return sum, nil
}

// FindByBudget lists all reservations against a budget
func (r *GormReservationRepository) FindByBudget(ctx context.Context, budgetID uuid.UUID) ([]*budget.BudgetReservation, error) {
	var reservations []*budget.BudgetReservation
	if err := r.db.WithContext(ctx).
		Where("budget_id = ?", budgetID).
		Order("created_at ASC").
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

// Ensure GormReservationRepository implements ReservationRepository
var _ budget.ReservationRepository = (*GormReservationRepository)(nil)
