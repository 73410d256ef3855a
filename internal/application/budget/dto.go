package budget

import (
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/budget"
)

// CreateBudgetRequest represents a request to create a budget envelope
type CreateBudgetRequest struct {
	DepartmentID uuid.UUID `json:"department_id" binding:"required"`
	FiscalYear   int       `json:"fiscal_year" binding:"required,min=2000,max=2100"`
	Quarter      int       `json:"quarter" binding:"required,min=1,max=4"`
	TotalCents   int64     `json:"total_cents" binding:"required,gt=0"`
}

// UpdateBudgetRequest represents a request to adjust a budget's total
type UpdateBudgetRequest struct {
	TotalCents int64 `json:"total_cents" binding:"required,gt=0"`
}

// BudgetResponse represents a budget in API responses
type BudgetResponse struct {
	ID             uuid.UUID `json:"id"`
	TenantID       uuid.UUID `json:"tenant_id"`
	DepartmentID   uuid.UUID `json:"department_id"`
	FiscalYear     int       `json:"fiscal_year"`
	Quarter        int       `json:"quarter"`
	TotalCents     int64     `json:"total_cents"`
	SpentCents     int64     `json:"spent_cents"`
	CommittedCents int64     `json:"committed_cents"`
	AvailableCents int64     `json:"available_cents"`
	UtilizationPct float64   `json:"utilization_pct"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Version        int       `json:"version"`
}

// BudgetListFilter represents filter options for the budget list
type BudgetListFilter struct {
	DepartmentID string `form:"department_id" binding:"omitempty,uuid"`
	FiscalYear   int    `form:"fiscal_year" binding:"omitempty,min=2000,max=2100"`
	Quarter      int    `form:"quarter" binding:"omitempty,min=1,max=4"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy      string `form:"order_by"`
	OrderDir     string `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// BudgetSummaryQuery selects the envelope to summarize. Year and quarter
// default to the current fiscal period when omitted
type BudgetSummaryQuery struct {
	DepartmentID uuid.UUID `form:"department_id" binding:"required"`
	FiscalYear   int       `form:"fiscal_year" binding:"omitempty,min=2000,max=2100"`
	Quarter      int       `form:"quarter" binding:"omitempty,min=1,max=4"`
}

// BudgetSummaryResponse reports an envelope's standing for dashboards
type BudgetSummaryResponse struct {
	BudgetID       uuid.UUID `json:"budget_id"`
	DepartmentID   uuid.UUID `json:"department_id"`
	FiscalYear     int       `json:"fiscal_year"`
	Quarter        int       `json:"quarter"`
	TotalCents     int64     `json:"total_cents"`
	SpentCents     int64     `json:"spent_cents"`
	CommittedCents int64     `json:"committed_cents"`
	AvailableCents int64     `json:"available_cents"`
	UtilizationPct float64   `json:"utilization_pct"`
}

// ToBudgetResponse converts a budget and its committed sum to a response DTO
func ToBudgetResponse(b *budget.Budget, committedCents int64) BudgetResponse {
	return BudgetResponse{
		ID:             b.ID,
		TenantID:       b.TenantID,
		DepartmentID:   b.DepartmentID,
		FiscalYear:     b.FiscalYear,
		Quarter:        b.Quarter,
		TotalCents:     b.TotalCents,
		SpentCents:     b.SpentCents,
		CommittedCents: committedCents,
		AvailableCents: b.AvailableCents(committedCents),
		UtilizationPct: b.UtilizationPercent(),
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
		Version:        b.Version,
	}
}
