package handler

import (
	"github.com/gin-gonic/gin"

	budgetapp "github.com/procura/backend/internal/application/budget"
	"github.com/procura/backend/internal/domain/identity"
	"github.com/procura/backend/internal/interfaces/http/middleware"
)

// BudgetHandler handles department budget endpoints
type BudgetHandler struct {
	BaseHandler
	budgetService *budgetapp.BudgetService
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(budgetService *budgetapp.BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

// RegisterRoutes registers budget routes on the given router group.
// Only finance leadership can create or resize budgets
func (h *BudgetHandler) RegisterRoutes(rg *gin.RouterGroup) {
	budgets := rg.Group("/budgets")
	{
		budgets.GET("", h.List)
		budgets.GET("/summary", h.Summary)
		budgets.GET("/:id", h.GetByID)

		finance := budgets.Group("", middleware.RequireRoles(
			identity.RoleAdmin, identity.RoleCFO, identity.RoleFinanceHead))
		finance.POST("", h.Create)
		finance.PUT("/:id", h.UpdateTotal)
	}
}

// Create godoc
// @ID           createBudget
// @Summary      Create a quarterly budget
// @Description  Creates the budget envelope for a department and fiscal quarter.
// @Description  One budget may exist per department, year and quarter
// @Tags         budgets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body budgetapp.CreateBudgetRequest true "Budget details"
// @Success      201 {object} APIResponse[budgetapp.BudgetResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /budgets [post]
func (h *BudgetHandler) Create(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}

	var req budgetapp.CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.budgetService.Create(c.Request.Context(), tenantID, actorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// UpdateTotal godoc
// @ID           updateBudgetTotal
// @Summary      Resize a budget
// @Description  Changes the total amount. The new total may not fall below
// @Description  what is already reserved plus spent
// @Tags         budgets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string                        true "Budget ID"
// @Param        request body budgetapp.UpdateBudgetRequest true "New total"
// @Success      200 {object} APIResponse[budgetapp.BudgetResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /budgets/{id} [put]
func (h *BudgetHandler) UpdateTotal(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}
	budgetID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req budgetapp.UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.budgetService.UpdateTotal(c.Request.Context(), tenantID, actorID, budgetID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// List godoc
// @ID           listBudgets
// @Summary      List budgets
// @Tags         budgets
// @Produce      json
// @Security     BearerAuth
// @Param        page          query int    false "Page number"
// @Param        page_size     query int    false "Page size"
// @Param        department_id query string false "Filter by department"
// @Param        fiscal_year   query int    false "Filter by fiscal year"
// @Param        quarter       query int    false "Filter by quarter"
// @Success      200 {object} APIResponse[[]budgetapp.BudgetResponse]
// @Router       /budgets [get]
func (h *BudgetHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter budgetapp.BudgetListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)

	budgets, total, err := h.budgetService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, budgets, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @ID           getBudgetById
// @Summary      Get a budget
// @Tags         budgets
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Budget ID"
// @Success      200 {object} APIResponse[budgetapp.BudgetResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /budgets/{id} [get]
func (h *BudgetHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	budgetID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.budgetService.GetByID(c.Request.Context(), tenantID, budgetID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Summary godoc
// @ID           getBudgetSummary
// @Summary      Budget summary for a department
// @Description  Aggregates total, reserved, spent and available amounts across
// @Description  the department's budgets, optionally narrowed to a fiscal quarter
// @Tags         budgets
// @Produce      json
// @Security     BearerAuth
// @Param        department_id query string true  "Department ID"
// @Param        fiscal_year   query int    false "Fiscal year"
// @Param        quarter       query int    false "Quarter"
// @Success      200 {object} APIResponse[budgetapp.BudgetSummaryResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /budgets/summary [get]
func (h *BudgetHandler) Summary(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var query budgetapp.BudgetSummaryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.budgetService.Summary(c.Request.Context(), tenantID, query)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
