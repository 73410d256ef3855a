package handler

import (
	"github.com/gin-gonic/gin"

	identityapp "github.com/procura/backend/internal/application/identity"
	"github.com/procura/backend/internal/domain/identity"
	"github.com/procura/backend/internal/interfaces/http/middleware"
)

// DepartmentHandler handles department endpoints
type DepartmentHandler struct {
	BaseHandler
	departmentService *identityapp.DepartmentService
}

// NewDepartmentHandler creates a new DepartmentHandler
func NewDepartmentHandler(departmentService *identityapp.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{departmentService: departmentService}
}

// RegisterRoutes registers department routes on the given router group.
// Reads are open to any authenticated user; writes require admin
func (h *DepartmentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	departments := rg.Group("/departments")
	{
		departments.GET("", h.List)
		departments.GET("/:id", h.GetByID)

		admin := departments.Group("", middleware.RequireRoles(identity.RoleAdmin))
		admin.POST("", h.Create)
		admin.PUT("/:id", h.Update)
		admin.DELETE("/:id", h.Delete)
	}
}

// Create godoc
// @ID           createDepartment
// @Summary      Create a department
// @Tags         departments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body identityapp.CreateDepartmentRequest true "Department details"
// @Success      201 {object} APIResponse[identityapp.DepartmentResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /departments [post]
func (h *DepartmentHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req identityapp.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.departmentService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// List godoc
// @ID           listDepartments
// @Summary      List departments
// @Tags         departments
// @Produce      json
// @Security     BearerAuth
// @Param        page      query int    false "Page number"
// @Param        page_size query int    false "Page size"
// @Param        status    query string false "Filter by status"
// @Success      200 {object} APIResponse[[]identityapp.DepartmentResponse]
// @Router       /departments [get]
func (h *DepartmentHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter identityapp.DepartmentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)

	departments, total, err := h.departmentService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, departments, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @ID           getDepartmentById
// @Summary      Get a department
// @Tags         departments
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Department ID"
// @Success      200 {object} APIResponse[identityapp.DepartmentResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /departments/{id} [get]
func (h *DepartmentHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	deptID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.departmentService.GetByID(c.Request.Context(), tenantID, deptID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Update godoc
// @ID           updateDepartment
// @Summary      Update a department
// @Tags         departments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string                               true "Department ID"
// @Param        request body identityapp.UpdateDepartmentRequest true "Fields to update"
// @Success      200 {object} APIResponse[identityapp.DepartmentResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /departments/{id} [put]
func (h *DepartmentHandler) Update(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	deptID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req identityapp.UpdateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.departmentService.Update(c.Request.Context(), tenantID, deptID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Delete godoc
// @ID           deleteDepartment
// @Summary      Delete a department
// @Description  Fails while users or active budgets still reference the department
// @Tags         departments
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Department ID"
// @Success      204
// @Failure      409 {object} ErrorResponse
// @Router       /departments/{id} [delete]
func (h *DepartmentHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	deptID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.departmentService.Delete(c.Request.Context(), tenantID, deptID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
