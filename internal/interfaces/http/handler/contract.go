package handler

import (
	"github.com/gin-gonic/gin"

	contractapp "github.com/procura/backend/internal/application/contract"
	"github.com/procura/backend/internal/domain/identity"
	"github.com/procura/backend/internal/interfaces/http/middleware"
)

// ContractHandler handles vendor contract endpoints
type ContractHandler struct {
	BaseHandler
	contractService *contractapp.ContractService
}

// NewContractHandler creates a new ContractHandler
func NewContractHandler(contractService *contractapp.ContractService) *ContractHandler {
	return &ContractHandler{contractService: contractService}
}

// RegisterRoutes registers contract routes on the given router group
func (h *ContractHandler) RegisterRoutes(rg *gin.RouterGroup) {
	contracts := rg.Group("/contracts")
	{
		contracts.GET("", h.List)
		contracts.GET("/:id", h.GetByID)

		manage := contracts.Group("", middleware.RequireRoles(
			identity.RoleAdmin, identity.RoleProcurementLead, identity.RoleProcurement))
		manage.POST("", h.Create)
		manage.PUT("/:id", h.Update)
		manage.POST("/:id/activate", h.Activate)
		manage.POST("/:id/terminate", h.Terminate)
	}
}

// Create godoc
// @ID           createContract
// @Summary      Draft a contract
// @Description  Creates a DRAFT contract with an ACTIVE vendor
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body contractapp.CreateContractRequest true "Contract details"
// @Success      201 {object} APIResponse[contractapp.ContractResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /contracts [post]
func (h *ContractHandler) Create(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}

	var req contractapp.CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.contractService.Create(c.Request.Context(), tenantID, actorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// List godoc
// @ID           listContracts
// @Summary      List contracts
// @Tags         contracts
// @Produce      json
// @Security     BearerAuth
// @Param        page      query int    false "Page number"
// @Param        page_size query int    false "Page size"
// @Param        status    query string false "Filter by status" Enums(DRAFT, ACTIVE, EXPIRED, TERMINATED)
// @Param        vendor_id query string false "Filter by vendor"
// @Success      200 {object} APIResponse[[]contractapp.ContractResponse]
// @Router       /contracts [get]
func (h *ContractHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter contractapp.ContractListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)

	page, err := h.contractService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetByID godoc
// @ID           getContractById
// @Summary      Get a contract
// @Tags         contracts
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Contract ID"
// @Success      200 {object} APIResponse[contractapp.ContractResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /contracts/{id} [get]
func (h *ContractHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	contractID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.contractService.GetByID(c.Request.Context(), tenantID, contractID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Update godoc
// @ID           updateContract
// @Summary      Update a draft contract
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string                            true "Contract ID"
// @Param        request body contractapp.UpdateContractRequest true "Fields to update"
// @Success      200 {object} APIResponse[contractapp.ContractResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /contracts/{id} [put]
func (h *ContractHandler) Update(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}
	contractID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req contractapp.UpdateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.contractService.Update(c.Request.Context(), tenantID, actorID, contractID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Activate godoc
// @ID           activateContract
// @Summary      Activate a contract
// @Description  Moves a DRAFT contract to ACTIVE once its effective window
// @Description  and signed document are in place
// @Tags         contracts
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Contract ID"
// @Success      200 {object} APIResponse[contractapp.ContractResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /contracts/{id}/activate [post]
func (h *ContractHandler) Activate(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}
	contractID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.contractService.Activate(c.Request.Context(), tenantID, actorID, contractID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Terminate godoc
// @ID           terminateContract
// @Summary      Terminate a contract
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string                               true "Contract ID"
// @Param        request body contractapp.TerminateContractRequest true "Termination reason"
// @Success      200 {object} APIResponse[contractapp.ContractResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /contracts/{id}/terminate [post]
func (h *ContractHandler) Terminate(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}
	contractID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req contractapp.TerminateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.contractService.Terminate(c.Request.Context(), tenantID, actorID, contractID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
