package handler

import (
	"github.com/gin-gonic/gin"

	procurementapp "github.com/procura/backend/internal/application/procurement"
	"github.com/procura/backend/internal/interfaces/http/middleware"
)

// PurchaseRequestHandler handles purchase request endpoints
type PurchaseRequestHandler struct {
	BaseHandler
	requestService *procurementapp.PurchaseRequestService
}

// NewPurchaseRequestHandler creates a new PurchaseRequestHandler
func NewPurchaseRequestHandler(requestService *procurementapp.PurchaseRequestService) *PurchaseRequestHandler {
	return &PurchaseRequestHandler{requestService: requestService}
}

// RegisterRoutes registers purchase request routes on the given router group
func (h *PurchaseRequestHandler) RegisterRoutes(rg *gin.RouterGroup) {
	requests := rg.Group("/purchase-requests")
	{
		requests.POST("", h.Create)
		requests.GET("", h.List)
		requests.GET("/:id", h.GetByID)
		requests.PUT("/:id", h.Update)
		requests.POST("/:id/submit", h.Submit)
		requests.POST("/:id/cancel", h.Cancel)
		requests.DELETE("/:id", h.Delete)
	}
}

// Create godoc
// @ID           createPurchaseRequest
// @Summary      Create a purchase request
// @Description  Creates a DRAFT purchase request with its line items
// @Tags         purchase-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body procurementapp.CreatePurchaseRequestRequest true "Request details"
// @Success      201 {object} APIResponse[procurementapp.PurchaseRequestResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /purchase-requests [post]
func (h *PurchaseRequestHandler) Create(c *gin.Context) {
	tenantID, requesterID, ok := h.identity(c)
	if !ok {
		return
	}

	var req procurementapp.CreatePurchaseRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.requestService.Create(c.Request.Context(), tenantID, requesterID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// List godoc
// @ID           listPurchaseRequests
// @Summary      List purchase requests
// @Tags         purchase-requests
// @Produce      json
// @Security     BearerAuth
// @Param        page          query int    false "Page number"
// @Param        page_size     query int    false "Page size"
// @Param        status        query string false "Filter by status" Enums(DRAFT, PENDING, APPROVED, REJECTED, CANCELLED)
// @Param        department_id query string false "Filter by department"
// @Success      200 {object} APIResponse[[]procurementapp.PurchaseRequestResponse]
// @Router       /purchase-requests [get]
func (h *PurchaseRequestHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter procurementapp.PurchaseRequestListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)

	requests, total, err := h.requestService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, requests, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @ID           getPurchaseRequestById
// @Summary      Get a purchase request
// @Tags         purchase-requests
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Purchase request ID"
// @Success      200 {object} APIResponse[procurementapp.PurchaseRequestResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /purchase-requests/{id} [get]
func (h *PurchaseRequestHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	requestID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.requestService.GetByID(c.Request.Context(), tenantID, requestID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Update godoc
// @ID           updatePurchaseRequest
// @Summary      Update a purchase request
// @Description  Replaces the editable fields and line items of a DRAFT request
// @Tags         purchase-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string                                      true "Purchase request ID"
// @Param        request body procurementapp.UpdatePurchaseRequestRequest true "Fields to update"
// @Success      200 {object} APIResponse[procurementapp.PurchaseRequestResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /purchase-requests/{id} [put]
func (h *PurchaseRequestHandler) Update(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}
	requestID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req procurementapp.UpdatePurchaseRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.requestService.Update(c.Request.Context(), tenantID, actorID, requestID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Submit godoc
// @ID           submitPurchaseRequest
// @Summary      Submit a purchase request for approval
// @Description  Reserves budget for the request total and opens the approval
// @Description  chain. Fails with BUDGET_EXCEEDED when available funds are
// @Description  insufficient
// @Tags         purchase-requests
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Purchase request ID"
// @Success      200 {object} APIResponse[procurementapp.SubmitResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /purchase-requests/{id}/submit [post]
func (h *PurchaseRequestHandler) Submit(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}
	requestID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.requestService.Submit(c.Request.Context(), tenantID, actorID, requestID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Cancel godoc
// @ID           cancelPurchaseRequest
// @Summary      Cancel a purchase request
// @Description  Cancels a DRAFT, PENDING or APPROVED request and releases any
// @Description  budget still reserved for it
// @Tags         purchase-requests
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Purchase request ID"
// @Success      200 {object} APIResponse[procurementapp.PurchaseRequestResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /purchase-requests/{id}/cancel [post]
func (h *PurchaseRequestHandler) Cancel(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}
	requestID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.requestService.Cancel(c.Request.Context(), tenantID, actorID, requestID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Delete godoc
// @ID           deletePurchaseRequest
// @Summary      Delete a draft purchase request
// @Tags         purchase-requests
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Purchase request ID"
// @Success      204
// @Failure      409 {object} ErrorResponse
// @Router       /purchase-requests/{id} [delete]
func (h *PurchaseRequestHandler) Delete(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}
	requestID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.requestService.Delete(c.Request.Context(), tenantID, actorID, requestID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
