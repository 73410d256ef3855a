package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	partnerapp "github.com/procura/backend/internal/application/partner"
	"github.com/procura/backend/internal/domain/identity"
	"github.com/procura/backend/internal/interfaces/http/middleware"
)

// VendorHandler handles vendor master data endpoints
type VendorHandler struct {
	BaseHandler
	vendorService *partnerapp.VendorService
}

// NewVendorHandler creates a new VendorHandler
func NewVendorHandler(vendorService *partnerapp.VendorService) *VendorHandler {
	return &VendorHandler{vendorService: vendorService}
}

// RegisterRoutes registers vendor routes on the given router group.
// Lifecycle transitions require vendor management roles; approval of a
// pending vendor additionally requires a lead or admin
func (h *VendorHandler) RegisterRoutes(rg *gin.RouterGroup) {
	vendors := rg.Group("/vendors")
	{
		vendors.GET("", h.List)
		vendors.GET("/:id", h.GetByID)

		manage := vendors.Group("", middleware.RequireVendorManagement())
		manage.POST("", h.Create)
		manage.PUT("/:id", h.Update)
		manage.DELETE("/:id", h.Delete)
		manage.POST("/:id/submit", h.SubmitForReview)

		lead := vendors.Group("", middleware.RequireRoles(identity.RoleAdmin, identity.RoleProcurementLead))
		lead.POST("/:id/approve", h.Approve)
		lead.POST("/:id/block", h.Block)
		lead.POST("/:id/unblock", h.Unblock)
		lead.PUT("/:id/risk-score", h.SetRiskScore)
	}
}

// Create godoc
// @ID           createVendor
// @Summary      Register a vendor
// @Description  Creates a vendor in DRAFT status
// @Tags         vendors
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body partnerapp.CreateVendorRequest true "Vendor details"
// @Success      201 {object} APIResponse[partnerapp.VendorResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /vendors [post]
func (h *VendorHandler) Create(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}

	var req partnerapp.CreateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.vendorService.Create(c.Request.Context(), tenantID, actorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// List godoc
// @ID           listVendors
// @Summary      List vendors
// @Tags         vendors
// @Produce      json
// @Security     BearerAuth
// @Param        page      query int    false "Page number"
// @Param        page_size query int    false "Page size"
// @Param        status    query string false "Filter by status" Enums(DRAFT, PENDING_REVIEW, ACTIVE, BLOCKED)
// @Param        search    query string false "Search in legal name and email"
// @Success      200 {object} APIResponse[[]partnerapp.VendorResponse]
// @Router       /vendors [get]
func (h *VendorHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter partnerapp.VendorListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)

	vendors, total, err := h.vendorService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, vendors, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @ID           getVendorById
// @Summary      Get a vendor
// @Tags         vendors
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Vendor ID"
// @Success      200 {object} APIResponse[partnerapp.VendorResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /vendors/{id} [get]
func (h *VendorHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	vendorID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.vendorService.GetByID(c.Request.Context(), tenantID, vendorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Update godoc
// @ID           updateVendor
// @Summary      Update a vendor
// @Tags         vendors
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string                          true "Vendor ID"
// @Param        request body partnerapp.UpdateVendorRequest  true "Fields to update"
// @Success      200 {object} APIResponse[partnerapp.VendorResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /vendors/{id} [put]
func (h *VendorHandler) Update(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}
	vendorID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req partnerapp.UpdateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.vendorService.Update(c.Request.Context(), tenantID, actorID, vendorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Delete godoc
// @ID           deleteVendor
// @Summary      Delete a vendor
// @Description  Soft-deletes a vendor that has no open orders or unpaid invoices
// @Tags         vendors
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Vendor ID"
// @Success      204
// @Failure      409 {object} ErrorResponse
// @Router       /vendors/{id} [delete]
func (h *VendorHandler) Delete(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}
	vendorID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.vendorService.Delete(c.Request.Context(), tenantID, actorID, vendorID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// SubmitForReview godoc
// @ID           submitVendorForReview
// @Summary      Submit a vendor for review
// @Description  Moves a DRAFT vendor to PENDING_REVIEW
// @Tags         vendors
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Vendor ID"
// @Success      200 {object} APIResponse[partnerapp.VendorResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /vendors/{id}/submit [post]
func (h *VendorHandler) SubmitForReview(c *gin.Context) {
	h.transition(c, h.vendorService.SubmitForReview)
}

// Approve godoc
// @ID           approveVendor
// @Summary      Approve a vendor
// @Description  Moves a PENDING_REVIEW vendor to ACTIVE
// @Tags         vendors
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Vendor ID"
// @Success      200 {object} APIResponse[partnerapp.VendorResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /vendors/{id}/approve [post]
func (h *VendorHandler) Approve(c *gin.Context) {
	h.transition(c, h.vendorService.Approve)
}

// Block godoc
// @ID           blockVendor
// @Summary      Block a vendor
// @Description  Blocks an ACTIVE vendor from receiving new orders
// @Tags         vendors
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string                        true "Vendor ID"
// @Param        request body partnerapp.BlockVendorRequest true "Block reason"
// @Success      200 {object} APIResponse[partnerapp.VendorResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /vendors/{id}/block [post]
func (h *VendorHandler) Block(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}
	vendorID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req partnerapp.BlockVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.vendorService.Block(c.Request.Context(), tenantID, actorID, vendorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Unblock godoc
// @ID           unblockVendor
// @Summary      Unblock a vendor
// @Tags         vendors
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Vendor ID"
// @Success      200 {object} APIResponse[partnerapp.VendorResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /vendors/{id}/unblock [post]
func (h *VendorHandler) Unblock(c *gin.Context) {
	h.transition(c, h.vendorService.Unblock)
}

// SetRiskScoreRequest represents a manual vendor risk score override
type SetRiskScoreRequest struct {
	Score int `json:"score" binding:"min=0,max=100"`
}

// SetRiskScore godoc
// @ID           setVendorRiskScore
// @Summary      Set a vendor's risk score
// @Tags         vendors
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string              true "Vendor ID"
// @Param        request body SetRiskScoreRequest true "Risk score 0-100"
// @Success      200 {object} APIResponse[partnerapp.VendorResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /vendors/{id}/risk-score [put]
func (h *VendorHandler) SetRiskScore(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}
	vendorID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req SetRiskScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.vendorService.SetRiskScore(c.Request.Context(), tenantID, actorID, vendorID, req.Score)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// transition runs a vendor lifecycle transition that takes no request body
func (h *VendorHandler) transition(
	c *gin.Context,
	fn func(ctx context.Context, tenantID, actorID, vendorID uuid.UUID) (*partnerapp.VendorResponse, error),
) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}
	vendorID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := fn(c.Request.Context(), tenantID, actorID, vendorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
