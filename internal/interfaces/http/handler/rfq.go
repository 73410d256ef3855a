package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	partnerapp "github.com/procura/backend/internal/application/partner"
	rfqapp "github.com/procura/backend/internal/application/rfq"
	"github.com/procura/backend/internal/domain/identity"
	"github.com/procura/backend/internal/interfaces/http/middleware"
)

// RfqHandler handles request-for-quote endpoints
type RfqHandler struct {
	BaseHandler
	rfqService    *rfqapp.RfqService
	vendorService *partnerapp.VendorService
}

// NewRfqHandler creates a new RfqHandler
func NewRfqHandler(rfqService *rfqapp.RfqService, vendorService *partnerapp.VendorService) *RfqHandler {
	return &RfqHandler{
		rfqService:    rfqService,
		vendorService: vendorService,
	}
}

// RegisterRoutes registers RFQ routes on the given router group. Drafting,
// sending and awarding are buyer operations; quotes and declines come from
// the vendor portal
func (h *RfqHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rfqs := rg.Group("/rfqs")
	{
		rfqs.GET("", h.List)
		rfqs.GET("/invitations", h.ListInvitations)
		rfqs.GET("/:id", h.GetByID)
		rfqs.POST("/:id/quote", h.RecordQuote)
		rfqs.POST("/:id/decline", h.DeclineInvitation)

		buyers := rfqs.Group("", middleware.RequireRoles(
			identity.RoleAdmin, identity.RoleProcurementLead, identity.RoleProcurement))
		buyers.POST("", h.Create)
		buyers.POST("/:id/send", h.Send)
		buyers.POST("/:id/award", h.Award)
		buyers.POST("/:id/cancel", h.Cancel)
	}
}

// Create godoc
// @ID           createRfq
// @Summary      Draft a request for quote
// @Description  Creates a DRAFT RFQ with line items and the vendors to invite
// @Tags         rfqs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body rfqapp.CreateRfqRequest true "RFQ details"
// @Success      201 {object} APIResponse[rfqapp.RfqResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /rfqs [post]
func (h *RfqHandler) Create(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}

	var req rfqapp.CreateRfqRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.rfqService.Create(c.Request.Context(), tenantID, actorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// List godoc
// @ID           listRfqs
// @Summary      List RFQs
// @Tags         rfqs
// @Produce      json
// @Security     BearerAuth
// @Param        page      query int    false "Page number"
// @Param        page_size query int    false "Page size"
// @Param        status    query string false "Filter by status" Enums(DRAFT, SENT, QUOTED, AWARDED, CANCELLED)
// @Success      200 {object} APIResponse[[]rfqapp.RfqResponse]
// @Router       /rfqs [get]
func (h *RfqHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter rfqapp.RfqListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)

	page, err := h.rfqService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ListInvitations godoc
// @ID           listRfqInvitations
// @Summary      List RFQs a vendor is invited to
// @Description  Vendor users see their own invitations, resolved through the
// @Description  vendor record matching their login email. Buyers may inspect
// @Description  any vendor's invitations via the vendor_id query parameter
// @Tags         rfqs
// @Produce      json
// @Security     BearerAuth
// @Param        page      query int    false "Page number"
// @Param        page_size query int    false "Page size"
// @Param        vendor_id query string false "Vendor ID (buyers only)"
// @Success      200 {object} APIResponse[[]rfqapp.RfqResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /rfqs/invitations [get]
func (h *RfqHandler) ListInvitations(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	vendorID, ok := h.resolveVendor(c, tenantID)
	if !ok {
		return
	}

	var filter rfqapp.RfqListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)

	page, err := h.rfqService.ListForVendor(c.Request.Context(), tenantID, vendorID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetByID godoc
// @ID           getRfqById
// @Summary      Get an RFQ
// @Tags         rfqs
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "RFQ ID"
// @Success      200 {object} APIResponse[rfqapp.RfqResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /rfqs/{id} [get]
func (h *RfqHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	rfqID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.rfqService.GetByID(c.Request.Context(), tenantID, rfqID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Send godoc
// @ID           sendRfq
// @Summary      Send an RFQ to its invited vendors
// @Description  Moves a DRAFT RFQ to SENT and notifies the invited vendors
// @Tags         rfqs
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "RFQ ID"
// @Success      200 {object} APIResponse[rfqapp.RfqResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /rfqs/{id}/send [post]
func (h *RfqHandler) Send(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}
	rfqID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.rfqService.Send(c.Request.Context(), tenantID, actorID, rfqID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// RecordQuote godoc
// @ID           recordRfqQuote
// @Summary      Record a vendor quote
// @Description  Stores a vendor's per-line quote on a SENT RFQ. A vendor may
// @Description  requote until the RFQ is awarded; the latest quote wins
// @Tags         rfqs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string                    true "RFQ ID"
// @Param        request body rfqapp.RecordQuoteRequest true "Quote lines"
// @Success      200 {object} APIResponse[rfqapp.RfqResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /rfqs/{id}/quote [post]
func (h *RfqHandler) RecordQuote(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}
	rfqID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req rfqapp.RecordQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.rfqService.RecordQuote(c.Request.Context(), tenantID, actorID, rfqID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// DeclineInvitation godoc
// @ID           declineRfqInvitation
// @Summary      Decline an RFQ invitation
// @Tags         rfqs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string                          true "RFQ ID"
// @Param        request body rfqapp.DeclineInvitationRequest true "Declining vendor"
// @Success      200 {object} APIResponse[rfqapp.RfqResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /rfqs/{id}/decline [post]
func (h *RfqHandler) DeclineInvitation(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}
	rfqID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req rfqapp.DeclineInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.rfqService.DeclineInvitation(c.Request.Context(), tenantID, actorID, rfqID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Award godoc
// @ID           awardRfq
// @Summary      Award an RFQ to a vendor
// @Description  Selects the winning quote and seeds a draft purchase order
// @Description  from the quoted prices
// @Tags         rfqs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string                 true "RFQ ID"
// @Param        request body rfqapp.AwardRfqRequest true "Winning vendor"
// @Success      200 {object} APIResponse[rfqapp.AwardResult]
// @Failure      409 {object} ErrorResponse
// @Router       /rfqs/{id}/award [post]
func (h *RfqHandler) Award(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}
	rfqID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req rfqapp.AwardRfqRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.rfqService.Award(c.Request.Context(), tenantID, actorID, rfqID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Cancel godoc
// @ID           cancelRfq
// @Summary      Cancel an RFQ
// @Tags         rfqs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string                  true "RFQ ID"
// @Param        request body rfqapp.CancelRfqRequest true "Cancellation reason"
// @Success      200 {object} APIResponse[rfqapp.RfqResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /rfqs/{id}/cancel [post]
func (h *RfqHandler) Cancel(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}
	rfqID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req rfqapp.CancelRfqRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.rfqService.Cancel(c.Request.Context(), tenantID, actorID, rfqID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// resolveVendor determines which vendor's invitations the caller may see.
// Vendor users map to the vendor record carrying their login email; other
// roles must name the vendor explicitly
func (h *RfqHandler) resolveVendor(c *gin.Context, tenantID uuid.UUID) (uuid.UUID, bool) {
	if getRole(c) == identity.RoleVendor {
		vendor, err := h.vendorService.GetByEmail(c.Request.Context(), tenantID, middleware.GetJWTEmail(c))
		if err != nil {
			h.HandleError(c, err)
			return uuid.Nil, false
		}
		return vendor.ID, true
	}

	raw := c.Query("vendor_id")
	if raw == "" {
		h.BadRequest(c, "vendor_id is required")
		return uuid.Nil, false
	}
	vendorID, err := uuid.Parse(raw)
	if err != nil {
		h.BadRequest(c, "Invalid vendor_id format")
		return uuid.Nil, false
	}
	return vendorID, true
}
