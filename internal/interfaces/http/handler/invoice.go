package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	invoiceapp "github.com/procura/backend/internal/application/invoice"
	"github.com/procura/backend/internal/domain/identity"
	"github.com/procura/backend/internal/interfaces/http/middleware"
)

// InvoiceHandler handles vendor invoice and matching endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *invoiceapp.InvoiceService
	matchService   *invoiceapp.MatchService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *invoiceapp.InvoiceService, matchService *invoiceapp.MatchService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		matchService:   matchService,
	}
}

// RegisterRoutes registers invoice routes on the given router group.
// Payment approval and marking paid require finance roles; overriding a
// match exception is reserved for finance leadership
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	{
		invoices.POST("", h.Create)
		invoices.GET("", h.List)
		invoices.GET("/:id", h.GetByID)
		invoices.GET("/:id/match-result", h.MatchResult)
		invoices.POST("/:id/dispute", h.Dispute)
		invoices.POST("/match", h.RunMatch)

		finance := invoices.Group("", middleware.RequirePaymentApproval())
		finance.POST("/:id/approve-payment", h.ApprovePayment)
		finance.POST("/:id/mark-paid", h.MarkPaid)

		leadership := invoices.Group("", middleware.RequireRoles(
			identity.RoleAdmin, identity.RoleCFO, identity.RoleFinanceHead))
		leadership.POST("/:id/override-match", h.OverrideMatch)
	}
}

// Create godoc
// @ID           createInvoice
// @Summary      Register a vendor invoice
// @Description  Creates an UPLOADED invoice. An invoice referencing a scanned
// @Description  document is queued for OCR extraction; one referencing an
// @Description  order directly is queued for three-way matching
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body invoiceapp.CreateInvoiceRequest true "Invoice details"
// @Success      201 {object} APIResponse[invoiceapp.InvoiceResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}

	var req invoiceapp.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.invoiceService.Create(c.Request.Context(), tenantID, actorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// List godoc
// @ID           listInvoices
// @Summary      List invoices
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        page      query int    false "Page number"
// @Param        page_size query int    false "Page size"
// @Param        status    query string false "Filter by status" Enums(UPLOADED, MATCHED, EXCEPTION, DISPUTED, APPROVED, PAID)
// @Param        vendor_id query string false "Filter by vendor"
// @Success      200 {object} APIResponse[[]invoiceapp.InvoiceResponse]
// @Router       /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter invoiceapp.InvoiceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)

	page, err := h.invoiceService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetByID godoc
// @ID           getInvoiceById
// @Summary      Get an invoice
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Invoice ID"
// @Success      200 {object} APIResponse[invoiceapp.InvoiceResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	invoiceID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.invoiceService.GetByID(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// MatchResult godoc
// @ID           getInvoiceMatchResult
// @Summary      Get the latest match outcome for an invoice
// @Description  Returns the stored three-way match status and any exceptions
// @Description  recorded by the last run
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Invoice ID"
// @Success      200 {object} APIResponse[invoiceapp.MatchResultResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /invoices/{id}/match-result [get]
func (h *InvoiceHandler) MatchResult(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	invoiceID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.invoiceService.MatchResult(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// RunMatch godoc
// @ID           runInvoiceMatch
// @Summary      Run a three-way match
// @Description  Matches an invoice against a purchase order and its receipts.
// @Description  The invoice ends MATCHED or EXCEPTION depending on price and
// @Description  quantity tolerances
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body invoiceapp.MatchRunRequest true "Order and invoice to match"
// @Success      200 {object} APIResponse[invoiceapp.MatchResultResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /invoices/match [post]
func (h *InvoiceHandler) RunMatch(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}

	var req invoiceapp.MatchRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.matchService.Run(c.Request.Context(), tenantID, actorID, req.OrderID, req.InvoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Dispute godoc
// @ID           disputeInvoice
// @Summary      Dispute an invoice
// @Description  Moves an invoice in EXCEPTION to DISPUTED with a reason for
// @Description  the vendor
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string                           true "Invoice ID"
// @Param        request body invoiceapp.DisputeInvoiceRequest true "Dispute reason"
// @Success      200 {object} APIResponse[invoiceapp.InvoiceResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /invoices/{id}/dispute [post]
func (h *InvoiceHandler) Dispute(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}
	invoiceID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req invoiceapp.DisputeInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.invoiceService.Dispute(c.Request.Context(), tenantID, actorID, invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// OverrideMatch godoc
// @ID           overrideInvoiceMatch
// @Summary      Override a match exception
// @Description  Forces an EXCEPTION invoice to MATCHED. The override is
// @Description  recorded in the audit log with the overriding officer
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Invoice ID"
// @Success      200 {object} APIResponse[invoiceapp.InvoiceResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /invoices/{id}/override-match [post]
func (h *InvoiceHandler) OverrideMatch(c *gin.Context) {
	h.invoiceTransition(c, h.invoiceService.OverrideMatch)
}

// ApprovePayment godoc
// @ID           approveInvoicePayment
// @Summary      Approve an invoice for payment
// @Description  Moves a MATCHED invoice to APPROVED and commits the matched
// @Description  amount against the department budget
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Invoice ID"
// @Success      200 {object} APIResponse[invoiceapp.InvoiceResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /invoices/{id}/approve-payment [post]
func (h *InvoiceHandler) ApprovePayment(c *gin.Context) {
	h.invoiceTransition(c, h.invoiceService.ApprovePayment)
}

// MarkPaid godoc
// @ID           markInvoicePaid
// @Summary      Mark an invoice paid
// @Description  Records settlement of an APPROVED invoice
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Invoice ID"
// @Success      200 {object} APIResponse[invoiceapp.InvoiceResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /invoices/{id}/mark-paid [post]
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	h.invoiceTransition(c, h.invoiceService.MarkPaid)
}

// invoiceTransition runs an invoice state transition that takes no request body
func (h *InvoiceHandler) invoiceTransition(
	c *gin.Context,
	fn func(ctx context.Context, tenantID, actorID, invoiceID uuid.UUID) (*invoiceapp.InvoiceResponse, error),
) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}
	invoiceID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := fn(c.Request.Context(), tenantID, actorID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
