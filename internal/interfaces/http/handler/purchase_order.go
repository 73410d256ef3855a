package handler

import (
	"github.com/gin-gonic/gin"

	procurementapp "github.com/procura/backend/internal/application/procurement"
	"github.com/procura/backend/internal/domain/identity"
	"github.com/procura/backend/internal/interfaces/http/middleware"
)

// PurchaseOrderHandler handles purchase order endpoints
type PurchaseOrderHandler struct {
	BaseHandler
	orderService *procurementapp.PurchaseOrderService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(orderService *procurementapp.PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orderService: orderService}
}

// RegisterRoutes registers purchase order routes on the given router group.
// Issuing and cancelling orders is limited to procurement staff
func (h *PurchaseOrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/purchase-orders")
	{
		orders.GET("", h.List)
		orders.GET("/:id", h.GetByID)
		orders.GET("/:id/document-url", h.GetDocumentURL)
		orders.POST("/:id/acknowledge", h.Acknowledge)

		buyers := orders.Group("", middleware.RequireRoles(
			identity.RoleAdmin, identity.RoleProcurementLead, identity.RoleProcurement))
		buyers.POST("", h.Create)
		buyers.POST("/:id/cancel", h.Cancel)
	}
}

// Create godoc
// @ID           createPurchaseOrder
// @Summary      Issue a purchase order
// @Description  Converts an APPROVED purchase request into an ISSUED order to
// @Description  an ACTIVE vendor and queues the order document for rendering
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body procurementapp.CreatePurchaseOrderRequest true "Order details"
// @Success      201 {object} APIResponse[procurementapp.PurchaseOrderResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /purchase-orders [post]
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}

	var req procurementapp.CreatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.orderService.CreateFromRequest(c.Request.Context(), tenantID, actorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// List godoc
// @ID           listPurchaseOrders
// @Summary      List purchase orders
// @Tags         purchase-orders
// @Produce      json
// @Security     BearerAuth
// @Param        page      query int    false "Page number"
// @Param        page_size query int    false "Page size"
// @Param        status    query string false "Filter by status" Enums(DRAFT, ISSUED, ACKNOWLEDGED, PARTIALLY_FULFILLED, FULFILLED, CLOSED, CANCELLED)
// @Param        vendor_id query string false "Filter by vendor"
// @Success      200 {object} APIResponse[[]procurementapp.PurchaseOrderResponse]
// @Router       /purchase-orders [get]
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter procurementapp.PurchaseOrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)

	orders, total, err := h.orderService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @ID           getPurchaseOrderById
// @Summary      Get a purchase order
// @Tags         purchase-orders
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Purchase order ID"
// @Success      200 {object} APIResponse[procurementapp.PurchaseOrderResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /purchase-orders/{id} [get]
func (h *PurchaseOrderHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.orderService.GetByID(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// GetDocumentURL godoc
// @ID           getPurchaseOrderDocumentUrl
// @Summary      Get a signed URL for the order document
// @Description  Returns a time-limited download URL for the rendered PDF.
// @Description  Fails while the document is still being rendered
// @Tags         purchase-orders
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Purchase order ID"
// @Success      200 {object} APIResponse[map[string]string]
// @Failure      404 {object} ErrorResponse
// @Router       /purchase-orders/{id}/document-url [get]
func (h *PurchaseOrderHandler) GetDocumentURL(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	url, err := h.orderService.GetDocumentURL(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"url": url})
}

// Acknowledge godoc
// @ID           acknowledgePurchaseOrder
// @Summary      Acknowledge a purchase order
// @Description  Records the vendor's acknowledgement of an ISSUED order
// @Tags         purchase-orders
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Purchase order ID"
// @Success      200 {object} APIResponse[procurementapp.PurchaseOrderResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /purchase-orders/{id}/acknowledge [post]
func (h *PurchaseOrderHandler) Acknowledge(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.orderService.Acknowledge(c.Request.Context(), tenantID, actorID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Cancel godoc
// @ID           cancelPurchaseOrder
// @Summary      Cancel a purchase order
// @Description  Cancels an order with no receipts or matched invoices and
// @Description  releases the budget reserved for it
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string                                     true "Purchase order ID"
// @Param        request body procurementapp.CancelPurchaseOrderRequest  true "Cancellation reason"
// @Success      200 {object} APIResponse[procurementapp.PurchaseOrderResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /purchase-orders/{id}/cancel [post]
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req procurementapp.CancelPurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.orderService.Cancel(c.Request.Context(), tenantID, actorID, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
