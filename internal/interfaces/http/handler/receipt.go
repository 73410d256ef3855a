package handler

import (
	"github.com/gin-gonic/gin"

	procurementapp "github.com/procura/backend/internal/application/procurement"
	"github.com/procura/backend/internal/interfaces/http/middleware"
)

// ReceiptHandler handles goods receipt endpoints
type ReceiptHandler struct {
	BaseHandler
	receiptService *procurementapp.ReceiptService
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(receiptService *procurementapp.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// RegisterRoutes registers receipt routes on the given router group
func (h *ReceiptHandler) RegisterRoutes(rg *gin.RouterGroup) {
	receipts := rg.Group("/receipts")
	{
		receipts.POST("", h.Create)
		receipts.GET("", h.List)
		receipts.GET("/:id", h.GetByID)
	}
}

// Create godoc
// @ID           createReceipt
// @Summary      Record a goods receipt
// @Description  Records received quantities against an order's line items,
// @Description  advances the order's fulfilment status and re-queues matching
// @Description  for invoices waiting on this delivery
// @Tags         receipts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body procurementapp.CreateReceiptRequest true "Receipt details"
// @Success      201 {object} APIResponse[procurementapp.ReceiptResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /receipts [post]
func (h *ReceiptHandler) Create(c *gin.Context) {
	tenantID, receiverID, ok := h.identity(c)
	if !ok {
		return
	}

	var req procurementapp.CreateReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.receiptService.Create(c.Request.Context(), tenantID, receiverID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// List godoc
// @ID           listReceipts
// @Summary      List goods receipts
// @Tags         receipts
// @Produce      json
// @Security     BearerAuth
// @Param        page      query int    false "Page number"
// @Param        page_size query int    false "Page size"
// @Param        po_id     query string false "Filter by purchase order"
// @Success      200 {object} APIResponse[[]procurementapp.ReceiptResponse]
// @Router       /receipts [get]
func (h *ReceiptHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter procurementapp.ReceiptListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)

	receipts, total, err := h.receiptService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, receipts, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @ID           getReceiptById
// @Summary      Get a goods receipt
// @Tags         receipts
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Receipt ID"
// @Success      200 {object} APIResponse[procurementapp.ReceiptResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /receipts/{id} [get]
func (h *ReceiptHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	receiptID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.receiptService.GetByID(c.Request.Context(), tenantID, receiptID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
