package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	approvalapp "github.com/procura/backend/internal/application/approval"
	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/interfaces/http/middleware"
)

// ApprovalHandler handles approval workflow endpoints
type ApprovalHandler struct {
	BaseHandler
	approvalService *approvalapp.ApprovalService
}

// NewApprovalHandler creates a new ApprovalHandler
func NewApprovalHandler(approvalService *approvalapp.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

// RegisterRoutes registers approval routes on the given router group
func (h *ApprovalHandler) RegisterRoutes(rg *gin.RouterGroup) {
	approvals := rg.Group("/approvals")
	{
		approvals.GET("/pending", h.ListPending)
		approvals.GET("/chain", h.GetChain)
		approvals.POST("/:id/approve", h.Approve)
		approvals.POST("/:id/reject", h.Reject)
	}
}

// ListPending godoc
// @ID           listPendingApprovals
// @Summary      List approvals waiting on the caller
// @Description  Returns only chain steps whose turn has arrived for the
// @Description  authenticated approver
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Param        page        query int    false "Page number"
// @Param        page_size   query int    false "Page size"
// @Param        entity_type query string false "Filter by entity type" Enums(PR, PO, INVOICE)
// @Success      200 {object} APIResponse[[]approvalapp.ApprovalResponse]
// @Router       /approvals/pending [get]
func (h *ApprovalHandler) ListPending(c *gin.Context) {
	tenantID, approverID, ok := h.identity(c)
	if !ok {
		return
	}

	var filter approvalapp.PendingListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)

	approvals, total, err := h.approvalService.ListPending(c.Request.Context(), tenantID, approverID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, approvals, total, filter.Page, filter.PageSize)
}

// ChainQuery identifies the entity whose approval chain is requested
type ChainQuery struct {
	EntityType string    `form:"entity_type" binding:"required,oneof=PR PO INVOICE"`
	EntityID   uuid.UUID `form:"entity_id" binding:"required"`
}

// GetChain godoc
// @ID           getApprovalChain
// @Summary      Get the approval chain for an entity
// @Description  Returns every step of the chain in level order, including
// @Description  decided and skipped steps
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Param        entity_type query string true "Entity type" Enums(PR, PO, INVOICE)
// @Param        entity_id   query string true "Entity ID"
// @Success      200 {object} APIResponse[[]approvalapp.ApprovalResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /approvals/chain [get]
func (h *ApprovalHandler) GetChain(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var query ChainQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	chain, err := h.approvalService.GetChain(c.Request.Context(), tenantID, shared.EntityType(query.EntityType), query.EntityID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, chain)
}

// Approve godoc
// @ID           approveApproval
// @Summary      Approve a pending step
// @Description  Records approval on the caller's step. Approving out of turn
// @Description  or approving one's own request is rejected
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string                     true  "Approval ID"
// @Param        request body approvalapp.ApproveRequest false "Optional comment"
// @Success      200 {object} APIResponse[approvalapp.DecisionResponse]
// @Failure      403 {object} ErrorResponse
// @Router       /approvals/{id}/approve [post]
func (h *ApprovalHandler) Approve(c *gin.Context) {
	tenantID, approverID, ok := h.identity(c)
	if !ok {
		return
	}
	approvalID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req approvalapp.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.approvalService.Approve(c.Request.Context(), tenantID, approverID, approvalID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Reject godoc
// @ID           rejectApproval
// @Summary      Reject a pending step
// @Description  Rejects the caller's step with a mandatory comment, which
// @Description  terminates the chain and releases any reserved budget
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string                    true "Approval ID"
// @Param        request body approvalapp.RejectRequest true "Rejection comment"
// @Success      200 {object} APIResponse[approvalapp.DecisionResponse]
// @Failure      403 {object} ErrorResponse
// @Router       /approvals/{id}/reject [post]
func (h *ApprovalHandler) Reject(c *gin.Context) {
	tenantID, approverID, ok := h.identity(c)
	if !ok {
		return
	}
	approvalID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req approvalapp.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.approvalService.Reject(c.Request.Context(), tenantID, approverID, approvalID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
