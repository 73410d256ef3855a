package handler

import (
	"github.com/gin-gonic/gin"

	auditapp "github.com/procura/backend/internal/application/audit"
	"github.com/procura/backend/internal/domain/identity"
	"github.com/procura/backend/internal/interfaces/http/middleware"
)

// AuditLogHandler handles audit trail endpoints
type AuditLogHandler struct {
	BaseHandler
	auditService *auditapp.AuditLogService
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(auditService *auditapp.AuditLogService) *AuditLogHandler {
	return &AuditLogHandler{auditService: auditService}
}

// RegisterRoutes registers audit log routes on the given router group.
// The audit trail is readable by admins and finance leadership only
func (h *AuditLogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	logs := rg.Group("/audit-logs", middleware.RequireRoles(
		identity.RoleAdmin, identity.RoleCFO, identity.RoleFinanceHead))
	{
		logs.GET("", h.List)
		logs.GET("/:entityType/:entityId", h.ListByEntity)
	}
}

// List godoc
// @ID           listAuditLogs
// @Summary      List audit log entries
// @Description  Returns the tenant's audit trail newest first, filterable by
// @Description  entity, actor and action
// @Tags         audit-logs
// @Produce      json
// @Security     BearerAuth
// @Param        page        query int    false "Page number"
// @Param        page_size   query int    false "Page size"
// @Param        entity_type query string false "Filter by entity type"
// @Param        entity_id   query string false "Filter by entity ID"
// @Param        actor_id    query string false "Filter by actor"
// @Param        action      query string false "Filter by action"
// @Success      200 {object} APIResponse[[]auditapp.AuditLogResponse]
// @Router       /audit-logs [get]
func (h *AuditLogHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter auditapp.AuditLogFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)

	page, err := h.auditService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ListByEntity godoc
// @ID           listAuditLogsByEntity
// @Summary      List audit entries for one entity
// @Tags         audit-logs
// @Produce      json
// @Security     BearerAuth
// @Param        entityType path  string true  "Entity type"
// @Param        entityId   path  string true  "Entity ID"
// @Param        page       query int   false "Page number"
// @Param        page_size  query int   false "Page size"
// @Success      200 {object} APIResponse[[]auditapp.AuditLogResponse]
// @Router       /audit-logs/{entityType}/{entityId} [get]
func (h *AuditLogHandler) ListByEntity(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	entityID, ok := h.uuidParam(c, "entityId")
	if !ok {
		return
	}

	var filter auditapp.AuditLogFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)

	page, err := h.auditService.ListByEntity(c.Request.Context(), tenantID, c.Param("entityType"), entityID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}
