package handler

import (
	"github.com/gin-gonic/gin"

	notificationapp "github.com/procura/backend/internal/application/notification"
	"github.com/procura/backend/internal/interfaces/http/middleware"
)

// NotificationHandler handles in-app notification and device endpoints
type NotificationHandler struct {
	BaseHandler
	notificationService *notificationapp.NotificationService
	deviceService       *notificationapp.DeviceService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(
	notificationService *notificationapp.NotificationService,
	deviceService *notificationapp.DeviceService,
) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		deviceService:       deviceService,
	}
}

// RegisterRoutes registers notification routes on the given router group
func (h *NotificationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	notifications := rg.Group("/notifications")
	{
		notifications.GET("", h.List)
		notifications.GET("/unread-count", h.CountUnread)
		notifications.POST("/:id/read", h.MarkRead)
	}

	devices := rg.Group("/devices")
	{
		devices.POST("", h.RegisterDevice)
		devices.DELETE("/:token", h.UnregisterDevice)
	}
}

// List godoc
// @ID           listNotifications
// @Summary      List the caller's notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        page      query int  false "Page number"
// @Param        page_size query int  false "Page size"
// @Param        unread    query bool false "Only unread when true"
// @Success      200 {object} APIResponse[[]notificationapp.NotificationResponse]
// @Router       /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	var filter notificationapp.NotificationListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)

	page, err := h.notificationService.List(c.Request.Context(), tenantID, userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// CountUnread godoc
// @ID           countUnreadNotifications
// @Summary      Count the caller's unread notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[CountData]
// @Router       /notifications/unread-count [get]
func (h *NotificationHandler) CountUnread(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	count, err := h.notificationService.CountUnread(c.Request.Context(), tenantID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, CountData{Count: count})
}

// MarkRead godoc
// @ID           markNotificationRead
// @Summary      Mark a notification read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Notification ID"
// @Success      200 {object} APIResponse[notificationapp.NotificationResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	notifID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.notificationService.MarkRead(c.Request.Context(), tenantID, userID, notifID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// RegisterDevice godoc
// @ID           registerDevice
// @Summary      Register a push device
// @Description  Registers or refreshes a push token for the caller. A token
// @Description  previously owned by another user is reassigned
// @Tags         devices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body notificationapp.RegisterDeviceRequest true "Device token and platform"
// @Success      201 {object} APIResponse[notificationapp.DeviceResponse]
// @Router       /devices [post]
func (h *NotificationHandler) RegisterDevice(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	var req notificationapp.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.deviceService.Register(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// UnregisterDevice godoc
// @ID           unregisterDevice
// @Summary      Unregister a push device
// @Tags         devices
// @Produce      json
// @Security     BearerAuth
// @Param        token path string true "Device token"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /devices/{token} [delete]
func (h *NotificationHandler) UnregisterDevice(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	if err := h.deviceService.Unregister(c.Request.Context(), tenantID, userID, c.Param("token")); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
