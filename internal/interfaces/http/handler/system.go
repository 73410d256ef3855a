package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/procura/backend/internal/interfaces/http/dto"
)

// healthCheckTimeout bounds each dependency probe so a wedged backend
// cannot hang the health endpoint
const healthCheckTimeout = 2 * time.Second

// SystemHandler serves health and system information endpoints
type SystemHandler struct {
	BaseHandler
	db        *gorm.DB
	redis     *redis.Client
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler. Either dependency may be
// nil, in which case its probe is skipped
func NewSystemHandler(db *gorm.DB, redisClient *redis.Client) *SystemHandler {
	return &SystemHandler{
		db:        db,
		redis:     redisClient,
		startTime: time.Now(),
	}
}

// RegisterRoutes registers system routes on the given router group
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
	rg.GET("/system/info", h.GetSystemInfo)
	rg.GET("/system/ping", h.Ping)
}

// HealthResponse represents the health check response
// @name HandlerHealthResponse
type HealthResponse struct {
	Status     string            `json:"status" example:"ok"`
	Components map[string]string `json:"components"`
	Timestamp  string            `json:"timestamp" example:"2026-01-23T12:00:00Z"`
}

// Health godoc
// @ID           getHealth
// @Summary      Health check
// @Description  Reports service health including database and Redis connectivity
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	components := map[string]string{}
	healthy := true

	if h.db != nil {
		components["database"] = "ok"
		if sqlDB, err := h.db.DB(); err != nil {
			components["database"] = "unreachable"
			healthy = false
		} else if err := sqlDB.PingContext(ctx); err != nil {
			components["database"] = "unreachable"
			healthy = false
		}
	}

	if h.redis != nil {
		components["redis"] = "ok"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			components["redis"] = "unreachable"
			healthy = false
		}
	}

	resp := HealthResponse{
		Status:     "ok",
		Components: components,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	if !healthy {
		resp.Status = "degraded"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SystemInfoResponse represents the system information response
// @name HandlerSystemInfoResponse
type SystemInfoResponse struct {
	Name      string `json:"name" example:"Procura API"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// GetSystemInfo godoc
// @ID           getSystemSystemInfo
// @Summary      Get system information
// @Description  Returns basic system information including version and uptime
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[SystemInfoResponse]
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      "Procura API",
		Version:   "1.0.0",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}

// PingResponse represents the ping response
// @name HandlerPingResponse
type PingResponse struct {
	Message   string `json:"message" example:"pong"`
	Timestamp string `json:"timestamp" example:"2026-01-23T12:00:00Z"`
}

// Ping godoc
// @ID           pingSystem
// @Summary      Ping the API
// @Description  Simple ping endpoint to check if the API is responsive
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[PingResponse]
// @Router       /system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	response := PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(response))
}
