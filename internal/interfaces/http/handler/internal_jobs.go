package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/procura/backend/internal/infrastructure/scheduler"
	"github.com/procura/backend/internal/interfaces/http/dto"
	"github.com/procura/backend/internal/interfaces/http/middleware"
)

// InternalJobsHandler exposes the sweep triggers used by external cron.
// The routes sit under /internal and are guarded by the shared-secret
// header rather than JWT
type InternalJobsHandler struct {
	BaseHandler
	scheduler *scheduler.Scheduler
	authCfg   middleware.InternalAuthConfig
}

// NewInternalJobsHandler creates a new InternalJobsHandler
func NewInternalJobsHandler(sched *scheduler.Scheduler, authCfg middleware.InternalAuthConfig) *InternalJobsHandler {
	return &InternalJobsHandler{
		scheduler: sched,
		authCfg:   authCfg,
	}
}

// RegisterRoutes registers internal job routes on the given router group
func (h *InternalJobsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	internal := rg.Group("/internal", middleware.InternalAuthMiddleware(h.authCfg))
	{
		internal.POST("/jobs/:type", h.EnqueueSweep)
		internal.GET("/jobs/types", h.ListSweepTypes)
	}
}

// SweepJobResponse describes an accepted sweep job
type SweepJobResponse struct {
	JobID string `json:"job_id"`
	Type  string `json:"type"`
}

// EnqueueSweep godoc
// @ID           enqueueInternalSweep
// @Summary      Queue a background sweep
// @Description  Queues one of the cross-tenant sweeps (document expiry,
// @Description  approval reminders, budget alerts, stale device cleanup,
// @Description  vendor risk refresh) and returns immediately
// @Tags         internal
// @Produce      json
// @Param        type path string true "Sweep type" Enums(DOCUMENT_EXPIRY, APPROVAL_TIMEOUT, BUDGET_ALERT, DEVICE_CLEANUP, VENDOR_RISK_REFRESH)
// @Success      202 {object} APIResponse[SweepJobResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /internal/jobs/{type} [post]
func (h *InternalJobsHandler) EnqueueSweep(c *gin.Context) {
	jobType := scheduler.JobType(c.Param("type"))
	if !jobType.IsSweep() {
		h.BadRequest(c, "Unknown sweep type")
		return
	}

	job, err := h.scheduler.EnqueueSweep(jobType)
	if err != nil {
		h.Error(c, 503, dto.ErrCodeUnavailable, "Job queue is full or stopped")
		return
	}

	h.Accepted(c, SweepJobResponse{
		JobID: job.ID.String(),
		Type:  string(job.Type),
	})
}

// ListSweepTypes godoc
// @ID           listInternalSweepTypes
// @Summary      List available sweep types
// @Tags         internal
// @Produce      json
// @Success      200 {object} APIResponse[[]string]
// @Router       /internal/jobs/types [get]
func (h *InternalJobsHandler) ListSweepTypes(c *gin.Context) {
	types := scheduler.AllSweepTypes()
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}
	h.Success(c, names)
}
