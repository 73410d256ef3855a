// Package jobs executes background work: invoice post-processing
// queued on upload, and the scheduled maintenance sweeps
package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	invoiceapp "github.com/procura/backend/internal/application/invoice"
	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/infrastructure/scheduler"
)

// OcrProcessor extracts text from an invoice document and records the
// outcome on the invoice
type OcrProcessor interface {
	Process(ctx context.Context, tenantID, invoiceID uuid.UUID) error
}

// MatchRunner re-runs three-way matching for one invoice
type MatchRunner interface {
	RunForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*invoiceapp.MatchResultResponse, error)
}

// Sweeper runs the cross-tenant maintenance sweeps
type Sweeper interface {
	SweepDocumentExpiry(ctx context.Context, now time.Time) (*DocumentExpiryResult, error)
	SweepApprovalReminders(ctx context.Context, now time.Time) (int, error)
	SweepBudgetAlerts(ctx context.Context, now time.Time) (int, error)
	SweepStaleDevices(ctx context.Context, now time.Time) (int, error)
	SweepVendorRisk(ctx context.Context, now time.Time) (int, error)
}

// Executor routes scheduler jobs to the services that carry them out
type Executor struct {
	ocr       OcrProcessor
	match     MatchRunner
	sweeps    Sweeper
	tenantCtx TenantContextFunc
	logger    *zap.Logger
}

// NewExecutor creates a new Executor. A nil tenantCtx leaves contexts
// unscoped, which only suits tests
func NewExecutor(ocr OcrProcessor, match MatchRunner, sweeps Sweeper, tenantCtx TenantContextFunc, logger *zap.Logger) *Executor {
	if tenantCtx == nil {
		tenantCtx = func(ctx context.Context, _ uuid.UUID) context.Context { return ctx }
	}
	return &Executor{
		ocr:       ocr,
		match:     match,
		sweeps:    sweeps,
		tenantCtx: tenantCtx,
		logger:    logger,
	}
}

// Execute implements scheduler.JobExecutor
func (e *Executor) Execute(ctx context.Context, job *scheduler.Job) error {
	switch job.Type {
	case scheduler.JobTypeInvoiceOcr:
		ctx, err := e.invoiceContext(ctx, job)
		if err != nil {
			return err
		}
		return e.ocr.Process(ctx, job.TenantID, job.EntityID)

	case scheduler.JobTypeInvoiceMatch:
		ctx, err := e.invoiceContext(ctx, job)
		if err != nil {
			return err
		}
		_, err = e.match.RunForInvoice(ctx, job.TenantID, job.EntityID)
		return err

	case scheduler.JobTypeDocumentExpiry:
		_, err := e.sweeps.SweepDocumentExpiry(ctx, time.Now())
		return err

	case scheduler.JobTypeApprovalTimeout:
		_, err := e.sweeps.SweepApprovalReminders(ctx, time.Now())
		return err

	case scheduler.JobTypeBudgetAlert:
		_, err := e.sweeps.SweepBudgetAlerts(ctx, time.Now())
		return err

	case scheduler.JobTypeDeviceCleanup:
		_, err := e.sweeps.SweepStaleDevices(ctx, time.Now())
		return err

	case scheduler.JobTypeVendorRiskRefresh:
		_, err := e.sweeps.SweepVendorRisk(ctx, time.Now())
		return err

	default:
		return scheduler.ErrInvalidJobType
	}
}

// invoiceContext validates an invoice job's addressing and stamps its
// tenant onto the context
func (e *Executor) invoiceContext(ctx context.Context, job *scheduler.Job) (context.Context, error) {
	if job.TenantID == uuid.Nil || job.EntityID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_JOB", "Invoice jobs need a tenant and an invoice")
	}
	return e.tenantCtx(ctx, job.TenantID), nil
}
