// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the procurement system.
// It tracks purchase order activity, three-way matching, approval
// throughput, payment activity and budget health.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	poIssuedTotal         *Counter
	poAmountTotal         *Counter
	invoiceMatchTotal     *Counter
	approvalDecisionTotal *Counter
	paymentTotal          *Counter

	// Gauge metrics (point-in-time values)
	approvalsPending  *Gauge
	budgetUtilization *FloatGauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data provider for periodic collection
	procurementProvider ProcurementMetricsProvider
}

// ProcurementMetricsProvider provides procurement data for periodic metrics
// collection. This interface allows the telemetry layer to query approval
// and budget state without depending on the domain packages directly.
type ProcurementMetricsProvider interface {
	// GetPendingApprovalCount returns the number of approvals waiting on a decision for a tenant
	GetPendingApprovalCount(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// GetBudgetUtilization returns spend as a percentage of the total per budget for a tenant
	GetBudgetUtilization(ctx context.Context, tenantID uuid.UUID) (map[uuid.UUID]float64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter               metric.Meter
	Logger              *zap.Logger
	CollectInterval     time.Duration // Default: 5 minutes
	ProcurementProvider ProcurementMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:               cfg.Meter,
		logger:              logger,
		stopChan:            make(chan struct{}),
		procurementProvider: cfg.ProcurementProvider,
	}

	// Initialize counter metrics
	var err error

	// Purchase order metrics
	bm.poIssuedTotal, err = NewCounter(
		cfg.Meter,
		"s2p_purchase_order_issued_total",
		"Total number of purchase orders issued",
		"{orders}",
	)
	if err != nil {
		return nil, err
	}

	bm.poAmountTotal, err = NewCounter(
		cfg.Meter,
		"s2p_purchase_order_amount_total",
		"Total purchase order amount in minor currency units",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	// Matching metrics
	bm.invoiceMatchTotal, err = NewCounter(
		cfg.Meter,
		"s2p_invoice_match_total",
		"Total number of three-way match runs by outcome",
		"{runs}",
	)
	if err != nil {
		return nil, err
	}

	// Approval metrics
	bm.approvalDecisionTotal, err = NewCounter(
		cfg.Meter,
		"s2p_approval_decision_total",
		"Total number of approval decisions",
		"{decisions}",
	)
	if err != nil {
		return nil, err
	}

	// Payment metrics
	bm.paymentTotal, err = NewCounter(
		cfg.Meter,
		"s2p_payment_total",
		"Total number of payment transactions",
		"{payments}",
	)
	if err != nil {
		return nil, err
	}

	// Gauge metrics
	bm.approvalsPending, err = NewGauge(
		cfg.Meter,
		"s2p_approvals_pending",
		"Number of approvals currently waiting on a decision",
		"{approvals}",
	)
	if err != nil {
		return nil, err
	}

	bm.budgetUtilization, err = NewFloatGauge(
		cfg.Meter,
		"s2p_budget_utilization_percent",
		"Settled spend as a percentage of the budget total",
		"%",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Purchase Order Metrics
// =============================================================================

// RecordOrderIssued records one issued purchase order and its amount.
// This should be called from the application layer when an order is created.
func (bm *BusinessMetrics) RecordOrderIssued(ctx context.Context, tenantID uuid.UUID, amountCents int64) {
	bm.poIssuedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
	)
	bm.poAmountTotal.Add(ctx, amountCents,
		AttrTenantID.String(tenantID.String()),
	)
}

// =============================================================================
// Matching Metrics
// =============================================================================

// RecordMatchRun records the outcome of one three-way match run.
// Outcome is the invoice's resulting match status (PASS, FAIL, OVERRIDE).
func (bm *BusinessMetrics) RecordMatchRun(ctx context.Context, tenantID uuid.UUID, outcome string) {
	bm.invoiceMatchTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrMatchOutcome.String(outcome),
	)
}

// =============================================================================
// Approval Metrics
// =============================================================================

// ApprovalDecision represents the outcome of an approval step for metrics labeling.
type ApprovalDecision string

const (
	ApprovalDecisionApproved ApprovalDecision = "approved"
	ApprovalDecisionRejected ApprovalDecision = "rejected"
)

// RecordApprovalDecision records one approval or rejection.
func (bm *BusinessMetrics) RecordApprovalDecision(ctx context.Context, tenantID uuid.UUID, entityType string, decision ApprovalDecision) {
	bm.approvalDecisionTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrEntityType.String(entityType),
		AttrApprovalDecision.String(string(decision)),
	)
}

// =============================================================================
// Payment Metrics
// =============================================================================

// PaymentStatus represents the outcome of a payment for metrics labeling.
type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// RecordPayment records a payment transaction.
// This should be called when a payment webhook is processed.
func (bm *BusinessMetrics) RecordPayment(ctx context.Context, tenantID uuid.UUID, paymentMethod string, status PaymentStatus) {
	bm.paymentTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrPaymentMethod.String(paymentMethod),
		AttrPaymentStatus.String(string(status)),
	)
}

// =============================================================================
// Approval and Budget Gauges
// =============================================================================

// RecordPendingApprovals records the number of approvals waiting on a decision.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordPendingApprovals(ctx context.Context, tenantID uuid.UUID, count int64) {
	bm.approvalsPending.Record(ctx, count,
		AttrTenantID.String(tenantID.String()),
	)
}

// RecordBudgetUtilization records one budget's spend percentage.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordBudgetUtilization(ctx context.Context, tenantID, budgetID uuid.UUID, percent float64) {
	bm.budgetUtilization.Record(ctx, percent,
		AttrTenantID.String(tenantID.String()),
		AttrBudgetID.String(budgetID.String()),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// TenantProvider provides tenant IDs for periodic metrics collection.
type TenantProvider interface {
	GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It collects approval and budget metrics every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, tenantProvider, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectProcurementMetrics(ctx, tenantProvider)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectProcurementMetrics(ctx, tenantProvider)
		}
	}
}

// collectProcurementMetrics collects approval and budget gauge metrics for all tenants.
func (bm *BusinessMetrics) collectProcurementMetrics(ctx context.Context, tenantProvider TenantProvider) {
	if bm.procurementProvider == nil {
		bm.logger.Debug("No procurement provider configured, skipping gauge metrics collection")
		return
	}

	tenantIDs, err := tenantProvider.GetActiveTenantIDs(ctx)
	if err != nil {
		bm.logger.Error("Failed to get tenant IDs for metrics collection", zap.Error(err))
		return
	}

	for _, tenantID := range tenantIDs {
		bm.collectTenantProcurementMetrics(ctx, tenantID)
	}
}

// collectTenantProcurementMetrics collects gauge metrics for a single tenant.
func (bm *BusinessMetrics) collectTenantProcurementMetrics(ctx context.Context, tenantID uuid.UUID) {
	// Collect pending approval count
	pending, err := bm.procurementProvider.GetPendingApprovalCount(ctx, tenantID)
	if err != nil {
		bm.logger.Warn("Failed to get pending approval count for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	} else {
		bm.RecordPendingApprovals(ctx, tenantID, pending)
	}

	// Collect budget utilization per budget
	utilization, err := bm.procurementProvider.GetBudgetUtilization(ctx, tenantID)
	if err != nil {
		bm.logger.Warn("Failed to get budget utilization for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	} else {
		for budgetID, percent := range utilization {
			bm.RecordBudgetUtilization(ctx, tenantID, budgetID, percent)
		}
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// =============================================================================
// Attribute Key Constants
// =============================================================================

// Business metrics attribute keys not already defined in metrics.go
var (
	// Additional business attributes can be added here
	AttrRequestSource = attribute.Key("request_source")
)
