package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	partnerapp "github.com/procura/backend/internal/application/partner"
	"github.com/procura/backend/internal/domain/approval"
	"github.com/procura/backend/internal/domain/audit"
	"github.com/procura/backend/internal/domain/budget"
	"github.com/procura/backend/internal/domain/contract"
	"github.com/procura/backend/internal/domain/identity"
	"github.com/procura/backend/internal/domain/invoice"
	"github.com/procura/backend/internal/domain/notification"
	"github.com/procura/backend/internal/domain/partner"
	"github.com/procura/backend/internal/domain/shared"
)

// Notifier delivers an in-app notification to one user
type Notifier interface {
	Notify(ctx context.Context, tenantID, userID uuid.UUID, notifType notification.Type, title, body string, payload map[string]any) (*notification.Notification, error)
}

// ContractExpirer flips overdue active contracts to expired
type ContractExpirer interface {
	ExpireOverdue(ctx context.Context, asOf time.Time) (int, error)
}

// StaleDeviceRetirer deactivates push tokens without recent activity
type StaleDeviceRetirer interface {
	DeactivateStale(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// VendorRiskUpdater stores a recomputed vendor risk score
type VendorRiskUpdater interface {
	SetRiskScore(ctx context.Context, tenantID, actorID, vendorID uuid.UUID, score int) (*partnerapp.VendorResponse, error)
}

// TenantDirectory lists the tenants a cross-tenant sweep walks
type TenantDirectory interface {
	FindActiveIDs(ctx context.Context) ([]uuid.UUID, error)
}

// TenantContextFunc stamps a tenant onto a context the way the HTTP
// middleware does for requests. Jobs run outside requests, so they must
// scope tenant-bound repositories themselves before calling them
type TenantContextFunc func(ctx context.Context, tenantID uuid.UUID) context.Context

// SweepConfig tunes the scheduled sweeps
type SweepConfig struct {
	// DocumentExpiryThresholds are the days-until-expiry marks that
	// trigger a contract expiry notice
	DocumentExpiryThresholds []int

	// ApprovalReminderAge is how long a step may sit pending before
	// reminders start
	ApprovalReminderAge time.Duration

	// ReminderRepeatInterval is the minimum gap between reminders for
	// the same approval step
	ReminderRepeatInterval time.Duration

	// BudgetAlertThresholds are the utilization percentages that
	// trigger a budget alert
	BudgetAlertThresholds []int

	// DeviceInactivity is how long a push token may go unused before
	// the cleanup retires it
	DeviceInactivity time.Duration

	// DeviceCleanupBatch caps how many tokens one cleanup run retires
	DeviceCleanupBatch int

	// VendorActivityWindow is the invoice history window feeding the
	// vendor risk score
	VendorActivityWindow time.Duration
}

// DefaultSweepConfig returns the default sweep configuration
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		DocumentExpiryThresholds: []int{30, 14, 7, 3},
		ApprovalReminderAge:      48 * time.Hour,
		ReminderRepeatInterval:   24 * time.Hour,
		BudgetAlertThresholds:    []int{80, 95},
		DeviceInactivity:         30 * 24 * time.Hour,
		DeviceCleanupBatch:       500,
		VendorActivityWindow:     90 * 24 * time.Hour,
	}
}

// DocumentExpiryResult reports what one document expiry sweep did
type DocumentExpiryResult struct {
	Expired int `json:"expired"`
	Notices int `json:"notices"`
}

// SweepService runs the scheduled maintenance sweeps. Every sweep is
// idempotent: re-running one sends no duplicate alerts and repeats no
// state change, so the scheduler may retry them freely
type SweepService struct {
	cfg SweepConfig

	contractRepo contract.Repository
	contracts    ContractExpirer

	approvalRepo approval.Repository

	tenants         TenantDirectory
	budgetRepo      budget.BudgetRepository
	reservationRepo budget.ReservationRepository
	departmentRepo  identity.DepartmentRepository

	userRepo    identity.UserRepository
	vendorRepo  partner.VendorRepository
	invoiceRepo invoice.Repository
	vendorRisk  VendorRiskUpdater

	devices StaleDeviceRetirer

	notifRepo notification.Repository
	notifier  Notifier
	tenantCtx TenantContextFunc
	logger    *zap.Logger
}

// NewSweepService creates a new SweepService. A nil tenantCtx leaves
// contexts unscoped, which only suits tests
func NewSweepService(
	cfg SweepConfig,
	contractRepo contract.Repository,
	contracts ContractExpirer,
	approvalRepo approval.Repository,
	tenants TenantDirectory,
	budgetRepo budget.BudgetRepository,
	reservationRepo budget.ReservationRepository,
	departmentRepo identity.DepartmentRepository,
	userRepo identity.UserRepository,
	vendorRepo partner.VendorRepository,
	invoiceRepo invoice.Repository,
	vendorRisk VendorRiskUpdater,
	devices StaleDeviceRetirer,
	notifRepo notification.Repository,
	notifier Notifier,
	tenantCtx TenantContextFunc,
	logger *zap.Logger,
) *SweepService {
	if tenantCtx == nil {
		tenantCtx = func(ctx context.Context, _ uuid.UUID) context.Context { return ctx }
	}
	return &SweepService{
		cfg:             cfg,
		contractRepo:    contractRepo,
		contracts:       contracts,
		approvalRepo:    approvalRepo,
		tenants:         tenants,
		budgetRepo:      budgetRepo,
		reservationRepo: reservationRepo,
		departmentRepo:  departmentRepo,
		userRepo:        userRepo,
		vendorRepo:      vendorRepo,
		invoiceRepo:     invoiceRepo,
		vendorRisk:      vendorRisk,
		devices:         devices,
		notifRepo:       notifRepo,
		notifier:        notifier,
		tenantCtx:       tenantCtx,
		logger:          logger,
	}
}

// SweepDocumentExpiry expires overdue contracts and sends expiry
// notices for active contracts crossing a notice threshold. Each
// contract gets at most one notice per threshold
func (s *SweepService) SweepDocumentExpiry(ctx context.Context, now time.Time) (*DocumentExpiryResult, error) {
	result := &DocumentExpiryResult{}

	expired, err := s.contracts.ExpireOverdue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to expire overdue contracts: %w", err)
	}
	result.Expired = expired

	maxDays := 0
	for _, days := range s.cfg.DocumentExpiryThresholds {
		if days > maxDays {
			maxDays = days
		}
	}

	// One day of headroom so date rounding never drops the widest threshold
	contracts, err := s.contractRepo.FindActiveExpiringBefore(ctx, now.AddDate(0, 0, maxDays+1))
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring contracts: %w", err)
	}

	for _, c := range contracts {
		days := c.DaysUntilExpiry(now)
		if !containsInt(s.cfg.DocumentExpiryThresholds, days) {
			continue
		}

		alertKey := fmt.Sprintf("contract-expiry:%s:%d", c.ID, days)
		if s.alreadyAlerted(ctx, c.TenantID, notification.TypeDocumentExpiry, alertKey, time.Time{}) {
			continue
		}

		payload := map[string]any{
			"alert_key":       alertKey,
			"contract_id":     c.ID.String(),
			"contract_number": c.ContractNumber,
			"vendor_id":       c.VendorID.String(),
			"expiry_date":     c.ExpiryDate.UTC().Format("2006-01-02"),
			"days_left":       days,
		}
		title := fmt.Sprintf("Contract %s expires in %d days", c.ContractNumber, days)
		body := c.Title + " reaches its expiry date on " + c.ExpiryDate.UTC().Format("2006-01-02")

		for _, userID := range s.documentRecipients(ctx, c) {
			if s.notify(ctx, c.TenantID, userID, notification.TypeDocumentExpiry, title, body, payload) {
				result.Notices++
			}
		}
	}

	if result.Expired > 0 || result.Notices > 0 {
		s.logger.Info("document expiry sweep finished",
			zap.Int("expired", result.Expired),
			zap.Int("notices", result.Notices))
	}
	return result, nil
}

// SweepApprovalReminders nudges approvers about steps pending longer
// than the configured age. Reminders repeat at most once per interval
func (s *SweepService) SweepApprovalReminders(ctx context.Context, now time.Time) (int, error) {
	pending, err := s.approvalRepo.FindPendingOlderThan(ctx, now.Add(-s.cfg.ApprovalReminderAge))
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue approvals: %w", err)
	}

	sent := 0
	for _, a := range pending {
		alertKey := "approval-reminder:" + a.ID.String()
		if s.alreadyAlerted(ctx, a.TenantID, notification.TypeApprovalTimeout, alertKey, now.Add(-s.cfg.ReminderRepeatInterval)) {
			continue
		}

		pendingHours := int(now.Sub(a.CreatedAt).Hours())
		payload := map[string]any{
			"alert_key":      alertKey,
			"approval_id":    a.ID.String(),
			"entity_type":    string(a.EntityType),
			"entity_id":      a.EntityID.String(),
			"approval_level": a.ApprovalLevel,
			"pending_hours":  pendingHours,
		}
		title := fmt.Sprintf("%s approval pending for %d hours", entityLabel(a.EntityType), pendingHours)
		body := "An approval step assigned to you has been waiting since " + a.CreatedAt.UTC().Format("2006-01-02")

		if s.notify(ctx, a.TenantID, a.ApproverID, notification.TypeApprovalTimeout, title, body, payload) {
			sent++
		}
	}

	if sent > 0 {
		s.logger.Info("approval reminder sweep finished", zap.Int("reminders", sent))
	}
	return sent, nil
}

// SweepBudgetAlerts warns department managers when the current period's
// spend plus committed reservations crosses an alert threshold. Each
// budget alerts once per threshold
func (s *SweepService) SweepBudgetAlerts(ctx context.Context, now time.Time) (int, error) {
	period := budget.PeriodOf(now)

	tenantIDs, err := s.tenants.FindActiveIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list tenants: %w", err)
	}

	alerts := 0
	for _, tenantID := range tenantIDs {
		tctx := s.tenantCtx(ctx, tenantID)

		budgets, err := s.budgetRepo.FindByTenantAndPeriod(ctx, tenantID, period.Year, period.Quarter)
		if err != nil {
			s.logger.Warn("failed to list budgets for alert sweep",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err))
			continue
		}

		for _, b := range budgets {
			if b.TotalCents <= 0 {
				continue
			}

			committed, err := s.reservationRepo.SumCommittedByBudget(tctx, b.ID)
			if err != nil {
				s.logger.Warn("failed to sum committed reservations",
					zap.String("budget_id", b.ID.String()),
					zap.Error(err))
				continue
			}

			utilization := b.CommittedUtilizationPercent(committed)
			threshold := 0
			for _, th := range s.cfg.BudgetAlertThresholds {
				if utilization >= float64(th) && th > threshold {
					threshold = th
				}
			}
			if threshold == 0 {
				continue
			}

			alertKey := fmt.Sprintf("budget-alert:%s:%d", b.ID, threshold)
			if s.alreadyAlerted(ctx, tenantID, notification.TypeBudgetAlert, alertKey, time.Time{}) {
				continue
			}

			payload := map[string]any{
				"alert_key":           alertKey,
				"budget_id":           b.ID.String(),
				"department_id":       b.DepartmentID.String(),
				"fiscal_year":         b.FiscalYear,
				"quarter":             b.Quarter,
				"threshold":           threshold,
				"utilization_percent": int(utilization),
				"total_cents":         b.TotalCents,
				"spent_cents":         b.SpentCents,
				"committed_cents":     committed,
			}
			title := fmt.Sprintf("Department budget at %d%% for Q%d %d", int(utilization), b.Quarter, b.FiscalYear)
			body := fmt.Sprintf("Booked and committed spend crossed the %d%% alert threshold", threshold)

			for _, userID := range s.budgetRecipients(ctx, tctx, tenantID, b.DepartmentID) {
				if s.notify(ctx, tenantID, userID, notification.TypeBudgetAlert, title, body, payload) {
					alerts++
				}
			}
		}
	}

	if alerts > 0 {
		s.logger.Info("budget alert sweep finished", zap.Int("alerts", alerts))
	}
	return alerts, nil
}

// SweepStaleDevices retires push tokens with no activity inside the
// inactivity window
func (s *SweepService) SweepStaleDevices(ctx context.Context, now time.Time) (int, error) {
	retired, err := s.devices.DeactivateStale(ctx, now.Add(-s.cfg.DeviceInactivity), s.cfg.DeviceCleanupBatch)
	if err != nil {
		return 0, fmt.Errorf("failed to retire stale devices: %w", err)
	}
	if retired > 0 {
		s.logger.Info("device cleanup sweep finished", zap.Int("retired", retired))
	}
	return retired, nil
}

// SweepVendorRisk recomputes risk scores for active vendors from their
// recent invoice activity. Unchanged scores write nothing
func (s *SweepService) SweepVendorRisk(ctx context.Context, now time.Time) (int, error) {
	tenantIDs, err := s.tenants.FindActiveIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list tenants: %w", err)
	}

	since := now.Add(-s.cfg.VendorActivityWindow)
	updated := 0
	for _, tenantID := range tenantIDs {
		tctx := s.tenantCtx(ctx, tenantID)

		vendors, err := s.vendorRepo.FindByStatus(ctx, tenantID, partner.VendorStatusActive)
		if err != nil {
			s.logger.Warn("failed to list vendors for risk refresh",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err))
			continue
		}

		for _, v := range vendors {
			activity, err := s.invoiceRepo.VendorActivity(ctx, tenantID, v.ID, since)
			if err != nil {
				s.logger.Warn("failed to load vendor invoice activity",
					zap.String("vendor_id", v.ID.String()),
					zap.Error(err))
				continue
			}

			score := partner.ScoreVendorRisk(activity.Total, activity.Exceptions, activity.Disputed)
			if score == v.RiskScore {
				continue
			}

			if _, err := s.vendorRisk.SetRiskScore(tctx, tenantID, audit.SystemActorID, v.ID, score); err != nil {
				s.logger.Warn("failed to store vendor risk score",
					zap.String("vendor_id", v.ID.String()),
					zap.Int("score", score),
					zap.Error(err))
				continue
			}
			updated++
		}
	}

	if updated > 0 {
		s.logger.Info("vendor risk sweep finished", zap.Int("updated", updated))
	}
	return updated, nil
}

// documentRecipients picks who hears about a contract nearing expiry:
// whoever filed it, or the procurement leads when the creator is unknown
func (s *SweepService) documentRecipients(ctx context.Context, c *contract.Contract) []uuid.UUID {
	if c.CreatedBy != nil {
		return []uuid.UUID{*c.CreatedBy}
	}
	return s.usersWithRole(ctx, c.TenantID, identity.RoleProcurementLead)
}

// budgetRecipients picks who hears about budget utilization: the
// department manager, or the finance heads when no manager is assigned
func (s *SweepService) budgetRecipients(ctx, tctx context.Context, tenantID, departmentID uuid.UUID) []uuid.UUID {
	dept, err := s.departmentRepo.FindByID(tctx, departmentID)
	if err != nil {
		s.logger.Warn("failed to resolve department for budget alert",
			zap.String("department_id", departmentID.String()),
			zap.Error(err))
	} else if dept.ManagerID != nil {
		return []uuid.UUID{*dept.ManagerID}
	}
	return s.usersWithRole(ctx, tenantID, identity.RoleFinanceHead)
}

func (s *SweepService) usersWithRole(ctx context.Context, tenantID uuid.UUID, role identity.Role) []uuid.UUID {
	users, err := s.userRepo.FindActiveByRole(ctx, tenantID, role)
	if err != nil {
		s.logger.Warn("failed to resolve sweep recipients",
			zap.String("tenant_id", tenantID.String()),
			zap.String("role", string(role)),
			zap.Error(err))
		return nil
	}
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

// alreadyAlerted treats dedup lookup failures as already sent so a
// flaky read cannot double-alert
func (s *SweepService) alreadyAlerted(ctx context.Context, tenantID uuid.UUID, notifType notification.Type, alertKey string, since time.Time) bool {
	exists, err := s.notifRepo.ExistsByAlertKey(ctx, tenantID, notifType, alertKey, since)
	if err != nil {
		s.logger.Warn("failed to check alert dedup key",
			zap.String("alert_key", alertKey),
			zap.Error(err))
		return true
	}
	return exists
}

func (s *SweepService) notify(ctx context.Context, tenantID, userID uuid.UUID, notifType notification.Type, title, body string, payload map[string]any) bool {
	if s.notifier == nil {
		return false
	}
	if _, err := s.notifier.Notify(ctx, tenantID, userID, notifType, title, body, payload); err != nil {
		s.logger.Warn("failed to send sweep notification",
			zap.String("type", string(notifType)),
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return false
	}
	return true
}

func entityLabel(entityType shared.EntityType) string {
	switch entityType {
	case shared.EntityTypePR:
		return "Purchase request"
	case shared.EntityTypePO:
		return "Purchase order"
	case shared.EntityTypeInvoice:
		return "Invoice"
	default:
		return string(entityType)
	}
}

func containsInt(values []int, v int) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
