package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/procura/backend/internal/domain/approval"
	"github.com/procura/backend/internal/domain/notification"
	"github.com/procura/backend/internal/domain/procurement"
	"github.com/procura/backend/internal/domain/shared"
)

// ApprovalRequestedHandler notifies the approver whose step became
// active when a purchase request entered its approval chain.
type ApprovalRequestedHandler struct {
	approvalRepo  approval.Repository
	notifications *NotificationService
	logger        *zap.Logger
}

// NewApprovalRequestedHandler creates the handler.
func NewApprovalRequestedHandler(
	approvalRepo approval.Repository,
	notifications *NotificationService,
	logger *zap.Logger,
) *ApprovalRequestedHandler {
	return &ApprovalRequestedHandler{
		approvalRepo:  approvalRepo,
		notifications: notifications,
		logger:        logger,
	}
}

// EventTypes returns the event types this handler subscribes to.
func (h *ApprovalRequestedHandler) EventTypes() []string {
	return []string{procurement.EventTypePurchaseRequestSubmitted}
}

// Handle looks up the request's approval chain and notifies the
// approver holding the lowest pending level. A request below the
// approval threshold has no chain and nothing to notify.
func (h *ApprovalRequestedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	submitted, ok := event.(*procurement.PurchaseRequestSubmittedEvent)
	if !ok {
		h.logger.Error("received unexpected event type",
			zap.String("event_type", event.EventType()))
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			procurement.EventTypePurchaseRequestSubmitted, event.EventType())
	}

	steps, err := h.approvalRepo.FindByEntity(ctx, shared.EntityTypePR, submitted.AggregateID())
	if err != nil {
		return fmt.Errorf("load approval chain: %w", err)
	}

	current := currentApprovalStep(steps)
	if current == nil {
		h.logger.Debug("no pending approval step for submitted request",
			zap.String("pr_number", submitted.PrNumber))
		return nil
	}

	_, err = h.notifications.Notify(ctx, submitted.TenantID(), current.ApproverID,
		notification.TypeApprovalRequested,
		fmt.Sprintf("Purchase request %s awaits your approval", submitted.PrNumber),
		fmt.Sprintf("Level %d approval is required before the request can proceed.", current.ApprovalLevel),
		map[string]any{
			"entity_type":    string(shared.EntityTypePR),
			"entity_id":      submitted.AggregateID().String(),
			"pr_number":      submitted.PrNumber,
			"approval_id":    current.ID.String(),
			"approval_level": current.ApprovalLevel,
			"total_cents":    submitted.TotalCents,
		})
	if err != nil {
		return fmt.Errorf("record approval notification: %w", err)
	}

	h.logger.Info("approval requested notification sent",
		zap.String("pr_number", submitted.PrNumber),
		zap.String("approver_id", current.ApproverID.String()),
		zap.Int("level", current.ApprovalLevel))
	return nil
}

// currentApprovalStep returns the pending step with the lowest level,
// which is the one whose approver can act now.
func currentApprovalStep(steps []*approval.Approval) *approval.Approval {
	var current *approval.Approval
	for _, step := range steps {
		if step.Status != approval.StatusPending {
			continue
		}
		if current == nil || step.ApprovalLevel < current.ApprovalLevel {
			current = step
		}
	}
	return current
}

var _ shared.EventHandler = (*ApprovalRequestedHandler)(nil)
