package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/procura/backend/internal/domain/identity"
	"github.com/procura/backend/internal/domain/invoice"
	"github.com/procura/backend/internal/domain/notification"
	"github.com/procura/backend/internal/domain/shared"
)

// InvoiceExceptionHandler alerts finance staff, and the vendor user who
// uploaded the invoice, when a three-way match run fails.
type InvoiceExceptionHandler struct {
	invoiceRepo   invoice.Repository
	userRepo      identity.UserRepository
	notifications *NotificationService
	logger        *zap.Logger
}

// NewInvoiceExceptionHandler creates the handler.
func NewInvoiceExceptionHandler(
	invoiceRepo invoice.Repository,
	userRepo identity.UserRepository,
	notifications *NotificationService,
	logger *zap.Logger,
) *InvoiceExceptionHandler {
	return &InvoiceExceptionHandler{
		invoiceRepo:   invoiceRepo,
		userRepo:      userRepo,
		notifications: notifications,
		logger:        logger,
	}
}

// EventTypes returns the event types this handler subscribes to.
func (h *InvoiceExceptionHandler) EventTypes() []string {
	return []string{invoice.EventTypeInvoiceMatched}
}

// Handle ignores passing runs. For a failed run it notifies every
// active finance user (finance heads when the tenant has none) plus
// the invoice creator, so the exception can be resolved or disputed.
func (h *InvoiceExceptionHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	matched, ok := event.(*invoice.InvoiceMatchedEvent)
	if !ok {
		h.logger.Error("received unexpected event type",
			zap.String("event_type", event.EventType()))
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			invoice.EventTypeInvoiceMatched, event.EventType())
	}
	if matched.Passed {
		return nil
	}

	tenantID := matched.TenantID()
	inv, err := h.invoiceRepo.FindByID(ctx, tenantID, matched.AggregateID())
	if err != nil {
		if isNotFoundError(err) {
			h.logger.Warn("matched invoice no longer exists",
				zap.String("invoice_id", matched.AggregateID().String()))
			return nil
		}
		return fmt.Errorf("load invoice: %w", err)
	}

	recipients, err := h.resolveRecipients(ctx, tenantID, inv)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		h.logger.Warn("no recipients for invoice exception",
			zap.String("invoice_number", matched.InvoiceNumber))
		return nil
	}

	_, err = h.notifications.NotifyMany(ctx, tenantID, recipients,
		notification.TypeInvoiceException,
		fmt.Sprintf("Invoice %s failed matching", matched.InvoiceNumber),
		fmt.Sprintf("The three-way match finished with status %s. The invoice is blocked until the exception is resolved.", matched.MatchStatus),
		map[string]any{
			"invoice_id":     matched.AggregateID().String(),
			"invoice_number": matched.InvoiceNumber,
			"match_status":   matched.MatchStatus,
		})
	if err != nil {
		return fmt.Errorf("record exception notifications: %w", err)
	}

	h.logger.Info("invoice exception notifications sent",
		zap.String("invoice_number", matched.InvoiceNumber),
		zap.Int("recipients", len(recipients)))
	return nil
}

// resolveRecipients collects active finance users, falling back to
// finance heads, and appends the invoice creator when known.
func (h *InvoiceExceptionHandler) resolveRecipients(ctx context.Context, tenantID uuid.UUID, inv *invoice.Invoice) ([]uuid.UUID, error) {
	users, err := h.userRepo.FindActiveByRole(ctx, tenantID, identity.RoleFinance)
	if err != nil {
		return nil, fmt.Errorf("load finance users: %w", err)
	}
	if len(users) == 0 {
		users, err = h.userRepo.FindActiveByRole(ctx, tenantID, identity.RoleFinanceHead)
		if err != nil {
			return nil, fmt.Errorf("load finance heads: %w", err)
		}
	}

	seen := make(map[uuid.UUID]bool, len(users)+1)
	recipients := make([]uuid.UUID, 0, len(users)+1)
	for _, u := range users {
		if !seen[u.ID] {
			seen[u.ID] = true
			recipients = append(recipients, u.ID)
		}
	}
	if inv.CreatedBy != nil && !seen[*inv.CreatedBy] {
		recipients = append(recipients, *inv.CreatedBy)
	}
	return recipients, nil
}

// isNotFoundError reports whether err is the repository's NOT_FOUND
// domain error.
func isNotFoundError(err error) bool {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == "NOT_FOUND"
	}
	return false
}

var _ shared.EventHandler = (*InvoiceExceptionHandler)(nil)
