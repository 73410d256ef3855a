package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/procura/backend/internal/domain/invoice"
	"github.com/procura/backend/internal/domain/notification"
	"github.com/procura/backend/internal/domain/shared"
)

// PaymentSettledHandler tells the vendor user who uploaded an invoice
// that its payment has settled.
type PaymentSettledHandler struct {
	invoiceRepo   invoice.Repository
	notifications *NotificationService
	logger        *zap.Logger
}

// NewPaymentSettledHandler creates the handler.
func NewPaymentSettledHandler(
	invoiceRepo invoice.Repository,
	notifications *NotificationService,
	logger *zap.Logger,
) *PaymentSettledHandler {
	return &PaymentSettledHandler{
		invoiceRepo:   invoiceRepo,
		notifications: notifications,
		logger:        logger,
	}
}

// EventTypes returns the event types this handler subscribes to.
func (h *PaymentSettledHandler) EventTypes() []string {
	return []string{invoice.EventTypeInvoicePaid}
}

// Handle notifies the invoice creator. Invoices created through the
// internal API have no creator and settle silently.
func (h *PaymentSettledHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	paid, ok := event.(*invoice.InvoicePaidEvent)
	if !ok {
		h.logger.Error("received unexpected event type",
			zap.String("event_type", event.EventType()))
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			invoice.EventTypeInvoicePaid, event.EventType())
	}

	tenantID := paid.TenantID()
	inv, err := h.invoiceRepo.FindByID(ctx, tenantID, paid.AggregateID())
	if err != nil {
		if isNotFoundError(err) {
			h.logger.Warn("paid invoice no longer exists",
				zap.String("invoice_id", paid.AggregateID().String()))
			return nil
		}
		return fmt.Errorf("load invoice: %w", err)
	}
	if inv.CreatedBy == nil {
		h.logger.Debug("paid invoice has no creator to notify",
			zap.String("invoice_number", paid.InvoiceNumber))
		return nil
	}

	_, err = h.notifications.Notify(ctx, tenantID, *inv.CreatedBy,
		notification.TypePaymentSettled,
		fmt.Sprintf("Invoice %s was paid", paid.InvoiceNumber),
		fmt.Sprintf("Payment of %s %.2f has settled.", paid.Currency, float64(paid.TotalCents)/100),
		map[string]any{
			"invoice_id":     paid.AggregateID().String(),
			"invoice_number": paid.InvoiceNumber,
			"total_cents":    paid.TotalCents,
			"currency":       paid.Currency,
		})
	if err != nil {
		return fmt.Errorf("record payment notification: %w", err)
	}

	h.logger.Info("payment settled notification sent",
		zap.String("invoice_number", paid.InvoiceNumber))
	return nil
}

var _ shared.EventHandler = (*PaymentSettledHandler)(nil)
