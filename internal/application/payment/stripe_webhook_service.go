package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"

	invoiceapp "github.com/procura/backend/internal/application/invoice"
	"github.com/procura/backend/internal/infrastructure/config"
)

// TenantContextFunc stamps a tenant onto a context the way the HTTP
// middleware does, so tenant-scoped repositories work from webhook
// processing
type TenantContextFunc func(ctx context.Context, tenantID uuid.UUID) context.Context

// StripeWebhookService settles invoices from Stripe payment events.
// Events must carry tenant_id and invoice_id metadata, stamped on the
// payment intent when the payment is initiated
type StripeWebhookService struct {
	config    config.PaymentConfig
	invoices  *invoiceapp.InvoiceService
	tenantCtx TenantContextFunc
	logger    *zap.Logger
}

// NewStripeWebhookService creates a new StripeWebhookService. A nil
// tenantCtx leaves contexts unchanged
func NewStripeWebhookService(
	cfg config.PaymentConfig,
	invoices *invoiceapp.InvoiceService,
	tenantCtx TenantContextFunc,
	logger *zap.Logger,
) *StripeWebhookService {
	if tenantCtx == nil {
		tenantCtx = func(ctx context.Context, _ uuid.UUID) context.Context { return ctx }
	}
	return &StripeWebhookService{
		config:    cfg,
		invoices:  invoices,
		tenantCtx: tenantCtx,
		logger:    logger,
	}
}

// WebhookResult contains the result of processing a webhook
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Processed bool   `json:"processed"`
	Message   string `json:"message,omitempty"`
}

// ProcessWebhook verifies the event signature and applies the event. A
// nil result signals a verification failure the handler must answer 401
func (s *StripeWebhookService) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.config.StripeWebhookSecret)
	if err != nil {
		s.logger.Error("Failed to verify webhook signature", zap.Error(err))
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	s.logger.Info("Processing Stripe webhook event",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))

	result := &WebhookResult{
		EventID:   event.ID,
		EventType: string(event.Type),
		Processed: true,
	}

	switch event.Type {
	case "payment_intent.succeeded":
		err = s.handlePaymentSucceeded(ctx, event)
	case "payment_intent.payment_failed":
		err = s.handlePaymentFailed(event)
	default:
		s.logger.Debug("Unhandled webhook event type",
			zap.String("event_type", string(event.Type)))
		result.Message = "Event type not handled"
	}

	if err != nil {
		s.logger.Error("Failed to process webhook event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		result.Processed = false
		result.Message = err.Error()
		return result, err
	}

	return result, nil
}

// handlePaymentSucceeded marks the referenced invoice PAID. The intent
// metadata names the tenant and invoice; the actor is recorded as the
// system (nil) user
func (s *StripeWebhookService) handlePaymentSucceeded(ctx context.Context, event stripe.Event) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return fmt.Errorf("failed to unmarshal payment intent: %w", err)
	}

	tenantID, invoiceID, err := referencedInvoice(intent.Metadata)
	if err != nil {
		s.logger.Warn("Payment intent missing invoice metadata, skipping",
			zap.String("payment_intent_id", intent.ID),
			zap.Error(err))
		return nil
	}

	tctx := s.tenantCtx(ctx, tenantID)
	if _, err := s.invoices.MarkPaid(tctx, tenantID, uuid.Nil, invoiceID); err != nil {
		return fmt.Errorf("failed to settle invoice %s: %w", invoiceID, err)
	}

	s.logger.Info("Invoice settled from payment event",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", invoiceID.String()),
		zap.String("payment_intent_id", intent.ID))
	return nil
}

// handlePaymentFailed only records the failure; the invoice stays
// APPROVED so finance can retry payment
func (s *StripeWebhookService) handlePaymentFailed(event stripe.Event) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return fmt.Errorf("failed to unmarshal payment intent: %w", err)
	}

	s.logger.Warn("Payment failed",
		zap.String("payment_intent_id", intent.ID),
		zap.String("tenant_id", intent.Metadata["tenant_id"]),
		zap.String("invoice_id", intent.Metadata["invoice_id"]))
	return nil
}

func referencedInvoice(metadata map[string]string) (uuid.UUID, uuid.UUID, error) {
	tenantID, err := uuid.Parse(metadata["tenant_id"])
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid tenant_id metadata: %w", err)
	}
	invoiceID, err := uuid.Parse(metadata["invoice_id"])
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid invoice_id metadata: %w", err)
	}
	return tenantID, invoiceID, nil
}
