package invoice

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	budgetapp "github.com/procura/backend/internal/application/budget"
	"github.com/procura/backend/internal/domain/audit"
	"github.com/procura/backend/internal/domain/invoice"
	"github.com/procura/backend/internal/domain/matching"
	"github.com/procura/backend/internal/domain/shared"
)

// MatchService runs the three-way matcher and persists the verdict onto
// the invoice. The matcher itself is pure; all effects live here
type MatchService struct {
	invoiceRepo    invoice.Repository
	txScope        budgetapp.TransactionScope
	tolerance      matching.Tolerance
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewMatchService creates a new MatchService with the given tolerance
func NewMatchService(invoiceRepo invoice.Repository, txScope budgetapp.TransactionScope, tolerance matching.Tolerance, logger *zap.Logger) *MatchService {
	return &MatchService{
		invoiceRepo: invoiceRepo,
		txScope:     txScope,
		tolerance:   tolerance,
		logger:      logger,
	}
}

// SetEventPublisher wires the bus that carries match verdicts to
// subscribers such as the exception notification handler
func (s *MatchService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Run reconciles one invoice against a purchase order and its confirmed
// receipts. An invoice with no order reference is linked to the given
// order first; a conflicting reference is rejected
func (s *MatchService) Run(ctx context.Context, tenantID, actorID, orderID, invoiceID uuid.UUID) (*MatchResultResponse, error) {
	var inv *invoice.Invoice

	err := s.txScope.Execute(ctx, func(repos budgetapp.TransactionalRepositories) error {
		var err error
		inv, err = repos.Invoices().FindByIDForUpdate(ctx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		if !inv.IsOpenForMatching() {
			return shared.NewDomainError("INVALID_STATE", "Invoice is not open for matching")
		}

		po, err := repos.PurchaseOrders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if po.TenantID != tenantID {
			return shared.ErrNotFound
		}

		if inv.OrderID == nil {
			if err := inv.SetOrder(po.ID); err != nil {
				return err
			}
		} else if *inv.OrderID != po.ID {
			return shared.NewDomainError("ORDER_MISMATCH", "Invoice is linked to a different purchase order")
		}

		receipts, err := repos.Receipts().FindByOrder(ctx, po.ID)
		if err != nil {
			return err
		}

		received := matching.AggregateReceived(receipts)
		result := matching.Match(s.tolerance, po.Lines, received, inv.Lines)
		exceptionsJSON, err := result.ExceptionsJSON()
		if err != nil {
			return err
		}

		before := invoiceState(inv)
		if err := inv.ApplyMatchResult(result.Matched(), exceptionsJSON); err != nil {
			return err
		}
		if err := repos.Invoices().Update(ctx, inv); err != nil {
			return err
		}

		entry, err := audit.NewEntry(tenantID, actorID, "MATCH", string(shared.EntityTypeInvoice), inv.ID,
			before, invoiceState(inv))
		if err != nil {
			return err
		}
		return repos.AuditEntries().Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, inv)

	s.logger.Info("three-way match run completed",
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("match_status", string(inv.MatchStatus)))

	response := ToMatchResultResponse(inv)
	return &response, nil
}

// publishDomainEvents pushes the invoice's pending events onto the bus
// after the surrounding transaction committed
func (s *MatchService) publishDomainEvents(ctx context.Context, inv *invoice.Invoice) {
	if s.eventPublisher == nil || inv == nil {
		return
	}
	events := inv.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	inv.ClearDomainEvents()
}

// RunForInvoice reconciles an invoice against its linked order. Used by
// the receipt-triggered and OCR-chained match jobs
func (s *MatchService) RunForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*MatchResultResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.OrderID == nil {
		return nil, shared.NewDomainError("NO_ORDER", "Invoice has no purchase order to match against")
	}

	return s.Run(ctx, tenantID, audit.SystemActorID, *inv.OrderID, invoiceID)
}
