package invoice

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	budgetapp "github.com/procura/backend/internal/application/budget"
	"github.com/procura/backend/internal/domain/audit"
	"github.com/procura/backend/internal/domain/invoice"
	"github.com/procura/backend/internal/domain/partner"
	"github.com/procura/backend/internal/domain/shared"
)

// OcrEnqueuer queues text extraction for an uploaded invoice document
type OcrEnqueuer interface {
	EnqueueOcr(ctx context.Context, tenantID, invoiceID uuid.UUID) error
}

// MatchEnqueuer queues a three-way match run for an invoice
type MatchEnqueuer interface {
	EnqueueMatch(ctx context.Context, tenantID, invoiceID uuid.UUID) error
}

// InvoiceService handles the pay side of the procure-to-pay flow
type InvoiceService struct {
	invoiceRepo    invoice.Repository
	vendorRepo     partner.VendorRepository
	txScope        budgetapp.TransactionScope
	ocrQueue       OcrEnqueuer
	matchQueue     MatchEnqueuer
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewInvoiceService creates a new InvoiceService. Queues may be nil, in
// which case uploads are not post-processed
func NewInvoiceService(
	invoiceRepo invoice.Repository,
	vendorRepo partner.VendorRepository,
	txScope budgetapp.TransactionScope,
	ocrQueue OcrEnqueuer,
	matchQueue MatchEnqueuer,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		vendorRepo:  vendorRepo,
		txScope:     txScope,
		ocrQueue:    ocrQueue,
		matchQueue:  matchQueue,
		logger:      logger,
	}
}

// SetEventPublisher wires the bus that carries invoice lifecycle events
// to subscribers such as the payment notification handler
func (s *InvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create records an uploaded vendor invoice. A document key queues OCR;
// a linked order with no document queues a match run directly
func (s *InvoiceService) Create(ctx context.Context, tenantID, actorID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	vendor, err := s.vendorRepo.FindByID(ctx, req.VendorID)
	if err != nil {
		return nil, err
	}
	if vendor.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}

	if req.DocumentKey != "" {
		owner, _, err := shared.ParseStorageKey(req.DocumentKey)
		if err != nil {
			return nil, err
		}
		if owner != tenantID {
			return nil, shared.NewDomainError("INVALID_DOCUMENT_KEY", "Document key belongs to another tenant")
		}
	}

	invoiceNumber := strings.TrimSpace(req.InvoiceNumber)
	exists, err := s.invoiceRepo.ExistsByNumber(ctx, tenantID, vendor.ID, invoiceNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "An invoice with this number already exists for this vendor")
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	var inv *invoice.Invoice
	err = s.txScope.Execute(ctx, func(repos budgetapp.TransactionalRepositories) error {
		inv, err = invoice.NewInvoice(tenantID, vendor.ID, invoiceNumber, req.TotalCents, currency, req.DocumentKey)
		if err != nil {
			return err
		}

		if req.OrderID != nil {
			po, err := repos.PurchaseOrders().FindByID(ctx, *req.OrderID)
			if err != nil {
				return err
			}
			if po.TenantID != tenantID {
				return shared.ErrNotFound
			}
			if po.VendorID != vendor.ID {
				return shared.NewDomainError("VENDOR_MISMATCH", "Order was issued to a different vendor")
			}
			if err := inv.SetOrder(po.ID); err != nil {
				return err
			}
		}

		for _, line := range req.Lines {
			if _, err := inv.AddLine(line.Description, line.Quantity, line.UnitPriceCents); err != nil {
				return err
			}
		}

		if err := repos.Invoices().Create(ctx, inv); err != nil {
			return err
		}

		entry, err := audit.NewEntry(tenantID, actorID, "CREATE", string(shared.EntityTypeInvoice), inv.ID,
			nil, invoiceState(inv))
		if err != nil {
			return err
		}
		return repos.AuditEntries().Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, inv)

	s.postProcess(ctx, inv)

	response := ToInvoiceResponse(inv)
	return &response, nil
}

// postProcess queues OCR for documents and match runs for matchable
// invoices. Queue failures are logged; the internal job endpoints can
// re-trigger both
func (s *InvoiceService) postProcess(ctx context.Context, inv *invoice.Invoice) {
	if inv.OcrStatus == invoice.OcrStatusPending {
		if s.ocrQueue == nil {
			return
		}
		if err := s.ocrQueue.EnqueueOcr(ctx, inv.TenantID, inv.ID); err != nil {
			s.logger.Warn("failed to queue invoice for text extraction",
				zap.String("invoice_number", inv.InvoiceNumber),
				zap.Error(err))
		}
		return
	}

	if inv.OrderID != nil && s.matchQueue != nil {
		if err := s.matchQueue.EnqueueMatch(ctx, inv.TenantID, inv.ID); err != nil {
			s.logger.Warn("failed to queue invoice for matching",
				zap.String("invoice_number", inv.InvoiceNumber),
				zap.Error(err))
		}
	}
}

// publishDomainEvents pushes the invoice's pending events onto the bus
// after the surrounding transaction committed
func (s *InvoiceService) publishDomainEvents(ctx context.Context, inv *invoice.Invoice) {
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

// Dispute lets the vendor contest an exception with a reason
func (s *InvoiceService) Dispute(ctx context.Context, tenantID, actorID, invoiceID uuid.UUID, req DisputeInvoiceRequest) (*InvoiceResponse, error) {
	return s.transition(ctx, tenantID, actorID, invoiceID, "DISPUTE", func(inv *invoice.Invoice) error {
		return inv.Dispute(req.Reason)
	})
}

// OverrideMatch clears an exception or dispute by finance decision
func (s *InvoiceService) OverrideMatch(ctx context.Context, tenantID, actorID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	return s.transition(ctx, tenantID, actorID, invoiceID, "OVERRIDE_MATCH", func(inv *invoice.Invoice) error {
		return inv.Override()
	})
}

// ApprovePayment releases a matched invoice for payment
func (s *InvoiceService) ApprovePayment(ctx context.Context, tenantID, actorID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	return s.transition(ctx, tenantID, actorID, invoiceID, "APPROVE_PAYMENT", func(inv *invoice.Invoice) error {
		return inv.ApproveForPayment()
	})
}

// MarkPaid settles an approved invoice. The stripe webhook calls this
// with the system actor. Settlement also converts the purchase
// request's budget hold into recorded spend, in the same transaction,
// so committed funds become spent the moment the money leaves
func (s *InvoiceService) MarkPaid(ctx context.Context, tenantID, actorID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	var inv *invoice.Invoice

	err := s.txScope.Execute(ctx, func(repos budgetapp.TransactionalRepositories) error {
		var err error
		inv, err = repos.Invoices().FindByIDForUpdate(ctx, tenantID, invoiceID)
		if err != nil {
			return err
		}

		before := invoiceState(inv)
		if err := inv.MarkPaid(); err != nil {
			return err
		}
		if err := repos.Invoices().Update(ctx, inv); err != nil {
			return err
		}

		if err := s.settleReservation(ctx, repos, inv); err != nil {
			return err
		}

		entry, err := audit.NewEntry(tenantID, actorID, "MARK_PAID", string(shared.EntityTypeInvoice), inv.ID,
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

	response := ToInvoiceResponse(inv)
	return &response, nil
}

// settleReservation moves the budget hold behind the invoice's order from
// committed to spent. Invoices without an order carry no hold, and orders
// not born from a purchase request (an awarded RFQ) reserved nothing
func (s *InvoiceService) settleReservation(ctx context.Context, repos budgetapp.TransactionalRepositories, inv *invoice.Invoice) error {
	if inv.OrderID == nil {
		return nil
	}
	po, err := repos.PurchaseOrders().FindByID(ctx, *inv.OrderID)
	if err != nil {
		return err
	}
	if po.RequestID == nil {
		return nil
	}
	return budgetapp.CommitReservation(ctx, repos, shared.EntityTypePR, *po.RequestID)
}

// transition applies one guarded status change inside a transaction and
// audits the outcome
func (s *InvoiceService) transition(ctx context.Context, tenantID, actorID, invoiceID uuid.UUID, action string, apply func(*invoice.Invoice) error) (*InvoiceResponse, error) {
	var inv *invoice.Invoice

	err := s.txScope.Execute(ctx, func(repos budgetapp.TransactionalRepositories) error {
		var err error
		inv, err = repos.Invoices().FindByIDForUpdate(ctx, tenantID, invoiceID)
		if err != nil {
			return err
		}

		before := invoiceState(inv)
		if err := apply(inv); err != nil {
			return err
		}
		if err := repos.Invoices().Update(ctx, inv); err != nil {
			return err
		}

		entry, err := audit.NewEntry(tenantID, actorID, action, string(shared.EntityTypeInvoice), inv.ID,
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

	response := ToInvoiceResponse(inv)
	return &response, nil
}

// GetByID retrieves an invoice with its lines
func (s *InvoiceService) GetByID(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}

	response := ToInvoiceResponse(inv)
	return &response, nil
}

// MatchResult returns the stored outcome of the invoice's last match run
func (s *InvoiceService) MatchResult(ctx context.Context, tenantID, invoiceID uuid.UUID) (*MatchResultResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.MatchStatus == "" {
		return nil, shared.NewDomainError("NO_MATCH_RUN", "No match has run for this invoice yet")
	}

	response := ToMatchResultResponse(inv)
	return &response, nil
}

// List returns invoices matching the filter with pagination
func (s *InvoiceService) List(ctx context.Context, tenantID uuid.UUID, filter InvoiceListFilter) (*shared.Paginated[InvoiceResponse], error) {
	page := filter.Page
	if page == 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize == 0 {
		pageSize = 20
	}

	repoFilter := shared.Filter{
		Page:     page,
		PageSize: pageSize,
		Filters:  map[string]interface{}{},
	}
	if filter.Status != "" {
		repoFilter.Filters["status"] = filter.Status
	}

	var (
		result *shared.Paginated[*invoice.Invoice]
		err    error
	)
	if filter.VendorID != "" {
		vendorID, parseErr := uuid.Parse(filter.VendorID)
		if parseErr != nil {
			return nil, shared.NewDomainError("INVALID_VENDOR_ID", "Vendor id must be a uuid")
		}
		result, err = s.invoiceRepo.FindByVendor(ctx, tenantID, vendorID, repoFilter)
	} else {
		result, err = s.invoiceRepo.FindAll(ctx, tenantID, repoFilter)
	}
	if err != nil {
		return nil, err
	}

	items := make([]InvoiceResponse, 0, len(result.Items))
	for _, inv := range result.Items {
		items = append(items, ToInvoiceResponse(inv))
	}

	paged := shared.NewPaginated(items, result.Total, page, pageSize)
	return &paged, nil
}

// invoiceState snapshots the audited invoice fields
func invoiceState(inv *invoice.Invoice) audit.State {
	return audit.State{
		"invoice_number": inv.InvoiceNumber,
		"status":         string(inv.Status),
		"match_status":   string(inv.MatchStatus),
		"total_cents":    inv.TotalCents,
		"currency":       inv.Currency,
	}
}
