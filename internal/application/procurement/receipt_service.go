package procurement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	budgetapp "github.com/procura/backend/internal/application/budget"
	"github.com/procura/backend/internal/domain/audit"
	"github.com/procura/backend/internal/domain/procurement"
	"github.com/procura/backend/internal/domain/shared"
)

// MatchEnqueuer schedules a three-way match run for an invoice
type MatchEnqueuer interface {
	EnqueueMatch(ctx context.Context, tenantID, invoiceID uuid.UUID) error
}

// ReceiptService records goods receipts and drives order fulfillment
type ReceiptService struct {
	receiptRepo procurement.ReceiptRepository
	txScope     budgetapp.TransactionScope
	matchQueue  MatchEnqueuer
	logger      *zap.Logger
}

// NewReceiptService creates a new ReceiptService. The match queue may be
// nil, in which case confirmed receipts do not trigger match runs
func NewReceiptService(receiptRepo procurement.ReceiptRepository, txScope budgetapp.TransactionScope, matchQueue MatchEnqueuer, logger *zap.Logger) *ReceiptService {
	return &ReceiptService{
		receiptRepo: receiptRepo,
		txScope:     txScope,
		matchQueue:  matchQueue,
		logger:      logger,
	}
}

// Create posts a confirmed goods receipt. Each line lands on a PO line of
// the same order and may not exceed its remaining quantity; the order row
// is locked so concurrent receipts cannot over-receive. Open invoices of
// the order get a match run queued afterwards
func (s *ReceiptService) Create(ctx context.Context, tenantID, receiverID uuid.UUID, req CreateReceiptRequest) (*ReceiptResponse, error) {
	var (
		receipt        *procurement.Receipt
		openInvoiceIDs []uuid.UUID
	)

	err := s.txScope.Execute(ctx, func(repos budgetapp.TransactionalRepositories) error {
		po, err := repos.PurchaseOrders().FindByIDForUpdate(ctx, req.OrderID)
		if err != nil {
			return err
		}
		if po.TenantID != tenantID {
			return shared.ErrNotFound
		}
		if !po.Status.CanReceive() {
			return shared.NewDomainError("INVALID_STATE", "Order is not open for receiving")
		}

		receiptNumber, err := repos.Receipts().GenerateReceiptNumber(ctx, tenantID)
		if err != nil {
			return err
		}

		receiptDate := time.Now()
		if req.ReceiptDate != nil {
			receiptDate = *req.ReceiptDate
		}
		receipt, err = procurement.NewReceipt(tenantID, receiptNumber, po.ID, receiverID, receiptDate)
		if err != nil {
			return err
		}
		if req.Notes != "" {
			receipt.SetNotes(req.Notes)
		}

		for _, line := range req.Lines {
			condition := procurement.LineConditionGood
			if line.Condition != "" {
				condition = procurement.LineCondition(line.Condition)
			}
			if _, err := receipt.AddLine(line.PoLineItemID, line.QuantityReceived, condition); err != nil {
				return err
			}
			if err := po.ReceiveLine(line.PoLineItemID, line.QuantityReceived); err != nil {
				return err
			}
		}

		if err := receipt.Confirm(); err != nil {
			return err
		}
		if err := repos.Receipts().Create(ctx, receipt); err != nil {
			return err
		}
		if err := repos.PurchaseOrders().Update(ctx, po); err != nil {
			return err
		}

		entry, err := audit.NewEntry(tenantID, receiverID, "RECEIVE", string(shared.EntityTypePO), po.ID,
			nil, audit.State{
				"receipt_number": receipt.ReceiptNumber,
				"order_status":   string(po.Status),
				"quantity":       receipt.TotalQuantity(),
			})
		if err != nil {
			return err
		}
		if err := repos.AuditEntries().Create(ctx, entry); err != nil {
			return err
		}

		open, err := repos.Invoices().FindOpenByOrder(ctx, tenantID, po.ID)
		if err != nil {
			return err
		}
		for _, inv := range open {
			openInvoiceIDs = append(openInvoiceIDs, inv.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.enqueueMatches(ctx, tenantID, openInvoiceIDs)

	response := ToReceiptResponse(receipt)
	return &response, nil
}

// enqueueMatches queues match runs for the order's open invoices. Queue
// failures are logged; the sweep endpoints can re-trigger matching later
func (s *ReceiptService) enqueueMatches(ctx context.Context, tenantID uuid.UUID, invoiceIDs []uuid.UUID) {
	if s.matchQueue == nil {
		return
	}
	for _, invoiceID := range invoiceIDs {
		if err := s.matchQueue.EnqueueMatch(ctx, tenantID, invoiceID); err != nil {
			s.logger.Warn("failed to queue match run after receipt",
				zap.String("invoice_id", invoiceID.String()),
				zap.Error(err))
		}
	}
}

// GetByID retrieves a receipt with its lines
func (s *ReceiptService) GetByID(ctx context.Context, tenantID, receiptID uuid.UUID) (*ReceiptResponse, error) {
	receipt, err := s.receiptRepo.FindByID(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	if receipt.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}

	response := ToReceiptResponse(receipt)
	return &response, nil
}

// List retrieves receipts with filtering and pagination
func (s *ReceiptService) List(ctx context.Context, tenantID uuid.UUID, filter ReceiptListFilter) ([]ReceiptResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	if filter.OrderID != "" {
		orderID, parseErr := uuid.Parse(filter.OrderID)
		if parseErr != nil {
			return nil, 0, shared.ErrInvalidInput
		}
		receipts, err := s.receiptRepo.FindByOrder(ctx, orderID)
		if err != nil {
			return nil, 0, err
		}
		responses := make([]ReceiptResponse, 0, len(receipts))
		for _, r := range receipts {
			if r.TenantID != tenantID {
				continue
			}
			responses = append(responses, ToReceiptResponse(r))
		}
		return responses, int64(len(responses)), nil
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
	}
	receipts, total, err := s.receiptRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ReceiptResponse, 0, len(receipts))
	for _, r := range receipts {
		responses = append(responses, ToReceiptResponse(r))
	}
	return responses, total, nil
}
