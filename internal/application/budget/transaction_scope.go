package budget

import (
	"context"

	"github.com/procura/backend/internal/domain/approval"
	"github.com/procura/backend/internal/domain/audit"
	"github.com/procura/backend/internal/domain/budget"
	"github.com/procura/backend/internal/domain/invoice"
	"github.com/procura/backend/internal/domain/procurement"
	"github.com/procura/backend/internal/domain/rfq"
)

// TransactionScope provides transactional access to the spend-side repositories.
// When a function is executed within a transaction scope, all repository operations
// are part of the same database transaction and commit or roll back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories that take part in
// spend workflows. All repositories returned share the same underlying database
// transaction.
//
// Aggregate boundary notes:
//   - Budgets: budget rows are the serialization point for spend checks. Callers
//     that reserve or commit funds must load the row with FindByPeriodForUpdate so
//     concurrent requests against the same envelope queue on the row lock.
//   - Reservations: recorded per originating entity so release and commit can
//     address them without scanning the envelope.
//   - PurchaseRequests, PurchaseOrders, Receipts, Invoices: aggregate roots whose
//     line items are persisted through GORM association handling when the root is
//     saved.
//   - Approvals: steps are created in bulk when a request is submitted and decided
//     one at a time afterwards.
//   - AuditEntries: append-only, written in the same transaction as the state
//     change they describe.
type TransactionalRepositories interface {
	// Budgets returns the budget repository scoped to the current transaction
	Budgets() budget.BudgetRepository
	// Reservations returns the budget reservation repository scoped to the current transaction
	Reservations() budget.ReservationRepository
	// PurchaseRequests returns the purchase request repository scoped to the current transaction
	PurchaseRequests() procurement.PurchaseRequestRepository
	// PurchaseOrders returns the purchase order repository scoped to the current transaction
	PurchaseOrders() procurement.PurchaseOrderRepository
	// Receipts returns the goods receipt repository scoped to the current transaction
	Receipts() procurement.ReceiptRepository
	// Approvals returns the approval step repository scoped to the current transaction
	Approvals() approval.Repository
	// Invoices returns the invoice repository scoped to the current transaction
	Invoices() invoice.Repository
	// Rfqs returns the RFQ repository scoped to the current transaction
	Rfqs() rfq.Repository
	// AuditEntries returns the audit log repository scoped to the current transaction
	AuditEntries() audit.Repository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	budgets          budget.BudgetRepository
	reservations     budget.ReservationRepository
	purchaseRequests procurement.PurchaseRequestRepository
	purchaseOrders   procurement.PurchaseOrderRepository
	receipts         procurement.ReceiptRepository
	approvals        approval.Repository
	invoices         invoice.Repository
	rfqs             rfq.Repository
	auditEntries     audit.Repository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	budgets budget.BudgetRepository,
	reservations budget.ReservationRepository,
	purchaseRequests procurement.PurchaseRequestRepository,
	purchaseOrders procurement.PurchaseOrderRepository,
	receipts procurement.ReceiptRepository,
	approvals approval.Repository,
	invoices invoice.Repository,
	rfqs rfq.Repository,
	auditEntries audit.Repository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		budgets:          budgets,
		reservations:     reservations,
		purchaseRequests: purchaseRequests,
		purchaseOrders:   purchaseOrders,
		receipts:         receipts,
		approvals:        approvals,
		invoices:         invoices,
		rfqs:             rfqs,
		auditEntries:     auditEntries,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Budgets returns the budget repository.
func (s *NoOpTransactionScope) Budgets() budget.BudgetRepository {
	return s.budgets
}

// Reservations returns the budget reservation repository.
func (s *NoOpTransactionScope) Reservations() budget.ReservationRepository {
	return s.reservations
}

// PurchaseRequests returns the purchase request repository.
func (s *NoOpTransactionScope) PurchaseRequests() procurement.PurchaseRequestRepository {
	return s.purchaseRequests
}

// PurchaseOrders returns the purchase order repository.
func (s *NoOpTransactionScope) PurchaseOrders() procurement.PurchaseOrderRepository {
	return s.purchaseOrders
}

// Receipts returns the goods receipt repository.
func (s *NoOpTransactionScope) Receipts() procurement.ReceiptRepository {
	return s.receipts
}

// Approvals returns the approval step repository.
func (s *NoOpTransactionScope) Approvals() approval.Repository {
	return s.approvals
}

// Invoices returns the invoice repository.
func (s *NoOpTransactionScope) Invoices() invoice.Repository {
	return s.invoices
}

// Rfqs returns the RFQ repository.
func (s *NoOpTransactionScope) Rfqs() rfq.Repository {
	return s.rfqs
}

// AuditEntries returns the audit log repository.
func (s *NoOpTransactionScope) AuditEntries() audit.Repository {
	return s.auditEntries
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
