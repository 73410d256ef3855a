package persistence

import (
	"context"

	appbudget "github.com/procura/backend/internal/application/budget"
	"github.com/procura/backend/internal/domain/approval"
	"github.com/procura/backend/internal/domain/audit"
	"github.com/procura/backend/internal/domain/budget"
	"github.com/procura/backend/internal/domain/invoice"
	"github.com/procura/backend/internal/domain/procurement"
	"github.com/procura/backend/internal/domain/rfq"
	"github.com/procura/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appbudget.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tenant.NewTenantDB(tx)}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *tenant.TenantDB
}

// Budgets returns the budget repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Budgets() budget.BudgetRepository {
	return NewGormBudgetRepository(r.tx)
}

// Reservations returns the budget reservation repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Reservations() budget.ReservationRepository {
	return NewGormReservationRepository(r.tx)
}

// PurchaseRequests returns the purchase request repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PurchaseRequests() procurement.PurchaseRequestRepository {
	return NewGormPurchaseRequestRepository(r.tx)
}

// PurchaseOrders returns the purchase order repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PurchaseOrders() procurement.PurchaseOrderRepository {
	return NewGormPurchaseOrderRepository(r.tx)
}

// Receipts returns the goods receipt repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Receipts() procurement.ReceiptRepository {
	return NewGormReceiptRepository(r.tx)
}

// Approvals returns the approval step repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Approvals() approval.Repository {
	return NewGormApprovalRepository(r.tx)
}

// Invoices returns the invoice repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Invoices() invoice.Repository {
	return NewGormInvoiceRepository(r.tx)
}

// Rfqs returns the RFQ repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Rfqs() rfq.Repository {
	return NewGormRfqRepository(r.tx)
}

// AuditEntries returns the audit log repository scoped to the current transaction.
func (r *gormTransactionalRepositories) AuditEntries() audit.Repository {
	return NewGormAuditRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appbudget.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appbudget.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
