package invoice

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	budgetapp "github.com/procura/backend/internal/application/budget"
	"github.com/procura/backend/internal/domain/audit"
	"github.com/procura/backend/internal/domain/budget"
	"github.com/procura/backend/internal/domain/invoice"
	"github.com/procura/backend/internal/domain/partner"
	"github.com/procura/backend/internal/domain/procurement"
	"github.com/procura/backend/internal/domain/shared"
)

// MockInvoiceRepository is a mock implementation of invoice.Repository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Update(ctx context.Context, inv *invoice.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*invoice.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoice.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*invoice.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoice.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByNumber(ctx context.Context, tenantID, vendorID uuid.UUID, invoiceNumber string) (*invoice.Invoice, error) {
	args := m.Called(ctx, tenantID, vendorID, invoiceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoice.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindOpenByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]*invoice.Invoice, error) {
	args := m.Called(ctx, tenantID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*invoice.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByVendor(ctx context.Context, tenantID, vendorID uuid.UUID, filter shared.Filter) (*shared.Paginated[*invoice.Invoice], error) {
	args := m.Called(ctx, tenantID, vendorID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*invoice.Invoice]), args.Error(1)
}

func (m *MockInvoiceRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[*invoice.Invoice], error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*invoice.Invoice]), args.Error(1)
}

func (m *MockInvoiceRepository) ExistsByNumber(ctx context.Context, tenantID, vendorID uuid.UUID, invoiceNumber string) (bool, error) {
	args := m.Called(ctx, tenantID, vendorID, invoiceNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepository) VendorActivity(ctx context.Context, tenantID, vendorID uuid.UUID, since time.Time) (*invoice.VendorActivity, error) {
	args := m.Called(ctx, tenantID, vendorID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoice.VendorActivity), args.Error(1)
}

// MockVendorRepository is a mock implementation of partner.VendorRepository
type MockVendorRepository struct {
	mock.Mock
}

func (m *MockVendorRepository) Create(ctx context.Context, vendor *partner.Vendor) error {
	args := m.Called(ctx, vendor)
	return args.Error(0)
}

func (m *MockVendorRepository) Update(ctx context.Context, vendor *partner.Vendor) error {
	args := m.Called(ctx, vendor)
	return args.Error(0)
}

func (m *MockVendorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockVendorRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Vendor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Vendor), args.Error(1)
}

func (m *MockVendorRepository) FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*partner.Vendor, error) {
	args := m.Called(ctx, tenantID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Vendor), args.Error(1)
}

func (m *MockVendorRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*partner.Vendor, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*partner.Vendor), args.Get(1).(int64), args.Error(2)
}

func (m *MockVendorRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status partner.VendorStatus) ([]*partner.Vendor, error) {
	args := m.Called(ctx, tenantID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*partner.Vendor), args.Error(1)
}

func (m *MockVendorRepository) ExistsByTaxID(ctx context.Context, tenantID uuid.UUID, taxID string) (bool, error) {
	args := m.Called(ctx, tenantID, taxID)
	return args.Bool(0), args.Error(1)
}

func (m *MockVendorRepository) ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error) {
	args := m.Called(ctx, tenantID, email)
	return args.Bool(0), args.Error(1)
}

// MockPurchaseOrderRepository is a mock implementation of procurement.PurchaseOrderRepository
type MockPurchaseOrderRepository struct {
	mock.Mock
}

func (m *MockPurchaseOrderRepository) Create(ctx context.Context, po *procurement.PurchaseOrder) error {
	args := m.Called(ctx, po)
	return args.Error(0)
}

func (m *MockPurchaseOrderRepository) Update(ctx context.Context, po *procurement.PurchaseOrder) error {
	args := m.Called(ctx, po)
	return args.Error(0)
}

func (m *MockPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.PurchaseOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*procurement.PurchaseOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, poNumber string) (*procurement.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, poNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindByRequest(ctx context.Context, requestID uuid.UUID) ([]*procurement.PurchaseOrder, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*procurement.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindByVendor(ctx context.Context, tenantID, vendorID uuid.UUID, filter shared.Filter) ([]*procurement.PurchaseOrder, int64, error) {
	args := m.Called(ctx, tenantID, vendorID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*procurement.PurchaseOrder), args.Get(1).(int64), args.Error(2)
}

func (m *MockPurchaseOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*procurement.PurchaseOrder, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*procurement.PurchaseOrder), args.Get(1).(int64), args.Error(2)
}

func (m *MockPurchaseOrderRepository) GeneratePoNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

// MockReceiptRepository is a mock implementation of procurement.ReceiptRepository
type MockReceiptRepository struct {
	mock.Mock
}

func (m *MockReceiptRepository) Create(ctx context.Context, r *procurement.Receipt) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockReceiptRepository) Update(ctx context.Context, r *procurement.Receipt) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.Receipt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*procurement.Receipt, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*procurement.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*procurement.Receipt, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*procurement.Receipt), args.Get(1).(int64), args.Error(2)
}

func (m *MockReceiptRepository) GenerateReceiptNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

// MockAuditRepository is a mock implementation of audit.Repository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Create(ctx context.Context, entry *audit.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) FindByEntity(ctx context.Context, tenantID uuid.UUID, entityType string, entityID uuid.UUID, filter shared.Filter) (*shared.Paginated[*audit.Entry], error) {
	args := m.Called(ctx, tenantID, entityType, entityID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*audit.Entry]), args.Error(1)
}

func (m *MockAuditRepository) FindByActor(ctx context.Context, tenantID, actorID uuid.UUID, filter shared.Filter) (*shared.Paginated[*audit.Entry], error) {
	args := m.Called(ctx, tenantID, actorID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*audit.Entry]), args.Error(1)
}

func (m *MockAuditRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[*audit.Entry], error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*audit.Entry]), args.Error(1)
}

// MockBudgetRepository is a mock implementation of budget.BudgetRepository
type MockBudgetRepository struct {
	mock.Mock
}

func (m *MockBudgetRepository) Create(ctx context.Context, b *budget.Budget) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBudgetRepository) Update(ctx context.Context, b *budget.Budget) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBudgetRepository) FindByID(ctx context.Context, id uuid.UUID) (*budget.Budget, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*budget.Budget), args.Error(1)
}

func (m *MockBudgetRepository) FindByPeriod(ctx context.Context, tenantID, departmentID uuid.UUID, fiscalYear, quarter int) (*budget.Budget, error) {
	args := m.Called(ctx, tenantID, departmentID, fiscalYear, quarter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*budget.Budget), args.Error(1)
}

func (m *MockBudgetRepository) FindByPeriodForUpdate(ctx context.Context, tenantID, departmentID uuid.UUID, fiscalYear, quarter int) (*budget.Budget, error) {
	args := m.Called(ctx, tenantID, departmentID, fiscalYear, quarter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*budget.Budget), args.Error(1)
}

func (m *MockBudgetRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*budget.Budget, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*budget.Budget), args.Error(1)
}

func (m *MockBudgetRepository) FindByTenantAndPeriod(ctx context.Context, tenantID uuid.UUID, fiscalYear, quarter int) ([]*budget.Budget, error) {
	args := m.Called(ctx, tenantID, fiscalYear, quarter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*budget.Budget), args.Error(1)
}

func (m *MockBudgetRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*budget.Budget, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*budget.Budget), args.Get(1).(int64), args.Error(2)
}

// MockReservationRepository is a mock implementation of budget.ReservationRepository
type MockReservationRepository struct {
	mock.Mock
}

func (m *MockReservationRepository) Create(ctx context.Context, r *budget.BudgetReservation) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockReservationRepository) Update(ctx context.Context, r *budget.BudgetReservation) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockReservationRepository) FindByEntity(ctx context.Context, entityType shared.EntityType, entityID uuid.UUID) (*budget.BudgetReservation, error) {
	args := m.Called(ctx, entityType, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*budget.BudgetReservation), args.Error(1)
}

func (m *MockReservationRepository) SumCommittedByBudget(ctx context.Context, budgetID uuid.UUID) (int64, error) {
	args := m.Called(ctx, budgetID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReservationRepository) FindByBudget(ctx context.Context, budgetID uuid.UUID) ([]*budget.BudgetReservation, error) {
	args := m.Called(ctx, budgetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*budget.BudgetReservation), args.Error(1)
}

// MockOcrQueue is a mock implementation of OcrEnqueuer
type MockOcrQueue struct {
	mock.Mock
}

func (m *MockOcrQueue) EnqueueOcr(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	args := m.Called(ctx, tenantID, invoiceID)
	return args.Error(0)
}

// MockMatchQueue is a mock implementation of MatchEnqueuer
type MockMatchQueue struct {
	mock.Mock
}

func (m *MockMatchQueue) EnqueueMatch(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	args := m.Called(ctx, tenantID, invoiceID)
	return args.Error(0)
}

// invoiceTestRepos bundles the mocks wired into one NoOp transaction scope
// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

type invoiceTestRepos struct {
	invoices     *MockInvoiceRepository
	vendors      *MockVendorRepository
	orders       *MockPurchaseOrderRepository
	receipts     *MockReceiptRepository
	budgets      *MockBudgetRepository
	reservations *MockReservationRepository
	audits       *MockAuditRepository
}

func newInvoiceTestRepos() *invoiceTestRepos {
	return &invoiceTestRepos{
		invoices:     new(MockInvoiceRepository),
		vendors:      new(MockVendorRepository),
		orders:       new(MockPurchaseOrderRepository),
		receipts:     new(MockReceiptRepository),
		budgets:      new(MockBudgetRepository),
		reservations: new(MockReservationRepository),
		audits:       new(MockAuditRepository),
	}
}

func (r *invoiceTestRepos) scope() budgetapp.TransactionScope {
	return budgetapp.NewNoOpTransactionScope(
		r.budgets, r.reservations, nil, r.orders, r.receipts, nil, r.invoices, nil, r.audits,
	)
}

func (r *invoiceTestRepos) service(ocrQueue OcrEnqueuer, matchQueue MatchEnqueuer) *InvoiceService {
	return NewInvoiceService(r.invoices, r.vendors, r.scope(), ocrQueue, matchQueue, zap.NewNop())
}

func activeVendor(t *testing.T, tenantID uuid.UUID) *partner.Vendor {
	t.Helper()
	vendor, err := partner.NewVendor(tenantID, "Acme Supplies GmbH", "DE811223344", "sales@acme-supplies.test")
	require.NoError(t, err)
	require.NoError(t, vendor.SubmitForReview())
	require.NoError(t, vendor.Approve())
	return vendor
}

func documentKey(tenantID uuid.UUID) string {
	return shared.NewStorageKey(tenantID, "pdf")
}

func exceptionInvoice(t *testing.T, tenantID, vendorID uuid.UUID) *invoice.Invoice {
	t.Helper()
	inv, err := invoice.NewInvoice(tenantID, vendorID, "INV-100", 50_000, "USD", "")
	require.NoError(t, err)
	require.NoError(t, inv.ApplyMatchResult(false, `[{"type":"QTY_MISMATCH"}]`))
	return inv
}

func TestInvoiceService_Create_QueuesOcr(t *testing.T) {
	repos := newInvoiceTestRepos()
	tenantID := uuid.New()
	actorID := uuid.New()

	vendor := activeVendor(t, tenantID)
	key := documentKey(tenantID)

	ocrQueue := new(MockOcrQueue)
	ocrQueue.On("EnqueueOcr", mock.Anything, tenantID, mock.AnythingOfType("uuid.UUID")).Return(nil)

	repos.vendors.On("FindByID", mock.Anything, vendor.ID).Return(vendor, nil)
	repos.invoices.On("ExistsByNumber", mock.Anything, tenantID, vendor.ID, "INV-2026-001").Return(false, nil)
	repos.invoices.On("Create", mock.Anything, mock.AnythingOfType("*invoice.Invoice")).Return(nil)
	repos.audits.On("Create", mock.Anything, mock.AnythingOfType("*audit.Entry")).Return(nil)

	service := repos.service(ocrQueue, nil)

	resp, err := service.Create(context.Background(), tenantID, actorID, CreateInvoiceRequest{
		VendorID:      vendor.ID,
		InvoiceNumber: "INV-2026-001",
		TotalCents:    125_000,
		DocumentKey:   key,
		Lines: []InvoiceLineInput{
			{Description: "Handheld scanner", Quantity: 2, UnitPriceCents: 62_500},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, invoice.StatusUploaded, resp.Status)
	assert.Equal(t, invoice.OcrStatusPending, resp.OcrStatus)
	assert.Equal(t, "USD", resp.Currency)
	assert.True(t, resp.HasDocument)
	ocrQueue.AssertExpectations(t)
	repos.invoices.AssertExpectations(t)
}

func TestInvoiceService_Create_DuplicateNumber(t *testing.T) {
	repos := newInvoiceTestRepos()
	tenantID := uuid.New()
	vendor := activeVendor(t, tenantID)

	repos.vendors.On("FindByID", mock.Anything, vendor.ID).Return(vendor, nil)
	repos.invoices.On("ExistsByNumber", mock.Anything, tenantID, vendor.ID, "INV-2026-001").Return(true, nil)

	service := repos.service(nil, nil)

	_, err := service.Create(context.Background(), tenantID, uuid.New(), CreateInvoiceRequest{
		VendorID:      vendor.ID,
		InvoiceNumber: "INV-2026-001",
		TotalCents:    10_000,
	})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
	repos.invoices.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestInvoiceService_Create_InvalidDocumentKey(t *testing.T) {
	repos := newInvoiceTestRepos()
	tenantID := uuid.New()
	vendor := activeVendor(t, tenantID)

	repos.vendors.On("FindByID", mock.Anything, vendor.ID).Return(vendor, nil)

	service := repos.service(nil, nil)

	cases := []string{
		"garbage",
		uuid.NewString() + "/not-a-uuid.pdf",
		uuid.NewString() + "/" + uuid.NewString() + ".pdf", // another tenant's prefix
	}
	for _, key := range cases {
		_, err := service.Create(context.Background(), tenantID, uuid.New(), CreateInvoiceRequest{
			VendorID:      vendor.ID,
			InvoiceNumber: "INV-2026-002",
			TotalCents:    10_000,
			DocumentKey:   key,
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr, "key %q", key)
		assert.Equal(t, "INVALID_DOCUMENT_KEY", domainErr.Code)
	}
	repos.invoices.AssertNotCalled(t, "ExistsByNumber", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInvoiceService_Create_LinkedOrderQueuesMatch(t *testing.T) {
	repos := newInvoiceTestRepos()
	tenantID := uuid.New()
	vendor := activeVendor(t, tenantID)

	po, err := procurement.NewPurchaseOrder(tenantID, "PO-2026-000020", vendor.ID, vendor.LegalName)
	require.NoError(t, err)

	matchQueue := new(MockMatchQueue)
	matchQueue.On("EnqueueMatch", mock.Anything, tenantID, mock.AnythingOfType("uuid.UUID")).Return(nil)

	repos.vendors.On("FindByID", mock.Anything, vendor.ID).Return(vendor, nil)
	repos.invoices.On("ExistsByNumber", mock.Anything, tenantID, vendor.ID, "INV-2026-003").Return(false, nil)
	repos.orders.On("FindByID", mock.Anything, po.ID).Return(po, nil)
	repos.invoices.On("Create", mock.Anything, mock.AnythingOfType("*invoice.Invoice")).Return(nil)
	repos.audits.On("Create", mock.Anything, mock.AnythingOfType("*audit.Entry")).Return(nil)

	service := repos.service(nil, matchQueue)

	resp, err := service.Create(context.Background(), tenantID, uuid.New(), CreateInvoiceRequest{
		VendorID:      vendor.ID,
		OrderID:       &po.ID,
		InvoiceNumber: "INV-2026-003",
		TotalCents:    10_000,
	})

	require.NoError(t, err)
	require.NotNil(t, resp.OrderID)
	assert.Equal(t, po.ID, *resp.OrderID)
	assert.Equal(t, invoice.OcrStatusSkipped, resp.OcrStatus)
	matchQueue.AssertExpectations(t)
}

func TestInvoiceService_Create_OrderVendorMismatch(t *testing.T) {
	repos := newInvoiceTestRepos()
	tenantID := uuid.New()
	vendor := activeVendor(t, tenantID)

	po, err := procurement.NewPurchaseOrder(tenantID, "PO-2026-000021", uuid.New(), "Someone Else Ltd")
	require.NoError(t, err)

	repos.vendors.On("FindByID", mock.Anything, vendor.ID).Return(vendor, nil)
	repos.invoices.On("ExistsByNumber", mock.Anything, tenantID, vendor.ID, "INV-2026-004").Return(false, nil)
	repos.orders.On("FindByID", mock.Anything, po.ID).Return(po, nil)

	service := repos.service(nil, nil)

	_, err = service.Create(context.Background(), tenantID, uuid.New(), CreateInvoiceRequest{
		VendorID:      vendor.ID,
		OrderID:       &po.ID,
		InvoiceNumber: "INV-2026-004",
		TotalCents:    10_000,
	})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VENDOR_MISMATCH", domainErr.Code)
}

func TestInvoiceService_Dispute(t *testing.T) {
	repos := newInvoiceTestRepos()
	tenantID := uuid.New()
	actorID := uuid.New()

	inv := exceptionInvoice(t, tenantID, uuid.New())

	repos.invoices.On("FindByIDForUpdate", mock.Anything, tenantID, inv.ID).Return(inv, nil)
	repos.invoices.On("Update", mock.Anything, inv).Return(nil)
	repos.audits.On("Create", mock.Anything, mock.AnythingOfType("*audit.Entry")).Return(nil)

	service := repos.service(nil, nil)

	resp, err := service.Dispute(context.Background(), tenantID, actorID, inv.ID, DisputeInvoiceRequest{
		Reason: "Quantities match our packing slip",
	})

	require.NoError(t, err)
	assert.Equal(t, invoice.StatusDisputed, resp.Status)
	assert.Equal(t, "Quantities match our packing slip", resp.DisputeReason)
}

func TestInvoiceService_OverrideMatch(t *testing.T) {
	repos := newInvoiceTestRepos()
	tenantID := uuid.New()

	inv := exceptionInvoice(t, tenantID, uuid.New())
	require.NoError(t, inv.Dispute("Contested"))

	repos.invoices.On("FindByIDForUpdate", mock.Anything, tenantID, inv.ID).Return(inv, nil)
	repos.invoices.On("Update", mock.Anything, inv).Return(nil)
	repos.audits.On("Create", mock.Anything, mock.AnythingOfType("*audit.Entry")).Return(nil)

	service := repos.service(nil, nil)

	resp, err := service.OverrideMatch(context.Background(), tenantID, uuid.New(), inv.ID)

	require.NoError(t, err)
	assert.Equal(t, invoice.StatusMatched, resp.Status)
	assert.Equal(t, invoice.MatchStatusOverride, resp.MatchStatus)
}

func TestInvoiceService_ApprovePayment(t *testing.T) {
	tenantID := uuid.New()

	t.Run("matched invoice approved", func(t *testing.T) {
		repos := newInvoiceTestRepos()
		inv, err := invoice.NewInvoice(tenantID, uuid.New(), "INV-200", 75_000, "EUR", "")
		require.NoError(t, err)
		require.NoError(t, inv.ApplyMatchResult(true, ""))

		repos.invoices.On("FindByIDForUpdate", mock.Anything, tenantID, inv.ID).Return(inv, nil)
		repos.invoices.On("Update", mock.Anything, inv).Return(nil)
		repos.audits.On("Create", mock.Anything, mock.AnythingOfType("*audit.Entry")).Return(nil)

		service := repos.service(nil, nil)

		resp, err := service.ApprovePayment(context.Background(), tenantID, uuid.New(), inv.ID)

		require.NoError(t, err)
		assert.Equal(t, invoice.StatusApproved, resp.Status)
		assert.NotNil(t, resp.ApprovedPaymentAt)
	})

	t.Run("uploaded invoice rejected", func(t *testing.T) {
		repos := newInvoiceTestRepos()
		inv, err := invoice.NewInvoice(tenantID, uuid.New(), "INV-201", 75_000, "EUR", "")
		require.NoError(t, err)

		repos.invoices.On("FindByIDForUpdate", mock.Anything, tenantID, inv.ID).Return(inv, nil)

		service := repos.service(nil, nil)

		_, err = service.ApprovePayment(context.Background(), tenantID, uuid.New(), inv.ID)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
		repos.invoices.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestInvoiceService_MarkPaid(t *testing.T) {
	repos := newInvoiceTestRepos()
	tenantID := uuid.New()

	inv, err := invoice.NewInvoice(tenantID, uuid.New(), "INV-300", 75_000, "USD", "")
	require.NoError(t, err)
	require.NoError(t, inv.ApplyMatchResult(true, ""))
	require.NoError(t, inv.ApproveForPayment())

	repos.invoices.On("FindByIDForUpdate", mock.Anything, tenantID, inv.ID).Return(inv, nil)
	repos.invoices.On("Update", mock.Anything, inv).Return(nil)
	repos.audits.On("Create", mock.Anything, mock.AnythingOfType("*audit.Entry")).Return(nil)

	service := repos.service(nil, nil)

	resp, err := service.MarkPaid(context.Background(), tenantID, audit.SystemActorID, inv.ID)

	require.NoError(t, err)
	assert.Equal(t, invoice.StatusPaid, resp.Status)
	assert.NotNil(t, resp.PaidAt)
}

func TestInvoiceService_MarkPaid_PublishesPaidEvent(t *testing.T) {
	repos := newInvoiceTestRepos()
	tenantID := uuid.New()

	inv, err := invoice.NewInvoice(tenantID, uuid.New(), "INV-301", 75_000, "USD", "")
	require.NoError(t, err)
	require.NoError(t, inv.ApplyMatchResult(true, ""))
	require.NoError(t, inv.ApproveForPayment())
	// A repository-loaded aggregate carries no pending events
	inv.ClearDomainEvents()

	repos.invoices.On("FindByIDForUpdate", mock.Anything, tenantID, inv.ID).Return(inv, nil)
	repos.invoices.On("Update", mock.Anything, inv).Return(nil)
	repos.audits.On("Create", mock.Anything, mock.AnythingOfType("*audit.Entry")).Return(nil)

	publisher := new(MockEventPublisher)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(events []shared.DomainEvent) bool {
		if len(events) != 1 {
			return false
		}
		paid, ok := events[0].(*invoice.InvoicePaidEvent)
		return ok && paid.InvoiceNumber == "INV-301" && paid.TotalCents == 75_000
	})).Return(nil)

	service := repos.service(nil, nil)
	service.SetEventPublisher(publisher)

	_, err = service.MarkPaid(context.Background(), tenantID, audit.SystemActorID, inv.ID)

	require.NoError(t, err)
	publisher.AssertExpectations(t)
	assert.Empty(t, inv.GetDomainEvents(), "published events must be cleared")
}

func TestInvoiceService_MarkPaid_SettlesBudgetHold(t *testing.T) {
	repos := newInvoiceTestRepos()
	tenantID := uuid.New()

	pr, err := procurement.NewPurchaseRequest(tenantID, "PR-2026-000042", uuid.New(), uuid.New(), "Handheld scanners")
	require.NoError(t, err)

	po, err := procurement.NewPurchaseOrderFromRequest("PO-2026-000042", pr, uuid.New(), "Acme Supplies GmbH")
	require.NoError(t, err)

	b, err := budget.NewBudget(tenantID, uuid.New(), 2026, 3, 10_000_00)
	require.NoError(t, err)

	reservation, err := budget.NewBudgetReservation(tenantID, b.ID, shared.EntityTypePR, pr.ID, 75_000)
	require.NoError(t, err)

	inv, err := invoice.NewInvoice(tenantID, po.VendorID, "INV-302", 75_000, "USD", "")
	require.NoError(t, err)
	require.NoError(t, inv.SetOrder(po.ID))
	require.NoError(t, inv.ApplyMatchResult(true, ""))
	require.NoError(t, inv.ApproveForPayment())

	repos.invoices.On("FindByIDForUpdate", mock.Anything, tenantID, inv.ID).Return(inv, nil)
	repos.invoices.On("Update", mock.Anything, inv).Return(nil)
	repos.orders.On("FindByID", mock.Anything, po.ID).Return(po, nil)
	repos.reservations.On("FindByEntity", mock.Anything, shared.EntityTypePR, pr.ID).Return(reservation, nil)
	repos.budgets.On("FindByIDForUpdate", mock.Anything, b.ID).Return(b, nil)
	repos.reservations.On("Update", mock.Anything, reservation).Return(nil)
	repos.budgets.On("Update", mock.Anything, b).Return(nil)
	repos.audits.On("Create", mock.Anything, mock.AnythingOfType("*audit.Entry")).Return(nil)

	service := repos.service(nil, nil)

	resp, err := service.MarkPaid(context.Background(), tenantID, audit.SystemActorID, inv.ID)

	require.NoError(t, err)
	assert.Equal(t, invoice.StatusPaid, resp.Status)
	assert.Equal(t, budget.ReservationStatusSpent, reservation.Status)
	assert.Equal(t, int64(75_000), b.SpentCents)
	repos.reservations.AssertExpectations(t)
	repos.budgets.AssertExpectations(t)
}

func TestInvoiceService_MarkPaid_AlreadySettledHoldIsUntouched(t *testing.T) {
	repos := newInvoiceTestRepos()
	tenantID := uuid.New()

	pr, err := procurement.NewPurchaseRequest(tenantID, "PR-2026-000043", uuid.New(), uuid.New(), "Cradles")
	require.NoError(t, err)

	po, err := procurement.NewPurchaseOrderFromRequest("PO-2026-000043", pr, uuid.New(), "Acme Supplies GmbH")
	require.NoError(t, err)

	reservation, err := budget.NewBudgetReservation(tenantID, uuid.New(), shared.EntityTypePR, pr.ID, 30_000)
	require.NoError(t, err)
	require.NoError(t, reservation.MarkSpent())

	inv, err := invoice.NewInvoice(tenantID, po.VendorID, "INV-303", 30_000, "USD", "")
	require.NoError(t, err)
	require.NoError(t, inv.SetOrder(po.ID))
	require.NoError(t, inv.ApplyMatchResult(true, ""))
	require.NoError(t, inv.ApproveForPayment())

	repos.invoices.On("FindByIDForUpdate", mock.Anything, tenantID, inv.ID).Return(inv, nil)
	repos.invoices.On("Update", mock.Anything, inv).Return(nil)
	repos.orders.On("FindByID", mock.Anything, po.ID).Return(po, nil)
	repos.reservations.On("FindByEntity", mock.Anything, shared.EntityTypePR, pr.ID).Return(reservation, nil)
	repos.audits.On("Create", mock.Anything, mock.AnythingOfType("*audit.Entry")).Return(nil)

	service := repos.service(nil, nil)

	resp, err := service.MarkPaid(context.Background(), tenantID, audit.SystemActorID, inv.ID)

	require.NoError(t, err)
	assert.Equal(t, invoice.StatusPaid, resp.Status)
	repos.reservations.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	repos.budgets.AssertNotCalled(t, "FindByIDForUpdate", mock.Anything, mock.Anything)
}

func TestInvoiceService_MatchResult(t *testing.T) {
	tenantID := uuid.New()

	t.Run("no run yet", func(t *testing.T) {
		repos := newInvoiceTestRepos()
		inv, err := invoice.NewInvoice(tenantID, uuid.New(), "INV-400", 10_000, "USD", "")
		require.NoError(t, err)

		repos.invoices.On("FindByID", mock.Anything, tenantID, inv.ID).Return(inv, nil)

		service := repos.service(nil, nil)

		_, err = service.MatchResult(context.Background(), tenantID, inv.ID)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NO_MATCH_RUN", domainErr.Code)
	})

	t.Run("failed run surfaces exceptions", func(t *testing.T) {
		repos := newInvoiceTestRepos()
		inv := exceptionInvoice(t, tenantID, uuid.New())

		repos.invoices.On("FindByID", mock.Anything, tenantID, inv.ID).Return(inv, nil)

		service := repos.service(nil, nil)

		resp, err := service.MatchResult(context.Background(), tenantID, inv.ID)

		require.NoError(t, err)
		assert.Equal(t, invoice.MatchStatusFail, resp.MatchStatus)
		assert.JSONEq(t, `[{"type":"QTY_MISMATCH"}]`, string(resp.Exceptions))
	})
}

func TestInvoiceService_List_ByVendor(t *testing.T) {
	repos := newInvoiceTestRepos()
	tenantID := uuid.New()
	vendorID := uuid.New()

	inv, err := invoice.NewInvoice(tenantID, vendorID, "INV-500", 10_000, "USD", "")
	require.NoError(t, err)
	page := shared.NewPaginated([]*invoice.Invoice{inv}, 1, 1, 20)

	repos.invoices.On("FindByVendor", mock.Anything, tenantID, vendorID, mock.AnythingOfType("shared.Filter")).
		Return(&page, nil)

	service := repos.service(nil, nil)

	result, err := service.List(context.Background(), tenantID, InvoiceListFilter{VendorID: vendorID.String()})

	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Total)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "INV-500", result.Items[0].InvoiceNumber)

	// timestamps survive the mapping
	assert.WithinDuration(t, time.Now(), result.Items[0].CreatedAt, time.Minute)
}
