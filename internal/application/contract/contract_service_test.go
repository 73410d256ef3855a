package contract

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/procura/backend/internal/domain/audit"
	"github.com/procura/backend/internal/domain/contract"
	"github.com/procura/backend/internal/domain/partner"
	"github.com/procura/backend/internal/domain/shared"
)

// MockContractRepository is a mock implementation of contract.Repository
type MockContractRepository struct {
	mock.Mock
}

func (m *MockContractRepository) Create(ctx context.Context, c *contract.Contract) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockContractRepository) Update(ctx context.Context, c *contract.Contract) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockContractRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*contract.Contract, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.Contract), args.Error(1)
}

func (m *MockContractRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, contractNumber string) (*contract.Contract, error) {
	args := m.Called(ctx, tenantID, contractNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.Contract), args.Error(1)
}

func (m *MockContractRepository) FindByVendor(ctx context.Context, tenantID, vendorID uuid.UUID, filter shared.Filter) (*shared.Paginated[*contract.Contract], error) {
	args := m.Called(ctx, tenantID, vendorID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*contract.Contract]), args.Error(1)
}

func (m *MockContractRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[*contract.Contract], error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*contract.Contract]), args.Error(1)
}

func (m *MockContractRepository) FindActiveExpiringBefore(ctx context.Context, cutoff time.Time) ([]*contract.Contract, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*contract.Contract), args.Error(1)
}

func (m *MockContractRepository) ExistsByNumber(ctx context.Context, tenantID uuid.UUID, contractNumber string) (bool, error) {
	args := m.Called(ctx, tenantID, contractNumber)
	return args.Bool(0), args.Error(1)
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

type contractHarness struct {
	contracts *MockContractRepository
	vendors   *MockVendorRepository
	audits    *MockAuditRepository
	service   *ContractService
}

func newContractHarness() *contractHarness {
	h := &contractHarness{
		contracts: new(MockContractRepository),
		vendors:   new(MockVendorRepository),
		audits:    new(MockAuditRepository),
	}
	h.service = NewContractService(h.contracts, h.vendors, h.audits, zap.NewNop())
	return h
}

func activeVendor(t *testing.T, tenantID uuid.UUID) *partner.Vendor {
	t.Helper()
	vendor, err := partner.NewVendor(tenantID, "Initech Supplies Ltd", "GB123456789", "sales@initech.test")
	require.NoError(t, err)
	require.NoError(t, vendor.SubmitForReview())
	require.NoError(t, vendor.Approve())
	return vendor
}

func draftContract(t *testing.T, tenantID, vendorID uuid.UUID) *contract.Contract {
	t.Helper()
	c, err := contract.NewContract(tenantID, "CTR-2026-001", vendorID, "Annual supply agreement",
		time.Now().AddDate(0, 0, -1), time.Now().AddDate(1, 0, 0), "")
	require.NoError(t, err)
	return c
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, code, domainErr.Code)
}

func TestContractService_Create(t *testing.T) {
	h := newContractHarness()
	tenantID := uuid.New()
	actorID := uuid.New()
	vendor := activeVendor(t, tenantID)
	docKey := shared.NewStorageKey(tenantID, ".pdf")

	h.vendors.On("FindByID", mock.Anything, vendor.ID).Return(vendor, nil)
	h.contracts.On("ExistsByNumber", mock.Anything, tenantID, "CTR-2026-014").Return(false, nil)
	h.contracts.On("Create", mock.Anything, mock.MatchedBy(func(c *contract.Contract) bool {
		return c.TenantID == tenantID && c.ContractNumber == "CTR-2026-014" &&
			c.Status == contract.StatusDraft && c.DocumentKey == docKey
	})).Return(nil)
	h.audits.On("Create", mock.Anything, mock.MatchedBy(func(e *audit.Entry) bool {
		return e.Action == "CREATE" && e.EntityType == "CONTRACT" && e.ActorID == actorID
	})).Return(nil)

	resp, err := h.service.Create(context.Background(), tenantID, actorID, CreateContractRequest{
		ContractNumber: "ctr-2026-014",
		VendorID:       vendor.ID,
		Title:          "Annual supply agreement",
		DocumentKey:    docKey,
		EffectiveDate:  time.Now(),
		ExpiryDate:     time.Now().AddDate(1, 0, 0),
	})

	require.NoError(t, err)
	assert.Equal(t, "CTR-2026-014", resp.ContractNumber)
	assert.Equal(t, contract.StatusDraft, resp.Status)
	h.contracts.AssertExpectations(t)
	h.audits.AssertExpectations(t)
}

func TestContractService_Create_Rejections(t *testing.T) {
	tenantID := uuid.New()
	vendor := activeVendor(t, tenantID)

	t.Run("duplicate number", func(t *testing.T) {
		h := newContractHarness()
		h.vendors.On("FindByID", mock.Anything, vendor.ID).Return(vendor, nil)
		h.contracts.On("ExistsByNumber", mock.Anything, tenantID, "CTR-1").Return(true, nil)

		_, err := h.service.Create(context.Background(), tenantID, uuid.New(), CreateContractRequest{
			ContractNumber: "ctr-1",
			VendorID:       vendor.ID,
			Title:          "x",
			EffectiveDate:  time.Now(),
			ExpiryDate:     time.Now().AddDate(1, 0, 0),
		})
		assertDomainCode(t, err, "ALREADY_EXISTS")
	})

	t.Run("foreign document key", func(t *testing.T) {
		h := newContractHarness()
		h.vendors.On("FindByID", mock.Anything, vendor.ID).Return(vendor, nil)

		_, err := h.service.Create(context.Background(), tenantID, uuid.New(), CreateContractRequest{
			ContractNumber: "CTR-2",
			VendorID:       vendor.ID,
			Title:          "x",
			DocumentKey:    shared.NewStorageKey(uuid.New(), ".pdf"),
			EffectiveDate:  time.Now(),
			ExpiryDate:     time.Now().AddDate(1, 0, 0),
		})
		assertDomainCode(t, err, "INVALID_DOCUMENT_KEY")
	})

	t.Run("vendor from another tenant is hidden", func(t *testing.T) {
		h := newContractHarness()
		foreign := activeVendor(t, uuid.New())
		h.vendors.On("FindByID", mock.Anything, foreign.ID).Return(foreign, nil)

		_, err := h.service.Create(context.Background(), tenantID, uuid.New(), CreateContractRequest{
			ContractNumber: "CTR-3",
			VendorID:       foreign.ID,
			Title:          "x",
			EffectiveDate:  time.Now(),
			ExpiryDate:     time.Now().AddDate(1, 0, 0),
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestContractService_Activate(t *testing.T) {
	h := newContractHarness()
	tenantID := uuid.New()
	vendor := activeVendor(t, tenantID)
	c := draftContract(t, tenantID, vendor.ID)

	h.contracts.On("FindByID", mock.Anything, tenantID, c.ID).Return(c, nil)
	h.vendors.On("FindByID", mock.Anything, vendor.ID).Return(vendor, nil)
	h.contracts.On("Update", mock.Anything, mock.MatchedBy(func(c *contract.Contract) bool {
		return c.Status == contract.StatusActive
	})).Return(nil)
	h.audits.On("Create", mock.Anything, mock.MatchedBy(func(e *audit.Entry) bool {
		return e.Action == "ACTIVATE"
	})).Return(nil)

	resp, err := h.service.Activate(context.Background(), tenantID, uuid.New(), c.ID)

	require.NoError(t, err)
	assert.Equal(t, contract.StatusActive, resp.Status)
	h.contracts.AssertExpectations(t)
}

func TestContractService_Activate_BlockedVendor(t *testing.T) {
	h := newContractHarness()
	tenantID := uuid.New()
	vendor := activeVendor(t, tenantID)
	c := draftContract(t, tenantID, vendor.ID)
	require.NoError(t, vendor.Block("sanctions screening hit"))

	h.contracts.On("FindByID", mock.Anything, tenantID, c.ID).Return(c, nil)
	h.vendors.On("FindByID", mock.Anything, vendor.ID).Return(vendor, nil)

	_, err := h.service.Activate(context.Background(), tenantID, uuid.New(), c.ID)

	assertDomainCode(t, err, "VENDOR_NOT_ACTIVE")
	assert.Equal(t, contract.StatusDraft, c.Status)
	h.contracts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestContractService_Terminate(t *testing.T) {
	h := newContractHarness()
	tenantID := uuid.New()
	vendor := activeVendor(t, tenantID)
	c := draftContract(t, tenantID, vendor.ID)
	require.NoError(t, c.Activate())

	h.contracts.On("FindByID", mock.Anything, tenantID, c.ID).Return(c, nil)
	h.contracts.On("Update", mock.Anything, mock.MatchedBy(func(c *contract.Contract) bool {
		return c.Status == contract.StatusTerminated && c.TerminationReason == "vendor acquired by competitor"
	})).Return(nil)
	h.audits.On("Create", mock.Anything, mock.MatchedBy(func(e *audit.Entry) bool {
		return e.Action == "TERMINATE"
	})).Return(nil)

	resp, err := h.service.Terminate(context.Background(), tenantID, uuid.New(), c.ID, TerminateContractRequest{
		Reason: "vendor acquired by competitor",
	})

	require.NoError(t, err)
	assert.Equal(t, contract.StatusTerminated, resp.Status)
	require.NotNil(t, resp.TerminatedAt)
}

func TestContractService_Terminate_DraftRejected(t *testing.T) {
	h := newContractHarness()
	tenantID := uuid.New()
	c := draftContract(t, tenantID, uuid.New())

	h.contracts.On("FindByID", mock.Anything, tenantID, c.ID).Return(c, nil)

	_, err := h.service.Terminate(context.Background(), tenantID, uuid.New(), c.ID, TerminateContractRequest{
		Reason: "x",
	})

	assertDomainCode(t, err, "INVALID_STATE")
	h.contracts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestContractService_Update_RescheduleDraftOnly(t *testing.T) {
	tenantID := uuid.New()

	t.Run("draft moves its dates", func(t *testing.T) {
		h := newContractHarness()
		c := draftContract(t, tenantID, uuid.New())
		newExpiry := time.Now().AddDate(2, 0, 0)

		h.contracts.On("FindByID", mock.Anything, tenantID, c.ID).Return(c, nil)
		h.contracts.On("Update", mock.Anything, mock.Anything).Return(nil)
		h.audits.On("Create", mock.Anything, mock.Anything).Return(nil)

		resp, err := h.service.Update(context.Background(), tenantID, uuid.New(), c.ID, UpdateContractRequest{
			Title:      "Annual supply agreement v2",
			ExpiryDate: &newExpiry,
		})

		require.NoError(t, err)
		assert.Equal(t, "Annual supply agreement v2", resp.Title)
		assert.True(t, resp.ExpiryDate.Equal(newExpiry))
	})

	t.Run("active contract keeps its dates", func(t *testing.T) {
		h := newContractHarness()
		c := draftContract(t, tenantID, uuid.New())
		require.NoError(t, c.Activate())
		newExpiry := time.Now().AddDate(2, 0, 0)

		h.contracts.On("FindByID", mock.Anything, tenantID, c.ID).Return(c, nil)

		_, err := h.service.Update(context.Background(), tenantID, uuid.New(), c.ID, UpdateContractRequest{
			Title:      "retitled",
			ExpiryDate: &newExpiry,
		})

		assertDomainCode(t, err, "INVALID_STATE")
		h.contracts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestContractService_ExpireOverdue(t *testing.T) {
	h := newContractHarness()
	asOf := time.Now()

	// both active, one already past expiry as seen by MarkExpired
	overdue, err := contract.NewContract(uuid.New(), "CTR-OLD", uuid.New(), "Lapsed deal",
		asOf.AddDate(-1, 0, 0), asOf.Add(-time.Hour), "")
	require.NoError(t, err)
	overdue.Status = contract.StatusActive

	fresh := draftContract(t, uuid.New(), uuid.New())
	require.NoError(t, fresh.Activate())

	h.contracts.On("FindActiveExpiringBefore", mock.Anything, asOf).
		Return([]*contract.Contract{overdue, fresh}, nil)
	h.contracts.On("Update", mock.Anything, overdue).Return(nil)
	h.audits.On("Create", mock.Anything, mock.MatchedBy(func(e *audit.Entry) bool {
		return e.Action == "EXPIRE" && e.ActorID == audit.SystemActorID
	})).Return(nil)

	expired, err := h.service.ExpireOverdue(context.Background(), asOf)

	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Equal(t, contract.StatusExpired, overdue.Status)
	assert.Equal(t, contract.StatusActive, fresh.Status)
}

func TestContractService_List_RoutesVendorFilter(t *testing.T) {
	h := newContractHarness()
	tenantID := uuid.New()
	vendorID := uuid.New()
	c := draftContract(t, tenantID, vendorID)

	page := shared.NewPaginated([]*contract.Contract{c}, 1, 1, 20)
	h.contracts.On("FindByVendor", mock.Anything, tenantID, vendorID, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Filters["status"] == "DRAFT"
	})).Return(&page, nil)

	result, err := h.service.List(context.Background(), tenantID, ContractListFilter{
		Status:   "DRAFT",
		VendorID: vendorID.String(),
	})

	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	h.contracts.AssertNotCalled(t, "FindAll", mock.Anything, mock.Anything, mock.Anything)
}
