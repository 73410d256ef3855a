package partner

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/procura/backend/internal/domain/audit"
	"github.com/procura/backend/internal/domain/partner"
	"github.com/procura/backend/internal/domain/shared"
)

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

func newVendorService(vendors *MockVendorRepository, audits *MockAuditRepository) *VendorService {
	return NewVendorService(vendors, audits, zap.NewNop())
}

func pendingVendor(t *testing.T, tenantID uuid.UUID) *partner.Vendor {
	t.Helper()
	vendor, err := partner.NewVendor(tenantID, "Acme Supplies GmbH", "DE811223344", "sales@acme-supplies.test")
	require.NoError(t, err)
	require.NoError(t, vendor.SubmitForReview())
	return vendor
}

func TestVendorService_Create(t *testing.T) {
	vendors := new(MockVendorRepository)
	audits := new(MockAuditRepository)
	tenantID := uuid.New()
	actorID := uuid.New()

	vendors.On("ExistsByTaxID", mock.Anything, tenantID, "DE811223344").Return(false, nil)
	vendors.On("ExistsByEmail", mock.Anything, tenantID, "sales@acme-supplies.test").Return(false, nil)
	vendors.On("Create", mock.Anything, mock.AnythingOfType("*partner.Vendor")).Return(nil)
	audits.On("Create", mock.Anything, mock.MatchedBy(func(e *audit.Entry) bool {
		return e.Action == "CREATE" && e.EntityType == "VENDOR"
	})).Return(nil)

	service := newVendorService(vendors, audits)

	terms := 45
	resp, err := service.Create(context.Background(), tenantID, actorID, CreateVendorRequest{
		LegalName:    "Acme Supplies GmbH",
		TaxID:        "DE811223344",
		Email:        "sales@acme-supplies.test",
		ContactName:  "Jo Fischer",
		PaymentTerms: &terms,
	})

	require.NoError(t, err)
	assert.Equal(t, partner.VendorStatusDraft, resp.Status)
	assert.Equal(t, 45, resp.PaymentTerms)
	assert.Equal(t, 0, resp.RiskScore)
	audits.AssertExpectations(t)
}

func TestVendorService_Create_DuplicateTaxID(t *testing.T) {
	vendors := new(MockVendorRepository)
	audits := new(MockAuditRepository)
	tenantID := uuid.New()

	vendors.On("ExistsByTaxID", mock.Anything, tenantID, "DE811223344").Return(true, nil)

	service := newVendorService(vendors, audits)

	_, err := service.Create(context.Background(), tenantID, uuid.New(), CreateVendorRequest{
		LegalName: "Acme Supplies GmbH",
		TaxID:     "DE811223344",
		Email:     "sales@acme-supplies.test",
	})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
	vendors.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestVendorService_Create_DuplicateEmail(t *testing.T) {
	vendors := new(MockVendorRepository)
	audits := new(MockAuditRepository)
	tenantID := uuid.New()

	vendors.On("ExistsByTaxID", mock.Anything, tenantID, "DE811223344").Return(false, nil)
	vendors.On("ExistsByEmail", mock.Anything, tenantID, "sales@acme-supplies.test").Return(true, nil)

	service := newVendorService(vendors, audits)

	_, err := service.Create(context.Background(), tenantID, uuid.New(), CreateVendorRequest{
		LegalName: "Acme Supplies GmbH",
		TaxID:     "DE811223344",
		Email:     "sales@acme-supplies.test",
	})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
}

func TestVendorService_Lifecycle(t *testing.T) {
	tenantID := uuid.New()
	actorID := uuid.New()

	t.Run("submit then approve", func(t *testing.T) {
		vendors := new(MockVendorRepository)
		audits := new(MockAuditRepository)
		vendor, err := partner.NewVendor(tenantID, "Acme Supplies GmbH", "DE811223344", "sales@acme-supplies.test")
		require.NoError(t, err)

		vendors.On("FindByID", mock.Anything, vendor.ID).Return(vendor, nil)
		vendors.On("Update", mock.Anything, vendor).Return(nil)
		audits.On("Create", mock.Anything, mock.AnythingOfType("*audit.Entry")).Return(nil)

		service := newVendorService(vendors, audits)

		resp, err := service.SubmitForReview(context.Background(), tenantID, actorID, vendor.ID)
		require.NoError(t, err)
		assert.Equal(t, partner.VendorStatusPendingReview, resp.Status)

		resp, err = service.Approve(context.Background(), tenantID, actorID, vendor.ID)
		require.NoError(t, err)
		assert.Equal(t, partner.VendorStatusActive, resp.Status)
	})

	t.Run("block requires active", func(t *testing.T) {
		vendors := new(MockVendorRepository)
		audits := new(MockAuditRepository)
		vendor := pendingVendor(t, tenantID)

		vendors.On("FindByID", mock.Anything, vendor.ID).Return(vendor, nil)

		service := newVendorService(vendors, audits)

		_, err := service.Block(context.Background(), tenantID, actorID, vendor.ID, BlockVendorRequest{Reason: "sanctions hit"})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATUS_TRANSITION", domainErr.Code)
		vendors.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("block and unblock", func(t *testing.T) {
		vendors := new(MockVendorRepository)
		audits := new(MockAuditRepository)
		vendor := pendingVendor(t, tenantID)
		require.NoError(t, vendor.Approve())

		vendors.On("FindByID", mock.Anything, vendor.ID).Return(vendor, nil)
		vendors.On("Update", mock.Anything, vendor).Return(nil)
		audits.On("Create", mock.Anything, mock.AnythingOfType("*audit.Entry")).Return(nil)

		service := newVendorService(vendors, audits)

		resp, err := service.Block(context.Background(), tenantID, actorID, vendor.ID, BlockVendorRequest{Reason: "repeated quality failures"})
		require.NoError(t, err)
		assert.Equal(t, partner.VendorStatusBlocked, resp.Status)
		assert.Equal(t, "repeated quality failures", resp.BlockedReason)

		resp, err = service.Unblock(context.Background(), tenantID, actorID, vendor.ID)
		require.NoError(t, err)
		assert.Equal(t, partner.VendorStatusActive, resp.Status)
		assert.Empty(t, resp.BlockedReason)
	})
}

func TestVendorService_OtherTenantHidden(t *testing.T) {
	vendors := new(MockVendorRepository)
	audits := new(MockAuditRepository)
	vendor := pendingVendor(t, uuid.New())

	vendors.On("FindByID", mock.Anything, vendor.ID).Return(vendor, nil)

	service := newVendorService(vendors, audits)

	_, err := service.GetByID(context.Background(), uuid.New(), vendor.ID)

	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestVendorService_SetRiskScore(t *testing.T) {
	vendors := new(MockVendorRepository)
	audits := new(MockAuditRepository)
	tenantID := uuid.New()
	vendor := pendingVendor(t, tenantID)

	vendors.On("FindByID", mock.Anything, vendor.ID).Return(vendor, nil)
	vendors.On("Update", mock.Anything, vendor).Return(nil)
	audits.On("Create", mock.Anything, mock.MatchedBy(func(e *audit.Entry) bool {
		return e.Action == "RISK_REFRESH" && e.ActorID == audit.SystemActorID
	})).Return(nil)

	service := newVendorService(vendors, audits)

	resp, err := service.SetRiskScore(context.Background(), tenantID, audit.SystemActorID, vendor.ID, 80)

	require.NoError(t, err)
	assert.Equal(t, 80, resp.RiskScore)
	audits.AssertExpectations(t)

	_, err = service.SetRiskScore(context.Background(), tenantID, audit.SystemActorID, vendor.ID, 130)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_RISK_SCORE", domainErr.Code)
}

func TestVendorService_Delete(t *testing.T) {
	vendors := new(MockVendorRepository)
	audits := new(MockAuditRepository)
	tenantID := uuid.New()
	vendor := pendingVendor(t, tenantID)

	vendors.On("FindByID", mock.Anything, vendor.ID).Return(vendor, nil)
	vendors.On("Delete", mock.Anything, vendor.ID).Return(nil)
	audits.On("Create", mock.Anything, mock.MatchedBy(func(e *audit.Entry) bool {
		return e.Action == "DELETE"
	})).Return(nil)

	service := newVendorService(vendors, audits)

	require.NoError(t, service.Delete(context.Background(), tenantID, uuid.New(), vendor.ID))
	audits.AssertExpectations(t)
}

func TestVendorService_List_MapsStatusFilter(t *testing.T) {
	vendors := new(MockVendorRepository)
	audits := new(MockAuditRepository)
	tenantID := uuid.New()
	vendor := pendingVendor(t, tenantID)

	vendors.On("FindAll", mock.Anything, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Page == 1 && f.PageSize == 20 && f.Filters["status"] == "PENDING_REVIEW"
	})).Return([]*partner.Vendor{vendor}, int64(1), nil)

	service := newVendorService(vendors, audits)

	items, total, err := service.List(context.Background(), tenantID, VendorListFilter{Status: "PENDING_REVIEW"})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "Acme Supplies GmbH", items[0].LegalName)
}
