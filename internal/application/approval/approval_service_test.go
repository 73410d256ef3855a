package approval

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	budgetapp "github.com/procura/backend/internal/application/budget"
	"github.com/procura/backend/internal/domain/approval"
	"github.com/procura/backend/internal/domain/audit"
	"github.com/procura/backend/internal/domain/budget"
	"github.com/procura/backend/internal/domain/identity"
	"github.com/procura/backend/internal/domain/procurement"
	"github.com/procura/backend/internal/domain/shared"
)

// MockApprovalRepository is a mock implementation of approval.Repository
type MockApprovalRepository struct {
	mock.Mock
}

func (m *MockApprovalRepository) Create(ctx context.Context, a *approval.Approval) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockApprovalRepository) CreateBatch(ctx context.Context, chain []*approval.Approval) error {
	args := m.Called(ctx, chain)
	return args.Error(0)
}

func (m *MockApprovalRepository) Update(ctx context.Context, a *approval.Approval) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockApprovalRepository) FindByID(ctx context.Context, id uuid.UUID) (*approval.Approval, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*approval.Approval), args.Error(1)
}

func (m *MockApprovalRepository) FindByEntity(ctx context.Context, entityType shared.EntityType, entityID uuid.UUID) ([]*approval.Approval, error) {
	args := m.Called(ctx, entityType, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*approval.Approval), args.Error(1)
}

func (m *MockApprovalRepository) FindPendingByApprover(ctx context.Context, tenantID, approverID uuid.UUID, filter shared.Filter) ([]*approval.Approval, int64, error) {
	args := m.Called(ctx, tenantID, approverID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*approval.Approval), args.Get(1).(int64), args.Error(2)
}

func (m *MockApprovalRepository) FindPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*approval.Approval, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*approval.Approval), args.Error(1)
}

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*identity.User, error) {
	args := m.Called(ctx, tenantID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmailGlobal(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*identity.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*identity.User, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*identity.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) FindActiveByRole(ctx context.Context, tenantID uuid.UUID, role identity.Role) ([]*identity.User, error) {
	args := m.Called(ctx, tenantID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*identity.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error) {
	args := m.Called(ctx, tenantID, email)
	return args.Bool(0), args.Error(1)
}

// MockDepartmentRepository is a mock implementation of identity.DepartmentRepository
type MockDepartmentRepository struct {
	mock.Mock
}

func (m *MockDepartmentRepository) Create(ctx context.Context, dept *identity.Department) error {
	args := m.Called(ctx, dept)
	return args.Error(0)
}

func (m *MockDepartmentRepository) Update(ctx context.Context, dept *identity.Department) error {
	args := m.Called(ctx, dept)
	return args.Error(0)
}

func (m *MockDepartmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDepartmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Department, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Department), args.Error(1)
}

func (m *MockDepartmentRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*identity.Department, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Department), args.Error(1)
}

func (m *MockDepartmentRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*identity.Department, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*identity.Department), args.Error(1)
}

func (m *MockDepartmentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*identity.Department, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*identity.Department), args.Get(1).(int64), args.Error(2)
}

func (m *MockDepartmentRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, tenantID, code)
	return args.Bool(0), args.Error(1)
}

// MockPurchaseRequestRepository is a mock implementation of procurement.PurchaseRequestRepository
type MockPurchaseRequestRepository struct {
	mock.Mock
}

func (m *MockPurchaseRequestRepository) Create(ctx context.Context, pr *procurement.PurchaseRequest) error {
	args := m.Called(ctx, pr)
	return args.Error(0)
}

func (m *MockPurchaseRequestRepository) Update(ctx context.Context, pr *procurement.PurchaseRequest) error {
	args := m.Called(ctx, pr)
	return args.Error(0)
}

func (m *MockPurchaseRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPurchaseRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.PurchaseRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.PurchaseRequest), args.Error(1)
}

func (m *MockPurchaseRequestRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, prNumber string) (*procurement.PurchaseRequest, error) {
	args := m.Called(ctx, tenantID, prNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.PurchaseRequest), args.Error(1)
}

func (m *MockPurchaseRequestRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*procurement.PurchaseRequest, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*procurement.PurchaseRequest), args.Get(1).(int64), args.Error(2)
}

func (m *MockPurchaseRequestRepository) FindByRequester(ctx context.Context, tenantID, requesterID uuid.UUID, filter shared.Filter) ([]*procurement.PurchaseRequest, int64, error) {
	args := m.Called(ctx, tenantID, requesterID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*procurement.PurchaseRequest), args.Get(1).(int64), args.Error(2)
}

func (m *MockPurchaseRequestRepository) GeneratePrNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
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

func pendingRequest(t *testing.T, tenantID, requesterID, departmentID uuid.UUID, unitPriceCents int64) *procurement.PurchaseRequest {
	t.Helper()
	pr, err := procurement.NewPurchaseRequest(tenantID, "PR-2026-000001", requesterID, departmentID, "Standing desks")
	require.NoError(t, err)
	_, err = pr.AddLine("Standing desk", 1, unitPriceCents)
	require.NoError(t, err)
	require.NoError(t, pr.Submit())
	return pr
}

func decideScope(approvalRepo *MockApprovalRepository, prRepo *MockPurchaseRequestRepository, reservationRepo *MockReservationRepository, auditRepo *MockAuditRepository) budgetapp.TransactionScope {
	return budgetapp.NewNoOpTransactionScope(nil, reservationRepo, prRepo, nil, nil, approvalRepo, nil, nil, auditRepo)
}

func TestChainBuilder_SmallAmountSingleStep(t *testing.T) {
	userRepo := new(MockUserRepository)
	deptRepo := new(MockDepartmentRepository)

	tenantID := uuid.New()
	requesterID := uuid.New()
	managerID := uuid.New()

	dept, err := identity.NewDepartment(tenantID, "ENG", "Engineering")
	require.NoError(t, err)
	dept.SetManager(&managerID)

	manager, err := identity.NewActiveUser(tenantID, "manager@acme.test", "Passw0rd123", identity.RoleManager)
	require.NoError(t, err)
	manager.ID = managerID

	pr := pendingRequest(t, tenantID, requesterID, dept.ID, 100_000) // 1,000.00

	deptRepo.On("FindByID", mock.Anything, dept.ID).Return(dept, nil)
	userRepo.On("FindByID", mock.Anything, managerID).Return(manager, nil)

	builder := NewChainBuilder(userRepo, deptRepo, approval.DefaultChainPolicy())
	chain, err := builder.BuildForRequest(context.Background(), pr)

	require.NoError(t, err)
	require.Len(t, chain, 1)
	assert.Equal(t, 1, chain[0].ApprovalLevel)
	assert.Equal(t, managerID, chain[0].ApproverID)
	assert.Equal(t, shared.EntityTypePR, chain[0].EntityType)
	assert.Equal(t, pr.ID, chain[0].EntityID)
}

func TestChainBuilder_LargeAmountFullChain(t *testing.T) {
	userRepo := new(MockUserRepository)
	deptRepo := new(MockDepartmentRepository)

	tenantID := uuid.New()
	requesterID := uuid.New()
	managerID := uuid.New()

	dept, err := identity.NewDepartment(tenantID, "OPS", "Operations")
	require.NoError(t, err)
	dept.SetManager(&managerID)

	manager, err := identity.NewActiveUser(tenantID, "manager@acme.test", "Passw0rd123", identity.RoleManager)
	require.NoError(t, err)
	manager.ID = managerID

	financeHead, err := identity.NewActiveUser(tenantID, "fin.head@acme.test", "Passw0rd123", identity.RoleFinanceHead)
	require.NoError(t, err)
	cfo, err := identity.NewActiveUser(tenantID, "cfo@acme.test", "Passw0rd123", identity.RoleCFO)
	require.NoError(t, err)

	// 250,000.00 crosses both thresholds
	pr := pendingRequest(t, tenantID, requesterID, dept.ID, 25_000_000)

	deptRepo.On("FindByID", mock.Anything, dept.ID).Return(dept, nil)
	userRepo.On("FindByID", mock.Anything, managerID).Return(manager, nil)
	userRepo.On("FindActiveByRole", mock.Anything, tenantID, identity.RoleFinanceHead).Return([]*identity.User{financeHead}, nil)
	userRepo.On("FindActiveByRole", mock.Anything, tenantID, identity.RoleCFO).Return([]*identity.User{cfo}, nil)

	builder := NewChainBuilder(userRepo, deptRepo, approval.DefaultChainPolicy())
	chain, err := builder.BuildForRequest(context.Background(), pr)

	require.NoError(t, err)
	require.Len(t, chain, 3)
	assert.Equal(t, managerID, chain[0].ApproverID)
	assert.Equal(t, financeHead.ID, chain[1].ApproverID)
	assert.Equal(t, cfo.ID, chain[2].ApproverID)
	assert.Equal(t, []int{1, 2, 3}, []int{chain[0].ApprovalLevel, chain[1].ApprovalLevel, chain[2].ApprovalLevel})
}

func TestChainBuilder_NoManagerAssignedFails(t *testing.T) {
	userRepo := new(MockUserRepository)
	deptRepo := new(MockDepartmentRepository)

	tenantID := uuid.New()
	requesterID := uuid.New()

	dept, err := identity.NewDepartment(tenantID, "HR", "Human Resources")
	require.NoError(t, err)
	// department has no manager assigned

	pr := pendingRequest(t, tenantID, requesterID, dept.ID, 50_000)

	deptRepo.On("FindByID", mock.Anything, dept.ID).Return(dept, nil)

	builder := NewChainBuilder(userRepo, deptRepo, approval.DefaultChainPolicy())
	_, err = builder.BuildForRequest(context.Background(), pr)

	assert.ErrorIs(t, err, approval.ErrNoApprover)
	// the manager pool is no substitute for an unstaffed department
	userRepo.AssertNotCalled(t, "FindActiveByRole", mock.Anything, mock.Anything, mock.Anything)
}

func TestChainBuilder_InactiveManagerFails(t *testing.T) {
	userRepo := new(MockUserRepository)
	deptRepo := new(MockDepartmentRepository)

	tenantID := uuid.New()
	requesterID := uuid.New()
	managerID := uuid.New()

	dept, err := identity.NewDepartment(tenantID, "HR", "Human Resources")
	require.NoError(t, err)
	dept.SetManager(&managerID)

	manager, err := identity.NewUser(tenantID, "manager@acme.test", "Passw0rd123", identity.RoleManager)
	require.NoError(t, err)
	manager.ID = managerID

	pr := pendingRequest(t, tenantID, requesterID, dept.ID, 50_000)

	deptRepo.On("FindByID", mock.Anything, dept.ID).Return(dept, nil)
	userRepo.On("FindByID", mock.Anything, managerID).Return(manager, nil)

	builder := NewChainBuilder(userRepo, deptRepo, approval.DefaultChainPolicy())
	_, err = builder.BuildForRequest(context.Background(), pr)

	assert.ErrorIs(t, err, approval.ErrNoApprover)
}

func TestChainBuilder_RequesterManagesOwnDepartment(t *testing.T) {
	userRepo := new(MockUserRepository)
	deptRepo := new(MockDepartmentRepository)

	tenantID := uuid.New()
	requesterID := uuid.New()

	dept, err := identity.NewDepartment(tenantID, "FIN", "Finance")
	require.NoError(t, err)
	dept.SetManager(&requesterID) // requester manages their own department

	alt1, err := identity.NewActiveUser(tenantID, "zoe.manager@acme.test", "Passw0rd123", identity.RoleManager)
	require.NoError(t, err)
	alt2, err := identity.NewActiveUser(tenantID, "adam.manager@acme.test", "Passw0rd123", identity.RoleManager)
	require.NoError(t, err)

	pr := pendingRequest(t, tenantID, requesterID, dept.ID, 50_000)

	deptRepo.On("FindByID", mock.Anything, dept.ID).Return(dept, nil)
	userRepo.On("FindActiveByRole", mock.Anything, tenantID, identity.RoleManager).Return([]*identity.User{alt1, alt2}, nil)

	builder := NewChainBuilder(userRepo, deptRepo, approval.DefaultChainPolicy())
	chain, err := builder.BuildForRequest(context.Background(), pr)

	require.NoError(t, err)
	require.Len(t, chain, 1)
	// deterministic pick: lowest email wins
	assert.Equal(t, alt2.ID, chain[0].ApproverID)
}

func TestChainBuilder_NoApprover(t *testing.T) {
	userRepo := new(MockUserRepository)
	deptRepo := new(MockDepartmentRepository)

	tenantID := uuid.New()
	requesterID := uuid.New()

	dept, err := identity.NewDepartment(tenantID, "LAB", "Research Lab")
	require.NoError(t, err)
	dept.SetManager(&requesterID) // requester manages their own department

	pr := pendingRequest(t, tenantID, requesterID, dept.ID, 50_000)

	deptRepo.On("FindByID", mock.Anything, dept.ID).Return(dept, nil)
	userRepo.On("FindActiveByRole", mock.Anything, tenantID, identity.RoleManager).Return([]*identity.User{}, nil)

	builder := NewChainBuilder(userRepo, deptRepo, approval.DefaultChainPolicy())
	_, err = builder.BuildForRequest(context.Background(), pr)

	assert.ErrorIs(t, err, approval.ErrNoApprover)
}

func TestApprovalService_Approve_AdvancesChain(t *testing.T) {
	approvalRepo := new(MockApprovalRepository)
	prRepo := new(MockPurchaseRequestRepository)
	reservationRepo := new(MockReservationRepository)
	auditRepo := new(MockAuditRepository)
	userRepo := new(MockUserRepository)

	tenantID := uuid.New()
	requesterID := uuid.New()
	managerID := uuid.New()
	financeHeadID := uuid.New()

	pr := pendingRequest(t, tenantID, requesterID, uuid.New(), 6_000_000)

	step1, err := approval.NewApproval(tenantID, shared.EntityTypePR, pr.ID, 1, managerID)
	require.NoError(t, err)
	step2, err := approval.NewApproval(tenantID, shared.EntityTypePR, pr.ID, 2, financeHeadID)
	require.NoError(t, err)

	approvalRepo.On("FindByID", mock.Anything, step1.ID).Return(step1, nil)
	approvalRepo.On("FindByEntity", mock.Anything, shared.EntityTypePR, pr.ID).Return([]*approval.Approval{step1, step2}, nil)
	approvalRepo.On("Update", mock.Anything, step1).Return(nil)
	prRepo.On("FindByID", mock.Anything, pr.ID).Return(pr, nil)
	auditRepo.On("Create", mock.Anything, mock.AnythingOfType("*audit.Entry")).Return(nil)

	service := NewApprovalService(approvalRepo, userRepo, decideScope(approvalRepo, prRepo, reservationRepo, auditRepo))

	resp, err := service.Approve(context.Background(), tenantID, managerID, step1.ID, ApproveRequest{Comment: "within plan"})

	require.NoError(t, err)
	assert.False(t, resp.ChainComplete)
	assert.False(t, resp.ChainRejected)
	require.NotNil(t, resp.NextLevel)
	assert.Equal(t, 2, *resp.NextLevel)
	assert.Equal(t, financeHeadID, *resp.NextApproverID)
	assert.Equal(t, approval.StatusApproved, step1.Status)
	assert.Equal(t, approval.StatusPending, step2.Status)
	assert.Equal(t, procurement.PurchaseRequestStatusPending, pr.Status)
	approvalRepo.AssertNotCalled(t, "Update", mock.Anything, step2)
}

func TestApprovalService_Approve_FinalStepApprovesRequest(t *testing.T) {
	approvalRepo := new(MockApprovalRepository)
	prRepo := new(MockPurchaseRequestRepository)
	reservationRepo := new(MockReservationRepository)
	auditRepo := new(MockAuditRepository)

	tenantID := uuid.New()
	requesterID := uuid.New()
	managerID := uuid.New()

	pr := pendingRequest(t, tenantID, requesterID, uuid.New(), 100_000)

	step1, err := approval.NewApproval(tenantID, shared.EntityTypePR, pr.ID, 1, managerID)
	require.NoError(t, err)

	approvalRepo.On("FindByID", mock.Anything, step1.ID).Return(step1, nil)
	approvalRepo.On("FindByEntity", mock.Anything, shared.EntityTypePR, pr.ID).Return([]*approval.Approval{step1}, nil)
	approvalRepo.On("Update", mock.Anything, step1).Return(nil)
	prRepo.On("FindByID", mock.Anything, pr.ID).Return(pr, nil)
	prRepo.On("Update", mock.Anything, pr).Return(nil)
	auditRepo.On("Create", mock.Anything, mock.AnythingOfType("*audit.Entry")).Return(nil)

	service := NewApprovalService(approvalRepo, new(MockUserRepository), decideScope(approvalRepo, prRepo, reservationRepo, auditRepo))

	resp, err := service.Approve(context.Background(), tenantID, managerID, step1.ID, ApproveRequest{})

	require.NoError(t, err)
	assert.True(t, resp.ChainComplete)
	assert.True(t, pr.IsApproved())
	prRepo.AssertExpectations(t)
}

func TestApprovalService_Reject_CascadesAndReleasesHold(t *testing.T) {
	approvalRepo := new(MockApprovalRepository)
	prRepo := new(MockPurchaseRequestRepository)
	reservationRepo := new(MockReservationRepository)
	auditRepo := new(MockAuditRepository)

	tenantID := uuid.New()
	requesterID := uuid.New()
	managerID := uuid.New()
	financeHeadID := uuid.New()

	pr := pendingRequest(t, tenantID, requesterID, uuid.New(), 6_000_000)

	step1, err := approval.NewApproval(tenantID, shared.EntityTypePR, pr.ID, 1, managerID)
	require.NoError(t, err)
	step2, err := approval.NewApproval(tenantID, shared.EntityTypePR, pr.ID, 2, financeHeadID)
	require.NoError(t, err)

	reservation, err := budget.NewBudgetReservation(tenantID, uuid.New(), shared.EntityTypePR, pr.ID, pr.TotalCents)
	require.NoError(t, err)

	approvalRepo.On("FindByID", mock.Anything, step1.ID).Return(step1, nil)
	approvalRepo.On("FindByEntity", mock.Anything, shared.EntityTypePR, pr.ID).Return([]*approval.Approval{step1, step2}, nil)
	approvalRepo.On("Update", mock.Anything, step1).Return(nil)
	approvalRepo.On("Update", mock.Anything, step2).Return(nil)
	prRepo.On("FindByID", mock.Anything, pr.ID).Return(pr, nil)
	prRepo.On("Update", mock.Anything, pr).Return(nil)
	reservationRepo.On("FindByEntity", mock.Anything, shared.EntityTypePR, pr.ID).Return(reservation, nil)
	reservationRepo.On("Update", mock.Anything, reservation).Return(nil)
	auditRepo.On("Create", mock.Anything, mock.AnythingOfType("*audit.Entry")).Return(nil)

	service := NewApprovalService(approvalRepo, new(MockUserRepository), decideScope(approvalRepo, prRepo, reservationRepo, auditRepo))

	resp, err := service.Reject(context.Background(), tenantID, managerID, step1.ID, RejectRequest{Comment: "no budget line"})

	require.NoError(t, err)
	assert.True(t, resp.ChainRejected)
	assert.Equal(t, approval.StatusRejected, step1.Status)
	assert.Equal(t, approval.StatusCancelled, step2.Status)
	assert.Equal(t, procurement.PurchaseRequestStatusRejected, pr.Status)
	assert.Equal(t, "no budget line", pr.RejectionReason)
	assert.Equal(t, budget.ReservationStatusReleased, reservation.Status)
}

func TestApprovalService_Decide_OutOfTurn(t *testing.T) {
	approvalRepo := new(MockApprovalRepository)
	prRepo := new(MockPurchaseRequestRepository)

	tenantID := uuid.New()
	pr := pendingRequest(t, tenantID, uuid.New(), uuid.New(), 6_000_000)

	step1, err := approval.NewApproval(tenantID, shared.EntityTypePR, pr.ID, 1, uuid.New())
	require.NoError(t, err)
	step2, err := approval.NewApproval(tenantID, shared.EntityTypePR, pr.ID, 2, uuid.New())
	require.NoError(t, err)

	// finance head tries to decide level 2 while level 1 is still open
	approvalRepo.On("FindByID", mock.Anything, step2.ID).Return(step2, nil)
	approvalRepo.On("FindByEntity", mock.Anything, shared.EntityTypePR, pr.ID).Return([]*approval.Approval{step1, step2}, nil)

	service := NewApprovalService(approvalRepo, new(MockUserRepository), decideScope(approvalRepo, prRepo, new(MockReservationRepository), new(MockAuditRepository)))

	_, err = service.Approve(context.Background(), tenantID, step2.ApproverID, step2.ID, ApproveRequest{})

	assert.ErrorIs(t, err, approval.ErrNotYourTurn)
}

func TestApprovalService_Decide_WrongApprover(t *testing.T) {
	approvalRepo := new(MockApprovalRepository)
	prRepo := new(MockPurchaseRequestRepository)

	tenantID := uuid.New()
	pr := pendingRequest(t, tenantID, uuid.New(), uuid.New(), 100_000)

	step1, err := approval.NewApproval(tenantID, shared.EntityTypePR, pr.ID, 1, uuid.New())
	require.NoError(t, err)

	approvalRepo.On("FindByID", mock.Anything, step1.ID).Return(step1, nil)
	approvalRepo.On("FindByEntity", mock.Anything, shared.EntityTypePR, pr.ID).Return([]*approval.Approval{step1}, nil)
	prRepo.On("FindByID", mock.Anything, pr.ID).Return(pr, nil)

	service := NewApprovalService(approvalRepo, new(MockUserRepository), decideScope(approvalRepo, prRepo, new(MockReservationRepository), new(MockAuditRepository)))

	_, err = service.Approve(context.Background(), tenantID, uuid.New(), step1.ID, ApproveRequest{})

	assert.ErrorIs(t, err, approval.ErrNotYourTurn)
}

func TestApprovalService_Decide_SelfApproval(t *testing.T) {
	approvalRepo := new(MockApprovalRepository)
	prRepo := new(MockPurchaseRequestRepository)

	tenantID := uuid.New()
	requesterID := uuid.New()
	pr := pendingRequest(t, tenantID, requesterID, uuid.New(), 100_000)

	// chain accidentally routed back to the requester
	step1, err := approval.NewApproval(tenantID, shared.EntityTypePR, pr.ID, 1, requesterID)
	require.NoError(t, err)

	approvalRepo.On("FindByID", mock.Anything, step1.ID).Return(step1, nil)
	approvalRepo.On("FindByEntity", mock.Anything, shared.EntityTypePR, pr.ID).Return([]*approval.Approval{step1}, nil)
	prRepo.On("FindByID", mock.Anything, pr.ID).Return(pr, nil)

	service := NewApprovalService(approvalRepo, new(MockUserRepository), decideScope(approvalRepo, prRepo, new(MockReservationRepository), new(MockAuditRepository)))

	_, err = service.Approve(context.Background(), tenantID, requesterID, step1.ID, ApproveRequest{})

	assert.ErrorIs(t, err, approval.ErrSelfApproval)
	assert.Equal(t, approval.StatusPending, step1.Status)
}

func TestApprovalService_ListPending_ResolvesApproverNames(t *testing.T) {
	approvalRepo := new(MockApprovalRepository)
	userRepo := new(MockUserRepository)

	tenantID := uuid.New()
	approverID := uuid.New()

	approver, err := identity.NewActiveUser(tenantID, "manager@acme.test", "Passw0rd123", identity.RoleManager)
	require.NoError(t, err)
	approver.ID = approverID
	require.NoError(t, approver.SetDisplayName("Dana Reyes"))

	step, err := approval.NewApproval(tenantID, shared.EntityTypePR, uuid.New(), 1, approverID)
	require.NoError(t, err)

	approvalRepo.On("FindPendingByApprover", mock.Anything, tenantID, approverID, mock.AnythingOfType("shared.Filter")).
		Return([]*approval.Approval{step}, int64(1), nil)
	userRepo.On("FindByIDs", mock.Anything, []uuid.UUID{approverID}).Return([]*identity.User{approver}, nil)

	service := NewApprovalService(approvalRepo, userRepo, decideScope(approvalRepo, new(MockPurchaseRequestRepository), new(MockReservationRepository), new(MockAuditRepository)))

	responses, total, err := service.ListPending(context.Background(), tenantID, approverID, PendingListFilter{})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, responses, 1)
	assert.Equal(t, "Dana Reyes", responses[0].ApproverName)
	assert.Equal(t, approval.StatusPending, responses[0].Status)
}
