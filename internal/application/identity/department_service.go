package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/procura/backend/internal/domain/identity"
	"github.com/procura/backend/internal/domain/shared"
)

// DepartmentService handles department management. Department codes are
// unique per tenant and immutable once created
type DepartmentService struct {
	deptRepo identity.DepartmentRepository
	userRepo identity.UserRepository
	logger   *zap.Logger
}

// NewDepartmentService creates a new DepartmentService
func NewDepartmentService(
	deptRepo identity.DepartmentRepository,
	userRepo identity.UserRepository,
	logger *zap.Logger,
) *DepartmentService {
	return &DepartmentService{
		deptRepo: deptRepo,
		userRepo: userRepo,
		logger:   logger,
	}
}

// Create registers a new department
func (s *DepartmentService) Create(ctx context.Context, tenantID uuid.UUID, req CreateDepartmentRequest) (*DepartmentResponse, error) {
	// codes are stored uppercased, so the uniqueness check must match
	code := strings.ToUpper(strings.TrimSpace(req.Code))

	exists, err := s.deptRepo.ExistsByCode(ctx, tenantID, code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A department with this code already exists")
	}

	dept, err := identity.NewDepartment(tenantID, code, req.Name)
	if err != nil {
		return nil, err
	}
	dept.Description = req.Description

	if req.ParentID != nil {
		if err := s.checkParent(ctx, tenantID, dept.ID, *req.ParentID); err != nil {
			return nil, err
		}
		if err := dept.SetParent(req.ParentID); err != nil {
			return nil, err
		}
	}
	if req.ManagerID != nil {
		if err := s.checkManager(ctx, tenantID, *req.ManagerID); err != nil {
			return nil, err
		}
		dept.SetManager(req.ManagerID)
	}

	if err := s.deptRepo.Create(ctx, dept); err != nil {
		return nil, err
	}

	s.logger.Info("department created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("department_id", dept.ID.String()),
		zap.String("code", dept.Code))

	resp := ToDepartmentResponse(dept)
	return &resp, nil
}

// Update modifies a department's name, description, parent, manager or status
func (s *DepartmentService) Update(ctx context.Context, tenantID, deptID uuid.UUID, req UpdateDepartmentRequest) (*DepartmentResponse, error) {
	dept, err := s.findTenantDepartment(ctx, tenantID, deptID)
	if err != nil {
		return nil, err
	}

	if err := dept.Update(req.Name, req.Description); err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		if err := s.checkParent(ctx, tenantID, dept.ID, *req.ParentID); err != nil {
			return nil, err
		}
	}
	if err := dept.SetParent(req.ParentID); err != nil {
		return nil, err
	}

	if req.ManagerID != nil {
		if err := s.checkManager(ctx, tenantID, *req.ManagerID); err != nil {
			return nil, err
		}
	}
	dept.SetManager(req.ManagerID)

	switch req.Status {
	case "active":
		if !dept.IsActive() {
			if err := dept.Activate(); err != nil {
				return nil, err
			}
		}
	case "inactive":
		if dept.IsActive() {
			if err := dept.Deactivate(); err != nil {
				return nil, err
			}
		}
	}

	if err := s.deptRepo.Update(ctx, dept); err != nil {
		return nil, err
	}

	resp := ToDepartmentResponse(dept)
	return &resp, nil
}

// GetByID retrieves a department by ID
func (s *DepartmentService) GetByID(ctx context.Context, tenantID, deptID uuid.UUID) (*DepartmentResponse, error) {
	dept, err := s.findTenantDepartment(ctx, tenantID, deptID)
	if err != nil {
		return nil, err
	}
	resp := ToDepartmentResponse(dept)
	return &resp, nil
}

// List retrieves departments with filtering and pagination
func (s *DepartmentService) List(ctx context.Context, tenantID uuid.UUID, filter DepartmentListFilter) ([]DepartmentResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]any),
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	depts, total, err := s.deptRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]DepartmentResponse, 0, len(depts))
	for _, d := range depts {
		responses = append(responses, ToDepartmentResponse(d))
	}
	return responses, total, nil
}

// Delete soft-deletes a department. Departments that still have members
// cannot be deleted
func (s *DepartmentService) Delete(ctx context.Context, tenantID, deptID uuid.UUID) error {
	dept, err := s.findTenantDepartment(ctx, tenantID, deptID)
	if err != nil {
		return err
	}

	_, members, err := s.userRepo.FindAll(ctx, shared.Filter{
		Page:     1,
		PageSize: 1,
		Filters:  map[string]any{"department_id": dept.ID.String()},
	})
	if err != nil {
		return err
	}
	if members > 0 {
		return shared.NewDomainError("DEPARTMENT_IN_USE", "Department still has members assigned")
	}

	if err := s.deptRepo.Delete(ctx, dept.ID); err != nil {
		return err
	}

	s.logger.Info("department deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("department_id", dept.ID.String()))
	return nil
}

func (s *DepartmentService) findTenantDepartment(ctx context.Context, tenantID, deptID uuid.UUID) (*identity.Department, error) {
	dept, err := s.deptRepo.FindByID(ctx, deptID)
	if err != nil {
		return nil, err
	}
	if dept.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return dept, nil
}

func (s *DepartmentService) checkParent(ctx context.Context, tenantID, deptID, parentID uuid.UUID) error {
	if parentID == deptID {
		return shared.NewDomainError("INVALID_PARENT", "Department cannot be its own parent")
	}
	parent, err := s.deptRepo.FindByID(ctx, parentID)
	if err != nil {
		return err
	}
	if parent.TenantID != tenantID {
		return shared.ErrNotFound
	}
	return nil
}

func (s *DepartmentService) checkManager(ctx context.Context, tenantID, managerID uuid.UUID) error {
	manager, err := s.userRepo.FindByID(ctx, managerID)
	if err != nil {
		return err
	}
	if manager.TenantID != tenantID {
		return shared.ErrNotFound
	}
	if !manager.IsActive() {
		return shared.NewDomainError("INVALID_MANAGER", "Manager must be an active user")
	}
	return nil
}
