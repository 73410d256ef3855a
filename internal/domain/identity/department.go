package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

// DepartmentStatus represents the status of a department
type DepartmentStatus string

const (
	DepartmentStatusActive   DepartmentStatus = "active"
	DepartmentStatusInactive DepartmentStatus = "inactive"
)

// Department is an organizational unit that owns budgets and
// purchase requests. Its manager is the first approver for every
// request raised within it.
type Department struct {
	shared.TenantAggregateRoot
	Code        string           `gorm:"type:varchar(50);not null;uniqueIndex:idx_departments_tenant_code,priority:2"`
	Name        string           `gorm:"type:varchar(200);not null"`
	Description string           `gorm:"type:text"`
	ParentID    *uuid.UUID       `gorm:"type:uuid;index"`
	ManagerID   *uuid.UUID       `gorm:"type:uuid;index"`
	Status      DepartmentStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (Department) TableName() string {
	return "departments"
}

// NewDepartment creates a new department with required fields
func NewDepartment(tenantID uuid.UUID, code, name string) (*Department, error) {
	if err := validateDepartmentCode(code); err != nil {
		return nil, err
	}
	if err := validateDepartmentName(name); err != nil {
		return nil, err
	}

	dept := &Department{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                strings.ToUpper(strings.TrimSpace(code)),
		Name:                strings.TrimSpace(name),
		Status:              DepartmentStatusActive,
	}

	dept.AddDomainEvent(NewDepartmentCreatedEvent(dept))

	return dept, nil
}

// SetParent sets the parent department
func (d *Department) SetParent(parentID *uuid.UUID) error {
	if parentID != nil && *parentID == d.ID {
		return shared.NewDomainError("INVALID_PARENT", "Department cannot be its own parent")
	}

	d.ParentID = parentID
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	return nil
}

// SetManager sets the department manager
func (d *Department) SetManager(managerID *uuid.UUID) {
	d.ManagerID = managerID
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	d.AddDomainEvent(NewDepartmentManagerChangedEvent(d))
}

// Update updates the department's basic information
func (d *Department) Update(name, description string) error {
	if err := validateDepartmentName(name); err != nil {
		return err
	}

	d.Name = strings.TrimSpace(name)
	d.Description = description
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	d.AddDomainEvent(NewDepartmentUpdatedEvent(d))

	return nil
}

// Activate activates the department
func (d *Department) Activate() error {
	if d.Status == DepartmentStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Department is already active")
	}

	d.Status = DepartmentStatusActive
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	return nil
}

// Deactivate deactivates the department
func (d *Department) Deactivate() error {
	if d.Status == DepartmentStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Department is already inactive")
	}

	d.Status = DepartmentStatusInactive
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	return nil
}

// IsActive returns true if department is active
func (d *Department) IsActive() bool {
	return d.Status == DepartmentStatusActive
}

// HasManager returns true if a manager is assigned
func (d *Department) HasManager() bool {
	return d.ManagerID != nil && *d.ManagerID != uuid.Nil
}

// Validation functions

func validateDepartmentCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return shared.NewDomainError("INVALID_DEPARTMENT_CODE", "Department code cannot be empty")
	}
	if len(code) < 2 {
		return shared.NewDomainError("INVALID_DEPARTMENT_CODE", "Department code must be at least 2 characters")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_DEPARTMENT_CODE", "Department code cannot exceed 50 characters")
	}

	// Allow alphanumeric, underscore, and hyphen
	codeRegex := regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)
	if !codeRegex.MatchString(code) {
		return shared.NewDomainError("INVALID_DEPARTMENT_CODE", "Department code must start with a letter and contain only letters, numbers, underscores, and hyphens")
	}

	return nil
}

func validateDepartmentName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_DEPARTMENT_NAME", "Department name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_DEPARTMENT_NAME", "Department name cannot exceed 200 characters")
	}
	return nil
}
