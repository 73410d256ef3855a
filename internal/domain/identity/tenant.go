package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/procura/backend/internal/domain/shared"
)

// TenantStatus represents the status of a tenant
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended" // Suspended due to payment/violation issues
)

// Tenant represents an organization in the multi-tenant system
// It is the aggregate root for tenant-related operations
type Tenant struct {
	shared.BaseAggregateRoot
	Code         string       `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name         string       `gorm:"type:varchar(200);not null"`
	Status       TenantStatus `gorm:"type:varchar(20);not null;default:'active'"`
	BaseCurrency string       `gorm:"type:varchar(3);not null;default:'USD'"` // ISO 4217 code used for budget reporting
	ContactEmail string       `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (Tenant) TableName() string {
	return "tenants"
}

// NewTenant creates a new tenant with required fields
func NewTenant(code, name, baseCurrency string) (*Tenant, error) {
	if err := validateTenantCode(code); err != nil {
		return nil, err
	}
	if err := validateTenantName(name); err != nil {
		return nil, err
	}

	baseCurrency = strings.ToUpper(strings.TrimSpace(baseCurrency))
	if baseCurrency == "" {
		baseCurrency = "USD"
	}
	if len(baseCurrency) != 3 {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Base currency must be a 3-letter ISO 4217 code")
	}

	tenant := &Tenant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Status:            TenantStatusActive,
		BaseCurrency:      baseCurrency,
	}

	tenant.AddDomainEvent(NewTenantCreatedEvent(tenant))

	return tenant, nil
}

// Update updates the tenant's basic information
func (t *Tenant) Update(name, contactEmail string) error {
	if err := validateTenantName(name); err != nil {
		return err
	}
	if contactEmail != "" && len(contactEmail) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}

	t.Name = name
	t.ContactEmail = contactEmail
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	t.AddDomainEvent(NewTenantUpdatedEvent(t))

	return nil
}

// Suspend suspends the tenant, blocking all API access
func (t *Tenant) Suspend() error {
	if t.Status == TenantStatusSuspended {
		return shared.NewDomainError("ALREADY_SUSPENDED", "Tenant is already suspended")
	}

	oldStatus := t.Status
	t.Status = TenantStatusSuspended
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	t.AddDomainEvent(NewTenantStatusChangedEvent(t, oldStatus, t.Status))

	return nil
}

// Activate reactivates a suspended tenant
func (t *Tenant) Activate() error {
	if t.Status == TenantStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Tenant is already active")
	}

	oldStatus := t.Status
	t.Status = TenantStatusActive
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	t.AddDomainEvent(NewTenantStatusChangedEvent(t, oldStatus, t.Status))

	return nil
}

// IsActive returns true if the tenant can use the system
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

var tenantCodeRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

func validateTenantCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Tenant code is required")
	}
	if len(code) < 2 || len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Tenant code must be between 2 and 50 characters")
	}
	if !tenantCodeRegex.MatchString(code) {
		return shared.NewDomainError("INVALID_CODE", "Tenant code must start with a letter and contain only letters, digits, hyphens and underscores")
	}
	return nil
}

func validateTenantName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Tenant name is required")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Tenant name cannot exceed 200 characters")
	}
	return nil
}
