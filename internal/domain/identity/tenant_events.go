package identity

import (
	"github.com/procura/backend/internal/domain/shared"
)

// Aggregate type constant for Tenant
const AggregateTypeTenant = "Tenant"

// Tenant domain event types
const (
	EventTypeTenantCreated       = "TenantCreated"
	EventTypeTenantUpdated       = "TenantUpdated"
	EventTypeTenantStatusChanged = "TenantStatusChanged"
)

// TenantCreatedEvent is raised when a new tenant is created
type TenantCreatedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
	Name string `json:"name"`
}

// NewTenantCreatedEvent creates a new TenantCreatedEvent
func NewTenantCreatedEvent(tenant *Tenant) *TenantCreatedEvent {
	return &TenantCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantCreated, AggregateTypeTenant, tenant.ID, tenant.ID),
		Code:            tenant.Code,
		Name:            tenant.Name,
	}
}

// TenantUpdatedEvent is raised when a tenant is updated
type TenantUpdatedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewTenantUpdatedEvent creates a new TenantUpdatedEvent
func NewTenantUpdatedEvent(tenant *Tenant) *TenantUpdatedEvent {
	return &TenantUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantUpdated, AggregateTypeTenant, tenant.ID, tenant.ID),
		Name:            tenant.Name,
	}
}

// TenantStatusChangedEvent is raised when a tenant's status changes
type TenantStatusChangedEvent struct {
	shared.BaseDomainEvent
	OldStatus TenantStatus `json:"old_status"`
	NewStatus TenantStatus `json:"new_status"`
}

// NewTenantStatusChangedEvent creates a new TenantStatusChangedEvent
func NewTenantStatusChangedEvent(tenant *Tenant, oldStatus, newStatus TenantStatus) *TenantStatusChangedEvent {
	return &TenantStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantStatusChanged, AggregateTypeTenant, tenant.ID, tenant.ID),
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}
