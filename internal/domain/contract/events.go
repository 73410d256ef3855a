package contract

import (
	"github.com/procura/backend/internal/domain/shared"
)

const (
	AggregateTypeContract = "Contract"
)

const (
	EventTypeContractCreated       = "ContractCreated"
	EventTypeContractStatusChanged = "ContractStatusChanged"
)

// ContractCreatedEvent is raised when a contract is created
type ContractCreatedEvent struct {
	shared.BaseDomainEvent
	ContractNumber string `json:"contract_number"`
	VendorID       string `json:"vendor_id"`
}

// NewContractCreatedEvent creates a new contract created event
func NewContractCreatedEvent(c *Contract) *ContractCreatedEvent {
	return &ContractCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContractCreated, AggregateTypeContract, c.ID, c.TenantID),
		ContractNumber:  c.ContractNumber,
		VendorID:        c.VendorID.String(),
	}
}

// ContractStatusChangedEvent is raised on contract lifecycle changes
type ContractStatusChangedEvent struct {
	shared.BaseDomainEvent
	ContractNumber string `json:"contract_number"`
	OldStatus      string `json:"old_status"`
	NewStatus      string `json:"new_status"`
}

// NewContractStatusChangedEvent creates a new status changed event
func NewContractStatusChangedEvent(c *Contract, oldStatus, newStatus Status) *ContractStatusChangedEvent {
	return &ContractStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContractStatusChanged, AggregateTypeContract, c.ID, c.TenantID),
		ContractNumber:  c.ContractNumber,
		OldStatus:       string(oldStatus),
		NewStatus:       string(newStatus),
	}
}
