package partner

import (
	"github.com/procura/backend/internal/domain/shared"
)

// Aggregate type constant for Vendor
const AggregateTypeVendor = "Vendor"

// Vendor domain event types
const (
	EventTypeVendorCreated          = "VendorCreated"
	EventTypeVendorUpdated          = "VendorUpdated"
	EventTypeVendorStatusChanged    = "VendorStatusChanged"
	EventTypeVendorRiskScoreChanged = "VendorRiskScoreChanged"
)

// VendorCreatedEvent is raised when a new vendor is created
type VendorCreatedEvent struct {
	shared.BaseDomainEvent
	LegalName string `json:"legal_name"`
	TaxID     string `json:"tax_id"`
}

// NewVendorCreatedEvent creates a new VendorCreatedEvent
func NewVendorCreatedEvent(vendor *Vendor) *VendorCreatedEvent {
	return &VendorCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVendorCreated, AggregateTypeVendor, vendor.ID, vendor.TenantID),
		LegalName:       vendor.LegalName,
		TaxID:           vendor.TaxID,
	}
}

// VendorUpdatedEvent is raised when a vendor is updated
type VendorUpdatedEvent struct {
	shared.BaseDomainEvent
	LegalName string `json:"legal_name"`
}

// NewVendorUpdatedEvent creates a new VendorUpdatedEvent
func NewVendorUpdatedEvent(vendor *Vendor) *VendorUpdatedEvent {
	return &VendorUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVendorUpdated, AggregateTypeVendor, vendor.ID, vendor.TenantID),
		LegalName:       vendor.LegalName,
	}
}

// VendorStatusChangedEvent is raised when a vendor's lifecycle status changes
type VendorStatusChangedEvent struct {
	shared.BaseDomainEvent
	OldStatus VendorStatus `json:"old_status"`
	NewStatus VendorStatus `json:"new_status"`
}

// NewVendorStatusChangedEvent creates a new VendorStatusChangedEvent
func NewVendorStatusChangedEvent(vendor *Vendor, oldStatus, newStatus VendorStatus) *VendorStatusChangedEvent {
	return &VendorStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVendorStatusChanged, AggregateTypeVendor, vendor.ID, vendor.TenantID),
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}

// VendorRiskScoreChangedEvent is raised when a vendor's risk score is recomputed
type VendorRiskScoreChangedEvent struct {
	shared.BaseDomainEvent
	OldScore int `json:"old_score"`
	NewScore int `json:"new_score"`
}

// NewVendorRiskScoreChangedEvent creates a new VendorRiskScoreChangedEvent
func NewVendorRiskScoreChangedEvent(vendor *Vendor, oldScore, newScore int) *VendorRiskScoreChangedEvent {
	return &VendorRiskScoreChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVendorRiskScoreChanged, AggregateTypeVendor, vendor.ID, vendor.TenantID),
		OldScore:        oldScore,
		NewScore:        newScore,
	}
}
