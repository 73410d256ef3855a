package contract

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

// Status represents the state of a vendor contract
type Status string

const (
	StatusDraft      Status = "DRAFT"
	StatusActive     Status = "ACTIVE"
	StatusExpired    Status = "EXPIRED"
	StatusTerminated Status = "TERMINATED"
)

// IsValid checks if the status is a valid contract Status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusExpired, StatusTerminated:
		return true
	}
	return false
}

// Contract is a dated agreement with a vendor, usually backed by an
// uploaded document
type Contract struct {
	shared.TenantAggregateRoot
	ContractNumber    string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_contracts_tenant_number,priority:2"`
	VendorID          uuid.UUID `gorm:"type:uuid;not null;index"`
	Title             string    `gorm:"type:varchar(200);not null"`
	DocumentKey       string    `gorm:"type:varchar(500)"`
	EffectiveDate     time.Time `gorm:"not null"`
	ExpiryDate        time.Time `gorm:"not null;index"`
	Status            Status    `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	TerminatedAt      *time.Time
	TerminationReason string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Contract) TableName() string {
	return "contracts"
}

// NewContract creates a new contract in draft status
func NewContract(tenantID uuid.UUID, contractNumber string, vendorID uuid.UUID, title string, effectiveDate, expiryDate time.Time, documentKey string) (*Contract, error) {
	contractNumber = strings.ToUpper(strings.TrimSpace(contractNumber))
	if contractNumber == "" {
		return nil, shared.NewDomainError("INVALID_CONTRACT_NUMBER", "Contract number cannot be empty")
	}
	if len(contractNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_CONTRACT_NUMBER", "Contract number cannot exceed 50 characters")
	}
	if vendorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VENDOR", "Contract requires a vendor")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Contract title cannot be empty")
	}
	if effectiveDate.IsZero() || expiryDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATES", "Effective and expiry dates are required")
	}
	if !expiryDate.After(effectiveDate) {
		return nil, shared.NewDomainError("INVALID_DATES", "Expiry date must be after the effective date")
	}

	c := &Contract{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ContractNumber:      contractNumber,
		VendorID:            vendorID,
		Title:               title,
		DocumentKey:         documentKey,
		EffectiveDate:       effectiveDate,
		ExpiryDate:          expiryDate,
		Status:              StatusDraft,
	}

	c.AddDomainEvent(NewContractCreatedEvent(c))

	return c, nil
}

// Update changes the editable fields. Only draft contracts can change
// their dates
func (c *Contract) Update(title, documentKey string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Contract title cannot be empty")
	}

	c.Title = title
	c.DocumentKey = documentKey
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// Reschedule moves the contract dates. Allowed only in draft
func (c *Contract) Reschedule(effectiveDate, expiryDate time.Time) error {
	if c.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft contracts can be rescheduled")
	}
	if !expiryDate.After(effectiveDate) {
		return shared.NewDomainError("INVALID_DATES", "Expiry date must be after the effective date")
	}

	c.EffectiveDate = effectiveDate
	c.ExpiryDate = expiryDate
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// Activate puts a draft contract into force. A contract whose expiry
// already passed cannot be activated
func (c *Contract) Activate() error {
	if c.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Only draft contracts can be activated, current status: %s", c.Status))
	}
	if !c.ExpiryDate.After(time.Now()) {
		return shared.NewDomainError("CONTRACT_EXPIRED", "Cannot activate a contract past its expiry date")
	}

	c.Status = StatusActive
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewContractStatusChangedEvent(c, StatusDraft, StatusActive))

	return nil
}

// Terminate ends an active contract early
func (c *Contract) Terminate(reason string) error {
	if c.Status != StatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Only active contracts can be terminated, current status: %s", c.Status))
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Termination reason is required")
	}

	now := time.Now()
	c.Status = StatusTerminated
	c.TerminatedAt = &now
	c.TerminationReason = reason
	c.UpdatedAt = now
	c.IncrementVersion()

	c.AddDomainEvent(NewContractStatusChangedEvent(c, StatusActive, StatusTerminated))

	return nil
}

// MarkExpired moves an active contract past its expiry date to expired
func (c *Contract) MarkExpired(asOf time.Time) error {
	if c.Status != StatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Only active contracts can expire, current status: %s", c.Status))
	}
	if c.ExpiryDate.After(asOf) {
		return shared.NewDomainError("NOT_EXPIRED", "Contract has not reached its expiry date")
	}

	c.Status = StatusExpired
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewContractStatusChangedEvent(c, StatusActive, StatusExpired))

	return nil
}

// IsActive reports whether the contract is in force
func (c *Contract) IsActive() bool {
	return c.Status == StatusActive
}

// DaysUntilExpiry returns whole calendar days between asOf and the
// expiry date, both taken as UTC dates. Past expiry yields negatives
func (c *Contract) DaysUntilExpiry(asOf time.Time) int {
	expiry := dateOnly(c.ExpiryDate)
	today := dateOnly(asOf)
	return int(expiry.Sub(today).Hours() / 24)
}

func dateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
