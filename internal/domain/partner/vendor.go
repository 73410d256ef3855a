package partner

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procura/backend/internal/domain/shared"
)

// VendorStatus represents the onboarding status of a vendor
type VendorStatus string

const (
	VendorStatusDraft         VendorStatus = "DRAFT"          // Being filled in, not yet submitted
	VendorStatusPendingReview VendorStatus = "PENDING_REVIEW" // Awaiting procurement review
	VendorStatusActive        VendorStatus = "ACTIVE"         // Approved, can receive POs
	VendorStatusBlocked       VendorStatus = "BLOCKED"        // Blocked due to risk/compliance issues
)

// IsValid checks whether the status is a known vendor status
func (s VendorStatus) IsValid() bool {
	switch s {
	case VendorStatusDraft, VendorStatusPendingReview, VendorStatusActive, VendorStatusBlocked:
		return true
	}
	return false
}

// CanTransitionTo checks whether the vendor lifecycle allows moving to the target status
func (s VendorStatus) CanTransitionTo(target VendorStatus) bool {
	switch s {
	case VendorStatusDraft:
		return target == VendorStatusPendingReview
	case VendorStatusPendingReview:
		return target == VendorStatusActive
	case VendorStatusActive:
		return target == VendorStatusBlocked
	case VendorStatusBlocked:
		return target == VendorStatusActive
	}
	return false
}

// Vendor represents a supplier of goods or services in the procurement context
// It is the aggregate root for vendor-related operations
type Vendor struct {
	shared.TenantAggregateRoot
	LegalName     string       `gorm:"type:varchar(200);not null"`
	TaxID         string       `gorm:"type:varchar(50);not null;uniqueIndex:idx_vendors_tenant_tax_id,priority:2"`
	Email         string       `gorm:"type:varchar(200);not null;uniqueIndex:idx_vendors_tenant_email,priority:2"`
	ContactName   string       `gorm:"type:varchar(100)"`
	Phone         string       `gorm:"type:varchar(50)"`
	Address       string       `gorm:"type:text"`
	Country       string       `gorm:"type:varchar(100)"`
	PaymentTerms  int          `gorm:"not null;default:30"` // Days until payment is due
	Status        VendorStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	RiskScore     int          `gorm:"not null;default:0;check:risk_score >= 0 AND risk_score <= 100"`
	BlockedReason string       `gorm:"type:text"`
	Notes         string       `gorm:"type:text"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (Vendor) TableName() string {
	return "vendors"
}

// NewVendor creates a new vendor in draft status
func NewVendor(tenantID uuid.UUID, legalName, taxID, email string) (*Vendor, error) {
	if err := validateVendorName(legalName); err != nil {
		return nil, err
	}
	taxID = strings.ToUpper(strings.TrimSpace(taxID))
	if err := validateTaxID(taxID); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateVendorEmail(email); err != nil {
		return nil, err
	}

	vendor := &Vendor{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		LegalName:           legalName,
		TaxID:               taxID,
		Email:               email,
		PaymentTerms:        30,
		Status:              VendorStatusDraft,
		RiskScore:           0,
	}

	vendor.AddDomainEvent(NewVendorCreatedEvent(vendor))

	return vendor, nil
}

// Update updates the vendor's basic information
func (v *Vendor) Update(legalName, contactName, phone, address, country string) error {
	if err := validateVendorName(legalName); err != nil {
		return err
	}
	if contactName != "" && len(contactName) > 100 {
		return shared.NewDomainError("INVALID_CONTACT_NAME", "Contact name cannot exceed 100 characters")
	}
	if phone != "" && len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 50 characters")
	}

	v.LegalName = legalName
	v.ContactName = contactName
	v.Phone = phone
	v.Address = address
	v.Country = country
	v.UpdatedAt = time.Now()
	v.IncrementVersion()

	v.AddDomainEvent(NewVendorUpdatedEvent(v))

	return nil
}

// SetPaymentTerms sets the vendor's payment terms in days
func (v *Vendor) SetPaymentTerms(days int) error {
	if days < 0 || days > 365 {
		return shared.NewDomainError("INVALID_PAYMENT_TERMS", "Payment terms must be between 0 and 365 days")
	}

	v.PaymentTerms = days
	v.UpdatedAt = time.Now()
	v.IncrementVersion()

	return nil
}

// SubmitForReview moves a draft vendor to pending review
func (v *Vendor) SubmitForReview() error {
	return v.transitionTo(VendorStatusPendingReview)
}

// Approve activates a vendor that is pending review
func (v *Vendor) Approve() error {
	return v.transitionTo(VendorStatusActive)
}

// Block blocks an active vendor, preventing new purchase orders
func (v *Vendor) Block(reason string) error {
	if err := v.transitionTo(VendorStatusBlocked); err != nil {
		return err
	}
	v.BlockedReason = reason
	return nil
}

// Unblock reactivates a blocked vendor
func (v *Vendor) Unblock() error {
	if err := v.transitionTo(VendorStatusActive); err != nil {
		return err
	}
	v.BlockedReason = ""
	return nil
}

func (v *Vendor) transitionTo(target VendorStatus) error {
	if !v.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATUS_TRANSITION",
			"Cannot transition vendor from "+string(v.Status)+" to "+string(target))
	}

	oldStatus := v.Status
	v.Status = target
	v.UpdatedAt = time.Now()
	v.IncrementVersion()

	v.AddDomainEvent(NewVendorStatusChangedEvent(v, oldStatus, target))

	return nil
}

// SetRiskScore updates the vendor's computed risk score
func (v *Vendor) SetRiskScore(score int) error {
	if score < 0 || score > 100 {
		return shared.NewDomainError("INVALID_RISK_SCORE", "Risk score must be between 0 and 100")
	}

	old := v.RiskScore
	v.RiskScore = score
	v.UpdatedAt = time.Now()
	v.IncrementVersion()

	if old != score {
		v.AddDomainEvent(NewVendorRiskScoreChangedEvent(v, old, score))
	}

	return nil
}

// IsActive returns true if the vendor can receive purchase orders
func (v *Vendor) IsActive() bool {
	return v.Status == VendorStatusActive
}

// IsHighRisk returns true if the vendor's risk score is in the alerting band
func (v *Vendor) IsHighRisk() bool {
	return v.RiskScore >= 75
}

var taxIDRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{4,49}$`)

func validateVendorName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Legal name is required")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Legal name cannot exceed 200 characters")
	}
	return nil
}

func validateTaxID(taxID string) error {
	if taxID == "" {
		return shared.NewDomainError("INVALID_TAX_ID", "Tax ID is required")
	}
	if !taxIDRegex.MatchString(taxID) {
		return shared.NewDomainError("INVALID_TAX_ID", "Tax ID must be 5 to 50 characters of letters, digits and hyphens")
	}
	return nil
}

var vendorEmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func validateVendorEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email is required")
	}
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !vendorEmailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}
