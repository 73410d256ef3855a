package invoice

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

// Status represents the state of a vendor invoice
type Status string

const (
	StatusUploaded  Status = "UPLOADED"
	StatusMatched   Status = "MATCHED"
	StatusException Status = "EXCEPTION"
	StatusDisputed  Status = "DISPUTED"
	StatusApproved  Status = "APPROVED"
	StatusPaid      Status = "PAID"
)

// IsValid checks if the status is a valid invoice Status
func (s Status) IsValid() bool {
	switch s {
	case StatusUploaded, StatusMatched, StatusException, StatusDisputed, StatusApproved, StatusPaid:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// OcrStatus represents the outcome of document text extraction
type OcrStatus string

const (
	OcrStatusPending           OcrStatus = "PENDING"
	OcrStatusComplete          OcrStatus = "COMPLETE"
	OcrStatusLowConfidence     OcrStatus = "LOW_CONFIDENCE"
	OcrStatusUnsupportedFormat OcrStatus = "UNSUPPORTED_FORMAT"
	OcrStatusFailed            OcrStatus = "FAILED"
	OcrStatusSkipped           OcrStatus = "SKIPPED"
)

// MatchStatus records how the invoice cleared three-way matching
type MatchStatus string

const (
	MatchStatusPass     MatchStatus = "PASS"
	MatchStatusFail     MatchStatus = "FAIL"
	MatchStatusOverride MatchStatus = "OVERRIDE"
)

// InvoiceLineItem represents a line item on a vendor invoice
type InvoiceLineItem struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	InvoiceID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Description    string    `gorm:"type:varchar(500);not null"`
	Quantity       int       `gorm:"not null;check:quantity > 0"`
	UnitPriceCents int64     `gorm:"not null;check:unit_price_cents > 0"`
	TotalCents     int64     `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceLineItem) TableName() string {
	return "invoice_line_items"
}

// NewInvoiceLineItem creates a new invoice line item
func NewInvoiceLineItem(invoiceID uuid.UUID, description string, quantity int, unitPriceCents int64) (*InvoiceLineItem, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Line description cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPriceCents <= 0 {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price must be positive")
	}

	now := time.Now()
	return &InvoiceLineItem{
		ID:             uuid.New(),
		InvoiceID:      invoiceID,
		Description:    description,
		Quantity:       quantity,
		UnitPriceCents: unitPriceCents,
		TotalCents:     int64(quantity) * unitPriceCents,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Invoice represents a bill received from a vendor
// It is the aggregate root for the pay side of the procure-to-pay flow
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber     string            `gorm:"type:varchar(100);not null;uniqueIndex:idx_invoices_vendor_number,priority:3"`
	VendorID          uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_invoices_vendor_number,priority:2"`
	OrderID           *uuid.UUID        `gorm:"type:uuid;index"` // Optional purchase order reference
	Lines             []InvoiceLineItem `gorm:"foreignKey:InvoiceID;references:ID"`
	TotalCents        int64             `gorm:"not null;check:total_cents > 0"`
	Currency          string            `gorm:"type:varchar(3);not null;default:'USD'"`
	DocumentKey       string            `gorm:"type:varchar(500)"` // Object store key of the uploaded document
	Status            Status            `gorm:"type:varchar(20);not null;default:'UPLOADED';index"`
	OcrStatus         OcrStatus         `gorm:"type:varchar(30);not null;default:'SKIPPED'"`
	OcrConfidence     float64           `gorm:"not null;default:0"`
	MatchStatus       MatchStatus       `gorm:"type:varchar(20)"` // Empty until first match run
	MatchExceptions   string            `gorm:"type:jsonb"`       // Exception payload when the match fails
	DisputeReason     string            `gorm:"type:text"`
	ApprovedPaymentAt *time.Time
	PaidAt            *time.Time
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoice creates a new invoice in uploaded status. A document key,
// when given, queues the invoice for OCR
func NewInvoice(tenantID, vendorID uuid.UUID, invoiceNumber string, totalCents int64, currency, documentKey string) (*Invoice, error) {
	invoiceNumber = strings.TrimSpace(invoiceNumber)
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if len(invoiceNumber) > 100 {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot exceed 100 characters")
	}
	if vendorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VENDOR", "Vendor is required")
	}
	if totalCents <= 0 {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Invoice total must be positive")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "USD"
	}
	if len(currency) != 3 {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency must be a 3-letter ISO 4217 code")
	}

	ocrStatus := OcrStatusSkipped
	if documentKey != "" {
		ocrStatus = OcrStatusPending
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       invoiceNumber,
		VendorID:            vendorID,
		Lines:               make([]InvoiceLineItem, 0),
		TotalCents:          totalCents,
		Currency:            currency,
		DocumentKey:         documentKey,
		Status:              StatusUploaded,
		OcrStatus:           ocrStatus,
	}

	inv.AddDomainEvent(NewInvoiceUploadedEvent(inv))

	return inv, nil
}

// SetOrder links the invoice to a purchase order
func (inv *Invoice) SetOrder(orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return shared.NewDomainError("INVALID_ORDER", "Order reference cannot be empty")
	}
	if inv.Status != StatusUploaded {
		return shared.NewDomainError("INVALID_STATE", "Order reference can only change while the invoice is uploaded")
	}

	inv.OrderID = &orderID
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	return nil
}

// AddLine adds a line item. Only allowed in UPLOADED status
func (inv *Invoice) AddLine(description string, quantity int, unitPriceCents int64) (*InvoiceLineItem, error) {
	if inv.Status != StatusUploaded {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add lines once matching has started")
	}

	line, err := NewInvoiceLineItem(inv.ID, description, quantity, unitPriceCents)
	if err != nil {
		return nil, err
	}

	inv.Lines = append(inv.Lines, *line)
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	return line, nil
}

// IsOpenForMatching returns true while a match run may still change the
// invoice's status
func (inv *Invoice) IsOpenForMatching() bool {
	return inv.Status == StatusUploaded || inv.Status == StatusException
}

// ApplyMatchResult records the matcher's verdict. A pass moves the
// invoice to matched; a fail stores the exception payload
func (inv *Invoice) ApplyMatchResult(passed bool, exceptionsJSON string) error {
	if !inv.IsOpenForMatching() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot apply match result to invoice in %s status", inv.Status))
	}

	now := time.Now()
	if passed {
		inv.Status = StatusMatched
		inv.MatchStatus = MatchStatusPass
		inv.MatchExceptions = ""
	} else {
		inv.Status = StatusException
		inv.MatchStatus = MatchStatusFail
		inv.MatchExceptions = exceptionsJSON
	}
	inv.UpdatedAt = now
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoiceMatchedEvent(inv, passed))

	return nil
}

// Dispute lets the vendor contest a match exception
func (inv *Invoice) Dispute(reason string) error {
	if inv.Status != StatusException {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Only invoices in exception can be disputed, current status: %s", inv.Status))
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Dispute reason is required")
	}

	inv.Status = StatusDisputed
	inv.DisputeReason = reason
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoiceDisputedEvent(inv, reason))

	return nil
}

// Override clears an exception or dispute by finance decision and
// records the override in the match status
func (inv *Invoice) Override() error {
	if inv.Status != StatusException && inv.Status != StatusDisputed {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Only invoices in exception or dispute can be overridden, current status: %s", inv.Status))
	}

	inv.Status = StatusMatched
	inv.MatchStatus = MatchStatusOverride
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoiceOverriddenEvent(inv))

	return nil
}

// ApproveForPayment releases a matched invoice for payment
func (inv *Invoice) ApproveForPayment() error {
	if inv.Status != StatusMatched {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Only matched invoices can be approved for payment, current status: %s", inv.Status))
	}

	now := time.Now()
	inv.Status = StatusApproved
	inv.ApprovedPaymentAt = &now
	inv.UpdatedAt = now
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoicePaymentApprovedEvent(inv))

	return nil
}

// MarkPaid settles an approved invoice
func (inv *Invoice) MarkPaid() error {
	if inv.Status != StatusApproved {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Only approved invoices can be paid, current status: %s", inv.Status))
	}

	now := time.Now()
	inv.Status = StatusPaid
	inv.PaidAt = &now
	inv.UpdatedAt = now
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoicePaidEvent(inv))

	return nil
}

// SetOcrOutcome records the OCR run's outcome
func (inv *Invoice) SetOcrOutcome(status OcrStatus, confidence float64) {
	inv.OcrStatus = status
	inv.OcrConfidence = confidence
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
}

// MergeExtractedFields fills fields the invoice lacks with OCR-extracted
// values; populated fields are never overwritten
func (inv *Invoice) MergeExtractedFields(invoiceNumber string, totalCents int64, currency string) {
	changed := false
	if inv.InvoiceNumber == "" && invoiceNumber != "" {
		inv.InvoiceNumber = strings.TrimSpace(invoiceNumber)
		changed = true
	}
	if inv.TotalCents == 0 && totalCents > 0 {
		inv.TotalCents = totalCents
		changed = true
	}
	if inv.Currency == "" && currency != "" {
		inv.Currency = strings.ToUpper(strings.TrimSpace(currency))
		changed = true
	}
	if changed {
		inv.UpdatedAt = time.Now()
		inv.IncrementVersion()
	}
}
