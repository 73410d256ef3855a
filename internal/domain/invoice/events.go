package invoice

import (
	"github.com/procura/backend/internal/domain/shared"
)

const (
	AggregateTypeInvoice = "Invoice"
)

const (
	EventTypeInvoiceUploaded        = "InvoiceUploaded"
	EventTypeInvoiceMatched         = "InvoiceMatched"
	EventTypeInvoiceDisputed        = "InvoiceDisputed"
	EventTypeInvoiceOverridden      = "InvoiceOverridden"
	EventTypeInvoicePaymentApproved = "InvoicePaymentApproved"
	EventTypeInvoicePaid            = "InvoicePaid"
)

// InvoiceUploadedEvent is raised when a vendor submits an invoice
type InvoiceUploadedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string `json:"invoice_number"`
	VendorID      string `json:"vendor_id"`
	TotalCents    int64  `json:"total_cents"`
	Currency      string `json:"currency"`
	HasDocument   bool   `json:"has_document"`
}

// NewInvoiceUploadedEvent creates a new invoice uploaded event
func NewInvoiceUploadedEvent(inv *Invoice) *InvoiceUploadedEvent {
	return &InvoiceUploadedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceUploaded, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceNumber:   inv.InvoiceNumber,
		VendorID:        inv.VendorID.String(),
		TotalCents:      inv.TotalCents,
		Currency:        inv.Currency,
		HasDocument:     inv.DocumentKey != "",
	}
}

// InvoiceMatchedEvent is raised after a three-way-match run
type InvoiceMatchedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string `json:"invoice_number"`
	Passed        bool   `json:"passed"`
	MatchStatus   string `json:"match_status"`
}

// NewInvoiceMatchedEvent creates a new invoice matched event
func NewInvoiceMatchedEvent(inv *Invoice, passed bool) *InvoiceMatchedEvent {
	return &InvoiceMatchedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceMatched, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceNumber:   inv.InvoiceNumber,
		Passed:          passed,
		MatchStatus:     string(inv.MatchStatus),
	}
}

// InvoiceDisputedEvent is raised when a vendor contests an exception
type InvoiceDisputedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string `json:"invoice_number"`
	Reason        string `json:"reason"`
}

// NewInvoiceDisputedEvent creates a new invoice disputed event
func NewInvoiceDisputedEvent(inv *Invoice, reason string) *InvoiceDisputedEvent {
	return &InvoiceDisputedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceDisputed, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceNumber:   inv.InvoiceNumber,
		Reason:          reason,
	}
}

// InvoiceOverriddenEvent is raised when finance clears an exception
type InvoiceOverriddenEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string `json:"invoice_number"`
}

// NewInvoiceOverriddenEvent creates a new invoice overridden event
func NewInvoiceOverriddenEvent(inv *Invoice) *InvoiceOverriddenEvent {
	return &InvoiceOverriddenEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceOverridden, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceNumber:   inv.InvoiceNumber,
	}
}

// InvoicePaymentApprovedEvent is raised when finance releases payment
type InvoicePaymentApprovedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string `json:"invoice_number"`
	TotalCents    int64  `json:"total_cents"`
	Currency      string `json:"currency"`
}

// NewInvoicePaymentApprovedEvent creates a new payment approved event
func NewInvoicePaymentApprovedEvent(inv *Invoice) *InvoicePaymentApprovedEvent {
	return &InvoicePaymentApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaymentApproved, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceNumber:   inv.InvoiceNumber,
		TotalCents:      inv.TotalCents,
		Currency:        inv.Currency,
	}
}

// InvoicePaidEvent is raised when an invoice settles
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string `json:"invoice_number"`
	TotalCents    int64  `json:"total_cents"`
	Currency      string `json:"currency"`
}

// NewInvoicePaidEvent creates a new invoice paid event
func NewInvoicePaidEvent(inv *Invoice) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaid, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceNumber:   inv.InvoiceNumber,
		TotalCents:      inv.TotalCents,
		Currency:        inv.Currency,
	}
}
