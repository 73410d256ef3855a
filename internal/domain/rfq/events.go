package rfq

import (
	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

const (
	AggregateTypeRFQ = "RFQ"
)

const (
	EventTypeRfqCreated     = "RfqCreated"
	EventTypeRfqSent        = "RfqSent"
	EventTypeQuoteRecorded  = "RfqQuoteRecorded"
	EventTypeRfqAwarded     = "RfqAwarded"
	EventTypeRfqCancelled   = "RfqCancelled"
)

// RfqCreatedEvent is raised when an RFQ is created
type RfqCreatedEvent struct {
	shared.BaseDomainEvent
	RfqNumber string `json:"rfq_number"`
	Title     string `json:"title"`
}

// NewRfqCreatedEvent creates a new RFQ created event
func NewRfqCreatedEvent(r *RFQ) *RfqCreatedEvent {
	return &RfqCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRfqCreated, AggregateTypeRFQ, r.ID, r.TenantID),
		RfqNumber:       r.RfqNumber,
		Title:           r.Title,
	}
}

// RfqSentEvent is raised when an RFQ goes out to vendors
type RfqSentEvent struct {
	shared.BaseDomainEvent
	RfqNumber    string   `json:"rfq_number"`
	VendorIDs    []string `json:"vendor_ids"`
	LineCount    int      `json:"line_count"`
}

// NewRfqSentEvent creates a new RFQ sent event
func NewRfqSentEvent(r *RFQ) *RfqSentEvent {
	vendorIDs := make([]string, 0, len(r.Invitations))
	for _, inv := range r.Invitations {
		vendorIDs = append(vendorIDs, inv.VendorID.String())
	}
	return &RfqSentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRfqSent, AggregateTypeRFQ, r.ID, r.TenantID),
		RfqNumber:       r.RfqNumber,
		VendorIDs:       vendorIDs,
		LineCount:       len(r.Lines),
	}
}

// QuoteRecordedEvent is raised when a vendor responds with prices
type QuoteRecordedEvent struct {
	shared.BaseDomainEvent
	RfqNumber  string `json:"rfq_number"`
	VendorID   string `json:"vendor_id"`
	TotalCents int64  `json:"total_cents"`
}

// NewQuoteRecordedEvent creates a new quote recorded event
func NewQuoteRecordedEvent(r *RFQ, vendorID uuid.UUID, totalCents int64) *QuoteRecordedEvent {
	return &QuoteRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuoteRecorded, AggregateTypeRFQ, r.ID, r.TenantID),
		RfqNumber:       r.RfqNumber,
		VendorID:        vendorID.String(),
		TotalCents:      totalCents,
	}
}

// RfqAwardedEvent is raised when a winning vendor is picked
type RfqAwardedEvent struct {
	shared.BaseDomainEvent
	RfqNumber string `json:"rfq_number"`
	VendorID  string `json:"vendor_id"`
}

// NewRfqAwardedEvent creates a new RFQ awarded event
func NewRfqAwardedEvent(r *RFQ, vendorID uuid.UUID) *RfqAwardedEvent {
	return &RfqAwardedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRfqAwarded, AggregateTypeRFQ, r.ID, r.TenantID),
		RfqNumber:       r.RfqNumber,
		VendorID:        vendorID.String(),
	}
}

// RfqCancelledEvent is raised when an RFQ is abandoned
type RfqCancelledEvent struct {
	shared.BaseDomainEvent
	RfqNumber string `json:"rfq_number"`
	Reason    string `json:"reason"`
}

// NewRfqCancelledEvent creates a new RFQ cancelled event
func NewRfqCancelledEvent(r *RFQ, reason string) *RfqCancelledEvent {
	return &RfqCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRfqCancelled, AggregateTypeRFQ, r.ID, r.TenantID),
		RfqNumber:       r.RfqNumber,
		Reason:          reason,
	}
}
