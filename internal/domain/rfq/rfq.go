package rfq

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

// Status represents the state of a request for quotation
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSent      Status = "SENT"
	StatusQuoted    Status = "QUOTED"
	StatusAwarded   Status = "AWARDED"
	StatusCancelled Status = "CANCELLED"
)

// IsValid checks if the status is a valid RFQ Status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusQuoted, StatusAwarded, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if transition to target status is allowed
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusDraft:
		return target == StatusSent || target == StatusCancelled
	case StatusSent:
		return target == StatusQuoted || target == StatusCancelled
	case StatusQuoted:
		return target == StatusAwarded || target == StatusCancelled
	case StatusAwarded, StatusCancelled:
		return false
	}
	return false
}

// InvitationStatus tracks a vendor's response to an RFQ
type InvitationStatus string

const (
	InvitationInvited  InvitationStatus = "INVITED"
	InvitationQuoted   InvitationStatus = "QUOTED"
	InvitationDeclined InvitationStatus = "DECLINED"
)

// LineItem is one requested position on an RFQ
type LineItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	RfqID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Description string    `gorm:"type:varchar(500);not null"`
	Quantity    int       `gorm:"not null;check:quantity > 0"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LineItem) TableName() string {
	return "rfq_line_items"
}

// Invitation records that a vendor was asked to quote
type Invitation struct {
	ID          uuid.UUID        `gorm:"type:uuid;primary_key"`
	RfqID       uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_rfq_invitations_vendor,priority:1"`
	VendorID    uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_rfq_invitations_vendor,priority:2"`
	Status      InvitationStatus `gorm:"type:varchar(20);not null;default:'INVITED'"`
	InvitedAt   time.Time        `gorm:"not null"`
	RespondedAt *time.Time
}

// TableName returns the table name for GORM
func (Invitation) TableName() string {
	return "rfq_invitations"
}

// QuoteLine prices one RFQ line inside a vendor quote
type QuoteLine struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	QuoteID        uuid.UUID `gorm:"type:uuid;not null;index"`
	RfqLineItemID  uuid.UUID `gorm:"type:uuid;not null"`
	UnitPriceCents int64     `gorm:"not null;check:unit_price_cents > 0"`
	TotalCents     int64     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (QuoteLine) TableName() string {
	return "rfq_quote_lines"
}

// Quote is a vendor's full response to an RFQ. One per vendor
type Quote struct {
	ID          uuid.UUID   `gorm:"type:uuid;primary_key"`
	RfqID       uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_rfq_quotes_vendor,priority:1"`
	VendorID    uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_rfq_quotes_vendor,priority:2"`
	Lines       []QuoteLine `gorm:"foreignKey:QuoteID;references:ID"`
	TotalCents  int64       `gorm:"not null"`
	Notes       string      `gorm:"type:text"`
	SubmittedAt time.Time   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Quote) TableName() string {
	return "rfq_quotes"
}

// LinePrice carries one priced line of an incoming quote
type LinePrice struct {
	RfqLineItemID  uuid.UUID
	UnitPriceCents int64
}

// RFQ is the aggregate root of the quotation workflow: requested lines,
// invited vendors and their quotes
type RFQ struct {
	shared.TenantAggregateRoot
	RfqNumber       string       `gorm:"type:varchar(50);not null;uniqueIndex:idx_rfqs_tenant_number,priority:2"`
	Title           string       `gorm:"type:varchar(200);not null"`
	Description     string       `gorm:"type:text"`
	Status          Status       `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	DueDate         *time.Time
	Lines           []LineItem   `gorm:"foreignKey:RfqID;references:ID"`
	Invitations     []Invitation `gorm:"foreignKey:RfqID;references:ID"`
	Quotes          []Quote      `gorm:"foreignKey:RfqID;references:ID"`
	SentAt          *time.Time
	AwardedVendorID *uuid.UUID `gorm:"type:uuid"`
	AwardedAt       *time.Time
	CancelReason    string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (RFQ) TableName() string {
	return "rfqs"
}

// NewRFQ creates a new request for quotation in draft status
func NewRFQ(tenantID uuid.UUID, rfqNumber, title string, requesterID uuid.UUID) (*RFQ, error) {
	rfqNumber = strings.TrimSpace(rfqNumber)
	if rfqNumber == "" {
		return nil, shared.NewDomainError("INVALID_RFQ_NUMBER", "RFQ number cannot be empty")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "RFQ title cannot be empty")
	}
	if len(title) > 200 {
		return nil, shared.NewDomainError("INVALID_TITLE", "RFQ title cannot exceed 200 characters")
	}
	if requesterID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REQUESTER", "RFQ requires a requester")
	}

	r := &RFQ{
		TenantAggregateRoot: shared.NewTenantAggregateRootWithCreator(tenantID, requesterID),
		RfqNumber:           rfqNumber,
		Title:               title,
		Status:              StatusDraft,
		Lines:               make([]LineItem, 0),
		Invitations:         make([]Invitation, 0),
		Quotes:              make([]Quote, 0),
	}

	r.AddDomainEvent(NewRfqCreatedEvent(r))

	return r, nil
}

// AddLine adds a requested position. Only allowed in draft
func (r *RFQ) AddLine(description string, quantity int) (*LineItem, error) {
	if r.Status != StatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Lines can only be added to a draft RFQ")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Line description cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	now := time.Now()
	line := LineItem{
		ID:          uuid.New(),
		RfqID:       r.ID,
		Description: description,
		Quantity:    quantity,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.Lines = append(r.Lines, line)
	r.UpdatedAt = now
	r.IncrementVersion()

	return &line, nil
}

// InviteVendor adds a vendor to the invitation list. Only allowed in
// draft; each vendor is invited once
func (r *RFQ) InviteVendor(vendorID uuid.UUID) error {
	if r.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Vendors can only be invited while the RFQ is a draft")
	}
	if vendorID == uuid.Nil {
		return shared.NewDomainError("INVALID_VENDOR", "Vendor is required")
	}
	if r.IsInvited(vendorID) {
		return shared.NewDomainError("DUPLICATE_INVITATION", "Vendor is already invited")
	}

	now := time.Now()
	r.Invitations = append(r.Invitations, Invitation{
		ID:        uuid.New(),
		RfqID:     r.ID,
		VendorID:  vendorID,
		Status:    InvitationInvited,
		InvitedAt: now,
	})
	r.UpdatedAt = now
	r.IncrementVersion()

	return nil
}

// SetDueDate sets the quote deadline. Only allowed in draft
func (r *RFQ) SetDueDate(due time.Time) error {
	if r.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Due date can only change while the RFQ is a draft")
	}
	if !due.After(time.Now()) {
		return shared.NewDomainError("INVALID_DUE_DATE", "Due date must be in the future")
	}

	r.DueDate = &due
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return nil
}

// Send dispatches the RFQ to the invited vendors
func (r *RFQ) Send() error {
	if r.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATUS_TRANSITION", fmt.Sprintf("Cannot send RFQ in %s status", r.Status))
	}
	if len(r.Lines) == 0 {
		return shared.NewDomainError("NO_LINES", "Cannot send an RFQ without line items")
	}
	if len(r.Invitations) == 0 {
		return shared.NewDomainError("NO_INVITATIONS", "Cannot send an RFQ without invited vendors")
	}

	now := time.Now()
	r.Status = StatusSent
	r.SentAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewRfqSentEvent(r))

	return nil
}

// IsInvited reports whether the vendor is on the invitation list
func (r *RFQ) IsInvited(vendorID uuid.UUID) bool {
	return r.findInvitation(vendorID) != nil
}

func (r *RFQ) findInvitation(vendorID uuid.UUID) *Invitation {
	for i := range r.Invitations {
		if r.Invitations[i].VendorID == vendorID {
			return &r.Invitations[i]
		}
	}
	return nil
}

// FindQuote returns the vendor's quote, or nil when none was recorded
func (r *RFQ) FindQuote(vendorID uuid.UUID) *Quote {
	for i := range r.Quotes {
		if r.Quotes[i].VendorID == vendorID {
			return &r.Quotes[i]
		}
	}
	return nil
}

// RecordQuote stores a vendor's response. Every requested line must be
// priced; each invited vendor quotes at most once
func (r *RFQ) RecordQuote(vendorID uuid.UUID, prices []LinePrice, notes string) (*Quote, error) {
	if r.Status != StatusSent && r.Status != StatusQuoted {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot record a quote on an RFQ in %s status", r.Status))
	}
	invitation := r.findInvitation(vendorID)
	if invitation == nil {
		return nil, shared.NewDomainError("NOT_INVITED", "Vendor was not invited to this RFQ")
	}
	if r.FindQuote(vendorID) != nil {
		return nil, shared.NewDomainError("DUPLICATE_QUOTE", "Vendor has already quoted")
	}
	if r.DueDate != nil && time.Now().After(*r.DueDate) {
		return nil, shared.NewDomainError("PAST_DUE", "Quote deadline has passed")
	}

	priced := make(map[uuid.UUID]int64, len(prices))
	for _, p := range prices {
		if p.UnitPriceCents <= 0 {
			return nil, shared.NewDomainError("INVALID_PRICE", "Unit price must be positive")
		}
		priced[p.RfqLineItemID] = p.UnitPriceCents
	}

	now := time.Now()
	quote := Quote{
		ID:          uuid.New(),
		RfqID:       r.ID,
		VendorID:    vendorID,
		Lines:       make([]QuoteLine, 0, len(r.Lines)),
		Notes:       strings.TrimSpace(notes),
		SubmittedAt: now,
	}
	var total int64
	for i := range r.Lines {
		line := &r.Lines[i]
		unitPrice, ok := priced[line.ID]
		if !ok {
			return nil, shared.NewDomainError("UNPRICED_LINE", fmt.Sprintf("Quote is missing a price for line %q", line.Description))
		}
		lineTotal := int64(line.Quantity) * unitPrice
		quote.Lines = append(quote.Lines, QuoteLine{
			ID:             uuid.New(),
			QuoteID:        quote.ID,
			RfqLineItemID:  line.ID,
			UnitPriceCents: unitPrice,
			TotalCents:     lineTotal,
		})
		total += lineTotal
	}
	quote.TotalCents = total

	r.Quotes = append(r.Quotes, quote)
	invitation.Status = InvitationQuoted
	invitation.RespondedAt = &now
	if r.Status == StatusSent {
		r.Status = StatusQuoted
	}
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewQuoteRecordedEvent(r, vendorID, total))

	return &quote, nil
}

// DeclineInvitation marks a vendor as not quoting
func (r *RFQ) DeclineInvitation(vendorID uuid.UUID) error {
	if r.Status != StatusSent && r.Status != StatusQuoted {
		return shared.NewDomainError("INVALID_STATE", "Invitations can only be declined after the RFQ is sent")
	}
	invitation := r.findInvitation(vendorID)
	if invitation == nil {
		return shared.NewDomainError("NOT_INVITED", "Vendor was not invited to this RFQ")
	}
	if invitation.Status != InvitationInvited {
		return shared.NewDomainError("ALREADY_RESPONDED", "Vendor has already responded")
	}

	now := time.Now()
	invitation.Status = InvitationDeclined
	invitation.RespondedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()

	return nil
}

// Award picks the winning vendor. The vendor must have quoted
func (r *RFQ) Award(vendorID uuid.UUID) error {
	if !r.Status.CanTransitionTo(StatusAwarded) {
		return shared.NewDomainError("INVALID_STATUS_TRANSITION", fmt.Sprintf("Cannot award an RFQ in %s status", r.Status))
	}
	if r.FindQuote(vendorID) == nil {
		return shared.NewDomainError("NO_QUOTE", "Cannot award to a vendor without a quote")
	}

	now := time.Now()
	r.Status = StatusAwarded
	r.AwardedVendorID = &vendorID
	r.AwardedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewRfqAwardedEvent(r, vendorID))

	return nil
}

// WinningQuote returns the awarded vendor's quote. Callers use it to
// seed a purchase order
func (r *RFQ) WinningQuote() *Quote {
	if r.AwardedVendorID == nil {
		return nil
	}
	return r.FindQuote(*r.AwardedVendorID)
}

// Cancel abandons the RFQ
func (r *RFQ) Cancel(reason string) error {
	if !r.Status.CanTransitionTo(StatusCancelled) {
		return shared.NewDomainError("INVALID_STATUS_TRANSITION", fmt.Sprintf("Cannot cancel an RFQ in %s status", r.Status))
	}

	r.Status = StatusCancelled
	r.CancelReason = strings.TrimSpace(reason)
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	r.AddDomainEvent(NewRfqCancelledEvent(r, r.CancelReason))

	return nil
}
