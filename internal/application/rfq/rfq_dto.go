package rfq

import (
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/rfq"
)

// CreateRfqRequest opens a draft RFQ with its requested lines and the
// vendors invited to quote
type CreateRfqRequest struct {
	Title       string           `json:"title" binding:"required,max=200"`
	Description string           `json:"description" binding:"omitempty,max=2000"`
	DueDate     *time.Time       `json:"due_date"`
	Lines       []RfqLineRequest `json:"lines" binding:"required,min=1,dive"`
	VendorIDs   []uuid.UUID      `json:"vendor_ids" binding:"required,min=1"`
}

// RfqLineRequest describes one requested line
type RfqLineRequest struct {
	Description string `json:"description" binding:"required,max=500"`
	Quantity    int    `json:"quantity" binding:"required,min=1"`
}

// RecordQuoteRequest carries a vendor's prices. Every RFQ line must be
// priced exactly once
type RecordQuoteRequest struct {
	VendorID uuid.UUID          `json:"vendor_id" binding:"required"`
	Lines    []QuoteLineRequest `json:"lines" binding:"required,min=1,dive"`
	Notes    string             `json:"notes" binding:"omitempty,max=2000"`
}

// QuoteLineRequest prices one RFQ line
type QuoteLineRequest struct {
	RfqLineItemID  uuid.UUID `json:"rfq_line_item_id" binding:"required"`
	UnitPriceCents int64     `json:"unit_price_cents" binding:"required,min=1"`
}

// DeclineInvitationRequest records that a vendor passed on the RFQ
type DeclineInvitationRequest struct {
	VendorID uuid.UUID `json:"vendor_id" binding:"required"`
}

// AwardRfqRequest picks the winning vendor. When CreateOrder is set the
// award also seeds a draft purchase order from the winning quote
type AwardRfqRequest struct {
	VendorID    uuid.UUID `json:"vendor_id" binding:"required"`
	CreateOrder bool      `json:"create_order"`
}

// CancelRfqRequest abandons an RFQ that will not be awarded
type CancelRfqRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// RfqListFilter represents filtering options for RFQ queries
type RfqListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status   string `form:"status" binding:"omitempty,oneof=DRAFT SENT QUOTED AWARDED CANCELLED"`
	Search   string `form:"search" binding:"omitempty,max=100"`
}

// RfqLineResponse represents a requested line in API responses
type RfqLineResponse struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Quantity    int       `json:"quantity"`
}

// InvitationResponse represents a vendor invitation in API responses
type InvitationResponse struct {
	VendorID    uuid.UUID  `json:"vendor_id"`
	Status      string     `json:"status"`
	InvitedAt   time.Time  `json:"invited_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

// QuoteLineResponse represents one priced line of a quote
type QuoteLineResponse struct {
	RfqLineItemID  uuid.UUID `json:"rfq_line_item_id"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	TotalCents     int64     `json:"total_cents"`
}

// QuoteResponse represents a vendor quote in API responses
type QuoteResponse struct {
	VendorID    uuid.UUID           `json:"vendor_id"`
	Lines       []QuoteLineResponse `json:"lines"`
	TotalCents  int64               `json:"total_cents"`
	Notes       string              `json:"notes,omitempty"`
	SubmittedAt time.Time           `json:"submitted_at"`
}

// RfqResponse represents an RFQ in API responses
type RfqResponse struct {
	ID              uuid.UUID            `json:"id"`
	RfqNumber       string               `json:"rfq_number"`
	Title           string               `json:"title"`
	Description     string               `json:"description,omitempty"`
	Status          rfq.Status           `json:"status"`
	DueDate         *time.Time           `json:"due_date,omitempty"`
	Lines           []RfqLineResponse    `json:"lines"`
	Invitations     []InvitationResponse `json:"invitations"`
	Quotes          []QuoteResponse      `json:"quotes"`
	SentAt          *time.Time           `json:"sent_at,omitempty"`
	AwardedVendorID *uuid.UUID           `json:"awarded_vendor_id,omitempty"`
	AwardedAt       *time.Time           `json:"awarded_at,omitempty"`
	CancelReason    string               `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// AwardResult reports the outcome of an award: the updated RFQ and, when
// order seeding was requested, the draft order cut from the winning quote
type AwardResult struct {
	Rfq      RfqResponse `json:"rfq"`
	OrderID  *uuid.UUID  `json:"order_id,omitempty"`
	PoNumber string      `json:"po_number,omitempty"`
}

// ToRfqResponse converts an RFQ to a response DTO
func ToRfqResponse(r *rfq.RFQ) RfqResponse {
	lines := make([]RfqLineResponse, len(r.Lines))
	for i, line := range r.Lines {
		lines[i] = RfqLineResponse{
			ID:          line.ID,
			Description: line.Description,
			Quantity:    line.Quantity,
		}
	}

	invitations := make([]InvitationResponse, len(r.Invitations))
	for i, inv := range r.Invitations {
		invitations[i] = InvitationResponse{
			VendorID:    inv.VendorID,
			Status:      string(inv.Status),
			InvitedAt:   inv.InvitedAt,
			RespondedAt: inv.RespondedAt,
		}
	}

	quotes := make([]QuoteResponse, len(r.Quotes))
	for i, quote := range r.Quotes {
		quoteLines := make([]QuoteLineResponse, len(quote.Lines))
		for j, ql := range quote.Lines {
			quoteLines[j] = QuoteLineResponse{
				RfqLineItemID:  ql.RfqLineItemID,
				UnitPriceCents: ql.UnitPriceCents,
				TotalCents:     ql.TotalCents,
			}
		}
		quotes[i] = QuoteResponse{
			VendorID:    quote.VendorID,
			Lines:       quoteLines,
			TotalCents:  quote.TotalCents,
			Notes:       quote.Notes,
			SubmittedAt: quote.SubmittedAt,
		}
	}

	return RfqResponse{
		ID:              r.ID,
		RfqNumber:       r.RfqNumber,
		Title:           r.Title,
		Description:     r.Description,
		Status:          r.Status,
		DueDate:         r.DueDate,
		Lines:           lines,
		Invitations:     invitations,
		Quotes:          quotes,
		SentAt:          r.SentAt,
		AwardedVendorID: r.AwardedVendorID,
		AwardedAt:       r.AwardedAt,
		CancelReason:    r.CancelReason,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}
