package invoice

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/invoice"
)

// InvoiceLineInput carries one billed line from the vendor
type InvoiceLineInput struct {
	Description    string `json:"description" binding:"required,max=500"`
	Quantity       int    `json:"quantity" binding:"required,gt=0"`
	UnitPriceCents int64  `json:"unit_price_cents" binding:"required,gt=0"`
}

// CreateInvoiceRequest represents a vendor invoice upload
type CreateInvoiceRequest struct {
	VendorID      uuid.UUID          `json:"vendor_id" binding:"required"`
	OrderID       *uuid.UUID         `json:"order_id" binding:"omitempty"`
	InvoiceNumber string             `json:"invoice_number" binding:"required,max=100"`
	TotalCents    int64              `json:"total_cents" binding:"required,gt=0"`
	Currency      string             `json:"currency" binding:"omitempty,len=3"`
	DocumentKey   string             `json:"document_key" binding:"omitempty,max=500"`
	Lines         []InvoiceLineInput `json:"lines" binding:"omitempty,dive"`
}

// DisputeInvoiceRequest carries the vendor's reason for contesting a
// match exception
type DisputeInvoiceRequest struct {
	Reason string `json:"reason" binding:"required,max=2000"`
}

// InvoiceListFilter represents query params for listing invoices
type InvoiceListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status   string `form:"status" binding:"omitempty,oneof=UPLOADED MATCHED EXCEPTION DISPUTED APPROVED PAID"`
	VendorID string `form:"vendor_id" binding:"omitempty,uuid"`
}

// InvoiceLineResponse represents one billed line
type InvoiceLineResponse struct {
	ID             uuid.UUID `json:"id"`
	Description    string    `json:"description"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	TotalCents     int64     `json:"total_cents"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID                uuid.UUID             `json:"id"`
	InvoiceNumber     string                `json:"invoice_number"`
	VendorID          uuid.UUID             `json:"vendor_id"`
	OrderID           *uuid.UUID            `json:"order_id,omitempty"`
	Lines             []InvoiceLineResponse `json:"lines"`
	TotalCents        int64                 `json:"total_cents"`
	Currency          string                `json:"currency"`
	HasDocument       bool                  `json:"has_document"`
	Status            invoice.Status        `json:"status"`
	OcrStatus         invoice.OcrStatus     `json:"ocr_status"`
	OcrConfidence     float64               `json:"ocr_confidence,omitempty"`
	MatchStatus       invoice.MatchStatus   `json:"match_status,omitempty"`
	MatchExceptions   json.RawMessage       `json:"match_exceptions,omitempty"`
	DisputeReason     string                `json:"dispute_reason,omitempty"`
	ApprovedPaymentAt *time.Time            `json:"approved_payment_at,omitempty"`
	PaidAt            *time.Time            `json:"paid_at,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// MatchRunRequest asks for a three-way match of one invoice against a
// purchase order
type MatchRunRequest struct {
	OrderID   uuid.UUID `json:"po_id" binding:"required"`
	InvoiceID uuid.UUID `json:"invoice_id" binding:"required"`
}

// MatchResultResponse represents the stored outcome of the last match run
type MatchResultResponse struct {
	InvoiceID   uuid.UUID           `json:"invoice_id"`
	OrderID     *uuid.UUID          `json:"order_id,omitempty"`
	Status      invoice.Status      `json:"status"`
	MatchStatus invoice.MatchStatus `json:"match_status"`
	Exceptions  json.RawMessage     `json:"exceptions,omitempty"`
}

// ToInvoiceResponse converts an invoice aggregate to a response DTO
func ToInvoiceResponse(inv *invoice.Invoice) InvoiceResponse {
	lines := make([]InvoiceLineResponse, 0, len(inv.Lines))
	for _, line := range inv.Lines {
		lines = append(lines, InvoiceLineResponse{
			ID:             line.ID,
			Description:    line.Description,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			TotalCents:     line.TotalCents,
		})
	}

	return InvoiceResponse{
		ID:                inv.ID,
		InvoiceNumber:     inv.InvoiceNumber,
		VendorID:          inv.VendorID,
		OrderID:           inv.OrderID,
		Lines:             lines,
		TotalCents:        inv.TotalCents,
		Currency:          inv.Currency,
		HasDocument:       inv.DocumentKey != "",
		Status:            inv.Status,
		OcrStatus:         inv.OcrStatus,
		OcrConfidence:     inv.OcrConfidence,
		MatchStatus:       inv.MatchStatus,
		MatchExceptions:   rawJSON(inv.MatchExceptions),
		DisputeReason:     inv.DisputeReason,
		ApprovedPaymentAt: inv.ApprovedPaymentAt,
		PaidAt:            inv.PaidAt,
		CreatedAt:         inv.CreatedAt,
		UpdatedAt:         inv.UpdatedAt,
	}
}

// ToMatchResultResponse extracts the match view of an invoice
func ToMatchResultResponse(inv *invoice.Invoice) MatchResultResponse {
	return MatchResultResponse{
		InvoiceID:   inv.ID,
		OrderID:     inv.OrderID,
		Status:      inv.Status,
		MatchStatus: inv.MatchStatus,
		Exceptions:  rawJSON(inv.MatchExceptions),
	}
}

func rawJSON(s string) json.RawMessage {
	if s == "" {
		return nil
	}
	return json.RawMessage(s)
}
