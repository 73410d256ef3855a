package procurement

import (
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/procurement"
)

// LineItemInput carries one request or order line from the client
type LineItemInput struct {
	Description    string `json:"description" binding:"required,max=500"`
	Quantity       int    `json:"quantity" binding:"required,gt=0"`
	UnitPriceCents int64  `json:"unit_price_cents" binding:"required,gt=0"`
}

// CreatePurchaseRequestRequest represents a request to create a draft PR
type CreatePurchaseRequestRequest struct {
	DepartmentID  uuid.UUID       `json:"department_id" binding:"required"`
	Title         string          `json:"title" binding:"required,max=200"`
	Justification string          `json:"justification" binding:"omitempty,max=4000"`
	Lines         []LineItemInput `json:"lines" binding:"omitempty,dive"`
}

// UpdatePurchaseRequestRequest represents a draft update. Nil fields are
// left unchanged; a non-nil Lines slice replaces all lines
type UpdatePurchaseRequestRequest struct {
	Title         *string          `json:"title" binding:"omitempty,max=200"`
	Justification *string          `json:"justification" binding:"omitempty,max=4000"`
	Lines         *[]LineItemInput `json:"lines" binding:"omitempty,dive"`
}

// PurchaseRequestListFilter represents filter options for the PR list
type PurchaseRequestListFilter struct {
	Status       string `form:"status" binding:"omitempty,oneof=DRAFT PENDING APPROVED REJECTED CANCELLED"`
	RequesterID  string `form:"requester_id" binding:"omitempty,uuid"`
	DepartmentID string `form:"department_id" binding:"omitempty,uuid"`
	Search       string `form:"search" binding:"omitempty,max=200"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy      string `form:"order_by"`
	OrderDir     string `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// LineItemResponse represents a PR line in API responses
type LineItemResponse struct {
	ID             uuid.UUID `json:"id"`
	Description    string    `json:"description"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	TotalCents     int64     `json:"total_cents"`
}

// PurchaseRequestResponse represents a purchase request in API responses
type PurchaseRequestResponse struct {
	ID              uuid.UUID                         `json:"id"`
	PrNumber        string                            `json:"pr_number"`
	RequesterID     uuid.UUID                         `json:"requester_id"`
	DepartmentID    uuid.UUID                         `json:"department_id"`
	Title           string                            `json:"title"`
	Justification   string                            `json:"justification,omitempty"`
	Lines           []LineItemResponse                `json:"lines"`
	TotalCents      int64                             `json:"total_cents"`
	Status          procurement.PurchaseRequestStatus `json:"status"`
	SubmittedAt     *time.Time                        `json:"submitted_at,omitempty"`
	ApprovedAt      *time.Time                        `json:"approved_at,omitempty"`
	RejectionReason string                            `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time                         `json:"created_at"`
	UpdatedAt       time.Time                         `json:"updated_at"`
	Version         int                               `json:"version"`
}

// SubmitResponse reports the outcome of a PR submission
type SubmitResponse struct {
	Request       PurchaseRequestResponse `json:"request"`
	ReservationID uuid.UUID               `json:"reservation_id"`
	ChainLevels   int                     `json:"chain_levels"`
}

// CreatePurchaseOrderRequest represents a request to cut a PO from an
// approved purchase request
type CreatePurchaseOrderRequest struct {
	RequestID            uuid.UUID  `json:"request_id" binding:"required"`
	VendorID             uuid.UUID  `json:"vendor_id" binding:"required"`
	ExpectedDeliveryDate *time.Time `json:"expected_delivery_date"`
}

// CancelPurchaseOrderRequest carries the mandatory cancellation reason
type CancelPurchaseOrderRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// PurchaseOrderListFilter represents filter options for the PO list
type PurchaseOrderListFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=DRAFT ISSUED ACKNOWLEDGED PARTIALLY_FULFILLED FULFILLED CLOSED CANCELLED"`
	VendorID string `form:"vendor_id" binding:"omitempty,uuid"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// OrderLineResponse represents a PO line in API responses
type OrderLineResponse struct {
	ID                uuid.UUID `json:"id"`
	Description       string    `json:"description"`
	Quantity          int       `json:"quantity"`
	UnitPriceCents    int64     `json:"unit_price_cents"`
	TotalCents        int64     `json:"total_cents"`
	ReceivedQuantity  int       `json:"received_quantity"`
	RemainingQuantity int       `json:"remaining_quantity"`
}

// PurchaseOrderResponse represents a purchase order in API responses
type PurchaseOrderResponse struct {
	ID                   uuid.UUID                       `json:"id"`
	PoNumber             string                          `json:"po_number"`
	RequestID            *uuid.UUID                      `json:"request_id,omitempty"`
	VendorID             uuid.UUID                       `json:"vendor_id"`
	VendorName           string                          `json:"vendor_name"`
	Lines                []OrderLineResponse             `json:"lines"`
	TotalCents           int64                           `json:"total_cents"`
	Status               procurement.PurchaseOrderStatus `json:"status"`
	IssuedAt             *time.Time                      `json:"issued_at,omitempty"`
	AcknowledgedAt       *time.Time                      `json:"acknowledged_at,omitempty"`
	ExpectedDeliveryDate *time.Time                      `json:"expected_delivery_date,omitempty"`
	CancelledAt          *time.Time                      `json:"cancelled_at,omitempty"`
	CancelReason         string                          `json:"cancel_reason,omitempty"`
	HasDocument          bool                            `json:"has_document"`
	CreatedAt            time.Time                       `json:"created_at"`
	UpdatedAt            time.Time                       `json:"updated_at"`
	Version              int                             `json:"version"`
}

// ReceiptLineInput records goods received against one PO line
type ReceiptLineInput struct {
	PoLineItemID     uuid.UUID `json:"po_line_item_id" binding:"required"`
	QuantityReceived int       `json:"quantity_received" binding:"required,gt=0"`
	Condition        string    `json:"condition" binding:"omitempty,oneof=GOOD DAMAGED PARTIAL"`
}

// CreateReceiptRequest represents a goods receipt posting
type CreateReceiptRequest struct {
	OrderID     uuid.UUID          `json:"order_id" binding:"required"`
	ReceiptDate *time.Time         `json:"receipt_date"`
	Notes       string             `json:"notes" binding:"omitempty,max=4000"`
	Lines       []ReceiptLineInput `json:"lines" binding:"required,min=1,dive"`
}

// ReceiptListFilter represents filter options for the receipt list
type ReceiptListFilter struct {
	OrderID  string `form:"order_id" binding:"omitempty,uuid"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// ReceiptLineResponse represents a receipt line in API responses
type ReceiptLineResponse struct {
	ID               uuid.UUID                 `json:"id"`
	PoLineItemID     uuid.UUID                 `json:"po_line_item_id"`
	QuantityReceived int                       `json:"quantity_received"`
	Condition        procurement.LineCondition `json:"condition"`
}

// ReceiptResponse represents a goods receipt in API responses
type ReceiptResponse struct {
	ID            uuid.UUID                 `json:"id"`
	ReceiptNumber string                    `json:"receipt_number"`
	OrderID       uuid.UUID                 `json:"order_id"`
	ReceiverID    uuid.UUID                 `json:"receiver_id"`
	ReceiptDate   time.Time                 `json:"receipt_date"`
	Lines         []ReceiptLineResponse     `json:"lines"`
	Status        procurement.ReceiptStatus `json:"status"`
	Notes         string                    `json:"notes,omitempty"`
	CreatedAt     time.Time                 `json:"created_at"`
}

// ToPurchaseRequestResponse converts a purchase request to a response DTO
func ToPurchaseRequestResponse(pr *procurement.PurchaseRequest) PurchaseRequestResponse {
	lines := make([]LineItemResponse, 0, len(pr.Lines))
	for _, line := range pr.Lines {
		lines = append(lines, LineItemResponse{
			ID:             line.ID,
			Description:    line.Description,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			TotalCents:     line.TotalCents,
		})
	}

	return PurchaseRequestResponse{
		ID:              pr.ID,
		PrNumber:        pr.PrNumber,
		RequesterID:     pr.RequesterID,
		DepartmentID:    pr.DepartmentID,
		Title:           pr.Title,
		Justification:   pr.Justification,
		Lines:           lines,
		TotalCents:      pr.TotalCents,
		Status:          pr.Status,
		SubmittedAt:     pr.SubmittedAt,
		ApprovedAt:      pr.ApprovedAt,
		RejectionReason: pr.RejectionReason,
		CreatedAt:       pr.CreatedAt,
		UpdatedAt:       pr.UpdatedAt,
		Version:         pr.Version,
	}
}

// ToPurchaseOrderResponse converts a purchase order to a response DTO
func ToPurchaseOrderResponse(po *procurement.PurchaseOrder) PurchaseOrderResponse {
	lines := make([]OrderLineResponse, 0, len(po.Lines))
	for idx := range po.Lines {
		line := &po.Lines[idx]
		lines = append(lines, OrderLineResponse{
			ID:                line.ID,
			Description:       line.Description,
			Quantity:          line.Quantity,
			UnitPriceCents:    line.UnitPriceCents,
			TotalCents:        line.TotalCents,
			ReceivedQuantity:  line.ReceivedQuantity,
			RemainingQuantity: line.RemainingQuantity(),
		})
	}

	return PurchaseOrderResponse{
		ID:                   po.ID,
		PoNumber:             po.PoNumber,
		RequestID:            po.RequestID,
		VendorID:             po.VendorID,
		VendorName:           po.VendorName,
		Lines:                lines,
		TotalCents:           po.TotalCents,
		Status:               po.Status,
		IssuedAt:             po.IssuedAt,
		AcknowledgedAt:       po.AcknowledgedAt,
		ExpectedDeliveryDate: po.ExpectedDeliveryDate,
		CancelledAt:          po.CancelledAt,
		CancelReason:         po.CancelReason,
		HasDocument:          po.DocumentKey != "",
		CreatedAt:            po.CreatedAt,
		UpdatedAt:            po.UpdatedAt,
		Version:              po.Version,
	}
}

// ToReceiptResponse converts a receipt to a response DTO
func ToReceiptResponse(r *procurement.Receipt) ReceiptResponse {
	lines := make([]ReceiptLineResponse, 0, len(r.Lines))
	for _, line := range r.Lines {
		lines = append(lines, ReceiptLineResponse{
			ID:               line.ID,
			PoLineItemID:     line.PoLineItemID,
			QuantityReceived: line.QuantityReceived,
			Condition:        line.Condition,
		})
	}

	return ReceiptResponse{
		ID:            r.ID,
		ReceiptNumber: r.ReceiptNumber,
		OrderID:       r.OrderID,
		ReceiverID:    r.ReceiverID,
		ReceiptDate:   r.ReceiptDate,
		Lines:         lines,
		Status:        r.Status,
		Notes:         r.Notes,
		CreatedAt:     r.CreatedAt,
	}
}
