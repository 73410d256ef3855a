package procurement

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

// ReceiptStatus represents the state of a goods receipt
type ReceiptStatus string

const (
	ReceiptStatusDraft     ReceiptStatus = "DRAFT"
	ReceiptStatusConfirmed ReceiptStatus = "CONFIRMED"
	ReceiptStatusCancelled ReceiptStatus = "CANCELLED"
)

// IsValid checks if the status is a valid ReceiptStatus
func (s ReceiptStatus) IsValid() bool {
	switch s {
	case ReceiptStatusDraft, ReceiptStatusConfirmed, ReceiptStatusCancelled:
		return true
	}
	return false
}

// LineCondition describes the state of received goods
type LineCondition string

const (
	LineConditionGood    LineCondition = "GOOD"
	LineConditionDamaged LineCondition = "DAMAGED"
	LineConditionPartial LineCondition = "PARTIAL"
)

// IsValid checks if the condition is a known LineCondition
func (c LineCondition) IsValid() bool {
	switch c {
	case LineConditionGood, LineConditionDamaged, LineConditionPartial:
		return true
	}
	return false
}

// ReceiptLineItem records goods received against one purchase order line
type ReceiptLineItem struct {
	ID               uuid.UUID     `gorm:"type:uuid;primary_key"`
	ReceiptID        uuid.UUID     `gorm:"type:uuid;not null;index"`
	PoLineItemID     uuid.UUID     `gorm:"type:uuid;not null;index"`
	QuantityReceived int           `gorm:"not null;check:quantity_received > 0"`
	Condition        LineCondition `gorm:"type:varchar(20);not null;default:'GOOD'"`
	CreatedAt        time.Time     `gorm:"not null"`
	UpdatedAt        time.Time     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReceiptLineItem) TableName() string {
	return "receipt_line_items"
}

// NewReceiptLineItem creates a new receipt line item
func NewReceiptLineItem(receiptID, poLineItemID uuid.UUID, quantityReceived int, condition LineCondition) (*ReceiptLineItem, error) {
	if poLineItemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PO_LINE", "PO line reference is required")
	}
	if quantityReceived <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Received quantity must be positive")
	}
	if condition == "" {
		condition = LineConditionGood
	}
	if !condition.IsValid() {
		return nil, shared.NewDomainError("INVALID_CONDITION", "Unknown line condition: "+string(condition))
	}

	now := time.Now()
	return &ReceiptLineItem{
		ID:               uuid.New(),
		ReceiptID:        receiptID,
		PoLineItemID:     poLineItemID,
		QuantityReceived: quantityReceived,
		Condition:        condition,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Receipt records delivery of goods against a purchase order (a GRN)
type Receipt struct {
	shared.TenantAggregateRoot
	ReceiptNumber string            `gorm:"type:varchar(50);not null;uniqueIndex:idx_receipts_tenant_number,priority:2"`
	OrderID       uuid.UUID         `gorm:"type:uuid;not null;index"`
	ReceiverID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	ReceiptDate   time.Time         `gorm:"not null"`
	Lines         []ReceiptLineItem `gorm:"foreignKey:ReceiptID;references:ID"`
	Status        ReceiptStatus     `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	Notes         string            `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Receipt) TableName() string {
	return "receipts"
}

// NewReceipt creates a new receipt in draft status
func NewReceipt(tenantID uuid.UUID, receiptNumber string, orderID, receiverID uuid.UUID, receiptDate time.Time) (*Receipt, error) {
	if receiptNumber == "" {
		return nil, shared.NewDomainError("INVALID_RECEIPT_NUMBER", "Receipt number cannot be empty")
	}
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Purchase order is required")
	}
	if receiverID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RECEIVER", "Receiver is required")
	}
	if receiptDate.IsZero() {
		receiptDate = time.Now()
	}

	receipt := &Receipt{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ReceiptNumber:       receiptNumber,
		OrderID:             orderID,
		ReceiverID:          receiverID,
		ReceiptDate:         receiptDate,
		Lines:               make([]ReceiptLineItem, 0),
		Status:              ReceiptStatusDraft,
	}
	receipt.SetCreatedBy(receiverID)

	return receipt, nil
}

// AddLine adds a received line. Only allowed in DRAFT status
func (r *Receipt) AddLine(poLineItemID uuid.UUID, quantityReceived int, condition LineCondition) (*ReceiptLineItem, error) {
	if r.Status != ReceiptStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add lines to a non-draft receipt")
	}

	for _, line := range r.Lines {
		if line.PoLineItemID == poLineItemID {
			return nil, shared.NewDomainError("DUPLICATE_LINE", "PO line already received on this receipt")
		}
	}

	line, err := NewReceiptLineItem(r.ID, poLineItemID, quantityReceived, condition)
	if err != nil {
		return nil, err
	}

	r.Lines = append(r.Lines, *line)
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return line, nil
}

// SetNotes attaches free-form delivery notes
func (r *Receipt) SetNotes(notes string) {
	r.Notes = notes
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
}

// Confirm validates and confirms the receipt
func (r *Receipt) Confirm() error {
	if r.Status != ReceiptStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot confirm receipt in %s status", r.Status))
	}
	if len(r.Lines) == 0 {
		return shared.NewDomainError("NO_LINES", "Cannot confirm a receipt without line items")
	}

	r.Status = ReceiptStatusConfirmed
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	r.AddDomainEvent(NewReceiptConfirmedEvent(r))

	return nil
}

// Cancel voids a draft receipt
func (r *Receipt) Cancel() error {
	if r.Status != ReceiptStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel receipt in %s status", r.Status))
	}

	r.Status = ReceiptStatusCancelled
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return nil
}

// TotalQuantity sums the received quantities across lines
func (r *Receipt) TotalQuantity() int {
	var total int
	for _, line := range r.Lines {
		total += line.QuantityReceived
	}
	return total
}
