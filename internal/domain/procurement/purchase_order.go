package procurement

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

// PurchaseOrderStatus represents the state of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft              PurchaseOrderStatus = "DRAFT"
	PurchaseOrderStatusIssued             PurchaseOrderStatus = "ISSUED"
	PurchaseOrderStatusAcknowledged       PurchaseOrderStatus = "ACKNOWLEDGED"
	PurchaseOrderStatusPartiallyFulfilled PurchaseOrderStatus = "PARTIALLY_FULFILLED"
	PurchaseOrderStatusFulfilled          PurchaseOrderStatus = "FULFILLED"
	PurchaseOrderStatusClosed             PurchaseOrderStatus = "CLOSED"
	PurchaseOrderStatusCancelled          PurchaseOrderStatus = "CANCELLED"
)

// IsValid checks if the status is a valid PurchaseOrderStatus
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case PurchaseOrderStatusDraft, PurchaseOrderStatusIssued, PurchaseOrderStatusAcknowledged,
		PurchaseOrderStatusPartiallyFulfilled, PurchaseOrderStatusFulfilled,
		PurchaseOrderStatusClosed, PurchaseOrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PurchaseOrderStatus
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// IsTerminal returns true for states with no outgoing transitions
func (s PurchaseOrderStatus) IsTerminal() bool {
	return s == PurchaseOrderStatusClosed || s == PurchaseOrderStatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	if target == PurchaseOrderStatusCancelled {
		return !s.IsTerminal()
	}
	switch s {
	case PurchaseOrderStatusDraft:
		return target == PurchaseOrderStatusIssued
	case PurchaseOrderStatusIssued:
		return target == PurchaseOrderStatusAcknowledged ||
			target == PurchaseOrderStatusPartiallyFulfilled ||
			target == PurchaseOrderStatusFulfilled
	case PurchaseOrderStatusAcknowledged:
		return target == PurchaseOrderStatusPartiallyFulfilled ||
			target == PurchaseOrderStatusFulfilled
	case PurchaseOrderStatusPartiallyFulfilled:
		return target == PurchaseOrderStatusPartiallyFulfilled ||
			target == PurchaseOrderStatusFulfilled
	case PurchaseOrderStatusFulfilled:
		return target == PurchaseOrderStatusClosed
	}
	return false
}

// CanReceive returns true if goods can be received against this status
func (s PurchaseOrderStatus) CanReceive() bool {
	return s == PurchaseOrderStatusIssued ||
		s == PurchaseOrderStatusAcknowledged ||
		s == PurchaseOrderStatusPartiallyFulfilled
}

// PoLineItem represents a line item in a purchase order
type PoLineItem struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	OrderID          uuid.UUID `gorm:"type:uuid;not null;index"`
	Description      string    `gorm:"type:varchar(500);not null"`
	Quantity         int       `gorm:"not null;check:quantity > 0"`
	UnitPriceCents   int64     `gorm:"not null;check:unit_price_cents > 0"`
	TotalCents       int64     `gorm:"not null"`
	ReceivedQuantity int       `gorm:"not null;default:0;check:received_quantity >= 0 AND received_quantity <= quantity"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PoLineItem) TableName() string {
	return "po_line_items"
}

// NewPoLineItem creates a new purchase order line item
func NewPoLineItem(orderID uuid.UUID, description string, quantity int, unitPriceCents int64) (*PoLineItem, error) {
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
	return &PoLineItem{
		ID:               uuid.New(),
		OrderID:          orderID,
		Description:      description,
		Quantity:         quantity,
		UnitPriceCents:   unitPriceCents,
		TotalCents:       int64(quantity) * unitPriceCents,
		ReceivedQuantity: 0,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// RemainingQuantity returns what can still be received against this line
func (i *PoLineItem) RemainingQuantity() int {
	return i.Quantity - i.ReceivedQuantity
}

// IsFullyReceived returns true when the ordered quantity has arrived
func (i *PoLineItem) IsFullyReceived() bool {
	return i.ReceivedQuantity >= i.Quantity
}

// AddReceivedQuantity increments the received quantity, never past the
// ordered quantity
func (i *PoLineItem) AddReceivedQuantity(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Received quantity must be positive")
	}
	if i.ReceivedQuantity+quantity > i.Quantity {
		return shared.NewDomainError("OVER_RECEIPT",
			fmt.Sprintf("Receiving %d would exceed ordered quantity: %d of %d already received",
				quantity, i.ReceivedQuantity, i.Quantity))
	}

	i.ReceivedQuantity += quantity
	i.UpdatedAt = time.Now()

	return nil
}

// PurchaseOrder represents an order issued to a vendor
// It is the aggregate root for the order side of the procure-to-pay flow
type PurchaseOrder struct {
	shared.TenantAggregateRoot
	PoNumber             string              `gorm:"type:varchar(50);not null;uniqueIndex:idx_po_tenant_number,priority:2"`
	RequestID            *uuid.UUID          `gorm:"type:uuid;index"` // Parent PR, when created from one
	VendorID             uuid.UUID           `gorm:"type:uuid;not null;index"`
	VendorName           string              `gorm:"type:varchar(200);not null"`
	Lines                []PoLineItem        `gorm:"foreignKey:OrderID;references:ID"`
	TotalCents           int64               `gorm:"not null;default:0"`
	Status               PurchaseOrderStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	IssuedAt             *time.Time
	AcknowledgedAt       *time.Time
	ExpectedDeliveryDate *time.Time
	CancelledAt          *time.Time
	CancelReason         string `gorm:"type:varchar(500)"`
	DocumentKey          string `gorm:"type:varchar(500)"` // Rendered order document in object storage
}

// TableName returns the table name for GORM
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// NewPurchaseOrder creates a new purchase order in draft status
func NewPurchaseOrder(tenantID uuid.UUID, poNumber string, vendorID uuid.UUID, vendorName string) (*PurchaseOrder, error) {
	if poNumber == "" {
		return nil, shared.NewDomainError("INVALID_PO_NUMBER", "PO number cannot be empty")
	}
	if vendorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VENDOR", "Vendor is required")
	}
	if vendorName == "" {
		return nil, shared.NewDomainError("INVALID_VENDOR_NAME", "Vendor name cannot be empty")
	}

	po := &PurchaseOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PoNumber:            poNumber,
		VendorID:            vendorID,
		VendorName:          vendorName,
		Lines:               make([]PoLineItem, 0),
		Status:              PurchaseOrderStatusDraft,
	}

	po.AddDomainEvent(NewPurchaseOrderCreatedEvent(po))

	return po, nil
}

// NewPurchaseOrderFromRequest creates an issued purchase order carrying
// the lines of an approved purchase request
func NewPurchaseOrderFromRequest(poNumber string, pr *PurchaseRequest, vendorID uuid.UUID, vendorName string) (*PurchaseOrder, error) {
	if !pr.IsApproved() {
		return nil, shared.NewDomainError("INVALID_STATE", "Purchase orders can only be created from approved requests")
	}

	po, err := NewPurchaseOrder(pr.TenantID, poNumber, vendorID, vendorName)
	if err != nil {
		return nil, err
	}

	po.RequestID = &pr.ID
	for _, prLine := range pr.Lines {
		if _, err := po.AddLine(prLine.Description, prLine.Quantity, prLine.UnitPriceCents); err != nil {
			return nil, err
		}
	}

	if err := po.Issue(); err != nil {
		return nil, err
	}

	return po, nil
}

// AddLine adds a line item. Only allowed in DRAFT status
func (po *PurchaseOrder) AddLine(description string, quantity int, unitPriceCents int64) (*PoLineItem, error) {
	if po.Status != PurchaseOrderStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add lines to a non-draft order")
	}

	line, err := NewPoLineItem(po.ID, description, quantity, unitPriceCents)
	if err != nil {
		return nil, err
	}

	po.Lines = append(po.Lines, *line)
	po.recalculateTotal()
	po.UpdatedAt = time.Now()
	po.IncrementVersion()

	return line, nil
}

// SetExpectedDelivery sets the expected delivery date
func (po *PurchaseOrder) SetExpectedDelivery(date time.Time) error {
	if po.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot set delivery date on a closed or cancelled order")
	}

	po.ExpectedDeliveryDate = &date
	po.UpdatedAt = time.Now()
	po.IncrementVersion()

	return nil
}

// Issue sends the order to the vendor and stamps issued_at
func (po *PurchaseOrder) Issue() error {
	if !po.Status.CanTransitionTo(PurchaseOrderStatusIssued) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot issue order in %s status", po.Status))
	}
	if len(po.Lines) == 0 {
		return shared.NewDomainError("NO_LINES", "Cannot issue an order without line items")
	}

	now := time.Now()
	po.Status = PurchaseOrderStatusIssued
	po.IssuedAt = &now
	po.UpdatedAt = now
	po.IncrementVersion()

	po.AddDomainEvent(NewPurchaseOrderIssuedEvent(po))

	return nil
}

// SetDocument records the storage key of the rendered order document
func (po *PurchaseOrder) SetDocument(documentKey string) {
	po.DocumentKey = documentKey
	po.UpdatedAt = time.Now()
	po.IncrementVersion()
}

// Acknowledge records the vendor's acceptance of the order
func (po *PurchaseOrder) Acknowledge() error {
	if !po.Status.CanTransitionTo(PurchaseOrderStatusAcknowledged) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot acknowledge order in %s status", po.Status))
	}

	now := time.Now()
	po.Status = PurchaseOrderStatusAcknowledged
	po.AcknowledgedAt = &now
	po.UpdatedAt = now
	po.IncrementVersion()

	po.AddDomainEvent(NewPurchaseOrderAcknowledgedEvent(po))

	return nil
}

// FindLine returns the line with the given ID, or nil
func (po *PurchaseOrder) FindLine(lineID uuid.UUID) *PoLineItem {
	for idx := range po.Lines {
		if po.Lines[idx].ID == lineID {
			return &po.Lines[idx]
		}
	}
	return nil
}

// ReceiveLine records received goods against one line and refreshes the
// order's fulfillment status
func (po *PurchaseOrder) ReceiveLine(lineID uuid.UUID, quantity int) error {
	if !po.Status.CanReceive() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot receive goods for order in %s status", po.Status))
	}

	line := po.FindLine(lineID)
	if line == nil {
		return shared.NewDomainError("LINE_NOT_FOUND", "Order line not found")
	}

	if err := line.AddReceivedQuantity(quantity); err != nil {
		return err
	}

	po.refreshFulfillment()
	po.UpdatedAt = time.Now()
	po.IncrementVersion()

	return nil
}

// IsFullyReceived returns true when every line is fully received
func (po *PurchaseOrder) IsFullyReceived() bool {
	if len(po.Lines) == 0 {
		return false
	}
	for idx := range po.Lines {
		if !po.Lines[idx].IsFullyReceived() {
			return false
		}
	}
	return true
}

func (po *PurchaseOrder) refreshFulfillment() {
	old := po.Status
	if po.IsFullyReceived() {
		po.Status = PurchaseOrderStatusFulfilled
	} else {
		po.Status = PurchaseOrderStatusPartiallyFulfilled
	}
	if old != po.Status {
		po.AddDomainEvent(NewPurchaseOrderFulfillmentChangedEvent(po, old, po.Status))
	}
}

// Cancel cancels the order. Callers release the parent request's budget
// reservation
func (po *PurchaseOrder) Cancel(reason string) error {
	if !po.Status.CanTransitionTo(PurchaseOrderStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel order in %s status", po.Status))
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	po.Status = PurchaseOrderStatusCancelled
	po.CancelledAt = &now
	po.CancelReason = strings.TrimSpace(reason)
	po.UpdatedAt = now
	po.IncrementVersion()

	po.AddDomainEvent(NewPurchaseOrderCancelledEvent(po, reason))

	return nil
}

// Close closes out a fulfilled order
func (po *PurchaseOrder) Close() error {
	if !po.Status.CanTransitionTo(PurchaseOrderStatusClosed) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot close order in %s status", po.Status))
	}

	po.Status = PurchaseOrderStatusClosed
	po.UpdatedAt = time.Now()
	po.IncrementVersion()

	po.AddDomainEvent(NewPurchaseOrderClosedEvent(po))

	return nil
}

func (po *PurchaseOrder) recalculateTotal() {
	var total int64
	for _, line := range po.Lines {
		total += line.TotalCents
	}
	po.TotalCents = total
}
