package procurement

import (
	"github.com/procura/backend/internal/domain/shared"
)

// Aggregate type constants for the procurement context
const (
	AggregateTypePurchaseRequest = "PurchaseRequest"
	AggregateTypePurchaseOrder   = "PurchaseOrder"
	AggregateTypeReceipt         = "Receipt"
)

// Procurement domain event types
const (
	EventTypePurchaseRequestCreated   = "PurchaseRequestCreated"
	EventTypePurchaseRequestSubmitted = "PurchaseRequestSubmitted"
	EventTypePurchaseRequestApproved  = "PurchaseRequestApproved"
	EventTypePurchaseRequestRejected  = "PurchaseRequestRejected"
	EventTypePurchaseRequestCancelled = "PurchaseRequestCancelled"

	EventTypePurchaseOrderCreated            = "PurchaseOrderCreated"
	EventTypePurchaseOrderIssued             = "PurchaseOrderIssued"
	EventTypePurchaseOrderAcknowledged       = "PurchaseOrderAcknowledged"
	EventTypePurchaseOrderFulfillmentChanged = "PurchaseOrderFulfillmentChanged"
	EventTypePurchaseOrderCancelled          = "PurchaseOrderCancelled"
	EventTypePurchaseOrderClosed             = "PurchaseOrderClosed"

	EventTypeReceiptConfirmed = "ReceiptConfirmed"
)

// PurchaseRequestCreatedEvent is raised when a new purchase request is created
type PurchaseRequestCreatedEvent struct {
	shared.BaseDomainEvent
	PrNumber     string `json:"pr_number"`
	RequesterID  string `json:"requester_id"`
	DepartmentID string `json:"department_id"`
}

// NewPurchaseRequestCreatedEvent creates a new PurchaseRequestCreatedEvent
func NewPurchaseRequestCreatedEvent(pr *PurchaseRequest) *PurchaseRequestCreatedEvent {
	return &PurchaseRequestCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseRequestCreated, AggregateTypePurchaseRequest, pr.ID, pr.TenantID),
		PrNumber:        pr.PrNumber,
		RequesterID:     pr.RequesterID.String(),
		DepartmentID:    pr.DepartmentID.String(),
	}
}

// PurchaseRequestSubmittedEvent is raised when a request enters the approval flow
type PurchaseRequestSubmittedEvent struct {
	shared.BaseDomainEvent
	PrNumber   string `json:"pr_number"`
	TotalCents int64  `json:"total_cents"`
}

// NewPurchaseRequestSubmittedEvent creates a new PurchaseRequestSubmittedEvent
func NewPurchaseRequestSubmittedEvent(pr *PurchaseRequest) *PurchaseRequestSubmittedEvent {
	return &PurchaseRequestSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseRequestSubmitted, AggregateTypePurchaseRequest, pr.ID, pr.TenantID),
		PrNumber:        pr.PrNumber,
		TotalCents:      pr.TotalCents,
	}
}

// PurchaseRequestApprovedEvent is raised on final approval of a request
type PurchaseRequestApprovedEvent struct {
	shared.BaseDomainEvent
	PrNumber   string `json:"pr_number"`
	TotalCents int64  `json:"total_cents"`
}

// NewPurchaseRequestApprovedEvent creates a new PurchaseRequestApprovedEvent
func NewPurchaseRequestApprovedEvent(pr *PurchaseRequest) *PurchaseRequestApprovedEvent {
	return &PurchaseRequestApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseRequestApproved, AggregateTypePurchaseRequest, pr.ID, pr.TenantID),
		PrNumber:        pr.PrNumber,
		TotalCents:      pr.TotalCents,
	}
}

// PurchaseRequestRejectedEvent is raised when any approver rejects a request
type PurchaseRequestRejectedEvent struct {
	shared.BaseDomainEvent
	PrNumber string `json:"pr_number"`
	Reason   string `json:"reason"`
}

// NewPurchaseRequestRejectedEvent creates a new PurchaseRequestRejectedEvent
func NewPurchaseRequestRejectedEvent(pr *PurchaseRequest, reason string) *PurchaseRequestRejectedEvent {
	return &PurchaseRequestRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseRequestRejected, AggregateTypePurchaseRequest, pr.ID, pr.TenantID),
		PrNumber:        pr.PrNumber,
		Reason:          reason,
	}
}

// PurchaseRequestCancelledEvent is raised when the requester retracts a pending request
type PurchaseRequestCancelledEvent struct {
	shared.BaseDomainEvent
	PrNumber string `json:"pr_number"`
}

// NewPurchaseRequestCancelledEvent creates a new PurchaseRequestCancelledEvent
func NewPurchaseRequestCancelledEvent(pr *PurchaseRequest) *PurchaseRequestCancelledEvent {
	return &PurchaseRequestCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseRequestCancelled, AggregateTypePurchaseRequest, pr.ID, pr.TenantID),
		PrNumber:        pr.PrNumber,
	}
}

// PurchaseOrderCreatedEvent is raised when a new purchase order is created
type PurchaseOrderCreatedEvent struct {
	shared.BaseDomainEvent
	PoNumber string `json:"po_number"`
	VendorID string `json:"vendor_id"`
}

// NewPurchaseOrderCreatedEvent creates a new PurchaseOrderCreatedEvent
func NewPurchaseOrderCreatedEvent(po *PurchaseOrder) *PurchaseOrderCreatedEvent {
	return &PurchaseOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCreated, AggregateTypePurchaseOrder, po.ID, po.TenantID),
		PoNumber:        po.PoNumber,
		VendorID:        po.VendorID.String(),
	}
}

// PurchaseOrderIssuedEvent is raised when an order is issued to the vendor
type PurchaseOrderIssuedEvent struct {
	shared.BaseDomainEvent
	PoNumber   string `json:"po_number"`
	TotalCents int64  `json:"total_cents"`
}

// NewPurchaseOrderIssuedEvent creates a new PurchaseOrderIssuedEvent
func NewPurchaseOrderIssuedEvent(po *PurchaseOrder) *PurchaseOrderIssuedEvent {
	return &PurchaseOrderIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderIssued, AggregateTypePurchaseOrder, po.ID, po.TenantID),
		PoNumber:        po.PoNumber,
		TotalCents:      po.TotalCents,
	}
}

// PurchaseOrderAcknowledgedEvent is raised when the vendor accepts the order
type PurchaseOrderAcknowledgedEvent struct {
	shared.BaseDomainEvent
	PoNumber string `json:"po_number"`
}

// NewPurchaseOrderAcknowledgedEvent creates a new PurchaseOrderAcknowledgedEvent
func NewPurchaseOrderAcknowledgedEvent(po *PurchaseOrder) *PurchaseOrderAcknowledgedEvent {
	return &PurchaseOrderAcknowledgedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderAcknowledged, AggregateTypePurchaseOrder, po.ID, po.TenantID),
		PoNumber:        po.PoNumber,
	}
}

// PurchaseOrderFulfillmentChangedEvent is raised when receipts move the
// order between fulfillment states
type PurchaseOrderFulfillmentChangedEvent struct {
	shared.BaseDomainEvent
	OldStatus PurchaseOrderStatus `json:"old_status"`
	NewStatus PurchaseOrderStatus `json:"new_status"`
}

// NewPurchaseOrderFulfillmentChangedEvent creates a new PurchaseOrderFulfillmentChangedEvent
func NewPurchaseOrderFulfillmentChangedEvent(po *PurchaseOrder, oldStatus, newStatus PurchaseOrderStatus) *PurchaseOrderFulfillmentChangedEvent {
	return &PurchaseOrderFulfillmentChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderFulfillmentChanged, AggregateTypePurchaseOrder, po.ID, po.TenantID),
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}

// PurchaseOrderCancelledEvent is raised when an order is cancelled
type PurchaseOrderCancelledEvent struct {
	shared.BaseDomainEvent
	PoNumber string `json:"po_number"`
	Reason   string `json:"reason"`
}

// NewPurchaseOrderCancelledEvent creates a new PurchaseOrderCancelledEvent
func NewPurchaseOrderCancelledEvent(po *PurchaseOrder, reason string) *PurchaseOrderCancelledEvent {
	return &PurchaseOrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCancelled, AggregateTypePurchaseOrder, po.ID, po.TenantID),
		PoNumber:        po.PoNumber,
		Reason:          reason,
	}
}

// PurchaseOrderClosedEvent is raised when a fulfilled order is closed out
type PurchaseOrderClosedEvent struct {
	shared.BaseDomainEvent
	PoNumber string `json:"po_number"`
}

// NewPurchaseOrderClosedEvent creates a new PurchaseOrderClosedEvent
func NewPurchaseOrderClosedEvent(po *PurchaseOrder) *PurchaseOrderClosedEvent {
	return &PurchaseOrderClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderClosed, AggregateTypePurchaseOrder, po.ID, po.TenantID),
		PoNumber:        po.PoNumber,
	}
}

// ReceiptConfirmedEvent is raised when a goods receipt is confirmed
type ReceiptConfirmedEvent struct {
	shared.BaseDomainEvent
	ReceiptNumber string `json:"receipt_number"`
	OrderID       string `json:"order_id"`
}

// NewReceiptConfirmedEvent creates a new ReceiptConfirmedEvent
func NewReceiptConfirmedEvent(r *Receipt) *ReceiptConfirmedEvent {
	return &ReceiptConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceiptConfirmed, AggregateTypeReceipt, r.ID, r.TenantID),
		ReceiptNumber:   r.ReceiptNumber,
		OrderID:         r.OrderID.String(),
	}
}
