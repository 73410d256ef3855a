package procurement

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procura/backend/internal/domain/shared"
)

// PurchaseRequestStatus represents the state of a purchase request
type PurchaseRequestStatus string

const (
	PurchaseRequestStatusDraft     PurchaseRequestStatus = "DRAFT"
	PurchaseRequestStatusPending   PurchaseRequestStatus = "PENDING"
	PurchaseRequestStatusApproved  PurchaseRequestStatus = "APPROVED"
	PurchaseRequestStatusRejected  PurchaseRequestStatus = "REJECTED"
	PurchaseRequestStatusCancelled PurchaseRequestStatus = "CANCELLED"
)

// IsValid checks if the status is a valid PurchaseRequestStatus
func (s PurchaseRequestStatus) IsValid() bool {
	switch s {
	case PurchaseRequestStatusDraft, PurchaseRequestStatusPending, PurchaseRequestStatusApproved,
		PurchaseRequestStatusRejected, PurchaseRequestStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PurchaseRequestStatus
func (s PurchaseRequestStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s PurchaseRequestStatus) CanTransitionTo(target PurchaseRequestStatus) bool {
	switch s {
	case PurchaseRequestStatusDraft:
		return target == PurchaseRequestStatusPending
	case PurchaseRequestStatusPending:
		return target == PurchaseRequestStatusApproved ||
			target == PurchaseRequestStatusRejected ||
			target == PurchaseRequestStatusCancelled
	case PurchaseRequestStatusApproved, PurchaseRequestStatusRejected, PurchaseRequestStatusCancelled:
		return false // Terminal states
	}
	return false
}

// PrLineItem represents a line item in a purchase request
type PrLineItem struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	RequestID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Description    string    `gorm:"type:varchar(500);not null"`
	Quantity       int       `gorm:"not null;check:quantity > 0"`
	UnitPriceCents int64     `gorm:"not null;check:unit_price_cents > 0"`
	TotalCents     int64     `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PrLineItem) TableName() string {
	return "pr_line_items"
}

// NewPrLineItem creates a new purchase request line item
func NewPrLineItem(requestID uuid.UUID, description string, quantity int, unitPriceCents int64) (*PrLineItem, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Line description cannot be empty")
	}
	if len(description) > 500 {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Line description cannot exceed 500 characters")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPriceCents <= 0 {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price must be positive")
	}

	now := time.Now()
	return &PrLineItem{
		ID:             uuid.New(),
		RequestID:      requestID,
		Description:    description,
		Quantity:       quantity,
		UnitPriceCents: unitPriceCents,
		TotalCents:     int64(quantity) * unitPriceCents,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// PurchaseRequest represents an internal request to procure goods or services
// It is the aggregate root for the request side of the procure-to-pay flow
type PurchaseRequest struct {
	shared.TenantAggregateRoot
	PrNumber        string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_pr_tenant_number,priority:2"`
	RequesterID     uuid.UUID             `gorm:"type:uuid;not null;index"`
	DepartmentID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	Title           string                `gorm:"type:varchar(200);not null"`
	Justification   string                `gorm:"type:text"`
	Lines           []PrLineItem          `gorm:"foreignKey:RequestID;references:ID"`
	TotalCents      int64                 `gorm:"not null;default:0"`
	Status          PurchaseRequestStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	SubmittedAt     *time.Time
	ApprovedAt      *time.Time
	RejectionReason string         `gorm:"type:text"`
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (PurchaseRequest) TableName() string {
	return "purchase_requests"
}

// NewPurchaseRequest creates a new purchase request in draft status
func NewPurchaseRequest(tenantID uuid.UUID, prNumber string, requesterID, departmentID uuid.UUID, title string) (*PurchaseRequest, error) {
	if prNumber == "" {
		return nil, shared.NewDomainError("INVALID_PR_NUMBER", "PR number cannot be empty")
	}
	if requesterID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REQUESTER", "Requester is required")
	}
	if departmentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DEPARTMENT", "Department is required")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Title cannot be empty")
	}
	if len(title) > 200 {
		return nil, shared.NewDomainError("INVALID_TITLE", "Title cannot exceed 200 characters")
	}

	pr := &PurchaseRequest{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PrNumber:            prNumber,
		RequesterID:         requesterID,
		DepartmentID:        departmentID,
		Title:               title,
		Lines:               make([]PrLineItem, 0),
		Status:              PurchaseRequestStatusDraft,
	}
	pr.SetCreatedBy(requesterID)

	pr.AddDomainEvent(NewPurchaseRequestCreatedEvent(pr))

	return pr, nil
}

// AddLine adds a line item. Only allowed in DRAFT status
func (pr *PurchaseRequest) AddLine(description string, quantity int, unitPriceCents int64) (*PrLineItem, error) {
	if pr.Status != PurchaseRequestStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add lines to a non-draft request")
	}

	line, err := NewPrLineItem(pr.ID, description, quantity, unitPriceCents)
	if err != nil {
		return nil, err
	}

	pr.Lines = append(pr.Lines, *line)
	pr.recalculateTotal()
	pr.UpdatedAt = time.Now()
	pr.IncrementVersion()

	return line, nil
}

// RemoveLine removes a line item. Only allowed in DRAFT status
func (pr *PurchaseRequest) RemoveLine(lineID uuid.UUID) error {
	if pr.Status != PurchaseRequestStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot remove lines from a non-draft request")
	}

	for idx, line := range pr.Lines {
		if line.ID == lineID {
			pr.Lines = append(pr.Lines[:idx], pr.Lines[idx+1:]...)
			pr.recalculateTotal()
			pr.UpdatedAt = time.Now()
			pr.IncrementVersion()
			return nil
		}
	}

	return shared.NewDomainError("LINE_NOT_FOUND", "Request line not found")
}

// UpdateLine changes an existing line's quantity and unit price. Only allowed in DRAFT status
func (pr *PurchaseRequest) UpdateLine(lineID uuid.UUID, quantity int, unitPriceCents int64) error {
	if pr.Status != PurchaseRequestStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot update lines of a non-draft request")
	}
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPriceCents <= 0 {
		return shared.NewDomainError("INVALID_PRICE", "Unit price must be positive")
	}

	for idx := range pr.Lines {
		if pr.Lines[idx].ID == lineID {
			pr.Lines[idx].Quantity = quantity
			pr.Lines[idx].UnitPriceCents = unitPriceCents
			pr.Lines[idx].TotalCents = int64(quantity) * unitPriceCents
			pr.Lines[idx].UpdatedAt = time.Now()
			pr.recalculateTotal()
			pr.UpdatedAt = time.Now()
			pr.IncrementVersion()
			return nil
		}
	}

	return shared.NewDomainError("LINE_NOT_FOUND", "Request line not found")
}

// SetTitle renames the request. Only allowed in DRAFT status
func (pr *PurchaseRequest) SetTitle(title string) error {
	if pr.Status != PurchaseRequestStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot rename a non-draft request")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot be empty")
	}
	if len(title) > 200 {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot exceed 200 characters")
	}

	pr.Title = title
	pr.UpdatedAt = time.Now()
	pr.IncrementVersion()

	return nil
}

// SetJustification sets the business justification text
func (pr *PurchaseRequest) SetJustification(justification string) {
	pr.Justification = strings.TrimSpace(justification)
	pr.UpdatedAt = time.Now()
	pr.IncrementVersion()
}

// CanSubmit checks whether the request is ready for submission
func (pr *PurchaseRequest) CanSubmit() error {
	if pr.Status != PurchaseRequestStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot submit request in %s status", pr.Status))
	}
	if len(pr.Lines) == 0 {
		return shared.NewDomainError("NO_LINES", "Cannot submit a request without line items")
	}
	return nil
}

// Submit moves the request to pending. Callers reserve budget and create
// the approval chain before calling this
func (pr *PurchaseRequest) Submit() error {
	if err := pr.CanSubmit(); err != nil {
		return err
	}

	now := time.Now()
	pr.Status = PurchaseRequestStatusPending
	pr.SubmittedAt = &now
	pr.UpdatedAt = now
	pr.IncrementVersion()

	pr.AddDomainEvent(NewPurchaseRequestSubmittedEvent(pr))

	return nil
}

// MarkApproved records the final approval of the request's chain
func (pr *PurchaseRequest) MarkApproved() error {
	if !pr.Status.CanTransitionTo(PurchaseRequestStatusApproved) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve request in %s status", pr.Status))
	}

	now := time.Now()
	pr.Status = PurchaseRequestStatusApproved
	pr.ApprovedAt = &now
	pr.UpdatedAt = now
	pr.IncrementVersion()

	pr.AddDomainEvent(NewPurchaseRequestApprovedEvent(pr))

	return nil
}

// MarkRejected records a rejection from the approval chain
func (pr *PurchaseRequest) MarkRejected(reason string) error {
	if !pr.Status.CanTransitionTo(PurchaseRequestStatusRejected) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject request in %s status", pr.Status))
	}

	pr.Status = PurchaseRequestStatusRejected
	pr.RejectionReason = strings.TrimSpace(reason)
	pr.UpdatedAt = time.Now()
	pr.IncrementVersion()

	pr.AddDomainEvent(NewPurchaseRequestRejectedEvent(pr, reason))

	return nil
}

// Cancel retracts a pending request. Callers release the budget
// reservation and cancel remaining approvals
func (pr *PurchaseRequest) Cancel() error {
	if !pr.Status.CanTransitionTo(PurchaseRequestStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel request in %s status", pr.Status))
	}

	pr.Status = PurchaseRequestStatusCancelled
	pr.UpdatedAt = time.Now()
	pr.IncrementVersion()

	pr.AddDomainEvent(NewPurchaseRequestCancelledEvent(pr))

	return nil
}

// CanDelete returns true while the requester may still soft-delete the request
func (pr *PurchaseRequest) CanDelete() bool {
	return pr.Status == PurchaseRequestStatusDraft
}

// IsApproved returns true once the chain fully approved the request
func (pr *PurchaseRequest) IsApproved() bool {
	return pr.Status == PurchaseRequestStatusApproved
}

func (pr *PurchaseRequest) recalculateTotal() {
	var total int64
	for _, line := range pr.Lines {
		total += line.TotalCents
	}
	pr.TotalCents = total
}
