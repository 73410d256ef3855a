package notification

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

// Type classifies a notification for client-side routing
type Type string

const (
	TypeApprovalRequested Type = "APPROVAL_REQUESTED"
	TypeApprovalTimeout   Type = "APPROVAL_TIMEOUT"
	TypeBudgetAlert       Type = "BUDGET_ALERT"
	TypeDocumentExpiry    Type = "DOCUMENT_EXPIRY"
	TypeInvoiceException  Type = "INVOICE_EXCEPTION"
	TypeRfqInvitation     Type = "RFQ_INVITATION"
	TypePaymentSettled    Type = "PAYMENT_SETTLED"
)

// IsValid checks if the type is a known notification Type
func (t Type) IsValid() bool {
	switch t {
	case TypeApprovalRequested, TypeApprovalTimeout, TypeBudgetAlert,
		TypeDocumentExpiry, TypeInvoiceException, TypeRfqInvitation, TypePaymentSettled:
		return true
	}
	return false
}

// Notification is an in-app message addressed to one user. Push
// delivery is best effort; the row is the durable record
type Notification struct {
	shared.TenantAggregateRoot
	UserID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Type    Type      `gorm:"type:varchar(50);not null"`
	Title   string    `gorm:"type:varchar(200);not null"`
	Body    string    `gorm:"type:text"`
	Payload string    `gorm:"type:jsonb"`
	ReadAt  *time.Time
}

// TableName returns the table name for GORM
func (Notification) TableName() string {
	return "notifications"
}

// NewNotification creates a notification addressed to a user
func NewNotification(tenantID, userID uuid.UUID, notifType Type, title, body, payload string) (*Notification, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RECIPIENT", "Notification requires a recipient")
	}
	if !notifType.IsValid() {
		return nil, shared.NewDomainError("INVALID_NOTIFICATION_TYPE", "Unknown notification type: "+string(notifType))
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Notification title cannot be empty")
	}

	return &Notification{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		UserID:              userID,
		Type:                notifType,
		Title:               title,
		Body:                body,
		Payload:             payload,
	}, nil
}

// MarkRead stamps the read time. Reading twice keeps the first stamp
func (n *Notification) MarkRead() {
	if n.ReadAt != nil {
		return
	}
	now := time.Now()
	n.ReadAt = &now
	n.UpdatedAt = now
	n.IncrementVersion()
}

// IsRead reports whether the recipient has seen the notification
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}
