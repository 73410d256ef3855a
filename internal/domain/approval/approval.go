package approval

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

// Status represents the state of a single approval step
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

// Approval is one step of an entity's approval chain, uniquely keyed by
// (entity_type, entity_id, approval_level)
type Approval struct {
	shared.TenantAggregateRoot
	EntityType    shared.EntityType `gorm:"type:varchar(20);not null;uniqueIndex:idx_approvals_entity_level,priority:1"`
	EntityID      uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_approvals_entity_level,priority:2"`
	ApprovalLevel int               `gorm:"not null;uniqueIndex:idx_approvals_entity_level,priority:3;check:approval_level >= 1"`
	ApproverID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	Status        Status            `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Comment       string            `gorm:"type:text"`
	ApprovedAt    *time.Time
}

// TableName returns the table name for GORM
func (Approval) TableName() string {
	return "approvals"
}

// NewApproval creates a pending approval step
func NewApproval(tenantID uuid.UUID, entityType shared.EntityType, entityID uuid.UUID, level int, approverID uuid.UUID) (*Approval, error) {
	if !entityType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ENTITY_TYPE", "Unknown entity type: "+string(entityType))
	}
	if entityID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ENTITY", "Entity is required")
	}
	if level < 1 {
		return nil, shared.NewDomainError("INVALID_LEVEL", "Approval level must be at least 1")
	}
	if approverID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_APPROVER", "Approver is required")
	}

	return &Approval{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		EntityType:          entityType,
		EntityID:            entityID,
		ApprovalLevel:       level,
		ApproverID:          approverID,
		Status:              StatusPending,
	}, nil
}

// Approve marks a pending step as approved
func (a *Approval) Approve(comment string) error {
	if a.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATUS_TRANSITION",
			"Only pending approvals can be approved, current status: "+string(a.Status))
	}

	now := time.Now()
	a.Status = StatusApproved
	a.Comment = strings.TrimSpace(comment)
	a.ApprovedAt = &now
	a.UpdatedAt = now
	a.IncrementVersion()

	return nil
}

// Reject marks a pending step as rejected
func (a *Approval) Reject(comment string) error {
	if a.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATUS_TRANSITION",
			"Only pending approvals can be rejected, current status: "+string(a.Status))
	}

	a.Status = StatusRejected
	a.Comment = strings.TrimSpace(comment)
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	return nil
}

// Cancel voids a pending step. Used when an earlier step rejects or the
// underlying entity is withdrawn
func (a *Approval) Cancel() error {
	if a.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATUS_TRANSITION",
			"Only pending approvals can be cancelled, current status: "+string(a.Status))
	}

	a.Status = StatusCancelled
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	return nil
}

// IsPending returns true while the step awaits a decision
func (a *Approval) IsPending() bool {
	return a.Status == StatusPending
}
