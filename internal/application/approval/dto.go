package approval

import (
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/approval"
	"github.com/procura/backend/internal/domain/shared"
)

// ApproveRequest carries an optional comment with an approval
type ApproveRequest struct {
	Comment string `json:"comment" binding:"omitempty,max=2000"`
}

// RejectRequest carries the mandatory rejection reason
type RejectRequest struct {
	Comment string `json:"comment" binding:"required,max=2000"`
}

// PendingListFilter represents filter options for the pending approvals list
type PendingListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// ApprovalResponse represents one chain step in API responses
type ApprovalResponse struct {
	ID           uuid.UUID         `json:"id"`
	EntityType   shared.EntityType `json:"entity_type"`
	EntityID     uuid.UUID         `json:"entity_id"`
	Level        int               `json:"level"`
	ApproverID   uuid.UUID         `json:"approver_id"`
	ApproverName string            `json:"approver_name,omitempty"`
	Status       approval.Status   `json:"status"`
	Comment      string            `json:"comment,omitempty"`
	ApprovedAt   *time.Time        `json:"approved_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// DecisionResponse reports the chain's state after a decision
type DecisionResponse struct {
	ApprovalID     uuid.UUID         `json:"approval_id"`
	EntityType     shared.EntityType `json:"entity_type"`
	EntityID       uuid.UUID         `json:"entity_id"`
	Level          int               `json:"level"`
	Decision       string            `json:"decision"`
	ChainComplete  bool              `json:"chain_complete"`
	ChainRejected  bool              `json:"chain_rejected"`
	NextLevel      *int              `json:"next_level,omitempty"`
	NextApproverID *uuid.UUID        `json:"next_approver_id,omitempty"`
}

// ToApprovalResponse converts an approval step to a response DTO
func ToApprovalResponse(a *approval.Approval, approverName string) ApprovalResponse {
	return ApprovalResponse{
		ID:           a.ID,
		EntityType:   a.EntityType,
		EntityID:     a.EntityID,
		Level:        a.ApprovalLevel,
		ApproverID:   a.ApproverID,
		ApproverName: approverName,
		Status:       a.Status,
		Comment:      a.Comment,
		ApprovedAt:   a.ApprovedAt,
		CreatedAt:    a.CreatedAt,
	}
}
