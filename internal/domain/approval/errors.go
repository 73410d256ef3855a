package approval

import "github.com/procura/backend/internal/domain/shared"

var (
	// ErrNoPendingStep is returned when a decision arrives for a chain
	// with no open step
	ErrNoPendingStep = shared.NewDomainError("NO_PENDING_APPROVAL", "No pending approval step exists for this entity")

	// ErrNotYourTurn is returned when the caller is not the approver of
	// the chain's current step
	ErrNotYourTurn = shared.NewDomainError("APPROVAL_NOT_YOUR_TURN", "Another approver holds the current approval step")

	// ErrSelfApproval is returned when a requester tries to approve
	// their own entity
	ErrSelfApproval = shared.NewDomainError("APPROVAL_SELF_APPROVE_001", "Requesters cannot approve their own submissions")

	// ErrNoApprover is returned when chain construction finds no active
	// user to fill a required step
	ErrNoApprover = shared.NewDomainError("APPROVAL_NO_APPROVER", "No active approver is available for a required approval step")

	// ErrUnknownDecision is returned for decisions other than approve/reject
	ErrUnknownDecision = shared.NewDomainError("INVALID_DECISION", "Decision must be approve or reject")
)
