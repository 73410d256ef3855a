package approval

import (
	"sort"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/identity"
)

// ChainPolicy holds the amount thresholds that widen an approval chain
type ChainPolicy struct {
	FinanceHeadThresholdCents int64
	CFOThresholdCents         int64
}

// DefaultChainPolicy returns the standard thresholds: finance head from
// 5,000,000 minor units, CFO from 20,000,000
func DefaultChainPolicy() ChainPolicy {
	return ChainPolicy{
		FinanceHeadThresholdCents: 5_000_000,
		CFOThresholdCents:         20_000_000,
	}
}

// ChainStep names the role required at one level of an approval chain.
// Level 1 is always the requesting department's manager
type ChainStep struct {
	Level int
	Role  identity.Role
}

// RequiredSteps computes the chain shape for an amount. The department
// manager always opens the chain; finance head and CFO join as the
// amount crosses the policy thresholds
func (p ChainPolicy) RequiredSteps(amountCents int64) []ChainStep {
	steps := []ChainStep{{Level: 1, Role: identity.RoleManager}}

	if amountCents >= p.FinanceHeadThresholdCents {
		steps = append(steps, ChainStep{Level: 2, Role: identity.RoleFinanceHead})
	}
	if amountCents >= p.CFOThresholdCents {
		steps = append(steps, ChainStep{Level: len(steps) + 1, Role: identity.RoleCFO})
	}

	return steps
}

// Decision is the approver's verdict on the current step
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// DecisionResult describes the chain's state after processing a decision
type DecisionResult struct {
	IsFinal    bool      // No pending steps remain and nothing was rejected
	IsRejected bool      // The chain was rejected at the current step
	Next       *Approval // The next pending step, if any
}

// CurrentStep returns the lowest-level pending approval, or
// ErrNoPendingStep when the chain has no open step
func CurrentStep(chain []*Approval) (*Approval, error) {
	var current *Approval
	for _, step := range chain {
		if !step.IsPending() {
			continue
		}
		if current == nil || step.ApprovalLevel < current.ApprovalLevel {
			current = step
		}
	}
	if current == nil {
		return nil, ErrNoPendingStep
	}
	return current, nil
}

// Process applies an approver's decision to the chain. On approve, the
// current step closes and the next pending step (if any) surfaces. On
// reject, the current step is rejected and every later pending step is
// cancelled. The mutated steps carry the changes; callers persist them
func Process(chain []*Approval, approverID uuid.UUID, decision Decision, comment string) (*DecisionResult, error) {
	current, err := CurrentStep(chain)
	if err != nil {
		return nil, err
	}

	if current.ApproverID != approverID {
		return nil, ErrNotYourTurn
	}

	switch decision {
	case DecisionApprove:
		if err := current.Approve(comment); err != nil {
			return nil, err
		}

		next, err := CurrentStep(chain)
		if err != nil {
			// Chain exhausted, final approval
			return &DecisionResult{IsFinal: true}, nil
		}
		return &DecisionResult{Next: next}, nil

	case DecisionReject:
		if err := current.Reject(comment); err != nil {
			return nil, err
		}

		for _, step := range chain {
			if step.IsPending() {
				if err := step.Cancel(); err != nil {
					return nil, err
				}
			}
		}
		return &DecisionResult{IsRejected: true}, nil

	default:
		return nil, ErrUnknownDecision
	}
}

// GuardSelfApproval rejects decisions where the approver is also the
// entity's requester
func GuardSelfApproval(approverID, requesterID uuid.UUID) error {
	if approverID == requesterID {
		return ErrSelfApproval
	}
	return nil
}

// SortByLevel orders a chain by ascending approval level
func SortByLevel(chain []*Approval) {
	sort.Slice(chain, func(i, j int) bool {
		return chain[i].ApprovalLevel < chain[j].ApprovalLevel
	})
}
