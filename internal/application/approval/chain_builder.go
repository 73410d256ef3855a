package approval

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/approval"
	"github.com/procura/backend/internal/domain/identity"
	"github.com/procura/backend/internal/domain/procurement"
	"github.com/procura/backend/internal/domain/shared"
)

// ChainBuilder resolves the concrete approvers for a purchase request's
// approval chain. The chain shape comes from the amount policy; this type
// fills each step with an active user
type ChainBuilder struct {
	userRepo identity.UserRepository
	deptRepo identity.DepartmentRepository
	policy   approval.ChainPolicy
}

// NewChainBuilder creates a ChainBuilder with the given policy
func NewChainBuilder(userRepo identity.UserRepository, deptRepo identity.DepartmentRepository, policy approval.ChainPolicy) *ChainBuilder {
	return &ChainBuilder{
		userRepo: userRepo,
		deptRepo: deptRepo,
		policy:   policy,
	}
}

// BuildForRequest constructs the pending approval steps for a purchase
// request. Level 1 goes to the requesting department's manager; higher
// levels are filled from the role pools. The requester is never an
// eligible approver. Returns approval.ErrNoApprover when a required step
// cannot be filled
func (b *ChainBuilder) BuildForRequest(ctx context.Context, pr *procurement.PurchaseRequest) ([]*approval.Approval, error) {
	steps := b.policy.RequiredSteps(pr.TotalCents)

	chain := make([]*approval.Approval, 0, len(steps))
	for _, step := range steps {
		var (
			approverID uuid.UUID
			err        error
		)
		if step.Level == 1 {
			approverID, err = b.resolveManager(ctx, pr.TenantID, pr.DepartmentID, pr.RequesterID)
		} else {
			approverID, err = b.resolveByRole(ctx, pr.TenantID, step.Role, pr.RequesterID)
		}
		if err != nil {
			return nil, err
		}

		a, err := approval.NewApproval(pr.TenantID, shared.EntityTypePR, pr.ID, step.Level, approverID)
		if err != nil {
			return nil, err
		}
		chain = append(chain, a)
	}

	return chain, nil
}

// resolveManager resolves the level-1 approver: the requesting
// department's manager. A department without an active manager cannot
// route the request, so the chain fails with ErrNoApprover. The tenant's
// manager pool is consulted only when the assigned manager is the
// requester, who can never approve their own request
func (b *ChainBuilder) resolveManager(ctx context.Context, tenantID, departmentID, requesterID uuid.UUID) (uuid.UUID, error) {
	dept, err := b.deptRepo.FindByID(ctx, departmentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return uuid.Nil, approval.ErrNoApprover
		}
		return uuid.Nil, err
	}
	if !dept.HasManager() {
		return uuid.Nil, approval.ErrNoApprover
	}

	if *dept.ManagerID == requesterID {
		return b.resolveByRole(ctx, tenantID, identity.RoleManager, requesterID)
	}

	manager, err := b.userRepo.FindByID(ctx, *dept.ManagerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return uuid.Nil, approval.ErrNoApprover
		}
		return uuid.Nil, err
	}
	if !manager.IsActive() {
		return uuid.Nil, approval.ErrNoApprover
	}
	return manager.ID, nil
}

// resolveByRole picks one active holder of a role, excluding the
// requester. The pick is deterministic so retried submissions build the
// same chain
func (b *ChainBuilder) resolveByRole(ctx context.Context, tenantID uuid.UUID, role identity.Role, requesterID uuid.UUID) (uuid.UUID, error) {
	users, err := b.userRepo.FindActiveByRole(ctx, tenantID, role)
	if err != nil {
		return uuid.Nil, err
	}

	eligible := make([]*identity.User, 0, len(users))
	for _, u := range users {
		if u.ID == requesterID {
			continue
		}
		eligible = append(eligible, u)
	}
	if len(eligible) == 0 {
		return uuid.Nil, approval.ErrNoApprover
	}

	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].Email < eligible[j].Email
	})
	return eligible[0].ID, nil
}
