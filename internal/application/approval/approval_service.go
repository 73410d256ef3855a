package approval

import (
	"context"

	"github.com/google/uuid"

	budgetapp "github.com/procura/backend/internal/application/budget"
	"github.com/procura/backend/internal/domain/approval"
	"github.com/procura/backend/internal/domain/audit"
	"github.com/procura/backend/internal/domain/identity"
	"github.com/procura/backend/internal/domain/shared"
)

// ApprovalService handles approval chain queries and decisions
type ApprovalService struct {
	approvalRepo approval.Repository
	userRepo     identity.UserRepository
	txScope      budgetapp.TransactionScope
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(approvalRepo approval.Repository, userRepo identity.UserRepository, txScope budgetapp.TransactionScope) *ApprovalService {
	return &ApprovalService{
		approvalRepo: approvalRepo,
		userRepo:     userRepo,
		txScope:      txScope,
	}
}

// Approve records an approval on the chain step. When the step is the
// chain's last, the underlying entity is marked approved in the same
// transaction
func (s *ApprovalService) Approve(ctx context.Context, tenantID, approverID, approvalID uuid.UUID, req ApproveRequest) (*DecisionResponse, error) {
	return s.decide(ctx, tenantID, approverID, approvalID, approval.DecisionApprove, req.Comment)
}

// Reject records a rejection. Later pending steps are cancelled, the
// underlying entity is marked rejected and its budget hold is released
func (s *ApprovalService) Reject(ctx context.Context, tenantID, approverID, approvalID uuid.UUID, req RejectRequest) (*DecisionResponse, error) {
	return s.decide(ctx, tenantID, approverID, approvalID, approval.DecisionReject, req.Comment)
}

func (s *ApprovalService) decide(ctx context.Context, tenantID, approverID, approvalID uuid.UUID, decision approval.Decision, comment string) (*DecisionResponse, error) {
	var response *DecisionResponse

	err := s.txScope.Execute(ctx, func(repos budgetapp.TransactionalRepositories) error {
		step, err := repos.Approvals().FindByID(ctx, approvalID)
		if err != nil {
			return err
		}
		if step.TenantID != tenantID {
			return shared.ErrNotFound
		}

		chain, err := repos.Approvals().FindByEntity(ctx, step.EntityType, step.EntityID)
		if err != nil {
			return err
		}

		// The decision endpoint addresses a step, but turn order is
		// enforced against the whole chain
		current, err := approval.CurrentStep(chain)
		if err != nil {
			return err
		}
		if current.ID != step.ID {
			return approval.ErrNotYourTurn
		}

		requesterID, err := s.requesterOf(ctx, repos, step.EntityType, step.EntityID)
		if err != nil {
			return err
		}
		if err := approval.GuardSelfApproval(approverID, requesterID); err != nil {
			return err
		}

		statusBefore := make(map[uuid.UUID]approval.Status, len(chain))
		for _, a := range chain {
			statusBefore[a.ID] = a.Status
		}

		result, err := approval.Process(chain, approverID, decision, comment)
		if err != nil {
			return err
		}

		for _, a := range chain {
			if a.Status == statusBefore[a.ID] {
				continue
			}
			if err := repos.Approvals().Update(ctx, a); err != nil {
				return err
			}
		}

		if err := s.applyOutcome(ctx, repos, step.EntityType, step.EntityID, result, comment); err != nil {
			return err
		}

		entry, err := audit.NewEntry(tenantID, approverID, decisionAction(decision), string(step.EntityType), step.EntityID,
			audit.State{"approval_level": step.ApprovalLevel, "status": string(approval.StatusPending)},
			decisionState(step, result, comment))
		if err != nil {
			return err
		}
		if err := repos.AuditEntries().Create(ctx, entry); err != nil {
			return err
		}

		response = toDecisionResponse(step, decision, result)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return response, nil
}

// requesterOf resolves the user who originated the entity under approval,
// for the self-approval guard
func (s *ApprovalService) requesterOf(ctx context.Context, repos budgetapp.TransactionalRepositories, entityType shared.EntityType, entityID uuid.UUID) (uuid.UUID, error) {
	switch entityType {
	case shared.EntityTypePR:
		pr, err := repos.PurchaseRequests().FindByID(ctx, entityID)
		if err != nil {
			return uuid.Nil, err
		}
		return pr.RequesterID, nil
	default:
		return uuid.Nil, nil
	}
}

// applyOutcome propagates a chain outcome onto the underlying entity
func (s *ApprovalService) applyOutcome(ctx context.Context, repos budgetapp.TransactionalRepositories, entityType shared.EntityType, entityID uuid.UUID, result *approval.DecisionResult, comment string) error {
	if entityType != shared.EntityTypePR {
		return nil
	}
	if !result.IsFinal && !result.IsRejected {
		return nil
	}

	pr, err := repos.PurchaseRequests().FindByID(ctx, entityID)
	if err != nil {
		return err
	}

	if result.IsFinal {
		if err := pr.MarkApproved(); err != nil {
			return err
		}
		return repos.PurchaseRequests().Update(ctx, pr)
	}

	if err := pr.MarkRejected(comment); err != nil {
		return err
	}
	if err := repos.PurchaseRequests().Update(ctx, pr); err != nil {
		return err
	}
	return budgetapp.ReleaseReservation(ctx, repos, shared.EntityTypePR, pr.ID)
}

// ListPending lists the approval steps waiting on one approver
func (s *ApprovalService) ListPending(ctx context.Context, tenantID, approverID uuid.UUID, filter PendingListFilter) ([]ApprovalResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
	}

	steps, total, err := s.approvalRepo.FindPendingByApprover(ctx, tenantID, approverID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses, err := s.toResponses(ctx, steps)
	if err != nil {
		return nil, 0, err
	}
	return responses, total, nil
}

// GetChain loads an entity's approval chain ordered by level
func (s *ApprovalService) GetChain(ctx context.Context, tenantID uuid.UUID, entityType shared.EntityType, entityID uuid.UUID) ([]ApprovalResponse, error) {
	if !entityType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ENTITY_TYPE", "Unknown entity type: "+string(entityType))
	}

	chain, err := s.approvalRepo.FindByEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}

	scoped := make([]*approval.Approval, 0, len(chain))
	for _, a := range chain {
		if a.TenantID == tenantID {
			scoped = append(scoped, a)
		}
	}
	approval.SortByLevel(scoped)

	return s.toResponses(ctx, scoped)
}

// toResponses maps steps to DTOs, resolving approver display names in one
// batch query
func (s *ApprovalService) toResponses(ctx context.Context, steps []*approval.Approval) ([]ApprovalResponse, error) {
	ids := make([]uuid.UUID, 0, len(steps))
	seen := make(map[uuid.UUID]bool, len(steps))
	for _, a := range steps {
		if !seen[a.ApproverID] {
			seen[a.ApproverID] = true
			ids = append(ids, a.ApproverID)
		}
	}

	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) > 0 {
		users, err := s.userRepo.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			names[u.ID] = u.GetDisplayNameOrEmail()
		}
	}

	responses := make([]ApprovalResponse, 0, len(steps))
	for _, a := range steps {
		responses = append(responses, ToApprovalResponse(a, names[a.ApproverID]))
	}
	return responses, nil
}

func decisionAction(decision approval.Decision) string {
	if decision == approval.DecisionReject {
		return "REJECT"
	}
	return "APPROVE"
}

func decisionState(step *approval.Approval, result *approval.DecisionResult, comment string) audit.State {
	state := audit.State{
		"approval_level": step.ApprovalLevel,
		"status":         string(step.Status),
	}
	if comment != "" {
		state["comment"] = comment
	}
	if result.IsFinal {
		state["chain_complete"] = true
	}
	if result.IsRejected {
		state["chain_rejected"] = true
	}
	return state
}

func toDecisionResponse(step *approval.Approval, decision approval.Decision, result *approval.DecisionResult) *DecisionResponse {
	resp := &DecisionResponse{
		ApprovalID:    step.ID,
		EntityType:    step.EntityType,
		EntityID:      step.EntityID,
		Level:         step.ApprovalLevel,
		Decision:      string(decision),
		ChainComplete: result.IsFinal,
		ChainRejected: result.IsRejected,
	}
	if result.Next != nil {
		resp.NextLevel = &result.Next.ApprovalLevel
		resp.NextApproverID = &result.Next.ApproverID
	}
	return resp
}
