package procurement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	approvalapp "github.com/procura/backend/internal/application/approval"
	budgetapp "github.com/procura/backend/internal/application/budget"
	"github.com/procura/backend/internal/domain/audit"
	"github.com/procura/backend/internal/domain/procurement"
	"github.com/procura/backend/internal/domain/shared"
)

// PurchaseRequestService handles the request side of the procure-to-pay flow
type PurchaseRequestService struct {
	prRepo         procurement.PurchaseRequestRepository
	chainBuilder   *approvalapp.ChainBuilder
	txScope        budgetapp.TransactionScope
	eventPublisher shared.EventPublisher
}

// NewPurchaseRequestService creates a new PurchaseRequestService
func NewPurchaseRequestService(prRepo procurement.PurchaseRequestRepository, chainBuilder *approvalapp.ChainBuilder, txScope budgetapp.TransactionScope) *PurchaseRequestService {
	return &PurchaseRequestService{
		prRepo:       prRepo,
		chainBuilder: chainBuilder,
		txScope:      txScope,
	}
}

// SetEventPublisher wires the bus that carries request lifecycle events
// to subscribers such as the approval notification handler
func (s *PurchaseRequestService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a draft purchase request
func (s *PurchaseRequestService) Create(ctx context.Context, tenantID, requesterID uuid.UUID, req CreatePurchaseRequestRequest) (*PurchaseRequestResponse, error) {
	prNumber, err := s.prRepo.GeneratePrNumber(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	pr, err := procurement.NewPurchaseRequest(tenantID, prNumber, requesterID, req.DepartmentID, req.Title)
	if err != nil {
		return nil, err
	}
	if req.Justification != "" {
		pr.SetJustification(req.Justification)
	}
	for _, line := range req.Lines {
		if _, err := pr.AddLine(line.Description, line.Quantity, line.UnitPriceCents); err != nil {
			return nil, err
		}
	}

	err = s.txScope.Execute(ctx, func(repos budgetapp.TransactionalRepositories) error {
		if err := repos.PurchaseRequests().Create(ctx, pr); err != nil {
			return err
		}
		entry, err := audit.NewEntry(tenantID, requesterID, "CREATE", string(shared.EntityTypePR), pr.ID,
			nil, requestState(pr))
		if err != nil {
			return err
		}
		return repos.AuditEntries().Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, pr)

	response := ToPurchaseRequestResponse(pr)
	return &response, nil
}

// Update edits a draft. Only the requester may edit, and only before
// submission. A non-nil Lines slice replaces the draft's lines entirely
func (s *PurchaseRequestService) Update(ctx context.Context, tenantID, actorID, requestID uuid.UUID, req UpdatePurchaseRequestRequest) (*PurchaseRequestResponse, error) {
	var updated *procurement.PurchaseRequest

	err := s.txScope.Execute(ctx, func(repos budgetapp.TransactionalRepositories) error {
		pr, err := repos.PurchaseRequests().FindByID(ctx, requestID)
		if err != nil {
			return err
		}
		if pr.TenantID != tenantID {
			return shared.ErrNotFound
		}
		if pr.RequesterID != actorID {
			return shared.ErrForbidden
		}

		before := requestState(pr)

		if req.Title != nil {
			if err := pr.SetTitle(*req.Title); err != nil {
				return err
			}
		}
		if req.Justification != nil {
			if pr.Status != procurement.PurchaseRequestStatusDraft {
				return shared.NewDomainError("INVALID_STATE", "Cannot edit a non-draft request")
			}
			pr.SetJustification(*req.Justification)
		}
		if req.Lines != nil {
			existing := make([]uuid.UUID, 0, len(pr.Lines))
			for _, line := range pr.Lines {
				existing = append(existing, line.ID)
			}
			for _, lineID := range existing {
				if err := pr.RemoveLine(lineID); err != nil {
					return err
				}
			}
			for _, line := range *req.Lines {
				if _, err := pr.AddLine(line.Description, line.Quantity, line.UnitPriceCents); err != nil {
					return err
				}
			}
		}

		if err := repos.PurchaseRequests().Update(ctx, pr); err != nil {
			return err
		}

		entry, err := audit.NewEntry(tenantID, actorID, "UPDATE", string(shared.EntityTypePR), pr.ID,
			before, requestState(pr))
		if err != nil {
			return err
		}
		if err := repos.AuditEntries().Create(ctx, entry); err != nil {
			return err
		}

		updated = pr
		return nil
	})
	if err != nil {
		return nil, err
	}

	response := ToPurchaseRequestResponse(updated)
	return &response, nil
}

// Submit moves a draft to pending: funds are reserved against the
// department's budget, the approval chain is created, and the status
// flips, all in one transaction
func (s *PurchaseRequestService) Submit(ctx context.Context, tenantID, actorID, requestID uuid.UUID) (*SubmitResponse, error) {
	var response *SubmitResponse
	var submitted *procurement.PurchaseRequest

	err := s.txScope.Execute(ctx, func(repos budgetapp.TransactionalRepositories) error {
		pr, err := repos.PurchaseRequests().FindByID(ctx, requestID)
		if err != nil {
			return err
		}
		if pr.TenantID != tenantID {
			return shared.ErrNotFound
		}
		if pr.RequesterID != actorID {
			return shared.ErrForbidden
		}
		if err := pr.CanSubmit(); err != nil {
			return err
		}

		reservation, err := budgetapp.ReserveFunds(ctx, repos, tenantID, pr.DepartmentID,
			shared.EntityTypePR, pr.ID, pr.TotalCents, time.Now())
		if err != nil {
			return err
		}

		chain, err := s.chainBuilder.BuildForRequest(ctx, pr)
		if err != nil {
			return err
		}
		if err := repos.Approvals().CreateBatch(ctx, chain); err != nil {
			return err
		}

		before := requestState(pr)
		if err := pr.Submit(); err != nil {
			return err
		}
		if err := repos.PurchaseRequests().Update(ctx, pr); err != nil {
			return err
		}

		after := requestState(pr)
		after["reservation_id"] = reservation.ID
		after["chain_levels"] = len(chain)
		entry, err := audit.NewEntry(tenantID, actorID, "SUBMIT", string(shared.EntityTypePR), pr.ID, before, after)
		if err != nil {
			return err
		}
		if err := repos.AuditEntries().Create(ctx, entry); err != nil {
			return err
		}

		response = &SubmitResponse{
			Request:       ToPurchaseRequestResponse(pr),
			ReservationID: reservation.ID,
			ChainLevels:   len(chain),
		}
		submitted = pr
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, submitted)

	return response, nil
}

// Cancel retracts a pending request: open approval steps are voided and
// the budget hold is returned
func (s *PurchaseRequestService) Cancel(ctx context.Context, tenantID, actorID, requestID uuid.UUID) (*PurchaseRequestResponse, error) {
	var cancelled *procurement.PurchaseRequest

	err := s.txScope.Execute(ctx, func(repos budgetapp.TransactionalRepositories) error {
		pr, err := repos.PurchaseRequests().FindByID(ctx, requestID)
		if err != nil {
			return err
		}
		if pr.TenantID != tenantID {
			return shared.ErrNotFound
		}

		before := requestState(pr)
		if err := pr.Cancel(); err != nil {
			return err
		}
		if err := repos.PurchaseRequests().Update(ctx, pr); err != nil {
			return err
		}

		chain, err := repos.Approvals().FindByEntity(ctx, shared.EntityTypePR, pr.ID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		for _, step := range chain {
			if !step.IsPending() {
				continue
			}
			if err := step.Cancel(); err != nil {
				return err
			}
			if err := repos.Approvals().Update(ctx, step); err != nil {
				return err
			}
		}

		if err := budgetapp.ReleaseReservation(ctx, repos, shared.EntityTypePR, pr.ID); err != nil {
			return err
		}

		entry, err := audit.NewEntry(tenantID, actorID, "CANCEL", string(shared.EntityTypePR), pr.ID,
			before, requestState(pr))
		if err != nil {
			return err
		}
		if err := repos.AuditEntries().Create(ctx, entry); err != nil {
			return err
		}

		cancelled = pr
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, cancelled)

	response := ToPurchaseRequestResponse(cancelled)
	return &response, nil
}

// Delete soft-deletes a draft. Only the requester may delete their own draft
func (s *PurchaseRequestService) Delete(ctx context.Context, tenantID, actorID, requestID uuid.UUID) error {
	return s.txScope.Execute(ctx, func(repos budgetapp.TransactionalRepositories) error {
		pr, err := repos.PurchaseRequests().FindByID(ctx, requestID)
		if err != nil {
			return err
		}
		if pr.TenantID != tenantID {
			return shared.ErrNotFound
		}
		if pr.RequesterID != actorID {
			return shared.ErrForbidden
		}
		if !pr.CanDelete() {
			return shared.NewDomainError("INVALID_STATE", "Only draft requests can be deleted")
		}

		if err := repos.PurchaseRequests().Delete(ctx, pr.ID); err != nil {
			return err
		}

		entry, err := audit.NewEntry(tenantID, actorID, "DELETE", string(shared.EntityTypePR), pr.ID,
			requestState(pr), nil)
		if err != nil {
			return err
		}
		return repos.AuditEntries().Create(ctx, entry)
	})
}

// GetByID retrieves a purchase request with its lines
func (s *PurchaseRequestService) GetByID(ctx context.Context, tenantID, requestID uuid.UUID) (*PurchaseRequestResponse, error) {
	pr, err := s.prRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if pr.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}

	response := ToPurchaseRequestResponse(pr)
	return &response, nil
}

// List retrieves purchase requests with filtering and pagination
func (s *PurchaseRequestService) List(ctx context.Context, tenantID uuid.UUID, filter PurchaseRequestListFilter) ([]PurchaseRequestResponse, int64, error) {
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
		Search:   filter.Search,
		Filters:  make(map[string]any),
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.DepartmentID != "" {
		domainFilter.Filters["department_id"] = filter.DepartmentID
	}

	var (
		requests []*procurement.PurchaseRequest
		total    int64
		err      error
	)
	if filter.RequesterID != "" {
		requesterID, parseErr := uuid.Parse(filter.RequesterID)
		if parseErr != nil {
			return nil, 0, shared.ErrInvalidInput
		}
		requests, total, err = s.prRepo.FindByRequester(ctx, tenantID, requesterID, domainFilter)
	} else {
		requests, total, err = s.prRepo.FindAll(ctx, domainFilter)
	}
	if err != nil {
		return nil, 0, err
	}

	responses := make([]PurchaseRequestResponse, 0, len(requests))
	for _, pr := range requests {
		responses = append(responses, ToPurchaseRequestResponse(pr))
	}
	return responses, total, nil
}

// publishDomainEvents pushes the request's pending events onto the bus
// after the surrounding transaction committed. Bus errors are the bus's
// problem; the state change already stands
func (s *PurchaseRequestService) publishDomainEvents(ctx context.Context, pr *procurement.PurchaseRequest) {
	if s.eventPublisher == nil || pr == nil {
		return
	}
	events := pr.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	pr.ClearDomainEvents()
}

func requestState(pr *procurement.PurchaseRequest) audit.State {
	return audit.State{
		"pr_number":   pr.PrNumber,
		"title":       pr.Title,
		"status":      string(pr.Status),
		"total_cents": pr.TotalCents,
		"line_count":  len(pr.Lines),
	}
}
