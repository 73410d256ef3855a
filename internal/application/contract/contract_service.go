package contract

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/procura/backend/internal/domain/audit"
	"github.com/procura/backend/internal/domain/contract"
	"github.com/procura/backend/internal/domain/partner"
	"github.com/procura/backend/internal/domain/shared"
)

const contractEntityType = "CONTRACT"

// ContractService manages vendor contracts. Contract numbers are unique
// per tenant; activation requires an active vendor
type ContractService struct {
	contractRepo contract.Repository
	vendorRepo   partner.VendorRepository
	auditRepo    audit.Repository
	logger       *zap.Logger
}

// NewContractService creates a new ContractService
func NewContractService(
	contractRepo contract.Repository,
	vendorRepo partner.VendorRepository,
	auditRepo audit.Repository,
	logger *zap.Logger,
) *ContractService {
	return &ContractService{
		contractRepo: contractRepo,
		vendorRepo:   vendorRepo,
		auditRepo:    auditRepo,
		logger:       logger,
	}
}

// Create registers a draft contract for a vendor
func (s *ContractService) Create(ctx context.Context, tenantID, actorID uuid.UUID, req CreateContractRequest) (*ContractResponse, error) {
	if _, err := s.findTenantVendor(ctx, tenantID, req.VendorID); err != nil {
		return nil, err
	}
	if err := s.checkDocumentKey(tenantID, req.DocumentKey); err != nil {
		return nil, err
	}

	// numbers are stored uppercased, so the uniqueness check must match
	number := strings.ToUpper(strings.TrimSpace(req.ContractNumber))
	exists, err := s.contractRepo.ExistsByNumber(ctx, tenantID, number)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A contract with this number already exists")
	}

	c, err := contract.NewContract(tenantID, number, req.VendorID, req.Title, req.EffectiveDate, req.ExpiryDate, req.DocumentKey)
	if err != nil {
		return nil, err
	}
	if err := s.contractRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	if err := s.recordAudit(ctx, tenantID, actorID, "CREATE", c, nil); err != nil {
		return nil, err
	}

	s.logger.Info("contract created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("contract_number", c.ContractNumber),
		zap.String("vendor_id", c.VendorID.String()))

	resp := ToContractResponse(c)
	return &resp, nil
}

// Update changes title, document, and (for drafts) the contract dates
func (s *ContractService) Update(ctx context.Context, tenantID, actorID uuid.UUID, contractID uuid.UUID, req UpdateContractRequest) (*ContractResponse, error) {
	c, err := s.contractRepo.FindByID(ctx, tenantID, contractID)
	if err != nil {
		return nil, err
	}
	if err := s.checkDocumentKey(tenantID, req.DocumentKey); err != nil {
		return nil, err
	}
	before := contractState(c)

	if err := c.Update(req.Title, req.DocumentKey); err != nil {
		return nil, err
	}
	if req.EffectiveDate != nil || req.ExpiryDate != nil {
		effective := c.EffectiveDate
		expiry := c.ExpiryDate
		if req.EffectiveDate != nil {
			effective = *req.EffectiveDate
		}
		if req.ExpiryDate != nil {
			expiry = *req.ExpiryDate
		}
		if err := c.Reschedule(effective, expiry); err != nil {
			return nil, err
		}
	}

	if err := s.contractRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	if err := s.recordAudit(ctx, tenantID, actorID, "UPDATE", c, before); err != nil {
		return nil, err
	}

	resp := ToContractResponse(c)
	return &resp, nil
}

// GetByID returns one contract
func (s *ContractService) GetByID(ctx context.Context, tenantID, contractID uuid.UUID) (*ContractResponse, error) {
	c, err := s.contractRepo.FindByID(ctx, tenantID, contractID)
	if err != nil {
		return nil, err
	}
	resp := ToContractResponse(c)
	return &resp, nil
}

// List returns contracts filtered by status and vendor
func (s *ContractService) List(ctx context.Context, tenantID uuid.UUID, filter ContractListFilter) (*shared.Paginated[ContractResponse], error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}

	repoFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Filters:  map[string]any{},
	}
	if filter.Status != "" {
		repoFilter.Filters["status"] = filter.Status
	}

	var page *shared.Paginated[*contract.Contract]
	var err error
	if filter.VendorID != "" {
		vendorID, parseErr := uuid.Parse(filter.VendorID)
		if parseErr != nil {
			return nil, shared.NewDomainError("INVALID_VENDOR_ID", "vendor_id must be a UUID")
		}
		page, err = s.contractRepo.FindByVendor(ctx, tenantID, vendorID, repoFilter)
	} else {
		page, err = s.contractRepo.FindAll(ctx, tenantID, repoFilter)
	}
	if err != nil {
		return nil, err
	}

	items := make([]ContractResponse, 0, len(page.Items))
	for _, c := range page.Items {
		items = append(items, ToContractResponse(c))
	}
	return &shared.Paginated[ContractResponse]{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}, nil
}

// Activate puts a draft contract into force. The vendor must be able to
// receive purchase orders at that moment
func (s *ContractService) Activate(ctx context.Context, tenantID, actorID uuid.UUID, contractID uuid.UUID) (*ContractResponse, error) {
	c, err := s.contractRepo.FindByID(ctx, tenantID, contractID)
	if err != nil {
		return nil, err
	}

	vendor, err := s.findTenantVendor(ctx, tenantID, c.VendorID)
	if err != nil {
		return nil, err
	}
	if !vendor.IsActive() {
		return nil, shared.NewDomainError("VENDOR_NOT_ACTIVE", "Contracts can only be activated for active vendors")
	}

	before := contractState(c)
	if err := c.Activate(); err != nil {
		return nil, err
	}
	if err := s.contractRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	if err := s.recordAudit(ctx, tenantID, actorID, "ACTIVATE", c, before); err != nil {
		return nil, err
	}

	resp := ToContractResponse(c)
	return &resp, nil
}

// Terminate ends an active contract early with a reason
func (s *ContractService) Terminate(ctx context.Context, tenantID, actorID uuid.UUID, contractID uuid.UUID, req TerminateContractRequest) (*ContractResponse, error) {
	c, err := s.contractRepo.FindByID(ctx, tenantID, contractID)
	if err != nil {
		return nil, err
	}

	before := contractState(c)
	if err := c.Terminate(req.Reason); err != nil {
		return nil, err
	}
	if err := s.contractRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	if err := s.recordAudit(ctx, tenantID, actorID, "TERMINATE", c, before); err != nil {
		return nil, err
	}

	s.logger.Info("contract terminated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("contract_number", c.ContractNumber))

	resp := ToContractResponse(c)
	return &resp, nil
}

// ExpireOverdue moves active contracts past their expiry date to
// expired, across tenants. The expiry sweep runs it daily; returns how
// many contracts were expired
func (s *ContractService) ExpireOverdue(ctx context.Context, asOf time.Time) (int, error) {
	contracts, err := s.contractRepo.FindActiveExpiringBefore(ctx, asOf)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, c := range contracts {
		before := contractState(c)
		if err := c.MarkExpired(asOf); err != nil {
			continue
		}
		if err := s.contractRepo.Update(ctx, c); err != nil {
			s.logger.Error("failed to expire contract",
				zap.String("contract_id", c.ID.String()),
				zap.Error(err))
			continue
		}
		if err := s.recordAudit(ctx, c.TenantID, audit.SystemActorID, "EXPIRE", c, before); err != nil {
			s.logger.Error("failed to audit contract expiry",
				zap.String("contract_id", c.ID.String()),
				zap.Error(err))
		}
		expired++
	}

	if expired > 0 {
		s.logger.Info("expired overdue contracts", zap.Int("count", expired))
	}
	return expired, nil
}

func (s *ContractService) findTenantVendor(ctx context.Context, tenantID, vendorID uuid.UUID) (*partner.Vendor, error) {
	vendor, err := s.vendorRepo.FindByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if vendor.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return vendor, nil
}

func (s *ContractService) checkDocumentKey(tenantID uuid.UUID, key string) error {
	if key == "" {
		return nil
	}
	owner, _, err := shared.ParseStorageKey(key)
	if err != nil {
		return err
	}
	if owner != tenantID {
		return shared.NewDomainError("INVALID_DOCUMENT_KEY", "Document key belongs to another tenant")
	}
	return nil
}

func (s *ContractService) recordAudit(ctx context.Context, tenantID, actorID uuid.UUID, action string, c *contract.Contract, before audit.State) error {
	entry, err := audit.NewEntry(tenantID, actorID, action, contractEntityType, c.ID, before, contractState(c))
	if err != nil {
		return err
	}
	return s.auditRepo.Create(ctx, entry)
}

func contractState(c *contract.Contract) audit.State {
	return audit.State{
		"contract_number": c.ContractNumber,
		"title":           c.Title,
		"status":          c.Status,
		"effective_date":  c.EffectiveDate,
		"expiry_date":     c.ExpiryDate,
	}
}
