package partner

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/procura/backend/internal/domain/audit"
	"github.com/procura/backend/internal/domain/partner"
	"github.com/procura/backend/internal/domain/shared"
)

const vendorEntityType = "VENDOR"

// VendorService handles vendor onboarding and lifecycle operations
type VendorService struct {
	vendorRepo partner.VendorRepository
	auditRepo  audit.Repository
	logger     *zap.Logger
}

// NewVendorService creates a new VendorService
func NewVendorService(vendorRepo partner.VendorRepository, auditRepo audit.Repository, logger *zap.Logger) *VendorService {
	return &VendorService{
		vendorRepo: vendorRepo,
		auditRepo:  auditRepo,
		logger:     logger,
	}
}

// Create registers a new vendor in draft status
func (s *VendorService) Create(ctx context.Context, tenantID, actorID uuid.UUID, req CreateVendorRequest) (*VendorResponse, error) {
	// uniqueness checks run against the stored normal form
	taxID := strings.ToUpper(strings.TrimSpace(req.TaxID))
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.vendorRepo.ExistsByTaxID(ctx, tenantID, taxID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A vendor with this tax ID already exists")
	}

	exists, err = s.vendorRepo.ExistsByEmail(ctx, tenantID, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A vendor with this email already exists")
	}

	vendor, err := partner.NewVendor(tenantID, req.LegalName, taxID, email)
	if err != nil {
		return nil, err
	}
	vendor.ContactName = req.ContactName
	vendor.Phone = req.Phone
	vendor.Address = req.Address
	vendor.Country = req.Country
	if req.PaymentTerms != nil {
		if err := vendor.SetPaymentTerms(*req.PaymentTerms); err != nil {
			return nil, err
		}
	}

	if err := s.vendorRepo.Create(ctx, vendor); err != nil {
		return nil, err
	}
	if err := s.recordAudit(ctx, tenantID, actorID, "CREATE", vendor, nil); err != nil {
		return nil, err
	}

	s.logger.Info("vendor created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("vendor_id", vendor.ID.String()),
		zap.String("legal_name", vendor.LegalName))

	resp := ToVendorResponse(vendor)
	return &resp, nil
}

// Update modifies vendor master data
func (s *VendorService) Update(ctx context.Context, tenantID, actorID, vendorID uuid.UUID, req UpdateVendorRequest) (*VendorResponse, error) {
	vendor, err := s.findTenantVendor(ctx, tenantID, vendorID)
	if err != nil {
		return nil, err
	}

	before := vendorState(vendor)
	if err := vendor.Update(req.LegalName, req.ContactName, req.Phone, req.Address, req.Country); err != nil {
		return nil, err
	}
	if req.PaymentTerms != nil {
		if err := vendor.SetPaymentTerms(*req.PaymentTerms); err != nil {
			return nil, err
		}
	}

	if err := s.vendorRepo.Update(ctx, vendor); err != nil {
		return nil, err
	}
	if err := s.recordAudit(ctx, tenantID, actorID, "UPDATE", vendor, before); err != nil {
		return nil, err
	}

	resp := ToVendorResponse(vendor)
	return &resp, nil
}

// GetByID retrieves a vendor by ID
func (s *VendorService) GetByID(ctx context.Context, tenantID, vendorID uuid.UUID) (*VendorResponse, error) {
	vendor, err := s.findTenantVendor(ctx, tenantID, vendorID)
	if err != nil {
		return nil, err
	}
	resp := ToVendorResponse(vendor)
	return &resp, nil
}

// GetByEmail retrieves a vendor by contact email. Vendor-portal sessions
// resolve their own record through this lookup
func (s *VendorService) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*VendorResponse, error) {
	vendor, err := s.vendorRepo.FindByEmail(ctx, tenantID, email)
	if err != nil {
		return nil, err
	}
	resp := ToVendorResponse(vendor)
	return &resp, nil
}

// List retrieves vendors with filtering and pagination
func (s *VendorService) List(ctx context.Context, tenantID uuid.UUID, filter VendorListFilter) ([]VendorResponse, int64, error) {
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

	vendors, total, err := s.vendorRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]VendorResponse, 0, len(vendors))
	for _, v := range vendors {
		responses = append(responses, ToVendorResponse(v))
	}
	return responses, total, nil
}

// Delete soft-deletes a vendor
func (s *VendorService) Delete(ctx context.Context, tenantID, actorID, vendorID uuid.UUID) error {
	vendor, err := s.findTenantVendor(ctx, tenantID, vendorID)
	if err != nil {
		return err
	}

	before := vendorState(vendor)
	if err := s.vendorRepo.Delete(ctx, vendor.ID); err != nil {
		return err
	}

	entry, err := audit.NewEntry(tenantID, actorID, "DELETE", vendorEntityType, vendor.ID, before, nil)
	if err != nil {
		return err
	}
	return s.auditRepo.Create(ctx, entry)
}

// SubmitForReview moves a draft vendor to pending review
func (s *VendorService) SubmitForReview(ctx context.Context, tenantID, actorID, vendorID uuid.UUID) (*VendorResponse, error) {
	return s.transition(ctx, tenantID, actorID, vendorID, "SUBMIT", func(v *partner.Vendor) error {
		return v.SubmitForReview()
	})
}

// Approve activates a vendor pending review
func (s *VendorService) Approve(ctx context.Context, tenantID, actorID, vendorID uuid.UUID) (*VendorResponse, error) {
	return s.transition(ctx, tenantID, actorID, vendorID, "APPROVE", func(v *partner.Vendor) error {
		return v.Approve()
	})
}

// Block blocks an active vendor so it can receive no new orders
func (s *VendorService) Block(ctx context.Context, tenantID, actorID, vendorID uuid.UUID, req BlockVendorRequest) (*VendorResponse, error) {
	return s.transition(ctx, tenantID, actorID, vendorID, "BLOCK", func(v *partner.Vendor) error {
		return v.Block(req.Reason)
	})
}

// Unblock reactivates a blocked vendor
func (s *VendorService) Unblock(ctx context.Context, tenantID, actorID, vendorID uuid.UUID) (*VendorResponse, error) {
	return s.transition(ctx, tenantID, actorID, vendorID, "UNBLOCK", func(v *partner.Vendor) error {
		return v.Unblock()
	})
}

// SetRiskScore stores a recomputed risk score. The risk-refresh sweep
// calls this under the system actor
func (s *VendorService) SetRiskScore(ctx context.Context, tenantID, actorID, vendorID uuid.UUID, score int) (*VendorResponse, error) {
	return s.transition(ctx, tenantID, actorID, vendorID, "RISK_REFRESH", func(v *partner.Vendor) error {
		return v.SetRiskScore(score)
	})
}

func (s *VendorService) transition(ctx context.Context, tenantID, actorID, vendorID uuid.UUID, action string, apply func(*partner.Vendor) error) (*VendorResponse, error) {
	vendor, err := s.findTenantVendor(ctx, tenantID, vendorID)
	if err != nil {
		return nil, err
	}

	before := vendorState(vendor)
	if err := apply(vendor); err != nil {
		return nil, err
	}

	if err := s.vendorRepo.Update(ctx, vendor); err != nil {
		return nil, err
	}
	if err := s.recordAudit(ctx, tenantID, actorID, action, vendor, before); err != nil {
		return nil, err
	}

	resp := ToVendorResponse(vendor)
	return &resp, nil
}

func (s *VendorService) findTenantVendor(ctx context.Context, tenantID, vendorID uuid.UUID) (*partner.Vendor, error) {
	vendor, err := s.vendorRepo.FindByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if vendor.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return vendor, nil
}

func (s *VendorService) recordAudit(ctx context.Context, tenantID, actorID uuid.UUID, action string, vendor *partner.Vendor, before audit.State) error {
	entry, err := audit.NewEntry(tenantID, actorID, action, vendorEntityType, vendor.ID, before, vendorState(vendor))
	if err != nil {
		return err
	}
	return s.auditRepo.Create(ctx, entry)
}

func vendorState(v *partner.Vendor) audit.State {
	return audit.State{
		"legal_name":     v.LegalName,
		"status":         v.Status,
		"risk_score":     v.RiskScore,
		"blocked_reason": v.BlockedReason,
		"payment_terms":  v.PaymentTerms,
	}
}
