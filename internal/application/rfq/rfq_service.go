package rfq

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	budgetapp "github.com/procura/backend/internal/application/budget"
	"github.com/procura/backend/internal/domain/audit"
	"github.com/procura/backend/internal/domain/identity"
	"github.com/procura/backend/internal/domain/notification"
	"github.com/procura/backend/internal/domain/partner"
	"github.com/procura/backend/internal/domain/procurement"
	"github.com/procura/backend/internal/domain/rfq"
	"github.com/procura/backend/internal/domain/shared"
)

const rfqEntityType = "RFQ"

// Notifier delivers in-app notifications to users. Sending an RFQ raises
// one invitation notification per vendor portal account
type Notifier interface {
	Notify(ctx context.Context, tenantID, userID uuid.UUID, notifType notification.Type, title, body string, payload map[string]any) (*notification.Notification, error)
}

// RfqService runs the quotation workflow: draft an RFQ, send it to
// invited vendors, collect their quotes and award a winner. Awarding can
// seed a draft purchase order from the winning quote
type RfqService struct {
	rfqRepo    rfq.Repository
	vendorRepo partner.VendorRepository
	userRepo   identity.UserRepository
	txScope    budgetapp.TransactionScope
	notifier   Notifier
	auditRepo  audit.Repository
	logger     *zap.Logger
}

// NewRfqService creates a new RfqService. The notifier may be nil, in
// which case sending an RFQ raises no invitation notifications
func NewRfqService(
	rfqRepo rfq.Repository,
	vendorRepo partner.VendorRepository,
	userRepo identity.UserRepository,
	txScope budgetapp.TransactionScope,
	notifier Notifier,
	auditRepo audit.Repository,
	logger *zap.Logger,
) *RfqService {
	return &RfqService{
		rfqRepo:    rfqRepo,
		vendorRepo: vendorRepo,
		userRepo:   userRepo,
		txScope:    txScope,
		notifier:   notifier,
		auditRepo:  auditRepo,
		logger:     logger,
	}
}

// Create opens a draft RFQ with its lines and invited vendors. Every
// invited vendor must be active in the tenant
func (s *RfqService) Create(ctx context.Context, tenantID, actorID uuid.UUID, req CreateRfqRequest) (*RfqResponse, error) {
	for _, vendorID := range req.VendorIDs {
		vendor, err := s.findTenantVendor(ctx, tenantID, vendorID)
		if err != nil {
			return nil, err
		}
		if !vendor.IsActive() {
			return nil, shared.NewDomainError("VENDOR_NOT_ACTIVE", "RFQs can only be sent to active vendors")
		}
	}

	rfqNumber, err := s.rfqRepo.GenerateRfqNumber(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	r, err := rfq.NewRFQ(tenantID, rfqNumber, req.Title, actorID)
	if err != nil {
		return nil, err
	}
	r.Description = strings.TrimSpace(req.Description)

	for _, line := range req.Lines {
		if _, err := r.AddLine(line.Description, line.Quantity); err != nil {
			return nil, err
		}
	}
	for _, vendorID := range req.VendorIDs {
		if err := r.InviteVendor(vendorID); err != nil {
			return nil, err
		}
	}
	if req.DueDate != nil {
		if err := r.SetDueDate(*req.DueDate); err != nil {
			return nil, err
		}
	}

	if err := s.rfqRepo.Create(ctx, r); err != nil {
		return nil, err
	}
	if err := s.recordAudit(ctx, tenantID, actorID, "CREATE", r, nil); err != nil {
		return nil, err
	}

	s.logger.Info("rfq created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("rfq_number", r.RfqNumber),
		zap.Int("lines", len(r.Lines)),
		zap.Int("invitations", len(r.Invitations)))

	resp := ToRfqResponse(r)
	return &resp, nil
}

// GetByID returns an RFQ with its lines, invitations and quotes
func (s *RfqService) GetByID(ctx context.Context, tenantID, rfqID uuid.UUID) (*RfqResponse, error) {
	r, err := s.rfqRepo.FindByID(ctx, tenantID, rfqID)
	if err != nil {
		return nil, err
	}
	resp := ToRfqResponse(r)
	return &resp, nil
}

// List returns RFQs filtered by status
func (s *RfqService) List(ctx context.Context, tenantID uuid.UUID, filter RfqListFilter) (*shared.Paginated[RfqResponse], error) {
	page, err := s.rfqRepo.FindAll(ctx, tenantID, s.repoFilter(filter))
	if err != nil {
		return nil, err
	}
	return toRfqPage(page), nil
}

// ListForVendor returns the RFQs a vendor was invited to. Vendor portal
// users only ever see their own invitations
func (s *RfqService) ListForVendor(ctx context.Context, tenantID, vendorID uuid.UUID, filter RfqListFilter) (*shared.Paginated[RfqResponse], error) {
	page, err := s.rfqRepo.FindByVendorInvitation(ctx, tenantID, vendorID, s.repoFilter(filter))
	if err != nil {
		return nil, err
	}
	return toRfqPage(page), nil
}

// Send dispatches a draft RFQ to its invited vendors. Invitation
// notifications are best effort: a failed delivery is logged and the
// send still succeeds
func (s *RfqService) Send(ctx context.Context, tenantID, actorID, rfqID uuid.UUID) (*RfqResponse, error) {
	r, err := s.rfqRepo.FindByID(ctx, tenantID, rfqID)
	if err != nil {
		return nil, err
	}

	before := rfqState(r)
	if err := r.Send(); err != nil {
		return nil, err
	}
	if err := s.rfqRepo.Update(ctx, r); err != nil {
		return nil, err
	}
	if err := s.recordAudit(ctx, tenantID, actorID, "SEND", r, before); err != nil {
		return nil, err
	}

	s.notifyInvitedVendors(ctx, r)

	s.logger.Info("rfq sent",
		zap.String("tenant_id", tenantID.String()),
		zap.String("rfq_number", r.RfqNumber),
		zap.Int("invitations", len(r.Invitations)))

	resp := ToRfqResponse(r)
	return &resp, nil
}

// RecordQuote stores a vendor's quote. Every RFQ line must be priced and
// a vendor can quote only once
func (s *RfqService) RecordQuote(ctx context.Context, tenantID, actorID, rfqID uuid.UUID, req RecordQuoteRequest) (*RfqResponse, error) {
	r, err := s.rfqRepo.FindByID(ctx, tenantID, rfqID)
	if err != nil {
		return nil, err
	}

	prices := make([]rfq.LinePrice, len(req.Lines))
	for i, line := range req.Lines {
		prices[i] = rfq.LinePrice{
			RfqLineItemID:  line.RfqLineItemID,
			UnitPriceCents: line.UnitPriceCents,
		}
	}

	before := rfqState(r)
	quote, err := r.RecordQuote(req.VendorID, prices, req.Notes)
	if err != nil {
		return nil, err
	}
	if err := s.rfqRepo.Update(ctx, r); err != nil {
		return nil, err
	}
	if err := s.recordAudit(ctx, tenantID, actorID, "QUOTE_RECORDED", r, before); err != nil {
		return nil, err
	}

	s.logger.Info("rfq quote recorded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("rfq_number", r.RfqNumber),
		zap.String("vendor_id", req.VendorID.String()),
		zap.Int64("total_cents", quote.TotalCents))

	resp := ToRfqResponse(r)
	return &resp, nil
}

// DeclineInvitation records that a vendor passed on the RFQ
func (s *RfqService) DeclineInvitation(ctx context.Context, tenantID, actorID, rfqID uuid.UUID, req DeclineInvitationRequest) (*RfqResponse, error) {
	r, err := s.rfqRepo.FindByID(ctx, tenantID, rfqID)
	if err != nil {
		return nil, err
	}

	before := rfqState(r)
	if err := r.DeclineInvitation(req.VendorID); err != nil {
		return nil, err
	}
	if err := s.rfqRepo.Update(ctx, r); err != nil {
		return nil, err
	}
	if err := s.recordAudit(ctx, tenantID, actorID, "QUOTE_DECLINED", r, before); err != nil {
		return nil, err
	}

	resp := ToRfqResponse(r)
	return &resp, nil
}

// Award picks the winning vendor. When the request asks for an order the
// award and the seeded draft purchase order commit atomically
func (s *RfqService) Award(ctx context.Context, tenantID, actorID, rfqID uuid.UUID, req AwardRfqRequest) (*AwardResult, error) {
	vendor, err := s.findTenantVendor(ctx, tenantID, req.VendorID)
	if err != nil {
		return nil, err
	}

	var r *rfq.RFQ
	var po *procurement.PurchaseOrder
	err = s.txScope.Execute(ctx, func(repos budgetapp.TransactionalRepositories) error {
		r, err = repos.Rfqs().FindByID(ctx, tenantID, rfqID)
		if err != nil {
			return err
		}

		before := rfqState(r)
		if err := r.Award(req.VendorID); err != nil {
			return err
		}
		if err := repos.Rfqs().Update(ctx, r); err != nil {
			return err
		}

		if req.CreateOrder {
			po, err = s.seedOrder(ctx, repos, r, vendor, actorID)
			if err != nil {
				return err
			}
		}

		entry, err := audit.NewEntry(tenantID, actorID, "AWARD", rfqEntityType, r.ID, before, rfqState(r))
		if err != nil {
			return err
		}
		return repos.AuditEntries().Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("rfq awarded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("rfq_number", r.RfqNumber),
		zap.String("vendor_id", req.VendorID.String()),
		zap.Bool("order_seeded", po != nil))

	result := &AwardResult{Rfq: ToRfqResponse(r)}
	if po != nil {
		result.OrderID = &po.ID
		result.PoNumber = po.PoNumber
	}
	return result, nil
}

// Cancel abandons an RFQ that will not be awarded
func (s *RfqService) Cancel(ctx context.Context, tenantID, actorID, rfqID uuid.UUID, req CancelRfqRequest) (*RfqResponse, error) {
	r, err := s.rfqRepo.FindByID(ctx, tenantID, rfqID)
	if err != nil {
		return nil, err
	}

	before := rfqState(r)
	if err := r.Cancel(req.Reason); err != nil {
		return nil, err
	}
	if err := s.rfqRepo.Update(ctx, r); err != nil {
		return nil, err
	}
	if err := s.recordAudit(ctx, tenantID, actorID, "CANCEL", r, before); err != nil {
		return nil, err
	}

	s.logger.Info("rfq cancelled",
		zap.String("tenant_id", tenantID.String()),
		zap.String("rfq_number", r.RfqNumber),
		zap.String("reason", r.CancelReason))

	resp := ToRfqResponse(r)
	return &resp, nil
}

// seedOrder cuts a draft purchase order from the winning quote. Line
// descriptions and quantities come from the RFQ lines, prices from the
// quote
func (s *RfqService) seedOrder(ctx context.Context, repos budgetapp.TransactionalRepositories, r *rfq.RFQ, vendor *partner.Vendor, actorID uuid.UUID) (*procurement.PurchaseOrder, error) {
	winning := r.WinningQuote()
	if winning == nil {
		return nil, shared.NewDomainError("NO_QUOTE", "Awarded vendor has no quote to seed an order from")
	}

	poNumber, err := repos.PurchaseOrders().GeneratePoNumber(ctx, r.TenantID)
	if err != nil {
		return nil, err
	}
	po, err := procurement.NewPurchaseOrder(r.TenantID, poNumber, vendor.ID, vendor.LegalName)
	if err != nil {
		return nil, err
	}

	linesByID := make(map[uuid.UUID]rfq.LineItem, len(r.Lines))
	for _, line := range r.Lines {
		linesByID[line.ID] = line
	}
	for _, ql := range winning.Lines {
		line, ok := linesByID[ql.RfqLineItemID]
		if !ok {
			return nil, shared.NewDomainError("UNKNOWN_LINE", "Quote references a line the RFQ does not have")
		}
		if _, err := po.AddLine(line.Description, line.Quantity, ql.UnitPriceCents); err != nil {
			return nil, err
		}
	}

	if err := repos.PurchaseOrders().Create(ctx, po); err != nil {
		return nil, err
	}

	entry, err := audit.NewEntry(r.TenantID, actorID, "CREATE", string(shared.EntityTypePO), po.ID,
		nil, audit.State{
			"po_number":   po.PoNumber,
			"vendor_id":   po.VendorID,
			"status":      po.Status,
			"total_cents": po.TotalCents,
			"rfq_number":  r.RfqNumber,
		})
	if err != nil {
		return nil, err
	}
	if err := repos.AuditEntries().Create(ctx, entry); err != nil {
		return nil, err
	}
	return po, nil
}

// notifyInvitedVendors raises RFQ_INVITATION notifications for the portal
// account behind each invited vendor's contact email. Vendors without a
// portal account are skipped
func (s *RfqService) notifyInvitedVendors(ctx context.Context, r *rfq.RFQ) {
	if s.notifier == nil {
		return
	}

	payload := map[string]any{
		"rfq_id":     r.ID.String(),
		"rfq_number": r.RfqNumber,
	}
	if r.DueDate != nil {
		payload["due_date"] = r.DueDate.Format("2006-01-02")
	}

	for _, inv := range r.Invitations {
		vendor, err := s.vendorRepo.FindByID(ctx, inv.VendorID)
		if err != nil || vendor.TenantID != r.TenantID {
			s.logger.Warn("rfq invitation vendor lookup failed",
				zap.String("rfq_number", r.RfqNumber),
				zap.String("vendor_id", inv.VendorID.String()),
				zap.Error(err))
			continue
		}
		user, err := s.userRepo.FindByEmail(ctx, r.TenantID, vendor.Email)
		if err != nil {
			continue
		}
		_, err = s.notifier.Notify(ctx, r.TenantID, user.ID, notification.TypeRfqInvitation,
			"You are invited to quote: "+r.Title,
			"RFQ "+r.RfqNumber+" is open for quotes",
			payload)
		if err != nil {
			s.logger.Warn("rfq invitation notification failed",
				zap.String("rfq_number", r.RfqNumber),
				zap.String("vendor_id", inv.VendorID.String()),
				zap.Error(err))
		}
	}
}

func (s *RfqService) findTenantVendor(ctx context.Context, tenantID, vendorID uuid.UUID) (*partner.Vendor, error) {
	vendor, err := s.vendorRepo.FindByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if vendor.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return vendor, nil
}

func (s *RfqService) repoFilter(filter RfqListFilter) shared.Filter {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	repoFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Search:   filter.Search,
		Filters:  map[string]any{},
	}
	if filter.Status != "" {
		repoFilter.Filters["status"] = filter.Status
	}
	return repoFilter
}

func (s *RfqService) recordAudit(ctx context.Context, tenantID, actorID uuid.UUID, action string, r *rfq.RFQ, before audit.State) error {
	entry, err := audit.NewEntry(tenantID, actorID, action, rfqEntityType, r.ID, before, rfqState(r))
	if err != nil {
		return err
	}
	return s.auditRepo.Create(ctx, entry)
}

func toRfqPage(page *shared.Paginated[*rfq.RFQ]) *shared.Paginated[RfqResponse] {
	items := make([]RfqResponse, 0, len(page.Items))
	for _, r := range page.Items {
		items = append(items, ToRfqResponse(r))
	}
	return &shared.Paginated[RfqResponse]{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}
}

func rfqState(r *rfq.RFQ) audit.State {
	state := audit.State{
		"rfq_number":  r.RfqNumber,
		"title":       r.Title,
		"status":      r.Status,
		"lines":       len(r.Lines),
		"invitations": len(r.Invitations),
		"quotes":      len(r.Quotes),
	}
	if r.AwardedVendorID != nil {
		state["awarded_vendor_id"] = r.AwardedVendorID.String()
	}
	return state
}
