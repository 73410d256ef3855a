package procurement

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	budgetapp "github.com/procura/backend/internal/application/budget"
	"github.com/procura/backend/internal/domain/audit"
	"github.com/procura/backend/internal/domain/partner"
	"github.com/procura/backend/internal/domain/procurement"
	"github.com/procura/backend/internal/domain/shared"
)

// DocumentRenderer renders an order into a stored document and returns
// its storage key
type DocumentRenderer interface {
	RenderPurchaseOrder(ctx context.Context, po *procurement.PurchaseOrder) (string, error)
}

// DownloadURLSigner issues short-lived download URLs for stored documents
type DownloadURLSigner interface {
	SignDownloadURL(ctx context.Context, storageKey string) (string, error)
}

// PurchaseOrderService handles the order side of the procure-to-pay flow
type PurchaseOrderService struct {
	poRepo     procurement.PurchaseOrderRepository
	vendorRepo partner.VendorRepository
	txScope    budgetapp.TransactionScope
	renderer   DocumentRenderer
	signer     DownloadURLSigner
	logger     *zap.Logger
}

// NewPurchaseOrderService creates a new PurchaseOrderService. The renderer
// may be nil, in which case issued orders carry no document
func NewPurchaseOrderService(
	poRepo procurement.PurchaseOrderRepository,
	vendorRepo partner.VendorRepository,
	txScope budgetapp.TransactionScope,
	renderer DocumentRenderer,
	signer DownloadURLSigner,
	logger *zap.Logger,
) *PurchaseOrderService {
	return &PurchaseOrderService{
		poRepo:     poRepo,
		vendorRepo: vendorRepo,
		txScope:    txScope,
		renderer:   renderer,
		signer:     signer,
		logger:     logger,
	}
}

// CreateFromRequest cuts an issued purchase order from an approved
// purchase request. The vendor must be active
func (s *PurchaseOrderService) CreateFromRequest(ctx context.Context, tenantID, actorID uuid.UUID, req CreatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	vendor, err := s.vendorRepo.FindByID(ctx, req.VendorID)
	if err != nil {
		return nil, err
	}
	if vendor.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	if !vendor.IsActive() {
		return nil, shared.NewDomainError("VENDOR_NOT_ACTIVE", "Purchase orders can only be issued to active vendors")
	}

	var po *procurement.PurchaseOrder
	err = s.txScope.Execute(ctx, func(repos budgetapp.TransactionalRepositories) error {
		pr, err := repos.PurchaseRequests().FindByID(ctx, req.RequestID)
		if err != nil {
			return err
		}
		if pr.TenantID != tenantID {
			return shared.ErrNotFound
		}

		poNumber, err := repos.PurchaseOrders().GeneratePoNumber(ctx, tenantID)
		if err != nil {
			return err
		}

		po, err = procurement.NewPurchaseOrderFromRequest(poNumber, pr, vendor.ID, vendor.LegalName)
		if err != nil {
			return err
		}
		if req.ExpectedDeliveryDate != nil {
			if err := po.SetExpectedDelivery(*req.ExpectedDeliveryDate); err != nil {
				return err
			}
		}
		if err := repos.PurchaseOrders().Create(ctx, po); err != nil {
			return err
		}

		entry, err := audit.NewEntry(tenantID, actorID, "CREATE", string(shared.EntityTypePO), po.ID,
			nil, orderState(po))
		if err != nil {
			return err
		}
		return repos.AuditEntries().Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.renderDocument(ctx, po)

	response := ToPurchaseOrderResponse(po)
	return &response, nil
}

// renderDocument renders and attaches the order document. Rendering is
// best effort: a failure leaves the order without a document and is only
// logged
func (s *PurchaseOrderService) renderDocument(ctx context.Context, po *procurement.PurchaseOrder) {
	if s.renderer == nil {
		return
	}

	documentKey, err := s.renderer.RenderPurchaseOrder(ctx, po)
	if err != nil {
		s.logger.Warn("purchase order document rendering failed",
			zap.String("po_number", po.PoNumber),
			zap.Error(err))
		return
	}

	po.SetDocument(documentKey)
	if err := s.poRepo.Update(ctx, po); err != nil {
		s.logger.Warn("failed to attach rendered document to purchase order",
			zap.String("po_number", po.PoNumber),
			zap.Error(err))
	}
}

// Acknowledge records the vendor's acceptance of an issued order
func (s *PurchaseOrderService) Acknowledge(ctx context.Context, tenantID, actorID, orderID uuid.UUID) (*PurchaseOrderResponse, error) {
	var po *procurement.PurchaseOrder

	err := s.txScope.Execute(ctx, func(repos budgetapp.TransactionalRepositories) error {
		var err error
		po, err = repos.PurchaseOrders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if po.TenantID != tenantID {
			return shared.ErrNotFound
		}

		before := orderState(po)
		if err := po.Acknowledge(); err != nil {
			return err
		}
		if err := repos.PurchaseOrders().Update(ctx, po); err != nil {
			return err
		}

		entry, err := audit.NewEntry(tenantID, actorID, "ACKNOWLEDGE", string(shared.EntityTypePO), po.ID,
			before, orderState(po))
		if err != nil {
			return err
		}
		return repos.AuditEntries().Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	response := ToPurchaseOrderResponse(po)
	return &response, nil
}

// Cancel voids a non-terminal order. When the order came from a purchase
// request whose budget hold is still committed, the hold is released
func (s *PurchaseOrderService) Cancel(ctx context.Context, tenantID, actorID, orderID uuid.UUID, req CancelPurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	var po *procurement.PurchaseOrder

	err := s.txScope.Execute(ctx, func(repos budgetapp.TransactionalRepositories) error {
		var err error
		po, err = repos.PurchaseOrders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if po.TenantID != tenantID {
			return shared.ErrNotFound
		}

		before := orderState(po)
		if err := po.Cancel(req.Reason); err != nil {
			return err
		}
		if err := repos.PurchaseOrders().Update(ctx, po); err != nil {
			return err
		}

		if po.RequestID != nil {
			if err := budgetapp.ReleaseReservation(ctx, repos, shared.EntityTypePR, *po.RequestID); err != nil {
				return err
			}
		}

		after := orderState(po)
		after["cancel_reason"] = req.Reason
		entry, err := audit.NewEntry(tenantID, actorID, "CANCEL", string(shared.EntityTypePO), po.ID, before, after)
		if err != nil {
			return err
		}
		return repos.AuditEntries().Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	response := ToPurchaseOrderResponse(po)
	return &response, nil
}

// GetByID retrieves a purchase order with its lines
func (s *PurchaseOrderService) GetByID(ctx context.Context, tenantID, orderID uuid.UUID) (*PurchaseOrderResponse, error) {
	po, err := s.poRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if po.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}

	response := ToPurchaseOrderResponse(po)
	return &response, nil
}

// GetDocumentURL issues a short-lived download URL for the order's
// rendered document
func (s *PurchaseOrderService) GetDocumentURL(ctx context.Context, tenantID, orderID uuid.UUID) (string, error) {
	po, err := s.poRepo.FindByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	if po.TenantID != tenantID {
		return "", shared.ErrNotFound
	}
	if po.DocumentKey == "" {
		return "", shared.NewDomainError("NO_DOCUMENT", "No document has been rendered for this order")
	}
	if s.signer == nil {
		return "", shared.NewDomainError("STORAGE_UNAVAILABLE", "Document storage is not configured")
	}

	return s.signer.SignDownloadURL(ctx, po.DocumentKey)
}

// List retrieves purchase orders with filtering and pagination
func (s *PurchaseOrderService) List(ctx context.Context, tenantID uuid.UUID, filter PurchaseOrderListFilter) ([]PurchaseOrderResponse, int64, error) {
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
		Filters:  make(map[string]any),
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	var (
		orders []*procurement.PurchaseOrder
		total  int64
		err    error
	)
	if filter.VendorID != "" {
		vendorID, parseErr := uuid.Parse(filter.VendorID)
		if parseErr != nil {
			return nil, 0, shared.ErrInvalidInput
		}
		orders, total, err = s.poRepo.FindByVendor(ctx, tenantID, vendorID, domainFilter)
	} else {
		orders, total, err = s.poRepo.FindAll(ctx, domainFilter)
	}
	if err != nil {
		return nil, 0, err
	}

	responses := make([]PurchaseOrderResponse, 0, len(orders))
	for _, po := range orders {
		responses = append(responses, ToPurchaseOrderResponse(po))
	}
	return responses, total, nil
}

func orderState(po *procurement.PurchaseOrder) audit.State {
	return audit.State{
		"po_number":   po.PoNumber,
		"vendor_id":   po.VendorID,
		"status":      string(po.Status),
		"total_cents": po.TotalCents,
		"line_count":  len(po.Lines),
	}
}
