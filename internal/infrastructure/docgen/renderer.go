package docgen

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/procura/backend/internal/domain/procurement"
)

// ObjectUploader stores rendered documents. Satisfied by the S3 object
// storage adapter
type ObjectUploader interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
}

// PdfEngine converts HTML to PDF bytes
type PdfEngine interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// PurchaseOrderRenderer renders issued orders into stored PDF documents
type PurchaseOrderRenderer struct {
	engine  PdfEngine
	storage ObjectUploader
	logger  *zap.Logger
}

// NewPurchaseOrderRenderer creates a new PurchaseOrderRenderer
func NewPurchaseOrderRenderer(engine PdfEngine, storage ObjectUploader, logger *zap.Logger) *PurchaseOrderRenderer {
	return &PurchaseOrderRenderer{
		engine:  engine,
		storage: storage,
		logger:  logger,
	}
}

// RenderPurchaseOrder renders the order document and uploads it under the
// tenant's storage prefix, returning the object key
func (r *PurchaseOrderRenderer) RenderPurchaseOrder(ctx context.Context, po *procurement.PurchaseOrder) (string, error) {
	html, err := buildPurchaseOrderHTML(po)
	if err != nil {
		return "", fmt.Errorf("failed to build order document: %w", err)
	}

	pdf, err := r.engine.RenderHTML(ctx, html)
	if err != nil {
		return "", fmt.Errorf("failed to render order document: %w", err)
	}

	key := fmt.Sprintf("tenants/%s/purchase-orders/%s.pdf", po.TenantID, po.ID)
	if err := r.storage.Upload(ctx, key, pdf, "application/pdf"); err != nil {
		return "", fmt.Errorf("failed to store order document: %w", err)
	}

	r.logger.Info("Order document stored",
		zap.String("po_number", po.PoNumber),
		zap.String("storage_key", key),
		zap.Int("bytes", len(pdf)))
	return key, nil
}
