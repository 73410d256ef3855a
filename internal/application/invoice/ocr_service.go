package invoice

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	budgetapp "github.com/procura/backend/internal/application/budget"
	"github.com/procura/backend/internal/domain/audit"
	"github.com/procura/backend/internal/domain/invoice"
	"github.com/procura/backend/internal/domain/shared"
)

// OcrConfidenceThreshold separates complete extractions from low
// confidence ones
const OcrConfidenceThreshold = 0.85

// DefaultOcrTimeout bounds one extraction call
const DefaultOcrTimeout = 5 * time.Second

// ocrMimeTypes maps supported document extensions to the MIME type sent
// to the extractor
var ocrMimeTypes = map[string]string{
	"pdf":  "application/pdf",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
}

// DocumentFetcher loads a stored document's bytes
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, storageKey string) ([]byte, error)
}

// ExtractedInvoice is the field set text extraction pulls out of a
// document
type ExtractedInvoice struct {
	InvoiceNumber string
	TotalCents    int64
	Currency      string
	Confidence    float64
}

// TextExtractor runs OCR over one document
type TextExtractor interface {
	Extract(ctx context.Context, mimeType string, document []byte) (*ExtractedInvoice, error)
}

// MatchRunner chains a match run once extraction lands
type MatchRunner interface {
	RunForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*MatchResultResponse, error)
}

// OcrService post-processes uploaded invoice documents: MIME gate, text
// extraction, merge of missing fields, and a chained match run when the
// invoice references an order
type OcrService struct {
	invoiceRepo invoice.Repository
	txScope     budgetapp.TransactionScope
	fetcher     DocumentFetcher
	extractor   TextExtractor
	matcher     MatchRunner
	timeout     time.Duration
	logger      *zap.Logger
}

// NewOcrService creates a new OcrService. A non-positive timeout falls
// back to DefaultOcrTimeout
func NewOcrService(
	invoiceRepo invoice.Repository,
	txScope budgetapp.TransactionScope,
	fetcher DocumentFetcher,
	extractor TextExtractor,
	matcher MatchRunner,
	timeout time.Duration,
	logger *zap.Logger,
) *OcrService {
	if timeout <= 0 {
		timeout = DefaultOcrTimeout
	}
	return &OcrService{
		invoiceRepo: invoiceRepo,
		txScope:     txScope,
		fetcher:     fetcher,
		extractor:   extractor,
		matcher:     matcher,
		timeout:     timeout,
		logger:      logger,
	}
}

// Process runs extraction for one pending invoice. Re-running against an
// invoice whose extraction already landed is a no-op
func (s *OcrService) Process(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	inv, err := s.invoiceRepo.FindByID(ctx, tenantID, invoiceID)
	if err != nil {
		return err
	}
	if inv.OcrStatus != invoice.OcrStatusPending {
		return nil
	}

	_, ext, err := shared.ParseStorageKey(inv.DocumentKey)
	if err != nil {
		return s.recordOutcome(ctx, tenantID, invoiceID, invoice.OcrStatusUnsupportedFormat, 0, nil)
	}
	mimeType, supported := ocrMimeTypes[ext]
	if !supported {
		return s.recordOutcome(ctx, tenantID, invoiceID, invoice.OcrStatusUnsupportedFormat, 0, nil)
	}

	document, err := s.fetcher.FetchDocument(ctx, inv.DocumentKey)
	if err != nil {
		s.logger.Warn("invoice document fetch failed",
			zap.String("invoice_number", inv.InvoiceNumber),
			zap.Error(err))
		return s.recordOutcome(ctx, tenantID, invoiceID, invoice.OcrStatusFailed, 0, nil)
	}

	extractCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	extracted, err := s.extractor.Extract(extractCtx, mimeType, document)
	if err != nil {
		s.logger.Warn("invoice text extraction failed",
			zap.String("invoice_number", inv.InvoiceNumber),
			zap.Error(err))
		return s.recordOutcome(ctx, tenantID, invoiceID, invoice.OcrStatusFailed, 0, nil)
	}

	status := invoice.OcrStatusComplete
	if extracted.Confidence < OcrConfidenceThreshold {
		status = invoice.OcrStatusLowConfidence
	}
	if err := s.recordOutcome(ctx, tenantID, invoiceID, status, extracted.Confidence, extracted); err != nil {
		return err
	}

	if inv.OrderID != nil && s.matcher != nil {
		if _, err := s.matcher.RunForInvoice(ctx, tenantID, invoiceID); err != nil {
			s.logger.Warn("post-extraction match run failed",
				zap.String("invoice_number", inv.InvoiceNumber),
				zap.Error(err))
		}
	}

	return nil
}

// recordOutcome persists the extraction verdict, merging extracted
// fields only where the invoice lacks them
func (s *OcrService) recordOutcome(ctx context.Context, tenantID, invoiceID uuid.UUID, status invoice.OcrStatus, confidence float64, extracted *ExtractedInvoice) error {
	return s.txScope.Execute(ctx, func(repos budgetapp.TransactionalRepositories) error {
		inv, err := repos.Invoices().FindByIDForUpdate(ctx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		if inv.OcrStatus != invoice.OcrStatusPending {
			return nil
		}

		before := ocrState(inv)
		if extracted != nil {
			inv.MergeExtractedFields(extracted.InvoiceNumber, extracted.TotalCents, extracted.Currency)
		}
		inv.SetOcrOutcome(status, confidence)
		if err := repos.Invoices().Update(ctx, inv); err != nil {
			return err
		}

		entry, err := audit.NewEntry(tenantID, audit.SystemActorID, "OCR", string(shared.EntityTypeInvoice), inv.ID,
			before, ocrState(inv))
		if err != nil {
			return err
		}
		return repos.AuditEntries().Create(ctx, entry)
	})
}

// ocrState snapshots the fields an extraction run may touch
func ocrState(inv *invoice.Invoice) audit.State {
	return audit.State{
		"ocr_status":     string(inv.OcrStatus),
		"ocr_confidence": inv.OcrConfidence,
		"invoice_number": inv.InvoiceNumber,
		"total_cents":    inv.TotalCents,
		"currency":       inv.Currency,
	}
}
