package matching

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/procura/backend/internal/domain/invoice"
	"github.com/procura/backend/internal/domain/procurement"
)

// Outcome is the verdict of a three-way-match run
type Outcome string

const (
	OutcomeMatched   Outcome = "MATCHED"
	OutcomeException Outcome = "EXCEPTION"
)

// ExceptionType classifies a reconciliation failure
type ExceptionType string

const (
	ExceptionNoPoLines          ExceptionType = "NO_PO_LINES"
	ExceptionMissingInvoiceLine ExceptionType = "MISSING_INVOICE_LINE"
	ExceptionQtyMismatch        ExceptionType = "QTY_MISMATCH"
	ExceptionPriceVariance      ExceptionType = "PRICE_VARIANCE"
)

// Exception is one reconciliation failure. Concrete types carry the
// figures that explain the failure and marshal flat for storage on the
// invoice
type Exception interface {
	ExceptionType() ExceptionType
}

// NoPoLines reports a purchase order without line items
type NoPoLines struct {
	Type ExceptionType `json:"type"`
}

func (e NoPoLines) ExceptionType() ExceptionType { return e.Type }

// MissingInvoiceLine reports a PO line the invoice does not bill
type MissingInvoiceLine struct {
	Type        ExceptionType `json:"type"`
	Description string        `json:"description"`
	OrderedQty  int           `json:"ordered_qty"`
	ReceivedQty int           `json:"received_qty"`
}

func (e MissingInvoiceLine) ExceptionType() ExceptionType { return e.Type }

// QtyMismatch reports an invoiced quantity that differs from the
// received quantity
type QtyMismatch struct {
	Type        ExceptionType `json:"type"`
	Description string        `json:"description"`
	Ordered     int           `json:"ordered"`
	Received    int           `json:"received"`
	Invoiced    int           `json:"invoiced"`
}

func (e QtyMismatch) ExceptionType() ExceptionType { return e.Type }

// PriceVariance reports a unit price outside the configured tolerance
type PriceVariance struct {
	Type         ExceptionType `json:"type"`
	Description  string        `json:"description"`
	PoPrice      int64         `json:"po_price"`
	InvoicePrice int64         `json:"invoice_price"`
	Variance     int64         `json:"variance"`
	Tolerance    int64         `json:"tolerance"`
	VariancePct  float64       `json:"variance_pct"`
}

func (e PriceVariance) ExceptionType() ExceptionType { return e.Type }

// Tolerance configures the price rule. Quantities are always matched
// with zero tolerance
type Tolerance struct {
	PriceVariancePercent float64
	MinVarianceCents     int64
}

// DefaultTolerance returns the stock tolerance configuration
func DefaultTolerance() Tolerance {
	return Tolerance{
		PriceVariancePercent: 2.0,
		MinVarianceCents:     1000,
	}
}

// PriceToleranceCents computes the allowed absolute price deviation for
// one PO unit price
func (t Tolerance) PriceToleranceCents(poUnitPriceCents int64) int64 {
	fromPct := decimal.NewFromInt(poUnitPriceCents).
		Mul(decimal.NewFromFloat(t.PriceVariancePercent)).
		Div(decimal.NewFromInt(100)).
		Floor().
		IntPart()
	if fromPct < t.MinVarianceCents {
		return t.MinVarianceCents
	}
	return fromPct
}

// Result is the outcome of one match run
type Result struct {
	Outcome    Outcome     `json:"outcome"`
	Exceptions []Exception `json:"exceptions,omitempty"`
}

// Matched returns true when reconciliation raised no exceptions
func (r *Result) Matched() bool {
	return r.Outcome == OutcomeMatched
}

// ExceptionsJSON marshals the exception list for storage on the invoice
func (r *Result) ExceptionsJSON() (string, error) {
	if len(r.Exceptions) == 0 {
		return "", nil
	}
	data, err := json.Marshal(r.Exceptions)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// AggregateReceived sums received quantities per PO line across the
// lines of every confirmed receipt
func AggregateReceived(receipts []*procurement.Receipt) map[uuid.UUID]int {
	received := make(map[uuid.UUID]int)
	for _, rcpt := range receipts {
		if rcpt.Status != procurement.ReceiptStatusConfirmed {
			continue
		}
		for _, line := range rcpt.Lines {
			received[line.PoLineItemID] += line.QuantityReceived
		}
	}
	return received
}

func normalizeDescription(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Match reconciles a purchase order's lines against what was received
// and what the vendor billed. It reads its inputs and mutates nothing;
// callers persist the verdict onto the invoice
func Match(tol Tolerance, poLines []procurement.PoLineItem, receivedByLine map[uuid.UUID]int, invoiceLines []invoice.InvoiceLineItem) *Result {
	if len(poLines) == 0 {
		return &Result{
			Outcome:    OutcomeException,
			Exceptions: []Exception{NoPoLines{Type: ExceptionNoPoLines}},
		}
	}

	// First occurrence wins when the invoice repeats a description
	invoiceByDesc := make(map[string]*invoice.InvoiceLineItem, len(invoiceLines))
	for i := range invoiceLines {
		key := normalizeDescription(invoiceLines[i].Description)
		if _, ok := invoiceByDesc[key]; !ok {
			invoiceByDesc[key] = &invoiceLines[i]
		}
	}

	exceptions := make([]Exception, 0)
	for i := range poLines {
		poLine := &poLines[i]
		receivedQty := receivedByLine[poLine.ID]

		invLine, ok := invoiceByDesc[normalizeDescription(poLine.Description)]
		if !ok {
			exceptions = append(exceptions, MissingInvoiceLine{
				Type:        ExceptionMissingInvoiceLine,
				Description: poLine.Description,
				OrderedQty:  poLine.Quantity,
				ReceivedQty: receivedQty,
			})
			continue
		}

		if invLine.Quantity != receivedQty {
			exceptions = append(exceptions, QtyMismatch{
				Type:        ExceptionQtyMismatch,
				Description: poLine.Description,
				Ordered:     poLine.Quantity,
				Received:    receivedQty,
				Invoiced:    invLine.Quantity,
			})
		}

		variance := invLine.UnitPriceCents - poLine.UnitPriceCents
		if variance < 0 {
			variance = -variance
		}
		tolerance := tol.PriceToleranceCents(poLine.UnitPriceCents)
		if variance > tolerance {
			variancePct := decimal.NewFromInt(variance).
				Div(decimal.NewFromInt(poLine.UnitPriceCents)).
				Mul(decimal.NewFromInt(100)).
				Round(2).
				InexactFloat64()
			exceptions = append(exceptions, PriceVariance{
				Type:         ExceptionPriceVariance,
				Description:  poLine.Description,
				PoPrice:      poLine.UnitPriceCents,
				InvoicePrice: invLine.UnitPriceCents,
				Variance:     variance,
				Tolerance:    tolerance,
				VariancePct:  variancePct,
			})
		}
	}

	if len(exceptions) == 0 {
		return &Result{Outcome: OutcomeMatched}
	}
	return &Result{Outcome: OutcomeException, Exceptions: exceptions}
}
