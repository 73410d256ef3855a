package fx

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/procura/backend/internal/domain/shared"
)

// Source tells which rate served a conversion
type Source string

const (
	SourceIdentity Source = "IDENTITY"
	SourceDirect   Source = "DIRECT"
	SourceInverse  Source = "INVERSE"
)

// Conversion is the result of converting a monetary amount between
// currencies
type Conversion struct {
	FromCurrency   string          `json:"from_currency"`
	ToCurrency     string          `json:"to_currency"`
	AmountCents    int64           `json:"amount_cents"`
	ConvertedCents int64           `json:"converted_cents"`
	Rate           decimal.Decimal `json:"rate"`
	Source         Source          `json:"source"`
	AsOf           time.Time       `json:"as_of"`
}

// ErrRateNotFound is returned when neither a direct nor an inverse rate
// exists for a pair
var ErrRateNotFound = shared.NewDomainError("FX_RATE_NOT_FOUND", "No exchange rate stored for the currency pair")

// Convert turns amountCents of `from` into `to` using the supplied
// rates. The direct rate wins when both are given; the inverse rate is
// the fallback. Either rate may be nil
func Convert(amountCents int64, from, to string, direct, inverse *Rate) (*Conversion, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if len(from) != 3 || len(to) != 3 {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currencies must be 3-letter ISO 4217 codes")
	}

	if from == to {
		return &Conversion{
			FromCurrency:   from,
			ToCurrency:     to,
			AmountCents:    amountCents,
			ConvertedCents: amountCents,
			Rate:           decimal.NewFromInt(1),
			Source:         SourceIdentity,
			AsOf:           time.Now(),
		}, nil
	}

	if direct != nil {
		if direct.BaseCurrency != from || direct.QuoteCurrency != to {
			return nil, shared.NewDomainError("INVALID_RATE", fmt.Sprintf("Direct rate is for %s/%s, not %s/%s", direct.BaseCurrency, direct.QuoteCurrency, from, to))
		}
		return &Conversion{
			FromCurrency:   from,
			ToCurrency:     to,
			AmountCents:    amountCents,
			ConvertedCents: direct.Apply(amountCents),
			Rate:           direct.Value,
			Source:         SourceDirect,
			AsOf:           direct.AsOf,
		}, nil
	}

	if inverse != nil {
		if inverse.BaseCurrency != to || inverse.QuoteCurrency != from {
			return nil, shared.NewDomainError("INVALID_RATE", fmt.Sprintf("Inverse rate is for %s/%s, not %s/%s", inverse.BaseCurrency, inverse.QuoteCurrency, to, from))
		}
		return &Conversion{
			FromCurrency:   from,
			ToCurrency:     to,
			AmountCents:    amountCents,
			ConvertedCents: inverse.ApplyInverse(amountCents),
			Rate:           inverse.Value,
			Source:         SourceInverse,
			AsOf:           inverse.AsOf,
		}, nil
	}

	return nil, ErrRateNotFound
}
