package fx

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/procura/backend/internal/domain/shared"
)

// Rate is one stored exchange rate observation: 1 unit of the base
// currency buys Rate units of the quote currency as of AsOf
type Rate struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_fx_rates_pair_asof,priority:1"`
	BaseCurrency  string          `gorm:"type:varchar(3);not null;uniqueIndex:idx_fx_rates_pair_asof,priority:2"`
	QuoteCurrency string          `gorm:"type:varchar(3);not null;uniqueIndex:idx_fx_rates_pair_asof,priority:3"`
	Value         decimal.Decimal `gorm:"type:decimal(18,8);not null"`
	AsOf          time.Time       `gorm:"not null;uniqueIndex:idx_fx_rates_pair_asof,priority:4"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Rate) TableName() string {
	return "fx_rates"
}

// NewRate stores an exchange rate observation
func NewRate(tenantID uuid.UUID, baseCurrency, quoteCurrency string, value decimal.Decimal, asOf time.Time) (*Rate, error) {
	baseCurrency = strings.ToUpper(strings.TrimSpace(baseCurrency))
	quoteCurrency = strings.ToUpper(strings.TrimSpace(quoteCurrency))
	if len(baseCurrency) != 3 || len(quoteCurrency) != 3 {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currencies must be 3-letter ISO 4217 codes")
	}
	if baseCurrency == quoteCurrency {
		return nil, shared.NewDomainError("INVALID_PAIR", "Base and quote currency must differ")
	}
	if !value.IsPositive() {
		return nil, shared.NewDomainError("INVALID_RATE", "Rate must be positive")
	}
	if asOf.IsZero() {
		asOf = time.Now()
	}

	return &Rate{
		ID:            uuid.New(),
		TenantID:      tenantID,
		BaseCurrency:  baseCurrency,
		QuoteCurrency: quoteCurrency,
		Value:         value,
		AsOf:          asOf,
		CreatedAt:     time.Now(),
	}, nil
}

// Apply converts an amount of the base currency into the quote
// currency, rounded half away from zero to whole minor units
func (r *Rate) Apply(amountCents int64) int64 {
	return decimal.NewFromInt(amountCents).Mul(r.Value).Round(0).IntPart()
}

// ApplyInverse converts an amount of the quote currency back into the
// base currency
func (r *Rate) ApplyInverse(amountCents int64) int64 {
	return decimal.NewFromInt(amountCents).Div(r.Value).Round(0).IntPart()
}
