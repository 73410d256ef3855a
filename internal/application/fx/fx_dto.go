package fx

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/procura/backend/internal/domain/fx"
)

// StoreRateRequest records an exchange rate observation. The rate is a
// decimal string so clients never lose precision to float encoding
type StoreRateRequest struct {
	BaseCurrency  string     `json:"base_currency" binding:"required,len=3"`
	QuoteCurrency string     `json:"quote_currency" binding:"required,len=3"`
	Rate          string     `json:"rate" binding:"required"`
	AsOf          *time.Time `json:"as_of"`
}

// RateResponse represents a stored rate in API responses
type RateResponse struct {
	ID            uuid.UUID       `json:"id"`
	BaseCurrency  string          `json:"base_currency"`
	QuoteCurrency string          `json:"quote_currency"`
	Rate          decimal.Decimal `json:"rate"`
	AsOf          time.Time       `json:"as_of"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToRateResponse converts a stored rate to a response DTO
func ToRateResponse(r *fx.Rate) RateResponse {
	return RateResponse{
		ID:            r.ID,
		BaseCurrency:  r.BaseCurrency,
		QuoteCurrency: r.QuoteCurrency,
		Rate:          r.Value,
		AsOf:          r.AsOf,
		CreatedAt:     r.CreatedAt,
	}
}

// RateListFilter represents filtering options for stored rates
type RateListFilter struct {
	Page          int    `form:"page" binding:"omitempty,min=1"`
	PageSize      int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	BaseCurrency  string `form:"base_currency" binding:"omitempty,len=3"`
	QuoteCurrency string `form:"quote_currency" binding:"omitempty,len=3"`
}

// ConvertRequest converts an amount between currencies using the most
// recent stored rate at or before as_of (now when omitted)
type ConvertRequest struct {
	AmountCents  int64      `form:"amount_cents" binding:"required"`
	FromCurrency string     `form:"from_currency" binding:"required,len=3"`
	ToCurrency   string     `form:"to_currency" binding:"required,len=3"`
	AsOf         *time.Time `form:"as_of" time_format:"2006-01-02T15:04:05Z07:00"`
}
