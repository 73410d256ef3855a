package fx

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/procura/backend/internal/domain/fx"
	"github.com/procura/backend/internal/domain/shared"
)

// RateService stores exchange rate observations and serves conversions.
// Conversion uses the most recent rate at or before the requested time,
// preferring a direct rate and falling back to the inverse pair
type RateService struct {
	rateRepo fx.Repository
	logger   *zap.Logger
}

// NewRateService creates a new RateService
func NewRateService(rateRepo fx.Repository, logger *zap.Logger) *RateService {
	return &RateService{
		rateRepo: rateRepo,
		logger:   logger,
	}
}

// StoreRate records a rate observation
func (s *RateService) StoreRate(ctx context.Context, tenantID uuid.UUID, req StoreRateRequest) (*RateResponse, error) {
	value, err := decimal.NewFromString(req.Rate)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_RATE", "Rate must be a decimal number")
	}

	asOf := time.Now()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	rate, err := fx.NewRate(tenantID, req.BaseCurrency, req.QuoteCurrency, value, asOf)
	if err != nil {
		return nil, err
	}
	if err := s.rateRepo.Create(ctx, rate); err != nil {
		return nil, err
	}

	s.logger.Info("fx rate stored",
		zap.String("tenant_id", tenantID.String()),
		zap.String("pair", rate.BaseCurrency+"/"+rate.QuoteCurrency),
		zap.String("rate", rate.Value.String()))

	resp := ToRateResponse(rate)
	return &resp, nil
}

// List returns stored rates, newest first
func (s *RateService) List(ctx context.Context, tenantID uuid.UUID, filter RateListFilter) (*shared.Paginated[RateResponse], error) {
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
	if filter.BaseCurrency != "" {
		repoFilter.Filters["base_currency"] = strings.ToUpper(filter.BaseCurrency)
	}
	if filter.QuoteCurrency != "" {
		repoFilter.Filters["quote_currency"] = strings.ToUpper(filter.QuoteCurrency)
	}

	page, err := s.rateRepo.FindAll(ctx, tenantID, repoFilter)
	if err != nil {
		return nil, err
	}

	items := make([]RateResponse, 0, len(page.Items))
	for _, rate := range page.Items {
		items = append(items, ToRateResponse(rate))
	}
	return &shared.Paginated[RateResponse]{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}, nil
}

// Convert converts an amount between currencies
func (s *RateService) Convert(ctx context.Context, tenantID uuid.UUID, req ConvertRequest) (*fx.Conversion, error) {
	from := strings.ToUpper(strings.TrimSpace(req.FromCurrency))
	to := strings.ToUpper(strings.TrimSpace(req.ToCurrency))

	asOf := time.Now()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	if from == to {
		return fx.Convert(req.AmountCents, from, to, nil, nil)
	}

	direct, err := s.rateRepo.FindLatest(ctx, tenantID, from, to, asOf)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if direct != nil {
		return fx.Convert(req.AmountCents, from, to, direct, nil)
	}

	inverse, err := s.rateRepo.FindLatest(ctx, tenantID, to, from, asOf)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	return fx.Convert(req.AmountCents, from, to, nil, inverse)
}

// NormalizeAmount converts an amount into the target currency for
// reporting. Reports tolerate missing rates: the original amount comes
// back marked unconverted rather than failing the whole report
func (s *RateService) NormalizeAmount(ctx context.Context, tenantID uuid.UUID, amountCents int64, from, target string) (int64, bool) {
	conv, err := s.Convert(ctx, tenantID, ConvertRequest{
		AmountCents:  amountCents,
		FromCurrency: from,
		ToCurrency:   target,
	})
	if err != nil {
		return amountCents, false
	}
	return conv.ConvertedCents, true
}
