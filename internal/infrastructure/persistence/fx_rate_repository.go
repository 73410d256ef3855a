package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/fx"
	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/infrastructure/persistence/tenant"
)

// GormFxRateRepository implements fx.Repository using GORM
type GormFxRateRepository struct {
	db *tenant.TenantDB
}

// NewGormFxRateRepository creates a new GormFxRateRepository
func NewGormFxRateRepository(db *tenant.TenantDB) *GormFxRateRepository {
	return &GormFxRateRepository{db: db}
}

// Create stores a rate observation
func (r *GormFxRateRepository) Create(ctx context.Context, rate *fx.Rate) error {
	return translateError(r.db.DB().WithContext(ctx).Create(rate).Error)
}

// FindLatest finds the most recent rate for a pair observed at or before asOf
func (r *GormFxRateRepository) FindLatest(ctx context.Context, tenantID uuid.UUID, baseCurrency, quoteCurrency string, asOf time.Time) (*fx.Rate, error) {
	var rate fx.Rate
	if err := r.db.WithTenant(tenantID).WithContext(ctx).
		Where("base_currency = ? AND quote_currency = ? AND as_of <= ?",
			strings.ToUpper(baseCurrency), strings.ToUpper(quoteCurrency), asOf).
		Order("as_of DESC").
		First(&rate).Error; err != nil {
		return nil, translateError(err)
	}
	return &rate, nil
}

// FindAll finds stored rates within a tenant with pagination
func (r *GormFxRateRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[*fx.Rate], error) {
	query := r.db.WithTenant(tenantID).WithContext(ctx).Model(&fx.Rate{})

	if base, ok := filter.Filters["base_currency"]; ok {
		if s, isString := base.(string); isString {
			query = query.Where("base_currency = ?", strings.ToUpper(s))
		}
	}
	if quote, ok := filter.Filters["quote_currency"]; ok {
		if s, isString := quote.(string); isString {
			query = query.Where("quote_currency = ?", strings.ToUpper(s))
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, translateError(err)
	}

	var rates []*fx.Rate
	if err := paginate(query, filter, FxRateSortFields, "as_of DESC").Find(&rates).Error; err != nil {
		return nil, err
	}
	result := shared.NewPaginated(rates, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Ensure GormFxRateRepository implements fx.Repository
var _ fx.Repository = (*GormFxRateRepository)(nil)
