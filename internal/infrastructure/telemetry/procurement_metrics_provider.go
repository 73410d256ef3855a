// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProcurementMetricsProvider implements ProcurementMetricsProvider using GORM.
// It queries the approvals and budgets tables directly for aggregated metrics.
type GormProcurementMetricsProvider struct {
	db *gorm.DB
}

// NewGormProcurementMetricsProvider creates a new GormProcurementMetricsProvider.
func NewGormProcurementMetricsProvider(db *gorm.DB) *GormProcurementMetricsProvider {
	return &GormProcurementMetricsProvider{db: db}
}

// GetPendingApprovalCount returns the number of approvals waiting on a decision for a tenant.
func (p *GormProcurementMetricsProvider) GetPendingApprovalCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("approvals").
		Where("tenant_id = ? AND deleted_at IS NULL", tenantID).
		Where("status = ?", "PENDING").
		Count(&count).Error

	return count, err
}

// GetBudgetUtilization returns settled spend as a percentage of the total per budget for a tenant.
// Budgets with a zero total are skipped.
func (p *GormProcurementMetricsProvider) GetBudgetUtilization(ctx context.Context, tenantID uuid.UUID) (map[uuid.UUID]float64, error) {
	type result struct {
		ID         uuid.UUID `gorm:"column:id"`
		TotalCents int64     `gorm:"column:total_cents"`
		SpentCents int64     `gorm:"column:spent_cents"`
	}

	var results []result
	err := p.db.WithContext(ctx).
		Table("budgets").
		Select("id, total_cents, spent_cents").
		Where("tenant_id = ? AND deleted_at IS NULL", tenantID).
		Find(&results).Error

	if err != nil {
		return nil, err
	}

	m := make(map[uuid.UUID]float64, len(results))
	for _, r := range results {
		if r.TotalCents == 0 {
			continue
		}
		m[r.ID] = float64(r.SpentCents) / float64(r.TotalCents) * 100
	}

	return m, nil
}

// GormTenantProvider implements TenantProvider using GORM.
type GormTenantProvider struct {
	db *gorm.DB
}

// NewGormTenantProvider creates a new GormTenantProvider.
func NewGormTenantProvider(db *gorm.DB) *GormTenantProvider {
	return &GormTenantProvider{db: db}
}

// GetActiveTenantIDs returns all active tenant IDs.
func (p *GormTenantProvider) GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("tenants").
		Select("id").
		Where("deleted_at IS NULL AND status = ?", "active").
		Find(&ids).Error

	return ids, err
}
