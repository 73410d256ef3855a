package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procura/backend/internal/domain/audit"
	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/infrastructure/persistence/tenant"
)

// GormAuditRepository implements audit.Repository using GORM. The log is
// append-only, entries are never updated or deleted
type GormAuditRepository struct {
	db *tenant.TenantDB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *tenant.TenantDB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Create appends an audit entry
func (r *GormAuditRepository) Create(ctx context.Context, entry *audit.Entry) error {
	return translateError(r.db.DB().WithContext(ctx).Create(entry).Error)
}

// FindByEntity finds entries for one entity, newest first
func (r *GormAuditRepository) FindByEntity(ctx context.Context, tenantID uuid.UUID, entityType string, entityID uuid.UUID, filter shared.Filter) (*shared.Paginated[*audit.Entry], error) {
	query := r.db.WithTenant(tenantID).WithContext(ctx).
		Model(&audit.Entry{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID)
	return r.page(query, filter)
}

// FindByActor finds entries recorded for one actor, newest first
func (r *GormAuditRepository) FindByActor(ctx context.Context, tenantID, actorID uuid.UUID, filter shared.Filter) (*shared.Paginated[*audit.Entry], error) {
	query := r.db.WithTenant(tenantID).WithContext(ctx).
		Model(&audit.Entry{}).
		Where("actor_id = ?", actorID)
	return r.page(query, filter)
}

// FindAll finds entries within a tenant with pagination, newest first
func (r *GormAuditRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[*audit.Entry], error) {
	query := r.db.WithTenant(tenantID).WithContext(ctx).Model(&audit.Entry{})

	if action, ok := filter.Filters["action"]; ok {
		query = query.Where("action = ?", action)
	}
	if entityType, ok := filter.Filters["entity_type"]; ok {
		query = query.Where("entity_type = ?", entityType)
	}
	if from, ok := filter.Filters["from"]; ok {
		query = query.Where("created_at >= ?", from)
	}
	if to, ok := filter.Filters["to"]; ok {
		query = query.Where("created_at <= ?", to)
	}

	return r.page(query, filter)
}

func (r *GormAuditRepository) page(query *gorm.DB, filter shared.Filter) (*shared.Paginated[*audit.Entry], error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, translateError(err)
	}

	var entries []*audit.Entry
	if err := paginate(query, filter, AuditSortFields, "created_at DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	result := shared.NewPaginated(entries, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Ensure GormAuditRepository implements audit.Repository
var _ audit.Repository = (*GormAuditRepository)(nil)
