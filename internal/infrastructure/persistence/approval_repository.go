package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/procura/backend/internal/domain/approval"
	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/infrastructure/persistence/tenant"
)

// GormApprovalRepository implements approval.Repository using GORM
type GormApprovalRepository struct {
	db *tenant.TenantDB
}

// NewGormApprovalRepository creates a new GormApprovalRepository
func NewGormApprovalRepository(db *tenant.TenantDB) *GormApprovalRepository {
	return &GormApprovalRepository{db: db}
}

// Create saves a new approval step
func (r *GormApprovalRepository) Create(ctx context.Context, a *approval.Approval) error {
	return translateError(r.db.DB().WithContext(ctx).Create(a).Error)
}

// CreateBatch saves a whole chain in one call
func (r *GormApprovalRepository) CreateBatch(ctx context.Context, chain []*approval.Approval) error {
	if len(chain) == 0 {
		return nil
	}
	return translateError(r.db.DB().WithContext(ctx).Create(chain).Error)
}

// Update updates an existing approval step
func (r *GormApprovalRepository) Update(ctx context.Context, a *approval.Approval) error {
	return translateError(r.db.DB().WithContext(ctx).Save(a).Error)
}

// FindByID finds an approval by ID within the tenant in context
func (r *GormApprovalRepository) FindByID(ctx context.Context, id uuid.UUID) (*approval.Approval, error) {
	var a approval.Approval
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &a, nil
}

// FindByEntity loads an entity's full chain ordered by approval level
func (r *GormApprovalRepository) FindByEntity(ctx context.Context, entityType shared.EntityType, entityID uuid.UUID) ([]*approval.Approval, error) {
	var chain []*approval.Approval
	if err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("approval_level ASC").
		Find(&chain).Error; err != nil {
		return nil, err
	}
	return chain, nil
}

// FindPendingByApprover lists pending steps assigned to an approver
func (r *GormApprovalRepository) FindPendingByApprover(ctx context.Context, tenantID, approverID uuid.UUID, filter shared.Filter) ([]*approval.Approval, int64, error) {
	query := r.db.WithTenant(tenantID).WithContext(ctx).
		Model(&approval.Approval{}).
		Where("approver_id = ? AND status = ?", approverID, approval.StatusPending)

	if entityType, ok := filter.Filters["entity_type"]; ok {
		query = query.Where("entity_type = ?", entityType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var steps []*approval.Approval
	if err := paginate(query, filter, ApprovalSortFields, "created_at ASC").Find(&steps).Error; err != nil {
		return nil, 0, err
	}
	return steps, total, nil
}

// FindPendingOlderThan lists pending steps created before the cutoff, across
// all tenants. Only the currently actionable step of each chain qualifies:
// a step is actionable when every lower level has already been decided.
// The timeout sweep runs without a tenant in context, hence Unscoped
func (r *GormApprovalRepository) FindPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*approval.Approval, error) {
	var steps []*approval.Approval
	if err := r.db.Unscoped().WithContext(ctx).
		Where("status = ? AND created_at < ?", approval.StatusPending, cutoff).
		Where(`NOT EXISTS (
			SELECT 1 FROM approvals lower
			WHERE lower.entity_type = approvals.entity_type
			  AND lower.entity_id = approvals.entity_id
			  AND lower.approval_level < approvals.approval_level
			  AND lower.status = ?)`, approval.StatusPending).
		Order("created_at ASC").
		Find(&steps).Error; err != nil {
		return nil, err
	}
	return steps, nil
}

// Ensure GormApprovalRepository implements approval.Repository
var _ approval.Repository = (*GormApprovalRepository)(nil)
