package audit

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/procura/backend/internal/domain/audit"
	"github.com/procura/backend/internal/domain/shared"
)

// AuditLogService answers read queries over the append-only audit log.
// Writing happens at the mutation sites, inside their transactions
type AuditLogService struct {
	auditRepo audit.Repository
	logger    *zap.Logger
}

// NewAuditLogService creates a new AuditLogService
func NewAuditLogService(auditRepo audit.Repository, logger *zap.Logger) *AuditLogService {
	return &AuditLogService{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// List queries audit entries, newest first. An entity filter narrows to one
// entity, an actor filter to one actor; both may be combined with an action
func (s *AuditLogService) List(ctx context.Context, tenantID uuid.UUID, filter AuditLogFilter) (*shared.Paginated[AuditLogResponse], error) {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Filters:  make(map[string]any),
	}
	if filter.Action != "" {
		domainFilter.Filters["action"] = filter.Action
	}
	if filter.ActorID != "" {
		domainFilter.Filters["actor_id"] = filter.ActorID
	}

	switch {
	case filter.EntityType != "" && filter.EntityID != "":
		entityID, err := uuid.Parse(filter.EntityID)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_ENTITY_ID", "entity_id must be a UUID")
		}
		page, err := s.auditRepo.FindByEntity(ctx, tenantID, filter.EntityType, entityID, domainFilter)
		if err != nil {
			return nil, err
		}
		return toResponsePage(page), nil

	case filter.EntityID != "":
		return nil, shared.NewDomainError("INVALID_FILTER", "entity_id requires entity_type")

	case filter.ActorID != "":
		actorID, err := uuid.Parse(filter.ActorID)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_ACTOR_ID", "actor_id must be a UUID")
		}
		delete(domainFilter.Filters, "actor_id")
		page, err := s.auditRepo.FindByActor(ctx, tenantID, actorID, domainFilter)
		if err != nil {
			return nil, err
		}
		return toResponsePage(page), nil

	default:
		if filter.EntityType != "" {
			domainFilter.Filters["entity_type"] = filter.EntityType
		}
		page, err := s.auditRepo.FindAll(ctx, tenantID, domainFilter)
		if err != nil {
			return nil, err
		}
		return toResponsePage(page), nil
	}
}

// ListByEntity returns the history of one entity, newest first
func (s *AuditLogService) ListByEntity(ctx context.Context, tenantID uuid.UUID, entityType string, entityID uuid.UUID, filter AuditLogFilter) (*shared.Paginated[AuditLogResponse], error) {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Filters:  make(map[string]any),
	}
	if filter.Action != "" {
		domainFilter.Filters["action"] = filter.Action
	}

	page, err := s.auditRepo.FindByEntity(ctx, tenantID, entityType, entityID, domainFilter)
	if err != nil {
		return nil, err
	}
	return toResponsePage(page), nil
}

func toResponsePage(page *shared.Paginated[*audit.Entry]) *shared.Paginated[AuditLogResponse] {
	items := make([]AuditLogResponse, 0, len(page.Items))
	for _, e := range page.Items {
		items = append(items, ToAuditLogResponse(e))
	}
	return &shared.Paginated[AuditLogResponse]{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}
}
