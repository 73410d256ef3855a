package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/audit"
)

// AuditLogFilter represents filtering options for audit log queries.
// EntityID requires EntityType; actor and entity filters may be combined
type AuditLogFilter struct {
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	EntityType string `form:"entity_type" binding:"omitempty,max=50"`
	EntityID   string `form:"entity_id" binding:"omitempty,uuid"`
	ActorID    string `form:"actor_id" binding:"omitempty,uuid"`
	Action     string `form:"action" binding:"omitempty,max=100"`
}

// AuditLogResponse represents one audit entry in API responses. Before and
// after snapshots are returned as parsed JSON objects
type AuditLogResponse struct {
	ID            uuid.UUID      `json:"id"`
	ActorID       uuid.UUID      `json:"actor_id"`
	Action        string         `json:"action"`
	EntityType    string         `json:"entity_type"`
	EntityID      uuid.UUID      `json:"entity_id"`
	Before        map[string]any `json:"before,omitempty"`
	After         map[string]any `json:"after,omitempty"`
	ChangedFields []string       `json:"changed_fields"`
	CreatedAt     time.Time      `json:"created_at"`
}

// ToAuditLogResponse converts a stored entry to a response DTO
func ToAuditLogResponse(e *audit.Entry) AuditLogResponse {
	return AuditLogResponse{
		ID:            e.ID,
		ActorID:       e.ActorID,
		Action:        e.Action,
		EntityType:    e.EntityType,
		EntityID:      e.EntityID,
		Before:        parseState(e.BeforeState),
		After:         parseState(e.AfterState),
		ChangedFields: e.ChangedFieldList(),
		CreatedAt:     e.CreatedAt,
	}
}

// parseState tolerates malformed rows: the log must stay readable even if
// one snapshot cannot be decoded
func parseState(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var state map[string]any
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil
	}
	return state
}
