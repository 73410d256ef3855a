package audit

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

// SystemActorID identifies writes made by background jobs and webhooks
// rather than a signed-in user
var SystemActorID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// Entry is one append-only audit row. Entries are never updated or
// deleted after creation
type Entry struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID      uuid.UUID `gorm:"type:uuid;not null;index"`
	ActorID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Action        string    `gorm:"type:varchar(100);not null"`
	EntityType    string    `gorm:"type:varchar(50);not null;index:idx_audit_entity"`
	EntityID      uuid.UUID `gorm:"type:uuid;not null;index:idx_audit_entity"`
	BeforeState   string    `gorm:"type:jsonb"`
	AfterState    string    `gorm:"type:jsonb"`
	ChangedFields string    `gorm:"type:jsonb"`
	CreatedAt     time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (Entry) TableName() string {
	return "audit_logs"
}

// State is the compact field set callers snapshot before and after a
// mutation
type State map[string]any

// ChangedFields returns the sorted keys whose values differ between the
// two states. Keys present on only one side count as changed
func ChangedFields(before, after State) []string {
	changed := make(map[string]struct{})
	for key, beforeVal := range before {
		afterVal, ok := after[key]
		if !ok || !valuesEqual(beforeVal, afterVal) {
			changed[key] = struct{}{}
		}
	}
	for key := range after {
		if _, ok := before[key]; !ok {
			changed[key] = struct{}{}
		}
	}

	fields := make([]string, 0, len(changed))
	for key := range changed {
		fields = append(fields, key)
	}
	sort.Strings(fields)
	return fields
}

// valuesEqual compares via canonical JSON so numeric width and nested
// map ordering do not produce spurious diffs
func valuesEqual(a, b any) bool {
	aJSON, errA := json.Marshal(a)
	bJSON, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(aJSON) == string(bJSON)
}

// NewEntry validates the identifiers, computes the changed-field list
// and builds the row. Invalid input is an error, never a silent skip
func NewEntry(tenantID, actorID uuid.UUID, action, entityType string, entityID uuid.UUID, before, after State) (*Entry, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_AUDIT_TENANT", "Audit entry requires a tenant")
	}
	if actorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_AUDIT_ACTOR", "Audit entry requires an actor")
	}
	if entityID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_AUDIT_ENTITY", "Audit entry requires an entity id")
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, shared.NewDomainError("INVALID_AUDIT_ACTION", "Audit action cannot be empty")
	}
	entityType = strings.TrimSpace(entityType)
	if entityType == "" {
		return nil, shared.NewDomainError("INVALID_AUDIT_ENTITY_TYPE", "Audit entity type cannot be empty")
	}

	beforeJSON, err := marshalState(before)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_AUDIT_STATE", "Before state is not serializable")
	}
	afterJSON, err := marshalState(after)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_AUDIT_STATE", "After state is not serializable")
	}
	changedJSON, err := json.Marshal(ChangedFields(before, after))
	if err != nil {
		return nil, shared.NewDomainError("INVALID_AUDIT_STATE", "Changed fields are not serializable")
	}

	return &Entry{
		ID:            uuid.New(),
		TenantID:      tenantID,
		ActorID:       actorID,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		BeforeState:   beforeJSON,
		AfterState:    afterJSON,
		ChangedFields: string(changedJSON),
		CreatedAt:     time.Now(),
	}, nil
}

func marshalState(state State) (string, error) {
	if state == nil {
		state = State{}
	}
	data, err := json.Marshal(state)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ChangedFieldList unmarshals the stored changed-field array
func (e *Entry) ChangedFieldList() []string {
	var fields []string
	if err := json.Unmarshal([]byte(e.ChangedFields), &fields); err != nil {
		return nil
	}
	return fields
}
