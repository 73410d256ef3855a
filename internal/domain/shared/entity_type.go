package shared

// EntityType identifies the kind of business entity referenced by
// polymorphic records such as approvals and budget reservations
type EntityType string

const (
	EntityTypePR      EntityType = "PR"
	EntityTypePO      EntityType = "PO"
	EntityTypeInvoice EntityType = "INVOICE"
)

// IsValid checks whether the entity type is known
func (t EntityType) IsValid() bool {
	switch t {
	case EntityTypePR, EntityTypePO, EntityTypeInvoice:
		return true
	}
	return false
}
