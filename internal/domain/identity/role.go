package identity

// Role is the single functional role assigned to a user.
type Role string

const (
	RoleAdmin           Role = "admin"
	RoleCFO             Role = "cfo"
	RoleFinanceHead     Role = "finance_head"
	RoleFinance         Role = "finance"
	RoleProcurementLead Role = "procurement_lead"
	RoleProcurement     Role = "procurement"
	RoleManager         Role = "manager"
	RoleVendor          Role = "vendor"
)

// AllRoles returns every assignable role
func AllRoles() []Role {
	return []Role{
		RoleAdmin,
		RoleCFO,
		RoleFinanceHead,
		RoleFinance,
		RoleProcurementLead,
		RoleProcurement,
		RoleManager,
		RoleVendor,
	}
}

// IsValid checks if the role is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleCFO, RoleFinanceHead, RoleFinance,
		RoleProcurementLead, RoleProcurement, RoleManager, RoleVendor:
		return true
	}
	return false
}

// RateTier groups roles into admission-control tiers
type RateTier string

const (
	RateTierPrivileged RateTier = "privileged"
	RateTierInternal   RateTier = "internal"
	RateTierVendor     RateTier = "vendor"
)

// Tier returns the rate-limiting tier for the role.
// Unauthenticated callers share the vendor tier.
func (r Role) Tier() RateTier {
	switch r {
	case RoleAdmin, RoleCFO, RoleFinanceHead, RoleProcurementLead:
		return RateTierPrivileged
	case RoleProcurement, RoleManager, RoleFinance:
		return RateTierInternal
	default:
		return RateTierVendor
	}
}

// CanManageVendors reports whether the role may create or review vendors
func (r Role) CanManageVendors() bool {
	switch r {
	case RoleAdmin, RoleProcurementLead, RoleProcurement:
		return true
	}
	return false
}

// CanApprovePayments reports whether the role may approve invoices for payment
func (r Role) CanApprovePayments() bool {
	switch r {
	case RoleAdmin, RoleCFO, RoleFinanceHead, RoleFinance:
		return true
	}
	return false
}

// IsFinance reports whether the role belongs to the finance group
func (r Role) IsFinance() bool {
	switch r {
	case RoleCFO, RoleFinanceHead, RoleFinance:
		return true
	}
	return false
}
