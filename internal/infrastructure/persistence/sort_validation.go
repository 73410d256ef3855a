package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// TenantSortFields contains allowed sort fields for tenants
var TenantSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"code":       true,
	"name":       true,
	"status":     true,
}

// UserSortFields contains allowed sort fields for users
var UserSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"email":        true,
	"display_name": true,
	"role":         true,
	"status":       true,
}

// DepartmentSortFields contains allowed sort fields for departments
var DepartmentSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"code":       true,
	"name":       true,
}

// VendorSortFields contains allowed sort fields for vendors
var VendorSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"legal_name": true,
	"email":      true,
	"country":    true,
	"status":     true,
	"risk_score": true,
}

// BudgetSortFields contains allowed sort fields for budgets
var BudgetSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"fiscal_year": true,
	"quarter":     true,
	"total_cents": true,
	"spent_cents": true,
}

// ApprovalSortFields contains allowed sort fields for approval steps
var ApprovalSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"approval_level": true,
	"status":         true,
	"decided_at":     true,
}

// PurchaseRequestSortFields contains allowed sort fields for purchase requests
var PurchaseRequestSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"pr_number":    true,
	"title":        true,
	"status":       true,
	"total_cents":  true,
	"submitted_at": true,
}

// PurchaseOrderSortFields contains allowed sort fields for purchase orders
var PurchaseOrderSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"po_number":   true,
	"vendor_name": true,
	"status":      true,
	"total_cents": true,
	"issued_at":   true,
}

// ReceiptSortFields contains allowed sort fields for goods receipts
var ReceiptSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"receipt_number": true,
	"receipt_date":   true,
	"status":         true,
}

// InvoiceSortFields contains allowed sort fields for invoices
var InvoiceSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"invoice_number": true,
	"status":         true,
	"match_status":   true,
	"total_cents":    true,
	"due_date":       true,
}

// ContractSortFields contains allowed sort fields for contracts
var ContractSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"contract_number": true,
	"title":           true,
	"status":          true,
	"effective_date":  true,
	"expiry_date":     true,
}

// RfqSortFields contains allowed sort fields for RFQs
var RfqSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"rfq_number": true,
	"title":      true,
	"status":     true,
	"due_date":   true,
}

// FxRateSortFields contains allowed sort fields for exchange rates
var FxRateSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"base_currency":  true,
	"quote_currency": true,
	"as_of":          true,
}

// AuditSortFields contains allowed sort fields for audit entries
var AuditSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"action":      true,
	"entity_type": true,
}

// NotificationSortFields contains allowed sort fields for notifications
var NotificationSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"type":       true,
	"read_at":    true,
}
