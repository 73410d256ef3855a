package partner

import (
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/partner"
)

// CreateVendorRequest represents a request to register a vendor
type CreateVendorRequest struct {
	LegalName    string `json:"legal_name" binding:"required,max=200"`
	TaxID        string `json:"tax_id" binding:"required,max=50"`
	Email        string `json:"email" binding:"required,email,max=200"`
	ContactName  string `json:"contact_name" binding:"omitempty,max=100"`
	Phone        string `json:"phone" binding:"omitempty,max=50"`
	Address      string `json:"address"`
	Country      string `json:"country" binding:"omitempty,max=100"`
	PaymentTerms *int   `json:"payment_terms" binding:"omitempty,min=0,max=365"`
}

// UpdateVendorRequest represents a request to update vendor master data
type UpdateVendorRequest struct {
	LegalName    string `json:"legal_name" binding:"required,max=200"`
	ContactName  string `json:"contact_name" binding:"omitempty,max=100"`
	Phone        string `json:"phone" binding:"omitempty,max=50"`
	Address      string `json:"address"`
	Country      string `json:"country" binding:"omitempty,max=100"`
	PaymentTerms *int   `json:"payment_terms" binding:"omitempty,min=0,max=365"`
}

// BlockVendorRequest represents a request to block an active vendor
type BlockVendorRequest struct {
	Reason string `json:"reason" binding:"required,max=2000"`
}

// VendorListFilter represents filtering options for vendor lists
type VendorListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=DRAFT PENDING_REVIEW ACTIVE BLOCKED"`
}

// VendorResponse represents a vendor in API responses
type VendorResponse struct {
	ID            uuid.UUID            `json:"id"`
	LegalName     string               `json:"legal_name"`
	TaxID         string               `json:"tax_id"`
	Email         string               `json:"email"`
	ContactName   string               `json:"contact_name,omitempty"`
	Phone         string               `json:"phone,omitempty"`
	Address       string               `json:"address,omitempty"`
	Country       string               `json:"country,omitempty"`
	PaymentTerms  int                  `json:"payment_terms"`
	Status        partner.VendorStatus `json:"status"`
	RiskScore     int                  `json:"risk_score"`
	BlockedReason string               `json:"blocked_reason,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// ToVendorResponse converts a vendor aggregate to a response DTO
func ToVendorResponse(v *partner.Vendor) VendorResponse {
	return VendorResponse{
		ID:            v.ID,
		LegalName:     v.LegalName,
		TaxID:         v.TaxID,
		Email:         v.Email,
		ContactName:   v.ContactName,
		Phone:         v.Phone,
		Address:       v.Address,
		Country:       v.Country,
		PaymentTerms:  v.PaymentTerms,
		Status:        v.Status,
		RiskScore:     v.RiskScore,
		BlockedReason: v.BlockedReason,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
}
