package contract

import (
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/contract"
)

// CreateContractRequest registers a vendor contract in draft
type CreateContractRequest struct {
	ContractNumber string    `json:"contract_number" binding:"required,max=50"`
	VendorID       uuid.UUID `json:"vendor_id" binding:"required"`
	Title          string    `json:"title" binding:"required,max=200"`
	DocumentKey    string    `json:"document_key" binding:"omitempty,max=500"`
	EffectiveDate  time.Time `json:"effective_date" binding:"required"`
	ExpiryDate     time.Time `json:"expiry_date" binding:"required"`
}

// UpdateContractRequest changes a contract's editable fields. Dates can
// only move while the contract is still a draft
type UpdateContractRequest struct {
	Title         string     `json:"title" binding:"required,max=200"`
	DocumentKey   string     `json:"document_key" binding:"omitempty,max=500"`
	EffectiveDate *time.Time `json:"effective_date"`
	ExpiryDate    *time.Time `json:"expiry_date"`
}

// TerminateContractRequest ends an active contract early
type TerminateContractRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ContractListFilter represents filtering options for contract queries
type ContractListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status   string `form:"status" binding:"omitempty,oneof=DRAFT ACTIVE EXPIRED TERMINATED"`
	VendorID string `form:"vendor_id" binding:"omitempty,uuid"`
}

// ContractResponse represents a contract in API responses
type ContractResponse struct {
	ID                uuid.UUID       `json:"id"`
	ContractNumber    string          `json:"contract_number"`
	VendorID          uuid.UUID       `json:"vendor_id"`
	Title             string          `json:"title"`
	DocumentKey       string          `json:"document_key,omitempty"`
	EffectiveDate     time.Time       `json:"effective_date"`
	ExpiryDate        time.Time       `json:"expiry_date"`
	Status            contract.Status `json:"status"`
	TerminatedAt      *time.Time      `json:"terminated_at,omitempty"`
	TerminationReason string          `json:"termination_reason,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ToContractResponse converts a contract to a response DTO
func ToContractResponse(c *contract.Contract) ContractResponse {
	return ContractResponse{
		ID:                c.ID,
		ContractNumber:    c.ContractNumber,
		VendorID:          c.VendorID,
		Title:             c.Title,
		DocumentKey:       c.DocumentKey,
		EffectiveDate:     c.EffectiveDate,
		ExpiryDate:        c.ExpiryDate,
		Status:            c.Status,
		TerminatedAt:      c.TerminatedAt,
		TerminationReason: c.TerminationReason,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}
