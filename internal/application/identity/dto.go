package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/identity"
)

// LoginRequest represents a login attempt. The tenant is resolved from
// the user record, so no tenant identifier is accepted here
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=200"`
	Password string `json:"password" binding:"required,max=128"`
}

// RefreshRequest represents a token refresh
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest carries the refresh token to revoke alongside the
// access token from the Authorization header
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest represents a self-service password change
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required,max=128"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

// TokenResponse represents an issued token pair
type TokenResponse struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	TokenType             string    `json:"token_type"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	TokenResponse
	User UserResponse `json:"user"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID           uuid.UUID           `json:"id"`
	Email        string              `json:"email"`
	DisplayName  string              `json:"display_name,omitempty"`
	Role         identity.Role       `json:"role"`
	DepartmentID *uuid.UUID          `json:"department_id,omitempty"`
	Status       identity.UserStatus `json:"status"`
	LastLoginAt  *time.Time          `json:"last_login_at,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// ToUserResponse converts a user aggregate to a response DTO
func ToUserResponse(u *identity.User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		Role:         u.Role,
		DepartmentID: u.DepartmentID,
		Status:       u.Status,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// MeResponse represents the authenticated user's own profile
type MeResponse struct {
	User               UserResponse `json:"user"`
	TenantID           uuid.UUID    `json:"tenant_id"`
	DepartmentName     string       `json:"department_name,omitempty"`
	CanManageVendors   bool         `json:"can_manage_vendors"`
	CanApprovePayments bool         `json:"can_approve_payments"`
}

// CreateUserRequest represents a request to provision a user
type CreateUserRequest struct {
	Email        string     `json:"email" binding:"required,email,max=200"`
	Password     string     `json:"password" binding:"required,min=8,max=128"`
	DisplayName  string     `json:"display_name" binding:"omitempty,max=200"`
	Role         string     `json:"role" binding:"required,oneof=admin cfo finance_head finance procurement_lead procurement manager vendor"`
	DepartmentID *uuid.UUID `json:"department_id"`
	Active       bool       `json:"active"`
}

// UpdateUserRequest represents a request to update a user. Password, when
// set, is an administrative reset and revokes the user's existing sessions
type UpdateUserRequest struct {
	DisplayName  string     `json:"display_name" binding:"omitempty,max=200"`
	Role         string     `json:"role" binding:"required,oneof=admin cfo finance_head finance procurement_lead procurement manager vendor"`
	DepartmentID *uuid.UUID `json:"department_id"`
	Status       string     `json:"status" binding:"omitempty,oneof=active deactivated"`
	Password     string     `json:"password" binding:"omitempty,min=8,max=128"`
}

// UserListFilter represents filtering options for user lists
type UserListFilter struct {
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy      string `form:"order_by"`
	OrderDir     string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search       string `form:"search"`
	Status       string `form:"status" binding:"omitempty,oneof=pending active locked deactivated"`
	Role         string `form:"role" binding:"omitempty,oneof=admin cfo finance_head finance procurement_lead procurement manager vendor"`
	DepartmentID string `form:"department_id" binding:"omitempty,uuid"`
}

// CreateDepartmentRequest represents a request to create a department
type CreateDepartmentRequest struct {
	Code        string     `json:"code" binding:"required,min=2,max=50"`
	Name        string     `json:"name" binding:"required,max=200"`
	Description string     `json:"description"`
	ParentID    *uuid.UUID `json:"parent_id"`
	ManagerID   *uuid.UUID `json:"manager_id"`
}

// UpdateDepartmentRequest represents a request to update a department.
// The code is immutable once created
type UpdateDepartmentRequest struct {
	Name        string     `json:"name" binding:"required,max=200"`
	Description string     `json:"description"`
	ParentID    *uuid.UUID `json:"parent_id"`
	ManagerID   *uuid.UUID `json:"manager_id"`
	Status      string     `json:"status" binding:"omitempty,oneof=active inactive"`
}

// DepartmentListFilter represents filtering options for department lists
type DepartmentListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=active inactive"`
}

// DepartmentResponse represents a department in API responses
type DepartmentResponse struct {
	ID          uuid.UUID                 `json:"id"`
	Code        string                    `json:"code"`
	Name        string                    `json:"name"`
	Description string                    `json:"description,omitempty"`
	ParentID    *uuid.UUID                `json:"parent_id,omitempty"`
	ManagerID   *uuid.UUID                `json:"manager_id,omitempty"`
	Status      identity.DepartmentStatus `json:"status"`
	CreatedAt   time.Time                 `json:"created_at"`
	UpdatedAt   time.Time                 `json:"updated_at"`
}

// ToDepartmentResponse converts a department aggregate to a response DTO
func ToDepartmentResponse(d *identity.Department) DepartmentResponse {
	return DepartmentResponse{
		ID:          d.ID,
		Code:        d.Code,
		Name:        d.Name,
		Description: d.Description,
		ParentID:    d.ParentID,
		ManagerID:   d.ManagerID,
		Status:      d.Status,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
