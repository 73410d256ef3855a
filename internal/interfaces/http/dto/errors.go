package dto

import (
	"net/http"
	"strings"
)

// Error codes the HTTP layer emits itself. Domain errors carry their own
// codes (BUDGET_EXCEEDED, APPROVAL_NOT_YOUR_TURN, ...) and are mapped to
// status codes below.
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeValidation is used when request binding or validation fails
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeForbidden is used when the caller lacks the required role
	ErrCodeForbidden = "FORBIDDEN"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeConflict is used for unique-constraint and concurrency conflicts
	ErrCodeConflict = "CONFLICT"
	// ErrCodeRateLimited is used when the admission window is exhausted
	ErrCodeRateLimited = "RATE_LIMITED"
	// ErrCodeIdempotencyInFlight rejects a duplicate request that arrived
	// while the first one is still executing
	ErrCodeIdempotencyInFlight = "IDEMPOTENT_REQUEST_IN_FLIGHT"
	// ErrCodeUpstream is used when an external collaborator fails synchronously
	ErrCodeUpstream = "UPSTREAM_ERROR"
	// ErrCodeUnavailable is used when a required backing service is down
	ErrCodeUnavailable = "SERVICE_UNAVAILABLE"
)

// errorCodeStatus pins the status for codes whose category cannot be
// inferred from their shape. Everything else goes through the prefix and
// suffix rules in GetHTTPStatus.
var errorCodeStatus = map[string]int{
	// Authentication
	ErrCodeUnauthorized:   http.StatusUnauthorized,
	"INVALID_CREDENTIALS": http.StatusUnauthorized,
	"TOKEN_EXPIRED":       http.StatusUnauthorized,
	"TOKEN_INVALID":       http.StatusUnauthorized,
	"INVALID_TOKEN":       http.StatusUnauthorized,
	"TOKEN_MAX_REFRESH":   http.StatusUnauthorized,
	"ACCOUNT_LOCKED":      http.StatusForbidden,
	"ACCOUNT_INACTIVE":    http.StatusForbidden,
	"ACCOUNT_DEACTIVATED": http.StatusForbidden,
	"USER_DEACTIVATED":    http.StatusForbidden,

	// Authorization. Approval-turn and self-approval failures are 403 per
	// the approval engine contract
	ErrCodeForbidden:            http.StatusForbidden,
	"APPROVAL_NOT_YOUR_TURN":    http.StatusForbidden,
	"APPROVAL_SELF_APPROVE_001": http.StatusForbidden,
	"NOT_INVITED":               http.StatusForbidden,

	// Cross-tenant access is reported as not-found so existence of other
	// tenants' rows never leaks
	ErrCodeNotFound:   http.StatusNotFound,
	"TENANT_MISMATCH": http.StatusNotFound,

	// Conflicts
	ErrCodeConflict:            http.StatusConflict,
	"ALREADY_EXISTS":           http.StatusConflict,
	"CONCURRENCY_CONFLICT":     http.StatusConflict,
	"OVERRIDE_EXISTS":          http.StatusConflict,
	"ORDER_MISMATCH":           http.StatusConflict,
	"VENDOR_MISMATCH":          http.StatusConflict,
	"DEPARTMENT_IN_USE":        http.StatusConflict,
	ErrCodeIdempotencyInFlight: http.StatusConflict,

	// Business rules -> 422. Budget failures must not read as validation
	// errors: the request was well-formed, the money just is not there
	"BUDGET_NOT_FOUND":     http.StatusUnprocessableEntity,
	"BUDGET_EXCEEDED":      http.StatusUnprocessableEntity,
	"APPROVAL_NO_APPROVER": http.StatusUnprocessableEntity,
	"VENDOR_NOT_ACTIVE":    http.StatusUnprocessableEntity,
	"CONTRACT_EXPIRED":     http.StatusUnprocessableEntity,
	"TOTAL_BELOW_SPENT":    http.StatusUnprocessableEntity,
	"FX_RATE_NOT_FOUND":    http.StatusUnprocessableEntity,

	// Rate limiting
	ErrCodeRateLimited: http.StatusTooManyRequests,

	// Upstream and system failures
	ErrCodeUpstream:       http.StatusBadGateway,
	"STORAGE_UNAVAILABLE": http.StatusBadGateway,
	"FETCH_FAILED":        http.StatusBadGateway,
	ErrCodeUnavailable:    http.StatusServiceUnavailable,
	ErrCodeInternal:       http.StatusInternalServerError,
	"DB_ERROR":            http.StatusInternalServerError,
	"TOKEN_ERROR":         http.StatusInternalServerError,
	"PASSWORD_HASH_ERROR": http.StatusInternalServerError,
	"SAVE_FAILED":         http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for a domain error code.
// Codes without a pinned status fall into categories by shape: *_NOT_FOUND
// reads as 404, DUPLICATE_* as 409, and the remaining INVALID_* / CANNOT_* /
// ALREADY_* / NO_* family as 400 state or validation failures.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeStatus[code]; ok {
		return status
	}
	switch {
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	case strings.HasPrefix(code, "DUPLICATE_"):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
