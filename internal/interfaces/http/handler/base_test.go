package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procura/backend/internal/domain/budget"
	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/interfaces/http/dto"
)

func serveWithError(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := &BaseHandler{}
	r.GET("/test", func(c *gin.Context) {
		h.HandleError(c, err)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	return w
}

func TestHandleError_DomainErrorStatusMapping(t *testing.T) {
	tests := []struct {
		code   string
		status int
	}{
		{"VENDOR_NOT_FOUND", http.StatusNotFound},
		{"DUPLICATE_INVOICE_NUMBER", http.StatusConflict},
		{"BUDGET_NOT_FOUND", http.StatusUnprocessableEntity},
		{"APPROVAL_NOT_YOUR_TURN", http.StatusForbidden},
		{"TENANT_MISMATCH", http.StatusNotFound},
		{"PR_NOT_DRAFT", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			w := serveWithError(t, shared.NewDomainError(tt.code, "boom"))
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
		})
	}
}

func TestHandleError_BudgetExceededCarriesAmounts(t *testing.T) {
	w := serveWithError(t, budget.NewExceededError(5000, 12000))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "BUDGET_EXCEEDED", resp.Error.Code)
	assert.EqualValues(t, 5000, resp.Error.Context["available_cents"])
	assert.EqualValues(t, 12000, resp.Error.Context["requested_cents"])
}

func TestHandleError_WrappedDomainErrorUnwraps(t *testing.T) {
	err := fmt.Errorf("saving: %w", shared.NewDomainError("CONTRACT_EXPIRED", "contract window closed"))
	w := serveWithError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "CONTRACT_EXPIRED")
}

func TestHandleError_UnknownErrorHidesDetails(t *testing.T) {
	w := serveWithError(t, fmt.Errorf("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.Contains(t, w.Body.String(), dto.ErrCodeInternal)
}

func TestNormalizePage(t *testing.T) {
	page, size := normalizePage(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)

	page, size = normalizePage(3, 500)
	assert.Equal(t, 3, page)
	assert.Equal(t, 100, size)
}
