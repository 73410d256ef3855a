package integration

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	procurementapp "github.com/procura/backend/internal/application/procurement"
	"github.com/procura/backend/internal/domain/budget"
	"github.com/procura/backend/internal/domain/identity"
)

// TestBudgetReservation_Concurrency hammers one budget envelope with
// parallel submissions. The envelope holds exactly three reservations of
// the submitted size; the row lock taken during reservation must keep
// the committed sum from ever exceeding the total, no matter the
// interleaving.
func TestBudgetReservation_Concurrency(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	h := newS2pHarness(t)
	tenantID := h.tdb.CreateTestTenant()
	ctx := h.tdb.TenantContext(tenantID)

	dept, manager := h.seedDepartment(t, ctx, tenantID)
	requester := h.seedUser(t, ctx, tenantID, identity.RoleProcurement)
	requester.SetDepartment(&dept.ID)
	require.NoError(t, h.userRepo.Update(ctx, requester))

	const (
		workers        = 10
		amountCents    = 300_000
		envelopeCents  = 1_000_000
		maxFittingSubs = envelopeCents / amountCents
	)
	h.seedBudget(t, ctx, tenantID, manager.ID, dept.ID, envelopeCents)

	// Drafts are created serially; only the submissions race
	prs := make([]*procurementapp.PurchaseRequestResponse, workers)
	for i := range prs {
		pr, err := h.requests.Create(ctx, tenantID, requester.ID, procurementapp.CreatePurchaseRequestRequest{
			DepartmentID: dept.ID,
			Title:        "Concurrent request",
			Lines: []procurementapp.LineItemInput{
				{Description: "Licenses", Quantity: 1, UnitPriceCents: amountCents},
			},
		})
		require.NoError(t, err)
		prs[i] = pr
	}

	var wg sync.WaitGroup
	results := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, err := h.requests.Submit(ctx, tenantID, requester.ID, prs[idx].ID)
			results[idx] = err
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var exceeded *budget.ExceededError
		require.True(t, errors.As(err, &exceeded), "unexpected submission error: %v", err)
	}

	assert.Equal(t, maxFittingSubs, succeeded,
		"exactly the submissions that fit into the envelope should succeed")

	// The committed sum on the ledger must not exceed the envelope
	var committed int64
	err := h.tdb.DB.Raw(`
		SELECT COALESCE(SUM(r.amount_cents), 0)
		FROM budget_reservations r
		JOIN budgets b ON b.id = r.budget_id
		WHERE b.tenant_id = ? AND r.status = 'COMMITTED'
	`, tenantID).Scan(&committed).Error
	require.NoError(t, err)
	assert.LessOrEqual(t, committed, int64(envelopeCents))
	assert.Equal(t, int64(succeeded)*amountCents, committed)
}
