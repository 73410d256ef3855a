package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procura/backend/internal/domain/partner"
	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/infrastructure/persistence"
	"github.com/procura/backend/internal/infrastructure/persistence/tenant"
)

// TestTenantIsolation verifies that row-level tenant scoping holds through
// the repository layer: rows written under one tenant are never visible to
// another, and queries without a tenant in context fail closed.
func TestTenantIsolation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewSharedTestDB(t)
	repo := persistence.NewGormVendorRepository(tenant.NewTenantDB(tdb.DB))

	tenantA := tdb.CreateTestTenant()
	tenantB := tdb.CreateTestTenant()

	ctxA := tdb.TenantContext(tenantA)
	ctxB := tdb.TenantContext(tenantB)

	seedVendor := func(ctx context.Context, tenantID uuid.UUID, name string) *partner.Vendor {
		t.Helper()
		v, err := partner.NewVendor(tenantID, name, "TAX-"+uuid.NewString()[:8], uuid.NewString()[:8]+"@vendor.test")
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, v))
		return v
	}

	vendorA := seedVendor(ctxA, tenantA, "Acme Industrial Supply")
	vendorB := seedVendor(ctxB, tenantB, "Borealis Components")

	t.Run("each tenant sees only its own rows", func(t *testing.T) {
		listA, totalA, err := repo.FindAll(ctxA, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(1), totalA)
		require.Len(t, listA, 1)
		assert.Equal(t, vendorA.ID, listA[0].ID)

		listB, totalB, err := repo.FindAll(ctxB, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(1), totalB)
		require.Len(t, listB, 1)
		assert.Equal(t, vendorB.ID, listB[0].ID)
	})

	t.Run("lookup across tenants returns not found", func(t *testing.T) {
		_, err := repo.FindByID(ctxB, vendorA.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		_, err = repo.FindByID(ctxA, vendorB.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("delete across tenants is a no-op", func(t *testing.T) {
		err := repo.Delete(ctxB, vendorA.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		// Still visible to its own tenant
		found, err := repo.FindByID(ctxA, vendorA.ID)
		require.NoError(t, err)
		assert.Equal(t, vendorA.ID, found.ID)
	})

	t.Run("context without tenant fails closed", func(t *testing.T) {
		_, err := repo.FindByID(context.Background(), vendorA.ID)
		assert.ErrorIs(t, err, tenant.ErrTenantIDRequired)

		_, _, err = repo.FindAll(context.Background(), shared.DefaultFilter())
		assert.ErrorIs(t, err, tenant.ErrTenantIDRequired)
	})

	t.Run("insert without tenant is rejected at the connection", func(t *testing.T) {
		// Bypass the repository layer on purpose: the create guard
		// registered at bootstrap must hold for any INSERT path
		v, err := partner.NewVendor(tenantA, "Tenantless Trading", "TAX-"+uuid.NewString()[:8], uuid.NewString()[:8]+"@vendor.test")
		require.NoError(t, err)
		v.TenantID = uuid.Nil

		err = tdb.DB.Create(v).Error
		require.ErrorIs(t, err, tenant.ErrTenantIDRequired)

		var count int64
		require.NoError(t, tdb.DB.Model(&partner.Vendor{}).Where("id = ?", v.ID).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("explicit tenant scoping for cross-request queries", func(t *testing.T) {
		exists, err := repo.ExistsByTaxID(context.Background(), tenantA, vendorA.TaxID)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByTaxID(context.Background(), tenantB, vendorA.TaxID)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
