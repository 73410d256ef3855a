package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/procura/backend/internal/domain/identity"
	"github.com/procura/backend/internal/domain/shared"
)

func newMockTenantRepository(t *testing.T) (*GormTenantRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormTenantRepository(gormDB), mock, mockDB
}

func TestGormTenantRepository_Create(t *testing.T) {
	t.Run("creates tenant", func(t *testing.T) {
		repo, mock, mockDB := newMockTenantRepository(t)
		defer mockDB.Close()

		tn, err := identity.NewTenant("acme", "Acme Corp", "USD")
		require.NoError(t, err)

		mock.ExpectExec(`INSERT INTO "tenants"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Create(context.Background(), tn))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps duplicate code to already exists", func(t *testing.T) {
		repo, mock, mockDB := newMockTenantRepository(t)
		defer mockDB.Close()

		tn, err := identity.NewTenant("acme", "Acme Corp", "USD")
		require.NoError(t, err)

		mock.ExpectExec(`INSERT INTO "tenants"`).
			WillReturnError(gorm.ErrDuplicatedKey)

		err = repo.Create(context.Background(), tn)

		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormTenantRepository_FindByCode(t *testing.T) {
	t.Run("uppercases the code before lookup", func(t *testing.T) {
		repo, mock, mockDB := newMockTenantRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "code", "name", "status", "base_currency"}).
			AddRow(tenantID, "ACME", "Acme Corp", "active", "USD")

		mock.ExpectQuery(`SELECT \* FROM "tenants" WHERE code = \$1`).
			WithArgs("ACME", 1).
			WillReturnRows(rows)

		tn, err := repo.FindByCode(context.Background(), "acme")

		assert.NoError(t, err)
		require.NotNil(t, tn)
		assert.Equal(t, "ACME", tn.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing tenant to not found", func(t *testing.T) {
		repo, mock, mockDB := newMockTenantRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "tenants" WHERE code = \$1`).
			WithArgs("GHOST", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		tn, err := repo.FindByCode(context.Background(), "ghost")

		assert.Nil(t, tn)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormTenantRepository_ExistsByCode(t *testing.T) {
	t.Run("returns true when code is taken", func(t *testing.T) {
		repo, mock, mockDB := newMockTenantRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "tenants" WHERE code = \$1`).
			WithArgs("ACME").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		exists, err := repo.ExistsByCode(context.Background(), "acme")

		assert.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns false when code is free", func(t *testing.T) {
		repo, mock, mockDB := newMockTenantRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "tenants" WHERE code = \$1`).
			WithArgs("GHOST").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		exists, err := repo.ExistsByCode(context.Background(), "ghost")

		assert.NoError(t, err)
		assert.False(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormTenantRepository_FindAll(t *testing.T) {
	t.Run("filters by status and paginates", func(t *testing.T) {
		repo, mock, mockDB := newMockTenantRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "tenants" WHERE status = \$1`).
			WithArgs("active").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mock.ExpectQuery(`SELECT \* FROM "tenants" WHERE status = \$1 ORDER BY created_at DESC LIMIT \$2`).
			WithArgs("active", 20).
			WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name", "status", "base_currency"}).
				AddRow(uuid.New(), "ACME", "Acme Corp", "active", "USD").
				AddRow(uuid.New(), "GLOBEX", "Globex Inc", "active", "EUR"))

		filter := shared.DefaultFilter()
		filter.Filters["status"] = "active"

		tenants, total, err := repo.FindAll(context.Background(), filter)

		assert.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, tenants, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormTenantRepository_InterfaceCompliance(t *testing.T) {
	t.Run("implements TenantRepository interface", func(t *testing.T) {
		repo, _, mockDB := newMockTenantRepository(t)
		defer mockDB.Close()

		var _ identity.TenantRepository = repo
	})
}
