// Package integration provides integration testing utilities for the
// procurement backend. It uses testcontainers to spin up real PostgreSQL
// databases for testing.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/procura/backend/internal/domain/approval"
	"github.com/procura/backend/internal/domain/audit"
	"github.com/procura/backend/internal/domain/budget"
	"github.com/procura/backend/internal/domain/contract"
	"github.com/procura/backend/internal/domain/fx"
	"github.com/procura/backend/internal/domain/identity"
	"github.com/procura/backend/internal/domain/invoice"
	"github.com/procura/backend/internal/domain/notification"
	"github.com/procura/backend/internal/domain/partner"
	"github.com/procura/backend/internal/domain/procurement"
	"github.com/procura/backend/internal/domain/rfq"
	applogger "github.com/procura/backend/internal/infrastructure/logger"
	tenantscope "github.com/procura/backend/internal/infrastructure/persistence/tenant"
)

var (
	// Shared container for all tests in a package
	sharedContainer    testcontainers.Container
	sharedContainerMu  sync.Mutex
	sharedContainerDSN string
)

// TestDB represents a test database connection
type TestDB struct {
	DB        *gorm.DB
	SqlDB     *sql.DB
	Container testcontainers.Container
	DSN       string
	t         *testing.T
}

// NewTestDB creates a new PostgreSQL container for testing.
// This creates a fresh container for each test, providing complete isolation.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("procura_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("admin123"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	db, sqlDB := connectToDatabase(t, dsn)
	migrateSchema(t, db)

	testDB := &TestDB{
		DB:        db,
		SqlDB:     sqlDB,
		Container: container,
		DSN:       dsn,
		t:         t,
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// NewSharedTestDB returns a shared PostgreSQL container for tests that can
// share state. This is more efficient for tests that clean up after
// themselves or scope all their data under fresh tenants.
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()

	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	ctx := context.Background()

	if sharedContainer == nil {
		container, err := tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("procura_shared_test"),
			tcpostgres.WithUsername("postgres"),
			tcpostgres.WithPassword("admin123"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second)),
		)
		require.NoError(t, err, "Failed to start shared PostgreSQL container")

		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err, "Failed to get connection string")

		sharedContainer = container
		sharedContainerDSN = dsn

		db, sqlDB := connectToDatabase(t, dsn)
		migrateSchema(t, db)
		sqlDB.Close()
		_ = db
	}

	db, sqlDB := connectToDatabase(t, sharedContainerDSN)

	testDB := &TestDB{
		DB:        db,
		SqlDB:     sqlDB,
		Container: sharedContainer,
		DSN:       sharedContainerDSN,
		t:         t,
	}

	t.Cleanup(func() {
		if testDB.SqlDB != nil {
			testDB.SqlDB.Close()
		}
	})

	return testDB
}

// Close closes the database connection and terminates the container
func (tdb *TestDB) Close() {
	ctx := context.Background()

	if tdb.SqlDB != nil {
		tdb.SqlDB.Close()
	}

	// Only terminate if this is not the shared container
	if tdb.Container != nil && tdb.Container != sharedContainer {
		if err := tdb.Container.Terminate(ctx); err != nil {
			tdb.t.Logf("Warning: Failed to terminate container: %v", err)
		}
	}
}

// CleanTables truncates all tables in the database
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()

	var tables []string
	err := tdb.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public'
		AND tablename != 'schema_migrations'
	`).Scan(&tables).Error
	require.NoError(tdb.t, err, "Failed to get table names")

	for _, table := range tables {
		err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error
		if err != nil {
			tdb.t.Logf("Warning: Failed to truncate table %s: %v", table, err)
		}
	}
}

// connectToDatabase establishes a GORM connection to the database
func connectToDatabase(t *testing.T, dsn string) (*gorm.DB, *sql.DB) {
	t.Helper()

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	if os.Getenv("TEST_DB_DEBUG") != "" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), gormConfig)
	require.NoError(t, err, "Failed to connect to database")

	sqlDB, err := db.DB()
	require.NoError(t, err, "Failed to get underlying SQL DB")

	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	// Same connection-level insert guard the server registers at bootstrap
	tenantscope.EnableCreateGuard(db)

	return db, sqlDB
}

// migrateSchema builds the schema from the domain models. Parent tables
// come first so foreign keys resolve
func migrateSchema(t *testing.T, db *gorm.DB) {
	t.Helper()

	err := db.AutoMigrate(
		&identity.Tenant{},
		&identity.Department{},
		&identity.User{},
		&partner.Vendor{},
		&rfq.RFQ{},
		&rfq.LineItem{},
		&rfq.Invitation{},
		&rfq.Quote{},
		&rfq.QuoteLine{},
		&budget.Budget{},
		&budget.BudgetReservation{},
		&procurement.PurchaseRequest{},
		&procurement.PrLineItem{},
		&procurement.PurchaseOrder{},
		&procurement.PoLineItem{},
		&procurement.Receipt{},
		&procurement.ReceiptLineItem{},
		&invoice.Invoice{},
		&invoice.InvoiceLineItem{},
		&approval.Approval{},
		&audit.Entry{},
		&contract.Contract{},
		&fx.Rate{},
		&notification.Notification{},
		&notification.Device{},
	)
	require.NoError(t, err, "Failed to migrate schema")
}

// CleanupSharedContainer terminates the shared container.
// This should be called in TestMain if using shared containers.
func CleanupSharedContainer() {
	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	if sharedContainer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		sharedContainer.Terminate(ctx)
		sharedContainer = nil
		sharedContainerDSN = ""
	}
}

// CreateTestTenant creates an active tenant row and returns its ID. Most
// tables carry a foreign key to tenants, so tests start here
func (tdb *TestDB) CreateTestTenant() uuid.UUID {
	tdb.t.Helper()

	suffix := uuid.NewString()[:8]
	tenant, err := identity.NewTenant("test_"+suffix, "Test Tenant "+suffix, "USD")
	require.NoError(tdb.t, err, "Failed to build test tenant")
	require.NoError(tdb.t, tenant.Activate(), "Failed to activate test tenant")
	require.NoError(tdb.t, tdb.DB.Create(tenant).Error, "Failed to create test tenant")

	return tenant.ID
}

// TenantContext returns a context carrying the tenant, the way the HTTP
// middleware stamps it for requests. Tenant-scoped repositories refuse to
// run without it
func (tdb *TestDB) TenantContext(tenantID uuid.UUID) context.Context {
	ctx, _ := applogger.WithTenantID(context.Background(), zap.NewNop(), tenantID.String())
	return ctx
}
