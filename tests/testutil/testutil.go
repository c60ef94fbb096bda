// Package testutil provides shared helpers for the back office test suites:
// databases, principals, fake inputs and polling assertions.
package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/zeniva/backend/internal/domain/identity"
	"github.com/zeniva/backend/internal/infrastructure/config"
	"github.com/zeniva/backend/internal/infrastructure/persistence"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// NewSQLiteDB opens an in-memory sqlite database with the full schema.
// It is closed when the test ends.
func NewSQLiteDB(t *testing.T) *persistence.Database {
	t.Helper()

	db, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err, "Failed to open sqlite database")
	require.NoError(t, db.AutoMigrate(), "Failed to migrate sqlite schema")
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// MockDB wraps a GORM postgres dialect over sqlmock, for asserting the SQL a
// repository emits without a server.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a mock database; unmet expectations fail the test on cleanup.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       sqlDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err, "Failed to open GORM connection")

	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet(), "Unmet database expectations")
		_ = sqlDB.Close()
	})
	return &MockDB{DB: gormDB, Mock: mock, SqlDB: sqlDB}
}

// NewTestUUID derives a stable UUID from seed
func NewTestUUID(seed string) uuid.UUID {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(namespace, []byte(seed))
}

// TestTenantID is the tenant used by suites that need only one.
func TestTenantID() uuid.UUID {
	return NewTestUUID("zeniva-test-tenant")
}

// Principal builds a caller acting in space with the given roles.
func Principal(tenantID uuid.UUID, email string, space identity.Space, roles ...identity.Role) identity.Principal {
	return identity.Principal{
		TenantID:       tenantID,
		AccountID:      NewTestUUID(email),
		SessionID:      uuid.New(),
		Email:          email,
		Roles:          roles,
		ActiveSpace:    space,
		TokenID:        uuid.NewString(),
		TokenExpiresAt: time.Now().Add(15 * time.Minute),
	}
}

// HQPrincipal is a head office user in the agent space
func HQPrincipal(tenantID uuid.UUID) identity.Principal {
	return Principal(tenantID, "hq@zeniva.test", identity.SpaceAgent, identity.RoleHQ)
}

// AgentPrincipal is a travel agent identified by email
func AgentPrincipal(tenantID uuid.UUID, email string) identity.Principal {
	return Principal(tenantID, email, identity.SpaceAgent, identity.RoleTravelAgent)
}

// TravelerPrincipal is a traveler identified by email
func TravelerPrincipal(tenantID uuid.UUID, email string) identity.Principal {
	return Principal(tenantID, email, identity.SpaceTraveler, identity.RoleTraveler)
}

// RequireEventually polls condition until it holds or timeout elapses.
func RequireEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msgAndArgs ...any) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(interval)
	}
	require.Fail(t, "Condition not met within timeout", msgAndArgs...)
}

// AssertNever fails if condition becomes true within duration.
func AssertNever(t *testing.T, condition func() bool, duration, interval time.Duration, msgAndArgs ...any) {
	t.Helper()

	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if condition() {
			require.Fail(t, "Condition unexpectedly became true", msgAndArgs...)
		}
		time.Sleep(interval)
	}
}
