//go:build integration

package integration

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeniva/backend/internal/domain/ledger"
	"github.com/zeniva/backend/internal/domain/shared"
	"github.com/zeniva/backend/internal/domain/shared/valueobject"
	"github.com/zeniva/backend/internal/infrastructure/migration"
	"github.com/zeniva/backend/internal/infrastructure/persistence"
)

func TestMigrations_RoundTrip(t *testing.T) {
	tdb := NewTestDB(t)
	m := tdb.Migrator()

	names, err := migration.ListMigrations(migration.Embedded())
	require.NoError(t, err)
	latest := uint(len(names))

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, latest, version)
	assert.False(t, dirty)

	require.NoError(t, m.Steps(-1))
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, latest-1, version)
	assert.False(t, tdb.DB.Migrator().HasTable("ledger_entries"))

	require.NoError(t, m.Down())
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, tdb.DB.Migrator().HasTable("accounts"))

	require.NoError(t, m.Up())
	for _, table := range []string{"accounts", "sessions", "clients", "trip_files", "trip_components",
		"trip_payments", "trip_documents", "ledger_entries", "audit_entries"} {
		assert.True(t, tdb.DB.Migrator().HasTable(table), table)
	}
}

func TestLedgerEntries_AppendOnly(t *testing.T) {
	tdb := NewTestDB(t)
	repo := persistence.NewGormLedgerRepository(tdb.DB)
	ctx := t.Context()

	tenantID, tripID, paymentID := uuid.New(), uuid.New(), uuid.New()
	posted := ledger.Entry{
		ID:        uuid.New(),
		TenantID:  tenantID,
		TripID:    tripID,
		PaymentID: paymentID,
		Account:   ledger.AccountTravel,
		Type:      ledger.TypeSplit,
		Amount:    decimal.RequireFromString("1234.5600"),
		Currency:  valueobject.EUR,
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.Append(ctx, []ledger.Entry{posted}))

	t.Run("duplicate posting is rejected", func(t *testing.T) {
		dup := posted
		dup.ID = uuid.New()
		assert.ErrorIs(t, repo.Append(ctx, []ledger.Entry{dup}), shared.ErrAlreadyExists)
	})

	t.Run("rows cannot be updated or deleted", func(t *testing.T) {
		err := tdb.DB.Exec("UPDATE ledger_entries SET amount = 0 WHERE id = ?", posted.ID).Error
		require.Error(t, err)
		assert.Contains(t, err.Error(), "append-only")

		err = tdb.DB.Exec("DELETE FROM ledger_entries WHERE id = ?", posted.ID).Error
		require.Error(t, err)
	})

	entries, total, err := repo.FindAll(ctx, tenantID, ledger.Filter{PaymentID: &paymentID})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.True(t, posted.Amount.Equal(entries[0].Amount))
	assert.Equal(t, valueobject.EUR, entries[0].Currency)
}
