package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeniva/backend/internal/domain/identity"
	"github.com/zeniva/backend/internal/domain/shared"
)

func newAccount(t *testing.T, tenantID uuid.UUID, email string, roles ...string) *identity.Account {
	t.Helper()
	if len(roles) == 0 {
		roles = []string{"travel_agent"}
	}
	a, err := identity.NewAccount(tenantID, email, "Test Account", "password123", roles)
	require.NoError(t, err)
	return a
}

func TestGormAccountRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewGormAccountRepository(newTestDB(t))
	tenantID := uuid.New()

	a := newAccount(t, tenantID, "Ana@Zeniva.travel", "travel_agent", "hq")
	a.SetDivisions([]string{"travel", "yachts"})
	require.NoError(t, a.SetPartnerCompany(identity.PartnerCompany{Name: "Blue Sea"}))
	require.NoError(t, repo.Create(ctx, a))

	found, err := repo.FindByEmail(ctx, tenantID, " ANA@zeniva.travel ")
	require.NoError(t, err)
	assert.Equal(t, a.ID, found.ID)
	assert.Equal(t, []identity.Role{identity.RoleTravelAgent, identity.RoleHQ}, found.Roles)
	assert.Equal(t, []string{"travel", "yachts"}, found.Divisions)
	require.NotNil(t, found.PartnerCompany)
	assert.Equal(t, "Blue Sea", found.PartnerCompany.Name)
	assert.Nil(t, found.TravelerProfile)
	assert.True(t, found.VerifyPassword("password123"))

	_, err = repo.FindByID(ctx, uuid.New(), a.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	exists, err := repo.ExistsByEmail(ctx, tenantID, "ana@zeniva.travel")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGormAccountRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewGormAccountRepository(newTestDB(t))
	tenantID := uuid.New()

	require.NoError(t, repo.Create(ctx, newAccount(t, tenantID, "dup@zeniva.travel")))
	err := repo.Create(ctx, newAccount(t, tenantID, "dup@zeniva.travel"))
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	// same email in another tenant is fine
	assert.NoError(t, repo.Create(ctx, newAccount(t, uuid.New(), "dup@zeniva.travel")))
}

func TestGormAccountRepository_UpdateVersionCheck(t *testing.T) {
	ctx := context.Background()
	repo := NewGormAccountRepository(newTestDB(t))
	tenantID := uuid.New()

	a := newAccount(t, tenantID, "agent@zeniva.travel")
	require.NoError(t, repo.Create(ctx, a))

	first, err := repo.FindByID(ctx, tenantID, a.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, tenantID, a.ID)
	require.NoError(t, err)

	first.RecordLoginFailure(5, time.Minute)
	first.RecordLoginFailure(5, time.Minute)
	require.NoError(t, repo.Update(ctx, first))
	assert.Equal(t, 2, first.Version)

	require.NoError(t, second.Suspend())
	err = repo.Update(ctx, second)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	stored, err := repo.FindByID(ctx, tenantID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.FailedAttempts)
	assert.Equal(t, identity.AccountStatusActive, stored.Status)

	// a successful login resets the counter to zero, which must be written
	stored.RecordLoginSuccess()
	require.NoError(t, repo.Update(ctx, stored))
	again, err := repo.FindByID(ctx, tenantID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, again.FailedAttempts)
	assert.NotNil(t, again.LastLoginAt)
	assert.Equal(t, 3, again.Version)
}

func TestGormAccountRepository_UpdateMissing(t *testing.T) {
	repo := NewGormAccountRepository(newTestDB(t))
	a := newAccount(t, uuid.New(), "ghost@zeniva.travel")
	assert.ErrorIs(t, repo.Update(context.Background(), a), shared.ErrNotFound)
}

func TestGormAccountRepository_FindAll(t *testing.T) {
	ctx := context.Background()
	repo := NewGormAccountRepository(newTestDB(t))
	tenantID := uuid.New()

	require.NoError(t, repo.Create(ctx, newAccount(t, tenantID, "ana@zeniva.travel", "travel_agent")))
	require.NoError(t, repo.Create(ctx, newAccount(t, tenantID, "bob@zeniva.travel", "yacht_broker")))
	pending := newAccount(t, tenantID, "carl@zeniva.travel", "travel_agent")
	pending.MarkPending()
	require.NoError(t, repo.Create(ctx, pending))
	require.NoError(t, repo.Create(ctx, newAccount(t, uuid.New(), "other@zeniva.travel")))

	all, total, err := repo.FindAll(ctx, tenantID, identity.AccountFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)

	role := identity.RoleTravelAgent
	agents, total, err := repo.FindAll(ctx, tenantID, identity.AccountFilter{Role: &role})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, agents, 2)

	status := identity.AccountStatusPending
	pend, _, err := repo.FindAll(ctx, tenantID, identity.AccountFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, pend, 1)
	assert.Equal(t, "carl@zeniva.travel", pend[0].Email)

	paged, total, err := repo.FindAll(ctx, tenantID, identity.AccountFilter{
		Filter: shared.Filter{Page: 2, PageSize: 2, OrderBy: "email", OrderDir: "asc"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, paged, 1)
	assert.Equal(t, "carl@zeniva.travel", paged[0].Email)

	searched, _, err := repo.FindAll(ctx, tenantID, identity.AccountFilter{Filter: shared.Filter{Search: "BOB"}})
	require.NoError(t, err)
	require.Len(t, searched, 1)
}

func TestGormAccountRepository_Delete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormAccountRepository(db)
	sessions := NewGormSessionRepository(db)
	tenantID := uuid.New()

	a := newAccount(t, tenantID, "gone@zeniva.travel")
	require.NoError(t, repo.Create(ctx, a))
	s := identity.NewSession(a, identity.SpaceAgent, time.Hour)
	require.NoError(t, sessions.Create(ctx, s))

	require.NoError(t, repo.Delete(ctx, tenantID, a.ID))
	assert.ErrorIs(t, repo.Delete(ctx, tenantID, a.ID), shared.ErrNotFound)
	_, err := sessions.FindByID(ctx, s.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormSessionRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	accounts := NewGormAccountRepository(db)
	repo := NewGormSessionRepository(db)

	hq := newAccount(t, uuid.New(), "hq@zeniva.travel", "hq")
	require.NoError(t, accounts.Create(ctx, hq))

	s := identity.NewSession(hq, identity.SpaceAgent, time.Hour)
	require.NoError(t, repo.Create(ctx, s))

	require.NoError(t, s.SetEffectiveRole(hq, "partner"))
	require.NoError(t, s.SwitchSpace(hq, identity.SpacePartner))
	require.NoError(t, repo.Update(ctx, s))

	found, err := repo.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, identity.SpacePartner, found.ActiveSpace)
	require.NotNil(t, found.EffectiveRole)
	assert.Equal(t, identity.RolePartnerOwner, *found.EffectiveRole)
	assert.True(t, found.IsActive())

	other := identity.NewSession(hq, identity.SpaceAgent, time.Hour)
	require.NoError(t, repo.Create(ctx, other))
	require.NoError(t, repo.RevokeAllForAccount(ctx, hq.ID))
	found, err = repo.FindByID(ctx, other.ID)
	require.NoError(t, err)
	assert.False(t, found.IsActive())

	expired := identity.NewSession(hq, identity.SpaceAgent, -time.Hour)
	require.NoError(t, repo.Create(ctx, expired))
	n, err := repo.DeleteExpired(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	ghost := identity.NewSession(hq, identity.SpaceAgent, time.Hour)
	assert.ErrorIs(t, repo.Update(ctx, ghost), shared.ErrNotFound)
}
