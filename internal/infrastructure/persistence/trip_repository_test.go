package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeniva/backend/internal/domain/pricing"
	"github.com/zeniva/backend/internal/domain/shared"
	"github.com/zeniva/backend/internal/domain/shared/valueobject"
	"github.com/zeniva/backend/internal/domain/trip"
)

func newClient(t *testing.T, tenantID uuid.UUID, name string, origin trip.ClientOrigin, owner string) *trip.Client {
	t.Helper()
	c, err := trip.NewClient(tenantID, name, origin, owner)
	require.NoError(t, err)
	return c
}

func addComponent(t *testing.T, f *trip.File, kind pricing.ProductKind, net, sell int64) *trip.Component {
	t.Helper()
	p, err := pricing.NewComponentPricing(f.Currency, decimal.NewFromInt(net), decimal.NewFromInt(sell), decimal.NewFromInt(10), kind)
	require.NoError(t, err)
	c, err := trip.NewComponent(f.ID, kind, "Supplier", string(kind)+" line", p)
	require.NoError(t, err)
	f.AddComponent(c)
	return c
}

func TestGormClientRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormClientRepository(newTestDB(t))
	tenantID := uuid.New()

	house := newClient(t, tenantID, "House Client", trip.OriginHouse, "")
	agentOwned := newClient(t, tenantID, "Agent Client", trip.OriginAgent, "ana@zeniva.travel")
	assigned := newClient(t, tenantID, "Shared Client", trip.OriginHouse, "")
	require.NoError(t, assigned.AssignAgent("Ana@Zeniva.travel"))
	for _, c := range []*trip.Client{house, agentOwned, assigned} {
		require.NoError(t, repo.Create(ctx, c))
	}

	found, err := repo.FindByID(ctx, tenantID, assigned.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"ana@zeniva.travel"}, found.AssignedAgents)

	mine, total, err := repo.FindAll(ctx, tenantID, trip.ClientFilter{AgentEmail: "ANA@zeniva.travel"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, mine, 2)

	origin := trip.OriginAgent
	byOrigin, _, err := repo.FindAll(ctx, tenantID, trip.ClientFilter{Origin: &origin})
	require.NoError(t, err)
	require.Len(t, byOrigin, 1)
	assert.Equal(t, agentOwned.ID, byOrigin[0].ID)

	some, err := repo.FindByIDs(ctx, tenantID, []uuid.UUID{house.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, some, 1)

	stale, err := repo.FindByID(ctx, tenantID, house.ID)
	require.NoError(t, err)
	require.NoError(t, found.UpdateContact("Shared Client Ltd", "ops@shared.example", ""))
	require.NoError(t, repo.Update(ctx, found))

	house.Notes = "vip"
	require.NoError(t, house.UpdateContact("House Client", "h@example.com", "555"))
	require.NoError(t, repo.Update(ctx, house))
	require.NoError(t, stale.UpdateContact("Stale", "", ""))
	assert.ErrorIs(t, repo.Update(ctx, stale), shared.ErrConcurrencyConflict)
}

func TestGormClientRepository_AgentFilterMatchesExactEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewGormClientRepository(newTestDB(t))
	tenantID := uuid.New()

	jon := newClient(t, tenantID, "Jon Client", trip.OriginHouse, "")
	require.NoError(t, jon.AssignAgent("jon@zeniva.travel"))
	owned := newClient(t, tenantID, "Owned Client", trip.OriginAgent, "jxn@zeniva.travel")
	require.NoError(t, repo.Create(ctx, jon))
	require.NoError(t, repo.Create(ctx, owned))

	for _, email := range []string{"j_n@zeniva.travel", "j%n@zeniva.travel", "%"} {
		clients, total, err := repo.FindAll(ctx, tenantID, trip.ClientFilter{AgentEmail: email})
		require.NoError(t, err)
		assert.Zero(t, total, email)
		assert.Empty(t, clients, email)
	}

	clients, total, err := repo.FindAll(ctx, tenantID, trip.ClientFilter{AgentEmail: "jon@zeniva.travel"})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, jon.ID, clients[0].ID)
}

func TestGormFileRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewGormFileRepository(newTestDB(t))
	tenantID := uuid.New()
	clientID := uuid.New()

	f, err := trip.NewFile(tenantID, clientID, "Rebook Greek islands", valueobject.USD, nil)
	require.NoError(t, err)
	addComponent(t, f, pricing.KindFlight, 800, 1000)
	addComponent(t, f, pricing.KindYacht, 90000, 100000)
	amount, err := valueobject.NewMoneyFromInt(500, valueobject.USD)
	require.NoError(t, err)
	p, err := trip.NewPayment(f.ID, amount, trip.MethodCard, "ref-1")
	require.NoError(t, err)
	require.NoError(t, f.AddPayment(p))
	doc, err := trip.NewDocument(f.ID, "Voucher.pdf", trip.DocumentVoucher, "trips/x/voucher.pdf", "application/pdf", 1024, uuid.New())
	require.NoError(t, err)
	f.AttachDocument(doc)
	require.NoError(t, repo.Create(ctx, f))

	loaded, err := repo.FindByID(ctx, tenantID, f.ID)
	require.NoError(t, err)
	assert.True(t, loaded.IsRebooking)
	require.Len(t, loaded.Components, 2)
	assert.Equal(t, pricing.KindFlight, loaded.Components[0].Kind)
	assert.Equal(t, 1, loaded.Components[1].Position)
	assert.True(t, loaded.Components[1].Pricing.Sell.Equal(decimal.NewFromInt(100000)))
	require.Len(t, loaded.Payments, 1)
	assert.True(t, loaded.Payments[0].Amount.Amount().Equal(decimal.NewFromInt(500)))
	assert.Equal(t, trip.PaymentPending, loaded.Payments[0].Status)
	require.Len(t, loaded.Documents, 1)
	assert.Equal(t, "trips/x/voucher.pdf", loaded.Documents[0].StorageKey)

	pricingTotal := loaded.Pricing()
	require.NotNil(t, pricingTotal)
	assert.True(t, pricingTotal.Sell.Equal(decimal.NewFromInt(101000)))

	_, err = repo.FindByID(ctx, uuid.New(), f.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormFileRepository_SaveSyncsChildren(t *testing.T) {
	ctx := context.Background()
	repo := NewGormFileRepository(newTestDB(t))
	tenantID := uuid.New()

	f, err := trip.NewFile(tenantID, uuid.New(), "Lisbon", valueobject.USD, nil)
	require.NoError(t, err)
	first := addComponent(t, f, pricing.KindHotel, 700, 1000)
	addComponent(t, f, pricing.KindCar, 100, 150)
	require.NoError(t, repo.Create(ctx, f))

	loaded, err := repo.FindByID(ctx, tenantID, f.ID)
	require.NoError(t, err)
	require.NoError(t, loaded.RemoveComponent(first.ID))
	addComponent(t, loaded, pricing.KindActivity, 50, 80)
	require.NoError(t, loaded.SetStatus(trip.StatusQuoted))
	require.NoError(t, repo.Save(ctx, loaded))
	assert.Equal(t, 3, loaded.Version)

	reloaded, err := repo.FindByID(ctx, tenantID, f.ID)
	require.NoError(t, err)
	assert.Equal(t, trip.StatusQuoted, reloaded.Status)
	require.Len(t, reloaded.Components, 2)
	assert.Equal(t, pricing.KindCar, reloaded.Components[0].Kind)
	assert.Equal(t, 0, reloaded.Components[0].Position)
	assert.Equal(t, pricing.KindActivity, reloaded.Components[1].Kind)

	amount, err := valueobject.NewMoneyFromInt(150, valueobject.USD)
	require.NoError(t, err)
	p, err := trip.NewPayment(reloaded.ID, amount, trip.MethodWire, "")
	require.NoError(t, err)
	require.NoError(t, reloaded.AddPayment(p))
	require.NoError(t, repo.Save(ctx, reloaded))

	settled, err := repo.FindByID(ctx, tenantID, f.ID)
	require.NoError(t, err)
	changed, err := settled.SetPaymentStatus(p.ID, trip.PaymentPaid)
	require.NoError(t, err)
	assert.True(t, changed)
	require.NoError(t, repo.Save(ctx, settled))

	final, err := repo.FindByID(ctx, tenantID, f.ID)
	require.NoError(t, err)
	require.Len(t, final.Payments, 1)
	assert.Equal(t, trip.PaymentPaid, final.Payments[0].Status)
	assert.NotNil(t, final.Payments[0].PaidAt)
}

func TestGormFileRepository_ConcurrentSave(t *testing.T) {
	ctx := context.Background()
	repo := NewGormFileRepository(newTestDB(t))
	tenantID := uuid.New()

	f, err := trip.NewFile(tenantID, uuid.New(), "Tokyo", valueobject.USD, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, f))

	a, err := repo.FindByID(ctx, tenantID, f.ID)
	require.NoError(t, err)
	b, err := repo.FindByID(ctx, tenantID, f.ID)
	require.NoError(t, err)

	require.NoError(t, a.Rename("Tokyo and Kyoto"))
	require.NoError(t, repo.Save(ctx, a))

	require.NoError(t, b.SetStatus(trip.StatusApproved))
	assert.ErrorIs(t, repo.Save(ctx, b), shared.ErrConcurrencyConflict)

	stored, err := repo.FindByID(ctx, tenantID, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tokyo and Kyoto", stored.Title)
	assert.Equal(t, trip.StatusDraft, stored.Status)
}

func TestGormFileRepository_FindAllAndByClients(t *testing.T) {
	ctx := context.Background()
	repo := NewGormFileRepository(newTestDB(t))
	tenantID := uuid.New()
	c1, c2 := uuid.New(), uuid.New()

	for _, spec := range []struct {
		client uuid.UUID
		title  string
	}{{c1, "Paris"}, {c1, "Rome"}, {c2, "Oslo"}} {
		f, err := trip.NewFile(tenantID, spec.client, spec.title, valueobject.EUR, nil)
		require.NoError(t, err)
		addComponent(t, f, pricing.KindHotel, 100, 120)
		require.NoError(t, repo.Create(ctx, f))
	}

	files, total, err := repo.FindAll(ctx, tenantID, trip.FileFilter{ClientID: &c1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, f := range files {
		assert.Len(t, f.Components, 1)
	}

	none, total, err := repo.FindAll(ctx, tenantID, trip.FileFilter{ClientIDs: []uuid.UUID{}})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, none)

	searched, _, err := repo.FindAll(ctx, tenantID, trip.FileFilter{Filter: shared.Filter{Search: "osl"}})
	require.NoError(t, err)
	require.Len(t, searched, 1)
	assert.Equal(t, "Oslo", searched[0].Title)

	byClients, err := repo.FindByClientIDs(ctx, tenantID, []uuid.UUID{c1, c2})
	require.NoError(t, err)
	assert.Len(t, byClients, 3)
}
