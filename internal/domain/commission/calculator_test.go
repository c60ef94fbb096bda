package commission

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeniva/backend/internal/domain/pricing"
	"github.com/zeniva/backend/internal/domain/shared/valueobject"
	"github.com/zeniva/backend/internal/domain/trip"
)

var tenantID = uuid.New()

func newClient(t *testing.T, origin trip.ClientOrigin, owner string) *trip.Client {
	t.Helper()
	c, err := trip.NewClient(tenantID, "Client "+owner, origin, owner)
	require.NoError(t, err)
	return c
}

func newFile(t *testing.T, client *trip.Client, title string, comps ...[3]int64) *trip.File {
	t.Helper()
	f, err := trip.NewFile(tenantID, client.ID, title, valueobject.USD, nil)
	require.NoError(t, err)
	for _, c := range comps {
		kind := pricing.KindHotel
		if c[2] < 0 {
			kind = pricing.KindYacht
			c[2] = -c[2]
		}
		p, err := pricing.NewComponentPricing(valueobject.USD, decimal.NewFromInt(c[0]), decimal.NewFromInt(c[1]), decimal.NewFromInt(c[2]), kind)
		require.NoError(t, err)
		comp, err := trip.NewComponent(f.ID, kind, "", "line", p)
		require.NoError(t, err)
		f.AddComponent(comp)
	}
	return f
}

func TestLines(t *testing.T) {
	t.Run("house clients earn no commission", func(t *testing.T) {
		c := newClient(t, trip.OriginHouse, "ana@zeniva.travel")
		f := newFile(t, c, "Trip", [3]int64{800, 1000, 10})
		assert.Empty(t, Lines([]*trip.File{f}, []*trip.Client{c}, Filter{}))
	})

	t.Run("agent origin without owner email earns nothing", func(t *testing.T) {
		c := newClient(t, trip.OriginAgent, "")
		f := newFile(t, c, "Trip", [3]int64{800, 1000, 10})
		assert.Empty(t, Lines([]*trip.File{f}, []*trip.Client{c}, Filter{}))
	})

	t.Run("single component gets base plus creation bonus", func(t *testing.T) {
		c := newClient(t, trip.OriginAgent, "ana@zeniva.travel")
		f := newFile(t, c, "Lisbon", [3]int64{800, 1000, 10})

		lines := Lines([]*trip.File{f}, []*trip.Client{c}, Filter{})
		require.Len(t, lines, 1)
		l := lines[0]
		assert.True(t, l.SellBase.Equal(decimal.NewFromInt(1000)))
		assert.True(t, l.Base.Equal(decimal.NewFromInt(100)))
		require.Len(t, l.Bonuses, 1)
		assert.Equal(t, BonusCreation, l.Bonuses[0].Reason)
		assert.True(t, l.Total.Equal(decimal.NewFromInt(110)))
	})

	t.Run("agent client with three components and rebook title stacks three bonuses", func(t *testing.T) {
		c := newClient(t, trip.OriginAgent, "ana@zeniva.travel")
		f := newFile(t, c, "Rebook - Greek islands",
			[3]int64{800, 1050, 10},
			[3]int64{400, 550, 10},
			[3]int64{90000, 100000, -10},
		)

		lines := Lines([]*trip.File{f}, []*trip.Client{c}, Filter{})
		require.Len(t, lines, 3)
		for _, l := range lines {
			require.Len(t, l.Bonuses, 3)
			onePct := l.SellBase.Div(decimal.NewFromInt(100)).Round(0)
			for _, b := range l.Bonuses {
				assert.True(t, b.Amount.Equal(onePct), "bonus %s want %s", b.Amount, onePct)
			}
			assert.True(t, l.Total.Equal(l.Base.Add(onePct.Mul(decimal.NewFromInt(3)))))
		}

		// 1050 -> 10.5 rounds to 11 on each bonus independently
		assert.True(t, lines[0].Bonuses[0].Amount.Equal(decimal.NewFromInt(11)))
		assert.True(t, lines[0].Base.Equal(decimal.NewFromInt(105)))
		// yacht sell base is the 5% travel share
		assert.True(t, lines[2].SellBase.Equal(decimal.NewFromInt(5000)))
		assert.True(t, lines[2].Base.Equal(decimal.NewFromInt(500)))
	})

	t.Run("trip override percent replaces component percent", func(t *testing.T) {
		c := newClient(t, trip.OriginAgent, "ana@zeniva.travel")
		f := newFile(t, c, "Trip", [3]int64{800, 1000, 10})
		pct := decimal.NewFromInt(15)
		require.NoError(t, f.SetOverrides(nil, &pct))

		lines := Lines([]*trip.File{f}, []*trip.Client{c}, Filter{})
		require.Len(t, lines, 1)
		assert.True(t, lines[0].Base.Equal(decimal.NewFromInt(150)))
	})

	t.Run("filters by agent email case insensitively", func(t *testing.T) {
		ana := newClient(t, trip.OriginAgent, "ana@zeniva.travel")
		bob := newClient(t, trip.OriginAgent, "bob@zeniva.travel")
		files := []*trip.File{
			newFile(t, ana, "A", [3]int64{800, 1000, 10}),
			newFile(t, bob, "B", [3]int64{800, 1000, 10}),
		}
		lines := Lines(files, []*trip.Client{ana, bob}, Filter{AgentEmail: "BOB@Zeniva.travel"})
		require.Len(t, lines, 1)
		assert.Equal(t, "bob@zeniva.travel", lines[0].AgentEmail)
	})
}

func TestSummarize(t *testing.T) {
	ana := newClient(t, trip.OriginAgent, "ana@zeniva.travel")
	bob := newClient(t, trip.OriginAgent, "bob@zeniva.travel")
	files := []*trip.File{
		newFile(t, bob, "B", [3]int64{800, 1000, 10}),
		newFile(t, ana, "A1", [3]int64{800, 1000, 10}, [3]int64{800, 1000, 10}),
		newFile(t, ana, "A2", [3]int64{400, 500, 10}),
	}

	summary := Summarize(Lines(files, []*trip.Client{ana, bob}, Filter{}))
	require.Len(t, summary, 2)
	assert.Equal(t, "ana@zeniva.travel", summary[0].AgentEmail)
	assert.Equal(t, 3, summary[0].Lines)
	assert.Equal(t, 2, summary[0].Trips)
	assert.True(t, summary[0].Base.Equal(decimal.NewFromInt(250)))
	assert.True(t, summary[0].Bonuses.Equal(decimal.NewFromInt(25)))
	assert.True(t, summary[0].Total.Equal(decimal.NewFromInt(275)))
	assert.Equal(t, "bob@zeniva.travel", summary[1].AgentEmail)
}
