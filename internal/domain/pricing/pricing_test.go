package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeniva/backend/internal/domain/shared/valueobject"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func mustLine(t *testing.T, kind ProductKind, net, sell, pct int64) Line {
	t.Helper()
	p, err := NewComponentPricing(valueobject.USD, d(net), d(sell), d(pct), kind)
	require.NoError(t, err)
	return Line{Kind: kind, Pricing: p}
}

func assertDec(t *testing.T, want int64, got decimal.Decimal, msg ...any) {
	t.Helper()
	assert.True(t, got.Equal(d(want)), append([]any{"want %d got %s", want, got.String()}, msg...)...)
}

func TestNewComponentPricing(t *testing.T) {
	t.Run("margin equals sell minus net", func(t *testing.T) {
		p, err := NewComponentPricing(valueobject.USD, decimal.NewFromFloat(812.40), decimal.NewFromFloat(1033.15), d(10), KindHotel)
		require.NoError(t, err)
		assert.True(t, p.MarginConsistent())
		assert.True(t, p.MarginPct.Equal(decimal.NewFromFloat(21.37)), p.MarginPct.String())
		assertDec(t, 103, p.CommissionAmount)
	})

	t.Run("yacht commission uses travel share", func(t *testing.T) {
		p, err := NewComponentPricing(valueobject.USD, d(90000), d(100000), d(10), KindYacht)
		require.NoError(t, err)
		assertDec(t, 10000, p.MarginAmount)
		assertDec(t, 500, p.CommissionAmount)
	})

	t.Run("zero sell gives zero margin pct", func(t *testing.T) {
		p, err := NewComponentPricing("", d(0), d(0), d(0), KindOther)
		require.NoError(t, err)
		assert.True(t, p.MarginPct.IsZero())
		assert.Equal(t, valueobject.DefaultCurrency, p.Currency)
	})

	t.Run("rejects negative amounts and out of range pct", func(t *testing.T) {
		_, err := NewComponentPricing(valueobject.USD, d(-1), d(10), d(5), KindFlight)
		assert.Error(t, err)
		_, err = NewComponentPricing(valueobject.USD, d(1), d(10), d(101), KindFlight)
		assert.Error(t, err)
	})
}

func TestAggregate(t *testing.T) {
	t.Run("returns nil without components", func(t *testing.T) {
		assert.Nil(t, Aggregate(nil, Overrides{}))
		assert.Nil(t, Aggregate([]Line{}, Overrides{}))
	})

	t.Run("yacht component only contributes five percent to margin and commission", func(t *testing.T) {
		lines := []Line{mustLine(t, KindYacht, 90000, 100000, 10)}

		sellBase, netBase := Bases(lines)
		assertDec(t, 5000, sellBase)
		assertDec(t, 4500, netBase)

		p := Aggregate(lines, Overrides{})
		require.NotNil(t, p)
		assertDec(t, 100000, p.Sell)
		assertDec(t, 90000, p.Net)
		assertDec(t, 500, p.MarginAmount)
		assertDec(t, 500, p.CommissionAmount)
		assertDec(t, 10, p.MarginPct)
	})

	t.Run("sums full net and sell across components", func(t *testing.T) {
		lines := []Line{
			mustLine(t, KindFlight, 800, 1000, 10),
			mustLine(t, KindHotel, 1500, 2000, 20),
		}
		p := Aggregate(lines, Overrides{})
		require.NotNil(t, p)
		assertDec(t, 3000, p.Sell)
		assertDec(t, 2300, p.Net)
		assertDec(t, 700, p.MarginAmount)
		assert.True(t, p.Sell.Sub(p.Net).Equal(p.MarginAmount))
		assertDec(t, 15, p.CommissionPct)
		assertDec(t, 450, p.CommissionAmount)
	})

	t.Run("margin override recomputes sell from net", func(t *testing.T) {
		lines := []Line{mustLine(t, KindHotel, 1000, 1100, 10)}
		pct := d(20)
		p := Aggregate(lines, Overrides{MarginPct: &pct})
		require.NotNil(t, p)
		assertDec(t, 1200, p.Sell)
		assertDec(t, 200, p.MarginAmount)
		assert.True(t, p.Sell.Sub(p.Net).Equal(p.MarginAmount))
	})

	t.Run("margin override rounds to nearest unit", func(t *testing.T) {
		lines := []Line{mustLine(t, KindHotel, 333, 400, 0)}
		pct := decimal.NewFromFloat(12.5)
		p := Aggregate(lines, Overrides{MarginPct: &pct})
		require.NotNil(t, p)
		assertDec(t, 375, p.Sell)
	})

	t.Run("commission override replaces average", func(t *testing.T) {
		lines := []Line{
			mustLine(t, KindFlight, 800, 1000, 10),
			mustLine(t, KindHotel, 800, 1000, 20),
		}
		pct := d(5)
		p := Aggregate(lines, Overrides{CommissionPct: &pct})
		require.NotNil(t, p)
		assertDec(t, 5, p.CommissionPct)
		assertDec(t, 100, p.CommissionAmount)
	})
}

func TestSplit(t *testing.T) {
	t.Run("non yacht component with twenty percent agent", func(t *testing.T) {
		s := Split([]Line{mustLine(t, KindHotel, 700, 1000, 10)}, decimal.NewFromFloat(0.2))
		assertDec(t, 1000, s.TravelSell)
		assertDec(t, 200, s.TravelAgentShare)
		assertDec(t, 800, s.TravelNetAfterAgent)
		assertDec(t, 0, s.YachtSell)
	})

	t.Run("yacht component splits 95 5", func(t *testing.T) {
		lines := []Line{
			mustLine(t, KindYacht, 90000, 100000, 10),
			mustLine(t, KindFlight, 1500, 2000, 10),
		}
		s := Split(lines, decimal.NewFromFloat(0.2))
		assertDec(t, 7000, s.TravelSell)
		assertDec(t, 95000, s.YachtSell)
		assertDec(t, 1400, s.TravelAgentShare)
		assertDec(t, 5600, s.TravelNetAfterAgent)
		assertDec(t, 102000, s.TotalSell())
	})

	t.Run("no agent keeps all travel revenue", func(t *testing.T) {
		s := Split([]Line{mustLine(t, KindCar, 100, 333, 0)}, decimal.Zero)
		assertDec(t, 0, s.TravelAgentShare)
		assertDec(t, 333, s.TravelNetAfterAgent)
	})
}

func TestParseProductKind(t *testing.T) {
	assert.Equal(t, KindYacht, ParseProductKind(" Yacht "))
	assert.Equal(t, KindOther, ParseProductKind("spaceship"))
	assert.True(t, Scale(KindYacht).Equal(decimal.NewFromFloat(0.05)))
	assert.True(t, Scale(KindFlight).Equal(d(1)))
}
