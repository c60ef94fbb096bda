package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromFloat(100.50), USD)
		require.NoError(t, err)
		assert.Equal(t, USD, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(100.50)))
	})

	t.Run("returns error for empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(100), "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "currency cannot be empty")
	})
}

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency(" cad ")
	require.NoError(t, err)
	assert.Equal(t, CAD, c)

	_, err = ParseCurrency("dollars")
	assert.Error(t, err)
}

func TestMoney_Add(t *testing.T) {
	a, _ := NewMoneyFromInt(100, USD)
	b, _ := NewMoneyFromInt(50, USD)
	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(150), sum.Amount().IntPart())

	eur, _ := NewMoneyFromInt(1, EUR)
	_, err = a.Add(eur)
	assert.Error(t, err)
}

func TestMoney_Prorate(t *testing.T) {
	payment, _ := NewMoneyFromInt(1000, USD)

	t.Run("allocates proportional share rounded to units", func(t *testing.T) {
		share := payment.Prorate(decimal.NewFromInt(1), decimal.NewFromInt(3))
		assert.True(t, share.Amount().Equal(decimal.NewFromInt(333)), share.String())
	})

	t.Run("returns zero when whole is zero", func(t *testing.T) {
		share := payment.Prorate(decimal.NewFromInt(1), decimal.Zero)
		assert.True(t, share.IsZero())
		assert.Equal(t, USD, share.Currency())
	})
}

func TestRoundUnits(t *testing.T) {
	assert.True(t, RoundUnits(decimal.NewFromFloat(2.5)).Equal(decimal.NewFromInt(3)))
	assert.True(t, RoundUnits(decimal.NewFromFloat(2.49)).Equal(decimal.NewFromInt(2)))
	assert.True(t, RoundPct(decimal.NewFromFloat(12.3456)).Equal(decimal.NewFromFloat(12.35)))
}

func TestMoney_JSON(t *testing.T) {
	m, _ := NewMoneyFromString("1200.50", CAD)
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"1200.5","currency":"CAD"}`, string(data))

	var back Money
	require.NoError(t, json.Unmarshal([]byte(`{"amount":99,"currency":"USD"}`), &back))
	assert.True(t, back.Amount().Equal(decimal.NewFromInt(99)))
	assert.Equal(t, USD, back.Currency())
}
