package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(dec("100.50"), USD)
		require.NoError(t, err)
		assert.Equal(t, USD, m.Currency())
		assert.True(t, m.Amount().Equal(dec("100.5")))
	})

	t.Run("returns error for empty currency", func(t *testing.T) {
		_, err := NewMoney(dec("100"), "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "currency cannot be empty")
	})

	t.Run("invalid string", func(t *testing.T) {
		_, err := NewMoneyFromString("not-a-number", USD)
		assert.Error(t, err)
	})
}

func TestCurrency_Precision(t *testing.T) {
	assert.Equal(t, int32(2), USD.Precision())
	assert.Equal(t, int32(2), Currency("eur").Precision())
	assert.Equal(t, int32(0), JPY.Precision())
	assert.Equal(t, int32(0), Currency("krw").Precision())
	assert.True(t, USD.MinorUnit().Equal(dec("0.01")))
	assert.True(t, JPY.MinorUnit().Equal(dec("1")))
	assert.Equal(t, USD, ParseCurrency(" usd "))
}

func TestCurrency_Round(t *testing.T) {
	assert.True(t, USD.Round(dec("10.005")).Equal(dec("10.01")))
	assert.True(t, USD.Round(dec("10.004")).Equal(dec("10")))
	assert.True(t, JPY.Round(dec("10.5")).Equal(dec("11")))
	assert.True(t, USD.WithinMinorUnit(dec("10.00"), dec("10.01")))
	assert.False(t, USD.WithinMinorUnit(dec("10.00"), dec("10.02")))
}

func TestMoney_Arithmetic(t *testing.T) {
	a := MustMoney(dec("10.25"), USD)
	b := MustMoney(dec("2.75"), USD)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Amount().Equal(dec("13")))

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.True(t, diff.Amount().Equal(dec("7.5")))

	_, err = a.Add(MustMoney(dec("1"), EUR))
	assert.Error(t, err)

	assert.True(t, a.Percentage(dec("10")).Round().Amount().Equal(dec("1.03")))
	assert.Equal(t, "10.25 USD", a.String())
	assert.Equal(t, "1000 JPY", MustMoney(dec("1000"), JPY).String())
}

func TestMoney_JSON(t *testing.T) {
	m := MustMoney(dec("99.99"), USD)
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"99.99","currency":"USD"}`, string(data))

	var out Money
	require.NoError(t, json.Unmarshal(data, &out))
	assert.True(t, out.Equals(m))
}

func TestMoney_AllocateProportional(t *testing.T) {
	t.Run("splits exactly across equal weights", func(t *testing.T) {
		m := MustMoney(dec("100"), USD)
		parts, err := m.AllocateProportional([]decimal.Decimal{dec("1"), dec("1"), dec("1")})
		require.NoError(t, err)
		require.Len(t, parts, 3)
		assert.True(t, parts[0].Amount().Equal(dec("33.34")))
		assert.True(t, parts[1].Amount().Equal(dec("33.33")))
		assert.True(t, parts[2].Amount().Equal(dec("33.33")))
	})

	t.Run("follows weights and sums to the amount", func(t *testing.T) {
		m := MustMoney(dec("70.00"), USD)
		parts, err := m.AllocateProportional([]decimal.Decimal{dec("42.35"), dec("27.65")})
		require.NoError(t, err)
		assert.True(t, parts[0].Amount().Equal(dec("42.35")))
		assert.True(t, parts[1].Amount().Equal(dec("27.65")))
	})

	t.Run("largest remainder receives the leftover unit", func(t *testing.T) {
		m := MustMoney(dec("10"), JPY)
		parts, err := m.AllocateProportional([]decimal.Decimal{dec("1"), dec("2"), dec("4")})
		require.NoError(t, err)
		// exact shares 1.43, 2.86, 5.71
		assert.True(t, parts[0].Amount().Equal(dec("1")))
		assert.True(t, parts[1].Amount().Equal(dec("3")))
		assert.True(t, parts[2].Amount().Equal(dec("6")))
	})

	t.Run("zero weight gets nothing", func(t *testing.T) {
		m := MustMoney(dec("5.00"), USD)
		parts, err := m.AllocateProportional([]decimal.Decimal{dec("0"), dec("3")})
		require.NoError(t, err)
		assert.True(t, parts[0].IsZero())
		assert.True(t, parts[1].Amount().Equal(dec("5")))
	})

	t.Run("rejects invalid weights", func(t *testing.T) {
		m := MustMoney(dec("5.00"), USD)
		_, err := m.AllocateProportional(nil)
		assert.Error(t, err)
		_, err = m.AllocateProportional([]decimal.Decimal{dec("0"), dec("0")})
		assert.Error(t, err)
		_, err = m.AllocateProportional([]decimal.Decimal{dec("-1"), dec("2")})
		assert.Error(t, err)
	})

	t.Run("sum invariant holds for awkward splits", func(t *testing.T) {
		m := MustMoney(dec("1234.57"), USD)
		weights := []decimal.Decimal{dec("3.33"), dec("7.77"), dec("1.01"), dec("0.5"), dec("9.99")}
		parts, err := m.AllocateProportional(weights)
		require.NoError(t, err)
		total := Zero(USD)
		for _, p := range parts {
			total, err = total.Add(p)
			require.NoError(t, err)
		}
		assert.True(t, total.Amount().Equal(dec("1234.57")))
	})
}
