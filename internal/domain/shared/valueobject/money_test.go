package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	m, err := NewMoney(decimal.NewFromInt(1500), IQD)
	require.NoError(t, err)
	assert.Equal(t, IQD, m.Currency())
	assert.True(t, m.Amount().Equal(decimal.NewFromInt(1500)))

	_, err = NewMoney(decimal.NewFromInt(10), "")
	assert.Error(t, err)
}

func TestMoneyArithmetic(t *testing.T) {
	a := NewMoneyIQDFromFloat(100.50)
	b := NewMoneyIQDFromFloat(49.50)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Amount().Equal(decimal.NewFromInt(150)))

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.True(t, diff.Amount().Equal(decimal.NewFromInt(51)))

	usd, err := NewMoneyFromFloat(10, USD)
	require.NoError(t, err)
	_, err = a.Add(usd)
	assert.Error(t, err, "currency mismatch must be rejected")
}

func TestMoneyMin(t *testing.T) {
	a := NewMoneyIQDFromFloat(120)
	b := NewMoneyIQDFromFloat(100)
	assert.True(t, a.Min(b).Equals(b))
	assert.True(t, b.Min(a).Equals(b))
}

func TestMoneyWithinEpsilon(t *testing.T) {
	eps := decimal.NewFromFloat(0.01)

	a := NewMoneyIQDFromFloat(100.000)
	b := NewMoneyIQDFromFloat(100.005)
	ok, err := a.WithinEpsilon(b, eps)
	require.NoError(t, err)
	assert.True(t, ok)

	c := NewMoneyIQDFromFloat(100.02)
	ok, err = a.WithinEpsilon(c, eps)
	require.NoError(t, err)
	assert.False(t, ok)

	// Boundary: a difference of exactly eps is not within epsilon
	d := NewMoneyIQDFromFloat(100.01)
	ok, err = a.WithinEpsilon(d, eps)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMoneySignHelpers(t *testing.T) {
	assert.True(t, ZeroIQD().IsZero())
	assert.True(t, NewMoneyIQDFromFloat(1).IsPositive())
	assert.True(t, NewMoneyIQDFromFloat(-1).IsNegative())
	assert.True(t, NewMoneyIQDFromFloat(-2.5).Negate().IsPositive())
	assert.True(t, NewMoneyIQDFromFloat(-2.5).Abs().IsPositive())
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	m := NewMoneyIQDFromFloat(12500.75)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"12500.75","currency":"IQD"}`, string(data))

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, m.Equals(decoded))
}

func TestMoneyScan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan("300.25"))
	assert.Equal(t, DefaultCurrency, m.Currency())
	assert.True(t, m.Amount().Equal(decimal.NewFromFloat(300.25)))

	require.NoError(t, m.Scan(nil))
	assert.True(t, m.IsZero())

	assert.Error(t, m.Scan(42))
}
