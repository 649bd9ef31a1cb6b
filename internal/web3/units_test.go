package web3

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "1", "1.5", "0.000000000000000001", "123456789.123456789", "10"} {
		amount, err := ParseAmount(s)
		require.NoError(t, err)

		wei, err := ToWei(amount)
		require.NoError(t, err)
		assert.True(t, FromWei(wei).Equal(amount), "round trip %s", s)
	}
}

func TestToWeiExactValue(t *testing.T) {
	wei, err := ToWei(decimal.RequireFromString("1.5"))
	require.NoError(t, err)
	want, _ := new(big.Int).SetString("1500000000000000000", 10)
	assert.Equal(t, 0, wei.Cmp(want))
}

func TestToWeiRejectsLossyAmounts(t *testing.T) {
	_, err := ToWei(decimal.RequireFromString("0.0000000000000000001"))
	assert.Error(t, err)

	_, err = ToWei(decimal.RequireFromString("-1"))
	assert.Error(t, err)
}

func TestToUnitsCustomDecimals(t *testing.T) {
	units, err := ToUnits(decimal.RequireFromString("2.25"), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(225), units.Int64())
	assert.True(t, FromUnits(units, 2).Equal(decimal.RequireFromString("2.25")))
	assert.True(t, FromUnits(nil, 2).IsZero())
}

func TestParseAmountInvalid(t *testing.T) {
	_, err := ParseAmount("one")
	assert.Error(t, err)
}
