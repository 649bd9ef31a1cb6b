package web3

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// TokenDecimals is the precision of ether and the ocean token.
const TokenDecimals = 18

// ToWei converts a human amount into its smallest unit. Amounts with more
// fractional digits than TokenDecimals, and negative amounts, are rejected
// instead of being rounded.
func ToWei(amount decimal.Decimal) (*big.Int, error) {
	return ToUnits(amount, TokenDecimals)
}

// FromWei converts a smallest-unit amount into a human amount.
func FromWei(wei *big.Int) decimal.Decimal {
	return FromUnits(wei, TokenDecimals)
}

// ToUnits is ToWei for an arbitrary number of decimals.
func ToUnits(amount decimal.Decimal, decimals int32) (*big.Int, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("金额不能为负数: %s", amount.String())
	}
	shifted := amount.Shift(decimals)
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("金额 %s 超出 %d 位小数精度", amount.String(), decimals)
	}
	return shifted.BigInt(), nil
}

// FromUnits is FromWei for an arbitrary number of decimals.
func FromUnits(units *big.Int, decimals int32) decimal.Decimal {
	if units == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(units, -decimals)
}

// ParseAmount parses a decimal string such as "1.5".
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("无法解析金额 %q: %w", s, err)
	}
	return d, nil
}
