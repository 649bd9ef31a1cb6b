package contract

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"Starfish-Go/internal/web3"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Token drives a fungible token contract. Amounts are in whole tokens,
// scaled by the decimals the contract declares; the value is read once per
// wrapper.
type Token struct {
	*Contract

	mu       sync.Mutex
	decimals *uint8
}

// NewToken wraps c.
func NewToken(c *Contract) *Token {
	return &Token{Contract: c}
}

// BalanceOf returns the token balance of owner.
func (t *Token) BalanceOf(ctx context.Context, owner common.Address) (decimal.Decimal, error) {
	return t.amount(ctx, "balanceOf", owner)
}

// TotalSupply returns the number of tokens in circulation.
func (t *Token) TotalSupply(ctx context.Context) (decimal.Decimal, error) {
	return t.amount(ctx, "totalSupply")
}

// Allowance returns how much spender may still move on behalf of owner.
func (t *Token) Allowance(ctx context.Context, owner, spender common.Address) (decimal.Decimal, error) {
	return t.amount(ctx, "allowance", owner, spender)
}

// Decimals returns the decimals the contract declares. A failed read is not
// cached.
func (t *Token) Decimals(ctx context.Context) (uint8, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.decimals != nil {
		return *t.decimals, nil
	}
	values, err := t.Call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	if len(values) != 1 {
		return 0, fmt.Errorf("decimals 返回值数量异常: %d", len(values))
	}
	d, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals 返回值类型异常: %T", values[0])
	}
	t.decimals = &d
	return d, nil
}

// ToUnits converts a whole-token amount into the contract's base units.
func (t *Token) ToUnits(ctx context.Context, amount decimal.Decimal) (*big.Int, error) {
	d, err := t.Decimals(ctx)
	if err != nil {
		return nil, err
	}
	return web3.ToUnits(amount, int32(d))
}

// FromUnits converts base units into whole tokens.
func (t *Token) FromUnits(ctx context.Context, units *big.Int) (decimal.Decimal, error) {
	d, err := t.Decimals(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return web3.FromUnits(units, int32(d)), nil
}

// Approve lets spender move up to amount from the signer's balance.
func (t *Token) Approve(ctx context.Context, signer web3.Signer, spender common.Address, amount decimal.Decimal) (web3.Outcome, error) {
	units, err := t.ToUnits(ctx, amount)
	if err != nil {
		return web3.Outcome{}, err
	}
	return t.Transact(ctx, signer, "approve", spender, units)
}

// Transfer moves amount from the signer to to.
func (t *Token) Transfer(ctx context.Context, signer web3.Signer, to common.Address, amount decimal.Decimal) (web3.Outcome, error) {
	units, err := t.ToUnits(ctx, amount)
	if err != nil {
		return web3.Outcome{}, err
	}
	return t.Transact(ctx, signer, "transfer", to, units)
}

func (t *Token) amount(ctx context.Context, method string, args ...any) (decimal.Decimal, error) {
	values, err := t.Call(ctx, method, args...)
	if err != nil {
		return decimal.Zero, err
	}
	units, err := bigOutput(method, values)
	if err != nil {
		return decimal.Zero, err
	}
	return t.FromUnits(ctx, units)
}

func bigOutput(method string, values []any) (*big.Int, error) {
	if len(values) != 1 {
		return nil, fmt.Errorf("%s 返回值数量异常: %d", method, len(values))
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s 返回值类型异常: %T", method, values[0])
	}
	return v, nil
}
