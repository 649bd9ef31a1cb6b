package contract

import (
	"context"

	"Starfish-Go/internal/web3"

	"github.com/shopspring/decimal"
)

// Dispenser is the test network faucet.
type Dispenser struct {
	*Contract
	decimals int32
}

// NewDispenser wraps c for a token with web3.TokenDecimals decimals.
func NewDispenser(c *Contract) *Dispenser {
	return &Dispenser{Contract: c, decimals: web3.TokenDecimals}
}

// RequestTokens asks the faucet to mint amount tokens to the signer.
func (d *Dispenser) RequestTokens(ctx context.Context, signer web3.Signer, amount decimal.Decimal) (web3.Outcome, error) {
	units, err := web3.ToUnits(amount, d.decimals)
	if err != nil {
		return web3.Outcome{}, err
	}
	return d.Transact(ctx, signer, "requestTokens", units)
}
