// Package web3test runs an in-process go-ethereum chain for transaction tests.
package web3test

import (
	"context"
	"math/big"
	"time"

	"Starfish-Go/internal/web3"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/params"
)

// Revert is runtime code that reverts every call.
var Revert = []byte{0x60, 0x00, 0x60, 0x00, 0xfd}

// Chain wraps a simulated backend that seals a block after every accepted
// transaction, so submitted transactions always get a receipt.
type Chain struct {
	sim *simulated.Backend
	simulated.Client
}

// New starts a simulated chain (chain id 1337) with alloc as genesis state.
func New(alloc types.GenesisAlloc) *Chain {
	sim := simulated.NewBackend(alloc)
	return &Chain{sim: sim, Client: sim.Client()}
}

// Funded returns a genesis entry holding amount whole ether.
func Funded(ether int64) types.Account {
	return types.Account{Balance: new(big.Int).Mul(big.NewInt(ether), big.NewInt(params.Ether))}
}

// SendTransaction forwards tx and mines it.
func (c *Chain) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := c.Client.SendTransaction(ctx, tx); err != nil {
		return err
	}
	c.sim.Commit()
	return nil
}

// Connect opens a connection over the chain with fast receipt polling.
// Closing the connection shuts the chain down.
func (c *Chain) Connect(ctx context.Context) (*web3.Connection, error) {
	return web3.Connect(ctx, c,
		web3.WithEndpoint("simulated://local"),
		web3.WithReceiptPolling(5*time.Millisecond),
		web3.WithCloser(func() { _ = c.sim.Close() }))
}

// Balance reads the latest native balance of addr in wei.
func (c *Chain) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	return c.Client.BalanceAt(ctx, addr, nil)
}

// Nonce reads the pending nonce of addr.
func (c *Chain) Nonce(ctx context.Context, addr common.Address) (uint64, error) {
	return c.Client.PendingNonceAt(ctx, addr)
}
