package contract

import (
	"context"
	"time"

	"Starfish-Go/internal/web3"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

const etherName = "Ether"

// Ether moves the chain's native currency. It is not backed by an artifact.
type Ether struct {
	conn     *web3.Connection
	observer Observer
}

// NewEther returns the native currency wrapper for conn.
func NewEther(conn *web3.Connection, observer Observer) *Ether {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Ether{conn: conn, observer: observer}
}

// BalanceOf returns the latest balance of owner in ether.
func (e *Ether) BalanceOf(ctx context.Context, owner common.Address) (decimal.Decimal, error) {
	wei, err := e.conn.Backend().BalanceAt(ctx, owner, nil)
	if err != nil {
		err = e.conn.TransportError(err, "查询余额失败")
		e.observer.ObserveCall(etherName, "balance", err)
		return decimal.Zero, err
	}
	e.observer.ObserveCall(etherName, "balance", nil)
	return web3.FromWei(wei), nil
}

// Transfer sends amount ether from the signer to to.
func (e *Ether) Transfer(ctx context.Context, signer web3.Signer, to common.Address, amount decimal.Decimal) (web3.Outcome, error) {
	wei, err := web3.ToWei(amount)
	if err != nil {
		return web3.Outcome{}, err
	}
	started := time.Now()
	outcome, err := e.conn.Submit(ctx, signer, web3.TxRequest{To: &to, Value: wei})
	e.observer.ObserveTransaction(etherName, "transfer", outcome.Success, err, time.Since(started))
	return outcome, err
}
