package contract

import (
	"context"
	"fmt"
	"math/big"

	"Starfish-Go/internal/web3"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
)

const tokenSentEvent = "TokenSent"

// DirectPurchase moves tokens on behalf of a payer and logs two references
// with the transfer.
type DirectPurchase struct {
	*Contract
	decimals int32
}

// NewDirectPurchase wraps c for a token with web3.TokenDecimals decimals.
// Registry.DirectPurchase uses the deployed token's decimals instead.
func NewDirectPurchase(c *Contract) *DirectPurchase {
	return &DirectPurchase{Contract: c, decimals: web3.TokenDecimals}
}

// SendTokenAndLog transfers amount from the signer to to using an allowance
// previously granted to the contract, and emits a TokenSent entry.
func (p *DirectPurchase) SendTokenAndLog(ctx context.Context, signer web3.Signer, to common.Address, amount decimal.Decimal, ref1, ref2 string) (web3.Outcome, error) {
	units, err := web3.ToUnits(amount, p.decimals)
	if err != nil {
		return web3.Outcome{}, err
	}
	return p.Transact(ctx, signer, "sendTokenAndLog", to, units, EncodeReference(ref1), EncodeReference(ref2))
}

// TokenSentFilter narrows TokenSentEvents. Zero fields match anything.
type TokenSentFilter struct {
	From       *common.Address
	To         *common.Address
	Amount     *decimal.Decimal
	Reference1 string
	Reference2 string
}

// TokenSentEvent is a decoded TokenSent entry.
type TokenSentEvent struct {
	From        common.Address
	To          common.Address
	Amount      decimal.Decimal
	Reference1  [32]byte
	Reference2  [32]byte
	TxHash      common.Hash
	BlockNumber uint64
}

// TokenSentEvents returns the entries matching every field set in f.
func (p *DirectPurchase) TokenSentEvents(ctx context.Context, f TokenSentFilter) ([]TokenSentEvent, error) {
	var fromTopic, toTopic []any
	if f.From != nil {
		fromTopic = []any{*f.From}
	}
	if f.To != nil {
		toTopic = []any{*f.To}
	}
	events, err := p.FilterEvents(ctx, tokenSentEvent, fromTopic, toTopic)
	if err != nil {
		return nil, err
	}
	return p.collect(events, f)
}

// TokenSentInLogs decodes the TokenSent entries of a receipt.
func (p *DirectPurchase) TokenSentInLogs(logs []types.Log) ([]TokenSentEvent, error) {
	events, err := p.DecodeLogs(tokenSentEvent, logs)
	if err != nil {
		return nil, err
	}
	return p.collect(events, TokenSentFilter{})
}

func (p *DirectPurchase) collect(events []Event, f TokenSentFilter) ([]TokenSentEvent, error) {
	out := make([]TokenSentEvent, 0, len(events))
	for _, ev := range events {
		decoded, err := decodeTokenSent(ev, p.decimals)
		if err != nil {
			return nil, err
		}
		if f.matches(decoded) {
			out = append(out, decoded)
		}
	}
	return out, nil
}

func (f TokenSentFilter) matches(ev TokenSentEvent) bool {
	if f.From != nil && *f.From != ev.From {
		return false
	}
	if f.To != nil && *f.To != ev.To {
		return false
	}
	if f.Amount != nil && !f.Amount.Equal(ev.Amount) {
		return false
	}
	if f.Reference1 != "" && !ReferenceMatches(ev.Reference1, f.Reference1) {
		return false
	}
	if f.Reference2 != "" && !ReferenceMatches(ev.Reference2, f.Reference2) {
		return false
	}
	return true
}

func decodeTokenSent(ev Event, decimals int32) (TokenSentEvent, error) {
	from, ok1 := ev.Fields["_from"].(common.Address)
	to, ok2 := ev.Fields["_to"].(common.Address)
	amount, ok3 := ev.Fields["_amount"].(*big.Int)
	ref1, ok4 := ev.Fields["_reference1"].([32]byte)
	ref2, ok5 := ev.Fields["_reference2"].([32]byte)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return TokenSentEvent{}, fmt.Errorf("TokenSent 事件字段不完整: %v", ev.Fields)
	}
	return TokenSentEvent{
		From:        from,
		To:          to,
		Amount:      web3.FromUnits(amount, decimals),
		Reference1:  ref1,
		Reference2:  ref2,
		TxHash:      ev.Log.TxHash,
		BlockNumber: ev.Log.BlockNumber,
	}, nil
}
