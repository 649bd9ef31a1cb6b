package web3

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	xerrors "Starfish-Go/internal/errors"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const defaultReceiptPolling = 500 * time.Millisecond

// Outcome is the normalised result of a state-changing call.
type Outcome struct {
	Success bool
	TxHash  common.Hash
	Receipt *types.Receipt
	Logs    []types.Log
}

// TxRequest describes a transaction before nonce, gas and signature are set.
type TxRequest struct {
	To       *common.Address
	Value    *big.Int
	Data     []byte
	GasLimit uint64
}

// Submit fills in nonce and gas, has the signer sign the transaction, sends it
// and waits for the receipt. A mined but reverted transaction is reported as
// an unsuccessful Outcome, not an error; every transport fault is an error.
func (c *Connection) Submit(ctx context.Context, signer Signer, req TxRequest) (Outcome, error) {
	if signer == nil {
		return Outcome{}, xerrors.New(xerrors.CodeInvalidArgument, "未提供交易签名账户")
	}
	from := signer.Address()
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	nonce, err := c.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return Outcome{}, c.transportError(err, "查询交易计数失败")
	}
	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return Outcome{}, c.transportError(err, "获取 gas 价格失败")
	}
	gasLimit := req.GasLimit
	if gasLimit == 0 {
		gasLimit, err = c.backend.EstimateGas(ctx, gethcore.CallMsg{
			From:  from,
			To:    req.To,
			Value: value,
			Data:  req.Data,
		})
		if err != nil {
			return Outcome{}, c.transportError(err, "估算 gas 失败")
		}
	}

	var tx *types.Transaction
	if req.To == nil {
		tx = types.NewContractCreation(nonce, value, gasLimit, gasPrice, req.Data)
	} else {
		tx = types.NewTransaction(nonce, *req.To, value, gasLimit, gasPrice, req.Data)
	}
	signed, err := signer.SignTx(ctx, tx, c.chainID)
	if err != nil {
		return Outcome{}, fmt.Errorf("签名交易失败: %w", err)
	}
	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return Outcome{}, c.transportError(err, "发送交易失败")
	}

	receipt, err := c.WaitReceipt(ctx, signed.Hash())
	if err != nil {
		return Outcome{}, err
	}
	outcome := Outcome{
		Success: receipt.Status == types.ReceiptStatusSuccessful,
		TxHash:  signed.Hash(),
		Receipt: receipt,
	}
	for _, log := range receipt.Logs {
		if log != nil {
			outcome.Logs = append(outcome.Logs, *log)
		}
	}
	return outcome, nil
}

// WaitReceipt polls until the transaction is mined or ctx ends.
func (c *Connection) WaitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	interval := c.polling
	if interval <= 0 {
		interval = defaultReceiptPolling
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, err := c.backend.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !receiptPending(err) {
			return nil, c.transportError(err, "查询交易回执失败")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// 节点的交易索引尚未追上最新区块时，回执查询返回该错误而非空结果。
const txIndexingMessage = "transaction indexing is in progress"

func receiptPending(err error) bool {
	return errors.Is(err, gethcore.NotFound) || strings.Contains(err.Error(), txIndexingMessage)
}

func (c *Connection) transportError(err error, message string) error {
	return xerrors.Wrap(xerrors.CodeTransportFailure, err, message,
		xerrors.WithMetadata("endpoint", c.endpoint),
		xerrors.WithMetadata("network", c.name))
}

// TransportError wraps err the way Submit does, for wrappers issuing their own
// read calls.
func (c *Connection) TransportError(err error, message string) error {
	return c.transportError(err, message)
}
