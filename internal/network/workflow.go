package network

import (
	"context"
	"log/slog"

	xerrors "Starfish-Go/internal/errors"
	"Starfish-Go/internal/journal"
	"Starfish-Go/internal/web3"
	"Starfish-Go/pkg/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// 流程名称，用于日志、指标与交易记录。
const (
	WorkflowSendEther          = "send_ether"
	WorkflowSendToken          = "send_token"
	WorkflowSendTokenWithLog   = "send_token_with_log"
	WorkflowRegisterProvenance = "register_provenance"
	WorkflowRegisterDID        = "register_did"
	WorkflowRequestTestTokens  = "request_test_tokens"
)

const (
	assetEther = "ether"
	assetToken = "token"
)

var zeroAmount = decimal.Zero

// GetEtherBalance 返回账户的原生币余额。
func (n *Network) GetEtherBalance(ctx context.Context, addr common.Address) (decimal.Decimal, error) {
	return n.Ether().BalanceOf(ctx, addr)
}

// GetTokenBalance 返回账户的代币余额。
func (n *Network) GetTokenBalance(ctx context.Context, addr common.Address) (decimal.Decimal, error) {
	token, err := n.Token(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return token.BalanceOf(ctx, addr)
}

// GetAllowance 返回 owner 授权给 spender 的剩余额度。
func (n *Network) GetAllowance(ctx context.Context, owner, spender common.Address) (decimal.Decimal, error) {
	token, err := n.Token(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return token.Allowance(ctx, owner, spender)
}

// SendEther 检查余额后发送原生币，返回交易是否成功。
func (n *Network) SendEther(ctx context.Context, signer web3.Signer, to common.Address, amount decimal.Decimal) (bool, error) {
	if err := validateAmount(amount); err != nil {
		return false, err
	}
	ether := n.Ether()
	balance, err := ether.BalanceOf(ctx, signer.Address())
	if err != nil {
		return false, err
	}
	if err := checkFunds(signer.Address(), assetEther, balance, amount); err != nil {
		n.finish(ctx, WorkflowSendEther, false, err)
		return false, err
	}

	outcome, err := ether.Transfer(ctx, signer, to, amount)
	n.record(ctx, WorkflowSendEther, "transfer", signer.Address(), &to, amount, outcome, err)
	n.finish(ctx, WorkflowSendEther, outcome.Success, err)
	return outcome.Success, err
}

// SendToken 检查代币余额后直接转账，返回交易是否成功。
func (n *Network) SendToken(ctx context.Context, signer web3.Signer, to common.Address, amount decimal.Decimal) (bool, error) {
	if err := validateAmount(amount); err != nil {
		return false, err
	}
	token, err := n.Token(ctx)
	if err != nil {
		return false, err
	}
	balance, err := token.BalanceOf(ctx, signer.Address())
	if err != nil {
		return false, err
	}
	if err := checkFunds(signer.Address(), assetToken, balance, amount); err != nil {
		n.finish(ctx, WorkflowSendToken, false, err)
		return false, err
	}

	outcome, err := token.Transfer(ctx, signer, to, amount)
	n.record(ctx, WorkflowSendToken, "transfer", signer.Address(), &to, amount, outcome, err)
	n.finish(ctx, WorkflowSendToken, outcome.Success, err)
	return outcome.Success, err
}

// SendTokenWithLog 依次执行余额检查、授权与带日志转账。
//
// 授权失败时不会尝试转账；转账失败时已授予的额度保持不变，调用方需以返回值为准，
// 必要时自行撤销授权。
func (n *Network) SendTokenWithLog(ctx context.Context, signer web3.Signer, to common.Address, amount decimal.Decimal, ref1, ref2 string) (bool, error) {
	ok, err := n.sendTokenWithLog(ctx, signer, to, amount, ref1, ref2)
	n.finish(ctx, WorkflowSendTokenWithLog, ok, err)
	return ok, err
}

func (n *Network) sendTokenWithLog(ctx context.Context, signer web3.Signer, to common.Address, amount decimal.Decimal, ref1, ref2 string) (bool, error) {
	if err := validateAmount(amount); err != nil {
		return false, err
	}
	token, err := n.Token(ctx)
	if err != nil {
		return false, err
	}
	purchase, err := n.DirectPurchase(ctx)
	if err != nil {
		return false, err
	}

	balance, err := token.BalanceOf(ctx, signer.Address())
	if err != nil {
		return false, err
	}
	if err := checkFunds(signer.Address(), assetToken, balance, amount); err != nil {
		return false, err
	}

	spender := purchase.Address()
	approval, err := token.Approve(ctx, signer, spender, amount)
	n.record(ctx, WorkflowSendTokenWithLog, "approve", signer.Address(), &spender, amount, approval, err)
	if err != nil || !approval.Success {
		n.log.Warn("授权失败，终止转账", slog.String("from", signer.Address().Hex()), slog.String("tx", approval.TxHash.Hex()))
		return false, err
	}

	spend, err := purchase.SendTokenAndLog(ctx, signer, to, amount, ref1, ref2)
	n.record(ctx, WorkflowSendTokenWithLog, "send_token_and_log", signer.Address(), &to, amount, spend, err)
	if err != nil || !spend.Success {
		n.log.Warn("带日志转账失败，已授予的额度未撤销",
			slog.String("from", signer.Address().Hex()),
			slog.String("spender", spender.Hex()),
			slog.String("amount", amount.String()))
		return false, err
	}

	events, err := purchase.TokenSentInLogs(spend.Logs)
	if err != nil {
		return false, err
	}
	if len(events) == 0 {
		n.log.Warn("交易成功但未找到 TokenSent 事件", slog.String("tx", spend.TxHash.Hex()))
		return false, nil
	}
	return true, nil
}

// GetTokenEventLogs 查询满足条件的 TokenSent 事件。
func (n *Network) GetTokenEventLogs(ctx context.Context, filter TokenSentFilter) ([]TokenSentEvent, error) {
	purchase, err := n.DirectPurchase(ctx)
	if err != nil {
		return nil, err
	}
	return purchase.TokenSentEvents(ctx, filter)
}

// IsTokenSent 判断是否存在与参数完全匹配的带日志转账。
func (n *Network) IsTokenSent(ctx context.Context, from, to common.Address, amount decimal.Decimal, ref1, ref2 string) (bool, error) {
	events, err := n.GetTokenEventLogs(ctx, TokenSentFilter{
		From:       &from,
		To:         &to,
		Amount:     &amount,
		Reference1: ref1,
		Reference2: ref2,
	})
	if err != nil {
		return false, err
	}
	return len(events) > 0, nil
}

// RequestTestTokens 从测试网水龙头领取代币。
func (n *Network) RequestTestTokens(ctx context.Context, signer web3.Signer, amount decimal.Decimal) (bool, error) {
	if err := validateAmount(amount); err != nil {
		return false, err
	}
	dispenser, err := n.Dispenser(ctx)
	if err != nil {
		return false, err
	}
	outcome, err := dispenser.RequestTokens(ctx, signer, amount)
	n.record(ctx, WorkflowRequestTestTokens, "request_tokens", signer.Address(), nil, amount, outcome, err)
	n.finish(ctx, WorkflowRequestTestTokens, outcome.Success, err)
	return outcome.Success, err
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return xerrors.New(xerrors.CodeInvalidArgument, "转账金额必须大于 0",
			xerrors.WithMetadata("amount", amount.String()))
	}
	return nil
}

func checkFunds(addr common.Address, asset string, available, requested decimal.Decimal) error {
	if available.LessThan(requested) {
		return &InsufficientFundsError{
			Address:   addr,
			Asset:     asset,
			Available: available,
			Requested: requested,
		}
	}
	return nil
}

// record 写入交易记录，写入失败只记日志，不影响流程结果。
func (n *Network) record(ctx context.Context, workflow, step string, from common.Address, to *common.Address, amount decimal.Decimal, outcome web3.Outcome, err error) {
	entry := journal.NewEntry(workflow, step)
	entry.Network = n.Name()
	entry.From = from.Hex()
	if to != nil {
		entry.To = to.Hex()
	}
	if !amount.IsZero() {
		entry.Amount = amount.String()
	}
	if outcome.Receipt != nil {
		entry.TxHash = outcome.TxHash.Hex()
	}
	entry.Success = outcome.Success && err == nil
	if err != nil {
		entry.Error = err.Error()
	}
	logger.Tx().Info("交易已提交",
		slog.String("id", entry.ID),
		slog.String("workflow", workflow),
		slog.String("step", step),
		slog.String("from", entry.From),
		slog.String("tx", entry.TxHash),
		slog.Bool("success", entry.Success))
	if recErr := n.journal.Record(ctx, entry); recErr != nil {
		n.log.Warn("写入交易记录失败", slog.String("workflow", workflow), slog.Any("error", recErr))
	}
}

func (n *Network) finish(ctx context.Context, workflow string, success bool, err error) {
	n.metrics.ObserveWorkflow(workflow, success, err)
	attrs := []any{slog.String("workflow", workflow), slog.Bool("success", success)}
	if err != nil {
		attrs = append(attrs, slog.String("code", string(xerrors.CodeOf(err))), slog.Any("error", err))
		n.log.Log(ctx, xerrors.LevelOf(err), "流程执行失败", attrs...)
		return
	}
	n.log.InfoContext(ctx, "流程执行完成", attrs...)
}
