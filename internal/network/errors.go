package network

import (
	"fmt"

	xerrors "Starfish-Go/internal/errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// InsufficientFundsError 表示余额不足以完成转账，此时不会提交任何交易。
type InsufficientFundsError struct {
	Address   common.Address
	Asset     string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("账户 %s 的 %s 余额不足: 可用 %s, 需要 %s",
		e.Address.Hex(), e.Asset, e.Available.String(), e.Requested.String())
}

// Unwrap 返回对应的统一错误，便于按错误码判断。
func (e *InsufficientFundsError) Unwrap() error {
	return xerrors.New(xerrors.CodeInsufficientFunds, e.Error(),
		xerrors.WithMetadata("address", e.Address.Hex()),
		xerrors.WithMetadata("available", e.Available.String()),
		xerrors.WithMetadata("requested", e.Requested.String()))
}
