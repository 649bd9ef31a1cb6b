package main

import (
	"fmt"

	"Starfish-Go/internal/contract"
	"Starfish-Go/internal/network"
	"Starfish-Go/internal/web3"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("无效的地址: %q", s)
	}
	return common.HexToAddress(s), nil
}

func newBalanceCmd(state *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <address>",
		Short: "查询原生币与代币余额",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			n, err := state.network(cmd.Context())
			if err != nil {
				return err
			}
			ether, err := n.GetEtherBalance(cmd.Context(), addr)
			if err != nil {
				return err
			}
			token, err := n.GetTokenBalance(cmd.Context(), addr)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{
				"address": addr.Hex(),
				"ether":   ether.String(),
				"token":   token.String(),
			})
		},
	}
}

func newSendEtherCmd(state *appState) *cobra.Command {
	signer := &signerOptions{}
	cmd := &cobra.Command{
		Use:   "send-ether <to> <amount>",
		Short: "检查余额后发送原生币",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			amount, err := web3.ParseAmount(args[1])
			if err != nil {
				return err
			}
			n, err := state.network(cmd.Context())
			if err != nil {
				return err
			}
			acct, err := signer.load(cmd.Context(), n)
			if err != nil {
				return err
			}
			ok, err := n.SendEther(cmd.Context(), acct, to, amount)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]bool{"success": ok})
		},
	}
	signer.bind(cmd)
	return cmd
}

func newSendTokenCmd(state *appState) *cobra.Command {
	signer := &signerOptions{}
	cmd := &cobra.Command{
		Use:   "send-token <to> <amount>",
		Short: "检查余额后直接转账代币",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			amount, err := web3.ParseAmount(args[1])
			if err != nil {
				return err
			}
			n, err := state.network(cmd.Context())
			if err != nil {
				return err
			}
			acct, err := signer.load(cmd.Context(), n)
			if err != nil {
				return err
			}
			ok, err := n.SendToken(cmd.Context(), acct, to, amount)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]bool{"success": ok})
		},
	}
	signer.bind(cmd)
	return cmd
}

func newSendTokenLogCmd(state *appState) *cobra.Command {
	signer := &signerOptions{}
	var ref1, ref2 string
	cmd := &cobra.Command{
		Use:   "send-token-log <to> <amount>",
		Short: "授权后通过支付合约转账并记录引用",
		Long:  "依次执行余额检查、授权与带日志转账。转账失败时已授予的额度不会被撤销。",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			amount, err := web3.ParseAmount(args[1])
			if err != nil {
				return err
			}
			n, err := state.network(cmd.Context())
			if err != nil {
				return err
			}
			acct, err := signer.load(cmd.Context(), n)
			if err != nil {
				return err
			}
			ok, err := n.SendTokenWithLog(cmd.Context(), acct, to, amount, ref1, ref2)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]bool{"success": ok})
		},
	}
	cmd.Flags().StringVar(&ref1, "ref1", "", "第一个引用")
	cmd.Flags().StringVar(&ref2, "ref2", "", "第二个引用")
	signer.bind(cmd)
	return cmd
}

type tokenSentView struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Amount      string `json:"amount"`
	Reference1  string `json:"reference1,omitempty"`
	Reference2  string `json:"reference2,omitempty"`
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
}

func newTokenSentCmd(state *appState) *cobra.Command {
	var from, to, amount, ref1, ref2 string
	cmd := &cobra.Command{
		Use:   "token-sent",
		Short: "查询带日志转账记录，所有条件可选",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := network.TokenSentFilter{Reference1: ref1, Reference2: ref2}
			if from != "" {
				addr, err := parseAddress(from)
				if err != nil {
					return err
				}
				filter.From = &addr
			}
			if to != "" {
				addr, err := parseAddress(to)
				if err != nil {
					return err
				}
				filter.To = &addr
			}
			if amount != "" {
				value, err := web3.ParseAmount(amount)
				if err != nil {
					return err
				}
				filter.Amount = &value
			}
			n, err := state.network(cmd.Context())
			if err != nil {
				return err
			}
			events, err := n.GetTokenEventLogs(cmd.Context(), filter)
			if err != nil {
				return err
			}
			views := make([]tokenSentView, 0, len(events))
			for _, ev := range events {
				views = append(views, tokenSentView{
					From:        ev.From.Hex(),
					To:          ev.To.Hex(),
					Amount:      ev.Amount.String(),
					Reference1:  contract.DecodeReference(ev.Reference1),
					Reference2:  contract.DecodeReference(ev.Reference2),
					TxHash:      ev.TxHash.Hex(),
					BlockNumber: ev.BlockNumber,
				})
			}
			return printJSON(cmd, views)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&from, "from", "", "付款地址")
	flags.StringVar(&to, "to", "", "收款地址")
	flags.StringVar(&amount, "amount", "", "金额")
	flags.StringVar(&ref1, "ref1", "", "第一个引用")
	flags.StringVar(&ref2, "ref2", "", "第二个引用")
	return cmd
}

func newRequestTokensCmd(state *appState) *cobra.Command {
	signer := &signerOptions{}
	cmd := &cobra.Command{
		Use:   "request-tokens <amount>",
		Short: "从测试网水龙头领取代币",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := web3.ParseAmount(args[0])
			if err != nil {
				return err
			}
			n, err := state.network(cmd.Context())
			if err != nil {
				return err
			}
			acct, err := signer.load(cmd.Context(), n)
			if err != nil {
				return err
			}
			ok, err := n.RequestTestTokens(cmd.Context(), acct, amount)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]bool{"success": ok})
		},
	}
	signer.bind(cmd)
	return cmd
}
