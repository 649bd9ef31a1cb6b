package main

import (
	"Starfish-Go/internal/did"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

func newProvenanceCmd(state *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provenance",
		Short: "资产溯源登记与查询",
	}

	signer := &signerOptions{}
	register := &cobra.Command{
		Use:   "register <asset-id>",
		Short: "以签名账户的身份登记资产",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetID, err := did.ParseAssetID(args[0])
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
			ok, err := n.RegisterProvenance(cmd.Context(), acct, assetID)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]bool{"success": ok})
		},
	}
	signer.bind(register)

	events := &cobra.Command{
		Use:   "events <asset-id>",
		Short: "列出资产的溯源事件",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetID, err := did.ParseAssetID(args[0])
			if err != nil {
				return err
			}
			n, err := state.network(cmd.Context())
			if err != nil {
				return err
			}
			list, err := n.GetProvenanceEventLogs(cmd.Context(), assetID)
			if err != nil {
				return err
			}
			out := make([]map[string]any, 0, len(list))
			for _, ev := range list {
				out = append(out, map[string]any{
					"asset_id":     common.Hash(ev.AssetID).Hex(),
					"owner":        ev.Owner.Hex(),
					"timestamp":    ev.Timestamp,
					"tx_hash":      ev.TxHash.Hex(),
					"block_number": ev.BlockNumber,
				})
			}
			return printJSON(cmd, out)
		},
	}

	cmd.AddCommand(register, events)
	return cmd
}

func newDIDCmd(state *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "did",
		Short: "DID 注册与解析",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "new",
		Short: "生成随机 DID",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := did.New()
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{"did": id})
		},
	})

	signer := &signerOptions{}
	var ddoText string
	register := &cobra.Command{
		Use:   "register <did>",
		Short: "在链上登记 DID 对应的 DDO 文本",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := state.network(cmd.Context())
			if err != nil {
				return err
			}
			acct, err := signer.load(cmd.Context(), n)
			if err != nil {
				return err
			}
			ok, err := n.RegisterDID(cmd.Context(), acct, args[0], ddoText)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]bool{"success": ok})
		},
	}
	register.Flags().StringVar(&ddoText, "ddo", "", "DDO 文本或服务地址")
	signer.bind(register)

	cmd.AddCommand(register, &cobra.Command{
		Use:   "resolve <did>",
		Short: "读取链上登记的 DDO 文本",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := state.network(cmd.Context())
			if err != nil {
				return err
			}
			text, err := n.ResolveDID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"did": args[0], "ddo": text})
		},
	})
	return cmd
}
