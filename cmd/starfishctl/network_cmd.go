package main

import (
	"Starfish-Go/internal/web3"
	"Starfish-Go/internal/web3/provider"

	"github.com/spf13/cobra"
)

func newNetworkCmd(state *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "network",
		Short: "网络信息",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "连接节点并显示链 ID 与网络名称",
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := state.network(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{
				"name":     n.Name(),
				"chain_id": n.ChainID().String(),
				"endpoint": n.Connection().Endpoint(),
				"local":    web3.IsLocalNetwork(n.Name()),
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "chains",
		Short: "列出配置中的链端点",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := state.config()
			if err != nil {
				return err
			}
			registry, err := provider.NewRegistry(cfg.Network)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{
				"default": registry.Default(),
				"chains":  registry.Chains(),
			})
		},
	})
	return cmd
}
