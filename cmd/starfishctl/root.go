package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

type globalOptions struct {
	configPath  string
	chain       string
	logLevel    string
	metricsAddr string
}

func newRootCmd(state *appState) *cobra.Command {
	opts := state.opts

	root := &cobra.Command{
		Use:           "starfishctl",
		Short:         "Starfish 网络客户端",
		Long:          "连接 EVM 节点，执行代币转账、溯源登记、DID 注册与 Agent 解析。",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", os.Getenv("STARFISH_CONFIG"), "配置文件路径 (JSON 或 YAML)")
	flags.StringVar(&opts.chain, "chain", "", "链端点名称，默认使用配置中的默认链")
	flags.StringVar(&opts.logLevel, "log-level", "", "覆盖配置中的日志级别")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "命令执行期间在该地址暴露 Prometheus 指标")

	root.AddCommand(
		newNetworkCmd(state),
		newBalanceCmd(state),
		newSendEtherCmd(state),
		newSendTokenCmd(state),
		newSendTokenLogCmd(state),
		newTokenSentCmd(state),
		newRequestTokensCmd(state),
		newProvenanceCmd(state),
		newDIDCmd(state),
		newAgentCmd(state),
		newAccountCmd(state),
		newArtifactCmd(state),
		newJournalCmd(state),
	)
	return root
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
