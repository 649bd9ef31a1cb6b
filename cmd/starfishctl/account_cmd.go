package main

import (
	"errors"

	"Starfish-Go/internal/account"
	"Starfish-Go/internal/web3/ethereum"

	"github.com/spf13/cobra"
)

func newAccountCmd(state *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "账户管理",
	}

	var password, dir string
	create := &cobra.Command{
		Use:   "new",
		Short: "生成新账户并保存加密密钥文件",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				return errors.New("需要通过 --password 设置密钥文件密码")
			}
			if dir == "" {
				cfg, err := state.config()
				if err != nil {
					return err
				}
				dir = cfg.Runtime.KeystoreDir
			}
			acct, err := account.New(password)
			if err != nil {
				return err
			}
			path, err := acct.SaveKeyFile(dir)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{"address": acct.ChecksumAddress(), "keyfile": path})
		},
	}
	create.Flags().StringVar(&password, "password", "", "密钥文件密码")
	create.Flags().StringVar(&dir, "dir", "", "密钥文件目录，默认读取配置")

	list := &cobra.Command{
		Use:   "list",
		Short: "列出节点托管的账户",
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := state.network(cmd.Context())
			if err != nil {
				return err
			}
			client, ok := n.Connection().Backend().(*ethereum.Client)
			if !ok {
				return errors.New("当前连接不支持节点托管账户")
			}
			addrs, err := client.Accounts(cmd.Context())
			if err != nil {
				return err
			}
			out := make([]string, 0, len(addrs))
			for _, a := range addrs {
				out = append(out, a.Hex())
			}
			return printJSON(cmd, out)
		},
	}

	cmd.AddCommand(create, list)
	return cmd
}
