package main

import (
	"context"
	"errors"
	"os"

	"Starfish-Go/internal/account"
	"Starfish-Go/internal/network"
	"Starfish-Go/internal/web3/ethereum"

	"github.com/spf13/cobra"
)

// signerOptions 选择交易签名账户：本地密钥文件或节点托管账户。
type signerOptions struct {
	keyFile  string
	password string
	from     string
}

func (o *signerOptions) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&o.keyFile, "keyfile", "", "加密密钥文件路径")
	flags.StringVar(&o.password, "password", os.Getenv("STARFISH_PASSWORD"), "密钥文件或节点账户的密码")
	flags.StringVar(&o.from, "from", "", "使用节点托管的账户地址签名")
}

func (o *signerOptions) load(_ context.Context, n *network.Network) (*account.Account, error) {
	switch {
	case o.keyFile != "":
		return account.LoadKeyFile(o.keyFile, o.password)
	case o.from != "":
		client, ok := n.Connection().Backend().(*ethereum.Client)
		if !ok {
			return nil, errors.New("当前连接不支持节点托管账户")
		}
		return account.Remote(o.from, o.password, client.RPC())
	default:
		return nil, errors.New("需要通过 --keyfile 或 --from 指定签名账户")
	}
}
