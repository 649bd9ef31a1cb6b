package ethereum

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// Config describes how to reach an EVM node.
type Config struct {
	Name   string
	RPCURL string
	Notes  string
}

// Client is the go-ethereum backed transport. It satisfies web3.Backend through
// the embedded ethclient and keeps the raw RPC handle for node-held accounts.
type Client struct {
	*ethclient.Client

	name      string
	url       string
	notes     string
	rpcClient *gethrpc.Client
}

// Dial connects to the configured RPC endpoint.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	rpcURL := strings.TrimSpace(cfg.RPCURL)
	if rpcURL == "" {
		return nil, errors.New("未配置以太坊 RPC 地址")
	}

	rpcClient, err := gethrpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("连接以太坊节点失败: %w", err)
	}

	return &Client{
		Client:    ethclient.NewClient(rpcClient),
		name:      cfg.Name,
		url:       rpcURL,
		notes:     cfg.Notes,
		rpcClient: rpcClient,
	}, nil
}

// Name returns the configured chain label.
func (c *Client) Name() string {
	return c.name
}

// URL returns the endpoint the client dialled.
func (c *Client) URL() string {
	return c.url
}

// RPC exposes the raw JSON-RPC client, used for node-side signing.
func (c *Client) RPC() *gethrpc.Client {
	return c.rpcClient
}

// Accounts lists the addresses the node holds keys for.
func (c *Client) Accounts(ctx context.Context) ([]common.Address, error) {
	if c == nil || c.rpcClient == nil {
		return nil, errors.New("未初始化的以太坊客户端")
	}
	var accounts []common.Address
	if err := c.rpcClient.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, fmt.Errorf("查询节点账户失败: %w", err)
	}
	return accounts, nil
}

// Close releases the network connection.
func (c *Client) Close() {
	if c == nil || c.Client == nil {
		return
	}
	c.Client.Close()
}
