// Package network 组合合约调用，提供带前置检查的转账、溯源与 DID 流程。
//
// 流程之间不做任何加锁：余额检查与实际转账之间存在竞态，以链上执行结果为准；
// 授权后转账失败时不会撤销授权。
package network

import (
	"context"
	"log/slog"
	"math/big"

	"Starfish-Go/internal/artifact"
	"Starfish-Go/internal/contract"
	"Starfish-Go/internal/journal"
	"Starfish-Go/internal/observability/metrics"
	"Starfish-Go/internal/web3"
	"Starfish-Go/pkg/logger"
)

// Option 用于定制 Network。
type Option func(*Network)

// WithJournal 设置交易记录的去向。
func WithJournal(sink journal.Sink) Option {
	return func(n *Network) {
		if sink != nil {
			n.journal = sink
		}
	}
}

// WithMetrics 设置指标记录器。
func WithMetrics(rec *metrics.Recorder) Option {
	return func(n *Network) {
		n.metrics = rec
	}
}

// WithLogger 设置日志记录器。
func WithLogger(l *slog.Logger) Option {
	return func(n *Network) {
		if l != nil {
			n.log = l
		}
	}
}

// WithPreload 控制是否在构造时批量加载合约构件。默认仅本地网络预加载。
func WithPreload(enabled bool) Option {
	return func(n *Network) {
		n.preload = &enabled
	}
}

// Network 是应用持有的唯一入口，封装连接、构件解析与合约句柄。
type Network struct {
	conn      *web3.Connection
	resolver  *artifact.Resolver
	contracts *contract.Registry
	journal   journal.Sink
	metrics   *metrics.Recorder
	log       *slog.Logger
	preload   *bool
}

// New 基于已建立的连接创建 Network。
func New(ctx context.Context, conn *web3.Connection, store artifact.Store, opts ...Option) (*Network, error) {
	n := &Network{
		conn:    conn,
		journal: journal.Discard(),
		log:     logger.Named("network"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}

	n.resolver = artifact.NewResolver(store, conn.Name(), artifact.WithLogger(n.log))
	preload := web3.IsLocalNetwork(conn.Name())
	if n.preload != nil {
		preload = *n.preload
	}
	if preload {
		if _, err := n.resolver.Preload(ctx); err != nil {
			// 显式要求预加载时失败即返回；本地网络的默认预加载失败后改为按需加载。
			if n.preload != nil {
				return nil, err
			}
			n.log.Warn("预加载合约构件失败，改为按需加载", "network", conn.Name(), "error", err)
		}
	}

	var observer contract.Observer
	if n.metrics != nil {
		observer = n.metrics
	}
	n.contracts = contract.NewRegistry(conn, n.resolver, contract.WithObserver(observer))
	return n, nil
}

// Name 返回网络名称。
func (n *Network) Name() string {
	return n.conn.Name()
}

// ChainID 返回链 ID。
func (n *Network) ChainID() *big.Int {
	return n.conn.ChainID()
}

// Connection 返回底层连接。
func (n *Network) Connection() *web3.Connection {
	return n.conn
}

// Artifacts 返回构件解析器。
func (n *Network) Artifacts() *artifact.Resolver {
	return n.resolver
}

// Contracts 返回合约句柄注册表。
func (n *Network) Contracts() *contract.Registry {
	return n.contracts
}

// Token 返回代币合约。
func (n *Network) Token(ctx context.Context) (*contract.Token, error) {
	return n.contracts.Token(ctx)
}

// DirectPurchase 返回带日志的支付合约。
func (n *Network) DirectPurchase(ctx context.Context) (*contract.DirectPurchase, error) {
	return n.contracts.DirectPurchase(ctx)
}

// Provenance 返回溯源合约。
func (n *Network) Provenance(ctx context.Context) (*contract.Provenance, error) {
	return n.contracts.Provenance(ctx)
}

// DIDRegistry 返回 DID 注册合约。
func (n *Network) DIDRegistry(ctx context.Context) (*contract.DIDRegistry, error) {
	return n.contracts.DIDRegistry(ctx)
}

// Dispenser 返回测试网水龙头合约。
func (n *Network) Dispenser(ctx context.Context) (*contract.Dispenser, error) {
	return n.contracts.Dispenser(ctx)
}

// Ether 返回原生币操作句柄。
func (n *Network) Ether() *contract.Ether {
	return n.contracts.Ether()
}

// Close 关闭底层连接。交易记录 Sink 由调用方负责关闭。
func (n *Network) Close() {
	n.conn.Close()
}
