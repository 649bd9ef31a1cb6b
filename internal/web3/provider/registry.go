package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"Starfish-Go/internal/config"
	"Starfish-Go/internal/web3"
	"Starfish-Go/internal/web3/ethereum"
	"Starfish-Go/pkg/logger"
)

// Registry holds the named chain endpoints the client may connect to.
type Registry struct {
	defaultChain string
	chains       map[string]web3.ChainDefinition
	polling      time.Duration
	log          *slog.Logger
}

// NewRegistry loads chain definitions, falling back to the single RPC URL in
// the network configuration when no chain file is given.
func NewRegistry(cfg config.NetworkConfig) (*Registry, error) {
	defs, err := web3.LoadChainDefinitions(cfg.ChainConfig)
	if err != nil {
		return nil, err
	}

	chains := make(map[string]web3.ChainDefinition, len(defs.Chains))
	for name, chain := range defs.Chains {
		if strings.TrimSpace(chain.RPCURL) == "" {
			return nil, fmt.Errorf("链 %s 未配置 rpc_url", name)
		}
		chains[name] = chain
	}

	defaultChain := cfg.Chain
	if defaultChain == "" {
		defaultChain = defs.Default
	}
	if len(chains) == 0 && strings.TrimSpace(cfg.RPCURL) != "" {
		chains["default"] = web3.ChainDefinition{RPCURL: cfg.RPCURL}
		if defaultChain == "" {
			defaultChain = "default"
		}
	}
	if len(chains) == 0 {
		return nil, errors.New("未配置任何链的 RPC 端点")
	}

	if defaultChain == "" {
		defaultChain = sortedNames(chains)[0]
	}
	if _, ok := chains[defaultChain]; !ok {
		return nil, fmt.Errorf("默认链 %s 未在配置中找到", defaultChain)
	}

	return &Registry{
		defaultChain: defaultChain,
		chains:       chains,
		polling:      cfg.ReceiptPolling(),
		log:          logger.Named("provider"),
	}, nil
}

// Connect dials the named chain, or the default one when name is empty, and
// establishes the process Connection on top of it.
func (r *Registry) Connect(ctx context.Context, name string) (*web3.Connection, error) {
	if r == nil {
		return nil, errors.New("未初始化的链端点注册表")
	}
	if name == "" {
		name = r.defaultChain
	}
	chain, ok := r.chains[name]
	if !ok {
		return nil, fmt.Errorf("链 %s 未在注册表中", name)
	}

	client, err := ethereum.Dial(ctx, ethereum.Config{Name: name, RPCURL: chain.RPCURL, Notes: chain.Description})
	if err != nil {
		return nil, err
	}

	polling := r.polling
	if chain.ReceiptPollMS > 0 {
		polling = time.Duration(chain.ReceiptPollMS) * time.Millisecond
	}
	conn, err := web3.Connect(ctx, client,
		web3.WithEndpoint(client.URL()),
		web3.WithReceiptPolling(polling),
		web3.WithCloser(client.Close),
	)
	if err != nil {
		client.Close()
		return nil, err
	}

	if chain.ExpectedNetwork != "" && chain.ExpectedNetwork != conn.Name() {
		r.log.Warn("节点所在网络与配置不符",
			"chain", name, "expected", chain.ExpectedNetwork, "actual", conn.Name())
	}
	r.log.Info("已连接节点", "chain", name, "network", conn.Name(), "chain_id", conn.ChainID().String())
	return conn, nil
}

// Default returns the name of the default chain.
func (r *Registry) Default() string {
	return r.defaultChain
}

// Chains returns the list of registered chain names.
func (r *Registry) Chains() []string {
	if r == nil {
		return nil
	}
	return sortedNames(r.chains)
}

func sortedNames(chains map[string]web3.ChainDefinition) []string {
	names := make([]string, 0, len(chains))
	for name := range chains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
