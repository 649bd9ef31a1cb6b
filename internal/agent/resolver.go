package agent

import (
	"context"
	"log/slog"

	"Starfish-Go/internal/did"
	"Starfish-Go/pkg/logger"
)

// Strategy 尝试解析地址。返回 nil 且无错误表示该策略未找到文档。
type Strategy interface {
	Name() string
	TryResolve(ctx context.Context, address string, creds *Credentials) (*DDO, error)
}

// Resolver 依次执行策略，返回第一个找到的文档。
type Resolver struct {
	strategies []Strategy
	log        *slog.Logger
}

// NewResolver 按给定顺序组合策略。
func NewResolver(strategies ...Strategy) *Resolver {
	r := &Resolver{log: logger.Named("agent")}
	for _, s := range strategies {
		if s != nil {
			r.strategies = append(r.strategies, s)
		}
	}
	return r
}

// ResolveAgent 解析地址为 DDO。全部策略都未找到时返回 nil, nil；任一策略出错即返回错误。
func (r *Resolver) ResolveAgent(ctx context.Context, address string, creds *Credentials) (*DDO, error) {
	for _, s := range r.strategies {
		doc, err := s.TryResolve(ctx, address, creds)
		if err != nil {
			r.log.Warn("Agent 解析失败", slog.String("strategy", s.Name()), slog.String("address", address), slog.Any("error", err))
			return nil, err
		}
		if doc != nil {
			r.log.Debug("Agent 解析成功", slog.String("strategy", s.Name()), slog.String("address", address))
			return doc, nil
		}
	}
	return nil, nil
}

// ResolveAgentWithPassword 使用用户名密码解析地址。
func (r *Resolver) ResolveAgentWithPassword(ctx context.Context, address, username, password string) (*DDO, error) {
	return r.ResolveAgent(ctx, address, BasicCredentials(username, password))
}

// DIDResolver 读取链上 DID 注册表。*network.Network 满足该接口。
type DIDResolver interface {
	ResolveDID(ctx context.Context, id string) (*string, error)
}

// ChainStrategy 对符合 DID 语法的地址查询链上注册表，资产 DID 只使用其 Agent 部分。
type ChainStrategy struct {
	DIDs DIDResolver
}

// Name 返回策略名称。
func (ChainStrategy) Name() string { return "chain" }

// TryResolve 实现 Strategy。
func (s ChainStrategy) TryResolve(ctx context.Context, address string, _ *Credentials) (*DDO, error) {
	if s.DIDs == nil || !did.IsDID(address) {
		return nil, nil
	}
	parsed, err := did.Parse(address)
	if err != nil {
		return nil, err
	}
	text, err := s.DIDs.ResolveDID(ctx, parsed.Base())
	if err != nil || text == nil {
		return nil, err
	}
	return ParseDDO(*text)
}

// RemoteStrategy 将 http(s) 地址视为远程 Agent 并获取其 DDO。
type RemoteStrategy struct {
	Fetcher Fetcher
}

// Name 返回策略名称。
func (RemoteStrategy) Name() string { return "remote" }

// TryResolve 实现 Strategy。
func (s RemoteStrategy) TryResolve(ctx context.Context, address string, creds *Credentials) (*DDO, error) {
	if s.Fetcher == nil || !IsURL(address) {
		return nil, nil
	}
	text, found, err := s.Fetcher.Fetch(ctx, address, creds)
	if err != nil || !found {
		return nil, err
	}
	return ParseDDO(text)
}

// NewDefaultResolver 返回先链上、后远程的标准解析器。
func NewDefaultResolver(dids DIDResolver, fetcher Fetcher) *Resolver {
	return NewResolver(ChainStrategy{DIDs: dids}, RemoteStrategy{Fetcher: fetcher})
}
