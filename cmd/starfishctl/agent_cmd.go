package main

import (
	"net/http"

	"Starfish-Go/internal/agent"

	"github.com/spf13/cobra"
)

type agentOptions struct {
	username string
	password string
	token    string
}

func (o *agentOptions) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&o.username, "user", "", "Agent 用户名，默认读取配置")
	flags.StringVar(&o.password, "agent-password", "", "Agent 密码，默认读取配置")
	flags.StringVar(&o.token, "token", "", "Agent 访问令牌，优先于用户名密码")
}

func (o *agentOptions) credentials(state *appState) (*agent.Credentials, error) {
	switch {
	case o.token != "":
		return agent.TokenCredentials(o.token), nil
	case o.username != "":
		return agent.BasicCredentials(o.username, o.password), nil
	}
	cfg, err := state.config()
	if err != nil {
		return nil, err
	}
	return agent.CredentialsFromConfig(cfg.Agent), nil
}

func (s *appState) agentClient() (*agent.Client, error) {
	cfg, err := s.config()
	if err != nil {
		return nil, err
	}
	return agent.NewClient(&http.Client{Timeout: cfg.Agent.Timeout()}), nil
}

func newAgentCmd(state *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "解析 Agent 的 DDO 并管理访问令牌",
	}

	resolveOpts := &agentOptions{}
	var service string
	resolve := &cobra.Command{
		Use:   "resolve <did-or-url>",
		Short: "先查询链上登记，再访问远程 Agent 获取 DDO",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := resolveOpts.credentials(state)
			if err != nil {
				return err
			}
			client, err := state.agentClient()
			if err != nil {
				return err
			}
			var dids agent.DIDResolver
			if !agent.IsURL(args[0]) {
				n, err := state.network(cmd.Context())
				if err != nil {
					return err
				}
				dids = n
			}
			ddo, err := agent.NewDefaultResolver(dids, client).ResolveAgent(cmd.Context(), args[0], creds)
			if err != nil {
				return err
			}
			if ddo == nil {
				return printJSON(cmd, map[string]any{"address": args[0], "ddo": nil})
			}
			if service != "" {
				endpoint, ok := ddo.ServiceEndpoint(service)
				return printJSON(cmd, map[string]any{"service": service, "endpoint": endpoint, "found": ok})
			}
			return printJSON(cmd, ddo)
		},
	}
	resolve.Flags().StringVar(&service, "service", "", "只输出指定类型服务的地址")
	resolveOpts.bind(resolve)

	cmd.AddCommand(resolve, newAgentTokenCmd(state))
	return cmd
}

func newAgentTokenCmd(state *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "管理远程 Agent 的访问令牌",
	}
	opts := &agentOptions{}
	tokenClient := func(baseURL string) (*agent.TokenClient, error) {
		client, err := state.agentClient()
		if err != nil {
			return nil, err
		}
		username, password := opts.username, opts.password
		if username == "" {
			cfg, err := state.config()
			if err != nil {
				return nil, err
			}
			username, password = cfg.Agent.Username, cfg.Agent.Password
		}
		return agent.NewTokenClient(client, baseURL, username, password), nil
	}

	list := &cobra.Command{
		Use:   "list <url>",
		Short: "列出已签发的令牌",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, err := tokenClient(args[0])
			if err != nil {
				return err
			}
			tokens, err := tc.ListTokens(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, tokens)
		},
	}
	create := &cobra.Command{
		Use:   "create <url>",
		Short: "签发新的令牌",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, err := tokenClient(args[0])
			if err != nil {
				return err
			}
			token, err := tc.CreateToken(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, token)
		},
	}
	for _, c := range []*cobra.Command{list, create} {
		c.Flags().StringVar(&opts.username, "user", "", "Agent 用户名，默认读取配置")
		c.Flags().StringVar(&opts.password, "agent-password", "", "Agent 密码，默认读取配置")
	}
	cmd.AddCommand(list, create)
	return cmd
}
