package agent

import (
	"net/http"
	"strings"

	"Starfish-Go/internal/config"
)

// Credentials 是访问远程 Agent 的凭证。Token 优先于用户名密码。
type Credentials struct {
	Username string
	Password string
	Token    string
}

// BasicCredentials 将用户名和密码包装为凭证。
func BasicCredentials(username, password string) *Credentials {
	return &Credentials{Username: username, Password: password}
}

// TokenCredentials 返回基于访问令牌的凭证。
func TokenCredentials(token string) *Credentials {
	return &Credentials{Token: token}
}

// CredentialsFromConfig 根据配置构造凭证，未配置时返回 nil。
func CredentialsFromConfig(cfg config.AgentConfig) *Credentials {
	switch {
	case strings.TrimSpace(cfg.Token) != "":
		return TokenCredentials(cfg.Token)
	case cfg.Username != "":
		return BasicCredentials(cfg.Username, cfg.Password)
	default:
		return nil
	}
}

func (c *Credentials) apply(req *http.Request) {
	if c == nil {
		return
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "token "+c.Token)
		return
	}
	if c.Username != "" {
		req.SetBasicAuth(c.Username, c.Password)
	}
}
