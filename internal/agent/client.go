package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	xerrors "Starfish-Go/internal/errors"
)

// DefaultHTTPTimeout 是未提供 http.Client 时使用的超时时间。
const DefaultHTTPTimeout = 15 * time.Second

const (
	ddoPath   = "/api/ddo"
	tokenPath = "/api/v1/auth/token"
)

// Fetcher 获取远程 Agent 的 DDO 文本。found 为 false 表示远端确认不存在。
type Fetcher interface {
	Fetch(ctx context.Context, baseURL string, creds *Credentials) (text string, found bool, err error)
}

// Client 封装与远程 Agent 的 HTTP 交互。
type Client struct {
	httpClient *http.Client
}

// NewClient 创建客户端，httpClient 为空时使用默认超时。
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &Client{httpClient: httpClient}
}

// Fetch 请求 <baseURL>/api/ddo。404 视为不存在，其余非 2xx 状态与传输错误均返回错误。
func (c *Client) Fetch(ctx context.Context, baseURL string, creds *Credentials) (string, bool, error) {
	endpoint, err := joinEndpoint(baseURL, ddoPath)
	if err != nil {
		return "", false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", false, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	creds.apply(req)

	status, body, err := c.do(req)
	if err != nil {
		return "", false, err
	}
	if status == http.StatusNotFound {
		return "", false, nil
	}
	if status < 200 || status >= 300 {
		return "", false, fetchError(endpoint, status, body)
	}
	return string(body), true, nil
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, xerrors.Wrap(xerrors.CodeRemoteFetchFailure, err, "请求远程 Agent 失败",
			xerrors.WithMetadata("endpoint", req.URL.String()))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, xerrors.Wrap(xerrors.CodeRemoteFetchFailure, err, "读取远程 Agent 响应失败",
			xerrors.WithMetadata("endpoint", req.URL.String()),
			xerrors.WithMetadata("status", strconv.Itoa(resp.StatusCode)))
	}
	return resp.StatusCode, body, nil
}

func fetchError(endpoint string, status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return xerrors.New(xerrors.CodeRemoteFetchFailure,
		fmt.Sprintf("远程 Agent 返回状态 %d: %s", status, msg),
		xerrors.WithMetadata("endpoint", endpoint),
		xerrors.WithMetadata("status", strconv.Itoa(status)))
}

func joinEndpoint(baseURL, endpoint string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("无效的 Agent 地址: %q", baseURL))
	}
	parsed.Path = path.Join("/", parsed.Path, endpoint)
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String(), nil
}

// IsURL 判断地址是否为可请求的 http(s) URL。
func IsURL(address string) bool {
	_, err := joinEndpoint(address, "")
	return err == nil
}

// AccessToken 是远程 Agent 签发的访问令牌。
type AccessToken struct {
	ID      string `json:"id,omitempty"`
	Token   string `json:"token"`
	Created string `json:"created,omitempty"`
}

// TokenClient 管理远程 Agent 的访问令牌，使用用户名密码认证。
type TokenClient struct {
	client  *Client
	baseURL string
	creds   *Credentials
}

// NewTokenClient 创建令牌客户端。
func NewTokenClient(client *Client, baseURL, username, password string) *TokenClient {
	if client == nil {
		client = NewClient(nil)
	}
	return &TokenClient{client: client, baseURL: baseURL, creds: BasicCredentials(username, password)}
}

// ListTokens 返回已签发的令牌。
func (t *TokenClient) ListTokens(ctx context.Context) ([]AccessToken, error) {
	var tokens []AccessToken
	if err := t.call(ctx, http.MethodGet, &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

// CreateToken 签发一个新令牌。
func (t *TokenClient) CreateToken(ctx context.Context) (AccessToken, error) {
	var token AccessToken
	if err := t.call(ctx, http.MethodPost, &token); err != nil {
		return AccessToken{}, err
	}
	return token, nil
}

func (t *TokenClient) call(ctx context.Context, method string, out any) error {
	endpoint, err := joinEndpoint(t.baseURL, tokenPath)
	if err != nil {
		return err
	}
	var body io.Reader
	if method == http.MethodPost {
		body = bytes.NewReader([]byte("{}"))
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	t.creds.apply(req)

	status, data, err := t.client.do(req)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fetchError(endpoint, status, data)
	}
	if err := decodeToken(data, out); err != nil {
		return fmt.Errorf("解析令牌响应失败: %w", err)
	}
	return nil
}

// decodeToken 兼容远端返回纯字符串令牌的情况。
func decodeToken(data []byte, out any) error {
	trimmed := bytes.TrimSpace(data)
	if token, ok := out.(*AccessToken); ok && len(trimmed) > 0 && trimmed[0] == '"' {
		return json.Unmarshal(trimmed, &token.Token)
	}
	if tokens, ok := out.(*[]AccessToken); ok && len(trimmed) > 0 && trimmed[0] == '[' {
		var plain []string
		if err := json.Unmarshal(trimmed, &plain); err == nil {
			for _, p := range plain {
				*tokens = append(*tokens, AccessToken{Token: p})
			}
			return nil
		}
	}
	return json.Unmarshal(trimmed, out)
}
