package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"Starfish-Go/pkg/logger"

	"gopkg.in/yaml.v3"
)

// Config 描述了客户端在启动阶段需要加载的全部配置。
type Config struct {
	Network   NetworkConfig   `json:"network" yaml:"network"`
	Artifacts ArtifactsConfig `json:"artifacts" yaml:"artifacts"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
	Agent     AgentConfig     `json:"agent" yaml:"agent"`
	Metrics   MetricsConfig   `json:"metrics" yaml:"metrics"`
	Log       logger.Config   `json:"log" yaml:"log"`
	Runtime   RuntimeConfig   `json:"runtime" yaml:"runtime"`
}

// NetworkConfig 包含访问区块链节点所需的 RPC 地址。
type NetworkConfig struct {
	RPCURL        string `json:"rpc_url" yaml:"rpc_url"`
	ChainConfig   string `json:"chain_config" yaml:"chain_config"`
	Chain         string `json:"chain" yaml:"chain"`
	ReceiptPollMS int    `json:"receipt_poll_ms" yaml:"receipt_poll_ms"`
}

// ReceiptPolling 返回轮询交易回执的间隔。
func (n NetworkConfig) ReceiptPolling() time.Duration {
	return time.Duration(n.ReceiptPollMS) * time.Millisecond
}

// ArtifactsConfig 描述合约构件的存储位置。
type ArtifactsConfig struct {
	Driver  string      `json:"driver" yaml:"driver"`
	Dir     string      `json:"dir" yaml:"dir"`
	Preload bool        `json:"preload" yaml:"preload"`
	Redis   RedisConfig `json:"redis" yaml:"redis"`
	MySQL   MySQLConfig `json:"mysql" yaml:"mysql"`
}

// RedisConfig 描述 Redis 连接参数。
type RedisConfig struct {
	Address  string `json:"address" yaml:"address"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
	Key      string `json:"key" yaml:"key"`
}

// MySQLConfig 描述 MySQL 连接池参数。
type MySQLConfig struct {
	DSN                    string `json:"dsn" yaml:"dsn"`
	MaxOpenConns           int    `json:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns           int    `json:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetimeSeconds int    `json:"conn_max_lifetime_seconds" yaml:"conn_max_lifetime_seconds"`
}

// JournalConfig 控制交易记录的投递目标。
type JournalConfig struct {
	Driver   string         `json:"driver" yaml:"driver"`
	Redis    RedisConfig    `json:"redis" yaml:"redis"`
	RabbitMQ RabbitMQConfig `json:"rabbitmq" yaml:"rabbitmq"`
}

// RabbitMQConfig 描述 RabbitMQ 队列参数。
type RabbitMQConfig struct {
	URL     string `json:"url" yaml:"url"`
	Queue   string `json:"queue" yaml:"queue"`
	Durable bool   `json:"durable" yaml:"durable"`
}

// AgentConfig 描述访问远程 Agent 时使用的凭证。
type AgentConfig struct {
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds"`
	Username       string `json:"username" yaml:"username"`
	Password       string `json:"password" yaml:"password"`
	Token          string `json:"token" yaml:"token"`
}

// Timeout 返回 HTTP 请求超时时间。
func (a AgentConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// MetricsConfig 控制 Prometheus 指标。
type MetricsConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Namespace string `json:"namespace" yaml:"namespace"`
}

// RuntimeConfig 用于放置运行时的通用参数。
type RuntimeConfig struct {
	DataDir     string `json:"data_dir" yaml:"data_dir"`
	KeystoreDir string `json:"keystore_dir" yaml:"keystore_dir"`
}

// Load 解析指定路径的配置文件，根据扩展名选择 JSON 或 YAML。
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("配置文件路径为空")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, &cfg)
	default:
		err = json.Unmarshal(content, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	cfg.applyDefaults(filepath.Dir(path))
	return &cfg, nil
}

// Default 返回未加载任何文件时使用的配置。
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults(".")
	return cfg
}

// applyDefaults 在用户未填写部分字段时设置合理的默认值。
func (c *Config) applyDefaults(baseDir string) {
	if c.Network.RPCURL == "" && c.Network.ChainConfig == "" {
		c.Network.RPCURL = "http://localhost:8545"
	}
	c.Network.ChainConfig = resolvePath(baseDir, c.Network.ChainConfig)
	if c.Network.ReceiptPollMS <= 0 {
		c.Network.ReceiptPollMS = 500
	}

	if c.Artifacts.Driver == "" {
		c.Artifacts.Driver = "file"
	}
	if c.Artifacts.Dir == "" {
		c.Artifacts.Dir = filepath.Join(baseDir, "artifacts")
	} else {
		c.Artifacts.Dir = resolvePath(baseDir, c.Artifacts.Dir)
	}
	if c.Artifacts.Redis.Key == "" {
		c.Artifacts.Redis.Key = "starfish:artifacts"
	}

	if c.Journal.Driver == "" {
		c.Journal.Driver = "none"
	}
	if c.Journal.Redis.Key == "" {
		c.Journal.Redis.Key = "starfish:journal"
	}
	if c.Journal.RabbitMQ.Queue == "" {
		c.Journal.RabbitMQ.Queue = "starfish.journal"
	}

	if c.Agent.TimeoutSeconds <= 0 {
		c.Agent.TimeoutSeconds = 15
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "starfish"
	}

	if c.Runtime.DataDir == "" {
		c.Runtime.DataDir = filepath.Join(baseDir, "data")
	} else {
		c.Runtime.DataDir = resolvePath(baseDir, c.Runtime.DataDir)
	}
	if c.Runtime.KeystoreDir == "" {
		c.Runtime.KeystoreDir = filepath.Join(c.Runtime.DataDir, "keystore")
	} else {
		c.Runtime.KeystoreDir = resolvePath(baseDir, c.Runtime.KeystoreDir)
	}
}

func resolvePath(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
