package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisKey    = "starfish:journal"
	defaultRedisMaxLen = 1000
)

// RedisSink 使用 Redis list 保存记录，超出上限的旧记录会被裁剪。
type RedisSink struct {
	client *redis.Client
	key    string
	maxLen int64
}

// NewRedisSink 基于已有客户端创建 Sink。
func NewRedisSink(client *redis.Client, key string, maxLen int64) (*RedisSink, error) {
	if client == nil {
		return nil, errors.New("Redis 客户端未初始化")
	}
	if key == "" {
		key = defaultRedisKey
	}
	if maxLen <= 0 {
		maxLen = defaultRedisMaxLen
	}
	return &RedisSink{client: client, key: key, maxLen: maxLen}, nil
}

// Record 将记录写入列表头部。
func (s *RedisSink) Record(ctx context.Context, entry Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("序列化交易记录失败: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.key, payload)
	pipe.LTrim(ctx, s.key, 0, s.maxLen-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("Redis 写入交易记录失败: %w", err)
	}
	return nil
}

// Recent 读取最近的 limit 条记录。
func (s *RedisSink) Recent(ctx context.Context, limit int) ([]Entry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	values, err := s.client.LRange(ctx, s.key, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("Redis 读取交易记录失败: %w", err)
	}
	out := make([]Entry, 0, len(values))
	for _, raw := range values {
		var entry Entry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("解析交易记录失败: %w", err)
		}
		out = append(out, entry)
	}
	return out, nil
}

// Close 关闭 Redis 连接。
func (s *RedisSink) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
