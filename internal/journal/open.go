package journal

import (
	"context"
	"fmt"
	"strings"

	"Starfish-Go/internal/config"
	xerrors "Starfish-Go/internal/errors"
	storageredis "Starfish-Go/internal/storage/redis"
)

// Open 根据配置创建 Sink。driver 为空或 none 时返回 Discard。
func Open(ctx context.Context, cfg config.JournalConfig) (Sink, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "none":
		return Discard(), nil
	case "memory":
		return NewMemorySink(), nil
	case "redis":
		client, err := storageredis.NewClient(ctx, storageredis.Config{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		return NewRedisSink(client, cfg.Redis.Key, 0)
	case "rabbitmq":
		return NewRabbitMQSink(RabbitMQConfig{
			URL:     cfg.RabbitMQ.URL,
			Queue:   cfg.RabbitMQ.Queue,
			Durable: cfg.RabbitMQ.Durable,
		})
	default:
		return nil, xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("不支持的交易记录驱动: %s", cfg.Driver))
	}
}
