package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const defaultRabbitQueue = "starfish.journal"

// RabbitMQConfig 描述 RabbitMQ 队列的连接参数。
type RabbitMQConfig struct {
	URL     string
	Queue   string
	Durable bool
}

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitMQSink 将记录以 JSON 消息投递到 RabbitMQ 队列，供下游审计服务消费。
type RabbitMQSink struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	pub   publisher
	queue string
}

// NewRabbitMQSink 连接 RabbitMQ 并声明队列。
func NewRabbitMQSink(cfg RabbitMQConfig) (*RabbitMQSink, error) {
	if cfg.URL == "" {
		return nil, errors.New("RabbitMQ URL 不能为空")
	}
	queue := cfg.Queue
	if queue == "" {
		queue = defaultRabbitQueue
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("连接 RabbitMQ 失败: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("创建 RabbitMQ channel 失败: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, cfg.Durable, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("声明 RabbitMQ 队列失败: %w", err)
	}
	return &RabbitMQSink{conn: conn, ch: ch, pub: ch, queue: queue}, nil
}

// Record 发布一条记录。
func (s *RabbitMQSink) Record(ctx context.Context, entry Entry) error {
	if s == nil || s.pub == nil {
		return errors.New("RabbitMQ 队列未初始化")
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("序列化交易记录失败: %w", err)
	}
	err = s.pub.PublishWithContext(ctx, "", s.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    entry.ID,
		Timestamp:    entry.CreatedAt,
		Type:         entry.Workflow,
		Body:         payload,
	})
	if err != nil {
		return fmt.Errorf("RabbitMQ 发布交易记录失败: %w", err)
	}
	return nil
}

// Close 关闭 RabbitMQ 连接。
func (s *RabbitMQSink) Close() error {
	if s == nil {
		return nil
	}
	if s.ch != nil {
		_ = s.ch.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
