// Package journal 记录客户端提交的每一笔交易及其所属的流程步骤。
package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry 描述一次交易提交的结果。
type Entry struct {
	ID        string    `json:"id"`
	Workflow  string    `json:"workflow"`
	Step      string    `json:"step"`
	Network   string    `json:"network"`
	From      string    `json:"from"`
	To        string    `json:"to,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	TxHash    string    `json:"tx_hash,omitempty"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewEntry 生成带唯一 ID 与时间戳的记录。
func NewEntry(workflow, step string) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Workflow:  workflow,
		Step:      step,
		CreatedAt: time.Now().UTC(),
	}
}

// Sink 负责持久化或转发交易记录。
type Sink interface {
	Record(ctx context.Context, entry Entry) error
	Close() error
}

// Reader 支持按时间倒序读取最近的记录。
type Reader interface {
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

type discard struct{}

func (discard) Record(context.Context, Entry) error { return nil }

func (discard) Close() error { return nil }

// Discard 返回丢弃所有记录的 Sink。
func Discard() Sink {
	return discard{}
}
