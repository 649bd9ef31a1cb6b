package journal

import (
	"context"
	"sync"
)

// MemorySink 在内存中保存记录，主要用于测试与单次命令。
type MemorySink struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemorySink 创建内存 Sink。
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Record 追加一条记录。
func (m *MemorySink) Record(_ context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

// Recent 返回最近的 limit 条记录，最新的在前。
func (m *MemorySink) Recent(_ context.Context, limit int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > len(m.entries) {
		limit = len(m.entries)
	}
	out := make([]Entry, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

// Entries 按写入顺序返回全部记录。
func (m *MemorySink) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Entry(nil), m.entries...)
}

// Close 无操作。
func (m *MemorySink) Close() error {
	return nil
}
