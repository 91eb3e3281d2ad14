package biz

import (
	"sync"
	"time"
)

// DefaultHistorySize is the number of queries kept in history.
const DefaultHistorySize = 50

// HistoryEntry 一条查询历史。
type HistoryEntry struct {
	Query       string      `json:"query"`
	Timestamp   time.Time   `json:"timestamp"`
	QueryType   QueryType   `json:"query_type"`
	Performance Performance `json:"performance"`
}

// History holds the most recent queries, newest first.
type History struct {
	mu      sync.RWMutex
	size    int
	entries []HistoryEntry
}

func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{size: size}
}

// Record prepends an entry for resp and drops the oldest beyond the limit.
func (h *History) Record(resp *Response) {
	entry := HistoryEntry{
		Query:       resp.Query,
		Timestamp:   time.Now().UTC(),
		QueryType:   resp.QueryType,
		Performance: resp.Performance,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append([]HistoryEntry{entry}, h.entries...)
	if len(h.entries) > h.size {
		h.entries = h.entries[:h.size]
	}
}

// List returns a copy of the entries, newest first.
func (h *History) List() []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *History) Clear() {
	h.mu.Lock()
	h.entries = nil
	h.mu.Unlock()
}
