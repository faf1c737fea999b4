package storage

import (
	"context"
	"slices"
	"sync"
	"time"
)

var _ Backend = (*MemoryBackend)(nil)

// DefaultMaxReceipts is how many receipts a MemoryBackend keeps by default.
const DefaultMaxReceipts = 10_000

// MemoryBackend keeps the newest receipts in process, evicting the oldest
// once full. Receipts are lost on restart.
type MemoryBackend struct {
	mu       sync.RWMutex
	receipts []Receipt // sorted by ReceivedAt
	max      int

	feed *broadcaster
}

type MemoryOption func(*MemoryBackend)

// WithMaxReceipts caps the number of receipts kept. Values below 1 are ignored.
func WithMaxReceipts(n int) MemoryOption {
	return func(m *MemoryBackend) {
		if n > 0 {
			m.max = n
		}
	}
}

func NewMemoryBackend(opts ...MemoryOption) *MemoryBackend {
	m := &MemoryBackend{max: DefaultMaxReceipts, feed: newBroadcaster()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryBackend) Add(_ context.Context, r Receipt) error {
	m.mu.Lock()
	i, _ := slices.BinarySearchFunc(m.receipts, r.ReceivedAt, func(e Receipt, t time.Time) int {
		// place equal timestamps after existing ones
		if e.ReceivedAt.After(t) {
			return 1
		}
		return -1
	})
	m.receipts = slices.Insert(m.receipts, i, r)
	if over := len(m.receipts) - m.max; over > 0 {
		m.receipts = slices.Delete(m.receipts, 0, over)
	}
	m.mu.Unlock()

	m.feed.publish(r)
	return nil
}

func (m *MemoryBackend) ListSince(_ context.Context, since time.Time, limit int) ([]Receipt, error) {
	limit = clampLimit(limit)

	m.mu.RLock()
	defer m.mu.RUnlock()

	start, _ := slices.BinarySearchFunc(m.receipts, since, func(e Receipt, t time.Time) int {
		if e.ReceivedAt.After(t) {
			return 1
		}
		return -1
	})
	end := min(start+limit, len(m.receipts))
	return slices.Clone(m.receipts[start:end]), nil
}

func (m *MemoryBackend) Subscribe(ctx context.Context) (<-chan Receipt, func(), error) {
	ch, unsubscribe := m.feed.subscribe(ctx)
	return ch, unsubscribe, nil
}

func (m *MemoryBackend) Close() error {
	m.feed.close()
	return nil
}

func (m *MemoryBackend) Ping(_ context.Context) error {
	return nil
}
