package storage

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var _ RateLimiter = (*MemoryRateLimiter)(nil)

const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryRateLimiter is a per-key token bucket.
type MemoryRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	now      func() time.Time

	done chan struct{}
}

func NewMemoryRateLimiter(ratePerSec float64, burst int) *MemoryRateLimiter {
	m := &MemoryRateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(ratePerSec),
		burst:    burst,
		now:      time.Now,
		done:     make(chan struct{}),
	}

	go m.cleanupLoop()

	return m
}

func (m *MemoryRateLimiter) Allow(_ context.Context, key string) (RateLimitResult, error) {
	now := m.now()

	m.mu.Lock()
	e, ok := m.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.limiters[key] = e
	}
	e.lastSeen = now
	m.mu.Unlock()

	r := e.limiter.ReserveN(now, 1)
	if !r.OK() {
		return RateLimitResult{Allowed: false, RetryAfter: time.Second}, nil
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return RateLimitResult{Allowed: false, RetryAfter: delay}, nil
	}
	return RateLimitResult{Allowed: true}, nil
}

func (m *MemoryRateLimiter) Close() error {
	close(m.done)
	return nil
}

func (m *MemoryRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictIdle(m.now())
		case <-m.done:
			return
		}
	}
}

func (m *MemoryRateLimiter) evictIdle(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, e := range m.limiters {
		if now.Sub(e.lastSeen) > limiterIdleTTL {
			delete(m.limiters, key)
		}
	}
}
