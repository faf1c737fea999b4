package storage

import (
	"context"
	"sync"
)

const subscriberBuffer = 16

// broadcaster fans receipts out to in-process subscribers. A subscriber that
// falls subscriberBuffer receipts behind misses the overflow rather than
// blocking publishers.
type broadcaster struct {
	mu     sync.Mutex
	subs   map[chan Receipt]struct{}
	closed bool
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[chan Receipt]struct{})}
}

func (b *broadcaster) subscribe(ctx context.Context) (<-chan Receipt, func()) {
	ch := make(chan Receipt, subscriberBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			if _, ok := b.subs[ch]; ok {
				delete(b.subs, ch)
				close(ch)
			}
			b.mu.Unlock()
		})
	}

	go func() {
		<-ctx.Done()
		unsubscribe()
	}()

	return ch, unsubscribe
}

func (b *broadcaster) publish(r Receipt) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- r:
		default:
		}
	}
}

func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}
