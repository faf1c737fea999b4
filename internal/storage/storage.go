package storage

import (
	"context"
	"errors"
	"time"

	go_json "github.com/goccy/go-json"
)

var ErrNotFound = errors.New("receipt not found")

// MaxListLimit bounds a single ListSince page.
const MaxListLimit = 1000

// Receipt records one verified webhook delivery.
type Receipt struct {
	ID       string `json:"id"`
	Module   string `json:"module,omitempty"`
	Event    string `json:"event,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
	EntryUID string `json:"entry_uid,omitempty"`
	// TriggeredAt is zero when the body carried no parseable triggered_at.
	TriggeredAt time.Time `json:"triggered_at"`
	// ReceivedAt has microsecond precision, the finest every backend keeps.
	// ListSince cursors compare at that precision.
	ReceivedAt time.Time          `json:"received_at"`
	Payload    go_json.RawMessage `json:"payload,omitempty"`
}

type ReceiptStore interface {
	Add(ctx context.Context, r Receipt) error

	// ListSince returns up to limit receipts received strictly after since,
	// oldest first.
	ListSince(ctx context.Context, since time.Time, limit int) ([]Receipt, error)
}

type ReceiptFeed interface {
	// Subscribe returns a channel of receipts added after the call.
	// The returned function unsubscribes and must be called.
	Subscribe(ctx context.Context) (<-chan Receipt, func(), error)
}

type RateLimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
}

type RateLimiter interface {
	Allow(ctx context.Context, key string) (RateLimitResult, error)
}

// Backend is everything the receiver server needs from storage.
type Backend interface {
	ReceiptStore
	ReceiptFeed

	Close() error

	Ping(ctx context.Context) error
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
