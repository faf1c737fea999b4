package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	go_json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

var _ Backend = (*RedisBackend)(nil)

const (
	receiptsKey         = "csverify:receipts"
	receiptsLiveChannel = "csverify:receipts:live"
)

// RedisBackend stores receipts in a sorted set scored by receive time in
// microseconds and announces new ones over pub/sub. Microsecond scores stay
// exact in a float64.
type RedisBackend struct {
	client *redis.Client
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func (r *RedisBackend) Add(ctx context.Context, rc Receipt) error {
	data, err := go_json.Marshal(rc)
	if err != nil {
		return fmt.Errorf("failed to marshal receipt: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, receiptsKey, redis.Z{
			Score:  float64(rc.ReceivedAt.UnixMicro()),
			Member: string(data),
		})
		pipe.Publish(ctx, receiptsLiveChannel, string(data))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to add receipt: %w", err)
	}

	return nil
}

func (r *RedisBackend) ListSince(ctx context.Context, since time.Time, limit int) ([]Receipt, error) {
	results, err := r.client.ZRangeByScore(ctx, receiptsKey, &redis.ZRangeBy{
		Min:   "(" + strconv.FormatInt(since.UnixMicro(), 10),
		Max:   "+inf",
		Count: int64(clampLimit(limit)),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}

	receipts := make([]Receipt, 0, len(results))
	for _, data := range results {
		var rc Receipt
		if err := go_json.Unmarshal([]byte(data), &rc); err != nil {
			continue
		}
		receipts = append(receipts, rc)
	}

	return receipts, nil
}

func (r *RedisBackend) Subscribe(ctx context.Context) (<-chan Receipt, func(), error) {
	pubsub := r.client.Subscribe(ctx, receiptsLiveChannel)

	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan Receipt)

	go func() {
		defer close(out)

		for msg := range pubsub.Channel() {
			var rc Receipt
			if err := go_json.Unmarshal([]byte(msg.Payload), &rc); err != nil {
				continue
			}

			select {
			case out <- rc:
			case <-ctx.Done():
				return
			}
		}
	}()

	unsubscribe := func() {
		_ = pubsub.Close()
	}

	return out, unsubscribe, nil
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}

func (r *RedisBackend) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
