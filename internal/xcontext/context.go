// Package xcontext holds the request-scoped values shared between the
// receiver's middleware and handlers.
package xcontext

import "context"

type ctxKey uint8

const (
	keyRequestID ctxKey = iota
	keyShutdownInProgress
)

func value[T any](ctx context.Context, key ctxKey) (T, bool) {
	v, ok := ctx.Value(key).(T)
	return v, ok
}

// SetRequestID tags ctx with the ID echoed back in X-Request-ID.
func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, keyRequestID, requestID)
}

// GetRequestID returns the ID set by SetRequestID. An empty ID counts as unset.
func GetRequestID(ctx context.Context) (string, bool) {
	id, ok := value[string](ctx, keyRequestID)
	return id, ok && id != ""
}
