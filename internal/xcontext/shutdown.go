package xcontext

import (
	"context"
	"errors"
)

// ErrShutdown is the cancellation cause of the server's base context.
var ErrShutdown = errors.New("server shutting down")

// SetShutdownInProgress marks ctx as belonging to a request that outlived
// the server's base context.
func SetShutdownInProgress(ctx context.Context, inProgress bool) context.Context {
	return context.WithValue(ctx, keyShutdownInProgress, inProgress)
}

// IsShutdownInProgress reports whether ctx was marked, or was cancelled
// with ErrShutdown.
func IsShutdownInProgress(ctx context.Context) bool {
	if inProgress, _ := value[bool](ctx, keyShutdownInProgress); inProgress {
		return true
	}
	return errors.Is(context.Cause(ctx), ErrShutdown)
}
