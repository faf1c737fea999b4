package server

import (
	"context"
	"time"

	"github.com/garrettladley/csverify/internal/xcontext"
)

// ShutdownCoordinator owns the base context of every request so that
// receipt streams can say goodbye before the listener closes.
type ShutdownCoordinator struct {
	baseCtx     context.Context
	cancel      context.CancelCauseFunc
	gracePeriod time.Duration
}

func NewShutdownCoordinator(gracePeriod time.Duration) *ShutdownCoordinator {
	ctx, cancel := context.WithCancelCause(context.Background())
	return &ShutdownCoordinator{
		baseCtx:     ctx,
		cancel:      cancel,
		gracePeriod: gracePeriod,
	}
}

// BaseContext is meant for http.Server.BaseContext.
func (sc *ShutdownCoordinator) BaseContext() context.Context {
	return sc.baseCtx
}

// InitiateShutdown cancels the base context with xcontext.ErrShutdown and
// blocks for the grace period, or until ctx is done.
func (sc *ShutdownCoordinator) InitiateShutdown(ctx context.Context) {
	sc.cancel(xcontext.ErrShutdown)

	timer := time.NewTimer(sc.gracePeriod)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
