package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	go_json "github.com/goccy/go-json"

	"github.com/garrettladley/csverify/internal/storage"
	"github.com/garrettladley/csverify/internal/xcontext"
	"github.com/garrettladley/csverify/internal/xerrors"
	"github.com/garrettladley/csverify/internal/xhttp"
	"github.com/garrettladley/csverify/internal/xslog"
)

const (
	sseHeartbeatInterval = 30 * time.Second
	sseWriteTimeout      = 45 * time.Second
)

const (
	eventConnected = "connected"
	eventReceipt   = "receipt"
	eventHeartbeat = "heartbeat"
	eventShutdown  = "shutdown"
)

type Stream struct {
	feed      storage.ReceiptFeed
	heartbeat time.Duration
}

func NewStream(feed storage.ReceiptFeed) *Stream {
	return &Stream{feed: feed, heartbeat: sseHeartbeatInterval}
}

// HandleStream handles GET /receipts/stream requests. Each verified delivery
// is pushed as a "receipt" event.
func (h *Stream) HandleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := xslog.FromContext(ctx)

	receipts, unsubscribe, err := h.feed.Subscribe(ctx)
	if err != nil {
		xerrors.WriteError(ctx, w, xerrors.ServiceUnavailable(
			xerrors.WithMessage("failed to subscribe to receipts"),
			xerrors.WithCause(err),
		))
		return
	}
	defer unsubscribe()

	xhttp.SetHeaderContentTypeEventStream(w)
	w.Header().Set(xhttp.CacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)

	if err := writeSSEEvent(rc, w, eventConnected, map[string]string{
		"time": time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		logger.ErrorContext(ctx, "failed to send connected event", xslog.Error(err))
		return
	}

	logger.InfoContext(ctx, "receipt stream opened")

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			closeStream(ctx, rc, w)
			return

		case receipt, ok := <-receipts:
			if !ok {
				// the feed closes its channels when ctx ends
				closeStream(ctx, rc, w)
				return
			}
			if err := writeSSEEvent(rc, w, eventReceipt, receipt); err != nil {
				logger.ErrorContext(ctx, "failed to send receipt event",
					xslog.Error(err),
					xslog.ReceiptID(receipt.ID),
				)
				return
			}

		case t := <-heartbeat.C:
			if err := writeSSEEvent(rc, w, eventHeartbeat, map[string]string{
				"time": t.UTC().Format(time.RFC3339),
			}); err != nil {
				logger.ErrorContext(ctx, "failed to send heartbeat", xslog.Error(err))
				return
			}
		}
	}
}

func closeStream(ctx context.Context, rc *http.ResponseController, w http.ResponseWriter) {
	logger := xslog.FromContext(ctx)
	switch {
	case xcontext.IsShutdownInProgress(ctx):
		_ = writeSSEEvent(rc, w, eventShutdown, map[string]string{
			"reason": "server-restart",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
		logger.InfoContext(ctx, "receipt stream closed for shutdown")
	case ctx.Err() != nil:
		logger.InfoContext(ctx, "receipt stream closed by client")
	default:
		logger.InfoContext(ctx, "receipt feed closed")
	}
}

func writeSSEEvent(rc *http.ResponseController, w http.ResponseWriter, event string, data any) error {
	if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	payload, err := go_json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return rc.Flush()
}
