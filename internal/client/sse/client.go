// Package sse follows a receiver's receipt stream.
package sse

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	go_json "github.com/goccy/go-json"

	"github.com/garrettladley/csverify/internal/storage"
	"github.com/garrettladley/csverify/internal/xhttp"
	"github.com/garrettladley/csverify/internal/xslog"
)

const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
	backoffFactor  = 2
)

const streamPath = "/receipts/stream"

// errServerShutdown ends a connection the server announced it is closing.
var errServerShutdown = errors.New("server shutting down")

type Event struct {
	Type string
	Data []byte
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	backoff    time.Duration
}

func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Transport: xhttp.NewTransport()}, // no timeout for SSE
		logger:     logger,
		backoff:    initialBackoff,
	}
}

type ReceiptHandler func(receipt storage.Receipt)

// Connect streams receipts to handler, reconnecting with exponential backoff
// until ctx is done.
func (c *Client) Connect(ctx context.Context, handler ReceiptHandler) error {
	backoff := c.backoff

	for {
		err := c.connectOnce(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err == nil {
			backoff = c.backoff
			continue
		}

		level := slog.LevelWarn
		if errors.Is(err, errServerShutdown) {
			level = slog.LevelInfo
		}
		c.logger.Log(ctx, level, "receipt stream lost, reconnecting",
			xslog.Error(err),
			xslog.Backoff(backoff),
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		backoff = min(backoff*backoffFactor, maxBackoff)
	}
}

func (c *Client) connectOnce(ctx context.Context, handler ReceiptHandler) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+streamPath, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set(xhttp.CacheControl, "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	c.logger.DebugContext(ctx, "receipt stream connected")

	scanner := bufio.NewScanner(resp.Body)
	var current Event

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			if current.Type != "" {
				if err := c.handleEvent(ctx, current, handler); err != nil {
					return err
				}
			}
			current = Event{}
			continue
		}

		if eventType, found := strings.CutPrefix(line, "event:"); found {
			current.Type = strings.TrimSpace(eventType)
		} else if data, found := strings.CutPrefix(line, "data:"); found {
			current.Data = []byte(strings.TrimSpace(data))
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading stream: %w", err)
	}

	return nil
}

func (c *Client) handleEvent(ctx context.Context, event Event, handler ReceiptHandler) error {
	switch event.Type {
	case "receipt":
		var receipt storage.Receipt
		if err := go_json.Unmarshal(event.Data, &receipt); err != nil {
			c.logger.WarnContext(ctx, "failed to parse receipt",
				xslog.Error(err),
				xslog.Data(string(event.Data)),
			)
			return nil
		}
		handler(receipt)

	case "shutdown":
		return errServerShutdown

	case "heartbeat", "connected":
		c.logger.DebugContext(ctx, "received "+event.Type, xslog.Data(string(event.Data)))

	default:
		c.logger.DebugContext(ctx, "received unknown event", xslog.Event(event.Type))
	}
	return nil
}
