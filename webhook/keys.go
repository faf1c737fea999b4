package webhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	go_json "github.com/goccy/go-json"

	"github.com/garrettladley/csverify/internal/xslog"
)

// maxKeyResponseBytes bounds the signing-key response body.
const maxKeyResponseBytes = 1 << 20

type signingKeyResponse struct {
	SigningKey string `json:"signing-key"`
}

type keyFetcher struct {
	client *http.Client
}

// fetch retrieves the current signing key with a single GET bounded by
// cfg.RequestTimeout. The deadline is attached to the request context, so an
// elapsed timeout aborts the transfer and closes the connection.
func (f *keyFetcher) fetch(ctx context.Context, cfg Config, logger *slog.Logger) (string, error) {
	url := cfg.KeyURL()

	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &Error{Kind: KindNetworkFailure, Message: fmt.Sprintf("network error for %s", url), Cause: err}
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return "", transportError(ctx, url, cfg.RequestTimeout, err)
	}
	defer func() { _ = resp.Body.Close() }()

	logger.DebugContext(ctx, "signing key response",
		xslog.URL(url),
		xslog.HTTPStatus(resp.StatusCode),
		xslog.Duration(time.Since(start)),
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", &Error{
			Kind:       KindHTTPStatus,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP error! Status: %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxKeyResponseBytes))
	if err != nil {
		return "", transportError(ctx, url, cfg.RequestTimeout, err)
	}

	var parsed signingKeyResponse
	if err := go_json.Unmarshal(body, &parsed); err != nil {
		return "", &Error{
			Kind:    KindResponseParseFailure,
			Message: fmt.Sprintf("error parsing JSON from %s", url),
			Cause:   err,
		}
	}

	if parsed.SigningKey == "" {
		logger.WarnContext(ctx, "signing key response has no signing-key field", xslog.URL(url))
	}

	return parsed.SigningKey, nil
}

func transportError(ctx context.Context, url string, timeout time.Duration, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &Error{
			Kind:    KindTimeout,
			Message: fmt.Sprintf("request to %s timed out after %s", url, timeout),
			Cause:   err,
		}
	}
	return &Error{
		Kind:    KindNetworkFailure,
		Message: fmt.Sprintf("network error for %s", url),
		Cause:   err,
	}
}
