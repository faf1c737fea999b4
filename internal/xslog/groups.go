package xslog

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/garrettladley/csverify/internal/xcontext"
)

const (
	groupRequest  = "request"
	groupResponse = "response"
	groupError    = "error"
	groupReceipt  = "receipt"
)

const (
	keyID         = "id"
	keyHost       = "host"
	keyUserAgent  = "user_agent"
	keyProto      = "proto"
	keyQuery      = "query"
	keyStatusText = "status_text"
	keyDurationMS = "duration_ms"
	keyMessage    = "message"
	keyType       = "type"
	keyValue      = "value"
	keyTriggered  = "triggered_at"
	keyLength     = "content_length"
	keyCause      = "cause_type"
)

func RequestGroup(r *http.Request) slog.Attr {
	attrs := []slog.Attr{
		RequestMethod(r),
		RequestPath(r),
		RequestIP(r),
		slog.String(keyHost, r.Host),
		slog.String(keyUserAgent, r.UserAgent()),
		slog.String(keyProto, r.Proto),
	}
	if id, ok := xcontext.GetRequestID(r.Context()); ok {
		attrs = append(attrs, slog.String(keyID, id))
	}
	if r.URL.RawQuery != "" {
		attrs = append(attrs, slog.String(keyQuery, r.URL.RawQuery))
	}
	if r.ContentLength > 0 {
		attrs = append(attrs, slog.Int64(keyLength, r.ContentLength))
	}
	return slog.GroupAttrs(groupRequest, attrs...)
}

func ResponseGroup(status int, duration time.Duration) slog.Attr {
	return slog.Group(groupResponse,
		HTTPStatus(status),
		slog.String(keyStatusText, http.StatusText(status)),
		Duration(duration),
		slog.Int64(keyDurationMS, duration.Milliseconds()),
	)
}

// ErrorGroup records err and, when it wraps another error, the innermost
// cause's type.
func ErrorGroup(err error) slog.Attr {
	if err == nil {
		return slog.Group(groupError)
	}
	attrs := []slog.Attr{
		slog.String(keyMessage, err.Error()),
		slog.String(keyType, fmt.Sprintf("%T", err)),
	}
	if cause := rootCause(err); cause != err {
		attrs = append(attrs, slog.String(keyCause, fmt.Sprintf("%T", cause)))
	}
	return slog.GroupAttrs(groupError, attrs...)
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

func ErrorGroupWithStack(err any) slog.Attr {
	return slog.Group(groupError,
		slog.Any(keyValue, err),
		slog.String(keyType, fmt.Sprintf("%T", err)),
		Stack(),
	)
}

// ReceiptGroup describes a stored webhook receipt.
func ReceiptGroup(id, module, event string, triggeredAt time.Time) slog.Attr {
	return slog.Group(groupReceipt,
		slog.String(keyID, id),
		Module(module),
		Event(event),
		slog.Time(keyTriggered, triggeredAt),
	)
}
