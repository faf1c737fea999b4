package xslog

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/garrettladley/csverify/internal/version"
	"github.com/garrettladley/csverify/internal/xhttp"
)

const keyError = "error"

func Error(err error) slog.Attr {
	return slog.String(keyError, err.Error())
}

func RequestID(requestID string) slog.Attr {
	const requestIDKey = "request_id"
	return slog.String(requestIDKey, requestID)
}

func Stack() slog.Attr {
	const stackKey = "stack"
	return slog.String(stackKey, string(debug.Stack()))
}

func HTTPStatus(status int) slog.Attr {
	const statusKey = "status"
	return slog.Int(statusKey, status)
}

func Duration(duration time.Duration) slog.Attr {
	const durationKey = "duration"
	return slog.Duration(durationKey, duration)
}

func RequestMethod(r *http.Request) slog.Attr {
	const methodKey = "method"
	return slog.String(methodKey, r.Method)
}

func RequestPath(r *http.Request) slog.Attr {
	const pathKey = "path"
	return slog.String(pathKey, r.URL.Path)
}

func IP(ip string) slog.Attr {
	const ipKey = "ip"
	return slog.String(ipKey, ip)
}

func RequestIP(r *http.Request) slog.Attr {
	return IP(xhttp.GetRequestIP(r))
}

func Version() slog.Attr {
	const versionKey = "version"
	return slog.String(versionKey, version.Get())
}

func URL(url string) slog.Attr {
	const urlKey = "url"
	return slog.String(urlKey, url)
}

func Region(region string) slog.Attr {
	const regionKey = "region"
	return slog.String(regionKey, region)
}

// Kind is the verification failure kind.
func Kind(kind string) slog.Attr {
	const kindKey = "kind"
	return slog.String(kindKey, kind)
}

func Count(count int) slog.Attr {
	const countKey = "count"
	return slog.Int(countKey, count)
}

func Since(t time.Time) slog.Attr {
	const sinceKey = "since"
	return slog.Time(sinceKey, t)
}

func ReceiptID(id string) slog.Attr {
	const receiptIDKey = "receipt_id"
	return slog.String(receiptIDKey, id)
}

func Module(module string) slog.Attr {
	const moduleKey = "module"
	return slog.String(moduleKey, module)
}

func Event(event string) slog.Attr {
	const eventKey = "event"
	return slog.String(eventKey, event)
}

func File(path string) slog.Attr {
	const fileKey = "file"
	return slog.String(fileKey, path)
}

func Backend(name string) slog.Attr {
	const backendKey = "backend"
	return slog.String(backendKey, name)
}

func Backoff(d time.Duration) slog.Attr {
	const backoffKey = "backoff"
	return slog.Duration(backoffKey, d)
}

func Data(data string) slog.Attr {
	const dataKey = "data"
	return slog.String(dataKey, data)
}
