package middleware

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/garrettladley/csverify/internal/xhttp"
)

const (
	gzipMinSize  = 1024
	gzipEncoding = "gzip"
)

var gzipWriterPool = sync.Pool{
	New: func() any {
		return gzip.NewWriter(nil)
	},
}

type gzipResponseWriter struct {
	http.ResponseWriter
	writer      *gzip.Writer
	buf         bytes.Buffer
	wroteHeader bool
	statusCode  int
	useGzip     bool
	decided     bool
}

var (
	_ http.ResponseWriter = (*gzipResponseWriter)(nil)
	_ http.Flusher        = (*gzipResponseWriter)(nil)
	_ io.Closer           = (*gzipResponseWriter)(nil)
)

func (g *gzipResponseWriter) WriteHeader(code int) {
	g.statusCode = code
	g.wroteHeader = true
}

func (g *gzipResponseWriter) Write(b []byte) (int, error) {
	if !g.wroteHeader {
		g.WriteHeader(http.StatusOK)
	}

	if g.decided {
		if g.useGzip {
			n, err := g.writer.Write(b)
			if err != nil {
				return n, fmt.Errorf("failed to write gzip: %w", err)
			}
			return n, nil
		}
		n, err := g.ResponseWriter.Write(b)
		if err != nil {
			return n, fmt.Errorf("failed to write response: %w", err)
		}
		return n, nil
	}

	g.buf.Write(b)
	if g.buf.Len() < gzipMinSize {
		return len(b), nil
	}

	if err := g.decide(g.ResponseWriter.Header().Get(xhttp.ContentEncoding) == ""); err != nil {
		return 0, err
	}
	return len(b), nil
}

// decide commits the status line and writes out the buffered bytes,
// compressed when compress is set.
func (g *gzipResponseWriter) decide(compress bool) error {
	g.decided = true
	g.useGzip = compress

	if !compress {
		g.ResponseWriter.WriteHeader(g.statusCode)
		if _, err := g.ResponseWriter.Write(g.buf.Bytes()); err != nil {
			return fmt.Errorf("failed to write buffered response: %w", err)
		}
		return nil
	}

	g.ResponseWriter.Header().Set(xhttp.ContentEncoding, gzipEncoding)
	g.ResponseWriter.Header().Del(xhttp.ContentLength)
	g.ResponseWriter.WriteHeader(g.statusCode)

	g.writer = gzipWriterPool.Get().(*gzip.Writer)
	g.writer.Reset(g.ResponseWriter)
	if _, err := g.writer.Write(g.buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write to gzip writer: %w", err)
	}
	return nil
}

func (g *gzipResponseWriter) Close() error {
	if !g.decided {
		return g.decide(false)
	}

	if g.useGzip && g.writer != nil {
		err := g.writer.Close()
		gzipWriterPool.Put(g.writer)
		g.writer = nil
		if err != nil {
			return fmt.Errorf("failed to close gzip writer: %w", err)
		}
	}

	return nil
}

// Flush before gzipMinSize bytes were written sends the response uncompressed.
func (g *gzipResponseWriter) Flush() {
	if !g.decided {
		_ = g.decide(false)
	}
	if g.useGzip && g.writer != nil {
		_ = g.writer.Flush()
	}
	if flusher, ok := g.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (g *gzipResponseWriter) Unwrap() http.ResponseWriter {
	return g.ResponseWriter
}

// Gzip compresses responses of at least gzipMinSize bytes for clients that
// accept it. Requests under a path prefix in skip pass through untouched.
func Gzip(skip ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !clientAcceptsGzip(r) || skipped(r.URL.Path, skip) {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set(xhttp.Vary, xhttp.AcceptEncoding)

			gw := &gzipResponseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}
			defer gw.Close() //nolint:errcheck // flush on completion

			next.ServeHTTP(gw, r)
		})
	}
}

func skipped(path string, prefixes []string) bool {
	return slices.ContainsFunc(prefixes, func(prefix string) bool {
		return strings.HasPrefix(path, prefix)
	})
}

func clientAcceptsGzip(r *http.Request) bool {
	return strings.Contains(r.Header.Get(xhttp.AcceptEncoding), gzipEncoding)
}
