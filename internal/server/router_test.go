package server

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	go_json "github.com/goccy/go-json"

	"github.com/garrettladley/csverify/internal/cstest"
	"github.com/garrettladley/csverify/internal/service/webhook"
	"github.com/garrettladley/csverify/internal/storage"
	"github.com/garrettladley/csverify/internal/xcontext"
	"github.com/garrettladley/csverify/internal/xhttp"
	cswebhook "github.com/garrettladley/csverify/webhook"
)

const testMaxBody = 4 << 10

type testServer struct {
	handler http.Handler
	signer  *cstest.Signer
	keys    *cstest.KeyServer
	backend *storage.MemoryBackend
}

func newTestServer(t *testing.T, limit float64, burst int) *testServer {
	t.Helper()

	signer := cstest.NewSigner(t)
	return newTestServerWithKeys(t, limit, burst, signer, cstest.NewKeyServer(t, signer.PublicKeyPEM()))
}

func newTestServerWithKeys(t *testing.T, limit float64, burst int, signer *cstest.Signer, keys *cstest.KeyServer) *testServer {
	t.Helper()

	defaults := cswebhook.DefaultConfig()
	defaults.CustomRegionURL = keys.URL

	backend := storage.NewMemoryBackend()
	limiter := storage.NewMemoryRateLimiter(limit, burst)
	t.Cleanup(func() {
		_ = limiter.Close()
		_ = backend.Close()
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	verifier := cswebhook.New(defaults, cswebhook.WithHTTPClient(keys.Client()))

	return &testServer{
		handler: NewRouter(Deps{
			Logger:       logger,
			Webhooks:     webhook.NewProcessor(verifier, backend),
			Backend:      backend,
			Limiter:      limiter,
			MaxBodyBytes: testMaxBody,
		}),
		signer:  signer,
		keys:    keys,
		backend: backend,
	}
}

func (s *testServer) post(t *testing.T, body []byte, header string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/contentstack", bytes.NewReader(body))
	if header != "" {
		req.Header.Set(cswebhook.SignatureHeader, header)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestRouterAcceptsSignedWebhook(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, 100, 100)
	body := cstest.Body(t, time.Now())

	rec := s.post(t, body, s.signer.Header(t, body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if rec.Header().Get(xhttp.XRequestID) == "" {
		t.Error("missing request ID header")
	}
	if rec.Header().Get(xhttp.XContentTypeOpts) != "nosniff" {
		t.Error("missing security headers")
	}
	if got := s.keys.Calls(); got != 1 {
		t.Errorf("key fetches = %d, want 1", got)
	}

	listRec := httptest.NewRecorder()
	s.handler.ServeHTTP(listRec, httptest.NewRequest(http.MethodGet, "/receipts", nil))
	if listRec.Code != http.StatusOK {
		t.Fatalf("list status = %d", listRec.Code)
	}

	var list struct {
		Receipts []storage.Receipt `json:"receipts"`
	}
	if err := go_json.Unmarshal(listRec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Receipts) != 1 {
		t.Fatalf("receipts = %d, want 1", len(list.Receipts))
	}
	if r := list.Receipts[0]; r.Module != "entry" || r.Event != "publish" || r.EntryUID != "blt1234" {
		t.Errorf("receipt = %+v", r)
	}
}

func TestRouterRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		build      func(t *testing.T, s *testServer) ([]byte, string)
		wantStatus int
		wantFetch  int64
	}{
		{
			name: "missing header",
			build: func(t *testing.T, _ *testServer) ([]byte, string) {
				return cstest.Body(t, time.Now()), ""
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "tampered body",
			build: func(t *testing.T, s *testServer) ([]byte, string) {
				body := cstest.Body(t, time.Now())
				header := s.signer.Header(t, body)
				return bytes.Replace(body, []byte("publish"), []byte("unpublish"), 1), header
			},
			wantStatus: http.StatusUnauthorized,
			wantFetch:  1,
		},
		{
			name: "stale delivery",
			build: func(t *testing.T, s *testServer) ([]byte, string) {
				body := cstest.Body(t, time.Now().Add(-time.Hour))
				return body, s.signer.Header(t, body)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "array body",
			build: func(_ *testing.T, _ *testServer) ([]byte, string) {
				return []byte(`[1,2,3]`), "sig=abc"
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "oversized body",
			build: func(_ *testing.T, _ *testServer) ([]byte, string) {
				return []byte(`{"pad":"` + strings.Repeat("x", testMaxBody) + `"}`), "sig=abc"
			},
			wantStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestServer(t, 100, 100)
			body, header := tt.build(t, s)

			rec := s.post(t, body, header)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body)
			}
			if got := s.keys.Calls(); got != tt.wantFetch {
				t.Errorf("key fetches = %d, want %d", got, tt.wantFetch)
			}

			receipts, err := s.backend.ListSince(t.Context(), time.Time{}, 10)
			if err != nil {
				t.Fatalf("ListSince() error = %v", err)
			}
			if len(receipts) != 0 {
				t.Errorf("rejected delivery stored %d receipts", len(receipts))
			}
		})
	}
}

func TestRouterRateLimitsWebhooks(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, 0.001, 1)

	if rec := s.post(t, []byte(`[]`), "sig=abc"); rec.Code == http.StatusTooManyRequests {
		t.Fatal("first request rate limited")
	}

	rec := s.post(t, []byte(`[]`), "sig=abc")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}

	// other routes are not limited
	health := httptest.NewRecorder()
	s.handler.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/health", nil))
	if health.Code != http.StatusOK {
		t.Errorf("health status = %d", health.Code)
	}
}

func TestRouterShutdownKeepsInFlightWebhook(t *testing.T) {
	t.Parallel()

	signer := cstest.NewSigner(t)
	keyDoc, err := go_json.Marshal(map[string]string{"signing-key": signer.PublicKeyPEM()})
	if err != nil {
		t.Fatalf("marshal key document: %v", err)
	}
	keys := cstest.NewKeyServerFunc(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write(keyDoc)
	})
	s := newTestServerWithKeys(t, 100, 100, signer, keys)

	sc := NewShutdownCoordinator(0)
	go func() {
		time.Sleep(100 * time.Millisecond)
		sc.InitiateShutdown(context.Background())
	}()

	body := cstest.Body(t, time.Now())
	req := httptest.NewRequestWithContext(sc.BaseContext(), http.MethodPost, "/webhooks/contentstack", bytes.NewReader(body))
	req.Header.Set(cswebhook.SignatureHeader, signer.Header(t, body))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body)
	}
	if !xcontext.IsShutdownInProgress(sc.BaseContext()) {
		t.Fatal("shutdown did not start during the key fetch")
	}

	receipts, err := s.backend.ListSince(t.Context(), time.Time{}, 10)
	if err != nil {
		t.Fatalf("ListSince() error = %v", err)
	}
	if len(receipts) != 1 {
		t.Errorf("stored receipts = %d, want 1", len(receipts))
	}
}
