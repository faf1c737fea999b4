package server

import (
	"cmp"
	"log/slog"
	"net/http"
	"time"

	"github.com/garrettladley/csverify/internal/server/handler"
	servermw "github.com/garrettladley/csverify/internal/server/middleware"
	"github.com/garrettladley/csverify/internal/service/webhook"
	"github.com/garrettladley/csverify/internal/storage"
	"github.com/garrettladley/csverify/internal/xhttp/middleware"
)

const (
	routeWebhook  = "POST /webhooks/contentstack"
	routeReceipts = "GET /receipts"
	routeStream   = "GET /receipts/stream"
	routeHealth   = "GET /health"

	pathStream = "/receipts/stream"

	defaultWebhookTimeout = 45 * time.Second
)

type Deps struct {
	Logger       *slog.Logger
	Webhooks     webhook.Service
	Backend      storage.Backend
	Limiter      storage.RateLimiter
	MaxBodyBytes int64
	// TrustProxy keys rate limits on the first X-Forwarded-For hop instead
	// of the peer address.
	TrustProxy bool
	// WebhookTimeout bounds verifying and storing one delivery. Deliveries
	// are not cancelled by shutdown or client disconnect.
	WebhookTimeout time.Duration
}

// NewRouter wires the receiver routes and the shared middleware chain.
func NewRouter(deps Deps) http.Handler {
	webhookHandler := handler.NewWebhook(deps.Webhooks)
	receiptsHandler := handler.NewReceipts(deps.Backend)
	streamHandler := handler.NewStream(deps.Backend)
	healthHandler := handler.NewHealth(deps.Backend)

	webhookTimeout := cmp.Or(deps.WebhookTimeout, defaultWebhookTimeout)

	var rateLimitOpts []servermw.RateLimitOption
	if deps.TrustProxy {
		rateLimitOpts = append(rateLimitOpts, servermw.WithTrustedForwardedFor())
	}

	mux := http.NewServeMux()

	mux.Handle(routeWebhook, middleware.Chain(
		http.HandlerFunc(webhookHandler.HandleWebhook),
		servermw.RateLimit(deps.Limiter, rateLimitOpts...),
		middleware.MaxBytes(deps.MaxBodyBytes),
		middleware.Detach(webhookTimeout),
	))
	mux.HandleFunc(routeReceipts, receiptsHandler.HandleList)
	mux.HandleFunc(routeStream, streamHandler.HandleStream)
	mux.HandleFunc(routeHealth, healthHandler.HandleHealth)

	return middleware.Chain(mux,
		middleware.Recovery,
		middleware.RequestID(),
		middleware.Logger(deps.Logger),
		middleware.Logging,
		middleware.ShutdownContext,
		middleware.SecurityHeaders,
		middleware.Gzip(pathStream),
	)
}
