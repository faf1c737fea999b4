package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/garrettladley/csverify/internal/config"
	"github.com/garrettladley/csverify/internal/migrations/postgres"
	xredis "github.com/garrettladley/csverify/internal/redis"
	"github.com/garrettladley/csverify/internal/server"
	"github.com/garrettladley/csverify/internal/service/webhook"
	"github.com/garrettladley/csverify/internal/storage"
	"github.com/garrettladley/csverify/internal/xhttp"
	"github.com/garrettladley/csverify/internal/xslog"
	cswebhook "github.com/garrettladley/csverify/webhook"
)

const (
	keyPort        = "port"
	keyEnv         = "env"
	keyGracePeriod = "grace_period"

	sseShutdownGracePeriod = 2 * time.Second
	shutdownTimeout        = 30 * time.Second
	rateLimitWindow        = time.Second
	// headroom for storing a receipt after the key fetch
	webhookStoreTimeout    = 10 * time.Second
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Read()
	if err != nil {
		logger := xslog.NewLoggerFromEnv(os.Stdout)
		logger.Error("failed to read config", xslog.Error(err))
		os.Exit(1)
	}

	logger := xslog.NewLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", xslog.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	defaults, err := cfg.WebhookDefaults()
	if err != nil {
		return err
	}

	if cfg.Env.IsProduction() && !defaults.ReplayVerify {
		logger.WarnContext(ctx, "replay verification is disabled in production")
	}

	backend, limiter, closeStorage, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	defer closeStorage()

	verifier := cswebhook.New(defaults,
		cswebhook.WithHTTPClient(xhttp.NewHTTPClient()),
		cswebhook.WithLogger(logger),
	)

	handler := server.NewRouter(server.Deps{
		Logger:         logger,
		Webhooks:       webhook.NewProcessor(verifier, backend),
		Backend:        backend,
		Limiter:        limiter,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		TrustProxy:     cfg.TrustProxy,
		WebhookTimeout: defaults.RequestTimeout + webhookStoreTimeout,
	})

	shutdownCoordinator := server.NewShutdownCoordinator(sseShutdownGracePeriod)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      0, // disabled for SSE; use SetWriteDeadline per-request
		IdleTimeout:       60 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return shutdownCoordinator.BaseContext()
		},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.InfoContext(ctx, "starting server",
			xslog.Version(),
			slog.String(keyPort, cfg.Port),
			slog.String(keyEnv, string(cfg.Env)),
			xslog.Region(defaults.Region.String()),
			xslog.URL(defaults.KeyURL()),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.InfoContext(ctx, "shutdown initiated, closing receipt streams",
			slog.Duration(keyGracePeriod, sseShutdownGracePeriod))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		shutdownCoordinator.InitiateShutdown(shutdownCtx)

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.InfoContext(ctx, "server stopped")
	return nil
}

// initStorage builds the receipt backend and webhook rate limiter selected by
// STORE_BACKEND. The returned func releases both.
func initStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage.Backend, storage.RateLimiter, func(), error) {
	closeAll := func(backend storage.Backend, limiter storage.RateLimiter) func() {
		return func() {
			if c, ok := limiter.(interface{ Close() error }); ok {
				_ = c.Close()
			}
			if err := backend.Close(); err != nil {
				logger.ErrorContext(ctx, "failed to close backend", xslog.Error(err))
			}
		}
	}

	switch cfg.Store {
	case config.StoreRedis:
		logger.InfoContext(ctx, "initializing Redis backend", xslog.Backend(string(cfg.Store)))
		client, err := xredis.New(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize redis client: %w", err)
		}
		backend := storage.NewRedisBackend(client)
		limit := max(int(cfg.RateLimit.Limit), 1)
		limiter := storage.NewRedisRateLimiter(client, limit, rateLimitWindow)
		return backend, limiter, closeAll(backend, limiter), nil

	case config.StorePostgres:
		logger.InfoContext(ctx, "initializing PostgreSQL backend", xslog.Backend(string(cfg.Store)))
		pool, err := initPostgres(ctx, cfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		backend := storage.NewPostgresBackend(pool)
		limiter := storage.NewMemoryRateLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Burst)
		return backend, limiter, closeAll(backend, limiter), nil

	default:
		logger.InfoContext(ctx, "using in-memory backend", xslog.Backend(string(cfg.Store)))
		backend := storage.NewMemoryBackend(storage.WithMaxReceipts(cfg.MaxReceipts))
		limiter := storage.NewMemoryRateLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Burst)
		return backend, limiter, closeAll(backend, limiter), nil
	}
}

func initPostgres(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := postgres.Apply(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return pool, nil
}
