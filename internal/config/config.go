package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	appenv "github.com/garrettladley/csverify/internal/env"
	"github.com/garrettladley/csverify/internal/xslog"
	"github.com/garrettladley/csverify/webhook"
)

type StoreBackend string

const (
	StoreMemory   StoreBackend = "memory"
	StoreRedis    StoreBackend = "redis"
	StorePostgres StoreBackend = "postgres"
)

// Config is the receiver server configuration.
type Config struct {
	Port         string             `env:"PORT" envDefault:"8080"`
	Env          appenv.Environment `env:"ENV" envDefault:"development"`
	LogLevel     xslog.Level        `env:"LOG_LEVEL" envDefault:"info"`
	MaxBodyBytes int64              `env:"MAX_BODY_BYTES" envDefault:"1048576"`
	Store        StoreBackend       `env:"STORE_BACKEND" envDefault:"memory"`
	// MaxReceipts caps the memory store; the oldest receipts are evicted.
	MaxReceipts int `env:"MEMORY_MAX_RECEIPTS" envDefault:"10000"`
	// TrustProxy keys rate limits on X-Forwarded-For. Enable only behind a
	// proxy that overwrites the header.
	TrustProxy bool      `env:"TRUST_PROXY" envDefault:"false"`
	Webhook    Webhook   `envPrefix:"WEBHOOK_"`
	RateLimit  RateLimit `envPrefix:"RATE_"`
	Redis      Redis     `envPrefix:"REDIS_"`
	Database   Database  `envPrefix:"DATABASE_"`
}

type Webhook struct {
	Region          string        `env:"REGION" envDefault:"NA"`
	CustomRegionURL string        `env:"CUSTOM_REGION_URL"`
	ReplayVerify    bool          `env:"REPLAY_VERIFY" envDefault:"true"`
	ReplayThreshold time.Duration `env:"REPLAY_THRESHOLD" envDefault:"5m"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
}

type RateLimit struct {
	Limit float64 `env:"LIMIT" envDefault:"10"`
	Burst int     `env:"BURST" envDefault:"20"`
}

type Redis struct {
	URL string `env:"URL"`
}

type Database struct {
	URL string `env:"URL"`
}

func Read() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StoreRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required when STORE_BACKEND=%s", c.Store)
		}
	case StorePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=%s", c.Store)
		}
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q (valid: %s, %s, %s)", c.Store, StoreMemory, StoreRedis, StorePostgres)
	}
	if c.MaxReceipts <= 0 {
		return fmt.Errorf("MEMORY_MAX_RECEIPTS must be positive, got %d", c.MaxReceipts)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	}
	if c.RateLimit.Limit <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT and RATE_BURST must be positive")
	}
	if _, err := c.WebhookDefaults(); err != nil {
		return err
	}
	return nil
}

// WebhookOptions returns the webhook settings as overrides. Every field is
// set, so the result fully determines the verification config.
func (c Config) WebhookOptions() webhook.Options {
	return webhook.NewOptions(c.webhookOptions()...)
}

func (c Config) webhookOptions() []webhook.Option {
	opts := []webhook.Option{
		webhook.WithReplayVerify(c.Webhook.ReplayVerify),
		webhook.WithReplayThreshold(c.Webhook.ReplayThreshold),
		webhook.WithRequestTimeout(c.Webhook.RequestTimeout),
		webhook.WithRegion(webhook.Region(c.Webhook.Region)),
	}
	if c.Webhook.CustomRegionURL != "" {
		opts = append(opts, webhook.WithCustomRegionURL(c.Webhook.CustomRegionURL))
	}
	return opts
}

// WebhookDefaults resolves the webhook settings into the defaults a
// webhook.Verifier is built with.
func (c Config) WebhookDefaults() (webhook.Config, error) {
	cfg, err := webhook.Resolve(webhook.DefaultConfig(), c.WebhookOptions())
	if err != nil {
		return webhook.Config{}, fmt.Errorf("invalid WEBHOOK_ settings: %w", err)
	}
	return cfg, nil
}
