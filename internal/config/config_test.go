package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/go-cmp/cmp"

	appenv "github.com/garrettladley/csverify/internal/env"
	"github.com/garrettladley/csverify/internal/xslog"
	"github.com/garrettladley/csverify/webhook"
)

func parse(t *testing.T, vars map[string]string) (Config, error) {
	t.Helper()
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Environment: vars})
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := parse(t, map[string]string{})
	if err != nil {
		t.Fatalf("parse() error = %v", err)
	}

	want := Config{
		Port:         "8080",
		Env:          appenv.Development,
		LogLevel:     xslog.LevelInfo,
		MaxBodyBytes: 1 << 20,
		Store:        StoreMemory,
		MaxReceipts:  10_000,
		Webhook: Webhook{
			Region:          "NA",
			ReplayVerify:    true,
			ReplayThreshold: 5 * time.Minute,
			RequestTimeout:  30 * time.Second,
		},
		RateLimit: RateLimit{Limit: 10, Burst: 20},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	defaults, err := cfg.WebhookDefaults()
	if err != nil {
		t.Fatalf("WebhookDefaults() error = %v", err)
	}
	if diff := cmp.Diff(webhook.DefaultConfig(), defaults); diff != "" {
		t.Errorf("webhook defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestWebhookOverrides(t *testing.T) {
	t.Parallel()

	cfg, err := parse(t, map[string]string{
		"WEBHOOK_REGION":            "EU",
		"WEBHOOK_REPLAY_VERIFY":     "false",
		"WEBHOOK_REPLAY_THRESHOLD":  "90s",
		"WEBHOOK_REQUEST_TIMEOUT":   "2s",
		"WEBHOOK_CUSTOM_REGION_URL": "https://keys.example.com/public-keys.json",
	})
	if err != nil {
		t.Fatalf("parse() error = %v", err)
	}

	got, err := cfg.WebhookDefaults()
	if err != nil {
		t.Fatalf("WebhookDefaults() error = %v", err)
	}
	want := webhook.Config{
		ReplayVerify:    false,
		ReplayThreshold: 90 * time.Second,
		RequestTimeout:  2 * time.Second,
		Region:          webhook.RegionEU,
		CustomRegionURL: "https://keys.example.com/public-keys.json",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("webhook config mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		vars    map[string]string
		wantErr bool
	}{
		{name: "redis without url", vars: map[string]string{"STORE_BACKEND": "redis"}, wantErr: true},
		{name: "redis with url", vars: map[string]string{"STORE_BACKEND": "redis", "REDIS_URL": "redis://localhost:6379"}},
		{name: "postgres without url", vars: map[string]string{"STORE_BACKEND": "postgres"}, wantErr: true},
		{name: "unknown backend", vars: map[string]string{"STORE_BACKEND": "s3"}, wantErr: true},
		{name: "unknown region", vars: map[string]string{"WEBHOOK_REGION": "MARS"}, wantErr: true},
		{name: "legacy region alias", vars: map[string]string{"WEBHOOK_REGION": "AZZURE-NA"}},
		{name: "zero threshold", vars: map[string]string{"WEBHOOK_REPLAY_THRESHOLD": "0s"}, wantErr: true},
		{name: "relative custom url", vars: map[string]string{"WEBHOOK_CUSTOM_REGION_URL": "/keys.json"}, wantErr: true},
		{name: "bad log level", vars: map[string]string{"LOG_LEVEL": "loud"}, wantErr: true},
		{name: "bad environment", vars: map[string]string{"ENV": "staging"}, wantErr: true},
		{name: "zero memory cap", vars: map[string]string{"MEMORY_MAX_RECEIPTS": "0"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := parse(t, tt.vars)
			if (err != nil) != tt.wantErr {
				t.Errorf("parse() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
