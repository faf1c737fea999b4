package webhook

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestResolveNoOverrides(t *testing.T) {
	t.Parallel()

	got, err := Resolve(DefaultConfig(), Options{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := Config{
		ReplayVerify:    true,
		ReplayThreshold: 5 * time.Minute,
		RequestTimeout:  30 * time.Second,
		Region:          RegionNA,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveSingleOverride(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		opt    Option
		mutate func(*Config)
	}{
		{
			name:   "replay verify",
			opt:    WithReplayVerify(false),
			mutate: func(c *Config) { c.ReplayVerify = false },
		},
		{
			name:   "replay threshold",
			opt:    WithReplayThreshold(time.Minute),
			mutate: func(c *Config) { c.ReplayThreshold = time.Minute },
		},
		{
			name:   "request timeout",
			opt:    WithRequestTimeout(2 * time.Second),
			mutate: func(c *Config) { c.RequestTimeout = 2 * time.Second },
		},
		{
			name:   "region",
			opt:    WithRegion(RegionEU),
			mutate: func(c *Config) { c.Region = RegionEU },
		},
		{
			name:   "legacy region alias is kept as given",
			opt:    WithRegion("AZZURE-NA"),
			mutate: func(c *Config) { c.Region = "AZZURE-NA" },
		},
		{
			name:   "custom region url",
			opt:    WithCustomRegionURL("https://keys.example.com/public-keys.json"),
			mutate: func(c *Config) { c.CustomRegionURL = "https://keys.example.com/public-keys.json" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			want := DefaultConfig()
			tt.mutate(&want)

			got, err := Resolve(DefaultConfig(), NewOptions(tt.opt))
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveDoesNotMutateDefaults(t *testing.T) {
	t.Parallel()

	defaults := DefaultConfig()
	if _, err := Resolve(defaults, NewOptions(WithRegion(RegionAU), WithReplayVerify(false))); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), defaults); diff != "" {
		t.Errorf("defaults changed (-want +got):\n%s", diff)
	}
}

func TestResolveInvalidOption(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		opts       Options
		wantOption string
	}{
		{name: "zero threshold", opts: NewOptions(WithReplayThreshold(0)), wantOption: "replayThreshold"},
		{name: "negative timeout", opts: NewOptions(WithRequestTimeout(-time.Second)), wantOption: "requestTimeout"},
		{name: "unknown region", opts: NewOptions(WithRegion("MARS")), wantOption: "region"},
		{name: "empty custom url", opts: NewOptions(WithCustomRegionURL("")), wantOption: "customRegionUrl"},
		{name: "relative custom url", opts: NewOptions(WithCustomRegionURL("/keys.json")), wantOption: "customRegionUrl"},
		{name: "ftp custom url", opts: NewOptions(WithCustomRegionURL("ftp://keys.example.com")), wantOption: "customRegionUrl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Resolve(DefaultConfig(), tt.opts)
			if !errors.Is(err, ErrInvalidOption) {
				t.Fatalf("Resolve() error = %v, want invalid option", err)
			}
			if got := As(err).Option; got != tt.wantOption {
				t.Errorf("Option = %q, want %q", got, tt.wantOption)
			}
		})
	}
}

func TestConfigKeyURL(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if got, want := cfg.KeyURL(), "https://app.contentstack.com/.well-known/public-keys.json"; got != want {
		t.Errorf("KeyURL() = %q, want %q", got, want)
	}

	cfg.Region = "MARS"
	cfg.CustomRegionURL = "https://keys.example.com/k.json"
	if got := cfg.KeyURL(); got != cfg.CustomRegionURL {
		t.Errorf("KeyURL() = %q, want custom URL", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, custom URL should override an unknown region", err)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero threshold", mutate: func(c *Config) { c.ReplayThreshold = 0 }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.RequestTimeout = 0 }, wantErr: true},
		{name: "unknown region", mutate: func(c *Config) { c.Region = "MARS" }, wantErr: true},
		{name: "bad custom url", mutate: func(c *Config) { c.CustomRegionURL = "not a url" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
