package webhook

import (
	"fmt"
	"net/url"
	"time"
)

const (
	DefaultReplayThreshold = 5 * time.Minute
	DefaultRequestTimeout  = 30 * time.Second
)

// option names reported in InvalidOption errors
const (
	optReplayThreshold = "replayThreshold"
	optRequestTimeout  = "requestTimeout"
	optRegion          = "region"
	optCustomRegionURL = "customRegionUrl"
)

// Config is a fully resolved verification configuration.
type Config struct {
	// ReplayVerify enables the triggered_at age check.
	ReplayVerify bool
	// ReplayThreshold is the maximum accepted event age.
	ReplayThreshold time.Duration
	// RequestTimeout bounds the signing-key fetch.
	RequestTimeout time.Duration
	Region         Region
	// CustomRegionURL, when set, replaces the region table lookup.
	CustomRegionURL string
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		ReplayVerify:    true,
		ReplayThreshold: DefaultReplayThreshold,
		RequestTimeout:  DefaultRequestTimeout,
		Region:          Regions()[0],
	}
}

// KeyURL returns the URL the signing key is fetched from.
func (c Config) KeyURL() string {
	if c.CustomRegionURL != "" {
		return c.CustomRegionURL
	}
	return c.Region.KeyURL()
}

// Validate checks c as a whole.
func (c Config) Validate() error {
	if c.ReplayThreshold <= 0 {
		return fmt.Errorf("%s must be positive, got %s", optReplayThreshold, c.ReplayThreshold)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s must be positive, got %s", optRequestTimeout, c.RequestTimeout)
	}
	if c.CustomRegionURL != "" {
		if err := validateURL(c.CustomRegionURL); err != nil {
			return fmt.Errorf("%s: %w", optCustomRegionURL, err)
		}
		return nil
	}
	if !c.Region.IsSupported() {
		return fmt.Errorf("%s %q is not supported", optRegion, c.Region)
	}
	return nil
}

// Options is a partial Config. Nil fields keep the default.
type Options struct {
	ReplayVerify    *bool
	ReplayThreshold *time.Duration
	RequestTimeout  *time.Duration
	Region          *Region
	CustomRegionURL *string
}

// Option sets one field of Options.
type Option func(*Options)

func WithReplayVerify(enabled bool) Option {
	return func(o *Options) { o.ReplayVerify = &enabled }
}

func WithReplayThreshold(d time.Duration) Option {
	return func(o *Options) { o.ReplayThreshold = &d }
}

func WithRequestTimeout(d time.Duration) Option {
	return func(o *Options) { o.RequestTimeout = &d }
}

func WithRegion(r Region) Option {
	return func(o *Options) { o.Region = &r }
}

func WithCustomRegionURL(u string) Option {
	return func(o *Options) { o.CustomRegionURL = &u }
}

// NewOptions applies opts to an empty Options.
func NewOptions(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Validate checks every field that is set.
func (o Options) Validate() error {
	if o.ReplayThreshold != nil && *o.ReplayThreshold <= 0 {
		return invalidOption(optReplayThreshold, "must be a positive duration, got %s", *o.ReplayThreshold)
	}
	if o.RequestTimeout != nil && *o.RequestTimeout <= 0 {
		return invalidOption(optRequestTimeout, "must be a positive duration, got %s", *o.RequestTimeout)
	}
	if o.Region != nil && !o.Region.IsSupported() {
		return invalidOption(optRegion, "%q is not one of %v", *o.Region, Regions())
	}
	if o.CustomRegionURL != nil {
		if *o.CustomRegionURL == "" {
			return invalidOption(optCustomRegionURL, "must be a non-empty string")
		}
		if err := validateURL(*o.CustomRegionURL); err != nil {
			return invalidOption(optCustomRegionURL, "%v", err)
		}
	}
	return nil
}

// Resolve overlays the fields set in opts onto defaults.
func Resolve(defaults Config, opts Options) (Config, error) {
	if err := opts.Validate(); err != nil {
		return Config{}, err
	}

	cfg := defaults
	if opts.ReplayVerify != nil {
		cfg.ReplayVerify = *opts.ReplayVerify
	}
	if opts.ReplayThreshold != nil {
		cfg.ReplayThreshold = *opts.ReplayThreshold
	}
	if opts.RequestTimeout != nil {
		cfg.RequestTimeout = *opts.RequestTimeout
	}
	if opts.Region != nil {
		cfg.Region = *opts.Region
	}
	if opts.CustomRegionURL != nil {
		cfg.CustomRegionURL = *opts.CustomRegionURL
	}
	return cfg, nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("URL %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("URL %q has no host", raw)
	}
	return nil
}
