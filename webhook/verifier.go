package webhook

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/garrettladley/csverify/internal/xslog"
)

// Verifier authenticates webhook deliveries against a fixed set of defaults.
// It holds no per-call state and is safe for concurrent use.
type Verifier struct {
	defaults Config
	keys     keyFetcher
	logger   *slog.Logger
	now      func() time.Time
}

type VerifierOption func(*Verifier)

// WithHTTPClient sets the client used to fetch signing keys. Timeouts are
// applied per call from the resolved config, not from the client.
func WithHTTPClient(client *http.Client) VerifierOption {
	return func(v *Verifier) {
		if client != nil {
			v.keys.client = client
		}
	}
}

// WithLogger overrides the logger taken from the call context.
func WithLogger(logger *slog.Logger) VerifierOption {
	return func(v *Verifier) { v.logger = logger }
}

// WithClock replaces time.Now for the replay check.
func WithClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}

func New(defaults Config, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		defaults: defaults,
		keys:     keyFetcher{client: &http.Client{}},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Defaults returns the configuration calls are resolved against.
func (v *Verifier) Defaults() Config { return v.defaults }

// Verify checks that event was signed by the platform and is recent enough.
// It returns nil when the delivery is authentic, otherwise an *Error.
func (v *Verifier) Verify(ctx context.Context, header string, event Event, opts ...Option) error {
	return v.VerifyOptions(ctx, header, event, NewOptions(opts...))
}

func (v *Verifier) VerifyOptions(ctx context.Context, header string, event Event, opts Options) error {
	logger := v.logger
	if logger == nil {
		logger = xslog.FromContext(ctx)
	}

	cfg, err := v.verify(ctx, header, event, opts, logger)
	if err != nil {
		e := normalize(err)
		logger.WarnContext(ctx, "webhook rejected",
			xslog.Kind(e.Kind.String()),
			xslog.Error(e),
			xslog.URL(cfg.KeyURL()),
		)
		return e
	}

	logger.DebugContext(ctx, "webhook verified",
		xslog.Region(cfg.Region.String()),
		xslog.URL(cfg.KeyURL()),
	)
	return nil
}

func (v *Verifier) verify(ctx context.Context, header string, event Event, opts Options, logger *slog.Logger) (Config, error) {
	cfg, err := Resolve(v.defaults, opts)
	if err != nil {
		return v.defaults, err
	}

	if err := validateRequest(header, event, cfg); err != nil {
		return cfg, err
	}

	if err := checkReplay(event, cfg, v.now()); err != nil {
		return cfg, err
	}

	signingKey, err := v.keys.fetch(ctx, cfg, logger)
	if err != nil {
		return cfg, err
	}

	return cfg, verifySignature(header, signingKey, event)
}

var defaultVerifier = sync.OnceValue(func() *Verifier {
	return New(DefaultConfig())
})

// Verify checks a delivery against DefaultConfig with a shared Verifier that
// logs through the logger carried by ctx.
func Verify(ctx context.Context, header string, event Event, opts ...Option) error {
	return defaultVerifier().Verify(ctx, header, event, opts...)
}
