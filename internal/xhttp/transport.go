package xhttp

import (
	"fmt"
	"net/http"
	"time"

	"github.com/garrettladley/csverify/internal/version"
)

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

var _ http.RoundTripper = (*userAgentTransport)(nil)

// RoundTrip sets the csverify User-Agent unless the request already has one.
func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(UserAgent) == "" {
		// RoundTrippers must not modify the caller's request.
		req = req.Clone(req.Context())
		req.Header.Set(UserAgent, t.userAgent)
	}
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Redacted(), err)
	}
	return resp, nil
}

func NewTransport() http.RoundTripper {
	return &userAgentTransport{base: http.DefaultTransport, userAgent: version.UserAgent()}
}

type ClientOption func(*http.Client)

// WithTimeout bounds every request made with the client, body read included.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *http.Client) { c.Timeout = d }
}

// NewHTTPClient returns a client on NewTransport. It has no timeout unless
// one is given; callers that bound requests per call leave it unset.
func NewHTTPClient(opts ...ClientOption) *http.Client {
	c := &http.Client{Transport: NewTransport()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
