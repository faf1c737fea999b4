// Package cli implements the csverify command-line workflows.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/garrettladley/csverify/internal/cli/theme"
	"github.com/garrettladley/csverify/internal/service/webhook"
	"github.com/garrettladley/csverify/internal/storage"
	"github.com/garrettladley/csverify/internal/xslog"
	cswebhook "github.com/garrettladley/csverify/webhook"
)

// SignatureSuffix names the sidecar file holding a body's signature header.
const SignatureSuffix = ".sig"

const DefaultConcurrency = 4

// Target is one delivery to verify.
type Target struct {
	Path   string
	Header string
}

type Result struct {
	Path    string
	Receipt storage.Receipt
	Err     error
	Elapsed time.Duration
}

// Targets pairs each body path with its signature header. When header is
// empty the header is read from "<path>.sig".
func Targets(paths []string, header string) ([]Target, error) {
	targets := make([]Target, 0, len(paths))
	for _, path := range paths {
		h := header
		if h == "" {
			data, err := os.ReadFile(path + SignatureSuffix)
			if err != nil {
				return nil, fmt.Errorf("no --signature given and no signature file for %s: %w", path, err)
			}
			h = strings.TrimSpace(string(data))
		}
		targets = append(targets, Target{Path: path, Header: h})
	}
	return targets, nil
}

// VerifyAll runs every target through svc with at most concurrency in
// flight. Results keep the order of targets.
func VerifyAll(ctx context.Context, svc webhook.Service, targets []Target, concurrency int) []Result {
	results := make([]Result, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))

	for i, target := range targets {
		g.Go(func() error {
			results[i] = verifyOne(gctx, svc, target)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func verifyOne(ctx context.Context, svc webhook.Service, target Target) Result {
	start := time.Now()
	result := Result{Path: target.Path}
	ctx = xslog.WithAttrs(ctx, xslog.File(target.Path))

	body, err := os.ReadFile(target.Path)
	if err != nil {
		result.Err = err
		return result
	}

	result.Receipt, result.Err = svc.ProcessWebhook(ctx, webhook.ProcessRequest{
		Body:      body,
		Signature: target.Header,
	})
	result.Elapsed = time.Since(start)
	return result
}

// Failed counts results with an error.
func Failed(results []Result) int {
	var n int
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// RenderResults formats one line per result.
func RenderResults(t theme.Theme, results []Result) string {
	var b strings.Builder
	for _, r := range results {
		if r.Err == nil {
			fmt.Fprintf(&b, "%s %s %s\n",
				t.Valid().Render("valid  "),
				t.Base().Render(r.Path),
				t.Dim().Render(fmt.Sprintf("(%s, %s)", r.Receipt.ID, r.Elapsed.Round(time.Millisecond))),
			)
			continue
		}

		label := t.Invalid().Render("invalid")
		kind := "error"
		var verr *cswebhook.Error
		if errors.As(r.Err, &verr) {
			kind = verr.Kind.String()
			if isKeyEndpointFailure(verr.Kind) {
				label = t.Warn().Render("error  ")
			}
		}
		fmt.Fprintf(&b, "%s %s %s\n",
			label,
			t.Base().Render(r.Path),
			t.Dim().Render(kind+": "+r.Err.Error()),
		)
	}
	return b.String()
}

func isKeyEndpointFailure(kind cswebhook.Kind) bool {
	switch kind {
	case cswebhook.KindNetworkFailure,
		cswebhook.KindTimeout,
		cswebhook.KindHTTPStatus,
		cswebhook.KindResponseParseFailure:
		return true
	default:
		return false
	}
}
