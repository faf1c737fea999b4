package sse

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	go_json "github.com/goccy/go-json"

	"github.com/garrettladley/csverify/internal/storage"
	"github.com/garrettladley/csverify/internal/xhttp"
)

const receiptsPath = "/receipts"

type PollResponse struct {
	Receipts []storage.Receipt `json:"receipts"`
	Next     string            `json:"next,omitempty"`
}

// PollClient pages through a receiver's stored receipts.
type PollClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewPollClient(baseURL string) *PollClient {
	return &PollClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: xhttp.NewHTTPClient(xhttp.WithTimeout(30 * time.Second)),
	}
}

func (c *PollClient) Poll(ctx context.Context, since time.Time, limit int) (*PollResponse, error) {
	u, err := url.Parse(c.baseURL + receiptsPath)
	if err != nil {
		return nil, fmt.Errorf("parsing URL: %w", err)
	}

	q := u.Query()
	if !since.IsZero() {
		q.Set("since", since.Format(time.RFC3339Nano))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result PollResponse
	if err := go_json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &result, nil
}

// Backlog returns every receipt received after since, following pages.
func (c *PollClient) Backlog(ctx context.Context, since time.Time) ([]storage.Receipt, error) {
	var all []storage.Receipt
	for {
		page, err := c.Poll(ctx, since, storage.MaxListLimit)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Receipts...)
		if page.Next == "" {
			return all, nil
		}
		next, err := time.Parse(time.RFC3339Nano, page.Next)
		if err != nil {
			return nil, fmt.Errorf("parsing next cursor: %w", err)
		}
		since = next
	}
}
