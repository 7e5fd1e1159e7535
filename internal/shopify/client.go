package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	platformDomain    = "myshopify.com"
	DefaultAPIVersion = "2024-04"
	tokenHeader       = "X-Shopify-Access-Token"

	maxAttempts     = 5
	maxResponseSize = 10 * 1024 * 1024
	requestTimeout  = 30 * time.Second
)

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data       json.RawMessage `json:"data"`
	Errors     []GQLError      `json:"errors"`
	Extensions struct {
		Cost *queryCost `json:"cost"`
	} `json:"extensions"`
}

// Client executes GraphQL Admin API queries against one store. It owns one
// HTTP client; Close releases its connections.
type Client struct {
	endpoint string
	token    string

	http  *http.Client
	logf  func(string, ...any)
	sleep func(time.Duration)
	now   func() time.Time

	maxAttempts int
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func WithLogf(logf func(string, ...any)) Option {
	return func(c *Client) {
		if logf != nil {
			c.logf = logf
		}
	}
}

// WithSleep replaces the blocking sleep used by both backoff paths.
func WithSleep(sleep func(time.Duration)) Option { return func(c *Client) { c.sleep = sleep } }

func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

// WithEndpoint overrides the GraphQL URL derived from the store.
func WithEndpoint(url string) Option { return func(c *Client) { c.endpoint = url } }

func NewClient(store, token, apiVersion string, opts ...Option) (*Client, error) {
	host, err := NormalizeStore(store)
	if err != nil {
		return nil, err
	}
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	c := &Client{
		endpoint: fmt.Sprintf("https://%s/admin/api/%s/graphql.json", host, apiVersion),
		token:    token,
		http: &http.Client{
			Timeout:   requestTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logf:        func(string, ...any) {},
		sleep:       time.Sleep,
		now:         time.Now,
		maxAttempts: maxAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NormalizeStore turns "shop", "shop.myshopify.com" or
// "https://shop.myshopify.com/admin" into "shop.myshopify.com".
func NormalizeStore(store string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(store))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return "", ErrEmptyStore
	}
	return s + "." + platformDomain, nil
}

func (c *Client) Endpoint() string { return c.endpoint }

func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// RunQuery returns the data member of a successful response. Throttling
// errors and data-less responses are retried with exponential backoff up to
// the attempt ceiling; any other GraphQL error or a non-2xx status is
// returned at once.
func (c *Client) RunQuery(ctx context.Context, query string, vars map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		resp, err := c.post(ctx, body)
		if err != nil {
			return nil, err
		}

		c.logCost(resp.Extensions.Cost)
		if d := costWait(resp.Extensions.Cost); d > 0 {
			c.logf("[SHOPIFY] budget low, waiting %s", d)
			c.sleep(d)
		}

		switch {
		case len(resp.Errors) > 0:
			gqlErr := &GraphQLError{Errors: resp.Errors}
			if !gqlErr.Throttled() {
				return nil, gqlErr
			}
			lastErr = gqlErr
		case isNull(resp.Data):
			lastErr = ErrNoData
		default:
			return resp.Data, nil
		}

		if attempt < c.maxAttempts-1 {
			d := retryBackoff(attempt)
			c.logf("[SHOPIFY] attempt %d/%d: %v; retrying in %s", attempt+1, c.maxAttempts, lastErr, d)
			c.sleep(d)
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, c.maxAttempts, lastErr)
}

func (c *Client) post(ctx context.Context, body []byte) (graphQLResponse, error) {
	var out graphQLResponse

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return out, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(tokenHeader, c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return out, fmt.Errorf("shopify request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return out, fmt.Errorf("read response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, &HTTPError{StatusCode: resp.StatusCode, Body: snippet(raw)}
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

func (c *Client) logCost(qc *queryCost) {
	if qc == nil {
		c.logf("[SHOPIFY] cost: n/a")
		return
	}
	actual := "n/a"
	if qc.ActualQueryCost != nil {
		actual = fmt.Sprintf("%.0f", *qc.ActualQueryCost)
	}
	if qc.ThrottleStatus == nil {
		c.logf("[SHOPIFY] cost requested=%.0f actual=%s", qc.RequestedQueryCost, actual)
		return
	}
	ts := qc.ThrottleStatus
	c.logf("[SHOPIFY] cost requested=%.0f actual=%s available=%.0f/%.0f restore=%.0f/s",
		qc.RequestedQueryCost, actual, ts.CurrentlyAvailable, ts.MaximumAvailable, ts.RestoreRate)
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}
