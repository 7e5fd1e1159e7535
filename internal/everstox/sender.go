package everstox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	tokenHeader    = "everstox-shop-api-token"
	sendTimeout    = 60 * time.Second
	errBodySnippet = 300
)

// StatusError is returned when everstox answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("everstox: http status %d: %s", e.StatusCode, e.Body)
}

// Sender executes prepared requests. It is only used outside dry-run mode.
type Sender struct {
	token string
	http  *http.Client
	Logf  func(string, ...any)
}

func NewSender(token string, h *http.Client) *Sender {
	if h == nil {
		h = &http.Client{
			Timeout:   sendTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Sender{token: token, http: h, Logf: log.Printf}
}

// Send posts the prepared body and returns the response status code.
func (s *Sender) Send(ctx context.Context, pr PreparedRequest) (int, error) {
	body, err := json.Marshal(pr.Body)
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, pr.Method, pr.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	for k, v := range pr.Headers {
		req.Header.Set(k, v)
	}
	if s.token != "" {
		req.Header.Set(tokenHeader, s.token)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("send orders: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, errBodySnippet+1))
		snip := string(raw)
		if len(raw) > errBodySnippet {
			snip = string(raw[:errBodySnippet]) + "..."
		}
		return resp.StatusCode, &StatusError{StatusCode: resp.StatusCode, Body: snip}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	s.Logf("[EVERSTOX] sent %d orders to %s status=%d", len(pr.Body), pr.URL, resp.StatusCode)
	return resp.StatusCode, nil
}
