package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/arloliu/movetrace/moves"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// clientConfig holds configuration for HTTP client creation.
type clientConfig struct {
	timeout time.Duration

	dialTimeout           time.Duration
	responseHeaderTimeout time.Duration

	maxIdleConnsPerHost int
	idleConnTimeout     time.Duration

	// Base transport (before OTel wrapping)
	baseTransport http.RoundTripper
}

// ClientOption configures an HTTP client.
type ClientOption func(*clientConfig)

// WithTimeout sets the request timeout for the client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithDialTimeout sets the timeout for dialing TCP connections.
func WithDialTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.dialTimeout = d
	}
}

// WithResponseHeaderTimeout sets the time to wait for response headers after writing the request.
func WithResponseHeaderTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.responseHeaderTimeout = d
	}
}

// WithMaxIdleConnsPerHost sets the max idle connections to keep per-host.
func WithMaxIdleConnsPerHost(n int) ClientOption {
	return func(c *clientConfig) {
		c.maxIdleConnsPerHost = n
	}
}

// WithIdleConnTimeout sets how long an idle keep-alive connection stays open.
func WithIdleConnTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.idleConnTimeout = d
	}
}

// WithTransport sets the base transport wrapped by the OTel transport.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *clientConfig) {
		c.baseTransport = rt
	}
}

// NewClient creates an http.Client whose requests are traced with tp.
// A nil provider falls back to the global one.
func NewClient(
	tp trace.TracerProvider,
	mp metric.MeterProvider,
	prop propagation.TextMapPropagator,
	opts ...ClientOption,
) *http.Client {
	config := &clientConfig{
		baseTransport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(config)
	}

	return &http.Client{
		Transport: Transport(buildTransport(config), tp, mp, prop),
		Timeout:   config.timeout,
	}
}

// buildTransport configures the underlying transport based on config.
func buildTransport(c *clientConfig) http.RoundTripper {
	t, ok := c.baseTransport.(*http.Transport)
	if !ok {
		// An opaque RoundTripper cannot take transport-level settings.
		return c.baseTransport
	}
	transport := t.Clone()

	if c.dialTimeout > 0 {
		transport.DialContext = (&net.Dialer{
			Timeout:   c.dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext
	}
	if c.responseHeaderTimeout > 0 {
		transport.ResponseHeaderTimeout = c.responseHeaderTimeout
	}
	if c.maxIdleConnsPerHost > 0 {
		transport.MaxIdleConnsPerHost = c.maxIdleConnsPerHost
	}
	if c.idleConnTimeout > 0 {
		transport.IdleConnTimeout = c.idleConnTimeout
	}

	return transport
}

// MovesClient calls the move lookup API.
type MovesClient struct {
	hc      *http.Client
	baseURL string
}

// NewMovesClient returns a client for the API rooted at baseURL, e.g.
// "http://localhost:1991/api/v1".
func NewMovesClient(baseURL string, hc *http.Client) *MovesClient {
	if hc == nil {
		hc = http.DefaultClient
	}

	return &MovesClient{hc: hc, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// GetMove fetches a single move. A 404 returns an error wrapping moves.ErrNotFound.
func (c *MovesClient) GetMove(ctx context.Context, name string) (moves.Move, error) {
	var m moves.Move
	err := c.get(ctx, "/moves/"+url.PathEscape(name), &m)

	return m, err
}

// ListMoves fetches every move keyed by name.
func (c *MovesClient) ListMoves(ctx context.Context) (map[string]moves.Move, error) {
	var all map[string]moves.Move
	err := c.get(ctx, "/moves/", &all)

	return all, err
}

// Get issues a GET for path relative to the base URL and returns the status and body.
func (c *MovesClient) Get(ctx context.Context, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, nil, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read %s: %w", path, err)
	}

	return resp.StatusCode, body, nil
}

func (c *MovesClient) get(ctx context.Context, path string, out any) error {
	status, body, err := c.Get(ctx, path)
	if err != nil {
		return err
	}

	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("GET %s: %w", path, moves.ErrNotFound)
	case status != http.StatusOK:
		return fmt.Errorf("GET %s: unexpected status %d", path, status)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	return nil
}
