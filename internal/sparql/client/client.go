// Package client executes SPARQL queries against a remote endpoint over
// HTTP with digest authentication.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/SAWGraph/public/internal/core/httpclient"
	"github.com/SAWGraph/public/internal/core/observability"
	"github.com/SAWGraph/public/internal/sparql/results"
)

const (
	FormatJSON  = "json"
	acceptJSON  = "application/sparql-results+json"
	maxBodySize = 64 << 20
)

// Config is fixed for the process lifetime.
type Config struct {
	Endpoint string
	Username string
	Password string
	Method   string
	Format   string
	Timeout  time.Duration
}

// Executor is what the pipeline needs from an endpoint.
type Executor interface {
	Execute(ctx context.Context, query string) (results.Raw, error)
}

type Client struct {
	logger   *slog.Logger
	cfg      Config
	http     *http.Client
	endpoint *url.URL
	startNow func() time.Time // for tests
}

// New validates cfg and builds the shared http client once.
func New(logger *slog.Logger, cfg Config) (*Client, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	u, err := url.Parse(strings.TrimSpace(cfg.Endpoint))
	if err != nil {
		return nil, fmt.Errorf("parse sparql endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("sparql endpoint must be http(s), got %q", cfg.Endpoint)
	}

	cfg.Method = strings.ToUpper(strings.TrimSpace(cfg.Method))
	switch cfg.Method {
	case "":
		cfg.Method = http.MethodGet
	case http.MethodGet, http.MethodPost:
	default:
		return nil, fmt.Errorf("unsupported sparql method %q", cfg.Method)
	}
	if cfg.Format == "" {
		cfg.Format = FormatJSON
	}
	if cfg.Format != FormatJSON {
		return nil, fmt.Errorf("unsupported return format %q", cfg.Format)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	hc := httpclient.NewOutbound(
		httpclient.WithTimeout(cfg.Timeout),
		httpclient.WithDigest(cfg.Username, cfg.Password),
	)
	return &Client{
		logger:   logger,
		cfg:      cfg,
		http:     hc,
		endpoint: u,
		startNow: time.Now,
	}, nil
}

func (c *Client) Endpoint() string { return c.endpoint.String() }

func (c *Client) Timeout() time.Duration { return c.cfg.Timeout }

// Execute runs query and returns typed bindings. It never retries.
func (c *Client) Execute(ctx context.Context, query string) (results.Raw, error) {
	body, err := c.do(ctx, query)
	if err != nil {
		return nil, err
	}
	raw, err := results.Decode(body)
	if err != nil {
		return nil, &MalformedResponseError{Status: http.StatusOK, Err: err}
	}
	return raw, nil
}

// ExecuteJSON runs query and returns the generically decoded document.
func (c *Client) ExecuteJSON(ctx context.Context, query string) (results.Raw, error) {
	body, err := c.do(ctx, query)
	if err != nil {
		return nil, err
	}
	raw, err := results.DecodeJSON(body)
	if err != nil {
		return nil, &MalformedResponseError{Status: http.StatusOK, Err: err}
	}
	return raw, nil
}

func (c *Client) do(ctx context.Context, query string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := c.newRequest(ctx, query)
	if err != nil {
		return nil, &ConnectivityError{Endpoint: c.endpoint.Redacted(), Err: err}
	}

	c.logger.DebugContext(ctx, "sparql request",
		"method", c.cfg.Method,
		"endpoint", c.endpoint.Redacted(),
		"query_len", len(query))

	start := c.startNow()
	resp, err := c.http.Do(req)
	dur := time.Since(start)
	observability.ObserveUpstreamLatency("sparql", dur.Seconds())
	if err != nil {
		return nil, c.classify(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, c.classify(ctx, err)
	}
	c.logger.DebugContext(ctx, "sparql response",
		"status", resp.StatusCode,
		"bytes", len(b),
		"duration", dur.String())
	return b, nil
}

func (c *Client) newRequest(ctx context.Context, query string) (*http.Request, error) {
	form := url.Values{"query": {query}}
	var (
		req *http.Request
		err error
	)
	if c.cfg.Method == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), strings.NewReader(form.Encode()))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		u := *c.endpoint
		q := u.Query()
		q.Set("query", query)
		u.RawQuery = q.Encode()
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
	}
	req.Header.Set("Accept", acceptJSON)
	return req, nil
}

func (c *Client) classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{After: c.cfg.Timeout, Err: err}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &TimeoutError{After: c.cfg.Timeout, Err: err}
	}
	return &ConnectivityError{Endpoint: c.endpoint.Redacted(), Err: err}
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthenticationError{Status: resp.StatusCode}
	case http.StatusRequestTimeout, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return &TimeoutError{Status: resp.StatusCode}
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	return &MalformedResponseError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}

// RepositorySize asks the repository for its statement count via <endpoint>/size.
func (c *Client) RepositorySize(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	u := c.endpoint.JoinPath("size")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, &ConnectivityError{Endpoint: c.endpoint.Redacted(), Err: err}
	}
	req.Header.Set("Accept", "text/plain")

	start := c.startNow()
	resp, err := c.http.Do(req)
	observability.ObserveUpstreamLatency("sparql_size", time.Since(start).Seconds())
	if err != nil {
		return 0, c.classify(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return 0, err
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
	if err != nil {
		return 0, c.classify(ctx, err)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 64)
	if err != nil {
		return 0, &MalformedResponseError{Status: resp.StatusCode, Err: fmt.Errorf("size: %w", err)}
	}
	return n, nil
}
