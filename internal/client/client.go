// Package client talks to the consultant admin and agent APIs.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gabe/consultant/internal/apierr"
	"github.com/gabe/consultant/internal/auth"
	"github.com/gabe/consultant/internal/config"
	"github.com/gabe/consultant/internal/metrics"
	"golang.org/x/oauth2"
)

// Client is a typed HTTP client for both backend services
type Client struct {
	adminURL string
	agentURL string

	// httpClient carries the request timeout. streamClient has none because
	// the event stream stays open for the lifetime of a problem.
	httpClient   *http.Client
	streamClient *http.Client

	logger *slog.Logger
}

// Option customizes a Client
type Option func(*clientOptions)

type clientOptions struct {
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// WithMetrics counts every request on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *clientOptions) { o.metrics = m }
}

// WithLogger sets the logger used for request failures
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// New creates a client. source may be nil for unauthenticated use; base may be
// nil to use http.DefaultTransport.
func New(cfg config.APIConfig, source oauth2.TokenSource, base *http.Client, opts ...Option) *Client {
	o := clientOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	var transport http.RoundTripper
	if base != nil {
		transport = base.Transport
	}
	transport = o.metrics.InstrumentTransport(transport)
	transport = &auth.Transport{Source: source, Base: transport}

	return &Client{
		adminURL: strings.TrimSuffix(cfg.AdminURL, "/"),
		agentURL: strings.TrimSuffix(cfg.AgentURL, "/"),
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   config.Duration(cfg.Timeout, 30*time.Second),
		},
		streamClient: &http.Client{Transport: transport},
		logger:       o.logger,
	}
}

func (c *Client) adminPath(format string, args ...any) string {
	return c.adminURL + buildPath(format, args...)
}

func (c *Client) agentPath(format string, args ...any) string {
	return c.agentURL + buildPath(format, args...)
}

func buildPath(format string, args ...any) string {
	escaped := make([]any, len(args))
	for i, a := range args {
		escaped[i] = url.PathEscape(fmt.Sprint(a))
	}
	return fmt.Sprintf(format, escaped...)
}

// do sends a JSON request and decodes a JSON response into out (when non-nil).
// Non-2xx responses become *apierr.Error.
func (c *Client) do(ctx context.Context, method, url string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("request failed", "method", method, "url", url, "error", err)
		return apierr.FromTransport(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := apierr.FromResponse(resp.StatusCode, data, http.StatusText(resp.StatusCode))
		c.logger.Warn("request rejected", "method", method, "url", url, "code", resp.StatusCode, "message", apiErr.Message)
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal response: %w (body: %s)", err, truncate(data, 200))
	}
	return nil
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}
