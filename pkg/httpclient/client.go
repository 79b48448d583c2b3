// Package httpclient wraps net/http with retries, backoff and logging for
// the geocoding and timezone providers.
package httpclient

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

// Doer is the minimal interface every provider depends on.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client performs HTTP requests with exponential backoff and jitter.
type Client struct {
	client   Doer
	logger   *slog.Logger
	attempts uint
	delay    time.Duration
	maxDelay time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithAttempts sets the number of attempts, including the first.
func WithAttempts(n uint) Option {
	return func(c *Client) {
		c.attempts = n
	}
}

// WithDelay sets the initial and maximum backoff delays.
func WithDelay(initial, maximum time.Duration) Option {
	return func(c *Client) {
		c.delay = initial
		c.maxDelay = maximum
	}
}

// WithTransport replaces the underlying HTTP client.
func WithTransport(d Doer) Option {
	return func(c *Client) {
		c.client = d
	}
}

// New returns a retrying client. Geocoding lookups are interactive, so the
// defaults are much shorter than a batch crawler would use.
func New(logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
		attempts: 3,
		delay:    200 * time.Millisecond,
		maxDelay: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends req, retrying transport errors and 5xx responses. A 429 is not
// retried: public geocoders ask clients to back off rather than hammer.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	start := time.Now()
	apiName := req.URL.Host

	c.logger.Debug("making API request", "method", req.Method, "url", Redact(req.URL), "api", apiName)

	var resp *http.Response
	var lastErr error

	err := retry.Do(
		func() error {
			r, err := c.client.Do(req.Clone(ctx))
			if err != nil {
				c.logger.Warn("API request failed", "api", apiName, "error", err, "duration", time.Since(start))
				lastErr = err
				return err
			}

			if r.StatusCode == http.StatusTooManyRequests {
				drain(r)
				c.logger.Warn("rate limited", "api", apiName, "status", r.StatusCode)
				lastErr = fmt.Errorf("rate limited by %s", apiName)
				return retry.Unrecoverable(lastErr)
			}

			if r.StatusCode >= http.StatusInternalServerError {
				drain(r)
				c.logger.Warn("server error", "api", apiName, "status", r.StatusCode)
				lastErr = fmt.Errorf("server error from %s: %d", apiName, r.StatusCode)
				return lastErr
			}

			c.logger.Debug("API request completed", "api", apiName, "status", r.StatusCode, "duration", time.Since(start))
			resp = r
			return nil
		},
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.MaxDelay(c.maxDelay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying API request", "api", apiName, "attempt", n+1, "error", err)
		}),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		if lastErr == nil {
			lastErr = err
		}
		c.logger.Debug("API request failed after retries", "api", apiName, "error", lastErr, "duration", time.Since(start))
		return nil, lastErr
	}
	return resp, nil
}

// secretParams are query parameters that carry credentials.
var secretParams = []string{"key", "api_key", "apikey", "token"}

// Redact renders u with credential query parameters masked.
func Redact(u *url.URL) string {
	if u == nil {
		return ""
	}
	q := u.Query()
	masked := false
	for _, p := range secretParams {
		if q.Has(p) {
			q.Set(p, "REDACTED")
			masked = true
		}
	}
	if !masked {
		return u.String()
	}
	c := *u
	c.RawQuery = q.Encode()
	return c.String()
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}

// Close closes a response body, logging failures at debug level.
func Close(logger *slog.Logger, resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		logger.Debug("failed to close response body", "error", err)
	}
}
