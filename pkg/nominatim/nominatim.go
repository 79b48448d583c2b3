// Package nominatim searches places through an OpenStreetMap Nominatim server.
package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/codeGROOVE-dev/oracle/pkg/geocoder"
	"github.com/codeGROOVE-dev/oracle/pkg/httpclient"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public OSM instance.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// The public instance allows one request per second per client.
const defaultInterval = time.Second

// Client implements geocoder.PlaceSearch.
type Client struct {
	httpClient httpclient.Doer
	limiter    *rate.Limiter
	logger     *slog.Logger
	baseURL    string
	userAgent  string
	language   string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a self-hosted instance.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithLanguage sets the preferred language for display names.
func WithLanguage(lang string) Option {
	return func(c *Client) {
		c.language = lang
	}
}

// WithRate overrides the request rate; zero disables limiting.
func WithRate(interval time.Duration) Option {
	return func(c *Client) {
		if interval <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

// NewClient returns a Nominatim client. userAgent identifies the
// application, as the usage policy requires.
func NewClient(userAgent string, httpClient httpclient.Doer, logger *slog.Logger, opts ...Option) (*Client, error) {
	if userAgent == "" {
		return nil, errors.New("nominatim requires a descriptive user agent")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Every(defaultInterval), 1),
		logger:     logger,
		baseURL:    DefaultBaseURL,
		userAgent:  userAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name identifies the provider in logs.
func (*Client) Name() string { return "nominatim" }

type result struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Search implements geocoder.PlaceSearch.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]geocoder.Place, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: waiting for rate limiter: %w", geocoder.ErrNetwork, err)
		}
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("limit", strconv.Itoa(limit))
	if c.language != "" {
		params.Set("accept-language", c.language)
	}
	apiURL := c.baseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", geocoder.ErrNetwork, err)
	}
	defer httpclient.Close(c.logger, resp)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: nominatim returned status %d", geocoder.ErrNetwork, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", geocoder.ErrNetwork, err)
	}

	var results []result
	if err := json.Unmarshal(body, &results); err != nil {
		c.logger.Debug("nominatim JSON parse error", "query", query, "error", err)
		return nil, fmt.Errorf("%w: %w", geocoder.ErrParse, err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	places := make([]geocoder.Place, 0, len(results))
	for _, r := range results {
		places = append(places, geocoder.Place{DisplayName: r.DisplayName, Lat: r.Lat, Lon: r.Lon})
	}
	c.logger.Debug("nominatim search completed", "query", query, "results", len(places))
	return places, nil
}
