// Package timeapi resolves coordinates to IANA timezones through the keyless
// timeapi.io service.
package timeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/codeGROOVE-dev/oracle/pkg/geocoder"
	"github.com/codeGROOVE-dev/oracle/pkg/httpclient"
)

// DefaultBaseURL is the public timeapi.io endpoint.
const DefaultBaseURL = "https://timeapi.io"

// Client implements geocoder.TimezoneLookup.
type Client struct {
	httpClient httpclient.Doer
	logger     *slog.Logger
	baseURL    string
}

// NewClient returns a timeapi.io client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, httpClient httpclient.Doer, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

// Name identifies the provider in logs.
func (*Client) Name() string { return "timeapi" }

// Timezone implements geocoder.TimezoneLookup.
func (c *Client) Timezone(ctx context.Context, lat, lng float64) (string, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lng, 'f', -1, 64))
	apiURL := c.baseURL + "/api/timezone/coordinate?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, http.NoBody)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", geocoder.ErrNetwork, err)
	}
	defer httpclient.Close(c.logger, resp)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: timeapi returned status %d", geocoder.ErrNetwork, resp.StatusCode)
	}

	var result struct {
		TimeZone string `json:"timeZone"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: %w", geocoder.ErrParse, err)
	}
	if result.TimeZone == "" {
		return "", geocoder.ErrEmptyResult
	}
	return result.TimeZone, nil
}
