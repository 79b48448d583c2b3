// Package googlemaps provides place search and timezone lookup through the
// Google Maps Platform APIs.
package googlemaps

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
	"strings"
	"time"

	"github.com/codeGROOVE-dev/oracle/pkg/geocoder"
	"github.com/codeGROOVE-dev/oracle/pkg/httpclient"
)

// DefaultBaseURL is the Maps API root.
const DefaultBaseURL = "https://maps.googleapis.com/maps/api"

var errNoKey = errors.New("google Maps API key not configured")

// Client handles Google Maps API operations.
type Client struct {
	apiKey     string
	httpClient httpclient.Doer
	logger     *slog.Logger
	baseURL    string
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// NewClient creates a new Google Maps API client.
func NewClient(apiKey string, httpClient httpclient.Doer, logger *slog.Logger, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
		baseURL:    DefaultBaseURL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name identifies the provider in logs.
func (*Client) Name() string { return "googlemaps" }

type geocodeResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
			LocationType string `json:"location_type"`
		} `json:"geometry"`
		Types            []string `json:"types"`
		FormattedAddress string   `json:"formatted_address"`
	} `json:"results"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

// Search implements geocoder.PlaceSearch using the Geocoding API.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]geocoder.Place, error) {
	if c.apiKey == "" {
		c.logger.Warn("Google Maps API key not configured - skipping geocoding", "location", query)
		return nil, fmt.Errorf("%w: %w", geocoder.ErrNetwork, errNoKey)
	}

	params := url.Values{}
	params.Set("address", query)
	params.Set("key", c.apiKey)

	body, status, err := c.get(ctx, c.baseURL+"/geocode/json?"+params.Encode())
	if err != nil {
		return nil, err
	}

	bodyPreviewLen := min(200, len(body))
	c.logger.Debug("geocoding API raw response", "location", query, "status", status,
		"body_preview", string(body[:bodyPreviewLen]))

	var result geocodeResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: geocoding response: %w", geocoder.ErrParse, err)
	}

	switch result.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, nil
	default:
		c.logger.Debug("geocoding failed", "location", query, "status", result.Status, "error", result.ErrorMessage)
		return nil, fmt.Errorf("%w: geocoding failed for %s: %s", geocoder.ErrNetwork, query, result.Status)
	}

	var places []geocoder.Place
	for _, r := range result.Results {
		if len(places) == limit {
			break
		}
		if imprecise(r.Geometry.LocationType, r.Types) {
			c.logger.Debug("rejecting imprecise geocoding result", "location", query,
				"address", r.FormattedAddress, "reason", "country-level approximate result")
			continue
		}
		places = append(places, geocoder.Place{
			DisplayName: r.FormattedAddress,
			Lat:         strconv.FormatFloat(r.Geometry.Location.Lat, 'f', -1, 64),
			Lon:         strconv.FormatFloat(r.Geometry.Location.Lng, 'f', -1, 64),
		})
	}
	return places, nil
}

// imprecise reports country-level approximate results, which are too coarse
// to pin a timezone.
func imprecise(locationType string, types []string) bool {
	if !strings.EqualFold(locationType, "approximate") {
		return false
	}
	hasCountryType := false
	for _, t := range types {
		switch t {
		case "country":
			hasCountryType = true
		case "locality", "administrative_area_level_1", "administrative_area_level_2":
			return false
		}
	}
	return hasCountryType
}

// Timezone implements geocoder.TimezoneLookup using the Time Zone API.
func (c *Client) Timezone(ctx context.Context, lat, lng float64) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: %w", geocoder.ErrNetwork, errNoKey)
	}

	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", lat, lng))
	// Only the zone ID is used, so a per-day timestamp keeps the URL cacheable.
	params.Set("timestamp", strconv.FormatInt(c.now().UTC().Truncate(24*time.Hour).Unix(), 10))
	params.Set("key", c.apiKey)

	body, _, err := c.get(ctx, c.baseURL+"/timezone/json?"+params.Encode())
	if err != nil {
		return "", err
	}

	var result struct {
		TimeZoneID   string `json:"timeZoneId"`
		TimeZoneName string `json:"timeZoneName"`
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: timezone response: %w", geocoder.ErrParse, err)
	}

	if result.Status != "OK" {
		if result.ErrorMessage != "" {
			return "", fmt.Errorf("%w: timezone API failed: %s", geocoder.ErrNetwork, result.ErrorMessage)
		}
		return "", fmt.Errorf("%w: timezone API failed with status: %s", geocoder.ErrNetwork, result.Status)
	}
	return result.TimeZoneID, nil
}

// Cacheable reports whether an API body is a definitive answer. Quota and
// permission failures arrive as 200 responses and must not be cached.
func Cacheable(body []byte) bool {
	var r struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &r); err != nil {
		return false
	}
	return r.Status == "OK" || r.Status == "ZERO_RESULTS"
}

func (c *Client) get(ctx context.Context, apiURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, http.NoBody)
	if err != nil {
		return nil, 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", geocoder.ErrNetwork, err)
	}
	defer httpclient.Close(c.logger, resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: reading body: %w", geocoder.ErrNetwork, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("%w: status %d", geocoder.ErrNetwork, resp.StatusCode)
	}
	return body, resp.StatusCode, nil
}
