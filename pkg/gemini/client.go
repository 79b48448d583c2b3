// Package gemini provides LLM-backed place search using Google's Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/oracle/pkg/geocoder"
	"github.com/codeGROOVE-dev/retry"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash-lite"

// Config selects the backend. An API key uses the Gemini API; otherwise
// Vertex AI with Application Default Credentials in GCPProject.
type Config struct {
	APIKey     string
	Model      string
	GCPProject string
}

// place is one element of the structured model response.
type place struct {
	DisplayName string  `json:"display_name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// Client implements geocoder.PlaceSearch.
type Client struct {
	models   generator
	cache    Cache
	logger   *slog.Logger
	model    string
	attempts uint
	delay    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithCache stores validated responses.
func WithCache(c Cache) Option {
	return func(cl *Client) {
		cl.cache = c
	}
}

// WithRetry overrides the retry policy for transient API errors.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(cl *Client) {
		cl.attempts = attempts
		cl.delay = delay
	}
}

// NewClient creates a Gemini client for cfg.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var config *genai.ClientConfig
	if cfg.APIKey != "" {
		config = &genai.ClientConfig{
			Backend: genai.BackendGeminiAPI,
			APIKey:  cfg.APIKey,
		}
		logger.Info("Using Gemini API with API key")
	} else {
		projectID := projectID(cfg.GCPProject)
		if projectID == "" {
			return nil, errors.New("gemini requires an API key or a GCP project")
		}
		config = &genai.ClientConfig{
			Backend:  genai.BackendVertexAI,
			Project:  projectID,
			Location: "us-central1",
		}
		logger.Info("Using Vertex AI with Application Default Credentials", "project", projectID, "location", "us-central1")
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return newClient(client.Models, cfg.Model, logger, opts...), nil
}

func newClient(models generator, model string, logger *slog.Logger, opts ...Option) *Client {
	model = strings.TrimPrefix(model, "models/")
	if model == "" {
		model = DefaultModel
	}
	c := &Client{
		models:   models,
		logger:   logger,
		model:    model,
		attempts: 3,
		delay:    2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func projectID(configured string) string {
	if configured != "" {
		return configured
	}
	if id := os.Getenv("GCP_PROJECT"); id != "" {
		return id
	}
	return os.Getenv("GOOGLE_CLOUD_PROJECT")
}

// Name identifies the provider in logs.
func (*Client) Name() string { return "gemini" }

// Search implements geocoder.PlaceSearch.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]geocoder.Place, error) {
	cacheKey := fmt.Sprintf("genai:%s:%d:%s", c.model, limit, strings.ToLower(query))
	if c.cache != nil {
		if data, ok := c.cache.Get(cacheKey); ok {
			places, err := parsePlaces(data, limit)
			if err == nil {
				c.logger.Debug("Gemini cache hit", "query", query, "results", len(places))
				return places, nil
			}
			c.logger.Debug("Failed to parse cached Gemini response", "error", err)
		}
	}

	text, err := c.generate(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Raw Gemini response", "query", query, "response_text", text)

	places, err := parsePlaces([]byte(text), limit)
	if err != nil {
		c.logger.Warn("Failed to parse Gemini JSON response", "error", err, "response_text", text)
		return nil, err
	}
	if c.cache != nil {
		c.cache.Set(cacheKey, []byte(text))
	}
	return places, nil
}

func (c *Client) generate(ctx context.Context, query string, limit int) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: placePrompt(query, limit)}},
		},
	}
	temperature := float32(0.1)
	genConfig := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  int32(1024),
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	}

	var resp *genai.GenerateContentResponse
	err := retry.Do(
		func() error {
			var genErr error
			resp, genErr = c.models.GenerateContent(ctx, c.model, contents, genConfig)
			if genErr != nil {
				if isTransient(genErr) {
					c.logger.Warn("Gemini API transient error, retrying", "error", genErr)
					return genErr
				}
				c.logger.Error("Gemini API non-transient error", "error", genErr)
				return retry.Unrecoverable(genErr)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.MaxDelay(10*time.Second),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("Retrying Gemini API call", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("%w: gemini API call failed: %w", geocoder.ErrNetwork, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no response from Gemini API", geocoder.ErrEmptyResult)
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: no content in Gemini response", geocoder.ErrEmptyResult)
	}
	for _, part := range candidate.Content.Parts {
		if part != nil && part.Text != "" {
			return part.Text, nil
		}
	}
	return "", fmt.Errorf("%w: no text in Gemini response", geocoder.ErrEmptyResult)
}

func responseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"display_name": {
					Type:        genai.TypeString,
					Description: "Place name with region or country, e.g. 'Lyon, France'",
				},
				"latitude": {
					Type:        genai.TypeNumber,
					Description: "Latitude in decimal degrees",
				},
				"longitude": {
					Type:        genai.TypeNumber,
					Description: "Longitude in decimal degrees",
				},
			},
			PropertyOrdering: []string{"display_name", "latitude", "longitude"},
			Required:         []string{"display_name", "latitude", "longitude"},
		},
	}
}

// isTransient determines if an error should trigger a retry.
func isTransient(err error) bool {
	errStr := strings.ToLower(err.Error())
	for _, indicator := range []string{
		"rate limit", "quota", "timeout", "deadline", "unavailable",
		"temporary failure", "internal server error", "500", "502", "503", "504",
	} {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

func parsePlaces(data []byte, limit int) ([]geocoder.Place, error) {
	var raw []place
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", geocoder.ErrParse, err)
	}
	places := make([]geocoder.Place, 0, len(raw))
	for _, p := range raw {
		if len(places) == limit {
			break
		}
		name := strings.TrimSpace(strings.ReplaceAll(p.DisplayName, "\n", " "))
		if name == "" {
			continue
		}
		places = append(places, geocoder.Place{
			DisplayName: name,
			Lat:         strconv.FormatFloat(p.Latitude, 'f', -1, 64),
			Lon:         strconv.FormatFloat(p.Longitude, 'f', -1, 64),
		})
	}
	return places, nil
}
