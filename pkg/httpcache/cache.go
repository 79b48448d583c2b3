// Package httpcache caches successful provider GET responses in memory,
// optionally persisting them to disk between runs.
package httpcache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	neturl "net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/oracle/pkg/httpclient"
	"github.com/maypok86/otter/v2"
)

const cacheFile = "geocode-cache.gob"

// Entry is a cached response body.
type Entry struct {
	ExpiresAt time.Time
	Data      []byte
}

// Cache is an otter-backed response cache. A zero dir keeps it memory-only.
type Cache struct {
	cache      *otter.Cache[string, Entry]
	logger     *slog.Logger
	saveCancel context.CancelFunc
	dir        string
	saveWg     sync.WaitGroup
	ttl        time.Duration
	mu         sync.Mutex
}

// NewMemoryCache returns a cache that never touches disk.
func NewMemoryCache(ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		cache:  newOtter(ttl),
		ttl:    ttl,
		logger: logger,
	}
}

// NewCache returns a cache persisted under dir, loading any previous
// contents and saving periodically until ctx ends or Close is called.
func NewCache(ctx context.Context, dir string, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	c := &Cache{
		cache:  newOtter(ttl),
		dir:    dir,
		ttl:    ttl,
		logger: logger,
	}
	if err := c.load(); err != nil {
		logger.Warn("failed to load cache from disk", "error", err)
	}
	logger.Info("cache initialized", "dir", dir, "entries_loaded", c.cache.EstimatedSize())

	c.startPeriodicSave(ctx)
	return c, nil
}

func newOtter(ttl time.Duration) *otter.Cache[string, Entry] {
	return otter.Must(&otter.Options[string, Entry]{
		MaximumSize:      20_000,
		InitialCapacity:  1_000,
		ExpiryCalculator: otter.ExpiryWriting[string, Entry](ttl),
	})
}

func key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

func redact(raw string) string {
	u, err := neturl.Parse(raw)
	if err != nil {
		return raw
	}
	return httpclient.Redact(u)
}

// Get returns the cached body for url.
func (c *Cache) Get(url string) ([]byte, bool) {
	k := key(url)
	entry, found := c.cache.GetIfPresent(k)
	if !found {
		c.logger.Debug("cache miss", "url", redact(url))
		return nil, false
	}
	if time.Now().After(entry.ExpiresAt) {
		c.cache.Invalidate(k)
		return nil, false
	}
	return entry.Data, true
}

// Set stores body for url.
func (c *Cache) Set(url string, body []byte) {
	c.cache.Set(key(url), Entry{Data: body, ExpiresAt: time.Now().Add(c.ttl)})
	c.logger.Debug("cache set", "url", redact(url), "size", len(body))
}

// Len reports the approximate number of entries.
func (c *Cache) Len() int {
	return c.cache.EstimatedSize()
}

func (c *Cache) load() error {
	path := filepath.Join(c.dir, cacheFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening cache file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			c.logger.Debug("failed to close cache file", "error", err)
		}
	}()

	var entries map[string]Entry
	if err := gob.NewDecoder(f).Decode(&entries); err != nil {
		return fmt.Errorf("decoding cache file: %w", err)
	}

	now := time.Now()
	for k, e := range entries {
		if now.Before(e.ExpiresAt) {
			c.cache.Set(k, e)
		}
	}
	return nil
}

func (c *Cache) save() error {
	if c.dir == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	path := filepath.Join(c.dir, cacheFile)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	defer func() {
		if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
			c.logger.Debug("failed to remove temp file", "error", err)
		}
	}()

	entries := make(map[string]Entry)
	now := time.Now()
	for k, e := range c.cache.All() {
		if now.Before(e.ExpiresAt) {
			entries[k] = e
		}
	}

	if err := gob.NewEncoder(f).Encode(entries); err != nil {
		_ = f.Close()
		return fmt.Errorf("encoding cache file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing cache file: %w", err)
	}
	c.logger.Debug("cache saved to disk", "entries", len(entries), "path", path)
	return nil
}

func (c *Cache) startPeriodicSave(ctx context.Context) {
	saveCtx, cancel := context.WithCancel(ctx)
	c.saveCancel = cancel

	c.saveWg.Add(1)
	go func() {
		defer c.saveWg.Done()
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-saveCtx.Done():
				return
			case <-ticker.C:
				if err := c.save(); err != nil {
					c.logger.Error("periodic cache save failed", "error", err)
				}
			}
		}
	}()
}

// Close stops periodic saving and writes a final snapshot.
func (c *Cache) Close() error {
	if c.saveCancel != nil {
		c.saveCancel()
	}
	c.saveWg.Wait()
	return c.save()
}

// Doer matches httpclient.Doer.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client serves GET requests from the cache, falling through to next.
// Only 200 responses accepted by the validator are stored.
type Client struct {
	cache     *Cache
	next      Doer
	logger    *slog.Logger
	cacheable func(body []byte) bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithValidator stores a 200 response only when fn accepts its body. APIs
// that report failures inside a 200 use it to keep errors out of the cache.
func WithValidator(fn func(body []byte) bool) ClientOption {
	return func(c *Client) {
		c.cacheable = fn
	}
}

// NewClient wraps next with cache. A nil cache disables caching.
func NewClient(cache *Cache, next Doer, logger *slog.Logger, opts ...ClientOption) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{cache: cache, next: next, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do implements Doer.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.cache == nil || req.Method != http.MethodGet {
		return c.next.Do(req)
	}

	url := req.URL.String()
	if data, ok := c.cache.Get(url); ok {
		resp := &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader(data)),
			Header:     make(http.Header),
			Request:    req,
		}
		resp.Header.Set("X-From-Cache", "true")
		return resp, nil
	}

	resp, err := c.next.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	if closeErr := resp.Body.Close(); closeErr != nil {
		c.logger.Debug("failed to close response body", "error", closeErr)
	}
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if c.cacheable == nil || c.cacheable(body) {
		c.cache.Set(url, body)
	} else {
		c.logger.Debug("response not cacheable", "url", redact(url))
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}
