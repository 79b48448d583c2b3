// Package oracle assembles the location resolution engine: the gazetteer,
// remote place search and timezone providers, and the suggestion pipeline.
package oracle

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/codeGROOVE-dev/oracle/pkg/gemini"
	"github.com/codeGROOVE-dev/oracle/pkg/geocoder"
	"github.com/codeGROOVE-dev/oracle/pkg/googlemaps"
	"github.com/codeGROOVE-dev/oracle/pkg/httpcache"
	"github.com/codeGROOVE-dev/oracle/pkg/httpclient"
	"github.com/codeGROOVE-dev/oracle/pkg/nominatim"
	"github.com/codeGROOVE-dev/oracle/pkg/search"
	"github.com/codeGROOVE-dev/oracle/pkg/suggest"
	"github.com/codeGROOVE-dev/oracle/pkg/timeapi"
	"github.com/codeGROOVE-dev/oracle/pkg/tzfinder"
)

const (
	diskCacheTTL   = 30 * 24 * time.Hour
	memoryCacheTTL = 12 * time.Hour
)

// Engine wires providers into a geocoder adapter and a suggestion aggregator.
type Engine struct {
	logger     *slog.Logger
	cache      *httpcache.Cache
	adapter    *geocoder.Adapter
	aggregator *suggest.Aggregator
	providers  []string
}

// New creates an Engine using slog.Default.
func New(ctx context.Context, opts ...Option) *Engine {
	return NewWithLogger(ctx, slog.Default(), opts...)
}

// NewWithLogger creates an Engine. Providers that cannot be configured are
// logged and skipped; the gazetteer and estimator always remain.
func NewWithLogger(ctx context.Context, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	o := &OptionHolder{}
	for _, opt := range opts {
		opt(o)
	}

	e := &Engine{logger: logger}
	if !o.offline {
		e.cache = newCache(ctx, o, logger)
	}

	var doer httpclient.Doer
	var maps *googlemaps.Client
	if !o.offline {
		var clientOpts []httpclient.Option
		if o.transport != nil {
			clientOpts = append(clientOpts, httpclient.WithTransport(o.transport))
		}
		base := httpclient.New(logger, clientOpts...)
		doer = httpcache.NewClient(e.cache, base, logger)
		if o.mapsAPIKey != "" {
			mapsDoer := httpcache.NewClient(e.cache, base, logger, httpcache.WithValidator(googlemaps.Cacheable))
			maps = googlemaps.NewClient(o.mapsAPIKey, mapsDoer, logger)
		}
	}

	searches := e.placeSearches(ctx, o, doer, maps)
	lookups := e.timezoneLookups(o, doer, maps)

	var placeSearch geocoder.PlaceSearch
	if len(searches) > 0 {
		placeSearch = geocoder.Chain(searches...)
	}
	e.adapter = geocoder.NewAdapter(placeSearch, logger, geocoder.WithTimezoneLookups(lookups...))

	var remote suggest.Geocoder
	if placeSearch != nil {
		remote = e.adapter
	}
	e.aggregator = suggest.New(logger, suggest.DefaultStrategies(remote)...)

	logger.Info("location engine ready", "providers", e.providers, "offline", o.offline, "cache", e.cache != nil)
	return e
}

func newCache(ctx context.Context, o *OptionHolder, logger *slog.Logger) *httpcache.Cache {
	switch {
	case o.noCache:
		logger.Info("caching disabled by --no-cache flag")
		return nil
	case o.memoryOnlyCache:
		return httpcache.NewMemoryCache(memoryCacheTTL, logger)
	}

	dir := o.cacheDir
	if dir == "" {
		userCacheDir, err := os.UserCacheDir()
		if err != nil {
			logger.Debug("could not determine user cache directory", "error", err)
			return httpcache.NewMemoryCache(memoryCacheTTL, logger)
		}
		dir = filepath.Join(userCacheDir, "oracle")
	}
	cache, err := httpcache.NewCache(ctx, dir, diskCacheTTL, logger)
	if err != nil {
		logger.Warn("cache initialization failed", "error", err, "cache_dir", dir)
		return httpcache.NewMemoryCache(memoryCacheTTL, logger)
	}
	return cache
}

// placeSearches returns providers in preference order: Google Maps when
// keyed, then Nominatim, then Gemini.
func (e *Engine) placeSearches(ctx context.Context, o *OptionHolder, doer httpclient.Doer, maps *googlemaps.Client) []geocoder.PlaceSearch {
	if o.offline {
		return nil
	}
	var out []geocoder.PlaceSearch

	if maps != nil {
		out = append(out, maps)
		e.providers = append(e.providers, "googlemaps")
	}

	ua := o.userAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	var nomOpts []nominatim.Option
	if o.nominatimURL != "" {
		nomOpts = append(nomOpts, nominatim.WithBaseURL(o.nominatimURL))
	}
	if n, err := nominatim.NewClient(ua, doer, e.logger, nomOpts...); err != nil {
		e.logger.Warn("nominatim disabled", "error", err)
	} else {
		out = append(out, n)
		e.providers = append(e.providers, "nominatim")
	}

	if o.geminiAPIKey != "" || o.gcpProject != "" {
		var gemOpts []gemini.Option
		if e.cache != nil {
			gemOpts = append(gemOpts, gemini.WithCache(e.cache))
		}
		g, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:     o.geminiAPIKey,
			Model:      o.geminiModel,
			GCPProject: o.gcpProject,
		}, e.logger, gemOpts...)
		if err != nil {
			e.logger.Warn("gemini place search disabled", "error", err)
		} else {
			out = append(out, g)
			e.providers = append(e.providers, "gemini")
		}
	}
	return out
}

// timezoneLookups returns the remote services first and the offline
// polygons last; the adapter falls back to the estimator after these.
func (e *Engine) timezoneLookups(o *OptionHolder, doer httpclient.Doer, maps *googlemaps.Client) []geocoder.TimezoneLookup {
	var out []geocoder.TimezoneLookup
	if !o.offline {
		if maps != nil {
			out = append(out, maps)
		}
		out = append(out, timeapi.NewClient(o.timeAPIURL, doer, e.logger))
		e.providers = append(e.providers, "timeapi")
	}

	f, err := tzfinder.New()
	if err != nil {
		e.logger.Warn("offline timezone polygons unavailable", "error", err)
		return out
	}
	e.providers = append(e.providers, "tzf")
	return append(out, f)
}

// Suggest builds the suggestion list for query.
func (e *Engine) Suggest(ctx context.Context, query string) suggest.Result {
	return e.aggregator.Build(ctx, query)
}

// Timezone resolves coordinates through the lookup chain and estimator.
func (e *Engine) Timezone(ctx context.Context, lat, lng float64) geocoder.Resolution {
	return e.adapter.ResolveTimezone(ctx, lat, lng)
}

// NewController returns a debounced search controller over this engine.
func (e *Engine) NewController(opts ...search.Option) *search.Controller {
	return search.New(e.aggregator, e.logger, opts...)
}

// Providers lists the configured providers in the order they are tried.
func (e *Engine) Providers() []string {
	return append([]string(nil), e.providers...)
}

// Close saves the cache to disk.
func (e *Engine) Close() error {
	if e.cache != nil {
		return e.cache.Close()
	}
	return nil
}
