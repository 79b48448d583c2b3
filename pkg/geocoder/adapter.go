package geocoder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/codeGROOVE-dev/oracle/pkg/gazetteer"
	"github.com/codeGROOVE-dev/oracle/pkg/location"
	"github.com/codeGROOVE-dev/oracle/pkg/tzconvert"
	"github.com/codeGROOVE-dev/oracle/pkg/tzestimate"
	"golang.org/x/sync/errgroup"
)

// SourceEstimate marks a timezone produced by the geographic estimator.
const SourceEstimate = "estimate"

// Resolution is a timezone together with the lookup that produced it.
type Resolution struct {
	Timezone string `json:"timezone"`
	Source   string `json:"source"`
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithTimezoneLookups sets the ordered timezone lookups tried before the
// geographic estimator.
func WithTimezoneLookups(lookups ...TimezoneLookup) Option {
	return func(a *Adapter) {
		a.timezones = append(a.timezones, lookups...)
	}
}

// WithParallelism bounds concurrent timezone lookups per Geocode call.
func WithParallelism(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.parallelism = n
		}
	}
}

// Adapter wraps a place search and a timezone lookup chain. It never
// returns errors: failures are logged and yield fewer candidates.
type Adapter struct {
	search      PlaceSearch
	logger      *slog.Logger
	timezones   []TimezoneLookup
	parallelism int
}

// NewAdapter returns an adapter over search. A nil search makes Geocode a no-op.
func NewAdapter(search PlaceSearch, logger *slog.Logger, opts ...Option) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Adapter{
		search:      search,
		logger:      logger,
		parallelism: 3,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Geocode returns up to limit candidates for query. Search failures and
// empty results produce an empty slice; unparseable hits are skipped.
func (a *Adapter) Geocode(ctx context.Context, query string, limit int) []location.Candidate {
	if a.search == nil || limit <= 0 {
		return nil
	}

	places, err := a.search.Search(ctx, query, limit)
	if err != nil {
		a.logger.Warn("place search failed", "query", query, "error", err)
		return nil
	}
	if len(places) == 0 {
		a.logger.Debug("place search returned nothing", "query", query, "error", ErrEmptyResult)
		return nil
	}
	if len(places) > limit {
		places = places[:limit]
	}

	var parsed []location.Candidate
	for _, p := range places {
		c, err := toCandidate(p)
		if err != nil {
			a.logger.Debug("skipping place", "query", query, "place", p.DisplayName, "error", err)
			continue
		}
		parsed = append(parsed, c)
	}

	// Results are written by index so relevance order survives concurrency.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.parallelism)
	for i := range parsed {
		g.Go(func() error {
			parsed[i].Timezone = a.ResolveTimezone(gctx, parsed[i].Latitude, parsed[i].Longitude).Timezone
			return nil
		})
	}
	_ = g.Wait() // workers never fail

	return parsed
}

// ResolveTimezone tries each lookup in order, accepting the first valid
// IANA identifier, and falls back to the geographic estimator.
func (a *Adapter) ResolveTimezone(ctx context.Context, lat, lng float64) Resolution {
	for _, l := range a.timezones {
		tz, err := l.Timezone(ctx, lat, lng)
		if err == nil && !tzconvert.IsValid(tz) {
			err = fmt.Errorf("%w: invalid timezone %q", ErrParse, tz)
		}
		if err != nil {
			a.logger.Debug("timezone lookup failed", "lookup", lookupName(l), "lat", lat, "lng", lng, "error", err)
			continue
		}
		return Resolution{Timezone: tz, Source: lookupName(l)}
	}

	tz := tzestimate.Estimate(lat, lng, gazetteer.Entries()...)
	a.logger.Debug("timezone estimated from coordinates", "lat", lat, "lng", lng, "timezone", tz)
	return Resolution{Timezone: tz, Source: SourceEstimate}
}

func toCandidate(p Place) (location.Candidate, error) {
	name := ShortName(p.DisplayName)
	if name == "" {
		return location.Candidate{}, fmt.Errorf("%w: empty display name", ErrParse)
	}
	lat, err := parseCoord(p.Lat, 90)
	if err != nil {
		return location.Candidate{}, fmt.Errorf("latitude %q: %w", p.Lat, err)
	}
	lng, err := parseCoord(p.Lon, 180)
	if err != nil {
		return location.Candidate{}, fmt.Errorf("longitude %q: %w", p.Lon, err)
	}
	return location.Candidate{
		DisplayName: name,
		Latitude:    lat,
		Longitude:   lng,
		Source:      location.SourceRemote,
	}, nil
}

func parseCoord(s string, bound float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.Join(ErrParse, err)
	}
	if math.IsNaN(v) || math.Abs(v) > bound {
		return 0, fmt.Errorf("%w: out of range", ErrParse)
	}
	return v, nil
}

// ShortName keeps the first two comma-separated components of a full
// address, so "Shibuya, Tokyo, Japan" becomes "Shibuya, Tokyo".
func ShortName(full string) string {
	var parts []string
	for _, p := range strings.Split(full, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
		if len(parts) == 2 {
			break
		}
	}
	return strings.Join(parts, ", ")
}

func lookupName(l TimezoneLookup) string {
	if n, ok := l.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", l)
}
