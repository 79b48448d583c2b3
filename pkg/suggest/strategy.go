package suggest

import (
	"context"

	"github.com/codeGROOVE-dev/oracle/pkg/gazetteer"
	"github.com/codeGROOVE-dev/oracle/pkg/location"
)

// Strategy is one layer of the lookup pipeline. Suggest returns at most
// limit candidates; an error means the layer contributes nothing.
type Strategy interface {
	Name() string
	Suggest(ctx context.Context, query string, limit int) ([]location.Candidate, error)
}

// Geocoder is the remote lookup used by RemoteStrategy. *geocoder.Adapter
// satisfies it.
type Geocoder interface {
	Geocode(ctx context.Context, query string, limit int) []location.Candidate
}

// GazetteerStrategy matches the built-in city table.
type GazetteerStrategy struct{}

// Name implements Strategy.
func (GazetteerStrategy) Name() string { return "gazetteer" }

// Suggest implements Strategy.
func (GazetteerStrategy) Suggest(_ context.Context, query string, limit int) ([]location.Candidate, error) {
	matches := gazetteer.LookupPrefix(query)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// RemoteStrategy asks a remote geocoder for the remaining slots.
type RemoteStrategy struct {
	Geocoder Geocoder
}

// Name implements Strategy.
func (RemoteStrategy) Name() string { return "remote" }

// Suggest implements Strategy.
func (r RemoteStrategy) Suggest(ctx context.Context, query string, limit int) ([]location.Candidate, error) {
	if r.Geocoder == nil {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.Geocoder.Geocode(ctx, query, limit), nil
}

// DefaultStrategies is the gazetteer followed by g. A nil g leaves the
// gazetteer alone.
func DefaultStrategies(g Geocoder) []Strategy {
	if g == nil {
		return []Strategy{GazetteerStrategy{}}
	}
	return []Strategy{GazetteerStrategy{}, RemoteStrategy{Geocoder: g}}
}
