// Package geocoder turns free-text place queries into location candidates
// using remote place search and timezone services, degrading to the
// geographic estimator whenever a service fails.
package geocoder

import (
	"context"
	"errors"
)

// Failure classes. Providers wrap their errors with one of these; none of
// them ever reach Adapter callers.
var (
	ErrNetwork     = errors.New("network failure")
	ErrEmptyResult = errors.New("empty result")
	ErrParse       = errors.New("parse failure")
)

// Place is a raw place-search hit. Coordinates stay textual, as the
// services return them.
type Place struct {
	DisplayName string
	Lat         string
	Lon         string
}

// PlaceSearch finds places matching a free-text query.
type PlaceSearch interface {
	Search(ctx context.Context, query string, limit int) ([]Place, error)
}

// TimezoneLookup resolves coordinates to an IANA timezone identifier.
type TimezoneLookup interface {
	Timezone(ctx context.Context, lat, lng float64) (string, error)
}

// PlaceSearchFunc adapts a function to PlaceSearch.
type PlaceSearchFunc func(ctx context.Context, query string, limit int) ([]Place, error)

// Search implements PlaceSearch.
func (f PlaceSearchFunc) Search(ctx context.Context, query string, limit int) ([]Place, error) {
	return f(ctx, query, limit)
}

// TimezoneLookupFunc adapts a function to TimezoneLookup.
type TimezoneLookupFunc func(ctx context.Context, lat, lng float64) (string, error)

// Timezone implements TimezoneLookup.
func (f TimezoneLookupFunc) Timezone(ctx context.Context, lat, lng float64) (string, error) {
	return f(ctx, lat, lng)
}
