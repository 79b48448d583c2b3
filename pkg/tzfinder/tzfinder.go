// Package tzfinder resolves coordinates to timezones offline using the
// timezone boundary polygons bundled with tzf.
package tzfinder

import (
	"context"
	"fmt"
	"sync"

	"github.com/codeGROOVE-dev/oracle/pkg/geocoder"
	"github.com/ringsaturn/tzf"
)

// The default finder holds the polygon data in memory, so it is built once
// per process and shared.
var loadFinder = sync.OnceValues(func() (tzf.F, error) {
	f, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize timezone finder: %w", err)
	}
	return f, nil
})

// Finder implements geocoder.TimezoneLookup.
type Finder struct {
	finder tzf.F
}

// New returns a Finder backed by the shared default polygon set.
func New() (*Finder, error) {
	f, err := loadFinder()
	if err != nil {
		return nil, err
	}
	return &Finder{finder: f}, nil
}

// Name identifies the lookup in logs.
func (*Finder) Name() string { return "tzf" }

// Timezone returns the IANA name for the given coordinates.
func (f *Finder) Timezone(ctx context.Context, lat, lng float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tz := f.finder.GetTimezoneName(lng, lat)
	if tz == "" {
		return "", fmt.Errorf("%w: no timezone polygon for lat=%f, lng=%f", geocoder.ErrEmptyResult, lat, lng)
	}
	return tz, nil
}
