// Package tzestimate guesses an IANA timezone from coordinates alone.
// It is the last resort when no timezone service answers.
package tzestimate

import (
	"math"

	"github.com/codeGROOVE-dev/oracle/pkg/gazetteer"
	"github.com/golang/geo/s2"
)

// DefaultTimezone is returned when no heuristic applies.
const DefaultTimezone = "UTC"

// NearbyDegrees is how close, in both latitude and longitude, a reference
// city must be for its timezone to be borrowed.
const NearbyDegrees = 2.0

// referenceCities are anchors for the nearest-city heuristic. They favour
// places whose timezone differs from their longitude band.
var referenceCities = []gazetteer.Entry{
	{Key: "new york", Timezone: "America/New_York", Latitude: 40.7128, Longitude: -74.0060},
	{Key: "los angeles", Timezone: "America/Los_Angeles", Latitude: 34.0522, Longitude: -118.2437},
	{Key: "chicago", Timezone: "America/Chicago", Latitude: 41.8781, Longitude: -87.6298},
	{Key: "denver", Timezone: "America/Denver", Latitude: 39.7392, Longitude: -104.9903},
	{Key: "phoenix", Timezone: "America/Phoenix", Latitude: 33.4484, Longitude: -112.0740},
	{Key: "mexico city", Timezone: "America/Mexico_City", Latitude: 19.4326, Longitude: -99.1332},
	{Key: "sao paulo", Timezone: "America/Sao_Paulo", Latitude: -23.5505, Longitude: -46.6333},
	{Key: "buenos aires", Timezone: "America/Argentina/Buenos_Aires", Latitude: -34.6037, Longitude: -58.3816},
	{Key: "london", Timezone: "Europe/London", Latitude: 51.5074, Longitude: -0.1278},
	{Key: "paris", Timezone: "Europe/Paris", Latitude: 48.8566, Longitude: 2.3522},
	{Key: "madrid", Timezone: "Europe/Madrid", Latitude: 40.4168, Longitude: -3.7038},
	{Key: "berlin", Timezone: "Europe/Berlin", Latitude: 52.5200, Longitude: 13.4050},
	{Key: "moscow", Timezone: "Europe/Moscow", Latitude: 55.7558, Longitude: 37.6173},
	{Key: "cairo", Timezone: "Africa/Cairo", Latitude: 30.0444, Longitude: 31.2357},
	{Key: "dubai", Timezone: "Asia/Dubai", Latitude: 25.2048, Longitude: 55.2708},
	{Key: "tehran", Timezone: "Asia/Tehran", Latitude: 35.6892, Longitude: 51.3890},
	{Key: "mumbai", Timezone: "Asia/Kolkata", Latitude: 19.0760, Longitude: 72.8777},
	{Key: "delhi", Timezone: "Asia/Kolkata", Latitude: 28.7041, Longitude: 77.1025},
	{Key: "kathmandu", Timezone: "Asia/Kathmandu", Latitude: 27.7172, Longitude: 85.3240},
	{Key: "bangkok", Timezone: "Asia/Bangkok", Latitude: 13.7563, Longitude: 100.5018},
	{Key: "singapore", Timezone: "Asia/Singapore", Latitude: 1.3521, Longitude: 103.8198},
	{Key: "shanghai", Timezone: "Asia/Shanghai", Latitude: 31.2304, Longitude: 121.4737},
	{Key: "tokyo", Timezone: "Asia/Tokyo", Latitude: 35.6762, Longitude: 139.6503},
	{Key: "adelaide", Timezone: "Australia/Adelaide", Latitude: -34.9285, Longitude: 138.6007},
	{Key: "sydney", Timezone: "Australia/Sydney", Latitude: -33.8688, Longitude: 151.2093},
	{Key: "auckland", Timezone: "Pacific/Auckland", Latitude: -36.8485, Longitude: 174.7633},
}

// estimator is one step of the fallback pipeline.
type estimator func(lat, lng float64, candidates []gazetteer.Entry) (string, bool)

var pipeline = []estimator{nearestCity, longitudeBand}

// Estimate returns a best-guess timezone for the coordinates. Candidate
// cities are scanned before the built-in references. It never fails.
func Estimate(lat, lng float64, candidates ...gazetteer.Entry) string {
	for _, step := range pipeline {
		if tz, ok := step(lat, lng, candidates); ok {
			return tz
		}
	}
	return DefaultTimezone
}

// nearestCity picks the closest city lying within NearbyDegrees on both
// axes. Ties keep scan order.
func nearestCity(lat, lng float64, candidates []gazetteer.Entry) (string, bool) {
	here := s2.LatLngFromDegrees(lat, lng)
	best := ""
	bestDist := math.Inf(1)

	scan := func(cities []gazetteer.Entry) {
		for _, c := range cities {
			if math.Abs(c.Latitude-lat) > NearbyDegrees || lngDelta(c.Longitude, lng) > NearbyDegrees {
				continue
			}
			d := here.Distance(s2.LatLngFromDegrees(c.Latitude, c.Longitude)).Radians()
			if d < bestDist {
				best, bestDist = c.Timezone, d
			}
		}
	}
	scan(candidates)
	scan(referenceCities)

	return best, best != ""
}

func longitudeBand(_, lng float64, _ []gazetteer.Entry) (string, bool) {
	b, ok := BandFor(lng)
	if !ok {
		return "", false
	}
	return b.Timezone, true
}

// lngDelta is the absolute longitude difference across the antimeridian.
func lngDelta(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > 180 {
		d = 360 - d
	}
	return d
}
