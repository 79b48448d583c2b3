// Package gazetteer is the static table of well-known birth places.
package gazetteer

import (
	"strings"

	"github.com/codeGROOVE-dev/oracle/pkg/location"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Entry is a known city with coordinates and timezone.
// Key is lower case and is the lookup identity.
type Entry struct {
	Key       string
	Timezone  string
	Latitude  float64
	Longitude float64
}

// entries is read-only after package initialization. Order is the
// relevance order of LookupPrefix results.
var entries = []Entry{
	// North America
	{"new york", "America/New_York", 40.7128, -74.0060},
	{"new york city", "America/New_York", 40.7128, -74.0060},
	{"los angeles", "America/Los_Angeles", 34.0522, -118.2437},
	{"chicago", "America/Chicago", 41.8781, -87.6298},
	{"houston", "America/Chicago", 29.7604, -95.3698},
	{"phoenix", "America/Phoenix", 33.4484, -112.0740},
	{"philadelphia", "America/New_York", 39.9526, -75.1652},
	{"san francisco", "America/Los_Angeles", 37.7749, -122.4194},
	{"seattle", "America/Los_Angeles", 47.6062, -122.3321},
	{"denver", "America/Denver", 39.7392, -104.9903},
	{"boston", "America/New_York", 42.3601, -71.0589},
	{"miami", "America/New_York", 25.7617, -80.1918},
	{"atlanta", "America/New_York", 33.7490, -84.3880},
	{"new orleans", "America/Chicago", 29.9511, -90.0715},
	{"washington", "America/New_York", 38.9072, -77.0369},
	{"toronto", "America/Toronto", 43.6532, -79.3832},
	{"vancouver", "America/Vancouver", 49.2827, -123.1207},
	{"montreal", "America/Toronto", 45.5017, -73.5673},
	{"mexico city", "America/Mexico_City", 19.4326, -99.1332},
	{"honolulu", "Pacific/Honolulu", 21.3069, -157.8583},
	{"anchorage", "America/Anchorage", 61.2181, -149.9003},

	// Europe
	{"london", "Europe/London", 51.5074, -0.1278},
	{"paris", "Europe/Paris", 48.8566, 2.3522},
	{"berlin", "Europe/Berlin", 52.5200, 13.4050},
	{"madrid", "Europe/Madrid", 40.4168, -3.7038},
	{"barcelona", "Europe/Madrid", 41.3851, 2.1734},
	{"rome", "Europe/Rome", 41.9028, 12.4964},
	{"amsterdam", "Europe/Amsterdam", 52.3676, 4.9041},
	{"dublin", "Europe/Dublin", 53.3498, -6.2603},
	{"lisbon", "Europe/Lisbon", 38.7223, -9.1393},
	{"zurich", "Europe/Zurich", 47.3769, 8.5417},
	{"vienna", "Europe/Vienna", 48.2082, 16.3738},
	{"stockholm", "Europe/Stockholm", 59.3293, 18.0686},
	{"athens", "Europe/Athens", 37.9838, 23.7275},
	{"istanbul", "Europe/Istanbul", 41.0082, 28.9784},
	{"moscow", "Europe/Moscow", 55.7558, 37.6173},

	// Africa and Middle East
	{"cairo", "Africa/Cairo", 30.0444, 31.2357},
	{"lagos", "Africa/Lagos", 6.5244, 3.3792},
	{"nairobi", "Africa/Nairobi", -1.2921, 36.8219},
	{"johannesburg", "Africa/Johannesburg", -26.2041, 28.0473},
	{"dubai", "Asia/Dubai", 25.2048, 55.2708},

	// Asia
	{"mumbai", "Asia/Kolkata", 19.0760, 72.8777},
	{"new delhi", "Asia/Kolkata", 28.6139, 77.2090},
	{"bangalore", "Asia/Kolkata", 12.9716, 77.5946},
	{"bangkok", "Asia/Bangkok", 13.7563, 100.5018},
	{"singapore", "Asia/Singapore", 1.3521, 103.8198},
	{"hong kong", "Asia/Hong_Kong", 22.3193, 114.1694},
	{"shanghai", "Asia/Shanghai", 31.2304, 121.4737},
	{"beijing", "Asia/Shanghai", 39.9042, 116.4074},
	{"seoul", "Asia/Seoul", 37.5665, 126.9780},
	{"tokyo", "Asia/Tokyo", 35.6762, 139.6503},
	{"osaka", "Asia/Tokyo", 34.6937, 135.5023},
	{"manila", "Asia/Manila", 14.5995, 120.9842},
	{"jakarta", "Asia/Jakarta", -6.2088, 106.8456},

	// Oceania
	{"sydney", "Australia/Sydney", -33.8688, 151.2093},
	{"melbourne", "Australia/Melbourne", -37.8136, 144.9631},
	{"brisbane", "Australia/Brisbane", -27.4698, 153.0251},
	{"perth", "Australia/Perth", -31.9505, 115.8605},
	{"auckland", "Pacific/Auckland", -36.8485, 174.7633},

	// South America
	{"sao paulo", "America/Sao_Paulo", -23.5505, -46.6333},
	{"rio de janeiro", "America/Sao_Paulo", -22.9068, -43.1729},
	{"buenos aires", "America/Argentina/Buenos_Aires", -34.6037, -58.3816},
	{"lima", "America/Lima", -12.0464, -77.0428},
	{"bogota", "America/Bogota", 4.7110, -74.0721},
	{"santiago", "America/Santiago", -33.4489, -70.6693},
}

// Normalize lower-cases and trims a place query.
func Normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// LookupPrefix returns every entry whose key starts with or contains the
// normalized query, in table order.
func LookupPrefix(query string) []location.Candidate {
	q := Normalize(query)
	if q == "" {
		return nil
	}

	var matches []location.Candidate
	for _, e := range entries {
		if strings.HasPrefix(e.Key, q) || strings.Contains(e.Key, q) {
			matches = append(matches, e.Candidate())
		}
	}
	return matches
}

// Lookup returns the entry whose key equals the normalized name.
func Lookup(name string) (Entry, bool) {
	key := Normalize(name)
	for _, e := range entries {
		if e.Key == key {
			return e, true
		}
	}
	return Entry{}, false
}

// Entries returns a copy of the table.
func Entries() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// DisplayName renders the key with each word capitalized. A Caser is
// stateful, so one is built per call.
func (e Entry) DisplayName() string {
	return cases.Title(language.Und).String(e.Key)
}

// Candidate converts the entry into a suggestion.
func (e Entry) Candidate() location.Candidate {
	return location.Candidate{
		DisplayName: e.DisplayName(),
		Latitude:    e.Latitude,
		Longitude:   e.Longitude,
		Timezone:    e.Timezone,
		Source:      location.SourceGazetteer,
	}
}
