package tzestimate

import "math"

// Band is a half-open longitude interval [Min, Max) with a representative
// timezone.
type Band struct {
	Timezone string
	Min      float64
	Max      float64
}

// Contains reports whether lng falls inside the band.
func (b Band) Contains(lng float64) bool {
	return lng >= b.Min && lng < b.Max
}

// bands partitions [-180, 180) into contiguous 15 degree slices, west to east.
var bands = []Band{
	{"Pacific/Pago_Pago", -180, -165},
	{"Pacific/Honolulu", -165, -150},
	{"America/Anchorage", -150, -135},
	{"America/Los_Angeles", -135, -120},
	{"America/Denver", -120, -105},
	{"America/Chicago", -105, -90},
	{"America/New_York", -90, -75},
	{"America/Halifax", -75, -60},
	{"America/Sao_Paulo", -60, -45},
	{"Atlantic/South_Georgia", -45, -30},
	{"Atlantic/Azores", -30, -15},
	{"Europe/London", -15, 0},
	{"Europe/Paris", 0, 15},
	{"Europe/Athens", 15, 30},
	{"Europe/Moscow", 30, 45},
	{"Asia/Dubai", 45, 60},
	{"Asia/Karachi", 60, 75},
	{"Asia/Dhaka", 75, 90},
	{"Asia/Bangkok", 90, 105},
	{"Asia/Shanghai", 105, 120},
	{"Asia/Tokyo", 120, 135},
	{"Australia/Sydney", 135, 150},
	{"Pacific/Noumea", 150, 165},
	{"Pacific/Auckland", 165, 180},
}

// Bands returns a copy of the longitude band table.
func Bands() []Band {
	out := make([]Band, len(bands))
	copy(out, bands)
	return out
}

// BandFor returns the band containing lng. Longitudes outside [-180, 180)
// are wrapped first; non-finite input has no band.
func BandFor(lng float64) (Band, bool) {
	l := wrapLongitude(lng)
	for _, b := range bands {
		if b.Contains(l) {
			return b, true
		}
	}
	return Band{}, false
}

func wrapLongitude(lng float64) float64 {
	if lng >= -180 && lng < 180 {
		return lng
	}
	l := math.Mod(lng+180, 360)
	if l < 0 {
		l += 360
	}
	if l >= 360 {
		l = 0
	}
	return l - 180
}
