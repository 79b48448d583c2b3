// Package tzconvert validates IANA timezone names and renders UTC offsets.
// Offsets are informational: the birth instant's DST state is not resolved.
package tzconvert

import (
	"fmt"
	"strings"
	"time"
)

// IsValid reports whether tz names a zone in the local tz database.
// "Local" and the empty string are rejected even though LoadLocation accepts them.
func IsValid(tz string) bool {
	tz = strings.TrimSpace(tz)
	if tz == "" || tz == "Local" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

// Offset returns the zone's UTC offset in seconds at the given instant.
func Offset(tz string, at time.Time) (int, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return 0, fmt.Errorf("loading timezone %q: %w", tz, err)
	}
	_, offset := at.In(loc).Zone()
	return offset, nil
}

// Label formats an offset in seconds like "UTC+5:30", "UTC-8" or "UTC".
func Label(offsetSeconds int) string {
	if offsetSeconds == 0 {
		return "UTC"
	}
	sign := "+"
	if offsetSeconds < 0 {
		sign = "-"
		offsetSeconds = -offsetSeconds
	}
	hours := offsetSeconds / 3600
	minutes := (offsetSeconds % 3600) / 60
	if minutes == 0 {
		return fmt.Sprintf("UTC%s%d", sign, hours)
	}
	return fmt.Sprintf("UTC%s%d:%02d", sign, hours, minutes)
}

// OffsetLabel is Label(Offset(tz, at)); unknown zones render as "".
func OffsetLabel(tz string, at time.Time) string {
	off, err := Offset(tz, at)
	if err != nil {
		return ""
	}
	return Label(off)
}
