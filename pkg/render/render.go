// Package render formats suggestions and resolved timezones for terminals.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/oracle/pkg/location"
	"github.com/codeGROOVE-dev/oracle/pkg/tzconvert"
	"github.com/fatih/color"
)

var (
	indexColor  = color.New(color.FgHiBlack)
	nameColor   = color.New(color.Bold)
	remoteColor = color.New(color.FgCyan)
	nightColor  = color.New(color.FgBlue)
	workColor   = color.New(color.FgYellow)
	okColor     = color.New(color.FgGreen)
)

// Suggestions writes a numbered dropdown. Nothing is written for an empty list.
func Suggestions(w io.Writer, cands []location.Candidate, at time.Time) {
	for i, c := range cands {
		source := c.Source
		if source == location.SourceRemote {
			source = remoteColor.Sprint(source)
		}
		fmt.Fprintf(w, "%s %s  %s (%s)  %.4f, %.4f  %s\n",
			indexColor.Sprintf("%d.", i),
			nameColor.Sprint(c.DisplayName),
			c.Timezone,
			tzconvert.OffsetLabel(c.Timezone, at),
			c.Latitude, c.Longitude,
			source)
	}
}

// Resolved writes the committed birth place.
func Resolved(w io.Writer, b location.BirthData, at time.Time) {
	fmt.Fprintf(w, "%s %s\n", okColor.Sprint("✓"), nameColor.Sprint(b.BirthPlace))
	fmt.Fprintf(w, "  timezone:  %s (%s)\n", b.Timezone, tzconvert.OffsetLabel(b.Timezone, at))
	fmt.Fprintf(w, "  latitude:  %.4f\n", b.Latitude)
	fmt.Fprintf(w, "  longitude: %.4f\n", b.Longitude)
}

// HourStrip shows the local hour in tz for every UTC hour of the day
// containing at. Night hours (22:00-06:00) are marked blue and working
// hours (09:00-17:00) yellow.
func HourStrip(tz string, at time.Time) (string, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return "", fmt.Errorf("loading timezone %q: %w", tz, err)
	}

	day := at.UTC().Truncate(24 * time.Hour)
	var utcRow, localRow strings.Builder
	utcRow.WriteString("UTC   ")
	localRow.WriteString("local ")
	for h := range 24 {
		local := day.Add(time.Duration(h) * time.Hour).In(loc)
		fmt.Fprintf(&utcRow, " %02d", h)

		cell := fmt.Sprintf("%02d", local.Hour())
		if local.Minute() != 0 {
			cell = fmt.Sprintf("%02d", local.Hour()) + "'"
		}
		switch hour := local.Hour(); {
		case hour >= 22 || hour < 6:
			cell = nightColor.Sprint(cell)
		case hour >= 9 && hour < 17:
			cell = workColor.Sprint(cell)
		}
		localRow.WriteString(" " + cell)
	}
	return utcRow.String() + "\n" + localRow.String() + "\n", nil
}
