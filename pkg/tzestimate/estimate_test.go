package tzestimate

import (
	"math"
	"testing"

	"github.com/codeGROOVE-dev/oracle/pkg/gazetteer"
)

func TestBandsArePartition(t *testing.T) {
	list := Bands()
	if list[0].Min != -180 {
		t.Fatalf("first band starts at %v, want -180", list[0].Min)
	}
	if list[len(list)-1].Max != 180 {
		t.Fatalf("last band ends at %v, want 180", list[len(list)-1].Max)
	}
	for i := 1; i < len(list); i++ {
		if list[i].Min != list[i-1].Max {
			t.Errorf("gap or overlap between %+v and %+v", list[i-1], list[i])
		}
		if list[i].Min >= list[i].Max {
			t.Errorf("band %+v is empty or reversed", list[i])
		}
	}
}

func TestEveryLongitudeHasExactlyOneBand(t *testing.T) {
	for lng := -180.0; lng < 180; lng += 0.25 {
		n := 0
		for _, b := range Bands() {
			if b.Contains(lng) {
				n++
			}
		}
		if n != 1 {
			t.Fatalf("longitude %v matched %d bands", lng, n)
		}
		if _, ok := BandFor(lng); !ok {
			t.Fatalf("BandFor(%v) found nothing", lng)
		}
	}
}

func TestBandForWrapsLongitude(t *testing.T) {
	tests := []struct {
		lng  float64
		want string
	}{
		{-130, "America/Los_Angeles"},
		{180, "Pacific/Pago_Pago"},
		{190, "Pacific/Pago_Pago"},
		{-190, "Pacific/Auckland"},
		{540, "Pacific/Pago_Pago"},
		{2.35, "Europe/Paris"},
	}
	for _, tt := range tests {
		b, ok := BandFor(tt.lng)
		if !ok || b.Timezone != tt.want {
			t.Errorf("BandFor(%v) = %q, %v; want %q", tt.lng, b.Timezone, ok, tt.want)
		}
	}
}

func TestEstimate(t *testing.T) {
	tests := []struct {
		name string
		lat  float64
		lng  float64
		want string
	}{
		{"Mumbai exact", 19.0760, 72.8777, "Asia/Kolkata"},
		{"near Mumbai", 19.9, 73.8, "Asia/Kolkata"},
		{"near Tokyo", 35.4, 139.2, "Asia/Tokyo"},
		{"open Pacific uses band", 0, -140, "America/Anchorage"},
		{"Atlantic uses band", 30, -40, "Atlantic/South_Georgia"},
		{"just outside Mumbai box", 19.0760, 75.5, "Asia/Dhaka"},
		{"antimeridian", -10, 179.9, "Pacific/Auckland"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Estimate(tt.lat, tt.lng); got != tt.want {
				t.Errorf("Estimate(%v, %v) = %q, want %q", tt.lat, tt.lng, got, tt.want)
			}
		})
	}
}

func TestNearestCityBeatsBand(t *testing.T) {
	b, _ := BandFor(72.8777)
	if b.Timezone == "Asia/Kolkata" {
		t.Fatal("test premise broken: Mumbai band already maps to Asia/Kolkata")
	}
	if got := Estimate(19.5, 72.0); got != "Asia/Kolkata" {
		t.Errorf("Estimate near Mumbai = %q, want Asia/Kolkata", got)
	}
}

func TestEstimatePrefersClosestCity(t *testing.T) {
	// Both candidates are inside the box; the second is closer.
	cands := []gazetteer.Entry{
		{Key: "far", Timezone: "Etc/GMT+1", Latitude: 11.5, Longitude: 11.5},
		{Key: "near", Timezone: "Etc/GMT-1", Latitude: 10.1, Longitude: 10.1},
	}
	if got := Estimate(10, 10, cands...); got != "Etc/GMT-1" {
		t.Errorf("Estimate = %q, want Etc/GMT-1", got)
	}
}

func TestEstimateCandidatesExtendReferences(t *testing.T) {
	cand := gazetteer.Entry{Key: "reykjavik", Timezone: "Atlantic/Reykjavik", Latitude: 64.1466, Longitude: -21.9426}
	if got := Estimate(64.0, -22.0); got == "Atlantic/Reykjavik" {
		t.Fatal("test premise broken: reference list already covers Reykjavik")
	}
	if got := Estimate(64.0, -22.0, cand); got != "Atlantic/Reykjavik" {
		t.Errorf("Estimate with candidate = %q, want Atlantic/Reykjavik", got)
	}
}

func TestEstimateNeverEmpty(t *testing.T) {
	inputs := [][2]float64{
		{0, 0}, {90, 179.999}, {-90, -180}, {45, 360},
		{math.NaN(), math.NaN()}, {0, math.Inf(1)},
	}
	for _, in := range inputs {
		if got := Estimate(in[0], in[1]); got == "" {
			t.Errorf("Estimate(%v, %v) returned empty", in[0], in[1])
		}
	}
	if got := Estimate(math.NaN(), math.NaN()); got != DefaultTimezone {
		t.Errorf("Estimate(NaN) = %q, want %q", got, DefaultTimezone)
	}
}
