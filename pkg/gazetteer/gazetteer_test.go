package gazetteer

import (
	"reflect"
	"strings"
	"testing"
)

func TestLookupPrefix(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"prefix matches in table order", "new", []string{"New York", "New York City", "New Orleans", "New Delhi"}},
		{"case and whitespace are normalized", "  TOKYO ", []string{"Tokyo"}},
		{"substring match", "lon", []string{"London", "Barcelona"}},
		{"longer prefix narrows", "londo", []string{"London"}},
		{"multi word key", "sao p", []string{"Sao Paulo"}},
		{"no match", "atlantis", nil},
		{"empty query", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LookupPrefix(tt.query)
			var names []string
			for _, c := range got {
				names = append(names, c.DisplayName)
			}
			if !reflect.DeepEqual(names, tt.want) {
				t.Errorf("LookupPrefix(%q) = %v, want %v", tt.query, names, tt.want)
			}
		})
	}
}

func TestLookupPrefixIsStable(t *testing.T) {
	first := LookupPrefix("new")
	second := LookupPrefix("new")
	if !reflect.DeepEqual(first, second) {
		t.Errorf("LookupPrefix not deterministic: %v vs %v", first, second)
	}
}

func TestLookupPrefixTokyoCoordinates(t *testing.T) {
	got := LookupPrefix("Tokyo")
	if len(got) != 1 {
		t.Fatalf("expected a single match for Tokyo, got %d", len(got))
	}
	c := got[0]
	if c.Latitude != 35.6762 || c.Longitude != 139.6503 || c.Timezone != "Asia/Tokyo" {
		t.Errorf("unexpected Tokyo candidate: %+v", c)
	}
	if c.Source != "gazetteer" {
		t.Errorf("Source = %q, want gazetteer", c.Source)
	}
}

func TestLookup(t *testing.T) {
	e, ok := Lookup(" Paris ")
	if !ok {
		t.Fatal("expected Paris to be found")
	}
	if e.Timezone != "Europe/Paris" {
		t.Errorf("Paris timezone = %q", e.Timezone)
	}
	if _, ok := Lookup("par"); ok {
		t.Error("Lookup should require an exact key")
	}
}

func TestEntriesAreWellFormed(t *testing.T) {
	seen := make(map[string]bool)
	for _, e := range Entries() {
		if e.Key != strings.ToLower(strings.TrimSpace(e.Key)) {
			t.Errorf("key %q is not normalized", e.Key)
		}
		if seen[e.Key] {
			t.Errorf("duplicate key %q", e.Key)
		}
		seen[e.Key] = true
		if e.Latitude < -90 || e.Latitude > 90 || e.Longitude < -180 || e.Longitude >= 180 {
			t.Errorf("%s has coordinates out of range: %v,%v", e.Key, e.Latitude, e.Longitude)
		}
		if !strings.Contains(e.Timezone, "/") {
			t.Errorf("%s has non-IANA timezone %q", e.Key, e.Timezone)
		}
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	list := Entries()
	list[0].Key = "mutated"
	if Entries()[0].Key == "mutated" {
		t.Error("Entries exposed the backing table")
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"rio de janeiro": "Rio De Janeiro",
		"new york city":  "New York City",
		"london":         "London",
	}
	for key, want := range tests {
		if got := (Entry{Key: key}).DisplayName(); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", key, got, want)
		}
	}
}
