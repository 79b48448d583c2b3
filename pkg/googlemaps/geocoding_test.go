package googlemaps

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/codeGROOVE-dev/oracle/pkg/geocoder"
	"github.com/codeGROOVE-dev/oracle/pkg/httpcache"
)

func newTestClient(t *testing.T, key string, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(key, srv.Client(), nil, WithBaseURL(srv.URL))
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, "test-key", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/geocode/json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("address") != "Paris" || r.URL.Query().Get("key") != "test-key" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"status":"OK","results":[
			{"formatted_address":"Paris, France","geometry":{"location":{"lat":48.8566,"lng":2.3522},"location_type":"APPROXIMATE"},"types":["locality","political"]},
			{"formatted_address":"France","geometry":{"location":{"lat":46.2,"lng":2.2},"location_type":"APPROXIMATE"},"types":["country","political"]},
			{"formatted_address":"Paris, TX, USA","geometry":{"location":{"lat":33.6609,"lng":-95.5555},"location_type":"APPROXIMATE"},"types":["locality"]},
			{"formatted_address":"Paris, TN, USA","geometry":{"location":{"lat":36.302,"lng":-88.3267},"location_type":"APPROXIMATE"},"types":["locality"]}
		]}`))
	})

	places, err := c.Search(context.Background(), "Paris", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := []geocoder.Place{
		{DisplayName: "Paris, France", Lat: "48.8566", Lon: "2.3522"},
		{DisplayName: "Paris, TX, USA", Lat: "33.6609", Lon: "-95.5555"},
	}
	if len(places) != len(want) {
		t.Fatalf("got %d places, want %d: %+v", len(places), len(want), places)
	}
	for i := range want {
		if places[i] != want[i] {
			t.Errorf("place %d = %+v, want %+v", i, places[i], want[i])
		}
	}
}

func TestSearchStatuses(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"zero results", `{"status":"ZERO_RESULTS","results":[]}`, nil},
		{"denied", `{"status":"REQUEST_DENIED","error_message":"bad key"}`, geocoder.ErrNetwork},
		{"garbage", `<html>`, geocoder.ErrParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, "k", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			places, err := c.Search(context.Background(), "Nowhere", 5)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if len(places) != 0 {
				t.Errorf("places = %+v, want none", places)
			}
		})
	}
}

func TestMissingKey(t *testing.T) {
	c := newTestClient(t, "", func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected without a key")
	})
	if _, err := c.Search(context.Background(), "Paris", 5); err == nil {
		t.Error("Search without key should fail")
	}
	if _, err := c.Timezone(context.Background(), 1, 1); err == nil {
		t.Error("Timezone without key should fail")
	}
}

func TestTimezone(t *testing.T) {
	c := newTestClient(t, "k", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/timezone/json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("timestamp"); got != "1699920000" {
			t.Errorf("timestamp = %s", got)
		}
		_, _ = w.Write([]byte(`{"status":"OK","timeZoneId":"Asia/Tokyo","timeZoneName":"Japan Standard Time"}`))
	})
	c.now = func() time.Time { return time.Unix(1700000000, 0) }

	tz, err := c.Timezone(context.Background(), 35.6762, 139.6503)
	if err != nil || tz != "Asia/Tokyo" {
		t.Errorf("Timezone = %q, %v", tz, err)
	}
}

func TestTimezoneFailure(t *testing.T) {
	c := newTestClient(t, "k", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"INVALID_REQUEST"}`))
	})
	if _, err := c.Timezone(context.Background(), 0, 0); !errors.Is(err, geocoder.ErrNetwork) {
		t.Errorf("err = %v, want ErrNetwork", err)
	}
}

func TestCacheable(t *testing.T) {
	tests := []struct {
		body string
		want bool
	}{
		{`{"status":"OK","results":[]}`, true},
		{`{"status":"ZERO_RESULTS","results":[]}`, true},
		{`{"status":"OVER_QUERY_LIMIT"}`, false},
		{`{"status":"REQUEST_DENIED","error_message":"bad key"}`, false},
		{`<html>`, false},
	}
	for _, tt := range tests {
		if got := Cacheable([]byte(tt.body)); got != tt.want {
			t.Errorf("Cacheable(%s) = %v, want %v", tt.body, got, tt.want)
		}
	}
}

// newCachedClient routes requests through a memory cache the way the engine does.
func newCachedClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	doer := httpcache.NewClient(httpcache.NewMemoryCache(time.Hour, nil), srv.Client(), nil,
		httpcache.WithValidator(Cacheable))
	return NewClient("k", doer, nil, WithBaseURL(srv.URL))
}

func TestQuotaErrorIsNotCached(t *testing.T) {
	var hits atomic.Int32
	c := newCachedClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"status":"OVER_QUERY_LIMIT","error_message":"quota"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"OK","results":[
			{"formatted_address":"Lyon, France","geometry":{"location":{"lat":45.764,"lng":4.8357},"location_type":"APPROXIMATE"},"types":["locality"]}
		]}`))
	})

	if _, err := c.Search(context.Background(), "Lyon", 5); !errors.Is(err, geocoder.ErrNetwork) {
		t.Fatalf("first Search err = %v, want ErrNetwork", err)
	}
	places, err := c.Search(context.Background(), "Lyon", 5)
	if err != nil || len(places) != 1 || places[0].DisplayName != "Lyon, France" {
		t.Fatalf("second Search = %+v, %v", places, err)
	}
	if _, err := c.Search(context.Background(), "Lyon", 5); err != nil {
		t.Fatalf("third Search: %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("server saw %d requests, want 2", got)
	}
}

func TestTimezoneCachedWithinDay(t *testing.T) {
	var hits atomic.Int32
	c := newCachedClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"status":"OK","timeZoneId":"Europe/Paris"}`))
	})
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	for range 3 {
		tz, err := c.Timezone(context.Background(), 45.764, 4.8357)
		if err != nil || tz != "Europe/Paris" {
			t.Fatalf("Timezone = %q, %v", tz, err)
		}
		now = now.Add(time.Second)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server saw %d requests, want 1", got)
	}

	now = now.Add(24 * time.Hour)
	if _, err := c.Timezone(context.Background(), 45.764, 4.8357); err != nil {
		t.Fatal(err)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("server saw %d requests after a day, want 2", got)
	}
}
