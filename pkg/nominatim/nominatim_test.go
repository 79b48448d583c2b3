package nominatim

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codeGROOVE-dev/oracle/pkg/geocoder"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient("oracle-test/1.0 (test@example.com)", srv.Client(), nil, WithBaseURL(srv.URL), WithRate(0))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "Londo" || q.Get("limit") != "4" || q.Get("format") != "jsonv2" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if ua := r.Header.Get("User-Agent"); ua != "oracle-test/1.0 (test@example.com)" {
			t.Errorf("User-Agent = %q", ua)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"display_name":"London, Greater London, England, United Kingdom","lat":"51.5073219","lon":"-0.1276474"},
			{"display_name":"Londonderry, Northern Ireland, United Kingdom","lat":"54.9978678","lon":"-7.3213056"}
		]`))
	})

	places, err := c.Search(context.Background(), "Londo", 4)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(places) != 2 {
		t.Fatalf("got %d places, want 2", len(places))
	}
	if places[0].Lat != "51.5073219" || places[1].DisplayName != "Londonderry, Northern Ireland, United Kingdom" {
		t.Errorf("unexpected places: %+v", places)
	}
}

func TestSearchEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	places, err := c.Search(context.Background(), "Atlantis", 5)
	if err != nil || len(places) != 0 {
		t.Errorf("Search = %v, %v; want empty, nil", places, err)
	}
}

func TestSearchErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{"status", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusForbidden) }, geocoder.ErrNetwork},
		{"malformed", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{"error":`)) }, geocoder.ErrParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			if _, err := c.Search(context.Background(), "Paris", 5); !errors.Is(err, tt.want) {
				t.Errorf("Search error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewClientRequiresUserAgent(t *testing.T) {
	if _, err := NewClient("", nil, nil); err == nil {
		t.Error("expected an error without a user agent")
	}
}
