package timeapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codeGROOVE-dev/oracle/pkg/geocoder"
)

func TestTimezone(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr error
	}{
		{"ok", http.StatusOK, `{"timeZone":"Europe/Paris","currentLocalTime":"2024-01-01T12:00:00"}`, "Europe/Paris", nil},
		{"empty", http.StatusOK, `{"timeZone":""}`, "", geocoder.ErrEmptyResult},
		{"malformed", http.StatusOK, `not json`, "", geocoder.ErrParse},
		{"server error", http.StatusBadRequest, `{}`, "", geocoder.ErrNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/timezone/coordinate" {
					t.Errorf("path = %s", r.URL.Path)
				}
				if r.URL.Query().Get("latitude") != "48.8566" || r.URL.Query().Get("longitude") != "2.3522" {
					t.Errorf("query = %s", r.URL.RawQuery)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL+"/", srv.Client(), nil)
			got, err := c.Timezone(context.Background(), 48.8566, 2.3522)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Timezone = %q, want %q", got, tt.want)
			}
		})
	}
}
