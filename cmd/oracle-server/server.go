package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/oracle/pkg/geocoder"
	"github.com/codeGROOVE-dev/oracle/pkg/suggest"
	"github.com/codeGROOVE-dev/oracle/pkg/tzconvert"
	"github.com/maypok86/otter/v2"
	"golang.org/x/time/rate"
)

const (
	requestsPerMinute = 15
	limiterIdle       = 10 * time.Minute
	responseCacheTTL  = 12 * time.Hour
	lookupTimeout     = 20 * time.Second
)

// locator is the part of *oracle.Engine the handlers use.
type locator interface {
	Suggest(ctx context.Context, query string) suggest.Result
	Timezone(ctx context.Context, lat, lng float64) geocoder.Resolution
}

// rateLimiter keeps one token bucket per client IP. Buckets idle longer
// than limiterIdle are evicted.
type rateLimiter struct {
	limiters *otter.Cache[string, *rate.Limiter]
	now      func() time.Time
	perMin   int
}

func newRateLimiter(perMinute int, idle time.Duration) *rateLimiter {
	return &rateLimiter{
		limiters: otter.Must(&otter.Options[string, *rate.Limiter]{
			MaximumSize:      100_000,
			ExpiryCalculator: otter.ExpiryAccessing[string, *rate.Limiter](idle),
		}),
		now:    time.Now,
		perMin: perMinute,
	}
}

func (rl *rateLimiter) allow(ip string) bool {
	lim, ok := rl.limiters.GetIfPresent(ip)
	if !ok {
		lim, _ = rl.limiters.SetIfAbsent(ip, rate.NewLimiter(rate.Every(time.Minute/time.Duration(rl.perMin)), rl.perMin))
	}
	return lim.AllowN(rl.now(), 1)
}

type server struct {
	engine  locator
	cache   *otter.Cache[string, []byte]
	limiter *rateLimiter
	logger  *slog.Logger
}

func newServer(engine locator, logger *slog.Logger) *server {
	return &server{
		engine: engine,
		cache: otter.Must(&otter.Options[string, []byte]{
			MaximumSize:      10_000,
			ExpiryCalculator: otter.ExpiryWriting[string, []byte](responseCacheTTL),
		}),
		limiter: newRateLimiter(requestsPerMinute, limiterIdle),
		logger:  logger,
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/locations/suggest", s.handleSuggest)
	mux.HandleFunc("GET /api/v1/timezone", s.handleTimezone)
	mux.HandleFunc("GET /health", s.handleHealth)

	antiCSRF := http.NewCrossOriginProtection()
	return s.wrap(antiCSRF.Handler(mux))
}

func (s *server) wrap(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := fmt.Sprintf("%d-%d", time.Now().Unix(), time.Now().Nanosecond())
		w.Header().Set("X-Request-ID", requestID)

		defer func() {
			if err := recover(); err != nil {
				const size = 64 << 10
				buf := make([]byte, size)
				buf = buf[:runtime.Stack(buf, false)]

				s.logger.Error("PANIC: Request handler crashed",
					"error", err,
					"path", r.URL.Path,
					"method", r.Method,
					"request_id", requestID,
					"client_ip", clientIP(r),
					"user_agent", r.Header.Get("User-Agent"),
					"stack", string(buf))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()

		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=(), usb=(), bluetooth=()")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		}

		handler.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    int    `json:"code"`
}

func (s *server) writeError(w http.ResponseWriter, requestID string, code int, msg, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: msg, Details: details, Code: code}); err != nil {
		s.logger.Error("Failed to write error response", "request_id", requestID, "error", err)
	}
}

// serveCached writes a cached body for key, or computes, stores and writes it.
func (s *server) serveCached(w http.ResponseWriter, requestID, key string, compute func() (any, bool)) string {
	w.Header().Set("Content-Type", "application/json")
	if data, ok := s.cache.GetIfPresent(key); ok {
		w.Header().Set("X-Cache", "memory-hit")
		if _, err := w.Write(data); err != nil {
			s.logger.Error("Failed to write cached response", "request_id", requestID, "error", err)
		}
		return "memory-hit"
	}

	v, cacheable := compute()
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("Failed to encode response", "request_id", requestID, "error", err)
		s.writeError(w, requestID, http.StatusInternalServerError, "Internal server error", "")
		return "error"
	}
	if cacheable {
		s.cache.Set(key, data)
	}
	w.Header().Set("X-Cache", "miss")
	if _, err := w.Write(data); err != nil {
		s.logger.Error("Failed to write response", "request_id", requestID, "error", err)
	}
	return "miss"
}

func (s *server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ip := clientIP(r)
	requestID := w.Header().Get("X-Request-ID")

	if !s.limiter.allow(ip) {
		s.logger.Warn("Rate limit exceeded", "request_id", requestID, "client_ip", ip)
		s.writeError(w, requestID, http.StatusTooManyRequests, "Rate limit exceeded", "")
		return
	}

	query := r.URL.Query().Get("q")
	key := "suggest:" + query

	ctx, cancel := context.WithTimeout(r.Context(), lookupTimeout)
	defer cancel()

	outcome := s.serveCached(w, requestID, key, func() (any, bool) {
		res := s.engine.Suggest(ctx, query)
		// An empty list may be a transient remote failure.
		return res, ctx.Err() == nil && len(res.Candidates) > 0
	})

	s.logger.Info("Suggest request completed",
		"request_id", requestID,
		"client_ip", ip,
		"query", query,
		"cache", outcome,
		"duration_ms", time.Since(start).Milliseconds())
}

type timezoneResponse struct {
	Timezone  string `json:"timezone"`
	Source    string `json:"source"`
	UTCOffset string `json:"utc_offset"`
}

func (s *server) handleTimezone(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ip := clientIP(r)
	requestID := w.Header().Get("X-Request-ID")

	if !s.limiter.allow(ip) {
		s.logger.Warn("Rate limit exceeded", "request_id", requestID, "client_ip", ip)
		s.writeError(w, requestID, http.StatusTooManyRequests, "Rate limit exceeded", "")
		return
	}

	lat, err := parseCoordinate(r.URL.Query().Get("lat"), 90)
	if err != nil {
		s.writeError(w, requestID, http.StatusBadRequest, "Invalid latitude", err.Error())
		return
	}
	lng, err := parseCoordinate(r.URL.Query().Get("lng"), 180)
	if err != nil {
		s.writeError(w, requestID, http.StatusBadRequest, "Invalid longitude", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), lookupTimeout)
	defer cancel()

	key := fmt.Sprintf("tz:%.4f,%.4f", lat, lng)
	outcome := s.serveCached(w, requestID, key, func() (any, bool) {
		res := s.engine.Timezone(ctx, lat, lng)
		offset := tzconvert.OffsetLabel(res.Timezone, time.Now())
		// Responses from the estimator are retried on the next request.
		return timezoneResponse{Timezone: res.Timezone, Source: res.Source, UTCOffset: offset},
			res.Source != geocoder.SourceEstimate
	})

	s.logger.Info("Timezone request completed",
		"request_id", requestID,
		"client_ip", ip,
		"lat", lat,
		"lng", lng,
		"cache", outcome,
		"duration_ms", time.Since(start).Milliseconds())
}

func parseCoordinate(s string, limit float64) (float64, error) {
	if s == "" {
		return 0, errors.New("missing value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, err)
	}
	if math.IsNaN(v) || math.Abs(v) > limit {
		return 0, fmt.Errorf("%v outside [-%v, %v]", v, limit, limit)
	}
	return v, nil
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "oracle-locations",
	}); err != nil {
		s.logger.Error("Failed to write health response", "error", err)
	}
}
