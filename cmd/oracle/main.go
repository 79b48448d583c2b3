// Package main implements the oracle CLI for resolving birthplaces to
// coordinates and timezones.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/oracle/pkg/location"
	"github.com/codeGROOVE-dev/oracle/pkg/oracle"
	"github.com/codeGROOVE-dev/oracle/pkg/render"
	"github.com/codeGROOVE-dev/oracle/pkg/search"
	"github.com/codeGROOVE-dev/oracle/pkg/suggest"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

var (
	geminiAPIKey = flag.String("gemini-key", "", "Gemini API key (or set GEMINI_API_KEY)")
	geminiModel  = flag.String("gemini-model", "gemini-2.5-flash-lite", "Gemini model to use (or set GEMINI_MODEL)")
	mapsAPIKey   = flag.String("maps-key", "", "Google Maps API key (or set GOOGLE_MAPS_API_KEY)")
	gcpProject   = flag.String("gcp-project", "", "GCP project ID (or set GCP_PROJECT)")
	cacheDir     = flag.String("cache-dir", "", "Cache directory (or set CACHE_DIR)")
	nominatimURL = flag.String("nominatim-url", "", "Nominatim base URL (or set NOMINATIM_URL)")
	userAgent    = flag.String("user-agent", "", "Client identifier sent to geocoders (or set ORACLE_USER_AGENT)")
	coords       = flag.String("coords", "", "Resolve the timezone for LAT,LNG instead of a place name")
	noCache      = flag.Bool("no-cache", false, "Disable caching")
	offline      = flag.Bool("offline", false, "Use only the built-in gazetteer and offline timezone data")
	interactive  = flag.Bool("interactive", false, "Read keystrokes from stdin; each line replaces the field text")
	verbose      = flag.Bool("verbose", false, "Enable verbose logging")
	version      = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("oracle CLI v1.0.0")
		return
	}

	args := flag.Args()
	if !*interactive && *coords == "" && len(args) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <place>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	// A missing .env file is normal.
	_ = godotenv.Load()
	envFallback(geminiAPIKey, "GEMINI_API_KEY")
	envFallback(mapsAPIKey, "GOOGLE_MAPS_API_KEY")
	envFallback(gcpProject, "GCP_PROJECT")
	envFallback(cacheDir, "CACHE_DIR")
	envFallback(nominatimURL, "NOMINATIM_URL")
	envFallback(userAgent, "ORACLE_USER_AGENT")
	if *geminiModel == "gemini-2.5-flash-lite" && os.Getenv("GEMINI_MODEL") != "" {
		*geminiModel = os.Getenv("GEMINI_MODEL")
	}

	opts := []oracle.Option{
		oracle.WithMapsAPIKey(*mapsAPIKey),
		oracle.WithGeminiAPIKey(*geminiAPIKey),
		oracle.WithGeminiModel(*geminiModel),
		oracle.WithGCPProject(*gcpProject),
		oracle.WithNominatimURL(*nominatimURL),
		oracle.WithUserAgent(*userAgent),
	}
	switch {
	case *offline:
		opts = append(opts, oracle.WithOffline())
	case *noCache:
		opts = append(opts, oracle.WithNoCache())
	case *cacheDir != "":
		opts = append(opts, oracle.WithCacheDir(*cacheDir))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	engine := oracle.NewWithLogger(ctx, logger, opts...)

	var err error
	switch {
	case *coords != "":
		err = resolveCoords(ctx, engine, *coords)
	case *interactive:
		err = runInteractive(ctx, engine, os.Stdin, os.Stdout)
	default:
		err = resolvePlace(ctx, engine, strings.Join(args, " "))
	}

	if closeErr := engine.Close(); closeErr != nil {
		logger.Error("Failed to close engine", "error", closeErr)
	}
	if err != nil {
		logger.Error("oracle failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func envFallback(v *string, key string) {
	if *v == "" {
		*v = os.Getenv(key)
	}
}

func resolvePlace(ctx context.Context, engine *oracle.Engine, place string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	now := time.Now()
	res := engine.Suggest(ctx, place)
	if res.AutoSelect != nil {
		birth := location.NewBirthData()
		birth.Apply(*res.AutoSelect)
		printBirthData(os.Stdout, birth, now)
		return nil
	}
	if len(res.Candidates) == 0 {
		if !suggest.Searchable(place) {
			return fmt.Errorf("query %q is too short", place)
		}
		fmt.Printf("No places found for %q\n", place)
		return nil
	}

	fmt.Printf("\n🌍 Places matching %q\n", place)
	fmt.Println(strings.Repeat("─", 50))
	render.Suggestions(os.Stdout, res.Candidates, now)
	return nil
}

func resolveCoords(ctx context.Context, engine *oracle.Engine, s string) error {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return fmt.Errorf("coordinates %q: want LAT,LNG", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return fmt.Errorf("latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return fmt.Errorf("longitude: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res := engine.Timezone(ctx, lat, lng)
	birth := location.NewBirthData()
	birth.Apply(location.Candidate{
		DisplayName: fmt.Sprintf("%.4f, %.4f", lat, lng),
		Latitude:    lat,
		Longitude:   lng,
		Timezone:    res.Timezone,
	})
	printBirthData(os.Stdout, birth, time.Now())
	fmt.Printf("  source:    %s\n", res.Source)
	return nil
}

func printBirthData(w io.Writer, birth location.BirthData, at time.Time) {
	render.Resolved(w, birth, at)
	if strip, err := render.HourStrip(birth.Timezone, at); err == nil {
		fmt.Fprintln(w)
		fmt.Fprint(w, strip)
	}
}

// runInteractive treats every input line as the current text of the place
// field. ":N" picks suggestion N, ":focus" and ":blur" move focus, ":quit" ends.
func runInteractive(ctx context.Context, engine *oracle.Engine, in io.Reader, out io.Writer) error {
	var mu sync.Mutex
	var lastGen uint64
	birth := location.NewBirthData()
	prompt := color.New(color.FgHiBlack)

	ctrl := engine.NewController(
		search.OnChange(func(s search.Snapshot) {
			mu.Lock()
			defer mu.Unlock()
			if s.Generation < lastGen || s.State != search.Idle || !s.Visible {
				return
			}
			lastGen = s.Generation
			fmt.Fprintf(out, "\n%s\n", prompt.Sprintf("suggestions for %q:", s.Query))
			render.Suggestions(out, s.Suggestions, time.Now())
		}),
		search.OnResolved(func(c location.Candidate) {
			mu.Lock()
			defer mu.Unlock()
			birth.Apply(c)
			fmt.Fprintln(out)
			printBirthData(out, birth, time.Now())
		}),
	)
	defer ctrl.Close()
	ctrl.Focus()

	fmt.Fprintln(out, prompt.Sprint("type a place; :N selects, :focus, :blur, :quit"))
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := scanner.Text()
		switch {
		case line == ":quit":
			return nil
		case line == ":focus":
			ctrl.Focus()
		case line == ":blur":
			ctrl.Blur()
		case strings.HasPrefix(line, ":"):
			n, err := strconv.Atoi(strings.TrimPrefix(line, ":"))
			if err != nil {
				fmt.Fprintf(out, "unknown command %q\n", line)
				continue
			}
			if err := ctrl.Select(n); err != nil {
				fmt.Fprintln(out, err)
			}
		default:
			ctrl.Input(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	waitSettled(ctx, ctrl, 30*time.Second)
	return nil
}

// waitSettled lets a lookup scheduled by the last line finish when input
// ends before the debounce fires.
func waitSettled(ctx context.Context, ctrl *search.Controller, limit time.Duration) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(limit)
	for {
		switch ctrl.Snapshot().State {
		case search.Idle, search.Cancelled:
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			return
		case <-ticker.C:
		}
	}
}
