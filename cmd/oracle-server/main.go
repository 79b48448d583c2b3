// Package main implements the oracle web server exposing place suggestions
// and coordinate timezone lookups over JSON.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codeGROOVE-dev/oracle/pkg/oracle"
	"github.com/joho/godotenv"
)

var (
	port         = flag.String("port", "8080", "Port for web server (or set PORT)")
	geminiAPIKey = flag.String("gemini-key", "", "Gemini API key (or set GEMINI_API_KEY)")
	geminiModel  = flag.String("gemini-model", "gemini-2.5-flash-lite", "Gemini model to use (or set GEMINI_MODEL)")
	mapsAPIKey   = flag.String("maps-key", "", "Google Maps API key (or set GOOGLE_MAPS_API_KEY)")
	gcpProject   = flag.String("gcp-project", "", "GCP project ID (or set GCP_PROJECT)")
	nominatimURL = flag.String("nominatim-url", "", "Nominatim base URL (or set NOMINATIM_URL)")
	userAgent    = flag.String("user-agent", "", "Client identifier sent to geocoders (or set ORACLE_USER_AGENT)")
	offline      = flag.Bool("offline", false, "Use only the built-in gazetteer and offline timezone data")
	verbose      = flag.Bool("verbose", false, "Enable verbose logging")
	version      = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("oracle server v1.0.0")
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	_ = godotenv.Load()
	if *geminiAPIKey == "" {
		*geminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if *geminiModel == "gemini-2.5-flash-lite" && os.Getenv("GEMINI_MODEL") != "" {
		*geminiModel = os.Getenv("GEMINI_MODEL")
	}
	if *mapsAPIKey == "" {
		*mapsAPIKey = os.Getenv("GOOGLE_MAPS_API_KEY")
	}
	if *gcpProject == "" {
		*gcpProject = os.Getenv("GCP_PROJECT")
	}
	if *nominatimURL == "" {
		*nominatimURL = os.Getenv("NOMINATIM_URL")
	}
	if *userAgent == "" {
		*userAgent = os.Getenv("ORACLE_USER_AGENT")
	}
	if p := os.Getenv("PORT"); p != "" && *port == "8080" {
		*port = p
	}

	// Log configuration (without exposing sensitive keys)
	logger.Info("Server configuration",
		"port", *port,
		"verbose", *verbose,
		"offline", *offline,
		"gemini_model", *geminiModel,
		"nominatim_url", *nominatimURL,
		"has_gemini_key", *geminiAPIKey != "",
		"has_maps_key", *mapsAPIKey != "",
		"has_gcp_project", *gcpProject != "")

	opts := []oracle.Option{
		oracle.WithGeminiAPIKey(*geminiAPIKey),
		oracle.WithGeminiModel(*geminiModel),
		oracle.WithMapsAPIKey(*mapsAPIKey),
		oracle.WithGCPProject(*gcpProject),
		oracle.WithNominatimURL(*nominatimURL),
		oracle.WithUserAgent(*userAgent),
		oracle.WithMemoryOnlyCache(),
	}
	if *offline {
		opts = append(opts, oracle.WithOffline())
	}
	engine := oracle.NewWithLogger(context.Background(), logger, opts...)
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Error("Failed to close engine", "error", err)
		}
	}()

	server := newServer(engine, logger)
	srv := &http.Server{
		Addr:              ":" + *port,
		Handler:           server.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", *port)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}
