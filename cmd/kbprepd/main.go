package main

import (
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"kbprep/internal/config"
	"kbprep/internal/http"
	"kbprep/internal/preprocess"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API prepares markdown documents for knowledge base ingestion by
// splitting them into bounded chunks annotated with their heading paths.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: kbprep API
//   description: |
//     Markdown preprocessing API for knowledge base ingestion. Documents are
//     split into bounded chunks, each annotated with the heading path that
//     leads to it and separated by an explicit delimiter line.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Create the preprocessing service with defaults from the environment
	service := preprocess.NewService(preprocess.Options{
		MaxChunkLength:  cfg.MaxChunkLength,
		SplitMaxLevel:   cfg.SplitMaxLevel,
		NormalizeTables: cfg.NormalizeTables,
	})
	slog.Info("Preprocess service initialized",
		"max_chunk_length", cfg.MaxChunkLength,
		"split_max_level", cfg.SplitMaxLevel,
		"normalize_tables", cfg.NormalizeTables,
	)

	// Create router with dependencies
	deps := &http.Deps{
		Preprocessor: service,
	}
	router := http.NewRouter(deps)

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
