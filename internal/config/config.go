package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"kbprep/internal/pipeline"
	"kbprep/internal/splitter"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort         string
	LogLevel        slog.Level
	LogFormat       string
	MaxChunkLength  int
	SplitMaxLevel   int
	NormalizeTables bool
	PipelineWorkers int
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for unset fields and validates the rest.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	// Check current directory first, then walk up to find project root (where go.mod is)
	_ = godotenv.Load() // Try current directory

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		APIPort:   getEnv("API_PORT", "9000"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	levelStr := getEnv("LOG_LEVEL", "info")
	if err := cfg.LogLevel.UnmarshalText([]byte(levelStr)); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error: %w", err)
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json")
	}

	maxLen, err := strconv.Atoi(getEnv("MAX_CHUNK_LENGTH", strconv.Itoa(splitter.DefaultMaxChunkLength)))
	if err != nil {
		return nil, fmt.Errorf("MAX_CHUNK_LENGTH must be a valid integer: %w", err)
	}
	if maxLen <= 0 {
		return nil, fmt.Errorf("MAX_CHUNK_LENGTH must be greater than 0")
	}
	cfg.MaxChunkLength = maxLen

	maxLevel, err := strconv.Atoi(getEnv("SPLIT_MAX_LEVEL", strconv.Itoa(splitter.DefaultSplitMaxLevel)))
	if err != nil {
		return nil, fmt.Errorf("SPLIT_MAX_LEVEL must be a valid integer: %w", err)
	}
	if maxLevel < 1 || maxLevel > 6 {
		return nil, fmt.Errorf("SPLIT_MAX_LEVEL must be between 1 and 6")
	}
	cfg.SplitMaxLevel = maxLevel

	normalize, err := strconv.ParseBool(getEnv("NORMALIZE_TABLES", "false"))
	if err != nil {
		return nil, fmt.Errorf("NORMALIZE_TABLES must be a boolean: %w", err)
	}
	cfg.NormalizeTables = normalize

	workers, err := strconv.Atoi(getEnv("PIPELINE_WORKERS", strconv.Itoa(pipeline.DefaultWorkers)))
	if err != nil {
		return nil, fmt.Errorf("PIPELINE_WORKERS must be a valid integer: %w", err)
	}
	if workers <= 0 {
		return nil, fmt.Errorf("PIPELINE_WORKERS must be greater than 0")
	}
	cfg.PipelineWorkers = workers

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
