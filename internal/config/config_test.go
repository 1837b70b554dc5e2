package config

import (
	"log/slog"
	"os"
	"testing"
)

// setEnv sets an environment variable, ignoring errors (for test setup)
func setEnv(key, value string) {
	_ = os.Setenv(key, value)
}

// unsetEnv unsets an environment variable, ignoring errors (for test cleanup)
func unsetEnv(key string) {
	_ = os.Unsetenv(key)
}

func TestLoad(t *testing.T) {
	// Save original env vars
	originalEnv := make(map[string]string)
	envVars := []string{
		"API_PORT", "LOG_LEVEL", "LOG_FORMAT",
		"MAX_CHUNK_LENGTH", "SPLIT_MAX_LEVEL",
		"NORMALIZE_TABLES", "PIPELINE_WORKERS",
	}
	for _, key := range envVars {
		originalEnv[key] = os.Getenv(key)
		unsetEnv(key)
	}
	defer func() {
		for key, value := range originalEnv {
			if value != "" {
				setEnv(key, value)
			} else {
				unsetEnv(key)
			}
		}
	}()

	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		wantErr     bool
		checkConfig func(*Config) bool
	}{
		{
			name:     "default values",
			setupEnv: func(t *testing.T) {},
			wantErr:  false,
			checkConfig: func(cfg *Config) bool {
				return cfg.APIPort == "9000" &&
					cfg.LogLevel == slog.LevelInfo &&
					cfg.LogFormat == "text" &&
					cfg.MaxChunkLength == 8000 &&
					cfg.SplitMaxLevel == 3 &&
					!cfg.NormalizeTables &&
					cfg.PipelineWorkers == 4
			},
		},
		{
			name: "custom values",
			setupEnv: func(t *testing.T) {
				setEnv("API_PORT", "8088")
				setEnv("LOG_LEVEL", "debug")
				setEnv("LOG_FORMAT", "json")
				setEnv("MAX_CHUNK_LENGTH", "500")
				setEnv("SPLIT_MAX_LEVEL", "2")
				setEnv("NORMALIZE_TABLES", "true")
				setEnv("PIPELINE_WORKERS", "8")
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.APIPort == "8088" &&
					cfg.LogLevel == slog.LevelDebug &&
					cfg.LogFormat == "json" &&
					cfg.MaxChunkLength == 500 &&
					cfg.SplitMaxLevel == 2 &&
					cfg.NormalizeTables &&
					cfg.PipelineWorkers == 8
			},
		},
		{
			name: "invalid LOG_LEVEL",
			setupEnv: func(t *testing.T) {
				setEnv("LOG_LEVEL", "loud")
			},
			wantErr: true,
		},
		{
			name: "invalid LOG_FORMAT",
			setupEnv: func(t *testing.T) {
				setEnv("LOG_FORMAT", "yaml")
			},
			wantErr: true,
		},
		{
			name: "invalid MAX_CHUNK_LENGTH",
			setupEnv: func(t *testing.T) {
				setEnv("MAX_CHUNK_LENGTH", "invalid")
			},
			wantErr: true,
		},
		{
			name: "zero MAX_CHUNK_LENGTH",
			setupEnv: func(t *testing.T) {
				setEnv("MAX_CHUNK_LENGTH", "0")
			},
			wantErr: true,
		},
		{
			name: "SPLIT_MAX_LEVEL too deep",
			setupEnv: func(t *testing.T) {
				setEnv("SPLIT_MAX_LEVEL", "7")
			},
			wantErr: true,
		},
		{
			name: "zero SPLIT_MAX_LEVEL",
			setupEnv: func(t *testing.T) {
				setEnv("SPLIT_MAX_LEVEL", "0")
			},
			wantErr: true,
		},
		{
			name: "invalid NORMALIZE_TABLES",
			setupEnv: func(t *testing.T) {
				setEnv("NORMALIZE_TABLES", "maybe")
			},
			wantErr: true,
		},
		{
			name: "zero PIPELINE_WORKERS",
			setupEnv: func(t *testing.T) {
				setEnv("PIPELINE_WORKERS", "0")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Change to a temp directory without .env file to avoid loading it
			tmpDir := t.TempDir()
			originalWd, _ := os.Getwd()
			_ = os.Chdir(tmpDir) // Ignore error - test will fail if this doesn't work
			defer func() {
				_ = os.Chdir(originalWd) // Ignore error in cleanup
			}()

			// Clean up env vars before each test
			for _, key := range envVars {
				unsetEnv(key)
			}

			tt.setupEnv(t)

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("Load() unexpected error: %v", err)
				return
			}

			if cfg == nil {
				t.Fatal("Load() returned nil config")
			}

			if tt.checkConfig != nil && !tt.checkConfig(cfg) {
				t.Errorf("Load() config validation failed: %+v", cfg)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	originalValue := os.Getenv("TEST_ENV_VAR")
	defer func() {
		if originalValue != "" {
			setEnv("TEST_ENV_VAR", originalValue)
		} else {
			unsetEnv("TEST_ENV_VAR")
		}
	}()

	tests := []struct {
		name         string
		setupEnv     func()
		key          string
		defaultValue string
		want         string
	}{
		{
			name: "env var set",
			setupEnv: func() {
				setEnv("TEST_ENV_VAR", "set-value")
			},
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "set-value",
		},
		{
			name: "env var not set",
			setupEnv: func() {
				unsetEnv("TEST_ENV_VAR")
			},
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "default",
		},
		{
			name: "empty env var uses default",
			setupEnv: func() {
				setEnv("TEST_ENV_VAR", "")
			},
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupEnv()
			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}
