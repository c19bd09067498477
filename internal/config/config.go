// Package config provides centralized configuration for the autoblogger server.
// All configurable values are loaded from environment variables with sensible defaults.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all server configuration values.
type Config struct {
	// Port is the HTTP server listen port.
	Port string

	// DBPath is the path to the SQLite database file.
	DBPath string

	// DataDir is the root directory for stage mirrors, images, exports and settings.
	DataDir string

	// StageDelay is the pacing delay inserted after every persisted stage
	// transition, so external observers polling stage state see each step.
	StageDelay time.Duration

	// HTTPTimeout is the timeout for outgoing HTTP requests (image search,
	// image download, bibliographic search).
	HTTPTimeout time.Duration

	// MaxImageBytes is the maximum accepted image download size.
	MaxImageBytes int64

	// UseStubs forces the stub image/reference clients (no network).
	UseStubs bool

	// CORSOrigin is the allowed CORS origin. Defaults to "*".
	CORSOrigin string
}

// Load reads configuration from environment variables, applying defaults.
func Load() Config {
	return Config{
		Port:          envOr("PORT", "8080"),
		DBPath:        envOr("DB_PATH", "autoblogger.db"),
		DataDir:       envOr("DATA_DIR", "data"),
		StageDelay:    envDuration("STAGE_DELAY", 200*time.Millisecond),
		HTTPTimeout:   envDuration("HTTP_TIMEOUT", 30*time.Second),
		MaxImageBytes: int64(envInt("MAX_IMAGE_BYTES", 5*1024*1024)),
		UseStubs:      envBool("USE_STUBS", false),
		CORSOrigin:    envOr("CORS_ORIGIN", "*"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
