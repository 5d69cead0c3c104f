// Package config loads runbox's process configuration from the
// environment, adapted from the teacher's .env-plus-os.Getenv pattern in
// main.go.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/burenotti/runbox/internal/logging"
)

// Config is runbox's process-wide configuration.
type Config struct {
	Env string

	// DockerHost overrides the engine adapter's daemon connection; empty
	// uses the Docker SDK's environment-provided default.
	DockerHost string

	// CreateContainerTimeout bounds engine create_container calls (§4.5
	// default: 5s).
	CreateContainerTimeout time.Duration
	// VolumeOpenTimeout bounds engine create_volume calls (§4.6 default: 5s).
	VolumeOpenTimeout time.Duration

	HTTPAddr  string
	JWTSecret string

	// PackageCacheDir is the host root for the optional per-language
	// package cache volumes (SPEC_FULL.md DOMAIN STACK).
	PackageCacheDir     string
	PackageCacheEnabled bool
}

// Load reads an optional .env file (ignored if absent) then populates
// Config from the environment, applying runbox's defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logging.S().Debugw("no .env file loaded", "error", err)
	}

	cfg := &Config{
		Env:                    getenv("RUNBOX_ENV", "development"),
		DockerHost:             os.Getenv("RUNBOX_DOCKER_HOST"),
		CreateContainerTimeout: getenvDuration("RUNBOX_CREATE_TIMEOUT", 5*time.Second),
		VolumeOpenTimeout:      getenvDuration("RUNBOX_VOLUME_TIMEOUT", 5*time.Second),
		HTTPAddr:               getenv("RUNBOX_HTTP_ADDR", ":8080"),
		JWTSecret:              getenv("RUNBOX_JWT_SECRET", "dev-secret-change-me"),
		PackageCacheDir:        os.Getenv("RUNBOX_PKG_CACHE_DIR"),
		PackageCacheEnabled:    getenv("RUNBOX_PKG_CACHE_ENABLED", "false") == "true",
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logging.S().Warnw("invalid duration in environment, using default", "key", key, "value", v)
		return fallback
	}
	return d
}
