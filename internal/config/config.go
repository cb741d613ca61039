// Resonate - Audio Similarity and Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resonate

// Package config provides layered configuration for Resonate using koanf.
//
// Configuration is resolved with clear precedence:
//
//	Environment Variables > Config File (YAML) > Built-in Defaults
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Artifacts ArtifactsConfig `koanf:"artifacts"`
	Provider  ProviderConfig  `koanf:"provider"`
	Recommend RecommendConfig `koanf:"recommend"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the listen address. Default: 0.0.0.0
	Host string `koanf:"host"`

	// Port is the listen port. Default: 3857
	Port int `koanf:"port"`

	// ReadTimeout bounds request header+body reads.
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout bounds response writes.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// ShutdownTimeout is the graceful shutdown budget.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins lists allowed CORS origins. Default: ["*"]
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitPerMinute is the per-IP request budget for API routes.
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	// Caller includes caller file:line in log output.
	Caller bool `koanf:"caller"`
}

// ArtifactsConfig locates the fitted model artifacts loaded at startup.
type ArtifactsConfig struct {
	// Dir is the directory holding the artifact files
	// (catalog, scaler_tempo, scaler_standard, pca, kmeans).
	Dir string `koanf:"dir"`
}

// ProviderConfig holds settings for the external audio-feature provider.
type ProviderConfig struct {
	// Enabled toggles external lookups. When false every catalog miss goes
	// straight to the fallback ladder.
	Enabled bool `koanf:"enabled"`

	// BaseURL is the provider API root, e.g. https://api.example.com/v1.
	BaseURL string `koanf:"base_url"`

	// APIKey is the bearer token for provider requests.
	APIKey string `koanf:"api_key"`

	// Timeout bounds a single provider round trip.
	// The resolver performs at most one immediate retry on transient failure.
	Timeout time.Duration `koanf:"timeout"`

	// RatePerSecond is the client-side request rate limit.
	RatePerSecond float64 `koanf:"rate_per_second"`

	// RateBurst is the rate limiter burst size.
	RateBurst int `koanf:"rate_burst"`

	// CacheSize is the feature cache capacity (entries).
	CacheSize int `koanf:"cache_size"`

	// CacheTTL is how long looked-up feature vectors are reused.
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// RecommendConfig holds recommendation tuning parameters.
type RecommendConfig struct {
	// DefaultLimit is the result count when the caller omits one.
	DefaultLimit int `koanf:"default_limit"`

	// MaxLimit is the largest permitted result count.
	MaxLimit int `koanf:"max_limit"`

	// FuzzyMinScore is the 0-100 similarity threshold for fuzzy catalog
	// matching. Matches scoring below it are discarded.
	FuzzyMinScore int `koanf:"fuzzy_min_score"`

	// PopularityWindow is the +/- popularity range for genre fallback
	// sampling. Widened once when the window yields too few tracks.
	PopularityWindow int `koanf:"popularity_window"`

	// ResponseCacheTTL bounds how long resolved responses are reused.
	ResponseCacheTTL time.Duration `koanf:"response_cache_ttl"`

	// ResponseCacheSize is the response cache capacity (entries).
	ResponseCacheSize int `koanf:"response_cache_size"`
}

// Validate checks configuration invariants. It is called by Load after all
// layers are merged, so validation failures surface at startup.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range 1-65535", c.Server.Port)
	}
	if c.Artifacts.Dir == "" {
		return fmt.Errorf("artifacts.dir must be set")
	}
	if c.Provider.Enabled && c.Provider.BaseURL == "" {
		return fmt.Errorf("provider.base_url must be set when provider is enabled")
	}
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("provider.timeout must be positive")
	}
	if c.Recommend.DefaultLimit < 1 || c.Recommend.DefaultLimit > c.Recommend.MaxLimit {
		return fmt.Errorf("recommend.default_limit %d out of range 1-%d",
			c.Recommend.DefaultLimit, c.Recommend.MaxLimit)
	}
	if c.Recommend.MaxLimit < 1 {
		return fmt.Errorf("recommend.max_limit must be positive")
	}
	if c.Recommend.FuzzyMinScore < 0 || c.Recommend.FuzzyMinScore > 100 {
		return fmt.Errorf("recommend.fuzzy_min_score %d out of range 0-100",
			c.Recommend.FuzzyMinScore)
	}
	if c.Recommend.PopularityWindow < 0 {
		return fmt.Errorf("recommend.popularity_window must not be negative")
	}
	return nil
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
