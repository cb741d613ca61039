// Resonate - Audio Similarity and Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resonate

package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
	if cfg.Recommend.DefaultLimit != 10 {
		t.Errorf("DefaultLimit = %d, want 10", cfg.Recommend.DefaultLimit)
	}
	if cfg.Recommend.MaxLimit != 20 {
		t.Errorf("MaxLimit = %d, want 20", cfg.Recommend.MaxLimit)
	}
	if cfg.Provider.Timeout != 4*time.Second {
		t.Errorf("Provider.Timeout = %v, want 4s", cfg.Provider.Timeout)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "missing artifacts dir",
			mutate:  func(c *Config) { c.Artifacts.Dir = "" },
			wantErr: "artifacts.dir",
		},
		{
			name: "provider enabled without base url",
			mutate: func(c *Config) {
				c.Provider.Enabled = true
				c.Provider.BaseURL = ""
			},
			wantErr: "provider.base_url",
		},
		{
			name:    "zero provider timeout",
			mutate:  func(c *Config) { c.Provider.Timeout = 0 },
			wantErr: "provider.timeout",
		},
		{
			name:    "default limit above max",
			mutate:  func(c *Config) { c.Recommend.DefaultLimit = 50 },
			wantErr: "recommend.default_limit",
		},
		{
			name:    "fuzzy score out of range",
			mutate:  func(c *Config) { c.Recommend.FuzzyMinScore = 101 },
			wantErr: "recommend.fuzzy_min_score",
		},
		{
			name:    "negative popularity window",
			mutate:  func(c *Config) { c.Recommend.PopularityWindow = -1 },
			wantErr: "recommend.popularity_window",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"RESONATE_SERVER_PORT", "server.port"},
		{"RESONATE_SERVER_RATE_LIMIT_PER_MINUTE", "server.rate_limit_per_minute"},
		{"RESONATE_PROVIDER_BASE_URL", "provider.base_url"},
		{"RESONATE_RECOMMEND_FUZZY_MIN_SCORE", "recommend.fuzzy_min_score"},
		{"RESONATE_ARTIFACTS_DIR", "artifacts.dir"},
		{"RESONATE_LOGGING_LEVEL", "logging.level"},
		{"RESONATE_UNRELATED_VALUE", ""},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.in); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadWithEnvOverride(t *testing.T) {
	t.Setenv("RESONATE_SERVER_PORT", "9999")
	t.Setenv("RESONATE_RECOMMEND_DEFAULT_LIMIT", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Recommend.DefaultLimit != 5 {
		t.Errorf("Recommend.DefaultLimit = %d, want 5", cfg.Recommend.DefaultLimit)
	}
}

func TestAddr(t *testing.T) {
	sc := ServerConfig{Host: "127.0.0.1", Port: 3857}
	if got := sc.Addr(); got != "127.0.0.1:3857" {
		t.Errorf("Addr() = %q, want %q", got, "127.0.0.1:3857")
	}
}
