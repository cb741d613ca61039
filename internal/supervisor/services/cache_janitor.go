// Resonate - Audio Similarity and Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resonate

package services

import (
	"context"
	"time"

	"github.com/tomtom215/resonate/internal/logging"
)

// Sweeper removes expired entries and reports how many were evicted.
// Satisfied by *cache.Cache.
type Sweeper interface {
	Sweep() int
}

// CacheJanitorService periodically sweeps expired entries from the
// registered caches. The caches evict lazily on read; the janitor keeps
// memory bounded for keys that are never read again.
type CacheJanitorService struct {
	sweepers map[string]Sweeper
	interval time.Duration
	name     string
}

// NewCacheJanitorService creates a janitor that sweeps the given caches
// every interval. Keys in sweepers are used for logging only.
func NewCacheJanitorService(sweepers map[string]Sweeper, interval time.Duration) *CacheJanitorService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &CacheJanitorService{
		sweepers: sweepers,
		interval: interval,
		name:     "cache-janitor",
	}
}

// Serve implements suture.Service. It sweeps on every tick until the
// context is canceled.
func (j *CacheJanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			j.sweepAll()
		}
	}
}

func (j *CacheJanitorService) sweepAll() {
	for name, sweeper := range j.sweepers {
		if evicted := sweeper.Sweep(); evicted > 0 {
			logging.Debug().Str("cache", name).Int("evicted", evicted).Msg("Swept expired cache entries")
		}
	}
}

// String implements fmt.Stringer; suture uses it in log messages.
func (j *CacheJanitorService) String() string {
	return j.name
}
