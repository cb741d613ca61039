// Resonate - Audio Similarity and Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resonate

// Package main is the entry point for the Resonate server.
//
// Resonate serves music recommendations from a fitted similarity index:
// a track catalog with precomputed embeddings, feature scalers, a linear
// projection into the embedding space, and partition centroids. The
// artifacts are produced by an offline training job; the server loads
// them read-only at startup and refuses to start if any is missing or
// dimensionally inconsistent.
//
// # Startup Order
//
//  1. Configuration: Koanf v2 layered sources (defaults, config.yaml,
//     RESONATE_* environment variables)
//  2. Artifacts: open the artifact store, verify all required artifacts,
//     load the transformer, partition assigner, and catalog
//  3. Provider: optional external audio-feature client behind a circuit
//     breaker (PROVIDER_ENABLED)
//  4. Resolver: the query resolution state machine with its fallback
//     ladder and response cache
//  5. HTTP server: Chi router under a suture supervision tree
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the server stops
// accepting connections and waits for in-flight requests up to the
// configured shutdown timeout.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/resonate/internal/api"
	"github.com/tomtom215/resonate/internal/catalog"
	"github.com/tomtom215/resonate/internal/config"
	"github.com/tomtom215/resonate/internal/logging"
	"github.com/tomtom215/resonate/internal/metrics"
	"github.com/tomtom215/resonate/internal/model"
	"github.com/tomtom215/resonate/internal/provider"
	"github.com/tomtom215/resonate/internal/recommend"
	"github.com/tomtom215/resonate/internal/supervisor"
	"github.com/tomtom215/resonate/internal/supervisor/services"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

// cacheSweepInterval is how often the janitor sweeps expired cache
// entries. Caches also evict lazily on read.
const cacheSweepInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Default logger; config is not available yet
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Str("version", version).Msg("Starting Resonate")

	// === ARTIFACTS ===
	// Fail fast: a process with missing or inconsistent artifacts must
	// not serve queries.

	store, err := model.NewStore(cfg.Artifacts.Dir)
	if err != nil {
		logging.Fatal().Err(err).Str("dir", cfg.Artifacts.Dir).Msg("Failed to open artifact store")
	}
	if err := store.CheckRequired(); err != nil {
		logging.Fatal().Err(err).Str("dir", cfg.Artifacts.Dir).Msg("Required artifacts missing")
	}

	transformer, err := model.LoadTransformer(store)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load feature transformer")
	}
	embeddingDim := transformer.Projection.NumComponents

	assigner, err := model.LoadAssigner(store, embeddingDim)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load partition assigner")
	}

	cat, err := catalog.Load(store, embeddingDim, assigner.K())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load catalog")
	}

	metrics.CatalogTracks.Set(float64(cat.Len()))
	metrics.CatalogPartitions.Set(float64(cat.Partitions()))
	metrics.CatalogEmbeddingDim.Set(float64(cat.EmbeddingDim()))

	logging.Info().
		Int("tracks", cat.Len()).
		Int("partitions", cat.Partitions()).
		Int("embedding_dimensions", cat.EmbeddingDim()).
		Msg("Similarity index loaded")

	// === PROVIDER ===

	var source provider.FeatureSource
	var breaker api.BreakerStater
	var featureCache services.Sweeper
	if cfg.Provider.Enabled {
		client := provider.NewClient(&cfg.Provider)
		breakerClient := provider.NewBreakerClient(client)
		source = breakerClient
		breaker = breakerClient
		featureCache = client.FeatureCache()
		logging.Info().Str("base_url", cfg.Provider.BaseURL).Msg("External feature provider enabled")
	} else {
		logging.Info().Msg("External feature provider disabled; catalog misses go straight to fallbacks")
	}

	// === RESOLVER AND HTTP SERVER ===

	resolver := recommend.NewResolver(cat, transformer, assigner, source, &cfg.Recommend)

	handler := api.NewHandler(resolver, cat, store, breaker, version)
	router := api.NewRouter(handler, &cfg.Server)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// === SUPERVISOR TREE ===

	treeConfig := supervisor.DefaultTreeConfig()
	if cfg.Server.ShutdownTimeout > 0 {
		treeConfig.ShutdownTimeout = cfg.Server.ShutdownTimeout
	}
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), treeConfig)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	sweepers := map[string]services.Sweeper{
		"responses": resolver.ResponseCache(),
	}
	if featureCache != nil {
		sweepers["features"] = featureCache
	}
	tree.AddEngineService(services.NewCacheJanitorService(sweepers, cacheSweepInterval))

	tree.AddAPIService(services.NewHTTPServerService(server, treeConfig.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
