// Resonate - Audio Similarity and Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resonate

package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/resonate/internal/cache"
	"github.com/tomtom215/resonate/internal/catalog"
	"github.com/tomtom215/resonate/internal/config"
	"github.com/tomtom215/resonate/internal/logging"
	"github.com/tomtom215/resonate/internal/metrics"
	"github.com/tomtom215/resonate/internal/model"
	"github.com/tomtom215/resonate/internal/provider"
)

// Resolver drives a query through the resolution state machine:
// Start -> CatalogLookup -> {EmbeddingKnown | ExternalLookup} ->
// {Ranking | Fallback} -> Done. All referenced state is read-only after
// construction, so a single Resolver serves all requests concurrently.
type Resolver struct {
	catalog     *catalog.Store
	transformer *model.Transformer
	assigner    *model.Assigner
	source      provider.FeatureSource // nil when the provider is disabled
	cfg         *config.RecommendConfig
	respCache   *cache.Cache
}

// NewResolver wires the resolver. source may be nil, in which case
// catalog misses go straight to the fallback ladder.
func NewResolver(cat *catalog.Store, tr *model.Transformer, as *model.Assigner, source provider.FeatureSource, cfg *config.RecommendConfig) *Resolver {
	return &Resolver{
		catalog:     cat,
		transformer: tr,
		assigner:    as,
		source:      source,
		cfg:         cfg,
		respCache:   cache.New("responses", cfg.ResponseCacheTTL, cfg.ResponseCacheSize),
	}
}

// ResponseCache exposes the response cache for sweeping.
func (r *Resolver) ResponseCache() *cache.Cache {
	return r.respCache
}

// signal accumulates partial match information for the fallback ladder.
type signal struct {
	song   string
	artist string

	// fuzzyTried marks that the catalog fuzzy scan already ran, so the
	// ladder's fuzzy tier must not repeat it.
	fuzzyTried bool

	genre      string
	popularity int
	partition  int // -1 when no partition signal exists
}

// observe folds a matched or partially matched track into the signal.
func (s *signal) observe(track *catalog.Track) {
	if s.genre == "" {
		s.genre = track.Genre
		s.popularity = track.Popularity
	}
	if s.partition < 0 {
		s.partition = track.Partition
	}
}

// Resolve answers a recommendation query. The only errors it returns are
// ErrInvalidQuery for bad input and internal invariant violations; every
// provider or data gap resolves to a degraded Response instead.
func (r *Resolver) Resolve(ctx context.Context, q Query) (*Response, error) {
	q.Song = strings.TrimSpace(q.Song)
	if q.Limit == 0 {
		q.Limit = r.cfg.DefaultLimit
	}

	if q.Song == "" {
		metrics.QueryErrors.WithLabelValues("invalid_query").Inc()
		return nil, fmt.Errorf("%w: song name is required", ErrInvalidQuery)
	}
	if q.Limit < 1 || q.Limit > r.cfg.MaxLimit {
		metrics.QueryErrors.WithLabelValues("invalid_query").Inc()
		return nil, fmt.Errorf("%w: limit %d outside 1..%d", ErrInvalidQuery, q.Limit, r.cfg.MaxLimit)
	}

	key := cache.GenerateKey("resolve", [3]string{
		strings.ToLower(q.Song),
		strings.ToLower(q.Artist),
		fmt.Sprint(q.Limit),
	})
	if cached, ok := r.respCache.Get(key); ok {
		return cached.(*Response), nil
	}

	start := time.Now()
	resp, err := r.resolve(ctx, q)
	if err != nil {
		metrics.QueryErrors.WithLabelValues("internal").Inc()
		return nil, err
	}

	metrics.ObserveQuery(string(resp.Tier), resp.Matched, time.Since(start))
	logging.Ctx(ctx).Debug().
		Str("song", q.Song).
		Str("artist", q.Artist).
		Str("tier", string(resp.Tier)).
		Bool("matched", resp.Matched).
		Int("results", len(resp.Recommendations)).
		Dur("duration", time.Since(start)).
		Msg("query resolved")

	r.respCache.Set(key, resp)
	return resp, nil
}

func (r *Resolver) resolve(ctx context.Context, q Query) (*Response, error) {
	sig := &signal{song: q.Song, artist: q.Artist, partition: -1}

	// CatalogLookup: exact match, then artist-less retry.
	track, ok := r.catalog.ExactMatch(q.Song, q.Artist)
	if !ok && q.Artist != "" {
		track, ok = r.catalog.ExactMatch(q.Song, "")
	}
	if ok {
		sig.observe(track)

		recs := r.rankPartition(track.Embedding, track.Partition, track.ID, track.Name, track.Artist, q.Limit)
		if len(recs) > 0 {
			return &Response{Matched: true, Tier: TierExact, Recommendations: recs}, nil
		}

		logging.Ctx(ctx).Debug().Str("song", q.Song).Int("partition", track.Partition).Msg("partition yielded no distinct candidates, escalating")
		return r.fallback(ctx, sig, q.Limit), nil
	}

	// Fuzzy catalog scan before paying for the network hop. A best match
	// below threshold still contributes a partial partition signal.
	fuzzyTrack, score, fuzzyOK := r.catalog.FuzzyMatch(q.Song, q.Artist, r.cfg.FuzzyMinScore)
	sig.fuzzyTried = true
	if fuzzyOK {
		sig.observe(fuzzyTrack)

		recs := r.rankPartition(fuzzyTrack.Embedding, fuzzyTrack.Partition, fuzzyTrack.ID, fuzzyTrack.Name, fuzzyTrack.Artist, q.Limit)
		if len(recs) > 0 {
			return &Response{
				Matched:         true,
				Tier:            TierFuzzy,
				Recommendations: recs,
				Note:            fmt.Sprintf("interpreted %q as %q by %s (match score %d)", q.Song, fuzzyTrack.Name, fuzzyTrack.Artist, score),
			}, nil
		}
		return r.fallback(ctx, sig, q.Limit), nil
	}
	if fuzzyTrack != nil && score >= r.cfg.FuzzyMinScore/2 {
		sig.observe(fuzzyTrack)
	}

	// ExternalLookup: the only blocking I/O in the hot path, bounded by
	// the provider client's timeout.
	if r.source != nil {
		resp, err := r.external(ctx, q, sig)
		if err == nil {
			return resp, nil
		}
		if !isProviderError(err) {
			return nil, err
		}
		// Expected and frequent, so low severity.
		logging.Ctx(ctx).Debug().Err(err).Str("song", q.Song).Msg("provider lookup failed, entering fallback")
	}

	return r.fallback(ctx, sig, q.Limit), nil
}

// external resolves a catalog miss through the metadata provider. A
// NotFound with an artist constraint gets one looser retry without the
// artist; provider-side failures skip that, since repeating a slow
// failure buys nothing the fallback ladder cannot.
func (r *Resolver) external(ctx context.Context, q Query, sig *signal) (*Response, error) {
	tf, err := r.source.Lookup(ctx, q.Song, q.Artist)
	if errors.Is(err, provider.ErrNotFound) && q.Artist != "" {
		tf, err = r.source.Lookup(ctx, q.Song, "")
	}
	if err != nil {
		return nil, err
	}

	if sig.genre == "" {
		sig.genre = tf.Genre
		sig.popularity = tf.Popularity
	}

	embedding, err := r.transformer.Transform(tf.Features)
	if err != nil {
		// The provider client already guarantees a complete schema, so a
		// transform failure here is an invariant violation, not a data gap.
		logging.Ctx(ctx).Error().Err(err).Str("song", q.Song).Msg("transform of provider features failed")
		return nil, fmt.Errorf("transform provider features for %q: %w", q.Song, err)
	}

	partition, err := r.assigner.Assign(embedding)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("song", q.Song).Msg("partition assignment failed")
		return nil, fmt.Errorf("assign partition for %q: %w", q.Song, err)
	}
	if sig.partition < 0 {
		sig.partition = partition
	}

	recs := r.rankPartition(embedding, partition, "", tf.Name, tf.Artist, q.Limit)
	if len(recs) == 0 {
		return r.fallback(ctx, sig, q.Limit), nil
	}

	return &Response{Matched: true, Tier: TierExternal, Recommendations: recs}, nil
}

// rankPartition retrieves the partition's candidates and ranks them,
// excluding the query track by identifier and (name, artist) pair.
func (r *Resolver) rankPartition(embedding []float64, partition int, queryID, queryName, queryArtist string, limit int) []Recommendation {
	return Rank(embedding, r.catalog.Candidates(partition), queryID, queryName, queryArtist, limit)
}

func isProviderError(err error) bool {
	return errors.Is(err, provider.ErrNotFound) ||
		errors.Is(err, provider.ErrRateLimited) ||
		errors.Is(err, provider.ErrUnavailable)
}
