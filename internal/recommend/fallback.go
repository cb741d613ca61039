// Resonate - Audio Similarity and Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resonate

package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/tomtom215/resonate/internal/catalog"
	"github.com/tomtom215/resonate/internal/logging"
)

// strategy is one tier of the fallback ladder. run returns nil to pass
// the query to the next tier.
type strategy struct {
	name string
	run  func(r *Resolver, sig *signal, limit int) *Response
}

// The ladder is an explicit ordered list rather than nested branching:
// each tier is independently testable and runs only when every tier
// above it produced fewer than the requested count.
var fallbackLadder = []strategy{
	{name: "fuzzy_catalog", run: fuzzyFallback},
	{name: "genre_popularity", run: genreFallback},
	{name: "partition_sample", run: partitionFallback},
	{name: "top_popularity", run: popularityFallback},
}

// fallback walks the ladder. A tier answers outright only when it fills
// the requested count; a short tier escalates to the next one, and its
// partial response is kept in case nothing below does better. When every
// tier comes up short the highest (most specific) partial wins over a
// longer but generic list. The popularity tier always answers for a
// non-empty catalog, so the caller never receives an empty response.
func (r *Resolver) fallback(ctx context.Context, sig *signal, limit int) *Response {
	var partial *Response
	var partialStrategy string

	for _, s := range fallbackLadder {
		resp := s.run(r, sig, limit)
		if resp == nil || len(resp.Recommendations) == 0 {
			continue
		}

		if len(resp.Recommendations) >= limit {
			logging.Ctx(ctx).Debug().
				Str("song", sig.song).
				Str("strategy", s.name).
				Str("tier", string(resp.Tier)).
				Msg("fallback tier answered")
			return resp
		}

		if partial == nil {
			partial = resp
			partialStrategy = s.name
		}
	}

	if partial != nil {
		logging.Ctx(ctx).Debug().
			Str("song", sig.song).
			Str("strategy", partialStrategy).
			Str("tier", string(partial.Tier)).
			Int("results", len(partial.Recommendations)).
			Msg("fallback tier answered short of limit")
		return partial
	}

	// Empty catalog only; unreachable after startup validation.
	return &Response{
		Tier:            TierPopularityFallback,
		Recommendations: []Recommendation{},
		Note:            "no recommendations available",
	}
}

// fuzzyFallback re-runs the catalog fuzzy scan and re-enters ranking with
// the resolved embedding. Skipped when the primary path already scanned.
func fuzzyFallback(r *Resolver, sig *signal, limit int) *Response {
	if sig.fuzzyTried {
		return nil
	}
	sig.fuzzyTried = true

	track, score, ok := r.catalog.FuzzyMatch(sig.song, sig.artist, r.cfg.FuzzyMinScore)
	if !ok {
		if track != nil && score >= r.cfg.FuzzyMinScore/2 {
			sig.observe(track)
		}
		return nil
	}
	sig.observe(track)

	recs := r.rankPartition(track.Embedding, track.Partition, track.ID, track.Name, track.Artist, limit)
	if len(recs) == 0 {
		return nil
	}

	return &Response{
		Matched:         true,
		Tier:            TierFuzzy,
		Recommendations: recs,
		Note:            fmt.Sprintf("interpreted %q as %q by %s (match score %d)", sig.song, track.Name, track.Artist, score),
	}
}

// genreFallback samples similar-popularity tracks from the signaled
// genre. The popularity window widens once when the first pass comes up
// short.
func genreFallback(r *Resolver, sig *signal, limit int) *Response {
	if sig.genre == "" {
		return nil
	}

	window := r.cfg.PopularityWindow
	tracks := r.catalog.GenreNearPopularity(sig.genre, sig.popularity, window, limit+2)
	if len(tracks) < limit {
		window = 2*window + 5
		tracks = r.catalog.GenreNearPopularity(sig.genre, sig.popularity, window, limit+2)
	}

	recs := toRecommendations(tracks, sig.song, sig.artist, limit)
	if len(recs) == 0 {
		return nil
	}

	return &Response{
		Tier:            TierGenreFallback,
		Recommendations: recs,
		Note:            fmt.Sprintf("no direct match for %q; showing %s tracks of similar popularity", sig.song, sig.genre),
	}
}

// partitionFallback samples the best-matching partition found through any
// partial signal, most popular first.
func partitionFallback(r *Resolver, sig *signal, limit int) *Response {
	if sig.partition < 0 {
		return nil
	}

	candidates := r.catalog.Candidates(sig.partition)
	if len(candidates) == 0 {
		return nil
	}

	byPop := make([]*catalog.Track, len(candidates))
	copy(byPop, candidates)
	sort.SliceStable(byPop, func(a, b int) bool {
		return byPop[a].Popularity > byPop[b].Popularity
	})

	recs := toRecommendations(byPop, sig.song, sig.artist, limit)
	if len(recs) == 0 {
		return nil
	}

	return &Response{
		Tier:            TierPartitionFallback,
		Recommendations: recs,
		Note:            fmt.Sprintf("no direct match for %q; showing tracks from the closest-sounding part of the catalog", sig.song),
	}
}

// popularityFallback is the last resort: the most popular catalog tracks,
// explicitly flagged as not personalized.
func popularityFallback(r *Resolver, sig *signal, limit int) *Response {
	recs := toRecommendations(r.catalog.TopPopular(limit+1), sig.song, sig.artist, limit)
	if len(recs) == 0 {
		return nil
	}

	return &Response{
		Tier:            TierPopularityFallback,
		Recommendations: recs,
		Note:            fmt.Sprintf("could not match %q; showing overall most popular tracks, not personalized to your query", sig.song),
	}
}
