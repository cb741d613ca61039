// Resonate - Audio Similarity and Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resonate

package recommend

import (
	"math"
	"sort"
	"strings"

	"github.com/tomtom215/resonate/internal/catalog"
)

// CosineSimilarity computes cosine similarity between two vectors.
// Zero-magnitude vectors (and length mismatches) yield 0, never NaN:
// the naive formula divides by zero there, which is a known failure mode.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// pairKey is the case-insensitive (name, artist) identity used for query
// exclusion and deduplication.
func pairKey(name, artist string) string {
	return strings.ToLower(name) + "\x00" + strings.ToLower(artist)
}

// Rank scores candidates against the query embedding and returns at most
// limit recommendations: descending similarity, ties broken by catalog
// order (the candidates' own order, which New preserves), (name, artist)
// pairs deduplicated keeping the highest-similarity occurrence. The query
// track is excluded both by identifier and by (name, artist) pair:
// catalogs carry reissues and compilation rows that duplicate a track
// under a different identifier, and those rank at similarity ~1. Returns
// fewer than limit when the candidate set has too few distinct tracks;
// never pads.
func Rank(queryEmbedding []float64, candidates []*catalog.Track, queryID, queryName, queryArtist string, limit int) []Recommendation {
	type scored struct {
		track *catalog.Track
		sim   float64
		pos   int
	}

	excludeKey := pairKey(queryName, queryArtist)

	scores := make([]scored, 0, len(candidates))
	for i, c := range candidates {
		if c.ID == queryID {
			continue
		}
		if queryName != "" && pairKey(c.Name, c.Artist) == excludeKey {
			continue
		}
		scores = append(scores, scored{
			track: c,
			sim:   CosineSimilarity(queryEmbedding, c.Embedding),
			pos:   i,
		})
	}

	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].sim > scores[b].sim
	})

	seen := make(map[string]struct{}, limit)
	out := make([]Recommendation, 0, limit)
	for _, s := range scores {
		key := pairKey(s.track.Name, s.track.Artist)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		out = append(out, Recommendation{
			TrackName:  s.track.Name,
			ArtistName: s.track.Artist,
			Genre:      s.track.Genre,
			Popularity: s.track.Popularity,
			Similarity: s.sim,
		})
		if len(out) == limit {
			break
		}
	}

	return out
}

// toRecommendations converts tracks to recommendations without similarity
// scores, excluding the query's (name, artist) pair and deduplicating.
// Used by the fallback tiers, which have no query embedding to score with.
func toRecommendations(tracks []*catalog.Track, excludeName, excludeArtist string, limit int) []Recommendation {
	excludeKey := pairKey(excludeName, excludeArtist)

	seen := make(map[string]struct{}, limit)
	out := make([]Recommendation, 0, limit)
	for _, tr := range tracks {
		key := pairKey(tr.Name, tr.Artist)
		if key == excludeKey {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		out = append(out, Recommendation{
			TrackName:  tr.Name,
			ArtistName: tr.Artist,
			Genre:      tr.Genre,
			Popularity: tr.Popularity,
		})
		if len(out) == limit {
			break
		}
	}

	return out
}
