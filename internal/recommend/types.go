// Resonate - Audio Similarity and Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resonate

// Package recommend implements the query-to-recommendation pipeline: the
// similarity ranker and the query resolver state machine with its
// multi-tier fallback ladder. Every reasonable query resolves to a
// response; degradation is signaled through the resolution tier and note,
// never through an error or an empty page.
package recommend

import "errors"

// ErrInvalidQuery is the only resolver error a caller sees for bad input:
// an empty song name or a limit outside the configured range. No fallback
// is attempted for invalid queries.
var ErrInvalidQuery = errors.New("invalid query")

// Tier indicates how confidently a query was matched, from an exact
// catalog hit down to the popularity fallback.
type Tier string

const (
	// TierExact is a case-insensitive exact catalog match.
	TierExact Tier = "EXACT"

	// TierFuzzy is a catalog match found by fuzzy name similarity.
	TierFuzzy Tier = "FUZZY"

	// TierExternal means the external provider supplied the features.
	TierExternal Tier = "EXTERNAL"

	// TierGenreFallback samples similar-popularity tracks from the genre.
	TierGenreFallback Tier = "GENRE_FALLBACK"

	// TierPartitionFallback samples the best-matching partition.
	TierPartitionFallback Tier = "PARTITION_FALLBACK"

	// TierPopularityFallback returns the most popular tracks overall.
	TierPopularityFallback Tier = "POPULARITY_FALLBACK"
)

// Degraded reports whether the tier must carry a degradation note.
func (t Tier) Degraded() bool {
	return t != TierExact && t != TierExternal
}

// Query is a recommendation request. Artist is optional; a zero Limit
// means the configured default.
type Query struct {
	Song   string `json:"song"`
	Artist string `json:"artist,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// Recommendation is one ranked track. Embeddings never appear here.
type Recommendation struct {
	TrackName  string  `json:"track_name"`
	ArtistName string  `json:"artist_name"`
	Genre      string  `json:"genre,omitempty"`
	Popularity int     `json:"popularity"`
	Similarity float64 `json:"similarity,omitempty"`
}

// Response is the terminal state of every resolved query.
type Response struct {
	// Matched is true when the query resolved to a specific track with
	// high confidence (exact, fuzzy at threshold, or external lookup).
	Matched bool `json:"matched"`

	// Tier records how the query was resolved.
	Tier Tier `json:"resolution_tier"`

	// Recommendations is ordered by descending similarity, at most the
	// requested limit.
	Recommendations []Recommendation `json:"recommendations"`

	// Note carries the mandatory degradation message for every tier
	// other than EXACT and EXTERNAL.
	Note string `json:"note,omitempty"`
}
