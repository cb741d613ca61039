// Resonate - Audio Similarity and Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resonate

// Package catalog provides the immutable in-memory track table and its
// lookup indexes: exact and fuzzy name matching, partition-scoped candidate
// retrieval, genre/popularity sampling, and overall popularity ranking.
// The table is loaded once at startup and is read-only for the process
// lifetime, so every lookup is safe for unsynchronized concurrent use.
package catalog

// Track is one catalog row: display metadata plus the reduced embedding
// and partition label computed at catalog build time. Rows never mutate
// after load.
type Track struct {
	// ID is the stable unique track identifier.
	ID string

	// Name is the display name of the track.
	Name string

	// Artist is the display name of the primary artist.
	Artist string

	// Genre is optional and may be empty.
	Genre string

	// Popularity is a bounded integer score, 0-100.
	Popularity int

	// Embedding is the reduced-dimension vector used for similarity.
	Embedding []float64

	// Partition is the cluster label in [0, K).
	Partition int
}
