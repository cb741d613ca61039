// Resonate - Audio Similarity and Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resonate

package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tomtom215/resonate/internal/model"
)

// Store is the immutable catalog arena. Built once from the catalog
// artifact; all indexes reference rows by position in the tracks slice,
// preserving catalog order.
type Store struct {
	tracks []Track

	byID       map[string]int
	byName     map[string][]int // lowercased name -> indices in catalog order
	byGenre    map[string][]int // lowercased genre -> indices in catalog order
	partitions [][]int          // partition label -> indices in catalog order
	byPop      []int            // indices sorted by popularity descending, catalog order on ties
	dim        int
}

// New builds a Store from tracks, validating embedding dimensionality
// against embeddingDim and partition labels against k partitions.
func New(tracks []Track, embeddingDim, k int) (*Store, error) {
	s := &Store{
		tracks:     tracks,
		byID:       make(map[string]int, len(tracks)),
		byName:     make(map[string][]int),
		byGenre:    make(map[string][]int),
		partitions: make([][]int, k),
		dim:        embeddingDim,
	}

	for i, tr := range tracks {
		if len(tr.Embedding) != embeddingDim {
			return nil, fmt.Errorf("%w: track %q embedding has %d dimensions, want %d", model.ErrDimensionMismatch, tr.ID, len(tr.Embedding), embeddingDim)
		}
		if tr.Partition < 0 || tr.Partition >= k {
			return nil, fmt.Errorf("%w: track %q partition %d outside [0, %d)", model.ErrDimensionMismatch, tr.ID, tr.Partition, k)
		}
		if _, dup := s.byID[tr.ID]; dup {
			return nil, fmt.Errorf("catalog has duplicate track id %q", tr.ID)
		}

		s.byID[tr.ID] = i

		nameKey := strings.ToLower(tr.Name)
		s.byName[nameKey] = append(s.byName[nameKey], i)

		if tr.Genre != "" {
			genreKey := strings.ToLower(tr.Genre)
			s.byGenre[genreKey] = append(s.byGenre[genreKey], i)
		}

		s.partitions[tr.Partition] = append(s.partitions[tr.Partition], i)
	}

	s.byPop = make([]int, len(tracks))
	for i := range s.byPop {
		s.byPop[i] = i
	}
	sort.SliceStable(s.byPop, func(a, b int) bool {
		return tracks[s.byPop[a]].Popularity > tracks[s.byPop[b]].Popularity
	})

	return s, nil
}

// Load reads the catalog artifact from the store and builds the arena.
func Load(store *model.Store, embeddingDim, k int) (*Store, error) {
	var tracks []Track
	if _, err := store.Load(model.ArtifactCatalog, 0, &tracks); err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("catalog artifact holds no tracks")
	}

	return New(tracks, embeddingDim, k)
}

// Len returns the number of catalog rows.
func (s *Store) Len() int {
	return len(s.tracks)
}

// Partitions returns the number of partitions the catalog was built with.
func (s *Store) Partitions() int {
	return len(s.partitions)
}

// EmbeddingDim returns the embedding dimensionality of the catalog rows.
func (s *Store) EmbeddingDim() int {
	return s.dim
}

// ByID returns the track with the given identifier.
func (s *Store) ByID(id string) (*Track, bool) {
	i, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return &s.tracks[i], true
}

// ExactMatch finds a track by case-insensitive name, constrained to the
// artist when one is given. Multiple rows sharing a name resolve to the
// first in catalog order.
func (s *Store) ExactMatch(song, artist string) (*Track, bool) {
	indices, ok := s.byName[strings.ToLower(song)]
	if !ok {
		return nil, false
	}

	if artist == "" {
		return &s.tracks[indices[0]], true
	}

	artistKey := strings.ToLower(artist)
	for _, i := range indices {
		if strings.ToLower(s.tracks[i].Artist) == artistKey {
			return &s.tracks[i], true
		}
	}

	return nil, false
}

// FuzzyMatch scans the catalog for the best fuzzy name match. When an
// artist is given, its score contributes 30% of the combined score. Ties
// resolve to the earlier catalog row. The best track is returned even
// below minScore (as a partial signal for fallback); ok reports whether
// the score reached the threshold.
func (s *Store) FuzzyMatch(song, artist string, minScore int) (*Track, int, bool) {
	bestIdx := -1
	bestScore := 0

	for i := range s.tracks {
		score := FuzzyScore(song, s.tracks[i].Name)
		if artist != "" {
			score = (7*score + 3*FuzzyScore(artist, s.tracks[i].Artist)) / 10
		}

		if score > bestScore {
			bestIdx = i
			bestScore = score
		}
	}

	if bestIdx < 0 {
		return nil, 0, false
	}
	return &s.tracks[bestIdx], bestScore, bestScore >= minScore
}

// Candidates returns every track in the given partition, in catalog order.
// An empty result is valid. Out-of-range labels yield nil.
func (s *Store) Candidates(partition int) []*Track {
	if partition < 0 || partition >= len(s.partitions) {
		return nil
	}

	indices := s.partitions[partition]
	out := make([]*Track, len(indices))
	for j, i := range indices {
		out[j] = &s.tracks[i]
	}
	return out
}

// GenreNearPopularity returns up to limit tracks of the genre whose
// popularity falls within +/- window of the reference popularity, in
// catalog order.
func (s *Store) GenreNearPopularity(genre string, popularity, window, limit int) []*Track {
	indices, ok := s.byGenre[strings.ToLower(genre)]
	if !ok {
		return nil
	}

	var out []*Track
	for _, i := range indices {
		p := s.tracks[i].Popularity
		if p >= popularity-window && p <= popularity+window {
			out = append(out, &s.tracks[i])
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// TopPopular returns the limit most popular tracks overall, ties broken
// by catalog order.
func (s *Store) TopPopular(limit int) []*Track {
	if limit > len(s.byPop) {
		limit = len(s.byPop)
	}

	out := make([]*Track, limit)
	for j := 0; j < limit; j++ {
		out[j] = &s.tracks[s.byPop[j]]
	}
	return out
}
