// Resonate - Audio Similarity and Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resonate

package recommend

import (
	"math"
	"strings"
	"testing"

	"github.com/tomtom215/resonate/internal/catalog"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float64
		b    []float64
		want float64
	}{
		{
			name: "identical vectors",
			a:    []float64{1, 2, 3},
			b:    []float64{1, 2, 3},
			want: 1.0,
		},
		{
			name: "orthogonal vectors",
			a:    []float64{1, 0},
			b:    []float64{0, 1},
			want: 0.0,
		},
		{
			name: "opposite vectors",
			a:    []float64{1, 0},
			b:    []float64{-1, 0},
			want: -1.0,
		},
		{
			name: "zero vector yields zero not NaN",
			a:    []float64{0, 0},
			b:    []float64{3, 4},
			want: 0.0,
		},
		{
			name: "both zero",
			a:    []float64{0, 0},
			b:    []float64{0, 0},
			want: 0.0,
		},
		{
			name: "length mismatch",
			a:    []float64{1, 2},
			b:    []float64{1, 2, 3},
			want: 0.0,
		},
		{
			name: "empty vectors",
			a:    nil,
			b:    nil,
			want: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.IsNaN(got) {
				t.Fatal("CosineSimilarity() = NaN")
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("CosineSimilarity() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestCosineSimilaritySymmetric(t *testing.T) {
	a := []float64{0.3, -1.2, 4.5}
	b := []float64{2.1, 0.7, -0.4}

	if got, rev := CosineSimilarity(a, b), CosineSimilarity(b, a); got != rev {
		t.Errorf("similarity not symmetric: %f vs %f", got, rev)
	}
}

func rankCandidates() []*catalog.Track {
	return []*catalog.Track{
		{ID: "q", Name: "Query Song", Artist: "Artist", Embedding: []float64{1, 0}},
		{ID: "a", Name: "Close", Artist: "One", Genre: "rock", Popularity: 50, Embedding: []float64{0.99, 0.1}},
		{ID: "b", Name: "Close", Artist: "One", Genre: "rock", Popularity: 40, Embedding: []float64{0.98, 0.05}},
		{ID: "c", Name: "Mid", Artist: "Two", Popularity: 60, Embedding: []float64{0.5, 0.5}},
		{ID: "d", Name: "Far", Artist: "Three", Popularity: 70, Embedding: []float64{0, 1}},
	}
}

func TestRankExcludesQueryAndDeduplicates(t *testing.T) {
	recs := Rank([]float64{1, 0}, rankCandidates(), "q", "Query Song", "Artist", 10)

	for _, rec := range recs {
		if rec.TrackName == "Query Song" {
			t.Error("Rank() returned the query track")
		}
	}

	seen := map[string]bool{}
	for _, rec := range recs {
		key := rec.TrackName + "/" + rec.ArtistName
		if seen[key] {
			t.Errorf("Rank() returned duplicate (name, artist) pair %s", key)
		}
		seen[key] = true
	}

	// "Close"/"One" appears twice among candidates; dedupe keeps the
	// higher-similarity row.
	if len(recs) != 3 {
		t.Errorf("Rank() returned %d recommendations, want 3", len(recs))
	}
}

func TestRankExcludesReissuesOfQueryTrack(t *testing.T) {
	// Catalogs carry the same track under multiple identifiers
	// (reissues, compilations). A row sharing the query's (name, artist)
	// ranks at similarity ~1 and must never be recommended.
	candidates := []*catalog.Track{
		{ID: "q1", Name: "Bohemian Rhapsody", Artist: "Queen", Genre: "rock", Popularity: 95, Embedding: []float64{0.9, 0.3}},
		{ID: "q2", Name: "Bohemian Rhapsody", Artist: "Queen", Genre: "rock", Popularity: 60, Embedding: []float64{0.9, 0.3}},
		{ID: "q3", Name: "bohemian rhapsody", Artist: "QUEEN", Genre: "rock", Popularity: 55, Embedding: []float64{0.89, 0.31}},
		{ID: "t3", Name: "Thunderstruck", Artist: "AC/DC", Genre: "rock", Popularity: 88, Embedding: []float64{0.95, 0.1}},
	}

	recs := Rank([]float64{0.9, 0.3}, candidates, "q1", "Bohemian Rhapsody", "Queen", 10)

	for _, rec := range recs {
		if strings.EqualFold(rec.TrackName, "Bohemian Rhapsody") && strings.EqualFold(rec.ArtistName, "Queen") {
			t.Errorf("Rank() recommended the query track itself: %+v", rec)
		}
	}
	if len(recs) != 1 || recs[0].TrackName != "Thunderstruck" {
		t.Errorf("Rank() = %v, want only Thunderstruck", recs)
	}
}

func TestRankOrderDescending(t *testing.T) {
	recs := Rank([]float64{1, 0}, rankCandidates(), "q", "Query Song", "Artist", 10)

	for i := 1; i < len(recs); i++ {
		if recs[i].Similarity > recs[i-1].Similarity {
			t.Errorf("Rank() not descending at %d: %f > %f", i, recs[i].Similarity, recs[i-1].Similarity)
		}
	}

	if recs[0].TrackName != "Close" {
		t.Errorf("Rank() top = %s, want Close", recs[0].TrackName)
	}
}

func TestRankTruncatesToLimit(t *testing.T) {
	recs := Rank([]float64{1, 0}, rankCandidates(), "q", "Query Song", "Artist", 2)
	if len(recs) > 2 {
		t.Errorf("Rank() returned %d recommendations, want <= 2", len(recs))
	}
}

func TestRankZeroEmbeddingNeverNaN(t *testing.T) {
	recs := Rank([]float64{0, 0}, rankCandidates(), "q", "Query Song", "Artist", 10)
	for _, rec := range recs {
		if math.IsNaN(rec.Similarity) {
			t.Errorf("Rank() produced NaN similarity for %s", rec.TrackName)
		}
		if rec.Similarity != 0 {
			t.Errorf("Rank() similarity = %f for zero query embedding, want 0", rec.Similarity)
		}
	}
}

func TestRankEmptyCandidates(t *testing.T) {
	if recs := Rank([]float64{1, 0}, nil, "q", "Query Song", "Artist", 5); len(recs) != 0 {
		t.Errorf("Rank() = %v, want empty", recs)
	}
}

func TestToRecommendationsExcludesQueryPair(t *testing.T) {
	tracks := []*catalog.Track{
		{ID: "a", Name: "Song A", Artist: "X", Popularity: 90},
		{ID: "b", Name: "Song B", Artist: "Y", Popularity: 80},
		{ID: "c", Name: "Song B", Artist: "Y", Popularity: 70},
	}

	recs := toRecommendations(tracks, "song a", "x", 10)
	if len(recs) != 1 {
		t.Fatalf("toRecommendations() returned %d, want 1 (exclusion + dedupe)", len(recs))
	}
	if recs[0].TrackName != "Song B" {
		t.Errorf("toRecommendations()[0] = %s, want Song B", recs[0].TrackName)
	}
}
