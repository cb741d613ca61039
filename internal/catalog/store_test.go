// Resonate - Audio Similarity and Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resonate

package catalog

import (
	"errors"
	"testing"

	"github.com/tomtom215/resonate/internal/model"
)

func testTracks() []Track {
	return []Track{
		{ID: "t1", Name: "Wonderwall", Artist: "Oasis", Genre: "rock", Popularity: 85, Embedding: []float64{1, 0}, Partition: 0},
		{ID: "t2", Name: "Wonderwall", Artist: "Ryan Adams", Genre: "rock", Popularity: 60, Embedding: []float64{0.9, 0.1}, Partition: 0},
		{ID: "t3", Name: "Champagne Supernova", Artist: "Oasis", Genre: "rock", Popularity: 78, Embedding: []float64{0.8, 0.2}, Partition: 0},
		{ID: "t4", Name: "Clair de Lune", Artist: "Debussy", Genre: "classical", Popularity: 70, Embedding: []float64{0, 1}, Partition: 1},
		{ID: "t5", Name: "Gymnopedie No 1", Artist: "Satie", Genre: "classical", Popularity: 65, Embedding: []float64{0.1, 0.9}, Partition: 1},
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(testTracks(), 2, 2)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func([]Track) []Track
		wantErr error
	}{
		{
			name: "embedding dimension mismatch",
			mutate: func(tracks []Track) []Track {
				tracks[0].Embedding = []float64{1, 2, 3}
				return tracks
			},
			wantErr: model.ErrDimensionMismatch,
		},
		{
			name: "partition out of range",
			mutate: func(tracks []Track) []Track {
				tracks[0].Partition = 7
				return tracks
			},
			wantErr: model.ErrDimensionMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.mutate(testTracks()), 2, 2)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewDuplicateID(t *testing.T) {
	tracks := testTracks()
	tracks[1].ID = tracks[0].ID

	if _, err := New(tracks, 2, 2); err == nil {
		t.Error("New() = nil, want error for duplicate id")
	}
}

func TestExactMatch(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name   string
		song   string
		artist string
		wantID string
		wantOK bool
	}{
		{
			name:   "name and artist",
			song:   "wonderwall",
			artist: "ryan adams",
			wantID: "t2",
			wantOK: true,
		},
		{
			name:   "name only takes first catalog row",
			song:   "WONDERWALL",
			wantID: "t1",
			wantOK: true,
		},
		{
			name:   "wrong artist misses",
			song:   "wonderwall",
			artist: "blur",
			wantOK: false,
		},
		{
			name:   "unknown song",
			song:   "no such song",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.ExactMatch(tt.song, tt.artist)
			if ok != tt.wantOK {
				t.Fatalf("ExactMatch() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.ID != tt.wantID {
				t.Errorf("ExactMatch() = %s, want %s", got.ID, tt.wantID)
			}
		})
	}
}

func TestFuzzyMatch(t *testing.T) {
	s := newTestStore(t)

	got, score, ok := s.FuzzyMatch("wonderwal", "oasis", 70)
	if !ok {
		t.Fatalf("FuzzyMatch() ok = false, score = %d", score)
	}
	if got.ID != "t1" {
		t.Errorf("FuzzyMatch() = %s, want t1", got.ID)
	}

	if _, _, ok := s.FuzzyMatch("zzzzzzzz", "", 70); ok {
		t.Error("FuzzyMatch() ok = true for gibberish, want false")
	}
}

func TestCandidates(t *testing.T) {
	s := newTestStore(t)

	got := s.Candidates(1)
	if len(got) != 2 {
		t.Fatalf("Candidates(1) returned %d tracks, want 2", len(got))
	}
	// Catalog order preserved.
	if got[0].ID != "t4" || got[1].ID != "t5" {
		t.Errorf("Candidates(1) = [%s, %s], want [t4, t5]", got[0].ID, got[1].ID)
	}

	if got := s.Candidates(99); got != nil {
		t.Errorf("Candidates(99) = %v, want nil", got)
	}
}

func TestGenreNearPopularity(t *testing.T) {
	s := newTestStore(t)

	got := s.GenreNearPopularity("rock", 80, 10, 10)
	if len(got) != 2 {
		t.Fatalf("GenreNearPopularity() returned %d tracks, want 2", len(got))
	}
	if got[0].ID != "t1" || got[1].ID != "t3" {
		t.Errorf("GenreNearPopularity() = [%s, %s], want [t1, t3]", got[0].ID, got[1].ID)
	}

	if got := s.GenreNearPopularity("jazz", 50, 10, 10); got != nil {
		t.Errorf("GenreNearPopularity(jazz) = %v, want nil", got)
	}

	got = s.GenreNearPopularity("rock", 80, 10, 1)
	if len(got) != 1 {
		t.Errorf("GenreNearPopularity() with limit 1 returned %d tracks", len(got))
	}
}

func TestTopPopular(t *testing.T) {
	s := newTestStore(t)

	got := s.TopPopular(3)
	if len(got) != 3 {
		t.Fatalf("TopPopular(3) returned %d tracks", len(got))
	}
	wantOrder := []string{"t1", "t3", "t4"}
	for i, w := range wantOrder {
		if got[i].ID != w {
			t.Errorf("TopPopular()[%d] = %s, want %s", i, got[i].ID, w)
		}
	}

	// Limit beyond catalog size returns everything.
	if got := s.TopPopular(100); len(got) != 5 {
		t.Errorf("TopPopular(100) returned %d tracks, want 5", len(got))
	}
}

func TestByID(t *testing.T) {
	s := newTestStore(t)

	got, ok := s.ByID("t3")
	if !ok || got.Name != "Champagne Supernova" {
		t.Errorf("ByID(t3) = %v, %v", got, ok)
	}

	if _, ok := s.ByID("nope"); ok {
		t.Error("ByID(nope) ok = true, want false")
	}
}

func TestLoadFromArtifactStore(t *testing.T) {
	store, err := model.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if err := store.Save(model.ArtifactCatalog, 1, testTracks(), model.Metadata{TrackCount: 5}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	s, err := Load(store, 2, 2)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Len() != 5 {
		t.Errorf("Len() = %d, want 5", s.Len())
	}
	if s.Partitions() != 2 {
		t.Errorf("Partitions() = %d, want 2", s.Partitions())
	}
}

func TestLoadMissingCatalog(t *testing.T) {
	store, err := model.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	_, err = Load(store, 2, 2)
	if !errors.Is(err, model.ErrMissingArtifact) {
		t.Errorf("Load() error = %v, want ErrMissingArtifact", err)
	}
}
