// Resonate - Audio Similarity and Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resonate

package model

import "fmt"

// Assigner maps embeddings to partitions using fitted cluster centroids.
// Immutable after load; safe for unsynchronized concurrent reads.
type Assigner struct {
	// Centroids holds K centroids, each with the embedding dimensionality.
	Centroids [][]float64
}

// K returns the number of partitions.
func (a *Assigner) K() int {
	return len(a.Centroids)
}

// Dim returns the centroid dimensionality, or 0 if no centroids are loaded.
func (a *Assigner) Dim() int {
	if len(a.Centroids) == 0 {
		return 0
	}
	return len(a.Centroids[0])
}

// Validate checks that at least one centroid exists and all centroids share
// one dimensionality. Called at artifact load.
func (a *Assigner) Validate() error {
	if len(a.Centroids) == 0 {
		return fmt.Errorf("%w: assigner has no centroids", ErrDimensionMismatch)
	}

	dim := len(a.Centroids[0])
	for i, c := range a.Centroids {
		if len(c) != dim {
			return fmt.Errorf("%w: centroid %d has %d dimensions, want %d", ErrDimensionMismatch, i, len(c), dim)
		}
	}

	return nil
}

// Assign returns the index of the centroid nearest to the embedding by
// squared Euclidean distance. Exact ties resolve to the lowest index.
func (a *Assigner) Assign(embedding []float64) (int, error) {
	if len(a.Centroids) == 0 {
		return 0, fmt.Errorf("%w: assigner has no centroids", ErrDimensionMismatch)
	}
	if len(embedding) != len(a.Centroids[0]) {
		return 0, fmt.Errorf("%w: embedding has %d dimensions, centroids have %d", ErrDimensionMismatch, len(embedding), len(a.Centroids[0]))
	}

	best := 0
	bestDist := squaredDistance(embedding, a.Centroids[0])
	for i := 1; i < len(a.Centroids); i++ {
		if d := squaredDistance(embedding, a.Centroids[i]); d < bestDist {
			best = i
			bestDist = d
		}
	}

	return best, nil
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
