// Resonate - Audio Similarity and Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resonate

package model

import "fmt"

// MinMaxScaler rescales values into [0, 1] using per-column minima and
// maxima fitted at training time. Out-of-range inputs are clipped rather
// than rejected; the training range is a normalization reference, not a
// validity bound.
type MinMaxScaler struct {
	Min []float64
	Max []float64
}

// Dim returns the number of columns the scaler was fitted on.
func (s *MinMaxScaler) Dim() int {
	return len(s.Min)
}

// Transform scales vec in place-free fashion, returning a new slice.
// Columns with a degenerate fitted range (min == max) map to 0.
func (s *MinMaxScaler) Transform(vec []float64) ([]float64, error) {
	if len(vec) != len(s.Min) {
		return nil, fmt.Errorf("%w: min-max scaler fitted on %d columns, got %d", ErrDimensionMismatch, len(s.Min), len(vec))
	}

	out := make([]float64, len(vec))
	for i, v := range vec {
		span := s.Max[i] - s.Min[i]
		if span == 0 {
			out[i] = 0
			continue
		}

		scaled := (v - s.Min[i]) / span
		if scaled < 0 {
			scaled = 0
		} else if scaled > 1 {
			scaled = 1
		}
		out[i] = scaled
	}

	return out, nil
}

// TransformOne scales a single value using the scaler's first fitted column.
// Used for the tempo column, which is fitted independently of the main
// feature scaler.
func (s *MinMaxScaler) TransformOne(v float64) (float64, error) {
	out, err := s.Transform([]float64{v})
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// StandardScaler centers values to zero mean and unit variance using
// per-column statistics fitted at training time.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

// Dim returns the number of columns the scaler was fitted on.
func (s *StandardScaler) Dim() int {
	return len(s.Mean)
}

// Transform standardizes vec, returning a new slice. Columns with zero
// fitted scale pass through centered only.
func (s *StandardScaler) Transform(vec []float64) ([]float64, error) {
	if len(vec) != len(s.Mean) {
		return nil, fmt.Errorf("%w: standard scaler fitted on %d columns, got %d", ErrDimensionMismatch, len(s.Mean), len(vec))
	}

	out := make([]float64, len(vec))
	for i, v := range vec {
		centered := v - s.Mean[i]
		if s.Scale[i] == 0 {
			out[i] = centered
			continue
		}
		out[i] = centered / s.Scale[i]
	}

	return out, nil
}
