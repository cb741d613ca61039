// Resonate - Audio Similarity and Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resonate

package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Projection is a fitted linear dimensionality reduction: a component
// matrix and the training-set mean. Projecting a vector centers it on the
// fitted mean and multiplies by the component matrix, yielding an
// embedding with NumComponents dimensions.
type Projection struct {
	// Components holds the component matrix in row-major order,
	// NumComponents rows by NumFeatures columns.
	Components []float64

	// Mean is the per-feature training mean used for centering.
	Mean []float64

	NumComponents int
	NumFeatures   int
}

// Validate checks internal shape consistency. Called at artifact load.
func (p *Projection) Validate() error {
	if p.NumComponents <= 0 || p.NumFeatures <= 0 {
		return fmt.Errorf("%w: projection has %d components over %d features", ErrDimensionMismatch, p.NumComponents, p.NumFeatures)
	}
	if len(p.Components) != p.NumComponents*p.NumFeatures {
		return fmt.Errorf("%w: projection matrix has %d entries, want %d", ErrDimensionMismatch, len(p.Components), p.NumComponents*p.NumFeatures)
	}
	if len(p.Mean) != p.NumFeatures {
		return fmt.Errorf("%w: projection mean has %d entries, want %d", ErrDimensionMismatch, len(p.Mean), p.NumFeatures)
	}
	return nil
}

// Project maps a scaled feature vector into the reduced embedding space.
// Pure function of the input and fitted parameters.
func (p *Projection) Project(vec []float64) ([]float64, error) {
	if len(vec) != p.NumFeatures {
		return nil, fmt.Errorf("%w: projection fitted on %d features, got %d", ErrDimensionMismatch, p.NumFeatures, len(vec))
	}

	centered := make([]float64, len(vec))
	for i, v := range vec {
		centered[i] = v - p.Mean[i]
	}

	components := mat.NewDense(p.NumComponents, p.NumFeatures, p.Components)
	x := mat.NewVecDense(p.NumFeatures, centered)

	out := mat.NewVecDense(p.NumComponents, nil)
	out.MulVec(components, x)

	return out.RawVector().Data, nil
}
