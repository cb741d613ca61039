// Resonate - Audio Similarity and Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resonate

package model

import (
	"errors"
	"testing"
)

func TestProjectionProject(t *testing.T) {
	// 2 components over 3 features: rows select and sum coordinates.
	p := &Projection{
		Components: []float64{
			1, 0, 0,
			0, 1, 1,
		},
		Mean:          []float64{1, 1, 1},
		NumComponents: 2,
		NumFeatures:   3,
	}

	got, err := p.Project([]float64{2, 3, 4})
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}

	// centered = [1, 2, 3]; PC1 = 1, PC2 = 2+3 = 5
	want := []float64{1, 5}
	if !floatsNear(got, want, 1e-12) {
		t.Errorf("Project() = %v, want %v", got, want)
	}
}

func TestProjectionDimensionMismatch(t *testing.T) {
	p := &Projection{
		Components:    []float64{1, 0, 0, 1},
		Mean:          []float64{0, 0},
		NumComponents: 2,
		NumFeatures:   2,
	}

	_, err := p.Project([]float64{1, 2, 3})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Project() error = %v, want ErrDimensionMismatch", err)
	}
}

func TestProjectionValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       Projection
		wantErr bool
	}{
		{
			name: "valid",
			p: Projection{
				Components:    []float64{1, 2, 3, 4, 5, 6},
				Mean:          []float64{0, 0, 0},
				NumComponents: 2,
				NumFeatures:   3,
			},
			wantErr: false,
		},
		{
			name: "matrix size disagrees with dims",
			p: Projection{
				Components:    []float64{1, 2, 3},
				Mean:          []float64{0, 0, 0},
				NumComponents: 2,
				NumFeatures:   3,
			},
			wantErr: true,
		},
		{
			name: "mean length disagrees with features",
			p: Projection{
				Components:    []float64{1, 2, 3, 4, 5, 6},
				Mean:          []float64{0},
				NumComponents: 2,
				NumFeatures:   3,
			},
			wantErr: true,
		},
		{
			name:    "empty projection",
			p:       Projection{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
