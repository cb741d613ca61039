// Resonate - Audio Similarity and Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resonate

package model

import (
	"errors"
	"math"
	"testing"
)

// identityTransformer builds a transformer whose scaler and projection are
// identity maps over the given feature ordering, so Transform output equals
// the assembled (tempo-scaled) feature values.
func identityTransformer(featureNames []string) *Transformer {
	n := len(featureNames)

	components := make([]float64, n*n)
	for i := 0; i < n; i++ {
		components[i*n+i] = 1
	}

	return &Transformer{
		TempoScaler: &MinMaxScaler{Min: []float64{0}, Max: []float64{200}},
		Scaler: &StandardScaler{
			Mean:  make([]float64, n),
			Scale: onesVector(n),
		},
		Projection: &Projection{
			Components:    components,
			Mean:          make([]float64, n),
			NumComponents: n,
			NumFeatures:   n,
		},
		FeatureNames: featureNames,
	}
}

func onesVector(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

func rawVector() FeatureVector {
	return FeatureVector{
		FeatureDanceability:     0.5,
		FeatureEnergy:           0.8,
		FeatureKey:              5,
		FeatureLoudness:         -7,
		FeatureMode:             1,
		FeatureSpeechiness:      0.1,
		FeatureAcousticness:     0.3,
		FeatureInstrumentalness: 0.2,
		FeatureLiveness:         0.15,
		FeatureValence:          0.6,
		FeatureTempo:            120,
	}
}

func TestTransformDerivedFeatures(t *testing.T) {
	tr := identityTransformer([]string{
		"energy_to_acousticness_ratio",
		"dance_rhythm",
		"vocal_presence",
		"emotional_content",
		"performance_style",
		"energy_dynamics",
	})

	got, err := tr.Transform(rawVector())
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	want := []float64{
		0.8 / (0.3 + 0.01), // energy_to_acousticness_ratio
		0.6*0.5 + 0.4*120,  // dance_rhythm blends unscaled tempo
		0.1 - 0.5*0.2,      // vocal_presence
		0.6,                // emotional_content
		0.15,               // performance_style
		0.8,                // energy_dynamics
	}
	if !floatsNear(got, want, 1e-9) {
		t.Errorf("Transform() = %v, want %v", got, want)
	}
}

func TestTransformScalesBPMTempo(t *testing.T) {
	tr := identityTransformer([]string{FeatureTempo})

	got, err := tr.Transform(rawVector())
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	// 120 BPM scaled against fitted range [0, 200].
	if !floatsNear(got, []float64{0.6}, 1e-9) {
		t.Errorf("Transform() tempo = %v, want 0.6", got[0])
	}
}

func TestTransformPassesThroughNormalizedTempo(t *testing.T) {
	tr := identityTransformer([]string{FeatureTempo})

	raw := rawVector()
	raw[FeatureTempo] = 0.45

	got, err := tr.Transform(raw)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if !floatsNear(got, []float64{0.45}, 1e-9) {
		t.Errorf("Transform() tempo = %v, want 0.45 unchanged", got[0])
	}
}

func TestTransformSchemaMismatch(t *testing.T) {
	tr := identityTransformer([]string{FeatureEnergy})

	tests := []struct {
		name   string
		mutate func(FeatureVector)
	}{
		{
			name:   "missing feature",
			mutate: func(v FeatureVector) { delete(v, FeatureValence) },
		},
		{
			name:   "NaN value",
			mutate: func(v FeatureVector) { v[FeatureEnergy] = math.NaN() },
		},
		{
			name:   "infinite value",
			mutate: func(v FeatureVector) { v[FeatureLoudness] = math.Inf(1) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := rawVector()
			tt.mutate(raw)

			_, err := tr.Transform(raw)
			if !errors.Is(err, ErrSchemaMismatch) {
				t.Errorf("Transform() error = %v, want ErrSchemaMismatch", err)
			}
		})
	}
}

func TestTransformUnknownFittedFeatureDefaultsToZero(t *testing.T) {
	tr := identityTransformer([]string{"no_such_feature"})

	got, err := tr.Transform(rawVector())
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if got[0] != 0 {
		t.Errorf("Transform() = %v, want 0 for unknown fitted feature", got[0])
	}
}

func TestTransformerValidate(t *testing.T) {
	valid := identityTransformer([]string{FeatureEnergy, FeatureTempo})
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}

	tests := []struct {
		name   string
		mutate func(*Transformer)
	}{
		{
			name:   "nil scaler",
			mutate: func(tr *Transformer) { tr.Scaler = nil },
		},
		{
			name:   "tempo scaler wrong arity",
			mutate: func(tr *Transformer) { tr.TempoScaler = &MinMaxScaler{Min: []float64{0, 0}, Max: []float64{1, 1}} },
		},
		{
			name:   "scaler arity disagrees with feature ordering",
			mutate: func(tr *Transformer) { tr.FeatureNames = []string{FeatureEnergy} },
		},
		{
			name:   "empty feature ordering",
			mutate: func(tr *Transformer) { tr.FeatureNames = nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := identityTransformer([]string{FeatureEnergy, FeatureTempo})
			tt.mutate(tr)

			if err := tr.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
