// Resonate - Audio Similarity and Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resonate

package model

import (
	"fmt"
	"math"

	"github.com/tomtom215/resonate/internal/logging"
)

// Raw audio feature names every input vector must carry. The set is fixed
// by the fitted pipeline's training data.
const (
	FeatureDanceability     = "danceability"
	FeatureEnergy           = "energy"
	FeatureKey              = "key"
	FeatureLoudness         = "loudness"
	FeatureMode             = "mode"
	FeatureSpeechiness      = "speechiness"
	FeatureAcousticness     = "acousticness"
	FeatureInstrumentalness = "instrumentalness"
	FeatureLiveness         = "liveness"
	FeatureValence          = "valence"
	FeatureTempo            = "tempo"
)

// RawFeatureNames lists the required raw features in canonical order.
var RawFeatureNames = []string{
	FeatureDanceability,
	FeatureEnergy,
	FeatureKey,
	FeatureLoudness,
	FeatureMode,
	FeatureSpeechiness,
	FeatureAcousticness,
	FeatureInstrumentalness,
	FeatureLiveness,
	FeatureValence,
	FeatureTempo,
}

// FeatureVector holds named raw audio features for one track.
type FeatureVector map[string]float64

// Transformer applies the fitted normalization and dimensionality
// reduction to a raw feature vector, producing an embedding in the same
// space as the catalog. All fitted state is immutable after load and
// shared read-only across concurrent queries.
type Transformer struct {
	// TempoScaler is the bounded-range scaler fitted on the tempo column.
	TempoScaler *MinMaxScaler

	// Scaler is the zero-mean/unit-variance scaler fitted on the selected
	// feature columns, in FeatureNames order.
	Scaler *StandardScaler

	// Projection is the fitted linear dimensionality reduction.
	Projection *Projection

	// FeatureNames is the training-time feature ordering the scaler and
	// projection expect. May include derived feature names.
	FeatureNames []string
}

// Validate checks that the fitted pieces agree on dimensionality.
// Called at artifact load; failures are fatal at startup.
func (t *Transformer) Validate() error {
	if t.TempoScaler == nil || t.Scaler == nil || t.Projection == nil {
		return fmt.Errorf("%w: transformer is missing fitted state", ErrDimensionMismatch)
	}
	if t.TempoScaler.Dim() != 1 {
		return fmt.Errorf("%w: tempo scaler fitted on %d columns, want 1", ErrDimensionMismatch, t.TempoScaler.Dim())
	}
	if len(t.FeatureNames) == 0 {
		return fmt.Errorf("%w: transformer has no feature ordering", ErrDimensionMismatch)
	}
	if t.Scaler.Dim() != len(t.FeatureNames) {
		return fmt.Errorf("%w: feature scaler fitted on %d columns, feature ordering has %d", ErrDimensionMismatch, t.Scaler.Dim(), len(t.FeatureNames))
	}
	if err := t.Projection.Validate(); err != nil {
		return err
	}
	if t.Projection.NumFeatures != len(t.FeatureNames) {
		return fmt.Errorf("%w: projection fitted on %d features, feature ordering has %d", ErrDimensionMismatch, t.Projection.NumFeatures, len(t.FeatureNames))
	}
	return nil
}

// Dim returns the embedding dimensionality the transformer produces.
func (t *Transformer) Dim() int {
	return t.Projection.NumComponents
}

// Transform produces the reduced embedding for a raw feature vector.
// Deterministic and side-effect free: a pure function of the input and
// the fitted parameters.
//
// Steps: validate the raw schema, compute derived features, scale tempo
// into the training range when it arrives as BPM, assemble the
// training-time feature ordering, standardize, and project.
func (t *Transformer) Transform(raw FeatureVector) ([]float64, error) {
	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	features := derivedFeatures(raw)

	// Catalog rows store tempo already normalized to [0, 1]; live provider
	// lookups supply BPM. Only BPM-range values pass through the scaler.
	if tempo := features[FeatureTempo]; tempo > 1.0 {
		scaled, err := t.TempoScaler.TransformOne(tempo)
		if err != nil {
			return nil, err
		}
		features[FeatureTempo] = scaled
	}

	ordered := make([]float64, len(t.FeatureNames))
	for i, name := range t.FeatureNames {
		v, ok := features[name]
		if !ok {
			logging.Warn().Str("feature", name).Msg("fitted feature absent from input, defaulting to 0")
			v = 0
		}
		ordered[i] = v
	}

	scaled, err := t.Scaler.Transform(ordered)
	if err != nil {
		return nil, err
	}

	return t.Projection.Project(scaled)
}

// validateSchema checks that every required raw feature is present and finite.
func validateSchema(raw FeatureVector) error {
	for _, name := range RawFeatureNames {
		v, ok := raw[name]
		if !ok {
			return fmt.Errorf("%w: missing required feature %q", ErrSchemaMismatch, name)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: feature %q is not a finite number", ErrSchemaMismatch, name)
		}
	}
	return nil
}

// derivedFeatures copies the raw vector and adds the engineered features
// the fitted pipeline was trained with. The dance_rhythm blend uses tempo
// as supplied, before any scaling, matching the training-time computation.
func derivedFeatures(raw FeatureVector) FeatureVector {
	out := make(FeatureVector, len(raw)+6)
	for k, v := range raw {
		out[k] = v
	}

	out["energy_to_acousticness_ratio"] = raw[FeatureEnergy] / (raw[FeatureAcousticness] + 0.01)
	out["energy_dynamics"] = raw[FeatureEnergy]
	out["dance_rhythm"] = 0.6*raw[FeatureDanceability] + 0.4*raw[FeatureTempo]
	out["emotional_content"] = raw[FeatureValence]
	out["vocal_presence"] = raw[FeatureSpeechiness] - 0.5*raw[FeatureInstrumentalness]
	out["performance_style"] = raw[FeatureLiveness]

	return out
}
