// Resonate - Audio Similarity and Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resonate

package model

import "errors"

// Sentinel errors for fitted-artifact and transform failures. Wrap with
// fmt.Errorf("%w: ...") to add context; check with errors.Is.
var (
	// ErrSchemaMismatch indicates a raw feature vector is missing a field
	// the fitted pipeline requires, or carries a non-finite value.
	ErrSchemaMismatch = errors.New("feature schema mismatch")

	// ErrDimensionMismatch indicates a vector's dimensionality disagrees
	// with the fitted parameters. Fatal at startup validation; a query-time
	// occurrence is a bug and must surface as an internal error.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrMissingArtifact indicates a required fitted artifact file is absent
	// from the artifact directory. The wrapped message names the file.
	ErrMissingArtifact = errors.New("missing artifact")
)
