// Resonate - Audio Similarity and Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resonate

package api

// RecommendationsRequest is the validated shape of a recommendation
// query, whether it arrived as URL parameters or a JSON body. Limit is a
// pointer so an absent limit (use the configured default) stays distinct
// from an explicit out-of-range value like 0, which must be rejected.
type RecommendationsRequest struct {
	Song   string `json:"song" validate:"required,max=512"`
	Artist string `json:"artist" validate:"omitempty,max=512"`
	Limit  *int   `json:"limit" validate:"omitempty,min=1,max=20"`
}

// ExamplesRequest bounds the example track listing.
type ExamplesRequest struct {
	Limit *int `json:"limit" validate:"omitempty,min=1,max=50"`
}
