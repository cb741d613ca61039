// Resonate - Audio Similarity and Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resonate

package provider

import "errors"

// Provider failure classes. All three are non-fatal to a query: the
// resolver routes them to the fallback ladder rather than surfacing them
// to the caller. They are distinguished for logging and metrics.
var (
	// ErrNotFound means the provider answered but has no match for the
	// track, or returned an incomplete feature schema.
	ErrNotFound = errors.New("provider: track not found")

	// ErrRateLimited means the provider (or our own limiter) refused the
	// request due to rate limiting.
	ErrRateLimited = errors.New("provider: rate limited")

	// ErrUnavailable means the provider could not be reached, timed out,
	// failed server-side, or the circuit breaker is open.
	ErrUnavailable = errors.New("provider: unavailable")
)

// outcomeLabel maps a lookup error to its metrics label.
func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	default:
		return "unavailable"
	}
}
