// Resonate - Audio Similarity and Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resonate

// Package middleware provides HTTP middleware shared across the API:
// request ID propagation, Prometheus instrumentation, and gzip
// compression. Middleware here uses the http.HandlerFunc form; the api
// package adapts it to Chi's func(http.Handler) http.Handler shape.
package middleware
