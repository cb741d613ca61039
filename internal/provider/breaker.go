// Resonate - Audio Similarity and Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resonate

package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/resonate/internal/logging"
	"github.com/tomtom215/resonate/internal/metrics"
)

// BreakerClient wraps a FeatureSource with circuit breaker protection so a
// struggling provider stops receiving traffic instead of slowing every
// query down to its timeout. Rejections surface as ErrUnavailable, which
// the resolver already handles via the fallback ladder.
//
// Not-found answers count as successes: the provider is healthy, it just
// has no data for the track.
type BreakerClient struct {
	source FeatureSource
	cb     *gobreaker.CircuitBreaker[*TrackFeatures]
	name   string
}

// NewBreakerClient wraps source with a circuit breaker. Configuration:
// opens after a 60% failure rate over at least 10 requests in a 1 minute
// window, waits 2 minutes before half-open, allows 3 trial requests.
func NewBreakerClient(source FeatureSource) *BreakerClient {
	cbName := "metadata-provider"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[*TrackFeatures](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}

			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &BreakerClient{
		source: source,
		cb:     cb,
		name:   cbName,
	}
}

// State reports the breaker state as "closed", "half-open", or "open".
func (b *BreakerClient) State() string {
	return stateToString(b.cb.State())
}

// Lookup delegates to the wrapped source under breaker protection.
func (b *BreakerClient) Lookup(ctx context.Context, song, artist string) (*TrackFeatures, error) {
	result, err := b.cb.Execute(func() (*TrackFeatures, error) {
		result, err := b.source.Lookup(ctx, song, artist)
		if errors.Is(err, ErrNotFound) {
			// Healthy provider, no data. Swallow here and rebuild below so
			// the breaker counts it as a success.
			return nil, nil
		}
		return result, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
			return nil, fmt.Errorf("%w: circuit open", ErrUnavailable)
		}
		return nil, err
	}

	if result == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, song)
	}
	return result, nil
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
