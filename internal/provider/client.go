// Resonate - Audio Similarity and Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resonate

// Package provider implements the external music-metadata client that
// supplies raw audio features for tracks absent from the catalog. The
// client is rate limited, cached, and wrapped in a circuit breaker; every
// failure maps to one of three classes (not found, rate limited,
// unavailable) so the query resolver can degrade instead of erroring.
package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/resonate/internal/cache"
	"github.com/tomtom215/resonate/internal/config"
	"github.com/tomtom215/resonate/internal/logging"
	"github.com/tomtom215/resonate/internal/metrics"
	"github.com/tomtom215/resonate/internal/model"
)

// maxErrorBodySize bounds how much of an error response body is read for
// diagnostics.
const maxErrorBodySize = 64 * 1024 // 64KB

// TrackFeatures is a provider lookup result: the raw feature vector plus
// the display metadata the fallback ladder can use.
type TrackFeatures struct {
	Name       string
	Artist     string
	Genre      string
	Popularity int
	Features   model.FeatureVector
}

// FeatureSource is the lookup contract the query resolver depends on.
// Implemented by Client and by the circuit-breaker wrapper.
type FeatureSource interface {
	Lookup(ctx context.Context, song, artist string) (*TrackFeatures, error)
}

// Client talks to a Spotify-style metadata REST API: a track search
// endpoint followed by an audio-features endpoint. Safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	cache   *cache.Cache
}

// NewClient builds a provider client from configuration. The HTTP timeout
// bounds each attempt; the limiter refuses work locally before the
// provider has to.
func NewClient(cfg *config.ProviderConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
		cache:   cache.New("features", cfg.CacheTTL, cfg.CacheSize),
	}
}

// FeatureCache exposes the client's feature cache for sweeping.
func (c *Client) FeatureCache() *cache.Cache {
	return c.cache
}

// Lookup finds a track by name (and artist, when given) and returns its
// raw audio features. Results are cached; a cache hit never touches the
// network. Each network call gets one immediate retry on transport or
// server failure — the fallback ladder is the real recovery path, so
// aggressive retrying against a struggling provider is not worth it.
func (c *Client) Lookup(ctx context.Context, song, artist string) (*TrackFeatures, error) {
	key := cache.GenerateKey("features", [2]string{song, artist})
	if cached, ok := c.cache.Get(key); ok {
		return cached.(*TrackFeatures), nil
	}

	if !c.limiter.Allow() {
		metrics.ObserveProviderRequest("rate_limited", 0)
		return nil, fmt.Errorf("%w: local limiter", ErrRateLimited)
	}

	start := time.Now()
	result, err := c.lookup(ctx, song, artist)
	elapsed := time.Since(start)

	if err != nil {
		metrics.ObserveProviderRequest(outcomeLabel(err), elapsed)
		return nil, err
	}

	metrics.ObserveProviderRequest("ok", elapsed)
	c.cache.Set(key, result)
	return result, nil
}

func (c *Client) lookup(ctx context.Context, song, artist string) (*TrackFeatures, error) {
	track, err := c.search(ctx, song, artist)
	if err != nil {
		return nil, err
	}

	features, err := c.audioFeatures(ctx, track.ID)
	if err != nil {
		return nil, err
	}

	genre := ""
	if len(track.Genres) > 0 {
		genre = track.Genres[0]
	}

	return &TrackFeatures{
		Name:       track.Name,
		Artist:     track.primaryArtist(),
		Genre:      genre,
		Popularity: track.Popularity,
		Features:   features,
	}, nil
}

// searchTrack is one item in a search response.
type searchTrack struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Popularity int      `json:"popularity"`
	Genres     []string `json:"genres"`
	Artists    []struct {
		Name string `json:"name"`
	} `json:"artists"`
}

func (t *searchTrack) primaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0].Name
}

type searchResponse struct {
	Tracks struct {
		Items []searchTrack `json:"items"`
	} `json:"tracks"`
}

// search resolves a (song, artist) pair to the provider's best track match.
func (c *Client) search(ctx context.Context, song, artist string) (*searchTrack, error) {
	query := song
	if artist != "" {
		query = fmt.Sprintf("%s artist:%s", song, artist)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", "1")

	var result searchResponse
	if err := c.getJSON(ctx, "/v1/search?"+params.Encode(), &result); err != nil {
		return nil, err
	}

	if len(result.Tracks.Items) == 0 {
		return nil, fmt.Errorf("%w: no search results for %q", ErrNotFound, song)
	}

	return &result.Tracks.Items[0], nil
}

// audioFeaturesResponse mirrors the provider's audio-features payload.
type audioFeaturesResponse struct {
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Key              float64 `json:"key"`
	Loudness         float64 `json:"loudness"`
	Mode             float64 `json:"mode"`
	Speechiness      float64 `json:"speechiness"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"`
}

// audioFeatures fetches the raw feature vector for a provider track id.
func (c *Client) audioFeatures(ctx context.Context, trackID string) (model.FeatureVector, error) {
	var raw map[string]json.RawMessage
	if err := c.getJSON(ctx, "/v1/audio-features/"+url.PathEscape(trackID), &raw); err != nil {
		return nil, err
	}

	features := make(model.FeatureVector, len(model.RawFeatureNames))
	for _, name := range model.RawFeatureNames {
		field, ok := raw[name]
		if !ok {
			// Incomplete schema is a provider-side data gap, not an
			// internal invariant violation: route it through the ladder.
			return nil, fmt.Errorf("%w: audio features missing %q for track %s", ErrNotFound, name, trackID)
		}

		var v float64
		if err := json.Unmarshal(field, &v); err != nil {
			return nil, fmt.Errorf("%w: audio feature %q is not numeric for track %s", ErrNotFound, name, trackID)
		}
		features[name] = v
	}

	return features, nil
}

// getJSON performs a GET with one immediate retry on transport errors and
// 5xx responses, decoding the body into result.
func (c *Client) getJSON(ctx context.Context, path string, result interface{}) error {
	var lastErr error

	for attempt := 0; attempt < 2; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		}

		retryable, err := c.doJSON(ctx, path, result)
		if err == nil {
			return nil
		}
		if !retryable {
			return err
		}

		lastErr = err
		logging.Debug().Err(err).Str("path", path).Int("attempt", attempt+1).Msg("provider request failed, retrying")
	}

	return lastErr
}

// doJSON performs a single request. The boolean reports whether the
// failure is retryable (transport error or 5xx).
func (c *Client) doJSON(ctx context.Context, path string, result interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return false, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return true, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return false, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
		}
		return false, nil

	case resp.StatusCode == http.StatusNotFound:
		return false, fmt.Errorf("%w: %s", ErrNotFound, path)

	case resp.StatusCode == http.StatusTooManyRequests:
		return false, fmt.Errorf("%w: HTTP 429", ErrRateLimited)

	case resp.StatusCode >= 500:
		return true, fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)

	default:
		body := readBodyForError(resp.Body)
		return false, fmt.Errorf("%w: HTTP %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}
}

// readBodyForError reads up to maxErrorBodySize of a response body for
// diagnostics.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	return body
}
