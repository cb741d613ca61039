// Resonate - Audio Similarity and Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resonate

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/resonate/internal/catalog"
	"github.com/tomtom215/resonate/internal/logging"
	"github.com/tomtom215/resonate/internal/model"
	"github.com/tomtom215/resonate/internal/recommend"
)

// maxBodyBytes caps POST request bodies. Queries are tiny; anything
// larger is malformed or hostile.
const maxBodyBytes = 1 << 20

// RecommendationResolver resolves a query into a ranked response.
// Satisfied by *recommend.Resolver.
type RecommendationResolver interface {
	Resolve(ctx context.Context, q recommend.Query) (*recommend.Response, error)
}

// BreakerStater reports a circuit breaker state for the status endpoint.
// Satisfied by *provider.BreakerClient.
type BreakerStater interface {
	State() string
}

// Handler holds the dependencies for all API endpoints.
type Handler struct {
	resolver  RecommendationResolver
	catalog   *catalog.Store
	artifacts *model.Store
	breaker   BreakerStater
	version   string
	startTime time.Time
}

// NewHandler creates an API handler. artifacts may be nil in tests; the
// status endpoint then reports no artifacts. breaker is nil when the
// external provider is disabled.
func NewHandler(resolver RecommendationResolver, cat *catalog.Store, artifacts *model.Store, breaker BreakerStater, version string) *Handler {
	return &Handler{
		resolver:  resolver,
		catalog:   cat,
		artifacts: artifacts,
		breaker:   breaker,
		version:   version,
		startTime: time.Now(),
	}
}

// parseLimitParam reads an optional integer query parameter, keeping the
// absent/present distinction: nil means the parameter was not supplied.
// Non-numeric values are rejected rather than defaulted, so `limit=abc`
// surfaces as a 400 just like an out-of-range number.
func parseLimitParam(r *http.Request, key string) (*int, *APIError) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil, nil
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return nil, &APIError{
			Code:    "INVALID_QUERY",
			Message: fmt.Sprintf("Parameter %q must be an integer", key),
		}
	}

	return &intValue, nil
}

// Recommendations handles GET /api/v1/recommendations?song=&artist=&limit=
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	limit, apiErr := parseLimitParam(r, "limit")
	if apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	req := RecommendationsRequest{
		Song:   r.URL.Query().Get("song"),
		Artist: r.URL.Query().Get("artist"),
		Limit:  limit,
	}
	h.resolveAndRespond(w, r, req)
}

// RecommendationsPost handles POST /api/v1/recommendations with a JSON
// body of the same shape as the GET parameters.
func (h *Handler) RecommendationsPost(w http.ResponseWriter, r *http.Request) {
	var req RecommendationsRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be a JSON object with song, artist, and limit fields", err)
		return
	}
	h.resolveAndRespond(w, r, req)
}

func (h *Handler) resolveAndRespond(w http.ResponseWriter, r *http.Request, req RecommendationsRequest) {
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	// An absent limit stays 0; the resolver substitutes its default.
	limit := 0
	if req.Limit != nil {
		limit = *req.Limit
	}

	start := time.Now()
	resp, err := h.resolver.Resolve(r.Context(), recommend.Query{
		Song:   req.Song,
		Artist: req.Artist,
		Limit:  limit,
	})
	if err != nil {
		if errors.Is(err, recommend.ErrInvalidQuery) {
			respondError(w, http.StatusBadRequest, "INVALID_QUERY", err.Error(), nil)
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Str("song", sanitizeLogValue(req.Song)).Msg("Recommendation query failed")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Recommendation pipeline failure", err)
		return
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data:   resp,
		Metadata: Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// ExampleTrack is one row of the example listing: enough for a client to
// form a valid query, without embeddings or internal identifiers.
type ExampleTrack struct {
	TrackName  string `json:"track_name"`
	ArtistName string `json:"artist_name"`
	Genre      string `json:"genre,omitempty"`
	Popularity int    `json:"popularity"`
}

// Examples handles GET /api/v1/examples?limit= and returns the most
// popular catalog tracks as query starting points.
func (h *Handler) Examples(w http.ResponseWriter, r *http.Request) {
	limit, apiErr := parseLimitParam(r, "limit")
	if apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	req := ExamplesRequest{Limit: limit}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	count := 10
	if req.Limit != nil {
		count = *req.Limit
	}
	tracks := h.catalog.TopPopular(count)
	examples := make([]ExampleTrack, 0, len(tracks))
	for _, tr := range tracks {
		examples = append(examples, ExampleTrack{
			TrackName:  tr.Name,
			ArtistName: tr.Artist,
			Genre:      tr.Genre,
			Popularity: tr.Popularity,
		})
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status:   "success",
		Data:     examples,
		Metadata: Metadata{Timestamp: time.Now()},
	})
}
