// Resonate - Audio Similarity and Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resonate

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/resonate/internal/model"
)

// Healthz handles GET /healthz. It reports liveness only: the process is
// up and serving. Artifact problems are caught at startup, not here.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &APIResponse{
		Status:   "success",
		Data:     map[string]string{"status": "healthy"},
		Metadata: Metadata{Timestamp: time.Now()},
	})
}

// CatalogStatus summarizes the loaded catalog arena.
type CatalogStatus struct {
	Tracks       int `json:"tracks"`
	Partitions   int `json:"partitions"`
	EmbeddingDim int `json:"embedding_dimensions"`
}

// ProviderStatus reports whether external feature lookups are configured
// and, when they are, the circuit breaker state.
type ProviderStatus struct {
	Enabled      bool   `json:"enabled"`
	BreakerState string `json:"breaker_state,omitempty"`
}

// StatusData is the payload of GET /api/v1/status.
type StatusData struct {
	Version       string           `json:"version"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	Catalog       CatalogStatus    `json:"catalog"`
	Provider      ProviderStatus   `json:"provider"`
	Artifacts     []model.Metadata `json:"artifacts"`
}

// Status handles GET /api/v1/status with catalog and artifact details
// for operators.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	data := StatusData{
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Catalog: CatalogStatus{
			Tracks:       h.catalog.Len(),
			Partitions:   h.catalog.Partitions(),
			EmbeddingDim: h.catalog.EmbeddingDim(),
		},
		Provider:  ProviderStatus{Enabled: h.breaker != nil},
		Artifacts: []model.Metadata{},
	}
	if h.breaker != nil {
		data.Provider.BreakerState = h.breaker.State()
	}
	if h.artifacts != nil {
		data.Artifacts = h.artifacts.List()
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: Metadata{Timestamp: time.Now()},
	})
}
