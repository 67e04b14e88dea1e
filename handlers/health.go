// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/dojogo/db"
	"github.com/danielhkuo/dojogo/middleware"
	"github.com/danielhkuo/dojogo/models"
)

const dbPingTimeout = 10 * time.Second

type HealthHandler struct {
	store *db.Executor
}

func NewHealthHandler(store *db.Executor) *HealthHandler {
	return &HealthHandler{store: store}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// DBHealth handles GET /health/db
func (h *HealthHandler) DBHealth(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	err := h.store.Ping(r.Context(), dbPingTimeout)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		slog.Error("database health check failed", "latency_ms", latency, "error", err)
		middleware.JSONResponse(w, http.StatusServiceUnavailable, models.DBHealthResponse{
			Status:    "unhealthy",
			Database:  "unreachable",
			LatencyMs: latency,
			Error:     err.Error(),
		})
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.DBHealthResponse{
		Status:    "healthy",
		Database:  "connected",
		LatencyMs: latency,
	})
}
