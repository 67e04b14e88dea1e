// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/dojogo/db"
	"github.com/danielhkuo/dojogo/handlers"
	"github.com/danielhkuo/dojogo/middleware"
	"github.com/danielhkuo/dojogo/storage"
)

// NewRouter wires every endpoint. blobs may be nil when storage is not
// configured; the IMU endpoints then answer 500.
func NewRouter(store *db.Executor, authn middleware.Authenticator, blobs storage.Gateway) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	userHandler := handlers.NewUserHandler(store)
	sessionHandler := handlers.NewSessionHandler(store)
	leaderboardHandler := handlers.NewLeaderboardHandler(store)
	profileHandler := handlers.NewProfileHandler(store)
	imuHandler := handlers.NewImuHandler(store, blobs)
	healthHandler := handlers.NewHealthHandler(store)

	protected := func(h middleware.AuthedHandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAuth(authn, h))
	}

	// Health and metrics
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /health/db", middleware.WithLogging(healthHandler.DBHealth))
	mux.Handle("GET /metrics", promhttp.Handler())

	// Users
	mux.HandleFunc("POST /users", protected(userHandler.CreateUser))
	mux.HandleFunc("GET /users/me", protected(userHandler.GetMe))

	// Tap sessions
	mux.HandleFunc("POST /sessions", protected(sessionHandler.CreateSession))
	mux.HandleFunc("POST /session-starts", protected(sessionHandler.LogSessionStart))

	// Leaderboard (public)
	mux.HandleFunc("GET /leaderboard", middleware.WithLogging(leaderboardHandler.GetLeaderboard))

	// Profile
	mux.HandleFunc("PATCH /profile", protected(profileHandler.UpdateProfile))
	mux.HandleFunc("PATCH /nickname", protected(profileHandler.UpdateNickname))

	// IMU capture
	mux.HandleFunc("POST /imu-sessions", protected(imuHandler.CreateImuSession))
	mux.HandleFunc("GET /imu-sessions", protected(imuHandler.ListImuSessions))
	mux.HandleFunc("GET /imu-sessions/{id}", protected(imuHandler.GetImuSession))
	mux.HandleFunc("POST /imu-sessions/{id}/finalize", protected(imuHandler.FinalizeManifest))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("dojogo API v1"))
	})

	return mux
}
