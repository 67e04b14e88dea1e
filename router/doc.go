// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the dojogo API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(store, verifier, blobs)

blobs may be nil when storage is not configured.

# Endpoints

Public:

	GET /health      - Liveness
	GET /health/db   - Database ping with latency
	GET /metrics     - Prometheus metrics
	GET /leaderboard - Rankings (?type=total|streak&limit=N)

Users and play (bearer token required):

	POST /users          - Create or return the caller
	GET  /users/me       - Caller's record
	POST /sessions       - Record a tap session
	POST /session-starts - Log a session start
	PATCH /profile       - Update nickname, rank, experience
	PATCH /nickname      - Update nickname only

IMU capture (bearer token required):

	POST /imu-sessions               - Create session, get upload SAS
	GET  /imu-sessions               - List caller's sessions
	GET  /imu-sessions/{id}          - Session detail with files
	POST /imu-sessions/{id}/finalize - Verify uploads and close

Every route except /health and /metrics goes through
middleware.WithLogging, which assigns request IDs and records metrics
under the route pattern.
*/
package router
