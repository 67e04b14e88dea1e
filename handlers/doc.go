// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the dojogo API.

# Handler Types

Each handler is a struct over the query executor:

  - UserHandler: Registration and the caller's own record
  - SessionHandler: Tap-game sessions, totals and streaks
  - LeaderboardHandler: Public rankings by total taps or streak
  - ProfileHandler: Nickname (30 day cooldown) and kendo profile
  - ImuHandler: IMU capture sessions, upload credentials and manifests
  - HealthHandler: Liveness and database reachability

Authenticated handlers take the caller as an auth.Principal and are
wrapped with middleware.RequireAuth by the router:

	userHandler := handlers.NewUserHandler(store)
	mux.HandleFunc("GET /users/me", middleware.RequireAuth(verifier, userHandler.GetMe))

# Streaks

Only the first tap session of a UTC calendar day moves the streak. It
goes up by one when the player also played the day before and resets to
1 otherwise. NextStreak holds the rule; updateStreak applies it.

# IMU Capture

A capture runs in three steps:

	POST /imu-sessions               → CreateImuSession (session + upload SAS)
	(client uploads blobs under users/{user}/sessions/{id}/)
	POST /imu-sessions/{id}/finalize → FinalizeManifest (verify + register)

Create is idempotent on the caller's client_upload_id and finalize is
idempotent once the session has an end time. Both return 200 on replay.
*/
package handlers
