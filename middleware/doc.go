// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start and completion with a request id taken from X-Request-ID
or generated, and echoed back in the response. Each request is also counted
in the dojogo_http_* Prometheus metrics, labelled by route pattern.

# Authentication

RequireAuth runs an Authenticator before the handler and passes the verified
principal as an argument:

	mux.HandleFunc("GET /users/me", middleware.WithLogging(
		middleware.RequireAuth(verifier, userHandler.GetMe)))

Every authentication failure answers 401 and the handler never runs.

# CORS Middleware

	server := http.Server{
		Handler: middleware.CORS(cfg.CORSOrigins)(mux),
	}

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

DecodeAndValidate parses a body and checks its validate tags, returning a
client-safe message naming the first failing field:

	var req models.CreateUserRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

# Domain Metrics

RecordTaps, RecordImuSession and RecordFinalize feed counters exposed on
/metrics alongside the request metrics.
*/
package middleware
