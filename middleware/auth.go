// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/dojogo/auth"
)

// Authenticator turns a raw request into a principal
type Authenticator interface {
	Authenticate(r *http.Request) (auth.Principal, error)
}

// AuthedHandlerFunc is a handler that receives the verified caller
// explicitly instead of reading it from the request
type AuthedHandlerFunc func(w http.ResponseWriter, r *http.Request, p auth.Principal)

// RequireAuth rejects unauthenticated requests with 401 before next runs
func RequireAuth(a Authenticator, next AuthedHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := a.Authenticate(r)
		if err != nil {
			authFailuresTotal.WithLabelValues(authFailureReason(err)).Inc()
			slog.Warn("authentication failed", "path", r.URL.Path, "error", err)

			if errors.Is(err, auth.ErrMissingToken) {
				ErrorResponse(w, http.StatusUnauthorized, "Missing or invalid authorization header")
				return
			}
			ErrorResponse(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		next(w, r, p)
	}
}

func authFailureReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return "missing_token"
	case errors.Is(err, auth.ErrUnknownKey):
		return "unknown_key"
	case errors.Is(err, auth.ErrKeySetFetch):
		return "jwks_unavailable"
	default:
		return "invalid_token"
	}
}
