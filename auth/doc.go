// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth verifies identity provider bearer tokens.

# Verification

A Verifier is bound to one provider domain and one API audience:

	v := auth.NewVerifier("tenant.auth0.com", "https://api.example", nil)
	p, err := v.Authenticate(r)

Authenticate reads "Authorization: Bearer <token>" and calls Verify, which:

  - parses the compact JWS, accepting RS256 only
  - fetches https://{domain}/.well-known/jwks.json (every call, no cache)
  - selects the key whose kid matches the token header
  - checks signature, issuer https://{domain}/, audience and expiry
  - returns the sub claim as Principal.UserID

# Errors

ErrMissingToken, ErrInvalidToken, ErrUnknownKey and ErrKeySetFetch all mean
the request is unauthenticated. Callers answer 401 without doing any further
work.
*/
package auth
