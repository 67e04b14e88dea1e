// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

var (
	ErrMissingToken = errors.New("missing or malformed authorization header")
	ErrInvalidToken = errors.New("invalid token")
	ErrUnknownKey   = errors.New("signing key not found in key set")
	ErrKeySetFetch  = errors.New("failed to fetch key set")
)

// clockLeeway tolerates small skew between us and the identity provider
const clockLeeway = time.Minute

// Principal is the authenticated caller
type Principal struct {
	UserID string
}

// Verifier checks RS256 bearer tokens against the identity provider's
// published key set. The key set is fetched on every verification.
type Verifier struct {
	domain   string
	audience string
	jwksURL  string
	client   *http.Client
}

// NewVerifier creates a verifier for tokens issued by https://{domain}/ for
// the given audience. A nil client uses a 10 second timeout client.
func NewVerifier(domain, audience string, client *http.Client) *Verifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	domain = strings.TrimSuffix(strings.TrimPrefix(domain, "https://"), "/")
	return &Verifier{
		domain:   domain,
		audience: audience,
		jwksURL:  "https://" + domain + "/.well-known/jwks.json",
		client:   client,
	}
}

// Issuer returns the expected iss claim
func (v *Verifier) Issuer() string {
	return "https://" + v.domain + "/"
}

// Authenticate extracts the bearer token from r and verifies it
func (v *Verifier) Authenticate(r *http.Request) (Principal, error) {
	token, err := BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return Principal{}, err
	}
	return v.Verify(r.Context(), token)
}

// Verify checks signature, issuer, audience and time claims of a compact JWS
// and returns the subject as the principal.
func (v *Verifier) Verify(ctx context.Context, raw string) (Principal, error) {
	tok, err := jwt.ParseSigned(raw, []jose.SignatureAlgorithm{jose.RS256})
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if len(tok.Headers) == 0 || tok.Headers[0].KeyID == "" {
		return Principal{}, fmt.Errorf("%w: no key id in header", ErrInvalidToken)
	}
	kid := tok.Headers[0].KeyID

	keySet, err := v.fetchKeySet(ctx)
	if err != nil {
		return Principal{}, err
	}

	keys := keySet.Key(kid)
	if len(keys) == 0 {
		return Principal{}, fmt.Errorf("%w: kid %q", ErrUnknownKey, kid)
	}

	var claims jwt.Claims
	if err := tok.Claims(keys[0].Key, &claims); err != nil {
		return Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	expected := jwt.Expected{
		Issuer:      v.Issuer(),
		AnyAudience: jwt.Audience{v.audience},
		Time:        time.Now(),
	}
	if err := claims.ValidateWithLeeway(expected, clockLeeway); err != nil {
		return Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Principal{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return Principal{UserID: claims.Subject}, nil
}

func (v *Verifier) fetchKeySet(ctx context.Context) (*jose.JSONWebKeySet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeySetFetch, err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeySetFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrKeySetFetch, resp.StatusCode)
	}

	var set jose.JSONWebKeySet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeySetFetch, err)
	}
	return &set, nil
}

// BearerToken parses an Authorization header of the form "Bearer <token>".
// The scheme is case-insensitive.
func BearerToken(header string) (string, error) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrMissingToken
	}
	return parts[1], nil
}
