package server

import (
	"errors"
	"net/http"
	"strings"

	"token-risk-engine/internal/domain"
)

// ErrInvalidAPIKey is returned when a presented API key is not recognized.
var ErrInvalidAPIKey = errors.New("invalid api key")

// Authenticator resolves the caller's subscription tier from the request.
type Authenticator interface {
	Authenticate(r *http.Request) (domain.Tier, error)
}

// StaticAuthenticator maps fixed API keys to tiers. Requests without a
// key are served at the anonymous tier.
type StaticAuthenticator struct {
	keys map[string]domain.Tier
}

// NewStaticAuthenticator creates an authenticator from a key→tier map.
func NewStaticAuthenticator(keys map[string]domain.Tier) *StaticAuthenticator {
	if keys == nil {
		keys = make(map[string]domain.Tier)
	}
	return &StaticAuthenticator{keys: keys}
}

// Compile-time interface check.
var _ Authenticator = (*StaticAuthenticator)(nil)

// Authenticate resolves the tier from the Authorization bearer token or
// the X-API-Key header. An absent key is anonymous, not an error.
func (a *StaticAuthenticator) Authenticate(r *http.Request) (domain.Tier, error) {
	key := apiKey(r)
	if key == "" {
		return domain.TierAnonymous, nil
	}

	tier, ok := a.keys[key]
	if !ok {
		return "", ErrInvalidAPIKey
	}
	return tier, nil
}

func apiKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}
