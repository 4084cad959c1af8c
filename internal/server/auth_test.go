package server

import (
	"errors"
	"net/http"
	"testing"

	"token-risk-engine/internal/domain"
)

func authRequest(t *testing.T, headers map[string]string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, "/v1/tokens/analyze", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func TestStaticAuthenticator(t *testing.T) {
	auth := NewStaticAuthenticator(map[string]domain.Tier{
		"sk-basic": domain.TierKeyBasic,
		"sk-ent":   domain.TierKeyEnterprise,
	})

	cases := []struct {
		name     string
		headers  map[string]string
		wantTier domain.Tier
		wantErr  error
	}{
		{"no key is anonymous", nil, domain.TierAnonymous, nil},
		{"bearer token", map[string]string{"Authorization": "Bearer sk-basic"}, domain.TierKeyBasic, nil},
		{"api key header", map[string]string{"X-API-Key": "sk-ent"}, domain.TierKeyEnterprise, nil},
		{"bearer wins over header", map[string]string{"Authorization": "Bearer sk-ent", "X-API-Key": "sk-basic"}, domain.TierKeyEnterprise, nil},
		{"unknown key rejected", map[string]string{"X-API-Key": "nope"}, "", ErrInvalidAPIKey},
		{"unknown bearer rejected", map[string]string{"Authorization": "Bearer nope"}, "", ErrInvalidAPIKey},
		{"non-bearer auth falls back to header", map[string]string{"Authorization": "Basic abc", "X-API-Key": "sk-basic"}, domain.TierKeyBasic, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tier, err := auth.Authenticate(authRequest(t, tc.headers))
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if tier != tc.wantTier {
				t.Errorf("tier = %q, want %q", tier, tc.wantTier)
			}
		})
	}
}

func TestStaticAuthenticator_NilKeys(t *testing.T) {
	auth := NewStaticAuthenticator(nil)

	tier, err := auth.Authenticate(authRequest(t, nil))
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if tier != domain.TierAnonymous {
		t.Errorf("tier = %q, want anonymous", tier)
	}
}
