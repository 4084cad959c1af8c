package domain

// TokenRequest is a single token submitted for analysis.
// It is transient: created per batch call, never persisted.
type TokenRequest struct {
	Address   string   `json:"address"`
	Chain     Chain    `json:"chainId"`
	Liquidity *float64 `json:"liquidity,omitempty"` // caller-supplied liquidity hint in USD
}

// Key returns the identity key used for deduplication and cache lookup:
// chain plus normalized address.
func (r TokenRequest) Key() string {
	return string(r.Chain) + "-" + NormalizeAddress(r.Chain, r.Address)
}

// Normalized returns a copy of the request with the address normalized.
func (r TokenRequest) Normalized() TokenRequest {
	r.Address = NormalizeAddress(r.Chain, r.Address)
	return r
}

// Tier is the caller's subscription tier, resolved by the auth collaborator.
type Tier string

const (
	TierAnonymous     Tier = "anonymous"
	TierFree          Tier = "free"
	TierPro           Tier = "pro"
	TierKeyBasic      Tier = "key_basic"
	TierKeyStandard   Tier = "key_standard"
	TierKeyEnterprise Tier = "key_enterprise"
)

// BatchLimit returns the maximum batch size for the tier.
func (t Tier) BatchLimit() int {
	switch t {
	case TierPro, TierKeyStandard:
		return 50
	case TierKeyEnterprise:
		return 100
	default:
		return 10
	}
}
