package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"token-risk-engine/internal/cache"
	"token-risk-engine/internal/domain"
	"token-risk-engine/internal/ratelimit"
)

// ownerSelector is the 4-byte selector of owner().
const ownerSelector = "0x8da5cb5b"

// AlchemyClient reads EVM contract state via Alchemy JSON-RPC.
type AlchemyClient struct {
	rpcs    map[domain.Chain]*rpcCaller
	limiter *ratelimit.Limiter
	cache   *cache.Cache
	budget  int
}

// AlchemyOption configures AlchemyClient.
type AlchemyOption func(*AlchemyClient)

// WithAlchemyBudget overrides the calls-per-minute budget.
func WithAlchemyBudget(n int) AlchemyOption {
	return func(c *AlchemyClient) {
		c.budget = n
	}
}

// NewAlchemyClient creates an Alchemy client from per-chain RPC endpoints.
func NewAlchemyClient(endpoints map[domain.Chain]string, limiter *ratelimit.Limiter, respCache *cache.Cache, opts ...AlchemyOption) *AlchemyClient {
	c := &AlchemyClient{
		rpcs:    make(map[domain.Chain]*rpcCaller, len(endpoints)),
		limiter: limiter,
		cache:   respCache,
		budget:  ratelimit.DefaultBudgets[ratelimit.ServiceAlchemy],
	}
	for chain, endpoint := range endpoints {
		c.rpcs[chain] = &rpcCaller{endpoint: endpoint, http: defaultHTTPConfig()}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ContractInfo reads code presence and owner() for a token contract.
// An owner() revert is normal (not every token has one) and yields an
// empty Owner, not an error.
func (c *AlchemyClient) ContractInfo(ctx context.Context, chain domain.Chain, address string) (*ContractInfo, error) {
	rpc, ok := c.rpcs[chain]
	if !ok {
		return nil, fmt.Errorf("no alchemy endpoint configured for chain %s", chain)
	}

	key := fmt.Sprintf("alchemy:contract:%s-%s", chain, address)
	return cache.GetOrFetch(ctx, c.cache, key, cache.TTLTokenSecurity, ratelimit.ServiceAlchemy,
		func(ctx context.Context) (*ContractInfo, error) {
			if err := c.limiter.Allow(ratelimit.ServiceAlchemy, c.budget); err != nil {
				return nil, err
			}

			start := time.Now()
			var code string
			if err := rpc.call(ctx, "eth_getCode", []any{address, "latest"}, &code); err != nil {
				observeCall(ratelimit.ServiceAlchemy, start, err)
				return nil, fmt.Errorf("eth_getCode: %w", err)
			}

			info := &ContractInfo{
				HasCode:  len(code) > 2, // "0x" means no code
				CodeSize: (len(code) - 2) / 2,
			}
			if !info.HasCode {
				observeCall(ratelimit.ServiceAlchemy, start, nil)
				return info, nil
			}

			var ownerRaw string
			callParams := []any{map[string]string{"to": address, "data": ownerSelector}, "latest"}
			if err := rpc.call(ctx, "eth_call", callParams, &ownerRaw); err == nil {
				info.Owner = decodeAddressWord(ownerRaw)
			}

			observeCall(ratelimit.ServiceAlchemy, start, nil)
			return info, nil
		})
}

// decodeAddressWord extracts an address from a 32-byte ABI-encoded word.
func decodeAddressWord(word string) string {
	word = strings.TrimPrefix(word, "0x")
	if len(word) != 64 {
		return ""
	}
	return "0x" + strings.ToLower(word[24:])
}
