package providers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"token-risk-engine/internal/cache"
	"token-risk-engine/internal/ratelimit"
)

// HeliusClient reads Solana mint state via Helius JSON-RPC.
type HeliusClient struct {
	rpc     rpcCaller
	limiter *ratelimit.Limiter
	cache   *cache.Cache
	budget  int
}

// HeliusOption configures HeliusClient.
type HeliusOption func(*HeliusClient)

// WithHeliusBudget overrides the calls-per-minute budget.
func WithHeliusBudget(n int) HeliusOption {
	return func(c *HeliusClient) {
		c.budget = n
	}
}

// NewHeliusClient creates a Helius client for the given RPC endpoint
// (API key included in the endpoint URL, Helius convention).
func NewHeliusClient(endpoint string, limiter *ratelimit.Limiter, respCache *cache.Cache, opts ...HeliusOption) *HeliusClient {
	c := &HeliusClient{
		rpc:     rpcCaller{endpoint: endpoint, http: defaultHTTPConfig()},
		limiter: limiter,
		cache:   respCache,
		budget:  ratelimit.DefaultBudgets[ratelimit.ServiceHelius],
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tokenAmount struct {
	Amount   string `json:"amount"`
	Decimals int    `json:"decimals"`
}

type largestAccountsResult struct {
	Value []struct {
		Address string `json:"address"`
		Amount  string `json:"amount"`
	} `json:"value"`
}

type supplyResult struct {
	Value tokenAmount `json:"value"`
}

type accountInfoResult struct {
	Value *struct {
		Data struct {
			Parsed struct {
				Info struct {
					MintAuthority   string `json:"mintAuthority"`
					FreezeAuthority string `json:"freezeAuthority"`
					Decimals        int    `json:"decimals"`
				} `json:"info"`
			} `json:"parsed"`
		} `json:"data"`
	} `json:"value"`
}

// TokenInfo fetches supply, authorities and the largest token accounts
// for a mint. Holder percentages are computed against total supply.
func (c *HeliusClient) TokenInfo(ctx context.Context, mint string) (*SolanaTokenInfo, error) {
	key := "helius:token:" + mint
	return cache.GetOrFetch(ctx, c.cache, key, cache.TTLHolderData, ratelimit.ServiceHelius,
		func(ctx context.Context) (*SolanaTokenInfo, error) {
			// Three RPC calls per uncached token: supply, largest accounts, mint account.
			if err := c.limiter.Allow(ratelimit.ServiceHelius, c.budget); err != nil {
				return nil, err
			}

			start := time.Now()
			info, err := c.fetch(ctx, mint)
			observeCall(ratelimit.ServiceHelius, start, err)
			return info, err
		})
}

func (c *HeliusClient) fetch(ctx context.Context, mint string) (*SolanaTokenInfo, error) {
	var supply supplyResult
	if err := c.rpc.call(ctx, "getTokenSupply", []any{mint}, &supply); err != nil {
		return nil, fmt.Errorf("getTokenSupply: %w", err)
	}

	var largest largestAccountsResult
	if err := c.rpc.call(ctx, "getTokenLargestAccounts", []any{mint}, &largest); err != nil {
		return nil, fmt.Errorf("getTokenLargestAccounts: %w", err)
	}

	var account accountInfoResult
	params := []any{mint, map[string]string{"encoding": "jsonParsed"}}
	if err := c.rpc.call(ctx, "getAccountInfo", params, &account); err != nil {
		return nil, fmt.Errorf("getAccountInfo: %w", err)
	}

	totalSupply, _ := strconv.ParseFloat(supply.Value.Amount, 64)
	info := &SolanaTokenInfo{
		Supply:   totalSupply,
		Decimals: supply.Value.Decimals,
	}

	if account.Value != nil {
		info.MintAuthority = account.Value.Data.Parsed.Info.MintAuthority
		info.FreezeAuthority = account.Value.Data.Parsed.Info.FreezeAuthority
	}

	for _, acc := range largest.Value {
		amount, _ := strconv.ParseFloat(acc.Amount, 64)
		pct := 0.0
		if totalSupply > 0 {
			pct = amount / totalSupply * 100
		}
		info.LargestAccounts = append(info.LargestAccounts, TokenHolder{
			Address: acc.Address,
			Pct:     pct,
		})
	}
	info.HolderAccountCount = len(info.LargestAccounts)

	return info, nil
}
