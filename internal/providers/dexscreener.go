package providers

import (
	"context"
	"fmt"
	"time"

	"token-risk-engine/internal/cache"
	"token-risk-engine/internal/domain"
	"token-risk-engine/internal/ratelimit"
)

// DefaultDexscreenerBaseURL is the public Dexscreener API endpoint.
const DefaultDexscreenerBaseURL = "https://api.dexscreener.com"

// DexscreenerClient fetches pair/liquidity data from Dexscreener.
type DexscreenerClient struct {
	http    httpConfig
	baseURL string
	limiter *ratelimit.Limiter
	cache   *cache.Cache
	budget  int
}

// DexscreenerOption configures DexscreenerClient.
type DexscreenerOption func(*DexscreenerClient)

// WithDexscreenerBaseURL overrides the API base URL.
func WithDexscreenerBaseURL(url string) DexscreenerOption {
	return func(c *DexscreenerClient) {
		c.baseURL = url
	}
}

// WithDexscreenerBudget overrides the calls-per-minute budget.
func WithDexscreenerBudget(n int) DexscreenerOption {
	return func(c *DexscreenerClient) {
		c.budget = n
	}
}

// NewDexscreenerClient creates a Dexscreener client.
func NewDexscreenerClient(limiter *ratelimit.Limiter, respCache *cache.Cache, opts ...DexscreenerOption) *DexscreenerClient {
	c := &DexscreenerClient{
		http:    defaultHTTPConfig(),
		baseURL: DefaultDexscreenerBaseURL,
		limiter: limiter,
		cache:   respCache,
		budget:  ratelimit.DefaultBudgets[ratelimit.ServiceDexscreener],
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type dexscreenerResponse struct {
	Pairs []dexscreenerPair `json:"pairs"`
}

type dexscreenerPair struct {
	ChainID     string               `json:"chainId"`
	DexID       string               `json:"dexId"`
	PairAddress string               `json:"pairAddress"`
	Liquidity   dexscreenerLiquidity `json:"liquidity"`
}

type dexscreenerLiquidity struct {
	USD float64 `json:"usd"`
}

// BestPair returns the deepest pair for a token on the given chain.
// Returns (nil, nil) when no pair exists.
func (c *DexscreenerClient) BestPair(ctx context.Context, chain domain.Chain, address string) (*PairData, error) {
	key := fmt.Sprintf("dexscreener:pair:%s-%s", chain, address)
	return cache.GetOrFetch(ctx, c.cache, key, cache.TTLPoolData, ratelimit.ServiceDexscreener,
		func(ctx context.Context) (*PairData, error) {
			if err := c.limiter.Allow(ratelimit.ServiceDexscreener, c.budget); err != nil {
				return nil, err
			}

			url := fmt.Sprintf("%s/latest/dex/tokens/%s", c.baseURL, address)
			start := time.Now()
			var resp dexscreenerResponse
			err := c.http.getJSON(ctx, url, nil, &resp)
			observeCall(ratelimit.ServiceDexscreener, start, err)
			if err != nil {
				return nil, fmt.Errorf("dexscreener tokens: %w", err)
			}

			var best *PairData
			for _, p := range resp.Pairs {
				if p.ChainID != string(chain) {
					continue
				}
				if best == nil || p.Liquidity.USD > best.LiquidityUSD {
					best = &PairData{
						PairAddress:  p.PairAddress,
						Dex:          p.DexID,
						LiquidityUSD: p.Liquidity.USD,
					}
				}
			}
			return best, nil
		})
}
