package providers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"token-risk-engine/internal/cache"
	"token-risk-engine/internal/domain"
	"token-risk-engine/internal/ratelimit"
)

// DefaultGeckoTerminalBaseURL is the public GeckoTerminal API endpoint.
const DefaultGeckoTerminalBaseURL = "https://api.geckoterminal.com"

// geckoNetworks maps chains to GeckoTerminal network slugs.
var geckoNetworks = map[domain.Chain]string{
	domain.ChainEthereum: "eth",
	domain.ChainBase:     "base",
	domain.ChainSolana:   "solana",
	domain.ChainArbitrum: "arbitrum",
	domain.ChainPolygon:  "polygon_pos",
}

// GeckoTerminalClient fetches pool liquidity from GeckoTerminal.
type GeckoTerminalClient struct {
	http    httpConfig
	baseURL string
	limiter *ratelimit.Limiter
	cache   *cache.Cache
	budget  int
}

// GeckoTerminalOption configures GeckoTerminalClient.
type GeckoTerminalOption func(*GeckoTerminalClient)

// WithGeckoTerminalBaseURL overrides the API base URL.
func WithGeckoTerminalBaseURL(url string) GeckoTerminalOption {
	return func(c *GeckoTerminalClient) {
		c.baseURL = url
	}
}

// WithGeckoTerminalBudget overrides the calls-per-minute budget.
func WithGeckoTerminalBudget(n int) GeckoTerminalOption {
	return func(c *GeckoTerminalClient) {
		c.budget = n
	}
}

// NewGeckoTerminalClient creates a GeckoTerminal client.
func NewGeckoTerminalClient(limiter *ratelimit.Limiter, respCache *cache.Cache, opts ...GeckoTerminalOption) *GeckoTerminalClient {
	c := &GeckoTerminalClient{
		http:    defaultHTTPConfig(),
		baseURL: DefaultGeckoTerminalBaseURL,
		limiter: limiter,
		cache:   respCache,
		budget:  ratelimit.DefaultBudgets[ratelimit.ServiceGeckoTerminal],
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type geckoPoolsResponse struct {
	Data []struct {
		Attributes struct {
			ReserveInUSD string `json:"reserve_in_usd"`
		} `json:"attributes"`
	} `json:"data"`
}

// TokenPools returns aggregate pool liquidity for a token.
// Returns (nil, nil) when the token has no pools.
func (c *GeckoTerminalClient) TokenPools(ctx context.Context, chain domain.Chain, address string) (*PoolData, error) {
	key := fmt.Sprintf("geckoterminal:pools:%s-%s", chain, address)
	return cache.GetOrFetch(ctx, c.cache, key, cache.TTLPoolData, ratelimit.ServiceGeckoTerminal,
		func(ctx context.Context) (*PoolData, error) {
			if err := c.limiter.Allow(ratelimit.ServiceGeckoTerminal, c.budget); err != nil {
				return nil, err
			}

			network, ok := geckoNetworks[chain]
			if !ok {
				return nil, fmt.Errorf("no geckoterminal network for chain %s", chain)
			}

			url := fmt.Sprintf("%s/api/v2/networks/%s/tokens/%s/pools", c.baseURL, network, address)
			start := time.Now()
			var resp geckoPoolsResponse
			err := c.http.getJSON(ctx, url, nil, &resp)
			observeCall(ratelimit.ServiceGeckoTerminal, start, err)
			if err != nil {
				return nil, fmt.Errorf("geckoterminal pools: %w", err)
			}

			if len(resp.Data) == 0 {
				return nil, nil
			}

			pool := &PoolData{PoolCount: len(resp.Data)}
			for _, d := range resp.Data {
				reserve, _ := strconv.ParseFloat(d.Attributes.ReserveInUSD, 64)
				pool.ReserveUSD += reserve
			}
			return pool, nil
		})
}
