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

// DefaultGoPlusBaseURL is the public GoPlus security API endpoint.
const DefaultGoPlusBaseURL = "https://api.gopluslabs.io"

// goplusChainIDs maps EVM chains to GoPlus numeric chain IDs.
var goplusChainIDs = map[domain.Chain]string{
	domain.ChainEthereum: "1",
	domain.ChainBase:     "8453",
	domain.ChainArbitrum: "42161",
	domain.ChainPolygon:  "137",
}

// GoPlusClient fetches token security reports from GoPlus.
type GoPlusClient struct {
	http    httpConfig
	baseURL string
	limiter *ratelimit.Limiter
	cache   *cache.Cache
	budget  int
}

// GoPlusOption configures GoPlusClient.
type GoPlusOption func(*GoPlusClient)

// WithGoPlusBaseURL overrides the API base URL.
func WithGoPlusBaseURL(url string) GoPlusOption {
	return func(c *GoPlusClient) {
		c.baseURL = url
	}
}

// WithGoPlusBudget overrides the calls-per-minute budget.
func WithGoPlusBudget(n int) GoPlusOption {
	return func(c *GoPlusClient) {
		c.budget = n
	}
}

// NewGoPlusClient creates a GoPlus client.
func NewGoPlusClient(limiter *ratelimit.Limiter, respCache *cache.Cache, opts ...GoPlusOption) *GoPlusClient {
	c := &GoPlusClient{
		http:    defaultHTTPConfig(),
		baseURL: DefaultGoPlusBaseURL,
		limiter: limiter,
		cache:   respCache,
		budget:  ratelimit.DefaultBudgets[ratelimit.ServiceGoPlus],
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// goplusEVMResponse is the wire shape of the EVM token_security endpoint.
type goplusEVMResponse struct {
	Code    int                       `json:"code"`
	Message string                    `json:"message"`
	Result  map[string]goplusEVMToken `json:"result"`
}

type goplusEVMToken struct {
	BuyTax           string            `json:"buy_tax"`
	SellTax          string            `json:"sell_tax"`
	TransferTax      string            `json:"transfer_tax"`
	IsHoneypot       string            `json:"is_honeypot"`
	CannotSellAll    string            `json:"cannot_sell_all"`
	IsOpenSource     string            `json:"is_open_source"`
	OwnerAddress     string            `json:"owner_address"`
	IsMintable       string            `json:"is_mintable"`
	TransferPausable string            `json:"transfer_pausable"`
	IsBlacklisted    string            `json:"is_blacklisted"`
	IsProxy          string            `json:"is_proxy"`
	HolderCount      string            `json:"holder_count"`
	CreatorPercent   string            `json:"creator_percent"`
	Holders          []goplusHolder    `json:"holders"`
	LPHolders        []goplusLPHolder  `json:"lp_holders"`
}

type goplusHolder struct {
	Address  string `json:"address"`
	Percent  string `json:"percent"`
	IsLocked int    `json:"is_locked"`
}

type goplusLPHolder struct {
	Address  string `json:"address"`
	Percent  string `json:"percent"`
	IsLocked int    `json:"is_locked"`
}

// goplusSolanaResponse is the wire shape of the Solana token_security endpoint.
type goplusSolanaResponse struct {
	Code    int                          `json:"code"`
	Message string                       `json:"message"`
	Result  map[string]goplusSolanaToken `json:"result"`
}

type goplusSolanaToken struct {
	Mintable       goplusAuthority      `json:"mintable"`
	Freezable      goplusAuthority      `json:"freezable"`
	HolderCount    string               `json:"holder_count"`
	Holders        []goplusSolanaHolder `json:"holders"`
	CreatorPercent string               `json:"creator_percent"`
	TransferFee    string               `json:"transfer_fee"`
}

type goplusAuthority struct {
	Status string `json:"status"` // "1" when the authority still exists
}

type goplusSolanaHolder struct {
	Account string `json:"account"`
	Percent string `json:"percent"`
}

// TokenSecurity fetches the security report for a token.
// Returns (nil, nil) when the provider has no data for the token.
func (c *GoPlusClient) TokenSecurity(ctx context.Context, chain domain.Chain, address string) (*SecurityData, error) {
	key := fmt.Sprintf("goplus:security:%s-%s", chain, address)
	return cache.GetOrFetch(ctx, c.cache, key, cache.TTLTokenSecurity, ratelimit.ServiceGoPlus,
		func(ctx context.Context) (*SecurityData, error) {
			if err := c.limiter.Allow(ratelimit.ServiceGoPlus, c.budget); err != nil {
				return nil, err
			}
			start := time.Now()
			var data *SecurityData
			var err error
			if chain.IsEVM() {
				data, err = c.fetchEVM(ctx, chain, address)
			} else {
				data, err = c.fetchSolana(ctx, address)
			}
			observeCall(ratelimit.ServiceGoPlus, start, err)
			return data, err
		})
}

func (c *GoPlusClient) fetchEVM(ctx context.Context, chain domain.Chain, address string) (*SecurityData, error) {
	url := fmt.Sprintf("%s/api/v1/token_security/%s?contract_addresses=%s", c.baseURL, goplusChainIDs[chain], address)

	var resp goplusEVMResponse
	if err := c.http.getJSON(ctx, url, nil, &resp); err != nil {
		return nil, fmt.Errorf("goplus token_security: %w", err)
	}

	token, ok := resp.Result[address]
	if !ok {
		return nil, nil
	}

	data := &SecurityData{
		BuyTax:       parsePct(token.BuyTax),
		SellTax:      parsePct(token.SellTax),
		TransferTax:  parsePct(token.TransferTax),
		IsHoneypot:   token.IsHoneypot == "1",
		CannotSellAll: token.CannotSellAll == "1",
		OpenSource:   token.IsOpenSource == "1",
		OwnerAddress: token.OwnerAddress,
		Mintable:     token.IsMintable == "1",
		Pausable:     token.TransferPausable == "1",
		HasBlacklist: token.IsBlacklisted == "1",
		IsProxy:      token.IsProxy == "1",
		HolderCount:  parseInt(token.HolderCount),
		CreatorPct:   parsePct(token.CreatorPercent),
		LockedLPPct:  -1,
	}

	for _, h := range token.Holders {
		data.TopHolders = append(data.TopHolders, TokenHolder{
			Address:  h.Address,
			Pct:      parsePct(h.Percent),
			IsLocked: h.IsLocked == 1,
		})
	}

	if len(token.LPHolders) > 0 {
		locked := 0.0
		for _, lp := range token.LPHolders {
			if lp.IsLocked == 1 {
				locked += parsePct(lp.Percent)
			}
		}
		data.LockedLPPct = locked
	}

	return data, nil
}

func (c *GoPlusClient) fetchSolana(ctx context.Context, address string) (*SecurityData, error) {
	url := fmt.Sprintf("%s/api/v1/solana/token_security?contract_addresses=%s", c.baseURL, address)

	var resp goplusSolanaResponse
	if err := c.http.getJSON(ctx, url, nil, &resp); err != nil {
		return nil, fmt.Errorf("goplus solana token_security: %w", err)
	}

	token, ok := resp.Result[address]
	if !ok {
		return nil, nil
	}

	data := &SecurityData{
		TransferTax:        parsePct(token.TransferFee),
		OpenSource:         true, // SPL token programs are canonical
		HasMintAuthority:   token.Mintable.Status == "1",
		HasFreezeAuthority: token.Freezable.Status == "1",
		HolderCount:        parseInt(token.HolderCount),
		CreatorPct:         parsePct(token.CreatorPercent),
		LockedLPPct:        -1,
	}

	for _, h := range token.Holders {
		data.TopHolders = append(data.TopHolders, TokenHolder{
			Address: h.Account,
			Pct:     parsePct(h.Percent),
		})
	}

	return data, nil
}

// parsePct converts a GoPlus fractional string ("0.05") to percent (5.0).
func parsePct(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f * 100
}

func parseInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
