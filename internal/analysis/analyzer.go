package analysis

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"token-risk-engine/internal/domain"
	"token-risk-engine/internal/observability"
	"token-risk-engine/internal/providers"
	"token-risk-engine/internal/ratelimit"
)

// SecurityProvider supplies token security reports (primary provider).
type SecurityProvider interface {
	TokenSecurity(ctx context.Context, chain domain.Chain, address string) (*providers.SecurityData, error)
}

// PairProvider supplies the deepest trading pair for a token.
type PairProvider interface {
	BestPair(ctx context.Context, chain domain.Chain, address string) (*providers.PairData, error)
}

// ContractReader reads on-chain EVM contract state.
type ContractReader interface {
	ContractInfo(ctx context.Context, chain domain.Chain, address string) (*providers.ContractInfo, error)
}

// SolanaReader reads on-chain Solana mint state.
type SolanaReader interface {
	TokenInfo(ctx context.Context, mint string) (*providers.SolanaTokenInfo, error)
}

// PoolProvider supplies aggregate pool liquidity (fallback source).
type PoolProvider interface {
	TokenPools(ctx context.Context, chain domain.Chain, address string) (*providers.PoolData, error)
}

// Analyzer runs the four sub-scorers for a single token and aggregates them.
type Analyzer struct {
	security  SecurityProvider
	pairs     PairProvider
	contracts ContractReader
	solana    SolanaReader
	pools     PoolProvider
	logger    *log.Logger
}

// Options for creating an Analyzer. Security and Pairs are required;
// the on-chain readers and the pool fallback are optional.
type Options struct {
	Security  SecurityProvider
	Pairs     PairProvider
	Contracts ContractReader
	Solana    SolanaReader
	Pools     PoolProvider
	Logger    *log.Logger
}

// New creates an Analyzer.
func New(opts Options) *Analyzer {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[analyzer] ", log.LstdFlags)
	}
	return &Analyzer{
		security:  opts.Security,
		pairs:     opts.Pairs,
		contracts: opts.Contracts,
		solana:    opts.Solana,
		pools:     opts.Pools,
		logger:    logger,
	}
}

// fetchResults holds the outcome of the concurrent provider fan-out.
type fetchResults struct {
	pair    *providers.PairData
	pairErr error

	contract    *providers.ContractInfo
	contractErr error

	solToken    *providers.SolanaTokenInfo
	solTokenErr error

	pool    *providers.PoolData
	poolErr error
}

// Analyze produces a RiskScore for one token. Provider failures degrade the
// affected sub-score; only rate-limit errors and context cancellation are
// returned to the caller.
func (a *Analyzer) Analyze(ctx context.Context, req domain.TokenRequest) (*domain.RiskScore, error) {
	start := time.Now()
	score, err := a.analyze(ctx, req)
	if err == nil {
		observability.RecordAnalysis(string(score.Level), time.Since(start).Seconds())
	}
	return score, err
}

func (a *Analyzer) analyze(ctx context.Context, req domain.TokenRequest) (*domain.RiskScore, error) {
	address := domain.NormalizeAddress(req.Chain, req.Address)

	// Known-benign baseline short-circuits everything.
	if domain.IsZeroAddress(req.Chain, address) {
		return SafeBaseline(address, req.Chain), nil
	}

	sec, err := a.security.TokenSecurity(ctx, req.Chain, address)
	if err != nil {
		var rlErr *ratelimit.Error
		if errors.As(err, &rlErr) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Printf("security provider unreachable for %s: %v", address, err)
		sec = nil
	}
	if sec == nil {
		return UnknownToken(address, req.Chain, req.Liquidity), nil
	}

	res, err := a.fanOut(ctx, req.Chain, address)
	if err != nil {
		return nil, err
	}

	hp := ScoreHoneypot(sec)
	ct := a.scoreContract(req.Chain, sec, res)
	hd := a.scoreHolders(req.Chain, sec, res)
	lq := a.scoreLiquidity(req, sec, res)

	return Aggregate(address, req.Chain, hp, ct, hd, lq), nil
}

// fanOut runs the independent provider fetches concurrently.
// Fetch failures are recorded per result; a rate-limit error aborts the
// group so the remaining fetches stop early.
func (a *Analyzer) fanOut(ctx context.Context, chain domain.Chain, address string) (*fetchResults, error) {
	res := &fetchResults{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		res.pair, res.pairErr = a.pairs.BestPair(gctx, chain, address)
		return rateLimitOnly(res.pairErr)
	})

	if chain.IsEVM() && a.contracts != nil {
		g.Go(func() error {
			res.contract, res.contractErr = a.contracts.ContractInfo(gctx, chain, address)
			return rateLimitOnly(res.contractErr)
		})
	}

	if chain == domain.ChainSolana {
		if a.solana != nil {
			g.Go(func() error {
				res.solToken, res.solTokenErr = a.solana.TokenInfo(gctx, address)
				return rateLimitOnly(res.solTokenErr)
			})
		}
		if a.pools != nil {
			g.Go(func() error {
				res.pool, res.poolErr = a.pools.TokenPools(gctx, chain, address)
				return rateLimitOnly(res.poolErr)
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// rateLimitOnly passes through rate-limit errors and swallows the rest;
// non-limit failures degrade the sub-score instead of failing the token.
func rateLimitOnly(err error) error {
	var rlErr *ratelimit.Error
	if errors.As(err, &rlErr) {
		return err
	}
	return nil
}

func (a *Analyzer) scoreContract(chain domain.Chain, sec *providers.SecurityData, res *fetchResults) domain.ContractRisk {
	if chain.IsEVM() && res.contractErr != nil {
		a.logger.Printf("contract read failed: %v", res.contractErr)
		return DegradedContract()
	}

	if chain == domain.ChainSolana && res.solToken != nil {
		// On-chain authority state is fresher than the security report.
		sec = cloneWithAuthorities(sec, res.solToken)
	}
	return ScoreContract(chain, sec, res.contract)
}

func cloneWithAuthorities(sec *providers.SecurityData, info *providers.SolanaTokenInfo) *providers.SecurityData {
	clone := *sec
	clone.HasMintAuthority = info.MintAuthority != ""
	clone.HasFreezeAuthority = info.FreezeAuthority != ""
	return &clone
}

func (a *Analyzer) scoreHolders(chain domain.Chain, sec *providers.SecurityData, res *fetchResults) domain.HolderRisk {
	holders := sec.TopHolders
	holderCount := sec.HolderCount

	if chain == domain.ChainSolana {
		if res.solTokenErr != nil && len(holders) == 0 {
			a.logger.Printf("holder fetch failed: %v", res.solTokenErr)
			return DegradedHolders()
		}
		if res.solToken != nil && len(res.solToken.LargestAccounts) > 0 {
			holders = res.solToken.LargestAccounts
		}
	}

	return ScoreHolders(chain, holders, holderCount, sec.CreatorPct)
}

func (a *Analyzer) scoreLiquidity(req domain.TokenRequest, sec *providers.SecurityData, res *fetchResults) domain.LiquidityRisk {
	liquidity, known := a.resolveLiquidity(req, res)
	if !known {
		a.logger.Printf("liquidity unavailable for %s: %v", req.Address, res.pairErr)
		return DegradedLiquidity()
	}
	return ScoreLiquidity(liquidity, sec.LockedLPPct)
}

// resolveLiquidity picks the best available liquidity figure:
// deepest pair, then pool reserves, then the caller-supplied hint.
// A successful pair lookup with no pairs means liquidity is genuinely zero.
func (a *Analyzer) resolveLiquidity(req domain.TokenRequest, res *fetchResults) (float64, bool) {
	if res.pair != nil {
		return res.pair.LiquidityUSD, true
	}
	if res.pool != nil {
		return res.pool.ReserveUSD, true
	}
	if req.Liquidity != nil {
		return *req.Liquidity, true
	}
	if res.pairErr == nil {
		return 0, true
	}
	return 0, false
}
