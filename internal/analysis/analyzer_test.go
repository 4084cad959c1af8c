package analysis

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"token-risk-engine/internal/domain"
	"token-risk-engine/internal/providers"
	"token-risk-engine/internal/ratelimit"
)

type stubSecurity struct {
	data *providers.SecurityData
	err  error
}

func (s *stubSecurity) TokenSecurity(_ context.Context, _ domain.Chain, _ string) (*providers.SecurityData, error) {
	return s.data, s.err
}

type stubPairs struct {
	pair *providers.PairData
	err  error
}

func (s *stubPairs) BestPair(_ context.Context, _ domain.Chain, _ string) (*providers.PairData, error) {
	return s.pair, s.err
}

type stubContracts struct {
	info *providers.ContractInfo
	err  error
}

func (s *stubContracts) ContractInfo(_ context.Context, _ domain.Chain, _ string) (*providers.ContractInfo, error) {
	return s.info, s.err
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func cleanSecurity() *providers.SecurityData {
	return &providers.SecurityData{
		OpenSource:   true,
		OwnerAddress: domain.EVMZeroAddress,
		HolderCount:  10000,
		LockedLPPct:  95,
	}
}

func TestAnalyzer_ZeroAddressSentinel(t *testing.T) {
	a := New(Options{
		Security: &stubSecurity{err: errors.New("must not be called")},
		Pairs:    &stubPairs{err: errors.New("must not be called")},
		Logger:   quietLogger(),
	})

	liq := 3.0
	score, err := a.Analyze(context.Background(), domain.TokenRequest{
		Address:   domain.EVMZeroAddress,
		Chain:     domain.ChainEthereum,
		Liquidity: &liq,
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if score.TotalScore != 0 || score.Level != domain.LevelLow || len(score.Warnings) != 0 {
		t.Errorf("sentinel score = %d/%s with %d warnings, want 0/low/0",
			score.TotalScore, score.Level, len(score.Warnings))
	}
}

func TestAnalyzer_CleanToken(t *testing.T) {
	a := New(Options{
		Security: &stubSecurity{data: cleanSecurity()},
		Pairs:    &stubPairs{pair: &providers.PairData{LiquidityUSD: 2_000_000}},
		Logger:   quietLogger(),
	})

	score, err := a.Analyze(context.Background(), domain.TokenRequest{
		Address: "0xABC0000000000000000000000000000000000001",
		Chain:   domain.ChainEthereum,
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if score.TotalScore != 0 {
		t.Errorf("total = %d, want 0 for clean token", score.TotalScore)
	}
	if score.TokenAddress != "0xabc0000000000000000000000000000000000001" {
		t.Errorf("address not normalized: %s", score.TokenAddress)
	}
}

func TestAnalyzer_UnknownToken(t *testing.T) {
	a := New(Options{
		Security: &stubSecurity{data: nil},
		Pairs:    &stubPairs{},
		Logger:   quietLogger(),
	})

	liq := 500.0
	score, err := a.Analyze(context.Background(), domain.TokenRequest{
		Address:   "0xabc0000000000000000000000000000000000002",
		Chain:     domain.ChainEthereum,
		Liquidity: &liq,
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if score.TotalScore != 25 || score.Level != domain.LevelMedium {
		t.Errorf("unknown token = %d/%s, want 25/medium", score.TotalScore, score.Level)
	}
	if findWarning(score.Warnings, domain.WarnUnverified) == nil {
		t.Error("missing UNVERIFIED warning")
	}
	if findWarning(score.Warnings, domain.WarnLowLiquidity) == nil {
		t.Error("missing LOW_LIQ warning")
	}
}

func TestAnalyzer_SecurityProviderDownYieldsUnknown(t *testing.T) {
	a := New(Options{
		Security: &stubSecurity{err: errors.New("connection refused")},
		Pairs:    &stubPairs{},
		Logger:   quietLogger(),
	})

	score, err := a.Analyze(context.Background(), domain.TokenRequest{
		Address: "0xabc0000000000000000000000000000000000003",
		Chain:   domain.ChainEthereum,
	})
	if err != nil {
		t.Fatalf("Analyze must not fail on provider errors: %v", err)
	}
	if score.TotalScore != 25 {
		t.Errorf("total = %d, want canonical 25", score.TotalScore)
	}
}

func TestAnalyzer_RateLimitPropagates(t *testing.T) {
	a := New(Options{
		Security: &stubSecurity{err: &ratelimit.Error{Service: "goplus", RetryAfter: 30}},
		Pairs:    &stubPairs{},
		Logger:   quietLogger(),
	})

	_, err := a.Analyze(context.Background(), domain.TokenRequest{
		Address: "0xabc0000000000000000000000000000000000004",
		Chain:   domain.ChainEthereum,
	})

	var rlErr *ratelimit.Error
	if !errors.As(err, &rlErr) {
		t.Fatalf("expected rate limit error to propagate, got %v", err)
	}
	if rlErr.RetryAfter != 30 {
		t.Errorf("retryAfter = %d, want 30", rlErr.RetryAfter)
	}
}

func TestAnalyzer_PairFetchFailureDegradesLiquidity(t *testing.T) {
	a := New(Options{
		Security: &stubSecurity{data: cleanSecurity()},
		Pairs:    &stubPairs{err: errors.New("dexscreener down")},
		Logger:   quietLogger(),
	})

	score, err := a.Analyze(context.Background(), domain.TokenRequest{
		Address: "0xabc0000000000000000000000000000000000005",
		Chain:   domain.ChainEthereum,
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if score.Liquidity.Score != 10 {
		t.Errorf("degraded liquidity score = %d, want 10", score.Liquidity.Score)
	}
	if findWarning(score.Warnings, domain.WarnAnalysisFailed) == nil {
		t.Error("missing ANALYSIS_FAILED warning")
	}
}

func TestAnalyzer_ContractReadFailureDegradesContract(t *testing.T) {
	a := New(Options{
		Security:  &stubSecurity{data: cleanSecurity()},
		Pairs:     &stubPairs{pair: &providers.PairData{LiquidityUSD: 2_000_000}},
		Contracts: &stubContracts{err: errors.New("alchemy down")},
		Logger:    quietLogger(),
	})

	score, err := a.Analyze(context.Background(), domain.TokenRequest{
		Address: "0xabc0000000000000000000000000000000000006",
		Chain:   domain.ChainEthereum,
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if score.Contract.Score != 10 {
		t.Errorf("degraded contract score = %d, want 10", score.Contract.Score)
	}
}

func TestAnalyzer_LiquidityHintUsedWhenNoPair(t *testing.T) {
	a := New(Options{
		Security: &stubSecurity{data: cleanSecurity()},
		Pairs:    &stubPairs{}, // lookup succeeds, no pairs found
		Logger:   quietLogger(),
	})

	liq := 60_000.0
	score, err := a.Analyze(context.Background(), domain.TokenRequest{
		Address:   "0xabc0000000000000000000000000000000000007",
		Chain:     domain.ChainEthereum,
		Liquidity: &liq,
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if score.Liquidity.LiquidityUSD != 60_000 {
		t.Errorf("liquidity = %f, want hint 60000", score.Liquidity.LiquidityUSD)
	}
	if score.Liquidity.Score != 5 {
		t.Errorf("liquidity score = %d, want 5 (moderate band)", score.Liquidity.Score)
	}
}
