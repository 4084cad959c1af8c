package analysis

import (
	"sort"
	"time"

	"token-risk-engine/internal/domain"
)

// Aggregate combines the four sub-scores into a normalized RiskScore.
// totalScore = min(round(raw/130*100), 100) with half-up integer rounding.
// Warnings are concatenated honeypot → contract → holders → liquidity, then
// stably sorted by severity rank so equal severities keep that order.
func Aggregate(address string, chain domain.Chain, hp domain.HoneypotRisk, ct domain.ContractRisk, hd domain.HolderRisk, lq domain.LiquidityRisk) *domain.RiskScore {
	raw := hp.Score + ct.Score + hd.Score + lq.Score

	total := (raw*200 + domain.MaxRawScore) / (2 * domain.MaxRawScore)
	if total > 100 {
		total = 100
	}

	warnings := make([]domain.Warning, 0, len(hp.Warnings)+len(ct.Warnings)+len(hd.Warnings)+len(lq.Warnings))
	warnings = append(warnings, hp.Warnings...)
	warnings = append(warnings, ct.Warnings...)
	warnings = append(warnings, hd.Warnings...)
	warnings = append(warnings, lq.Warnings...)
	sort.SliceStable(warnings, func(i, j int) bool {
		return warnings[i].Severity.Rank() < warnings[j].Severity.Rank()
	})

	return &domain.RiskScore{
		TokenAddress: address,
		Chain:        chain,
		TotalScore:   total,
		Level:        domain.LevelForScore(total),
		Honeypot:     hp,
		Contract:     ct,
		Holders:      hd,
		Liquidity:    lq,
		Warnings:     warnings,
		AnalyzedAt:   time.Now().UTC(),
	}
}

// SafeBaseline is the canonical all-zero score for the zero-address sentinel.
// It bypasses the sub-scorers entirely.
func SafeBaseline(address string, chain domain.Chain) *domain.RiskScore {
	return &domain.RiskScore{
		TokenAddress: address,
		Chain:        chain,
		TotalScore:   0,
		Level:        domain.LevelLow,
		Warnings:     []domain.Warning{},
		AnalyzedAt:   time.Now().UTC(),
	}
}

// UnknownToken is the canonical score for a token the primary security
// provider knows nothing about. Not a hard failure: totalScore 25, medium.
func UnknownToken(address string, chain domain.Chain, liquidity *float64) *domain.RiskScore {
	contract := domain.ContractRisk{
		Score: 15,
		Warnings: []domain.Warning{{
			Code:     domain.WarnUnverified,
			Severity: domain.SeverityMedium,
			Message:  "no security data available for this token",
		}},
	}

	liqRisk := domain.LiquidityRisk{LockedPct: -1}
	if liquidity != nil {
		liqRisk.LiquidityUSD = *liquidity
		if *liquidity < liqCritical {
			liqRisk.Warnings = append(liqRisk.Warnings, domain.Warning{
				Code:     domain.WarnLowLiquidity,
				Severity: domain.SeverityHigh,
				Message:  "reported liquidity is below $10k",
				Details:  *liquidity,
			})
		}
	}

	warnings := make([]domain.Warning, 0, 2)
	warnings = append(warnings, liqRisk.Warnings...)
	warnings = append(warnings, contract.Warnings...)

	return &domain.RiskScore{
		TokenAddress: address,
		Chain:        chain,
		TotalScore:   25,
		Level:        domain.LevelMedium,
		Honeypot:     domain.HoneypotRisk{Score: 10},
		Contract:     contract,
		Liquidity:    liqRisk,
		Warnings:     warnings,
		AnalyzedAt:   time.Now().UTC(),
	}
}
