package analysis

import (
	"fmt"

	"token-risk-engine/internal/domain"
)

// Absolute liquidity thresholds in USD.
const (
	liqCritical = 10_000.0
	liqHigh     = 50_000.0
	liqMedium   = 100_000.0
)

// ScoreLiquidity scores low absolute liquidity and insufficient locked LP.
// lockedPct < 0 means the locked share is unknown and is not scored.
func ScoreLiquidity(liquidityUSD, lockedPct float64) domain.LiquidityRisk {
	risk := domain.LiquidityRisk{
		LiquidityUSD: liquidityUSD,
		LockedPct:    lockedPct,
	}

	switch {
	case liquidityUSD < liqCritical:
		risk.Score += 15
		risk.Warnings = append(risk.Warnings, domain.Warning{
			Code:     domain.WarnLowLiquidity,
			Severity: domain.SeverityCritical,
			Message:  fmt.Sprintf("very low liquidity of $%.0f", liquidityUSD),
			Details:  liquidityUSD,
		})
	case liquidityUSD < liqHigh:
		risk.Score += 10
		risk.Warnings = append(risk.Warnings, domain.Warning{
			Code:     domain.WarnLowLiquidity,
			Severity: domain.SeverityHigh,
			Message:  fmt.Sprintf("low liquidity of $%.0f", liquidityUSD),
			Details:  liquidityUSD,
		})
	case liquidityUSD < liqMedium:
		risk.Score += 5
		risk.Warnings = append(risk.Warnings, domain.Warning{
			Code:     domain.WarnLowLiquidity,
			Severity: domain.SeverityMedium,
			Message:  fmt.Sprintf("moderate liquidity of $%.0f", liquidityUSD),
			Details:  liquidityUSD,
		})
	}

	if lockedPct >= 0 {
		switch {
		case lockedPct < 50:
			risk.Score += 10
			risk.Warnings = append(risk.Warnings, domain.Warning{
				Code:     domain.WarnUnlockedLP,
				Severity: domain.SeverityHigh,
				Message:  fmt.Sprintf("only %.1f%% of LP is locked or burned", lockedPct),
				Details:  lockedPct,
			})
		case lockedPct < 80:
			risk.Score += 5
			risk.Warnings = append(risk.Warnings, domain.Warning{
				Code:     domain.WarnUnlockedLP,
				Severity: domain.SeverityMedium,
				Message:  fmt.Sprintf("%.1f%% of LP is locked or burned", lockedPct),
				Details:  lockedPct,
			})
		}
	}

	if risk.Score > domain.MaxLiquidityScore {
		risk.Score = domain.MaxLiquidityScore
	}
	return risk
}

// DegradedLiquidity is the conservative fallback when pool data is missing.
func DegradedLiquidity() domain.LiquidityRisk {
	return domain.LiquidityRisk{
		LockedPct: -1,
		Score:     10,
		Warnings: []domain.Warning{{
			Code:     domain.WarnAnalysisFailed,
			Severity: domain.SeverityMedium,
			Message:  "could not fetch liquidity data",
		}},
	}
}
