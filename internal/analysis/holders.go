package analysis

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"token-risk-engine/internal/domain"
	"token-risk-engine/internal/providers"
)

// Concentration bands for top-10 holder share, in percent of supply.
const (
	concCritical = 80.0
	concHigh     = 60.0
	concMedium   = 40.0
	concLow      = 20.0
)

// Holder count thresholds.
const (
	fewHoldersThreshold = 50
	lowHoldersThreshold = 200
)

// ScoreHolders computes the holder-concentration sub-score.
// On Solana, off-curve accounts (PDAs such as pool vaults) are excluded
// from the concentration calculation: they are program-owned, not whales.
func ScoreHolders(chain domain.Chain, holders []providers.TokenHolder, holderCount int, creatorPct float64) domain.HolderRisk {
	if chain == domain.ChainSolana {
		holders = filterOnCurve(holders)
	}

	risk := domain.HolderRisk{
		HolderCount: holderCount,
		CreatorPct:  creatorPct,
		Top10Pct:    sumTopPct(holders, 10),
		Top20Pct:    sumTopPct(holders, 20),
	}

	switch {
	case risk.Top10Pct > concCritical:
		risk.Score += 18
		risk.Warnings = append(risk.Warnings, concentrationWarning(risk.Top10Pct, domain.SeverityCritical))
	case risk.Top10Pct > concHigh:
		risk.Score += 14
		risk.Warnings = append(risk.Warnings, concentrationWarning(risk.Top10Pct, domain.SeverityHigh))
	case risk.Top10Pct > concMedium:
		risk.Score += 9
		risk.Warnings = append(risk.Warnings, concentrationWarning(risk.Top10Pct, domain.SeverityMedium))
	case risk.Top10Pct > concLow:
		risk.Score += 4
		risk.Warnings = append(risk.Warnings, concentrationWarning(risk.Top10Pct, domain.SeverityLow))
	}

	if holderCount > 0 {
		switch {
		case holderCount < fewHoldersThreshold:
			risk.Score += 5
			risk.Warnings = append(risk.Warnings, domain.Warning{
				Code:     domain.WarnFewHolders,
				Severity: domain.SeverityHigh,
				Message:  fmt.Sprintf("only %d holders", holderCount),
				Details:  holderCount,
			})
		case holderCount < lowHoldersThreshold:
			risk.Score += 3
			risk.Warnings = append(risk.Warnings, domain.Warning{
				Code:     domain.WarnLowHolders,
				Severity: domain.SeverityMedium,
				Message:  fmt.Sprintf("low holder count of %d", holderCount),
				Details:  holderCount,
			})
		}
	}

	if creatorPct > 20 {
		risk.Score += 4
		risk.Warnings = append(risk.Warnings, domain.Warning{
			Code:     domain.WarnCreatorHolding,
			Severity: domain.SeverityHigh,
			Message:  fmt.Sprintf("creator holds %.1f%% of supply", creatorPct),
			Details:  creatorPct,
		})
	}

	if risk.Score > domain.MaxHolderScore {
		risk.Score = domain.MaxHolderScore
	}
	return risk
}

func concentrationWarning(pct float64, sev domain.Severity) domain.Warning {
	return domain.Warning{
		Code:     domain.WarnTopConcentration,
		Severity: sev,
		Message:  fmt.Sprintf("top 10 holders control %.1f%% of supply", pct),
		Details:  pct,
	}
}

func sumTopPct(holders []providers.TokenHolder, n int) float64 {
	total := 0.0
	for i, h := range holders {
		if i >= n {
			break
		}
		total += h.Pct
	}
	return total
}

// filterOnCurve keeps only holders whose address is a valid curve point.
// Program-derived addresses are intentionally off-curve.
func filterOnCurve(holders []providers.TokenHolder) []providers.TokenHolder {
	filtered := holders[:0:0]
	for _, h := range holders {
		if isOnCurve(h.Address) {
			filtered = append(filtered, h)
		}
	}
	return filtered
}

func isOnCurve(address string) bool {
	raw, err := base58.Decode(address)
	if err != nil || len(raw) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil
}

// DegradedHolders is the conservative fallback when holder data is missing.
func DegradedHolders() domain.HolderRisk {
	return domain.HolderRisk{
		Score: 10,
		Warnings: []domain.Warning{{
			Code:     domain.WarnAnalysisFailed,
			Severity: domain.SeverityMedium,
			Message:  "could not fetch holder distribution",
		}},
	}
}
