// Package analysis computes the four risk sub-scores and aggregates them
// into a normalized 0-100 risk score.
package analysis

import (
	"fmt"

	"token-risk-engine/internal/domain"
	"token-risk-engine/internal/providers"
)

// Sell tax bands in percent.
const (
	sellTaxNearMax = 50.0
	sellTaxHigh    = 20.0
	sellTaxMedium  = 10.0
)

// ScoreHoneypot derives the sell-ability sub-score from provider security data.
// A direct honeypot flag from the provider hard-caps the score at max.
func ScoreHoneypot(sec *providers.SecurityData) domain.HoneypotRisk {
	risk := domain.HoneypotRisk{
		IsHoneypot:  sec.IsHoneypot,
		CannotSell:  sec.CannotSellAll,
		BuyTax:      sec.BuyTax,
		SellTax:     sec.SellTax,
		TransferTax: sec.TransferTax,
	}

	if sec.IsHoneypot {
		risk.Score = domain.MaxHoneypotScore
		risk.Warnings = append(risk.Warnings, domain.Warning{
			Code:     domain.WarnHoneypot,
			Severity: domain.SeverityCritical,
			Message:  "token is flagged as a honeypot",
		})
	}

	if sec.CannotSellAll {
		risk.Score += 40
		risk.Warnings = append(risk.Warnings, domain.Warning{
			Code:     domain.WarnCannotSell,
			Severity: domain.SeverityCritical,
			Message:  "holders cannot sell all of their tokens",
		})
	}

	switch {
	case sec.SellTax >= sellTaxNearMax:
		risk.Score += 45
		risk.Warnings = append(risk.Warnings, domain.Warning{
			Code:     domain.WarnHighSellTax,
			Severity: domain.SeverityCritical,
			Message:  fmt.Sprintf("extreme sell tax of %.1f%%", sec.SellTax),
			Details:  sec.SellTax,
		})
	case sec.SellTax >= sellTaxHigh:
		risk.Score += 25
		risk.Warnings = append(risk.Warnings, domain.Warning{
			Code:     domain.WarnHighSellTax,
			Severity: domain.SeverityHigh,
			Message:  fmt.Sprintf("high sell tax of %.1f%%", sec.SellTax),
			Details:  sec.SellTax,
		})
	case sec.SellTax >= sellTaxMedium:
		risk.Score += 12
		risk.Warnings = append(risk.Warnings, domain.Warning{
			Code:     domain.WarnMediumSellTax,
			Severity: domain.SeverityMedium,
			Message:  fmt.Sprintf("elevated sell tax of %.1f%%", sec.SellTax),
			Details:  sec.SellTax,
		})
	}

	if sec.BuyTax >= 20 {
		risk.Score += 10
		risk.Warnings = append(risk.Warnings, domain.Warning{
			Code:     domain.WarnHighBuyTax,
			Severity: domain.SeverityHigh,
			Message:  fmt.Sprintf("high buy tax of %.1f%%", sec.BuyTax),
			Details:  sec.BuyTax,
		})
	}

	if sec.TransferTax >= 10 {
		risk.Score += 8
		risk.Warnings = append(risk.Warnings, domain.Warning{
			Code:     domain.WarnTransferTax,
			Severity: domain.SeverityMedium,
			Message:  fmt.Sprintf("transfer tax of %.1f%%", sec.TransferTax),
			Details:  sec.TransferTax,
		})
	}

	if risk.Score > domain.MaxHoneypotScore {
		risk.Score = domain.MaxHoneypotScore
	}
	return risk
}

// DegradedHoneypot is the conservative fallback when the provider is unreachable.
func DegradedHoneypot() domain.HoneypotRisk {
	return domain.HoneypotRisk{
		Score: 15,
		Warnings: []domain.Warning{{
			Code:     domain.WarnAnalysisFailed,
			Severity: domain.SeverityHigh,
			Message:  "could not verify sell-ability",
		}},
	}
}
