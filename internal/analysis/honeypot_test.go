package analysis

import (
	"testing"

	"token-risk-engine/internal/domain"
	"token-risk-engine/internal/providers"
)

func findWarning(warnings []domain.Warning, code string) *domain.Warning {
	for i := range warnings {
		if warnings[i].Code == code {
			return &warnings[i]
		}
	}
	return nil
}

func TestScoreHoneypot_CleanToken(t *testing.T) {
	risk := ScoreHoneypot(&providers.SecurityData{BuyTax: 1, SellTax: 1})
	if risk.Score != 0 {
		t.Errorf("score = %d, want 0", risk.Score)
	}
	if len(risk.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", risk.Warnings)
	}
}

func TestScoreHoneypot_FlaggedCapsAtMax(t *testing.T) {
	risk := ScoreHoneypot(&providers.SecurityData{
		IsHoneypot:    true,
		CannotSellAll: true,
		SellTax:       99,
	})
	if risk.Score != domain.MaxHoneypotScore {
		t.Errorf("score = %d, want %d", risk.Score, domain.MaxHoneypotScore)
	}

	w := findWarning(risk.Warnings, domain.WarnHoneypot)
	if w == nil {
		t.Fatal("missing HONEYPOT warning")
	}
	if w.Severity != domain.SeverityCritical {
		t.Errorf("severity = %s, want critical", w.Severity)
	}
}

func TestScoreHoneypot_SellTaxBands(t *testing.T) {
	tests := []struct {
		sellTax   float64
		wantScore int
		wantCode  string
		wantSev   domain.Severity
	}{
		{55, 45, domain.WarnHighSellTax, domain.SeverityCritical},
		{50, 45, domain.WarnHighSellTax, domain.SeverityCritical},
		{30, 25, domain.WarnHighSellTax, domain.SeverityHigh},
		{20, 25, domain.WarnHighSellTax, domain.SeverityHigh},
		{15, 12, domain.WarnMediumSellTax, domain.SeverityMedium},
		{10, 12, domain.WarnMediumSellTax, domain.SeverityMedium},
		{9, 0, "", ""},
	}

	for _, tt := range tests {
		risk := ScoreHoneypot(&providers.SecurityData{SellTax: tt.sellTax})
		if risk.Score != tt.wantScore {
			t.Errorf("sellTax=%.0f: score = %d, want %d", tt.sellTax, risk.Score, tt.wantScore)
		}
		if tt.wantCode == "" {
			continue
		}
		w := findWarning(risk.Warnings, tt.wantCode)
		if w == nil {
			t.Errorf("sellTax=%.0f: missing %s warning", tt.sellTax, tt.wantCode)
			continue
		}
		if w.Severity != tt.wantSev {
			t.Errorf("sellTax=%.0f: severity = %s, want %s", tt.sellTax, w.Severity, tt.wantSev)
		}
	}
}

func TestScoreHoneypot_NeverExceedsCap(t *testing.T) {
	risk := ScoreHoneypot(&providers.SecurityData{
		CannotSellAll: true,
		SellTax:       60,
		BuyTax:        30,
		TransferTax:   20,
	})
	if risk.Score != domain.MaxHoneypotScore {
		t.Errorf("score = %d, want capped at %d", risk.Score, domain.MaxHoneypotScore)
	}
}

func TestDegradedHoneypot(t *testing.T) {
	risk := DegradedHoneypot()
	if risk.Score < 10 || risk.Score > 15 {
		t.Errorf("degraded score = %d, want in [10, 15]", risk.Score)
	}
	if findWarning(risk.Warnings, domain.WarnAnalysisFailed) == nil {
		t.Error("missing ANALYSIS_FAILED warning")
	}
}
