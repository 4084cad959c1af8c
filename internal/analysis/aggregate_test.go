package analysis

import (
	"testing"

	"token-risk-engine/internal/domain"
)

func TestAggregate_Normalization(t *testing.T) {
	tests := []struct {
		name      string
		hp        int
		ct        int
		hd        int
		lq        int
		wantTotal int
		wantLevel domain.Level
	}{
		{"all zero", 0, 0, 0, 0, 0, domain.LevelLow},
		{"raw max normalizes to 100", 50, 30, 25, 25, 100, domain.LevelCritical},
		{"raw 13 rounds to 10", 13, 0, 0, 0, 10, domain.LevelLow},
		{"raw 19 rounds half-up to 15", 19, 0, 0, 0, 15, domain.LevelMedium},
		{"raw 65 is exactly 50", 50, 15, 0, 0, 50, domain.LevelCritical},
		{"raw 39 rounds to 30", 25, 14, 0, 0, 30, domain.LevelHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := Aggregate("0xabc", domain.ChainEthereum,
				domain.HoneypotRisk{Score: tt.hp},
				domain.ContractRisk{Score: tt.ct},
				domain.HolderRisk{Score: tt.hd},
				domain.LiquidityRisk{Score: tt.lq},
			)
			if score.TotalScore != tt.wantTotal {
				t.Errorf("total = %d, want %d", score.TotalScore, tt.wantTotal)
			}
			if score.Level != tt.wantLevel {
				t.Errorf("level = %s, want %s", score.Level, tt.wantLevel)
			}
		})
	}
}

func TestAggregate_TotalAlwaysInRange(t *testing.T) {
	for raw := 0; raw <= domain.MaxRawScore; raw++ {
		score := Aggregate("0xabc", domain.ChainBase,
			domain.HoneypotRisk{Score: raw}, domain.ContractRisk{}, domain.HolderRisk{}, domain.LiquidityRisk{})
		if score.TotalScore < 0 || score.TotalScore > 100 {
			t.Fatalf("raw=%d: total %d out of [0,100]", raw, score.TotalScore)
		}
	}
}

func TestAggregate_WarningOrder(t *testing.T) {
	hp := domain.HoneypotRisk{Warnings: []domain.Warning{
		{Code: "HP_MED", Severity: domain.SeverityMedium},
		{Code: "HP_CRIT", Severity: domain.SeverityCritical},
	}}
	ct := domain.ContractRisk{Warnings: []domain.Warning{
		{Code: "CT_MED", Severity: domain.SeverityMedium},
	}}
	hd := domain.HolderRisk{Warnings: []domain.Warning{
		{Code: "HD_LOW", Severity: domain.SeverityLow},
		{Code: "HD_CRIT", Severity: domain.SeverityCritical},
	}}
	lq := domain.LiquidityRisk{Warnings: []domain.Warning{
		{Code: "LQ_HIGH", Severity: domain.SeverityHigh},
	}}

	score := Aggregate("0xabc", domain.ChainEthereum, hp, ct, hd, lq)

	var codes []string
	for _, w := range score.Warnings {
		codes = append(codes, w.Code)
	}

	// Severity rank first; equal severities keep concatenation order hp→ct→hd→lq
	want := []string{"HP_CRIT", "HD_CRIT", "LQ_HIGH", "HP_MED", "CT_MED", "HD_LOW"}
	if len(codes) != len(want) {
		t.Fatalf("got %d warnings, want %d", len(codes), len(want))
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("warnings[%d] = %s, want %s (full order %v)", i, codes[i], want[i], codes)
		}
	}

	// No warning with rank N may appear before one with rank < N
	for i := 1; i < len(score.Warnings); i++ {
		if score.Warnings[i].Severity.Rank() < score.Warnings[i-1].Severity.Rank() {
			t.Errorf("warning %d (%s) sorted before higher severity", i, score.Warnings[i].Code)
		}
	}
}

func TestSafeBaseline(t *testing.T) {
	score := SafeBaseline(domain.EVMZeroAddress, domain.ChainEthereum)
	if score.TotalScore != 0 {
		t.Errorf("total = %d, want 0", score.TotalScore)
	}
	if score.Level != domain.LevelLow {
		t.Errorf("level = %s, want low", score.Level)
	}
	if len(score.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", score.Warnings)
	}
}

func TestUnknownToken(t *testing.T) {
	score := UnknownToken("0xabc", domain.ChainEthereum, nil)
	if score.TotalScore != 25 {
		t.Errorf("total = %d, want 25", score.TotalScore)
	}
	if score.Level != domain.LevelMedium {
		t.Errorf("level = %s, want medium", score.Level)
	}
	if findWarning(score.Warnings, domain.WarnUnverified) == nil {
		t.Error("missing UNVERIFIED warning")
	}
	if findWarning(score.Warnings, domain.WarnLowLiquidity) != nil {
		t.Error("unexpected LOW_LIQ warning without a liquidity hint")
	}
}

func TestUnknownToken_LowLiquidityHint(t *testing.T) {
	liq := 5000.0
	score := UnknownToken("0xabc", domain.ChainEthereum, &liq)
	if score.TotalScore != 25 {
		t.Errorf("total = %d, want 25", score.TotalScore)
	}
	if findWarning(score.Warnings, domain.WarnLowLiquidity) == nil {
		t.Error("missing LOW_LIQ warning for liquidity below $10k")
	}

	rich := 50_000.0
	score = UnknownToken("0xabc", domain.ChainEthereum, &rich)
	if findWarning(score.Warnings, domain.WarnLowLiquidity) != nil {
		t.Error("unexpected LOW_LIQ warning for liquidity above $10k")
	}
}
