package domain

import "time"

// Severity of a risk warning.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank returns the sort rank of the severity. Lower rank sorts first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	default:
		return 3
	}
}

// Warning codes emitted by the sub-scorers.
const (
	WarnHoneypot          = "HONEYPOT"
	WarnCannotSell        = "CANNOT_SELL"
	WarnHighSellTax       = "HIGH_SELL_TAX"
	WarnMediumSellTax     = "MEDIUM_SELL_TAX"
	WarnHighBuyTax        = "HIGH_BUY_TAX"
	WarnTransferTax       = "TRANSFER_TAX"
	WarnUnverified        = "UNVERIFIED"
	WarnOwnerNotRenounced = "OWNER_NOT_RENOUNCED"
	WarnMintable          = "MINTABLE"
	WarnPausable          = "PAUSABLE"
	WarnBlacklist         = "BLACKLIST"
	WarnProxy             = "PROXY"
	WarnMintAuthority     = "MINT_AUTHORITY"
	WarnFreezeAuthority   = "FREEZE_AUTHORITY"
	WarnTopConcentration  = "TOP10_CONCENTRATION"
	WarnCreatorHolding    = "CREATOR_HOLDING"
	WarnFewHolders        = "FEW_HOLDERS"
	WarnLowHolders        = "LOW_HOLDERS"
	WarnLowLiquidity      = "LOW_LIQ"
	WarnUnlockedLP        = "UNLOCKED_LP"
	WarnAnalysisFailed    = "ANALYSIS_FAILED"
)

// Warning is a single risk finding. Immutable once created.
type Warning struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Details  any      `json:"details,omitempty"`
}

// Sub-score caps. The raw total is the sum of the four caps (130).
const (
	MaxHoneypotScore  = 50
	MaxContractScore  = 30
	MaxHolderScore    = 25
	MaxLiquidityScore = 25
	MaxRawScore       = MaxHoneypotScore + MaxContractScore + MaxHolderScore + MaxLiquidityScore
)

// HoneypotRisk is the sell-ability sub-score (capped at 50).
type HoneypotRisk struct {
	Score       int       `json:"score"`
	IsHoneypot  bool      `json:"isHoneypot"`
	CannotSell  bool      `json:"cannotSell"`
	BuyTax      float64   `json:"buyTax"`
	SellTax     float64   `json:"sellTax"`
	TransferTax float64   `json:"transferTax"`
	Warnings    []Warning `json:"warnings"`
}

// ContractRisk is the contract-safety sub-score (capped at 30).
type ContractRisk struct {
	Score          int       `json:"score"`
	Verified       bool      `json:"verified"`
	OwnerRenounced bool      `json:"ownerRenounced"`
	Mintable       bool      `json:"mintable"`
	Pausable       bool      `json:"pausable"`
	HasBlacklist   bool      `json:"hasBlacklist"`
	IsProxy        bool      `json:"isProxy"`
	Warnings       []Warning `json:"warnings"`
}

// HolderRisk is the holder-concentration sub-score (capped at 25).
type HolderRisk struct {
	Score       int       `json:"score"`
	HolderCount int       `json:"holderCount"`
	Top10Pct    float64   `json:"top10Pct"`
	Top20Pct    float64   `json:"top20Pct"`
	CreatorPct  float64   `json:"creatorPct"`
	Warnings    []Warning `json:"warnings"`
}

// LiquidityRisk is the liquidity-depth sub-score (capped at 25).
type LiquidityRisk struct {
	Score        int       `json:"score"`
	LiquidityUSD float64   `json:"liquidityUsd"`
	LockedPct    float64   `json:"lockedPct"`
	Warnings     []Warning `json:"warnings"`
}

// Level is the normalized risk bucket.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// LevelForScore maps a 0-100 total score to its risk level.
// Bucket boundaries are a fixed contract: 0-14 low, 15-29 medium,
// 30-49 high, 50+ critical.
func LevelForScore(total int) Level {
	switch {
	case total >= 50:
		return LevelCritical
	case total >= 30:
		return LevelHigh
	case total >= 15:
		return LevelMedium
	default:
		return LevelLow
	}
}

// RiskScore is the final normalized analysis result for one token.
// Built exclusively by the aggregator and never mutated afterwards.
type RiskScore struct {
	TokenAddress string        `json:"tokenAddress"`
	Chain        Chain         `json:"chainId"`
	TotalScore   int           `json:"totalScore"` // 0-100
	Level        Level         `json:"level"`
	Honeypot     HoneypotRisk  `json:"honeypot"`
	Contract     ContractRisk  `json:"contract"`
	Holders      HolderRisk    `json:"holders"`
	Liquidity    LiquidityRisk `json:"liquidity"`
	Warnings     []Warning     `json:"warnings"` // severity-sorted
	AnalyzedAt   time.Time     `json:"analyzedAt"`
}

// Key returns the identity key of the scored token.
func (s *RiskScore) Key() string {
	return string(s.Chain) + "-" + NormalizeAddress(s.Chain, s.TokenAddress)
}
