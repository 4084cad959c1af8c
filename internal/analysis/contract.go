package analysis

import (
	"strings"

	"token-risk-engine/internal/domain"
	"token-risk-engine/internal/providers"
)

// Red-flag point weights for the contract sub-score.
const (
	weightUnverified      = 10
	weightOwnerRetained   = 5
	weightMintable        = 8
	weightPausable        = 4
	weightBlacklist       = 6
	weightProxy           = 5
	weightMintAuthority   = 12
	weightFreezeAuthority = 10
)

var burnAddresses = map[string]bool{
	domain.EVMZeroAddress:                        true,
	"0x000000000000000000000000000000000000dead": true,
}

// ownerRenounced reports whether an EVM owner address counts as renounced.
func ownerRenounced(owner string) bool {
	if owner == "" {
		return true
	}
	return burnAddresses[strings.ToLower(owner)]
}

// ScoreContract inspects verification, ownership and dangerous functions.
// EVM chains check owner()/verification; Solana checks mint and freeze
// authorities instead, since ownership is an account-level concept there.
func ScoreContract(chain domain.Chain, sec *providers.SecurityData, info *providers.ContractInfo) domain.ContractRisk {
	if !chain.IsEVM() {
		return scoreSolanaAuthorities(sec)
	}

	owner := sec.OwnerAddress
	if owner == "" && info != nil {
		owner = info.Owner
	}

	risk := domain.ContractRisk{
		Verified:       sec.OpenSource,
		OwnerRenounced: ownerRenounced(owner),
		Mintable:       sec.Mintable,
		Pausable:       sec.Pausable,
		HasBlacklist:   sec.HasBlacklist,
		IsProxy:        sec.IsProxy,
	}

	if !risk.Verified {
		risk.Score += weightUnverified
		risk.Warnings = append(risk.Warnings, domain.Warning{
			Code:     domain.WarnUnverified,
			Severity: domain.SeverityMedium,
			Message:  "contract source is not verified",
		})
	}
	if !risk.OwnerRenounced {
		risk.Score += weightOwnerRetained
		risk.Warnings = append(risk.Warnings, domain.Warning{
			Code:     domain.WarnOwnerNotRenounced,
			Severity: domain.SeverityMedium,
			Message:  "contract ownership has not been renounced",
			Details:  owner,
		})
	}
	if risk.Mintable {
		risk.Score += weightMintable
		risk.Warnings = append(risk.Warnings, domain.Warning{
			Code:     domain.WarnMintable,
			Severity: domain.SeverityHigh,
			Message:  "owner can mint new tokens",
		})
	}
	if risk.Pausable {
		risk.Score += weightPausable
		risk.Warnings = append(risk.Warnings, domain.Warning{
			Code:     domain.WarnPausable,
			Severity: domain.SeverityMedium,
			Message:  "transfers can be paused",
		})
	}
	if risk.HasBlacklist {
		risk.Score += weightBlacklist
		risk.Warnings = append(risk.Warnings, domain.Warning{
			Code:     domain.WarnBlacklist,
			Severity: domain.SeverityMedium,
			Message:  "contract can blacklist addresses",
		})
	}
	if risk.IsProxy {
		risk.Score += weightProxy
		risk.Warnings = append(risk.Warnings, domain.Warning{
			Code:     domain.WarnProxy,
			Severity: domain.SeverityMedium,
			Message:  "contract is behind an upgradeable proxy",
		})
	}

	if risk.Score > domain.MaxContractScore {
		risk.Score = domain.MaxContractScore
	}
	return risk
}

func scoreSolanaAuthorities(sec *providers.SecurityData) domain.ContractRisk {
	risk := domain.ContractRisk{
		Verified:       true, // SPL token program is canonical
		OwnerRenounced: !sec.HasMintAuthority,
		Mintable:       sec.HasMintAuthority,
	}

	if sec.HasMintAuthority {
		risk.Score += weightMintAuthority
		risk.Warnings = append(risk.Warnings, domain.Warning{
			Code:     domain.WarnMintAuthority,
			Severity: domain.SeverityHigh,
			Message:  "mint authority has not been revoked",
		})
	}
	if sec.HasFreezeAuthority {
		risk.Score += weightFreezeAuthority
		risk.Warnings = append(risk.Warnings, domain.Warning{
			Code:     domain.WarnFreezeAuthority,
			Severity: domain.SeverityHigh,
			Message:  "freeze authority can lock token accounts",
		})
	}

	if risk.Score > domain.MaxContractScore {
		risk.Score = domain.MaxContractScore
	}
	return risk
}

// DegradedContract is the conservative fallback when provider data is missing.
func DegradedContract() domain.ContractRisk {
	return domain.ContractRisk{
		Score: 10,
		Warnings: []domain.Warning{{
			Code:     domain.WarnUnverified,
			Severity: domain.SeverityMedium,
			Message:  "could not verify contract safety",
		}},
	}
}
