package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mr-tron/base58"
)

// Chain identifies a supported blockchain network.
type Chain string

const (
	ChainEthereum Chain = "ethereum"
	ChainBase     Chain = "base"
	ChainSolana   Chain = "solana"
	ChainArbitrum Chain = "arbitrum"
	ChainPolygon  Chain = "polygon"
)

// AllChains lists every supported chain.
var AllChains = []Chain{ChainEthereum, ChainBase, ChainSolana, ChainArbitrum, ChainPolygon}

// Valid reports whether the chain is supported.
func (c Chain) Valid() bool {
	switch c {
	case ChainEthereum, ChainBase, ChainSolana, ChainArbitrum, ChainPolygon:
		return true
	}
	return false
}

// IsEVM reports whether the chain uses EVM-style hex addresses.
func (c Chain) IsEVM() bool {
	return c != ChainSolana
}

// EVMZeroAddress is the known-benign baseline address on EVM chains.
const EVMZeroAddress = "0x0000000000000000000000000000000000000000"

// SolanaSystemProgram is the system program address, used as the
// known-benign baseline on Solana.
const SolanaSystemProgram = "11111111111111111111111111111111"

var evmAddressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidationError describes a malformed token request entry.
type ValidationError struct {
	Address string
	Chain   string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid token %s on %s: %s", e.Address, e.Chain, e.Reason)
}

// ValidateAddress checks the address format for the given chain.
func ValidateAddress(chain Chain, address string) error {
	if !chain.Valid() {
		return &ValidationError{Address: address, Chain: string(chain), Reason: "unsupported chain"}
	}
	if chain.IsEVM() {
		if !evmAddressPattern.MatchString(address) {
			return &ValidationError{Address: address, Chain: string(chain), Reason: "malformed EVM address"}
		}
		return nil
	}
	raw, err := base58.Decode(address)
	if err != nil || len(raw) != 32 {
		return &ValidationError{Address: address, Chain: string(chain), Reason: "malformed Solana address"}
	}
	return nil
}

// NormalizeAddress lowercases EVM addresses. Solana addresses are
// case-sensitive and returned untouched.
func NormalizeAddress(chain Chain, address string) string {
	if chain.IsEVM() {
		return strings.ToLower(address)
	}
	return address
}

// IsZeroAddress reports whether address is the chain's benign baseline sentinel.
func IsZeroAddress(chain Chain, address string) bool {
	if chain.IsEVM() {
		return strings.EqualFold(address, EVMZeroAddress)
	}
	return address == SolanaSystemProgram
}
