package providers

// TokenHolder is one entry of a holder snapshot. Pct is percent of supply.
type TokenHolder struct {
	Address  string
	Pct      float64
	IsLocked bool
}

// SecurityData is the normalized token security report from GoPlus.
// Tax fields are percentages (5.0 = 5%). A nil *SecurityData from the client
// means the provider knows nothing about the token.
type SecurityData struct {
	BuyTax      float64
	SellTax     float64
	TransferTax float64

	IsHoneypot    bool
	CannotSellAll bool

	OpenSource   bool
	OwnerAddress string
	Mintable     bool
	Pausable     bool
	HasBlacklist bool
	IsProxy      bool

	// Solana authority flags
	HasMintAuthority   bool
	HasFreezeAuthority bool

	HolderCount int
	CreatorPct  float64
	TopHolders  []TokenHolder

	// LockedLPPct is percent of LP supply held by lockers/burn addresses.
	// Negative when unknown.
	LockedLPPct float64
}

// PairData is the deepest trading pair for a token.
type PairData struct {
	PairAddress  string
	Dex          string
	LiquidityUSD float64
}

// ContractInfo is on-chain contract state read via EVM JSON-RPC.
type ContractInfo struct {
	HasCode  bool
	CodeSize int
	Owner    string // result of owner() call, empty if the call reverts
}

// SolanaTokenInfo is on-chain mint state read via Solana JSON-RPC.
type SolanaTokenInfo struct {
	Supply             float64
	Decimals           int
	MintAuthority      string
	FreezeAuthority    string
	LargestAccounts    []TokenHolder
	HolderAccountCount int
}

// PoolData is aggregate pool liquidity from GeckoTerminal.
type PoolData struct {
	ReserveUSD float64
	PoolCount  int
}
