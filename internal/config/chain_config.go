package config

import "strconv"

type Chains struct{}

var _ ChainConfig = Chains{}

// Marketplace contract deployments per chain. Overridable through
// MARKETPLACE_ADDRESS_<chainID> for test deployments.
var defaultMarketplaceAddresses = map[int64]string{
	1:     "0x6A92fE7c34f2c805783f05e08c835f3429bD7b2B",
	137:   "0x24B0c9E1DbE17Cd2E76ca8D6c6cb86a602b935B7",
	56:    "0x5E9743B4E2D6fE90DE84afB8c9Fb1BcEDcF128E3",
	8453:  "0x9aF0e4A9Eb1FB5aB0cD3eD0657424cd7C5CF9BfA",
	42161: "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC",
}

func (Chains) GetDefaultChainID() int64 {
	raw := GetEnv("DEFAULT_CHAIN_ID", "137")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 137
	}
	return id
}

func (Chains) GetMarketplaceAddress(chainID int64) string {
	if addr := GetEnv("MARKETPLACE_ADDRESS_"+strconv.FormatInt(chainID, 10), ""); addr != "" {
		return addr
	}
	return defaultMarketplaceAddresses[chainID]
}
