package chain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Network describes a supported chain.
type Network struct {
	ID           int64
	Name         string
	NativeSymbol string
	ExplorerURL  string
}

// PaymentToken is an ERC-20 the marketplace accepts on a given chain.
type PaymentToken struct {
	Symbol   string
	ChainID  int64
	Address  string
	Decimals int
	// USDRate is the stable-token fallback rate (tokens per USD) used when
	// the on-chain quote view is unavailable. 0 means no local fallback.
	USDRate float64
}

// Key returns the "SYMBOL-chainID" form used by course payment options.
func (t PaymentToken) Key() string {
	return fmt.Sprintf("%s-%d", t.Symbol, t.ChainID)
}

var networks = map[int64]Network{
	1:     {ID: 1, Name: "Ethereum", NativeSymbol: "ETH", ExplorerURL: "https://etherscan.io"},
	56:    {ID: 56, Name: "BNB Smart Chain", NativeSymbol: "BNB", ExplorerURL: "https://bscscan.com"},
	137:   {ID: 137, Name: "Polygon", NativeSymbol: "POL", ExplorerURL: "https://polygonscan.com"},
	8453:  {ID: 8453, Name: "Base", NativeSymbol: "ETH", ExplorerURL: "https://basescan.org"},
	42161: {ID: 42161, Name: "Arbitrum One", NativeSymbol: "ETH", ExplorerURL: "https://arbiscan.io"},
}

var paymentTokens = map[string]PaymentToken{
	"USDT-1":     {Symbol: "USDT", ChainID: 1, Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Decimals: 6, USDRate: 1},
	"USDC-1":     {Symbol: "USDC", ChainID: 1, Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6, USDRate: 1},
	"USDT-56":    {Symbol: "USDT", ChainID: 56, Address: "0x55d398326f99059fF775485246999027B3197955", Decimals: 18, USDRate: 1},
	"USDT-137":   {Symbol: "USDT", ChainID: 137, Address: "0xc2132D05D31c914a87C6611C10748AEb04B58e8F", Decimals: 6, USDRate: 1},
	"USDC-137":   {Symbol: "USDC", ChainID: 137, Address: "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359", Decimals: 6, USDRate: 1},
	"USDC-8453":  {Symbol: "USDC", ChainID: 8453, Address: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Decimals: 6, USDRate: 1},
	"USDC-42161": {Symbol: "USDC", ChainID: 42161, Address: "0xaf88d065e77c8cC2239327C5EDb3A432268e5831", Decimals: 6, USDRate: 1},
}

var ErrUnknownToken = errors.New("unknown payment token")

// GetNetwork looks up a chain by ID.
func GetNetwork(chainID int64) (Network, bool) {
	n, ok := networks[chainID]
	return n, ok
}

// GetToken resolves a "SYMBOL-chainID" key against the registry.
func GetToken(key string) (PaymentToken, error) {
	t, ok := paymentTokens[strings.ToUpper(strings.TrimSpace(key))]
	if !ok {
		return PaymentToken{}, errors.Wrap(ErrUnknownToken, key)
	}
	return t, nil
}

// ParseTokenKey splits a "SYMBOL-chainID" selection string without requiring
// registry membership. Used by validation to distinguish a malformed key
// from an unsupported token.
func ParseTokenKey(key string) (symbol string, chainID int64, err error) {
	idx := strings.LastIndex(key, "-")
	if idx <= 0 || idx == len(key)-1 {
		return "", 0, errors.Errorf("[ParseTokenKey] malformed token key %q", key)
	}
	symbol = strings.ToUpper(strings.TrimSpace(key[:idx]))
	chainID, err = strconv.ParseInt(key[idx+1:], 10, 64)
	if err != nil {
		return "", 0, errors.Wrapf(err, "[ParseTokenKey] chain id in %q", key)
	}
	if chainID <= 0 {
		return "", 0, errors.Errorf("[ParseTokenKey] non-positive chain id in %q", key)
	}
	return symbol, chainID, nil
}
