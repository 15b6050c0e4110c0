package chain

import (
	"context"
	"math/big"
)

// Receipt is the outcome of a mined transaction, reduced to what the
// purchase flow consumes.
type Receipt struct {
	TxHash     string
	Successful bool
	// TokenID is the minted access NFT, set by marketplace purchases
	TokenID *big.Int
}

// ERC20 is the token-contract capability required for approvals. Bound to a
// concrete RPC client outside the engine.
type ERC20 interface {
	// Allowance reads the live spender allowance for owner
	Allowance(ctx context.Context, token, owner, spender string) (*big.Int, error)

	// Approve submits an approval transaction and returns its hash
	Approve(ctx context.Context, token, spender string, amount *big.Int) (string, error)

	// WaitMined blocks until the transaction is mined or ctx expires
	WaitMined(ctx context.Context, txHash string) (*Receipt, error)
}

// Marketplace is the purchase-contract capability.
type Marketplace interface {
	// Quote reads the token amount owed for a course in the given token
	Quote(ctx context.Context, courseID, tokenAddress string) (*big.Int, error)

	// Purchase submits the purchase transaction and returns its hash.
	// metadataURI is the ipfs:// content address the mint records.
	Purchase(ctx context.Context, p PurchaseParams) (string, error)

	// WaitMined blocks until the purchase transaction is mined
	WaitMined(ctx context.Context, txHash string) (*Receipt, error)
}

// PurchaseParams is the call data of a marketplace purchase.
type PurchaseParams struct {
	CourseID            string
	Buyer               string
	TokenAddress        string
	TokenAmount         *big.Int
	AffiliateAddress    string
	AffiliatePercentage int64 // basis points
	MetadataURI         string
}
