package purchase

import (
	"context"
	"math/big"

	"github.com/pkg/errors"

	"github.com/kenesis-labs/kenesis-engine/chain"
	"github.com/kenesis-labs/kenesis-engine/wallet"
)

// Coordinator answers the two gating questions of the flow, recomputed from
// live wallet and contract state on every call. Nothing is cached: the user
// can switch network manually or revoke an approval in another tab, so a
// previous answer is never trusted.
type Coordinator struct {
	erc20         chain.ERC20
	wallet        *wallet.ConnectionManager
	spenderOfFunc func(chainID int64) string
}

// NewCoordinator builds a coordinator. spenderOf resolves the marketplace
// contract address for a chain (the approval's spender).
func NewCoordinator(erc20 chain.ERC20, walletManager *wallet.ConnectionManager, spenderOf func(chainID int64) string) (*Coordinator, error) {
	if erc20 == nil {
		return nil, errors.New("[NewCoordinator] erc20 binding is required")
	}
	if walletManager == nil {
		return nil, errors.New("[NewCoordinator] wallet manager is required")
	}
	if spenderOf == nil {
		return nil, errors.New("[NewCoordinator] spender resolver is required")
	}
	return &Coordinator{erc20: erc20, wallet: walletManager, spenderOfFunc: spenderOf}, nil
}

// NeedsSwitch reports whether the wallet must move to requiredChainID.
func (c *Coordinator) NeedsSwitch(requiredChainID int64) bool {
	return c.wallet.ChainID() != requiredChainID
}

// NeedsApproval reads the live allowance and reports whether it falls short
// of amount.
func (c *Coordinator) NeedsApproval(ctx context.Context, token chain.PaymentToken, owner string, amount *big.Int) (bool, error) {
	spender := c.spenderOfFunc(token.ChainID)
	if spender == "" {
		return false, errors.Errorf("[Coordinator.NeedsApproval] no marketplace deployment on chain %d", token.ChainID)
	}
	allowance, err := c.erc20.Allowance(ctx, token.Address, owner, spender)
	if err != nil {
		return false, errors.Wrap(err, "[Coordinator.NeedsApproval] read allowance")
	}
	return allowance.Cmp(amount) < 0, nil
}

// Spender returns the marketplace address approvals must be granted to.
func (c *Coordinator) Spender(chainID int64) string {
	return c.spenderOfFunc(chainID)
}
