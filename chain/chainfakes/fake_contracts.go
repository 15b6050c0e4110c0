package chainfakes

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/kenesis-labs/kenesis-engine/chain"
)

var (
	_ chain.ERC20       = (*FakeERC20)(nil)
	_ chain.Marketplace = (*FakeMarketplace)(nil)
)

// FakeERC20 is an in-memory token contract with scriptable allowance state.
// An approval only takes effect once WaitMined observes it, mirroring that a
// real allowance changes when the approval transaction is mined.
type FakeERC20 struct {
	lock       sync.Mutex
	owner      string
	allowances map[string]*big.Int // owner|spender

	pendingSpender string
	pendingAmount  *big.Int

	AllowanceErr  error
	ApproveErr    error
	WaitMinedErr  error
	ApproveCount  int
	AllowanceHits int
}

// NewFakeERC20 creates a fake token whose Approve calls act on behalf of
// owner.
func NewFakeERC20(owner string) *FakeERC20 {
	return &FakeERC20{owner: owner, allowances: make(map[string]*big.Int)}
}

func allowanceKey(owner, spender string) string {
	return owner + "|" + spender
}

// SetAllowance scripts the current allowance, as a user granting or revoking
// approval out-of-band would.
func (f *FakeERC20) SetAllowance(owner, spender string, amount *big.Int) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.allowances[allowanceKey(owner, spender)] = new(big.Int).Set(amount)
}

func (f *FakeERC20) Allowance(_ context.Context, _, owner, spender string) (*big.Int, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.AllowanceHits++
	if f.AllowanceErr != nil {
		return nil, f.AllowanceErr
	}
	if a, ok := f.allowances[allowanceKey(owner, spender)]; ok {
		return new(big.Int).Set(a), nil
	}
	return big.NewInt(0), nil
}

func (f *FakeERC20) Approve(_ context.Context, _, spender string, amount *big.Int) (string, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.ApproveCount++
	if f.ApproveErr != nil {
		return "", f.ApproveErr
	}
	f.pendingSpender = spender
	f.pendingAmount = new(big.Int).Set(amount)
	return fmt.Sprintf("0xapprove%04d", f.ApproveCount), nil
}

func (f *FakeERC20) WaitMined(_ context.Context, txHash string) (*chain.Receipt, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.WaitMinedErr != nil {
		return nil, f.WaitMinedErr
	}
	if f.pendingAmount != nil {
		f.allowances[allowanceKey(f.owner, f.pendingSpender)] = f.pendingAmount
		f.pendingAmount = nil
	}
	return &chain.Receipt{TxHash: txHash, Successful: true}, nil
}

// FakeMarketplace is an in-memory marketplace contract.
type FakeMarketplace struct {
	lock sync.Mutex

	QuoteAmount   *big.Int
	QuoteErr      error
	PurchaseErr   error
	WaitMinedErr  error
	PurchaseCount int
	NextTokenID   int64

	LastParams chain.PurchaseParams
}

func NewFakeMarketplace() *FakeMarketplace {
	return &FakeMarketplace{NextTokenID: 1}
}

func (f *FakeMarketplace) Quote(_ context.Context, _, _ string) (*big.Int, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.QuoteErr != nil {
		return nil, f.QuoteErr
	}
	if f.QuoteAmount == nil {
		return nil, errors.New("quote view not scripted")
	}
	return new(big.Int).Set(f.QuoteAmount), nil
}

func (f *FakeMarketplace) Purchase(_ context.Context, p chain.PurchaseParams) (string, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.PurchaseCount++
	if f.PurchaseErr != nil {
		return "", f.PurchaseErr
	}
	f.LastParams = p
	return fmt.Sprintf("0xpurchase%04d", f.PurchaseCount), nil
}

func (f *FakeMarketplace) WaitMined(_ context.Context, txHash string) (*chain.Receipt, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.WaitMinedErr != nil {
		return nil, f.WaitMinedErr
	}
	tokenID := big.NewInt(f.NextTokenID)
	f.NextTokenID++
	return &chain.Receipt{TxHash: txHash, Successful: true, TokenID: tokenID}, nil
}
