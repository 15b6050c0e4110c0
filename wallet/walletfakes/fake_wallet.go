package walletfakes

import (
	"context"
	"crypto/ecdsa"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/kenesis-labs/kenesis-engine/wallet"
)

var _ wallet.Provider = (*FakeWallet)(nil)

// FakeWallet is a deterministic in-process wallet. It holds a real secp256k1
// key and produces valid EIP-191 personal-message signatures, so signature
// verification paths can be tested against genuine recoverable signatures.
type FakeWallet struct {
	key     *ecdsa.PrivateKey
	chainID int64
	lock    sync.Mutex

	connected bool

	// Scriptable behaviour
	RejectSignature bool
	RejectSwitch    bool
	HangOnSign      bool // block until ctx expires, simulating an unanswered prompt

	SignCount   int
	SwitchCount int
}

func New() *FakeWallet {
	key, err := crypto.GenerateKey()
	if err != nil {
		panic(err)
	}
	return &FakeWallet{key: key, chainID: 137, connected: true}
}

// NewWithChain returns a connected fake wallet reporting chainID.
func NewWithChain(chainID int64) *FakeWallet {
	fw := New()
	fw.chainID = chainID
	return fw
}

func (fw *FakeWallet) Connect(_ context.Context) error {
	fw.lock.Lock()
	defer fw.lock.Unlock()
	fw.connected = true
	return nil
}

func (fw *FakeWallet) Address() string {
	fw.lock.Lock()
	defer fw.lock.Unlock()
	if !fw.connected {
		return ""
	}
	return crypto.PubkeyToAddress(fw.key.PublicKey).Hex()
}

func (fw *FakeWallet) ChainID() int64 {
	fw.lock.Lock()
	defer fw.lock.Unlock()
	return fw.chainID
}

func (fw *FakeWallet) SignMessage(ctx context.Context, msg string) (string, error) {
	fw.lock.Lock()
	fw.SignCount++
	hang := fw.HangOnSign
	reject := fw.RejectSignature
	fw.lock.Unlock()

	if hang {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if reject {
		return "", wallet.ErrUserRejected
	}

	sig, err := crypto.Sign(accounts.TextHash([]byte(msg)), fw.key)
	if err != nil {
		return "", err
	}
	// Ethereum wallets report V as 27/28
	sig[64] += 27
	return hexutil.Encode(sig), nil
}

func (fw *FakeWallet) SwitchChain(_ context.Context, chainID int64) error {
	fw.lock.Lock()
	defer fw.lock.Unlock()
	fw.SwitchCount++
	if fw.RejectSwitch {
		return wallet.ErrUserRejected
	}
	fw.chainID = chainID
	return nil
}

func (fw *FakeWallet) Disconnect() {
	fw.lock.Lock()
	defer fw.lock.Unlock()
	fw.connected = false
}
