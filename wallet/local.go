package wallet

import (
	"context"
	"crypto/ecdsa"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

var _ Provider = (*LocalSigner)(nil)

// LocalSigner is a Provider backed by a raw private key. Used by the CLI
// and headless integrations where no interactive wallet exists; it signs
// immediately and never rejects.
type LocalSigner struct {
	key     *ecdsa.PrivateKey
	chainID int64

	lock      sync.Mutex
	connected bool
}

// NewLocalSigner builds a signer from a hex-encoded private key.
func NewLocalSigner(hexKey string, chainID int64) (*LocalSigner, error) {
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, errors.Wrap(err, "[NewLocalSigner] parse key")
	}
	return &LocalSigner{key: key, chainID: chainID}, nil
}

func (ls *LocalSigner) Connect(_ context.Context) error {
	ls.lock.Lock()
	defer ls.lock.Unlock()
	ls.connected = true
	return nil
}

func (ls *LocalSigner) Address() string {
	ls.lock.Lock()
	defer ls.lock.Unlock()
	if !ls.connected {
		return ""
	}
	return crypto.PubkeyToAddress(ls.key.PublicKey).Hex()
}

func (ls *LocalSigner) ChainID() int64 {
	ls.lock.Lock()
	defer ls.lock.Unlock()
	return ls.chainID
}

// SignMessage produces an EIP-191 personal-message signature with the
// 27/28 recovery id convention wallets use.
func (ls *LocalSigner) SignMessage(_ context.Context, msg string) (string, error) {
	ls.lock.Lock()
	defer ls.lock.Unlock()
	if !ls.connected {
		return "", ErrNotConnected
	}
	sig, err := crypto.Sign(accounts.TextHash([]byte(msg)), ls.key)
	if err != nil {
		return "", errors.Wrap(err, "[LocalSigner.SignMessage]")
	}
	sig[64] += 27
	return hexutil.Encode(sig), nil
}

func (ls *LocalSigner) SwitchChain(_ context.Context, chainID int64) error {
	ls.lock.Lock()
	defer ls.lock.Unlock()
	ls.chainID = chainID
	return nil
}

func (ls *LocalSigner) Disconnect() {
	ls.lock.Lock()
	defer ls.lock.Unlock()
	ls.connected = false
}
