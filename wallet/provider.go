package wallet

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// ErrUserRejected is returned when the user declines a signature or
	// connection request in the wallet UI. Terminal; callers must not retry.
	ErrUserRejected = errors.New("user rejected the wallet request")

	ErrNotConnected  = errors.New("wallet not connected")
	ErrChainMismatch = errors.New("wallet is on a different chain")
)

// Provider is the capability surface the engine requires from a wallet
// connector. Implementations wrap an actual provider (browser extension
// bridge, WalletConnect relay, hardware signer); the engine treats them as
// an external collaborator and never reaches past this interface.
type Provider interface {
	// Connect establishes the wallet connection, prompting the user if needed
	Connect(ctx context.Context) error

	// Address returns the connected account address, empty when disconnected
	Address() string

	// ChainID returns the chain the wallet is currently on
	ChainID() int64

	// SignMessage asks the wallet to sign msg (EIP-191 personal message).
	// Blocks until the user signs or rejects, or ctx expires.
	SignMessage(ctx context.Context, msg string) (string, error)

	// SwitchChain asks the wallet to move to chainID
	SwitchChain(ctx context.Context, chainID int64) error

	// Disconnect tears the connection down
	Disconnect()
}
