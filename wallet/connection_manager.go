package wallet

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const defaultSignatureTimeout = 5 * time.Minute

// ConnectionManager wraps a Provider and bounds every signature request.
// Signing is user-paced and a wallet that never answers would otherwise
// leave the engine awaiting a signature forever; on timeout the wallet is
// force-disconnected so connection state and backend auth state cannot
// drift apart.
type ConnectionManager struct {
	provider         Provider
	signatureTimeout time.Duration
}

type ConnectionManagerOption func(*ConnectionManager)

func WithSignatureTimeout(d time.Duration) ConnectionManagerOption {
	return func(cm *ConnectionManager) {
		cm.signatureTimeout = d
	}
}

func NewConnectionManager(provider Provider, options ...ConnectionManagerOption) (*ConnectionManager, error) {
	if provider == nil {
		return nil, errors.New("[NewConnectionManager] provider is required")
	}
	cm := &ConnectionManager{
		provider:         provider,
		signatureTimeout: defaultSignatureTimeout,
	}
	for _, opt := range options {
		opt(cm)
	}
	return cm, nil
}

func (cm *ConnectionManager) Connect(ctx context.Context) error {
	return cm.provider.Connect(ctx)
}

// Address returns the connected account, lower-cased for map keying.
func (cm *ConnectionManager) Address() string {
	return strings.ToLower(cm.provider.Address())
}

func (cm *ConnectionManager) ChainID() int64 {
	return cm.provider.ChainID()
}

// SignMessage requests a signature with the configured upper bound. A
// timeout disconnects the wallet before returning the error.
func (cm *ConnectionManager) SignMessage(ctx context.Context, msg string) (string, error) {
	if cm.provider.Address() == "" {
		return "", ErrNotConnected
	}
	signCtx, cancel := context.WithTimeout(ctx, cm.signatureTimeout)
	defer cancel()

	sig, err := cm.provider.SignMessage(signCtx, msg)
	if err != nil {
		if errors.Is(signCtx.Err(), context.DeadlineExceeded) {
			log.Warn().Str("address", cm.Address()).Msg("signature request timed out, disconnecting wallet")
			cm.provider.Disconnect()
			return "", errors.Wrap(err, "[ConnectionManager.SignMessage] signature timed out")
		}
		return "", err
	}
	return sig, nil
}

func (cm *ConnectionManager) SwitchChain(ctx context.Context, chainID int64) error {
	return cm.provider.SwitchChain(ctx, chainID)
}

func (cm *ConnectionManager) Disconnect() {
	cm.provider.Disconnect()
}
