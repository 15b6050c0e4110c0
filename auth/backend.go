package auth

import (
	"context"

	"github.com/kenesis-labs/kenesis-engine/backendapi"
)

// Backend is the slice of the Kenesis API the engine depends on. Satisfied
// by *backendapi.Client; faked in engine tests.
type Backend interface {
	WalletNonce(ctx context.Context, address string) (*backendapi.NonceChallenge, error)
	WalletLogin(ctx context.Context, req backendapi.WalletAuthRequest) (*backendapi.AuthResult, error)
	WalletRegister(ctx context.Context, req backendapi.WalletAuthRequest) (*backendapi.AuthResult, error)
	LinkWallet(ctx context.Context, accessToken string, req backendapi.WalletAuthRequest) (*backendapi.AuthResult, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*backendapi.TokenPair, error)
	EmailLogin(ctx context.Context, email, password string) (*backendapi.AuthResult, error)
	EmailRegister(ctx context.Context, username, email, password string) (*backendapi.AuthResult, error)
	VerifyEmail(ctx context.Context, email, code string) (*backendapi.AuthResult, error)
}

var _ Backend = (*backendapi.Client)(nil)
