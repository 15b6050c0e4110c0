package backendapi

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
)

// WalletNonce requests a fresh single-use sign-in challenge for address.
// The nonce is consumed by whichever login/register/link call follows; a new
// challenge must be fetched for every attempt.
func (c *Client) WalletNonce(ctx context.Context, address string) (*NonceChallenge, error) {
	var challenge NonceChallenge
	if err := c.do(ctx, http.MethodPost, "/api/auth/wallet/nonce", "", map[string]string{
		"walletAddress": address,
	}, &challenge); err != nil {
		return nil, errors.Wrap(err, "[Client.WalletNonce]")
	}
	return &challenge, nil
}

// WalletLogin exchanges a signed challenge for a session.
func (c *Client) WalletLogin(ctx context.Context, req WalletAuthRequest) (*AuthResult, error) {
	var result AuthResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/wallet/login", "", req, &result); err != nil {
		return nil, errors.Wrap(err, "[Client.WalletLogin]")
	}
	return &result, nil
}

// WalletRegister creates an account from a signed challenge.
func (c *Client) WalletRegister(ctx context.Context, req WalletAuthRequest) (*AuthResult, error) {
	var result AuthResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/wallet/register", "", req, &result); err != nil {
		return nil, errors.Wrap(err, "[Client.WalletRegister]")
	}
	return &result, nil
}

// LinkWallet attaches a wallet to the authenticated account.
func (c *Client) LinkWallet(ctx context.Context, accessToken string, req WalletAuthRequest) (*AuthResult, error) {
	var result AuthResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/wallet/link", accessToken, req, &result); err != nil {
		return nil, errors.Wrap(err, "[Client.LinkWallet]")
	}
	return &result, nil
}

// RefreshTokens rotates the token pair. The old refresh token is invalidated
// by the backend on success.
func (c *Client) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair TokenPair
	if err := c.do(ctx, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refreshToken": refreshToken,
	}, &pair); err != nil {
		return nil, errors.Wrap(err, "[Client.RefreshTokens]")
	}
	return &pair, nil
}
