package backendapi

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
)

// EmailLogin authenticates with email and password.
func (c *Client) EmailLogin(ctx context.Context, email, password string) (*AuthResult, error) {
	var result AuthResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &result); err != nil {
		return nil, errors.Wrap(err, "[Client.EmailLogin]")
	}
	return &result, nil
}

// EmailRegister creates an email account. The backend withholds tokens until
// the address is verified, and the engine enforces the same invariant on its
// side of the session store.
func (c *Client) EmailRegister(ctx context.Context, username, email, password string) (*AuthResult, error) {
	var result AuthResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &result); err != nil {
		return nil, errors.Wrap(err, "[Client.EmailRegister]")
	}
	return &result, nil
}

// VerifyEmail confirms the address with the emailed code and returns the
// first usable token pair for the account.
func (c *Client) VerifyEmail(ctx context.Context, email, code string) (*AuthResult, error) {
	var result AuthResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/verify-email", "", map[string]string{
		"email": email,
		"code":  code,
	}, &result); err != nil {
		return nil, errors.Wrap(err, "[Client.VerifyEmail]")
	}
	return &result, nil
}

// ResendVerification triggers a fresh verification email. Rate limited by
// the backend; the retryAfter hint surfaces as a RateLimitedError.
func (c *Client) ResendVerification(ctx context.Context, email string) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/resend-verification", "", map[string]string{
		"email": email,
	}, nil)
	return errors.Wrap(err, "[Client.ResendVerification]")
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{
		"email": email,
	}, nil)
	return errors.Wrap(err, "[Client.ForgotPassword]")
}

func (c *Client) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
		"email":       email,
		"code":        code,
		"newPassword": newPassword,
	}, nil)
	return errors.Wrap(err, "[Client.ResetPassword]")
}
