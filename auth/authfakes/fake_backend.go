package authfakes

import (
	"context"
	"fmt"
	"sync"

	"github.com/kenesis-labs/kenesis-engine/auth"
	"github.com/kenesis-labs/kenesis-engine/backendapi"
)

var _ auth.Backend = (*FakeBackend)(nil)

// FakeBackend scripts the Kenesis auth API for engine tests. Call counters
// expose how many nonce fetches and auth attempts the engine made.
type FakeBackend struct {
	lock sync.Mutex

	NonceCount    int
	LoginCount    int
	RegisterCount int
	LinkCount     int
	RefreshCount  int

	// Errors returned once per call in FIFO order; nil means success
	LoginErrs    []error
	RegisterErrs []error
	LinkErrs     []error
	NonceErr     error
	RefreshErr   error

	User backendapi.User

	nextToken int
}

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		User: backendapi.User{ID: "user-1", EmailVerified: true},
	}
}

func (f *FakeBackend) WalletNonce(_ context.Context, address string) (*backendapi.NonceChallenge, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.NonceCount++
	if f.NonceErr != nil {
		return nil, f.NonceErr
	}
	nonce := fmt.Sprintf("nonce-%04d", f.NonceCount)
	return &backendapi.NonceChallenge{
		Nonce:   nonce,
		Message: fmt.Sprintf("Sign in to Kenesis\n\nWallet: %s\nNonce: %s", address, nonce),
	}, nil
}

func (f *FakeBackend) WalletLogin(_ context.Context, req backendapi.WalletAuthRequest) (*backendapi.AuthResult, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.LoginCount++
	if err := pop(&f.LoginErrs); err != nil {
		return nil, err
	}
	return f.authResult(req.WalletAddress), nil
}

func (f *FakeBackend) WalletRegister(_ context.Context, req backendapi.WalletAuthRequest) (*backendapi.AuthResult, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.RegisterCount++
	if err := pop(&f.RegisterErrs); err != nil {
		return nil, err
	}
	return f.authResult(req.WalletAddress), nil
}

func (f *FakeBackend) LinkWallet(_ context.Context, _ string, req backendapi.WalletAuthRequest) (*backendapi.AuthResult, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.LinkCount++
	if err := pop(&f.LinkErrs); err != nil {
		return nil, err
	}
	return f.authResult(req.WalletAddress), nil
}

func (f *FakeBackend) RefreshTokens(_ context.Context, _ string) (*backendapi.TokenPair, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.RefreshCount++
	if f.RefreshErr != nil {
		return nil, f.RefreshErr
	}
	return f.tokenPair(), nil
}

func (f *FakeBackend) EmailLogin(_ context.Context, email, _ string) (*backendapi.AuthResult, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	user := f.User
	user.Email = email
	return &backendapi.AuthResult{User: user, Tokens: *f.tokenPair()}, nil
}

func (f *FakeBackend) EmailRegister(_ context.Context, username, email, _ string) (*backendapi.AuthResult, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	user := f.User
	user.Username = username
	user.Email = email
	user.EmailVerified = false
	return &backendapi.AuthResult{User: user, Tokens: *f.tokenPair()}, nil
}

func (f *FakeBackend) VerifyEmail(_ context.Context, email, _ string) (*backendapi.AuthResult, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	user := f.User
	user.Email = email
	user.EmailVerified = true
	return &backendapi.AuthResult{User: user, Tokens: *f.tokenPair()}, nil
}

func (f *FakeBackend) authResult(address string) *backendapi.AuthResult {
	user := f.User
	user.WalletAddress = address
	return &backendapi.AuthResult{User: user, Tokens: *f.tokenPair()}
}

func (f *FakeBackend) tokenPair() *backendapi.TokenPair {
	f.nextToken++
	return &backendapi.TokenPair{
		AccessToken:  fmt.Sprintf("access-%04d", f.nextToken),
		RefreshToken: fmt.Sprintf("refresh-%04d", f.nextToken),
		ExpiresIn:    3600,
	}
}

func pop(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}
