// Package auth implements the wallet/SIWE authentication reconciliation
// engine: it decides between login, register and link for a connected
// wallet, applies the single refresh-and-retry pass on token expiry, and is
// the only component that mutates session tokens.
package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/kenesis-labs/kenesis-engine/backendapi"
	"github.com/kenesis-labs/kenesis-engine/session"
	"github.com/kenesis-labs/kenesis-engine/wallet"
)

// Intent selects the login/register ordering for a wallet authentication.
type Intent string

const (
	// IntentSignup tries register first, falling back to login when the
	// wallet already exists.
	IntentSignup Intent = "signup"
	// IntentSignin tries login first, falling back to register when no
	// account exists.
	IntentSignin Intent = "signin"
	// IntentAuto behaves like signin; the default for Connect Wallet entry
	// points where the caller does not know whether an account exists.
	IntentAuto Intent = "auto"
)

const defaultStabilisationDelay = 500 * time.Millisecond

// Status is the observable auth state the UI layer subscribes to.
type Status struct {
	Loading bool
	Err     error
	Session *session.Session
}

// Engine reconciles wallet connection state with backend authentication
// state. It guarantees at most one in-flight authentication per address and
// never leaves a wallet "connected" without a completed backend session.
type Engine struct {
	backend  Backend
	wallet   *wallet.ConnectionManager
	sessions session.Repo

	group       singleflight.Group
	stateLock   sync.RWMutex
	lastAddress string
	loading     bool
	lastErr     error

	refreshLock        sync.Mutex
	stabilisationDelay time.Duration
	sleepFunc          func(ctx context.Context, d time.Duration) error
	nowFunc            func() time.Time
}

type EngineOption func(*Engine)

func WithNowFunc(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.nowFunc = now
	}
}

// WithStabilisationDelay overrides the pause before link signatures.
func WithStabilisationDelay(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.stabilisationDelay = d
	}
}

// WithSleepFunc replaces the delay implementation (primarily for testing).
func WithSleepFunc(sleep func(ctx context.Context, d time.Duration) error) EngineOption {
	return func(e *Engine) {
		e.sleepFunc = sleep
	}
}

func NewEngine(backend Backend, walletManager *wallet.ConnectionManager, sessions session.Repo, options ...EngineOption) (*Engine, error) {
	if backend == nil {
		return nil, errors.New("[NewEngine] backend is required")
	}
	if walletManager == nil {
		return nil, errors.New("[NewEngine] wallet manager is required")
	}
	if sessions == nil {
		return nil, errors.New("[NewEngine] session repo is required")
	}
	e := &Engine{
		backend:            backend,
		wallet:             walletManager,
		sessions:           sessions,
		stabilisationDelay: defaultStabilisationDelay,
		sleepFunc:          sleepWithContext,
		nowFunc:            time.Now,
	}
	for _, opt := range options {
		opt(e)
	}
	return e, nil
}

// AuthenticateWallet runs the SIWE flow for the connected wallet. Rapid
// duplicate calls for the same address share a single nonce fetch and sign
// prompt, and an address that already completed authentication returns its
// existing session instead of re-prompting.
func (e *Engine) AuthenticateWallet(ctx context.Context, bio string, intent Intent) (*session.Session, error) {
	addr := e.wallet.Address()
	if addr == "" {
		return nil, NewError(KindNetwork, "wallet not connected", wallet.ErrNotConnected)
	}

	if existing := e.completedSessionFor(addr); existing != nil {
		return existing, nil
	}

	e.setLoading(true)
	defer e.setLoading(false)

	v, err, _ := e.group.Do(addr, func() (any, error) {
		return e.authenticate(ctx, addr, bio, intent)
	})
	if err != nil {
		e.setErr(err)
		return nil, err
	}
	e.setErr(nil)
	return v.(*session.Session), nil
}

func (e *Engine) authenticate(ctx context.Context, addr, bio string, intent Intent) (*session.Session, error) {
	challenge, err := e.backend.WalletNonce(ctx, addr)
	if err != nil {
		return nil, classifyAuthErr(errors.Wrap(err, "[Engine.authenticate] nonce"))
	}

	signature, err := e.wallet.SignMessage(ctx, challenge.Message)
	if err != nil {
		// A declined signature is terminal and must not disconnect: the
		// user kept the wallet connected on purpose.
		return nil, classifyAuthErr(err)
	}

	req := backendapi.WalletAuthRequest{
		WalletAddress: addr,
		Nonce:         challenge.Nonce,
		Message:       challenge.Message,
		Signature:     signature,
		ChainID:       e.wallet.ChainID(),
		Bio:           bio,
	}

	result, err := e.loginOrRegister(ctx, intent, req)
	if err != nil {
		// Keep wallet-connection state consistent with backend auth state:
		// a wallet must never show connected without a completed session.
		e.wallet.Disconnect()
		return nil, classifyAuthErr(err)
	}

	s := e.sessionFromAuthResult(result, session.AuthMethodWallet)
	s.WalletAddress = addr
	if err := e.sessions.Upsert(s); err != nil {
		e.wallet.Disconnect()
		return nil, classifyAuthErr(errors.Wrap(err, "[Engine.authenticate] store session"))
	}

	e.stateLock.Lock()
	e.lastAddress = addr
	e.stateLock.Unlock()

	log.Info().Str("address", addr).Str("intent", string(intent)).Msg("wallet authenticated")
	return s, nil
}

// loginOrRegister applies the intent's ordering. The same signed challenge
// serves the fallback call; the nonce is consumed by whichever call the
// backend accepts.
func (e *Engine) loginOrRegister(ctx context.Context, intent Intent, req backendapi.WalletAuthRequest) (*backendapi.AuthResult, error) {
	login := func() (*backendapi.AuthResult, error) {
		return e.withTokenRetry(ctx, func() (*backendapi.AuthResult, error) {
			return e.backend.WalletLogin(ctx, req)
		})
	}
	register := func() (*backendapi.AuthResult, error) {
		return e.withTokenRetry(ctx, func() (*backendapi.AuthResult, error) {
			return e.backend.WalletRegister(ctx, req)
		})
	}

	if intent == IntentSignup {
		result, err := register()
		if errors.Is(err, backendapi.ErrWalletAlreadyRegistered) {
			return login()
		}
		return result, err
	}

	result, err := login()
	if errors.Is(err, backendapi.ErrUserNotFound) {
		return register()
	}
	return result, err
}

// LinkWalletToAccount attaches the connected wallet to the current
// email-authenticated session, upgrading it to hybrid.
func (e *Engine) LinkWalletToAccount(ctx context.Context) (*session.Session, error) {
	current, err := e.sessions.Get()
	if err != nil {
		return nil, NewError(KindNetwork, "sign in before linking a wallet", err)
	}
	if current.WalletOnly() {
		return nil, NewError(KindNetwork, "session is already wallet-based", nil)
	}
	addr := e.wallet.Address()
	if addr == "" {
		return nil, NewError(KindNetwork, "wallet not connected", wallet.ErrNotConnected)
	}

	// Let the wallet provider's internal state settle before requesting the
	// signature; some providers report an account before their signer is
	// ready.
	if err := e.sleepFunc(ctx, e.stabilisationDelay); err != nil {
		return nil, classifyAuthErr(err)
	}

	challenge, err := e.backend.WalletNonce(ctx, addr)
	if err != nil {
		return nil, classifyAuthErr(errors.Wrap(err, "[Engine.LinkWalletToAccount] nonce"))
	}
	signature, err := e.wallet.SignMessage(ctx, challenge.Message)
	if err != nil {
		return nil, classifyAuthErr(err)
	}

	req := backendapi.WalletAuthRequest{
		WalletAddress: addr,
		Nonce:         challenge.Nonce,
		Message:       challenge.Message,
		Signature:     signature,
		ChainID:       e.wallet.ChainID(),
	}

	var result *backendapi.AuthResult
	err = e.WithAuthRetry(ctx, func(accessToken string) error {
		var callErr error
		result, callErr = e.backend.LinkWallet(ctx, accessToken, req)
		return callErr
	})
	if err != nil {
		return nil, classifyAuthErr(err)
	}

	current.WalletAddress = addr
	current.AuthMethod = session.AuthMethodHybrid
	if result != nil && result.Tokens.AccessToken != "" {
		current.Tokens = tokensFromPair(result.Tokens, e.nowFunc())
	}
	if err := e.sessions.Upsert(current); err != nil {
		return nil, classifyAuthErr(errors.Wrap(err, "[Engine.LinkWalletToAccount] store session"))
	}

	log.Info().Str("address", addr).Msg("wallet linked to account")
	return current, nil
}

// Logout destroys the session and disconnects the wallet.
func (e *Engine) Logout() error {
	e.stateLock.Lock()
	e.lastAddress = ""
	e.lastErr = nil
	e.stateLock.Unlock()

	e.wallet.Disconnect()
	if err := e.sessions.Delete(); err != nil {
		return errors.Wrap(err, "[Engine.Logout]")
	}
	return nil
}

// Status returns a snapshot of the observable auth state.
func (e *Engine) Status() Status {
	e.stateLock.RLock()
	st := Status{Loading: e.loading, Err: e.lastErr}
	e.stateLock.RUnlock()
	if s, err := e.sessions.Get(); err == nil {
		st.Session = s
	}
	return st
}

func (e *Engine) completedSessionFor(addr string) *session.Session {
	e.stateLock.RLock()
	last := e.lastAddress
	e.stateLock.RUnlock()
	if !strings.EqualFold(last, addr) {
		return nil
	}
	s, err := e.sessions.Get()
	if err != nil || !strings.EqualFold(s.WalletAddress, addr) {
		return nil
	}
	return s
}

func (e *Engine) sessionFromAuthResult(result *backendapi.AuthResult, method session.AuthMethod) *session.Session {
	return &session.Session{
		UserID:        result.User.ID,
		Email:         result.User.Email,
		AuthMethod:    method,
		Tokens:        tokensFromPair(result.Tokens, e.nowFunc()),
		EmailVerified: result.User.EmailVerified,
		CreatedAt:     e.nowFunc(),
	}
}

func (e *Engine) setLoading(loading bool) {
	e.stateLock.Lock()
	e.loading = loading
	e.stateLock.Unlock()
}

func (e *Engine) setErr(err error) {
	e.stateLock.Lock()
	e.lastErr = err
	e.stateLock.Unlock()
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
