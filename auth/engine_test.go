package auth_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/kenesis-labs/kenesis-engine/auth"
	"github.com/kenesis-labs/kenesis-engine/auth/authfakes"
	"github.com/kenesis-labs/kenesis-engine/backendapi"
	"github.com/kenesis-labs/kenesis-engine/session"
	"github.com/kenesis-labs/kenesis-engine/session/repofakes"
	"github.com/kenesis-labs/kenesis-engine/wallet"
	"github.com/kenesis-labs/kenesis-engine/wallet/walletfakes"
)

func newEngine(t *testing.T, backend auth.Backend, fw *walletfakes.FakeWallet, options ...auth.EngineOption) (*auth.Engine, session.Repo) {
	t.Helper()
	cm, err := wallet.NewConnectionManager(fw)
	require.NoError(t, err)
	sessions := session.NewInMemoryRepo()
	options = append(options, auth.WithSleepFunc(func(context.Context, time.Duration) error { return nil }))
	engine, err := auth.NewEngine(backend, cm, sessions, options...)
	require.NoError(t, err)
	return engine, sessions
}

func TestSigninTriesLoginFirst(t *testing.T) {
	backend := authfakes.NewFakeBackend()
	fw := walletfakes.New()
	engine, sessions := newEngine(t, backend, fw)

	s, err := engine.AuthenticateWallet(context.Background(), "", auth.IntentSignin)
	require.NoError(t, err)
	require.Equal(t, 1, backend.LoginCount)
	require.Zero(t, backend.RegisterCount)
	require.Equal(t, strings.ToLower(fw.Address()), s.WalletAddress)
	require.True(t, s.HasTokens())

	stored, err := sessions.Get()
	require.NoError(t, err)
	require.Equal(t, s.WalletAddress, stored.WalletAddress)
}

func TestSigninFallsBackToRegisterForUnknownWallet(t *testing.T) {
	backend := authfakes.NewFakeBackend()
	backend.LoginErrs = []error{backendapi.ErrUserNotFound}
	fw := walletfakes.New()
	engine, _ := newEngine(t, backend, fw)

	_, err := engine.AuthenticateWallet(context.Background(), "", auth.IntentSignin)
	require.NoError(t, err)
	require.Equal(t, 1, backend.LoginCount)
	require.Equal(t, 1, backend.RegisterCount)
	// The fallback reuses the already-signed challenge
	require.Equal(t, 1, backend.NonceCount)
	require.Equal(t, 1, fw.SignCount)
}

func TestSignupTriesRegisterFirst(t *testing.T) {
	backend := authfakes.NewFakeBackend()
	fw := walletfakes.New()
	engine, _ := newEngine(t, backend, fw)

	_, err := engine.AuthenticateWallet(context.Background(), "builder bio", auth.IntentSignup)
	require.NoError(t, err)
	require.Equal(t, 1, backend.RegisterCount)
	require.Zero(t, backend.LoginCount)
}

func TestSignupFallsBackToLoginWhenAlreadyRegistered(t *testing.T) {
	backend := authfakes.NewFakeBackend()
	backend.RegisterErrs = []error{backendapi.ErrWalletAlreadyRegistered}
	fw := walletfakes.New()
	engine, _ := newEngine(t, backend, fw)

	_, err := engine.AuthenticateWallet(context.Background(), "", auth.IntentSignup)
	require.NoError(t, err)
	require.Equal(t, 1, backend.RegisterCount)
	require.Equal(t, 1, backend.LoginCount)
	require.Equal(t, 1, fw.SignCount)
}

func TestAutoBehavesLikeSignin(t *testing.T) {
	backend := authfakes.NewFakeBackend()
	fw := walletfakes.New()
	engine, _ := newEngine(t, backend, fw)

	_, err := engine.AuthenticateWallet(context.Background(), "", auth.IntentAuto)
	require.NoError(t, err)
	require.Equal(t, 1, backend.LoginCount)
	require.Zero(t, backend.RegisterCount)
}

func TestDeclinedSignatureIsTerminalAndKeepsWalletConnected(t *testing.T) {
	backend := authfakes.NewFakeBackend()
	fw := walletfakes.New()
	fw.RejectSignature = true
	engine, sessions := newEngine(t, backend, fw)

	_, err := engine.AuthenticateWallet(context.Background(), "", auth.IntentSignin)
	require.Error(t, err)
	require.Equal(t, auth.KindUserRejected, auth.KindOf(err))

	// No auth attempt leaves the engine, and the wallet stays connected: the
	// user declined the prompt, not the connection.
	require.Zero(t, backend.LoginCount)
	require.Zero(t, backend.RegisterCount)
	require.NotEmpty(t, fw.Address())

	_, getErr := sessions.Get()
	require.ErrorIs(t, getErr, session.ErrNoSession)
}

func TestBackendRejectionDisconnectsWallet(t *testing.T) {
	backend := authfakes.NewFakeBackend()
	backend.LoginErrs = []error{backendapi.ErrInvalidSignature}
	fw := walletfakes.New()
	engine, sessions := newEngine(t, backend, fw)

	_, err := engine.AuthenticateWallet(context.Background(), "", auth.IntentSignin)
	require.Error(t, err)
	require.Equal(t, auth.KindInvalidSignature, auth.KindOf(err))

	// Connection state must not drift from backend auth state
	require.Empty(t, fw.Address())
	_, getErr := sessions.Get()
	require.ErrorIs(t, getErr, session.ErrNoSession)
}

func TestSessionStoreFailureDisconnectsWallet(t *testing.T) {
	backend := authfakes.NewFakeBackend()
	fw := walletfakes.New()
	cm, err := wallet.NewConnectionManager(fw)
	require.NoError(t, err)

	sessions := repofakes.NewFakeSessionRepo()
	sessions.UpsertErr = errors.New("disk full")
	engine, err := auth.NewEngine(backend, cm, sessions)
	require.NoError(t, err)

	_, err = engine.AuthenticateWallet(context.Background(), "", auth.IntentSignin)
	require.Error(t, err)
	require.Equal(t, 1, sessions.UpsertCount)
	require.Empty(t, fw.Address(), "a session that cannot be stored must not leave the wallet connected")
}

func TestCompletedAddressDoesNotReprompt(t *testing.T) {
	backend := authfakes.NewFakeBackend()
	fw := walletfakes.New()
	engine, _ := newEngine(t, backend, fw)

	first, err := engine.AuthenticateWallet(context.Background(), "", auth.IntentSignin)
	require.NoError(t, err)

	second, err := engine.AuthenticateWallet(context.Background(), "", auth.IntentSignin)
	require.NoError(t, err)
	require.Equal(t, first.WalletAddress, second.WalletAddress)
	require.Equal(t, 1, backend.NonceCount)
	require.Equal(t, 1, fw.SignCount)
}

// gatedBackend holds every nonce fetch until released, so concurrent
// authentication attempts pile up inside the in-flight window.
type gatedBackend struct {
	*authfakes.FakeBackend
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedBackend) WalletNonce(ctx context.Context, address string) (*backendapi.NonceChallenge, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return g.FakeBackend.WalletNonce(ctx, address)
}

func TestConcurrentAttemptsShareOneFlight(t *testing.T) {
	backend := &gatedBackend{
		FakeBackend: authfakes.NewFakeBackend(),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	fw := walletfakes.New()
	engine, _ := newEngine(t, backend, fw)

	const attempts = 5
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.AuthenticateWallet(context.Background(), "", auth.IntentSignin)
		}(i)
	}

	<-backend.entered
	time.Sleep(20 * time.Millisecond) // let the remaining attempts join the flight
	close(backend.release)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, 1, backend.NonceCount)
	require.Equal(t, 1, fw.SignCount)
	require.Equal(t, 1, backend.LoginCount)
}

func TestWithAuthRetryRefreshesExactlyOnce(t *testing.T) {
	backend := authfakes.NewFakeBackend()
	fw := walletfakes.New()
	engine, _ := newEngine(t, backend, fw)

	_, err := engine.AuthenticateWallet(context.Background(), "", auth.IntentSignin)
	require.NoError(t, err)

	calls := 0
	var tokens []string
	err = engine.WithAuthRetry(context.Background(), func(accessToken string) error {
		calls++
		tokens = append(tokens, accessToken)
		if calls == 1 {
			return backendapi.ErrTokenExpired
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.Equal(t, 1, backend.RefreshCount)
	require.NotEqual(t, tokens[0], tokens[1], "retry must carry the refreshed token")
}

func TestWithAuthRetryIsBounded(t *testing.T) {
	backend := authfakes.NewFakeBackend()
	fw := walletfakes.New()
	engine, _ := newEngine(t, backend, fw)

	_, err := engine.AuthenticateWallet(context.Background(), "", auth.IntentSignin)
	require.NoError(t, err)

	calls := 0
	err = engine.WithAuthRetry(context.Background(), func(string) error {
		calls++
		return backendapi.ErrTokenExpired
	})
	require.ErrorIs(t, err, backendapi.ErrTokenExpired)
	require.Equal(t, 2, calls, "exactly one retry after the refresh")
	require.Equal(t, 1, backend.RefreshCount)
}

func TestRefreshFailureDestroysSession(t *testing.T) {
	backend := authfakes.NewFakeBackend()
	fw := walletfakes.New()
	engine, sessions := newEngine(t, backend, fw)

	_, err := engine.AuthenticateWallet(context.Background(), "", auth.IntentSignin)
	require.NoError(t, err)

	backend.RefreshErr = backendapi.ErrTokenExpired
	err = engine.WithAuthRetry(context.Background(), func(string) error {
		return backendapi.ErrTokenExpired
	})
	require.Error(t, err)

	_, getErr := sessions.Get()
	require.ErrorIs(t, getErr, session.ErrNoSession)
}

func TestLinkWalletUpgradesEmailSessionToHybrid(t *testing.T) {
	backend := authfakes.NewFakeBackend()
	fw := walletfakes.New()

	var slept []time.Duration
	sleep := func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	cm, err := wallet.NewConnectionManager(fw)
	require.NoError(t, err)
	sessions := session.NewInMemoryRepo()
	engine, err := auth.NewEngine(backend, cm, sessions,
		auth.WithSleepFunc(sleep),
		auth.WithStabilisationDelay(250*time.Millisecond))
	require.NoError(t, err)

	_, err = engine.SignInWithEmail(context.Background(), "jane@example.com", "pw")
	require.NoError(t, err)

	s, err := engine.LinkWalletToAccount(context.Background())
	require.NoError(t, err)
	require.Equal(t, session.AuthMethodHybrid, s.AuthMethod)
	require.Equal(t, strings.ToLower(fw.Address()), s.WalletAddress)
	require.Equal(t, 1, backend.LinkCount)
	require.Equal(t, []time.Duration{250 * time.Millisecond}, slept)
}

func TestLinkWalletRejectsWalletOnlySession(t *testing.T) {
	backend := authfakes.NewFakeBackend()
	fw := walletfakes.New()
	engine, _ := newEngine(t, backend, fw)

	_, err := engine.AuthenticateWallet(context.Background(), "", auth.IntentSignin)
	require.NoError(t, err)

	_, err = engine.LinkWalletToAccount(context.Background())
	require.Error(t, err)
	require.Zero(t, backend.LinkCount)
}

func TestLinkWalletRequiresSession(t *testing.T) {
	backend := authfakes.NewFakeBackend()
	engine, _ := newEngine(t, backend, walletfakes.New())

	_, err := engine.LinkWalletToAccount(context.Background())
	require.Error(t, err)
	require.Zero(t, backend.NonceCount)
}

func TestLogoutClearsSessionAndDisconnects(t *testing.T) {
	backend := authfakes.NewFakeBackend()
	fw := walletfakes.New()
	engine, sessions := newEngine(t, backend, fw)

	_, err := engine.AuthenticateWallet(context.Background(), "", auth.IntentSignin)
	require.NoError(t, err)

	require.NoError(t, engine.Logout())
	require.Empty(t, fw.Address())
	_, getErr := sessions.Get()
	require.ErrorIs(t, getErr, session.ErrNoSession)

	st := engine.Status()
	require.Nil(t, st.Session)
	require.NoError(t, st.Err)
}

func TestUnverifiedEmailSignInStoresNoTokens(t *testing.T) {
	backend := authfakes.NewFakeBackend()
	backend.User.EmailVerified = false
	engine, sessions := newEngine(t, backend, walletfakes.New())

	s, err := engine.SignInWithEmail(context.Background(), "jane@example.com", "pw")
	require.NoError(t, err)
	require.False(t, s.HasTokens())

	stored, err := sessions.Get()
	require.NoError(t, err)
	require.False(t, stored.HasTokens())
}

func TestVerifyEmailInstallsTokens(t *testing.T) {
	backend := authfakes.NewFakeBackend()
	backend.User.EmailVerified = false
	engine, _ := newEngine(t, backend, walletfakes.New())

	_, err := engine.SignUpWithEmail(context.Background(), "jane", "jane@example.com", "pw")
	require.NoError(t, err)

	s, err := engine.VerifyEmail(context.Background(), "jane@example.com", "123456")
	require.NoError(t, err)
	require.True(t, s.EmailVerified)
	require.True(t, s.HasTokens())
}
