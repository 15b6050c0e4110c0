package auth

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/kenesis-labs/kenesis-engine/backendapi"
)

// tokensFromPair converts the backend token pair into the session's token
// form, deriving a local expiry when the backend reported one.
func tokensFromPair(pair backendapi.TokenPair, now time.Time) oauth2.Token {
	tok := oauth2.Token{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
	}
	if pair.ExpiresIn > 0 {
		tok.Expiry = now.Add(time.Duration(pair.ExpiresIn) * time.Second)
	}
	return tok
}

// withTokenRetry runs call; a token-expiry-shaped failure triggers exactly
// one refresh followed by one retry. A second failure propagates, keeping
// the retry loop bounded.
func (e *Engine) withTokenRetry(ctx context.Context, call func() (*backendapi.AuthResult, error)) (*backendapi.AuthResult, error) {
	result, err := call()
	if err == nil || !backendapi.IsTokenExpired(err) {
		return result, err
	}
	if refreshErr := e.refreshSession(ctx); refreshErr != nil {
		return nil, err
	}
	return call()
}

// WithAuthRetry is the single retry-once-on-401 path for authenticated
// calls. Components must delegate here rather than refreshing independently,
// so simultaneous staleness cannot trigger a refresh storm.
func (e *Engine) WithAuthRetry(ctx context.Context, call func(accessToken string) error) error {
	s, err := e.sessions.Get()
	if err != nil {
		return errors.Wrap(err, "[Engine.WithAuthRetry]")
	}
	err = call(s.Tokens.AccessToken)
	if err == nil || !backendapi.IsTokenExpired(err) {
		return err
	}
	if refreshErr := e.refreshSession(ctx); refreshErr != nil {
		return err
	}
	s, getErr := e.sessions.Get()
	if getErr != nil {
		return errors.Wrap(getErr, "[Engine.WithAuthRetry] reload session")
	}
	return call(s.Tokens.AccessToken)
}

// refreshSession rotates the token pair. Serialized by refreshLock so
// concurrent stale callers produce one backend refresh; an irrecoverable
// refresh failure destroys the session.
func (e *Engine) refreshSession(ctx context.Context) error {
	e.refreshLock.Lock()
	defer e.refreshLock.Unlock()

	s, err := e.sessions.Get()
	if err != nil {
		return errors.Wrap(err, "[Engine.refreshSession]")
	}
	pair, err := e.backend.RefreshTokens(ctx, s.Tokens.RefreshToken)
	if err != nil {
		log.Warn().Err(err).Msg("token refresh failed, destroying session")
		_ = e.sessions.Delete()
		return errors.Wrap(err, "[Engine.refreshSession] refresh")
	}
	s.Tokens = tokensFromPair(*pair, e.nowFunc())
	if err := e.sessions.Upsert(s); err != nil {
		return errors.Wrap(err, "[Engine.refreshSession] store")
	}
	return nil
}

var _ oauth2.TokenSource = (*engineTokenSource)(nil)

type engineTokenSource struct {
	engine *Engine
	ctx    context.Context
}

// TokenSource exposes the session tokens as an oauth2.TokenSource. Token
// returns the stored pair while valid and routes expiry through the single
// refresh path.
func (e *Engine) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &engineTokenSource{engine: e, ctx: ctx}
}

func (ts *engineTokenSource) Token() (*oauth2.Token, error) {
	e := ts.engine
	s, err := e.sessions.Get()
	if err != nil {
		return nil, errors.Wrap(err, "[TokenSource.Token]")
	}
	if !s.AccessTokenExpired(e.nowFunc()) {
		tok := s.Tokens
		return &tok, nil
	}
	if err := e.refreshSession(ts.ctx); err != nil {
		return nil, err
	}
	s, err = e.sessions.Get()
	if err != nil {
		return nil, errors.Wrap(err, "[TokenSource.Token] reload")
	}
	tok := s.Tokens
	return &tok, nil
}
