package auth

import (
	"context"

	"github.com/pkg/errors"

	"github.com/kenesis-labs/kenesis-engine/session"
)

// SignInWithEmail authenticates against the backend's email flow. Tokens
// are only stored once the address is verified; an unverified account gets
// a tokenless session so the verification step can complete later.
func (e *Engine) SignInWithEmail(ctx context.Context, email, password string) (*session.Session, error) {
	result, err := e.backend.EmailLogin(ctx, email, password)
	if err != nil {
		typed := classifyAuthErr(err)
		e.setErr(typed)
		return nil, typed
	}
	s := e.sessionFromAuthResult(result, session.AuthMethodEmail)
	if !s.EmailVerified {
		s.Tokens.AccessToken = ""
		s.Tokens.RefreshToken = ""
	}
	if err := e.sessions.Upsert(s); err != nil {
		return nil, classifyAuthErr(errors.Wrap(err, "[Engine.SignInWithEmail] store session"))
	}
	e.setErr(nil)
	return s, nil
}

// SignUpWithEmail registers an email account. The session starts without
// tokens; VerifyEmail installs the first usable pair.
func (e *Engine) SignUpWithEmail(ctx context.Context, username, email, password string) (*session.Session, error) {
	result, err := e.backend.EmailRegister(ctx, username, email, password)
	if err != nil {
		typed := classifyAuthErr(err)
		e.setErr(typed)
		return nil, typed
	}
	s := e.sessionFromAuthResult(result, session.AuthMethodEmail)
	s.Tokens.AccessToken = ""
	s.Tokens.RefreshToken = ""
	s.EmailVerified = false
	if err := e.sessions.Upsert(s); err != nil {
		return nil, classifyAuthErr(errors.Wrap(err, "[Engine.SignUpWithEmail] store session"))
	}
	e.setErr(nil)
	return s, nil
}

// VerifyEmail confirms the address with the emailed code and stores the
// backend's first token pair for the account.
func (e *Engine) VerifyEmail(ctx context.Context, email, code string) (*session.Session, error) {
	result, err := e.backend.VerifyEmail(ctx, email, code)
	if err != nil {
		typed := classifyAuthErr(err)
		e.setErr(typed)
		return nil, typed
	}
	s := e.sessionFromAuthResult(result, session.AuthMethodEmail)
	s.EmailVerified = true
	if err := e.sessions.Upsert(s); err != nil {
		return nil, classifyAuthErr(errors.Wrap(err, "[Engine.VerifyEmail] store session"))
	}
	e.setErr(nil)
	return s, nil
}
